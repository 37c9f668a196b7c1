package compiler

import "github.com/leonardinius/golox/internal/gc"

// FunctionKind distinguishes the four contexts a FunctionCompiler can be
// compiling in, since each has different sentinel-local and return rules.
type FunctionKind int

const (
	KindScript FunctionKind = iota
	KindFunction
	KindMethod
	KindInitializer
)

const maxLocals = 256
const maxUpvalues = 256

// localVar is one entry of a FunctionCompiler's locals stack.
type localVar struct {
	name     string
	depth    int
	captured bool
}

// uninitialized marks a local that has been declared but whose initializer
// has not yet finished compiling; reading it in that window is an error.
const uninitialized = -1

// upvalueRef is one entry of a FunctionCompiler's upvalues stack.
type upvalueRef struct {
	index   byte
	isLocal bool
}

// FunctionCompiler holds all compile-time state for one function body: the
// gc.Function under construction, its locals/upvalues, and the enclosing
// frame to resume into once this one finishes. Pushed on `fun`/method entry,
// popped on body completion.
type FunctionCompiler struct {
	enclosing *FunctionCompiler

	function *gc.Function
	kind     FunctionKind

	locals     []localVar
	upvalues   []upvalueRef
	scopeDepth int
}

// newFunctionCompiler seeds locals[0] per spec.md §4.2: "this" for
// Method/Initializer, the empty (inaccessible) name otherwise.
func newFunctionCompiler(enclosing *FunctionCompiler, fn *gc.Function, kind FunctionKind) *FunctionCompiler {
	fc := &FunctionCompiler{
		enclosing: enclosing,
		function:  fn,
		kind:      kind,
	}
	reserved := ""
	if kind == KindMethod || kind == KindInitializer {
		reserved = "this"
	}
	fc.locals = append(fc.locals, localVar{name: reserved, depth: 0})
	return fc
}

// resolveLocal scans fc's locals from most to least recently declared,
// returning its slot. depth == uninitialized signals "found, but not yet
// usable" to the caller.
func (fc *FunctionCompiler) resolveLocal(name string) (slot int, depth int, found bool) {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name == name {
			return i, fc.locals[i].depth, true
		}
	}
	return 0, 0, false
}

// addUpvalue registers (index, isLocal) in fc's upvalue list, deduplicating
// so repeated captures of the same variable share one slot (spec.md §4.2).
func (fc *FunctionCompiler) addUpvalue(index byte, isLocal bool) (int, bool) {
	for i, uv := range fc.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i, true
		}
	}
	if len(fc.upvalues) >= maxUpvalues {
		return 0, false
	}
	fc.upvalues = append(fc.upvalues, upvalueRef{index: index, isLocal: isLocal})
	fc.function.UpvalueCount = len(fc.upvalues)
	return len(fc.upvalues) - 1, true
}

// ClassCompiler tracks compile-time context while a class body is being
// compiled, chiefly whether `super` is in scope.
type ClassCompiler struct {
	enclosing     *ClassCompiler
	hasSuperclass bool
}
