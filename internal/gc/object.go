// Package gc implements the managed object heap and the tracing
// mark-sweep collector that owns every Lox object's lifetime.
package gc

import (
	"fmt"
	"strings"

	"github.com/leonardinius/golox/internal/bytecode"
	"github.com/leonardinius/golox/internal/value"
)

// ObjKind tags the concrete type of a heap Object.
type ObjKind byte

const (
	ObjString ObjKind = iota
	ObjFunction
	ObjNative
	ObjClosure
	ObjUpvalue
	ObjClass
	ObjInstance
	ObjBoundMethod
)

func (k ObjKind) String() string {
	switch k {
	case ObjString:
		return "string"
	case ObjFunction:
		return "function"
	case ObjNative:
		return "native"
	case ObjClosure:
		return "closure"
	case ObjUpvalue:
		return "upvalue"
	case ObjClass:
		return "class"
	case ObjInstance:
		return "instance"
	case ObjBoundMethod:
		return "bound method"
	default:
		return "object"
	}
}

// Object is the common interface every heap-allocated value satisfies; it is
// also the value.Object a value.Value of kind Obj carries.
type Object interface {
	value.Object
	header() *gcHeader
}

// gcHeader is embedded first in every concrete object so the heap can walk
// a single intrusive linked list during sweep without a side table —
// grounded in how mark-sweep trackers commonly thread a free/live list
// through the objects they own.
type gcHeader struct {
	marked bool
	next   Object
}

func (h *gcHeader) header() *gcHeader { return h }

// String is an interned, immutable byte sequence with a precomputed hash.
type String struct {
	gcHeader
	Chars string
	Hash  uint32
}

func (s *String) ObjKind() byte  { return byte(ObjString) }
func (s *String) String() string { return s.Chars }

// Function is a compiled function prototype: its arity, how many upvalues
// its closures must carry, its bytecode, and an optional name (nil for the
// top-level script).
type Function struct {
	gcHeader
	Arity        int
	UpvalueCount int
	Chunk        *bytecode.Chunk
	Name         *String
}

func (f *Function) ObjKind() byte { return byte(ObjFunction) }

// NumUpvalues reports how many upvalues closures over f must capture. It
// exists so package bytecode's disassembler can read this count without
// importing gc (which already imports bytecode for Chunk).
func (f *Function) NumUpvalues() int { return f.UpvalueCount }

func (f *Function) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// NativeFn is a host callable backing a Native object.
type NativeFn func(args []value.Value) (value.Value, error)

// Native wraps a host function so it can be called like any other Lox
// callable.
type Native struct {
	gcHeader
	Name  string
	Arity int
	Fn    NativeFn
}

func (n *Native) ObjKind() byte  { return byte(ObjNative) }
func (n *Native) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }

// Upvalue is a heap cell representing a variable captured by a closure: open
// while its value still lives on the VM stack, closed once relocated here.
type Upvalue struct {
	gcHeader
	// Location is the absolute VM stack index while open; ignored once
	// Closed is true.
	Location int
	Closed   bool
	Value    value.Value
	// Next links the VM's open-upvalue list, sorted by descending
	// Location. Unused once Closed.
	Next *Upvalue
}

func (u *Upvalue) ObjKind() byte { return byte(ObjUpvalue) }
func (u *Upvalue) String() string {
	return "upvalue"
}

// Closure pairs a Function with the upvalues it captured at creation time.
type Closure struct {
	gcHeader
	Function *Function
	Upvalues []*Upvalue
}

func (c *Closure) ObjKind() byte  { return byte(ObjClosure) }
func (c *Closure) String() string { return c.Function.String() }

// Class holds a name and its method table. It keeps no superclass link;
// inherited methods are copied into Methods by INHERIT.
type Class struct {
	gcHeader
	Name    *String
	Methods map[*String]*Closure
}

func (c *Class) ObjKind() byte  { return byte(ObjClass) }
func (c *Class) String() string { return c.Name.Chars }

// FindMethod looks up name in the class's own method table. Inheritance is
// realized at compile/INHERIT time by copying the superclass's method table
// into the subclass (spec: "INHERIT copies base methods into subclass"), so
// a single map lookup here is sufficient — no superclass chain walk needed.
func (c *Class) FindMethod(name *String) (*Closure, bool) {
	m, ok := c.Methods[name]
	return m, ok
}

// Instance is a live object of some Class with its own field table.
type Instance struct {
	gcHeader
	Class  *Class
	Fields map[*String]value.Value
}

func (i *Instance) ObjKind() byte  { return byte(ObjInstance) }
func (i *Instance) String() string { return i.Class.Name.Chars + " instance" }

// BoundMethod pairs a receiver Instance with a Closure; two accesses of
// `instance.method` always allocate distinct BoundMethod objects, so they
// compare equal only to themselves (pointer identity).
type BoundMethod struct {
	gcHeader
	Receiver value.Value
	Method   *Closure
}

func (b *BoundMethod) ObjKind() byte  { return byte(ObjBoundMethod) }
func (b *BoundMethod) String() string { return b.Method.String() }

var (
	_ Object = (*String)(nil)
	_ Object = (*Function)(nil)
	_ Object = (*Native)(nil)
	_ Object = (*Closure)(nil)
	_ Object = (*Upvalue)(nil)
	_ Object = (*Class)(nil)
	_ Object = (*Instance)(nil)
	_ Object = (*BoundMethod)(nil)
)

// FunctionSignature renders a function-like object's disassembly header.
func FunctionSignature(f *Function) string {
	var b strings.Builder
	b.WriteString(f.String())
	fmt.Fprintf(&b, "/%d", f.Arity)
	return b.String()
}
