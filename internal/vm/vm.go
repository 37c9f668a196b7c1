// Package vm implements the stack-based virtual machine that executes
// compiled Lox bytecode: the dispatch loop, call frames, upvalue closing,
// and class/bound-method call semantics.
package vm

import (
	"fmt"
	"io"

	"golang.org/x/exp/maps"

	"github.com/leonardinius/golox/internal/bytecode"
	"github.com/leonardinius/golox/internal/compiler"
	"github.com/leonardinius/golox/internal/gc"
	"github.com/leonardinius/golox/internal/loxerrors"
	"github.com/leonardinius/golox/internal/value"
)

// FramesMax bounds recursion depth; exceeding it is a runtime "Stack
// overflow" error (spec.md §4.4).
const FramesMax = 64

// stackMaxPerFrame is a per-frame budget on value-stack slots; StackMax is
// sized off of it the way lox-vm/src/vm.rs derives STACK_MAX from
// FRAMES_MAX, rather than picking an arbitrary flat constant.
const stackMaxPerFrame = 256

// StackMax is the fixed value-stack capacity (spec.md §4.4 "sized to 16
// KiB" — here 16384 Value slots, not bytes; the exact byte budget depends
// on Value's Go layout, documented in DESIGN.md).
const StackMax = FramesMax * stackMaxPerFrame

// CallFrame is one active invocation's bookkeeping (spec.md §4.4).
type CallFrame struct {
	closure  *gc.Closure
	ip       int
	slotBase int
}

// VM executes bytecode produced by package compiler.
type VM struct {
	stack    [StackMax]value.Value
	stackTop int

	frames     [FramesMax]CallFrame
	frameCount int

	// globals is keyed by Go string, not interned *gc.String: spec.md's
	// identity-comparison invariant is about user-level Lox string values,
	// not the table's own key representation (lox-vm/src/vm.rs keys its
	// globals table the analogous way, by str content).
	globals map[string]value.Value
	natives map[string]*gc.Native

	openUpvalues *gc.Upvalue

	heap *gc.Heap
	opts *vmOpts
}

// New constructs a VM with its own heap.
func New(options ...Option) *VM {
	opts := newVMOpts(options...)
	vm := &VM{
		globals: make(map[string]value.Value),
		natives: make(map[string]*gc.Native),
		heap:    gc.NewHeap(opts.stressGC),
		opts:    opts,
	}
	if opts.gcLog != nil {
		vm.heap.Log = opts.gcLog
	}
	vm.heap.SetRootMarker(vm)
	vm.defineNatives()
	return vm
}

// Interpret compiles and runs source to completion, writing PRINT output to
// the configured stdout. It returns a *loxerrors.CompileError-joined error
// for compile failures or a *loxerrors.RuntimeError for a runtime failure.
func (vm *VM) Interpret(source string) error {
	fn, _, err := compiler.Compile(source, vm.heap)
	// Compile installs itself as the heap's root marker while it runs
	// (spec.md §4.6 root v); hand roots back to the VM before allocating
	// anything else so a GC mid-execution doesn't walk a stale compiler.
	vm.heap.SetRootMarker(vm)
	if err != nil {
		return err
	}

	// Keep fn reachable from the stack while its closure is allocated, so a
	// collection triggered by that allocation still marks its constants.
	vm.push(value.ObjValue(fn))
	closure := vm.heap.NewClosure(fn)
	vm.stack[vm.stackTop-1] = value.ObjValue(closure)
	vm.callClosure(closure, 0)

	return vm.run()
}

// MarkRoots implements gc.RootMarker (spec.md §4.6 roots i-iv).
func (vm *VM) MarkRoots(c *gc.Collector) {
	for i := 0; i < vm.stackTop; i++ {
		c.MarkValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		c.MarkObject(vm.frames[i].closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.Next {
		c.MarkObject(uv)
	}
	for _, v := range maps.Values(vm.globals) {
		c.MarkValue(v)
	}
	for _, n := range maps.Values(vm.natives) {
		c.MarkObject(n)
	}
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

func (vm *VM) frame() *CallFrame {
	return &vm.frames[vm.frameCount-1]
}

func (vm *VM) readByte() byte {
	f := vm.frame()
	b := f.closure.Function.Chunk.Code[f.ip]
	f.ip++
	return b
}

func (vm *VM) readShort() int {
	f := vm.frame()
	hi := f.closure.Function.Chunk.Code[f.ip]
	lo := f.closure.Function.Chunk.Code[f.ip+1]
	f.ip += 2
	return int(hi)<<8 | int(lo)
}

func (vm *VM) readConstant() value.Value {
	return vm.frame().closure.Function.Chunk.Constants[vm.readByte()]
}

func (vm *VM) readConstantLong() value.Value {
	f := vm.frame()
	code := f.closure.Function.Chunk.Code
	idx := int(code[f.ip]) | int(code[f.ip+1])<<8 | int(code[f.ip+2])<<16
	f.ip += 3
	return f.closure.Function.Chunk.Constants[idx]
}

func (vm *VM) readString() *gc.String {
	return vm.readConstant().AsObj().(*gc.String)
}

// run is the dispatch loop: read one opcode, switch on it, repeat until a
// RETURN unwinds the last frame or a runtime error aborts execution.
func (vm *VM) run() error {
	for {
		if vm.opts.trace {
			vm.traceInstruction()
		}

		op := bytecode.OpCode(vm.readByte())
		switch op {
		case bytecode.OP_CONSTANT:
			vm.push(vm.readConstant())
		case bytecode.OP_CONSTANT_LONG:
			vm.push(vm.readConstantLong())
		case bytecode.OP_NIL:
			vm.push(value.NilValue)
		case bytecode.OP_TRUE:
			vm.push(value.BoolValue(true))
		case bytecode.OP_FALSE:
			vm.push(value.BoolValue(false))
		case bytecode.OP_POP:
			vm.pop()

		case bytecode.OP_GET_LOCAL:
			slot := vm.readByte()
			vm.push(vm.stack[vm.frame().slotBase+int(slot)])
		case bytecode.OP_SET_LOCAL:
			slot := vm.readByte()
			vm.stack[vm.frame().slotBase+int(slot)] = vm.peek(0)

		case bytecode.OP_GET_GLOBAL:
			name := vm.readString()
			v, ok := vm.globals[name.Chars]
			if !ok {
				return vm.runtimeError(loxerrors.ErrUndefinedVariableNamed(name.Chars))
			}
			vm.push(v)
		case bytecode.OP_DEFINE_GLOBAL:
			name := vm.readString()
			vm.globals[name.Chars] = vm.peek(0)
			vm.pop()
		case bytecode.OP_SET_GLOBAL:
			name := vm.readString()
			if _, ok := vm.globals[name.Chars]; !ok {
				return vm.runtimeError(loxerrors.ErrUndefinedVariableNamed(name.Chars))
			}
			vm.globals[name.Chars] = vm.peek(0)

		case bytecode.OP_GET_UPVALUE:
			slot := vm.readByte()
			vm.push(vm.getUpvalue(vm.frame().closure.Upvalues[slot]))
		case bytecode.OP_SET_UPVALUE:
			slot := vm.readByte()
			vm.setUpvalue(vm.frame().closure.Upvalues[slot], vm.peek(0))
		case bytecode.OP_CLOSE_UPVALUE:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case bytecode.OP_GET_PROPERTY:
			if err := vm.getProperty(); err != nil {
				return err
			}
		case bytecode.OP_SET_PROPERTY:
			if err := vm.setProperty(); err != nil {
				return err
			}
		case bytecode.OP_GET_SUPER:
			name := vm.readString()
			superclass := vm.pop().AsObj().(*gc.Class)
			receiver := vm.pop()
			if err := vm.bindMethod(superclass, name, receiver); err != nil {
				return err
			}

		case bytecode.OP_EQUAL:
			b, a := vm.pop(), vm.pop()
			vm.push(value.BoolValue(value.Equal(a, b)))
		case bytecode.OP_GREATER, bytecode.OP_LESS, bytecode.OP_ADD, bytecode.OP_SUBTRACT, bytecode.OP_MULTIPLY, bytecode.OP_DIVIDE:
			if err := vm.binaryOp(op); err != nil {
				return err
			}
		case bytecode.OP_NOT:
			vm.push(value.BoolValue(vm.pop().IsFalsey()))
		case bytecode.OP_NEGATE:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError(loxerrors.ErrOperandMustBeNumber)
			}
			vm.push(value.NumberValue(-vm.pop().AsNumber()))

		case bytecode.OP_PRINT:
			fmt.Fprintln(vm.stdout(), vm.pop().String())

		case bytecode.OP_JUMP:
			offset := vm.readShort()
			vm.frame().ip += offset
		case bytecode.OP_JUMP_IF_FALSE:
			offset := vm.readShort()
			if vm.peek(0).IsFalsey() {
				vm.frame().ip += offset
			}
		case bytecode.OP_LOOP:
			offset := vm.readShort()
			vm.frame().ip -= offset

		case bytecode.OP_CALL:
			argCount := int(vm.readByte())
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}
		case bytecode.OP_INVOKE:
			name := vm.readString()
			argCount := int(vm.readByte())
			if err := vm.invoke(name, argCount); err != nil {
				return err
			}
		case bytecode.OP_SUPER_INVOKE:
			name := vm.readString()
			argCount := int(vm.readByte())
			superclass := vm.pop().AsObj().(*gc.Class)
			if err := vm.invokeFromClass(superclass, name, argCount); err != nil {
				return err
			}
		case bytecode.OP_CLOSURE:
			fn := vm.readConstant().AsObj().(*gc.Function)
			closure := vm.heap.NewClosure(fn)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := vm.readByte()
				index := vm.readByte()
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(vm.frame().slotBase + int(index))
				} else {
					closure.Upvalues[i] = vm.frame().closure.Upvalues[index]
				}
			}
			vm.push(value.ObjValue(closure))

		case bytecode.OP_RETURN:
			// The compiler guarantees every return path out of an
			// Initializer pushes stack[slotBase] (the instance) before
			// reaching here, so RETURN itself needs no special case
			// (spec.md §4.4).
			result := vm.pop()
			base := vm.frame().slotBase
			vm.closeUpvalues(base)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.stackTop = base
			vm.push(result)

		case bytecode.OP_CLASS:
			vm.push(value.ObjValue(vm.heap.NewClass(vm.readString())))
		case bytecode.OP_INHERIT:
			superVal := vm.peek(1)
			superclass, ok := superVal.AsObj().(*gc.Class)
			if !ok {
				return vm.runtimeError(loxerrors.ErrSuperclassMustBeClass)
			}
			subclass := vm.peek(0).AsObj().(*gc.Class)
			maps.Copy(subclass.Methods, superclass.Methods)
			vm.pop()
		case bytecode.OP_METHOD:
			vm.defineMethod(vm.readString())

		default:
			return vm.runtimeError(fmt.Errorf("unknown opcode %d", op))
		}
	}
}

func (vm *VM) stdout() io.Writer {
	return vm.opts.stdout
}

func (vm *VM) binaryOp(op bytecode.OpCode) error {
	if op == bytecode.OP_ADD && vm.peek(0).IsObj() && vm.peek(1).IsObj() {
		bStr, bOK := vm.peek(0).AsObj().(*gc.String)
		aStr, aOK := vm.peek(1).AsObj().(*gc.String)
		if aOK && bOK {
			vm.pop()
			vm.pop()
			vm.push(value.ObjValue(vm.heap.InternString(aStr.Chars + bStr.Chars)))
			return nil
		}
	}

	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		if op == bytecode.OP_ADD {
			return vm.runtimeError(loxerrors.ErrOperandsMustBeNumbersOrStrings)
		}
		return vm.runtimeError(loxerrors.ErrOperandsMustBeNumbers)
	}

	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	switch op {
	case bytecode.OP_GREATER:
		vm.push(value.BoolValue(a > b))
	case bytecode.OP_LESS:
		vm.push(value.BoolValue(a < b))
	case bytecode.OP_ADD:
		vm.push(value.NumberValue(a + b))
	case bytecode.OP_SUBTRACT:
		vm.push(value.NumberValue(a - b))
	case bytecode.OP_MULTIPLY:
		vm.push(value.NumberValue(a * b))
	case bytecode.OP_DIVIDE:
		vm.push(value.NumberValue(a / b))
	}
	return nil
}

func (vm *VM) getProperty() error {
	instance, ok := vm.peek(0).AsObj().(*gc.Instance)
	if !ok {
		return vm.runtimeError(loxerrors.ErrOnlyInstancesHaveProperties)
	}
	name := vm.readString()

	if v, ok := instance.Fields[name]; ok {
		vm.pop()
		vm.push(v)
		return nil
	}
	return vm.bindMethod(instance.Class, name, vm.pop())
}

func (vm *VM) setProperty() error {
	instance, ok := vm.peek(1).AsObj().(*gc.Instance)
	if !ok {
		return vm.runtimeError(loxerrors.ErrOnlyInstancesHaveFields)
	}
	name := vm.readString()
	instance.Fields[name] = vm.peek(0)

	v := vm.pop()
	vm.pop()
	vm.push(v)
	return nil
}

func (vm *VM) bindMethod(class *gc.Class, name *gc.String, receiver value.Value) error {
	method, ok := class.FindMethod(name)
	if !ok {
		return vm.runtimeError(loxerrors.ErrUndefinedProperty(name.Chars))
	}
	bound := vm.heap.NewBoundMethod(receiver, method)
	vm.push(value.ObjValue(bound))
	return nil
}

func (vm *VM) defineMethod(name *gc.String) {
	method := vm.pop().AsObj().(*gc.Closure)
	class := vm.peek(0).AsObj().(*gc.Class)
	class.Methods[name] = method
}

