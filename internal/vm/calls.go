package vm

import (
	"github.com/leonardinius/golox/internal/gc"
	"github.com/leonardinius/golox/internal/loxerrors"
	"github.com/leonardinius/golox/internal/value"
)

// callValue implements spec.md §4.4's CALL dispatch table: Closure,
// NativeFunction, Class, BoundMethod, or a runtime error for anything else.
func (vm *VM) callValue(callee value.Value, argCount int) error {
	if callee.IsObj() {
		switch obj := callee.AsObj().(type) {
		case *gc.Closure:
			return vm.callClosure(obj, argCount)
		case *gc.Native:
			return vm.callNative(obj, argCount)
		case *gc.Class:
			return vm.callClass(obj, argCount)
		case *gc.BoundMethod:
			vm.stack[vm.stackTop-argCount-1] = obj.Receiver
			return vm.callClosure(obj.Method, argCount)
		}
	}
	return vm.runtimeError(loxerrors.ErrCalleeMustBeCallable)
}

func (vm *VM) callClosure(closure *gc.Closure, argCount int) error {
	if argCount != closure.Function.Arity {
		return vm.runtimeError(loxerrors.ErrArityMismatch(closure.Function.Arity, argCount))
	}
	if vm.frameCount == FramesMax {
		return vm.runtimeError(loxerrors.ErrStackOverflow)
	}

	frame := &vm.frames[vm.frameCount]
	frame.closure = closure
	frame.ip = 0
	frame.slotBase = vm.stackTop - argCount - 1
	vm.frameCount++
	return nil
}

func (vm *VM) callNative(native *gc.Native, argCount int) error {
	if argCount != native.Arity {
		return vm.runtimeError(loxerrors.ErrArityMismatch(native.Arity, argCount))
	}
	args := vm.stack[vm.stackTop-argCount : vm.stackTop]
	result, err := native.Fn(args)
	if err != nil {
		return vm.runtimeError(err)
	}
	vm.stackTop -= argCount + 1
	vm.push(result)
	return nil
}

func (vm *VM) callClass(class *gc.Class, argCount int) error {
	instance := vm.heap.NewInstance(class)
	vm.stack[vm.stackTop-argCount-1] = value.ObjValue(instance)

	if initializer, ok := class.FindMethod(vm.initString()); ok {
		return vm.callClosure(initializer, argCount)
	}
	if argCount != 0 {
		return vm.runtimeError(loxerrors.ErrArityMismatch(0, argCount))
	}
	return nil
}

// invoke is the fast path for `obj.m(args)`: a field shadowing the method
// name is resolved and called via the general callValue path (spec.md
// §4.4); otherwise the method closure is called directly, skipping the
// BoundMethod allocation a GET_PROPERTY + CALL pair would need.
func (vm *VM) invoke(name *gc.String, argCount int) error {
	receiver := vm.peek(argCount)
	instance, ok := receiver.AsObj().(*gc.Instance)
	if !ok {
		return vm.runtimeError(loxerrors.ErrOnlyInstancesHaveProperties)
	}

	if v, ok := instance.Fields[name]; ok {
		vm.stack[vm.stackTop-argCount-1] = v
		return vm.callValue(v, argCount)
	}
	return vm.invokeFromClass(instance.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *gc.Class, name *gc.String, argCount int) error {
	method, ok := class.FindMethod(name)
	if !ok {
		return vm.runtimeError(loxerrors.ErrUndefinedProperty(name.Chars))
	}
	return vm.callClosure(method, argCount)
}

// initString is the interned "init" method name. Interning is a cheap map
// lookup, so there's no need to cache the pointer across calls.
func (vm *VM) initString() *gc.String {
	return vm.heap.InternString("init")
}
