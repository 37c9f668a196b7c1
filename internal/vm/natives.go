package vm

import (
	"fmt"
	"time"

	"github.com/leonardinius/golox/internal/gc"
	"github.com/leonardinius/golox/internal/value"
)

// defineNatives installs the fixed native-function registry (spec.md §6,
// §9's open question resolved by listing them here explicitly): clock, plus
// str/len/type, small and uncontroversial general-purpose helpers a host
// embedding a scripting VM is expected to offer.
func (vm *VM) defineNatives() {
	vm.defineNative("clock", 0, nativeClock)
	vm.defineNative("str", 1, func(args []value.Value) (value.Value, error) {
		return value.ObjValue(vm.heap.InternString(args[0].String())), nil
	})
	vm.defineNative("len", 1, nativeLen)
	vm.defineNative("type", 1, func(args []value.Value) (value.Value, error) {
		return value.ObjValue(vm.heap.InternString(kindName(args[0]))), nil
	})
}

func (vm *VM) defineNative(name string, arity int, fn gc.NativeFn) {
	native := vm.heap.NewNative(name, arity, fn)
	vm.globals[name] = value.ObjValue(native)
}

func nativeClock(_ []value.Value) (value.Value, error) {
	return value.NumberValue(float64(time.Now().UnixNano()) / float64(time.Second)), nil
}

func nativeLen(args []value.Value) (value.Value, error) {
	s, ok := args[0].AsObj().(*gc.String)
	if !ok {
		return value.NilValue, fmt.Errorf("len: argument must be a string")
	}
	return value.NumberValue(float64(len(s.Chars))), nil
}

func kindName(v value.Value) string {
	switch {
	case v.IsNil():
		return "nil"
	case v.IsBool():
		return "boolean"
	case v.IsNumber():
		return "number"
	case v.IsObj():
		switch v.AsObj().(type) {
		case *gc.String:
			return "string"
		case *gc.Function, *gc.Closure, *gc.Native, *gc.BoundMethod:
			return "function"
		case *gc.Class:
			return "class"
		case *gc.Instance:
			return "instance"
		default:
			return "object"
		}
	default:
		return "object"
	}
}
