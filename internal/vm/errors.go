package vm

import "github.com/leonardinius/golox/internal/loxerrors"

// runtimeError wraps cause in a loxerrors.RuntimeError carrying a full
// stack trace of the currently active call frames, innermost first
// (spec.md §7.3, §4.4). After capturing the trace it resets the value stack,
// call frames and open-upvalue list; the caller (run's dispatch loop)
// unwinds immediately by returning the error.
func (vm *VM) runtimeError(cause error) error {
	frames := make([]loxerrors.StackFrame, 0, vm.frameCount)
	for i := vm.frameCount - 1; i >= 0; i-- {
		f := &vm.frames[i]
		fn := f.closure.Function
		line := fn.Chunk.LineAt(f.ip - 1)
		name := ""
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		frames = append(frames, loxerrors.StackFrame{Line: line, Name: name})
	}
	vm.resetStack()
	return loxerrors.NewRuntimeError(cause, frames)
}
