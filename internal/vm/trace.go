package vm

import (
	"fmt"

	"github.com/leonardinius/golox/internal/gc"
)

// traceInstruction prints the next instruction about to execute along with
// the current stack contents, gated behind Options.WithTrace — a debugging
// aid, never on by default.
func (vm *VM) traceInstruction() {
	f := vm.frame()
	fmt.Fprintf(vm.opts.stderr, "%-16s ", gc.FunctionSignature(f.closure.Function))
	for i := 0; i < vm.stackTop; i++ {
		fmt.Fprintf(vm.opts.stderr, "[ %s ]", vm.stack[i].String())
	}
	fmt.Fprintln(vm.opts.stderr)

	f.closure.Function.Chunk.DisassembleInstruction(vm.opts.stderr, f.ip)
}
