// Package embed exposes the core compiler/VM to a host that wants raw text
// fragments rather than a process's stdout/stderr — the browser worker named
// in spec.md §6 is expected to wrap Run's emitted fragments into its own
// newline-delimited JSON framing; that framing lives outside this package.
package embed

import (
	"github.com/leonardinius/golox/internal/vm"
)

// emitWriter adapts the fragment callback embed.Run wants to expose into the
// io.Writer the VM's Options already know how to target, so Run doesn't need
// its own buffering or output plumbing duplicate of vm.Options.
type emitWriter struct {
	emit func([]byte)
}

func (w emitWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b := make([]byte, len(p))
	copy(b, p)
	w.emit(b)
	return len(p), nil
}

// Run compiles and executes source, routing every PRINT fragment and any
// runtime-error text to emit (spec.md §6 embedding contract). It reports
// whether execution completed without a compile or runtime error; the
// caller maps that to ExitSuccess/ExitFailure and does its own JSON framing.
func Run(source []byte, emit func([]byte)) bool {
	out := emitWriter{emit: emit}
	machine := vm.New(vm.WithStdout(out), vm.WithStderr(out))
	err := machine.Interpret(string(source))
	if err != nil {
		emit([]byte(err.Error()))
		return false
	}
	return true
}
