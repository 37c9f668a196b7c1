package vm

import (
	"github.com/leonardinius/golox/internal/gc"
	"github.com/leonardinius/golox/internal/value"
)

// captureUpvalue returns the open upvalue for absolute stack slot, reusing
// one already on the open list if a prior closure captured the same slot,
// per the dedup spec.md implies by keeping the list sorted and searched
// before allocating.
func (vm *VM) captureUpvalue(slot int) *gc.Upvalue {
	var prev *gc.Upvalue
	uv := vm.openUpvalues

	for uv != nil && uv.Location > slot {
		prev = uv
		uv = uv.Next
	}
	if uv != nil && uv.Location == slot {
		return uv
	}

	created := vm.heap.NewUpvalue(slot)
	created.Next = uv
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above absolute stack slot
// lastSlot, moving each one's value off the stack and into its own Closed
// cell (spec.md §4.4 CLOSE_UPVALUE / RETURN).
func (vm *VM) closeUpvalues(lastSlot int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Location >= lastSlot {
		uv := vm.openUpvalues
		uv.Value = vm.stack[uv.Location]
		uv.Closed = true
		vm.openUpvalues = uv.Next
		uv.Next = nil
	}
}

func (vm *VM) getUpvalue(uv *gc.Upvalue) value.Value {
	if uv.Closed {
		return uv.Value
	}
	return vm.stack[uv.Location]
}

func (vm *VM) setUpvalue(uv *gc.Upvalue, v value.Value) {
	if uv.Closed {
		uv.Value = v
		return
	}
	vm.stack[uv.Location] = v
}
