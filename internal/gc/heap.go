package gc

import (
	"github.com/leonardinius/golox/internal/bytecode"
	"github.com/leonardinius/golox/internal/value"
)

// growFactor is how much the next collection threshold grows relative to
// live bytes surviving the current collection.
const growFactor = 2

// RootMarker is implemented by whoever currently owns the object graph's
// roots: the compiler while a FunctionCompiler chain is being built, and the
// VM once bytecode is executing. Heap.SetRootMarker swaps the active one.
type RootMarker interface {
	MarkRoots(c *Collector)
}

// Heap owns every object's lifetime: allocation, the intrusive live-object
// list, the string interner, and triggering collection.
type Heap struct {
	objects        Object
	bytesAllocated int
	nextGC         int
	stress         bool
	marker         RootMarker
	strings        *interner

	// Log, when non-nil, receives one summary line per collection; set by
	// vm.Options.WithGCLog for debugging.
	Log func(format string, args ...any)
}

// NewHeap returns an empty heap with collection disabled until enough bytes
// accumulate (or stress is enabled).
func NewHeap(stress bool) *Heap {
	return &Heap{
		nextGC:  1 << 20,
		stress:  stress,
		strings: newInterner(),
	}
}

// SetRootMarker installs the current owner of GC roots.
func (h *Heap) SetRootMarker(m RootMarker) {
	h.marker = m
}

// BytesAllocated reports current live-object accounting, exposed for tests
// that assert the collector actually reclaims memory.
func (h *Heap) BytesAllocated() int {
	return h.bytesAllocated
}

func (h *Heap) track(o Object, size int) {
	if h.stress || h.bytesAllocated+size > h.nextGC {
		h.Collect()
	}
	o.header().next = h.objects
	h.objects = o
	h.bytesAllocated += size
}

// Collect runs one full mark-sweep cycle. A no-op marker (nil) still sweeps,
// collecting every object — used by tests that want a clean heap.
func (h *Heap) Collect() {
	c := &Collector{heap: h}
	if h.marker != nil {
		h.marker.MarkRoots(c)
	}
	c.trace()
	h.strings.prune()
	live := h.sweep()
	h.bytesAllocated = live
	h.nextGC = live * growFactor
	if h.nextGC < (1 << 16) {
		h.nextGC = 1 << 16
	}
	if h.Log != nil {
		h.Log("gc: collected, %d bytes live, next at %d", live, h.nextGC)
	}
}

func (h *Heap) sweep() int {
	var prev Object
	live := 0
	obj := h.objects
	for obj != nil {
		hdr := obj.header()
		if hdr.marked {
			hdr.marked = false
			live += objectSize(obj)
			prev = obj
			obj = hdr.next
			continue
		}
		unreached := obj
		obj = hdr.next
		if prev != nil {
			prev.header().next = obj
		} else {
			h.objects = obj
		}
		_ = unreached
	}
	return live
}

func objectSize(o Object) int {
	switch v := o.(type) {
	case *String:
		return 32 + len(v.Chars)
	case *Function:
		return 64
	case *Native:
		return 48
	case *Closure:
		return 32 + 8*len(v.Upvalues)
	case *Upvalue:
		return 32
	case *Class:
		return 32 + 48*len(v.Methods)
	case *Instance:
		return 32 + 48*len(v.Fields)
	case *BoundMethod:
		return 32
	default:
		return 16
	}
}

// InternString returns the canonical *String for s, allocating and tracking
// a new one the first time s's exact content is seen.
func (h *Heap) InternString(s string) *String {
	if existing, ok := h.strings.find(s); ok {
		return existing
	}
	obj := &String{Chars: s, Hash: fnv1a(s)}
	h.track(obj, objectSize(obj))
	h.strings.add(obj)
	return obj
}

// NewFunction allocates a function prototype with a fresh, empty chunk.
func (h *Heap) NewFunction(name *String, arity int) *Function {
	fn := &Function{Name: name, Arity: arity, Chunk: bytecode.NewChunk()}
	h.track(fn, objectSize(fn))
	return fn
}

// NewNative allocates a native-function object.
func (h *Heap) NewNative(name string, arity int, fn NativeFn) *Native {
	n := &Native{Name: name, Arity: arity, Fn: fn}
	h.track(n, objectSize(n))
	return n
}

// NewClosure allocates a closure over fn with upvalueCount empty upvalue
// slots, filled in by the caller (the VM's OP_CLOSURE handler).
func (h *Heap) NewClosure(fn *Function) *Closure {
	c := &Closure{Function: fn, Upvalues: make([]*Upvalue, fn.UpvalueCount)}
	h.track(c, objectSize(c))
	return c
}

// NewUpvalue allocates an open upvalue pointing at the given absolute stack
// slot.
func (h *Heap) NewUpvalue(stackSlot int) *Upvalue {
	uv := &Upvalue{Location: stackSlot}
	h.track(uv, objectSize(uv))
	return uv
}

// NewClass allocates a class named name with an empty method table.
func (h *Heap) NewClass(name *String) *Class {
	c := &Class{Name: name, Methods: make(map[*String]*Closure)}
	h.track(c, objectSize(c))
	return c
}

// NewInstance allocates an instance of class with an empty field table.
func (h *Heap) NewInstance(class *Class) *Instance {
	i := &Instance{Class: class, Fields: make(map[*String]value.Value)}
	h.track(i, objectSize(i))
	return i
}

// NewBoundMethod allocates a method bound to receiver.
func (h *Heap) NewBoundMethod(receiver value.Value, method *Closure) *BoundMethod {
	b := &BoundMethod{Receiver: receiver, Method: method}
	h.track(b, objectSize(b))
	return b
}
