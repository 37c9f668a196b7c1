package gc

import "github.com/leonardinius/golox/internal/value"

// Collector runs one mark phase: roots are pushed onto a gray worklist and
// drained iteratively (not recursively, so a long linked structure of Lox
// objects can't blow the Go stack the way a naive recursive marker would).
type Collector struct {
	heap *Heap
	gray []Object
}

// MarkValue marks v's object payload, if it has one. Safe to call with any
// value, including Nil/Bool/Number.
func (c *Collector) MarkValue(v value.Value) {
	if !v.IsObj() {
		return
	}
	if obj, ok := v.AsObj().(Object); ok {
		c.MarkObject(obj)
	}
}

// MarkObject marks o reachable and queues it for tracing. Safe to call with
// nil.
func (c *Collector) MarkObject(o Object) {
	if o == nil {
		return
	}
	h := o.header()
	if h.marked {
		return
	}
	h.marked = true
	c.gray = append(c.gray, o)
}

// trace drains the gray worklist, blackening each object by marking
// everything it references in turn.
func (c *Collector) trace() {
	for len(c.gray) > 0 {
		n := len(c.gray) - 1
		o := c.gray[n]
		c.gray = c.gray[:n]
		c.blacken(o)
	}
}

func (c *Collector) blacken(o Object) {
	switch obj := o.(type) {
	case *String:
		// No outgoing references.
	case *Function:
		if obj.Name != nil {
			c.MarkObject(obj.Name)
		}
		for _, k := range obj.Chunk.Constants {
			c.MarkValue(k)
		}
	case *Native:
		// No outgoing references.
	case *Closure:
		c.MarkObject(obj.Function)
		for _, uv := range obj.Upvalues {
			c.MarkObject(uv)
		}
	case *Upvalue:
		if obj.Closed {
			c.MarkValue(obj.Value)
		}
	case *Class:
		c.MarkObject(obj.Name)
		for name, m := range obj.Methods {
			c.MarkObject(name)
			c.MarkObject(m)
		}
	case *Instance:
		c.MarkObject(obj.Class)
		for name, v := range obj.Fields {
			c.MarkObject(name)
			c.MarkValue(v)
		}
	case *BoundMethod:
		c.MarkValue(obj.Receiver)
		c.MarkObject(obj.Method)
	}
}
