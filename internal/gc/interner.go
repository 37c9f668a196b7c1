package gc

// interner deduplicates string objects by content so that two source
// occurrences of the same text, or two runtime concatenations producing the
// same bytes, always resolve to one *String — letting Equal compare strings
// by pointer identity.
type interner struct {
	m map[string]*String
}

func newInterner() *interner {
	return &interner{m: make(map[string]*String)}
}

// find returns the existing interned String for s, if any.
func (in *interner) find(s string) (*String, bool) {
	v, ok := in.m[s]
	return v, ok
}

// add registers obj under its own Chars as the interned instance.
func (in *interner) add(obj *String) {
	in.m[obj.Chars] = obj
}

// prune drops every entry whose object was not marked during the most
// recent collection. Must run after mark, before sweep resets mark bits.
// The interner itself is never a GC root: a string that only the interner
// still points to is exactly a string nothing else uses, and it dies here.
func (in *interner) prune() {
	for k, v := range in.m {
		if !v.marked {
			delete(in.m, k)
		}
	}
}

// fnv1a hashes s the way clox hashes strings, kept for parity with the
// object's Hash field even though Go map lookups don't need it.
func fnv1a(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
