package doctree

// DeepCopy returns an independent copy of d, preserving d's allocator
// binding on the new root (spec.md section 3.4's "copy-assigning into a
// Document preserves the destination allocator" reading adjusted to a
// single-root copy rather than an assignment into an existing tree).
func (d *Document) DeepCopy() *Document {
	if d == nil {
		return nil
	}
	n := &Document{
		kind:    d.kind,
		tag:     d.tag,
		boolVal: d.boolVal,
		i64:     d.i64,
		u64:     d.u64,
		f64:     d.f64,
		half:    d.half,
		str:     d.str,
		extra:   d.extra,
		alloc:   d.alloc,
	}
	if d.bytes != nil {
		n.bytes = append([]byte(nil), d.bytes...)
	}
	if d.arr != nil {
		n.arr = make([]*Document, len(d.arr))
		for i, c := range d.arr {
			n.arr[i] = c.DeepCopy()
		}
	}
	if d.obj != nil {
		n.obj = d.obj.clone()
	}
	return n
}

// Assign replaces d's contents with a deep copy of src, per spec.md
// section 9's allocator-propagation rule: a move-assignment transfers the
// source's allocator into the destination, a copy preserves the
// destination's. Assign implements the copy form (src is left untouched);
// use MoveFrom for the move form.
func (d *Document) Assign(src *Document) {
	cp := src.DeepCopy()
	cp.alloc = d.alloc
	*d = *cp
}

// MoveFrom transfers src's contents into d and leaves src as a valid empty
// (Null) Document bound to its own original allocator, per spec.md section
// 3.4: "transferred out via accessor mutation leave the parent containing
// Null."
func (d *Document) MoveFrom(src *Document) {
	srcAlloc := src.alloc
	*d = *src
	*src = Document{alloc: srcAlloc}
}
