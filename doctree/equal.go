package doctree

// Equal reports deep equality between two Documents. Tag is ignored except
// where two different tags imply two different abstract values: a BigDec
// and a Double carrying the same numeric magnitude compare unequal unless
// both normalize to the same representation (spec.md section 4.3).
// Object equality treats Sorted and InsertionOrdered objects alike, as an
// unordered multimap of (key, value) pairs (spec.md section 9's resolved
// open question).
func Equal(a, b *Document) bool {
	if a == nil {
		a = NewNull()
	}
	if b == nil {
		b = NewNull()
	}
	if a.Kind() != b.Kind() {
		return numericCrossKindEqual(a, b)
	}
	switch a.Kind() {
	case KindNull:
		return true
	case KindBool:
		return a.boolVal == b.boolVal
	case KindInt64:
		return a.i64 == b.i64
	case KindUInt64:
		return a.u64 == b.u64
	case KindDouble:
		return a.f64 == b.f64
	case KindHalfFloat:
		return a.half == b.half
	case KindString:
		return a.str == b.str
	case KindByteString:
		return string(a.bytes) == string(b.bytes)
	case KindBigInt:
		return a.str == b.str
	case KindBigDec:
		return a.str == b.str
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return objectEqual(a.obj, b.obj)
	}
	return false
}

// numericCrossKindEqual allows differently-kinded numeric scalars (e.g.
// Int64 vs UInt64, or BigInt vs Int64 within range) to compare equal on
// magnitude, matching spec.md's "equality ignores tag except..." rule
// extended to the analogous cross-kind numeric case the Document model
// introduces by splitting signed/unsigned/big representations. Double and
// HalfFloat are compared by their widened float64 value rather than
// through the exact-integer path below, since section 3.2 defines
// HalfFloat as "decoded to double on access" -- a Double and the
// HalfFloat nearest it are the same value, not merely related ones.
func numericCrossKindEqual(a, b *Document) bool {
	if isBinaryFloatKind(a.Kind()) || isBinaryFloatKind(b.Kind()) {
		aFloat, aOK := binaryFloatValue(a)
		bFloat, bOK := binaryFloatValue(b)
		return aOK && bOK && aFloat == bFloat
	}
	aNum, aOK := numericMagnitude(a)
	bNum, bOK := numericMagnitude(b)
	if !aOK || !bOK {
		return false
	}
	return aNum == bNum
}

func isBinaryFloatKind(k Kind) bool {
	return k == KindDouble || k == KindHalfFloat
}

func binaryFloatValue(d *Document) (float64, bool) {
	switch d.Kind() {
	case KindInt64, KindUInt64, KindDouble, KindHalfFloat:
		f, err := d.AsDouble()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func numericMagnitude(d *Document) (string, bool) {
	switch d.Kind() {
	case KindInt64, KindUInt64, KindBigInt:
		s, err := d.AsBigIntString()
		if err != nil {
			return "", false
		}
		return s, true
	default:
		return "", false
	}
}

func objectEqual(a, b *object) bool {
	if a.len() != b.len() {
		return false
	}
	seen := make(map[string]bool, a.len())
	for _, p := range a.pairs {
		bv, ok := b.get(p.key)
		if !ok || !Equal(p.val, bv) {
			return false
		}
		seen[p.key] = true
	}
	for _, p := range b.pairs {
		if !seen[p.key] {
			return false
		}
	}
	return true
}
