package doctree

import "fmt"

// AsTypedFloat64s extracts a homogeneous numeric Array as a []float64 slice,
// the typed-array fast path from SPEC_FULL.md section 2.2 grounded in CBOR's
// tags 64-87 (spec.md section 6.2). It fails if any element is not
// convertible to a double.
func (d *Document) AsTypedFloat64s() ([]float64, error) {
	arr, err := d.Array()
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(arr))
	for i, e := range arr {
		v, err := e.AsDouble()
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// AsTypedInt64s is the integer counterpart of AsTypedFloat64s.
func (d *Document) AsTypedInt64s() ([]int64, error) {
	arr, err := d.Array()
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(arr))
	for i, e := range arr {
		v, err := e.AsInt64()
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// NewTypedFloat64Array builds an ordinary Array Document of Double
// elements from vals, tagged TagNone. visitor.Walk emits it as
// BeginArray/Double.../EndArray, so encoders write it as a plain array,
// not as a CBOR typed array.
func NewTypedFloat64Array(vals []float64) *Document {
	d := NewArray()
	for _, v := range vals {
		d.arr = append(d.arr, NewDouble(v))
	}
	return d
}

// NewTypedInt64Array is the integer counterpart of NewTypedFloat64Array.
func NewTypedInt64Array(vals []int64) *Document {
	d := NewArray()
	for _, v := range vals {
		d.arr = append(d.arr, NewInt64(v))
	}
	return d
}
