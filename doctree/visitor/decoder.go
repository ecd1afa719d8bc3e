package visitor

import (
	"fmt"

	"github.com/quillbyte/doctree"
)

// Decoder is a Visitor that builds a *doctree.Document from the event
// stream it receives (spec.md section 4.2/4.3: "Decoder: a Visitor that
// builds a Document"). It is format-agnostic: any parser in this module
// can drive a Decoder.
type Decoder struct {
	alloc      doctree.Allocator
	policy     doctree.ObjectPolicy
	root       *doctree.Document
	stack      []frame
	pendingKey *string
}

type frame struct {
	container *doctree.Document
	key       string
	haveKey   bool
}

// NewDecoder returns a Decoder that builds Objects using policy and
// allocates new Documents via alloc (nil means doctree.DefaultAllocator).
func NewDecoder(alloc doctree.Allocator, policy doctree.ObjectPolicy) *Decoder {
	return &Decoder{alloc: alloc, policy: policy}
}

// Document returns the fully-built root Document once the producer has
// finished (i.e. after the matching End* for the root, or after a single
// top-level scalar).
func (d *Decoder) Document() *doctree.Document {
	return d.root
}

func (d *Decoder) push(v *doctree.Document) error {
	if len(d.stack) == 0 {
		d.root = v
		return nil
	}
	top := &d.stack[len(d.stack)-1]
	switch top.container.Kind() {
	case doctree.KindArray:
		return top.container.Append(v)
	case doctree.KindObject:
		if !top.haveKey {
			return fmt.Errorf("%w: value without preceding key", doctree.ErrParse)
		}
		if err := top.container.Set(top.key, v); err != nil {
			return err
		}
		top.haveKey = false
		return nil
	default:
		return fmt.Errorf("%w: decoder stack corrupted", doctree.ErrParse)
	}
}

func (d *Decoder) BeginObject(length int, tag doctree.Tag, ctx Context) (bool, error) {
	obj := doctree.NewObject(d.policy).SetTag(tag)
	if err := d.push(obj); err != nil {
		return false, err
	}
	d.stack = append(d.stack, frame{container: obj})
	return true, nil
}

func (d *Decoder) EndObject(ctx Context) (bool, error) {
	if len(d.stack) == 0 || d.stack[len(d.stack)-1].container.Kind() != doctree.KindObject {
		return false, fmt.Errorf("%w: unmatched EndObject", doctree.ErrParse)
	}
	d.stack = d.stack[:len(d.stack)-1]
	return true, nil
}

func (d *Decoder) BeginArray(length int, tag doctree.Tag, ctx Context) (bool, error) {
	arr := doctree.NewArray().SetTag(tag)
	if err := d.push(arr); err != nil {
		return false, err
	}
	d.stack = append(d.stack, frame{container: arr})
	return true, nil
}

func (d *Decoder) EndArray(ctx Context) (bool, error) {
	if len(d.stack) == 0 || d.stack[len(d.stack)-1].container.Kind() != doctree.KindArray {
		return false, fmt.Errorf("%w: unmatched EndArray", doctree.ErrParse)
	}
	d.stack = d.stack[:len(d.stack)-1]
	return true, nil
}

func (d *Decoder) Key(key string, ctx Context) (bool, error) {
	if len(d.stack) == 0 || d.stack[len(d.stack)-1].container.Kind() != doctree.KindObject {
		return false, fmt.Errorf("%w: key outside object", doctree.ErrParse)
	}
	top := &d.stack[len(d.stack)-1]
	top.key = key
	top.haveKey = true
	return true, nil
}

func (d *Decoder) Null(tag doctree.Tag, ctx Context) (bool, error) {
	return true, d.push(doctree.NewNull().SetTag(tag))
}

func (d *Decoder) Bool(v bool, tag doctree.Tag, ctx Context) (bool, error) {
	return true, d.push(doctree.NewBool(v).SetTag(tag))
}

func (d *Decoder) Int64(v int64, tag doctree.Tag, ctx Context) (bool, error) {
	return true, d.push(doctree.NewInt64(v).SetTag(tag))
}

func (d *Decoder) UInt64(v uint64, tag doctree.Tag, ctx Context) (bool, error) {
	return true, d.push(doctree.NewUInt64(v).SetTag(tag))
}

func (d *Decoder) Half(raw uint16, tag doctree.Tag, ctx Context) (bool, error) {
	return true, d.push(doctree.NewHalfFloat(raw).SetTag(tag))
}

func (d *Decoder) Double(v float64, tag doctree.Tag, ctx Context) (bool, error) {
	return true, d.push(doctree.NewDouble(v).SetTag(tag))
}

func (d *Decoder) String(v string, tag doctree.Tag, ctx Context) (bool, error) {
	switch tag {
	case doctree.TagBigInt:
		return true, d.push(doctree.NewBigInt(v))
	case doctree.TagBigDec:
		return true, d.push(doctree.NewBigDec(v))
	default:
		return true, d.push(doctree.NewString(v).SetTag(tag))
	}
}

func (d *Decoder) ByteString(v []byte, tag doctree.Tag, ctx Context) (bool, error) {
	return true, d.push(doctree.NewByteString(v).SetTag(tag))
}

func (d *Decoder) TypedArray(data TypedArrayData, tag doctree.Tag, ctx Context) (bool, error) {
	var arr *doctree.Document
	switch {
	case data.Floats != nil:
		arr = doctree.NewTypedFloat64Array(data.Floats)
	case data.Ints != nil:
		arr = doctree.NewTypedInt64Array(data.Ints)
	default:
		vals := make([]int64, len(data.Uints))
		for i, u := range data.Uints {
			vals[i] = int64(u)
		}
		arr = doctree.NewTypedInt64Array(vals)
	}
	arr.SetTag(tag)
	return true, d.push(arr)
}

func (d *Decoder) Flush() error { return nil }
