// Package visitor defines the Visitor contract (spec.md section 4.2): the
// single event interface every format parser in this module emits and
// every format encoder (or decoder) consumes. It also holds Decoder, which
// builds a *doctree.Document from events, and Walk, which replays a
// Document as events; package doctree does not import visitor, so there is
// no import cycle.
package visitor

import "github.com/quillbyte/doctree"

// Context carries position information alongside an event, so a Visitor
// can report precise errors without depending on the producer's internal
// state.
type Context struct {
	Pos doctree.Position
}

// Visitor is polymorphic over the capability set described in spec.md
// section 4.2. Each method returns cont=true to keep going, cont=false to
// ask the producer to stop cleanly; err carries a structured reason when
// stopping is due to failure rather than caller-requested cancellation.
//
// Contract (enforced by producers, not by this interface):
//  1. Every BeginObject is matched by exactly one EndObject at the same
//     nesting level; same for BeginArray/EndArray.
//  2. Inside an object, events alternate strictly Key, value, Key, value,
//     ... where "value" is any non-Key event (including a nested Begin).
//  3. Begin* MAY carry a known length n (-1 means unknown); producers that
//     can determine it must supply it, so length-prefixed encoders can use
//     it directly.
//  4. Scalars are self-contained events.
//  5. Depth is bounded by a producer-side configured maximum.
type Visitor interface {
	BeginObject(length int, tag doctree.Tag, ctx Context) (cont bool, err error)
	EndObject(ctx Context) (cont bool, err error)
	BeginArray(length int, tag doctree.Tag, ctx Context) (cont bool, err error)
	EndArray(ctx Context) (cont bool, err error)
	Key(key string, ctx Context) (cont bool, err error)
	Null(tag doctree.Tag, ctx Context) (cont bool, err error)
	Bool(v bool, tag doctree.Tag, ctx Context) (cont bool, err error)
	Int64(v int64, tag doctree.Tag, ctx Context) (cont bool, err error)
	UInt64(v uint64, tag doctree.Tag, ctx Context) (cont bool, err error)
	Half(raw uint16, tag doctree.Tag, ctx Context) (cont bool, err error)
	Double(v float64, tag doctree.Tag, ctx Context) (cont bool, err error)
	String(v string, tag doctree.Tag, ctx Context) (cont bool, err error)
	ByteString(v []byte, tag doctree.Tag, ctx Context) (cont bool, err error)
	// TypedArray carries a homogeneous numeric array (CBOR tags 64-87,
	// spec.md section 6.2) in a single event; elems.ElemKind names the
	// element representation ("f64", "i64", "u64", "f32", etc.) and the
	// elements are held pre-decoded in elems.Floats, elems.Ints or
	// elems.Uints. The CBOR decoder emits it in place of
	// BeginArray/.../EndArray, so a Visitor that ignores this call (as
	// BaseVisitor does) drops that array.
	TypedArray(elems TypedArrayData, tag doctree.Tag, ctx Context) (cont bool, err error)
	// Flush drives any buffered output through. It is idempotent.
	Flush() error
}

// TypedArrayData holds a homogeneous numeric array in its native Go slice
// form, tagged by ElemKind.
type TypedArrayData struct {
	ElemKind  string // "u8","u16","u32","u64","i8","i16","i32","i64","f16","f32","f64"
	Floats    []float64
	Ints      []int64
	Uints     []uint64
	DimMajor  doctree.Tag // TagMultiDimRowMajor / TagMultiDimColumnMajor / TagNone
}

// BaseVisitor implements every Visitor method as a no-op returning
// cont=true, so concrete Visitors can embed it and override only the
// events they care about -- useful for cursors/filters that only intercept
// a handful of event kinds.
type BaseVisitor struct{}

func (BaseVisitor) BeginObject(int, doctree.Tag, Context) (bool, error)       { return true, nil }
func (BaseVisitor) EndObject(Context) (bool, error)                          { return true, nil }
func (BaseVisitor) BeginArray(int, doctree.Tag, Context) (bool, error)        { return true, nil }
func (BaseVisitor) EndArray(Context) (bool, error)                           { return true, nil }
func (BaseVisitor) Key(string, Context) (bool, error)                        { return true, nil }
func (BaseVisitor) Null(doctree.Tag, Context) (bool, error)                  { return true, nil }
func (BaseVisitor) Bool(bool, doctree.Tag, Context) (bool, error)            { return true, nil }
func (BaseVisitor) Int64(int64, doctree.Tag, Context) (bool, error)          { return true, nil }
func (BaseVisitor) UInt64(uint64, doctree.Tag, Context) (bool, error)        { return true, nil }
func (BaseVisitor) Half(uint16, doctree.Tag, Context) (bool, error)          { return true, nil }
func (BaseVisitor) Double(float64, doctree.Tag, Context) (bool, error)       { return true, nil }
func (BaseVisitor) String(string, doctree.Tag, Context) (bool, error)        { return true, nil }
func (BaseVisitor) ByteString([]byte, doctree.Tag, Context) (bool, error)    { return true, nil }
func (BaseVisitor) TypedArray(TypedArrayData, doctree.Tag, Context) (bool, error) {
	return true, nil
}
func (BaseVisitor) Flush() error { return nil }
