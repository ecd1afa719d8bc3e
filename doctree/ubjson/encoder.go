package ubjson

import (
	"math"

	"github.com/quillbyte/doctree"
	"github.com/quillbyte/doctree/internal/byteio"
	"github.com/quillbyte/doctree/visitor"
)

// Encoder serializes the event stream it receives as UBJSON, using the
// count-prefixed container form (no '$' type optimization, since the
// Visitor stream does not know element types ahead of a container's
// close) whenever a length is known, and falling back to the
// terminator-delimited form when it is not.
type Encoder struct {
	w    *byteio.Writer
	err  error
	term []bool // per open container, whether it needs a closing terminator byte
}

func NewEncoder() *Encoder { return &Encoder{w: byteio.NewWriter()} }

func (e *Encoder) Bytes() []byte { return e.w.Bytes() }

func (e *Encoder) writeLengthMarkedInt(n int) {
	switch {
	case n >= math.MinInt8 && n <= math.MaxInt8:
		e.w.Byte(mInt8)
		e.w.Byte(byte(int8(n)))
	case n >= math.MinInt16 && n <= math.MaxInt16:
		e.w.Byte(mInt16)
		e.w.Uint16BE(uint16(int16(n)))
	default:
		e.w.Byte(mInt32)
		e.w.Uint32BE(uint32(int32(n)))
	}
}

func (e *Encoder) writeCountedBytes(b []byte) {
	e.writeLengthMarkedInt(len(b))
	e.w.Write(b)
}

func (e *Encoder) BeginObject(length int, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	e.w.Byte(mObjOpen)
	if length >= 0 {
		e.w.Byte(mOptCount)
		e.writeLengthMarkedInt(length)
		e.term = append(e.term, false)
	} else {
		e.term = append(e.term, true)
	}
	return e.err == nil, e.err
}

func (e *Encoder) EndObject(ctx visitor.Context) (bool, error) {
	if e.popTerm() {
		e.w.Byte(mObjClose)
	}
	return e.err == nil, e.err
}

func (e *Encoder) BeginArray(length int, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	e.w.Byte(mArrayOpen)
	if length >= 0 {
		e.w.Byte(mOptCount)
		e.writeLengthMarkedInt(length)
		e.term = append(e.term, false)
	} else {
		e.term = append(e.term, true)
	}
	return e.err == nil, e.err
}

func (e *Encoder) EndArray(ctx visitor.Context) (bool, error) {
	if e.popTerm() {
		e.w.Byte(mArrayClose)
	}
	return e.err == nil, e.err
}

// popTerm pops the innermost open container's needs-terminator flag.
func (e *Encoder) popTerm() bool {
	top := len(e.term) - 1
	if top < 0 {
		return false
	}
	needed := e.term[top]
	e.term = e.term[:top]
	return needed
}

func (e *Encoder) Key(key string, ctx visitor.Context) (bool, error) {
	e.writeCountedBytes([]byte(key))
	return e.err == nil, e.err
}

func (e *Encoder) Null(tag doctree.Tag, ctx visitor.Context) (bool, error) {
	e.w.Byte(mNull)
	return e.err == nil, e.err
}

func (e *Encoder) Bool(v bool, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	if v {
		e.w.Byte(mTrue)
	} else {
		e.w.Byte(mFalse)
	}
	return e.err == nil, e.err
}

func (e *Encoder) Int64(v int64, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	switch {
	case v >= math.MinInt8 && v <= math.MaxInt8:
		e.w.Byte(mInt8)
		e.w.Byte(byte(int8(v)))
	case v >= 0 && v <= math.MaxUint8:
		e.w.Byte(mUint8)
		e.w.Byte(byte(v))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		e.w.Byte(mInt16)
		e.w.Uint16BE(uint16(int16(v)))
	case v >= math.MinInt32 && v <= math.MaxInt32:
		e.w.Byte(mInt32)
		e.w.Uint32BE(uint32(int32(v)))
	default:
		e.w.Byte(mInt64)
		e.w.Uint64BE(uint64(v))
	}
	return e.err == nil, e.err
}

func (e *Encoder) UInt64(v uint64, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	switch {
	case v <= math.MaxInt8:
		e.w.Byte(mInt8)
		e.w.Byte(byte(v))
	case v <= math.MaxUint8:
		e.w.Byte(mUint8)
		e.w.Byte(byte(v))
	case v <= math.MaxInt16:
		e.w.Byte(mInt16)
		e.w.Uint16BE(uint16(v))
	case v <= math.MaxInt32:
		e.w.Byte(mInt32)
		e.w.Uint32BE(uint32(v))
	default:
		e.w.Byte(mInt64)
		e.w.Uint64BE(v)
	}
	return e.err == nil, e.err
}

func (e *Encoder) Half(raw uint16, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	return e.Double(doctree.HalfToFloat64(raw), tag, ctx)
}

func (e *Encoder) Double(v float64, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	if f32 := float32(v); float64(f32) == v {
		e.w.Byte(mFloat32)
		e.w.Uint32BE(math.Float32bits(f32))
		return e.err == nil, e.err
	}
	e.w.Byte(mFloat64)
	e.w.Uint64BE(math.Float64bits(v))
	return e.err == nil, e.err
}

func (e *Encoder) String(v string, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	if tag == doctree.TagBigInt || tag == doctree.TagBigDec {
		e.w.Byte(mHighPrec)
		e.writeCountedBytes([]byte(v))
		return e.err == nil, e.err
	}
	e.w.Byte(mString)
	e.writeCountedBytes([]byte(v))
	return e.err == nil, e.err
}

// ByteString has no native UBJSON representation; it is encoded as an
// array of uint8 values, the same fallback the format's own ecosystem
// libraries use since UBJSON defines no binary blob marker.
func (e *Encoder) ByteString(v []byte, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	if cont, err := e.BeginArray(len(v), doctree.TagNone, ctx); !cont || err != nil {
		return cont, err
	}
	for _, b := range v {
		e.w.Byte(mUint8)
		e.w.Byte(b)
	}
	return e.EndArray(ctx)
}

func (e *Encoder) TypedArray(data visitor.TypedArrayData, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	n := len(data.Floats) + len(data.Ints) + len(data.Uints)
	if cont, err := e.BeginArray(n, doctree.TagNone, ctx); !cont || err != nil {
		return cont, err
	}
	switch {
	case data.Floats != nil:
		for _, f := range data.Floats {
			if cont, err := e.Double(f, doctree.TagNone, ctx); !cont || err != nil {
				return cont, err
			}
		}
	case data.Ints != nil:
		for _, n := range data.Ints {
			if cont, err := e.Int64(n, doctree.TagNone, ctx); !cont || err != nil {
				return cont, err
			}
		}
	default:
		for _, u := range data.Uints {
			if cont, err := e.UInt64(u, doctree.TagNone, ctx); !cont || err != nil {
				return cont, err
			}
		}
	}
	return e.EndArray(ctx)
}

func (e *Encoder) Flush() error { return e.err }

// EncodeDocument serializes d as a single UBJSON value.
func EncodeDocument(d *doctree.Document) ([]byte, error) {
	enc := NewEncoder()
	if err := visitor.Walk(d, enc); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}
