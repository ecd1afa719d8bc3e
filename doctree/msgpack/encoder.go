package msgpack

import (
	"math"

	"github.com/quillbyte/doctree"
	"github.com/quillbyte/doctree/internal/byteio"
	"github.com/quillbyte/doctree/visitor"
)

// Encoder serializes the event stream it receives as MessagePack, choosing
// the narrowest fixed-width form available for every length and integer,
// mirroring doctree/cbor.Encoder's shortest-form policy.
type Encoder struct {
	w   *byteio.Writer
	err error
}

func NewEncoder() *Encoder { return &Encoder{w: byteio.NewWriter()} }

func (e *Encoder) Bytes() []byte { return e.w.Bytes() }

func (e *Encoder) writeMapHeader(n int) {
	switch {
	case n < 16:
		e.w.Byte(0x80 | byte(n))
	case n <= 0xFFFF:
		e.w.Byte(mMap16)
		e.w.Uint16BE(uint16(n))
	default:
		e.w.Byte(mMap32)
		e.w.Uint32BE(uint32(n))
	}
}

func (e *Encoder) writeArrayHeader(n int) {
	switch {
	case n < 16:
		e.w.Byte(0x90 | byte(n))
	case n <= 0xFFFF:
		e.w.Byte(mArray16)
		e.w.Uint16BE(uint16(n))
	default:
		e.w.Byte(mArray32)
		e.w.Uint32BE(uint32(n))
	}
}

func (e *Encoder) writeStrHeader(n int) {
	switch {
	case n < 32:
		e.w.Byte(0xa0 | byte(n))
	case n <= 0xFF:
		e.w.Byte(mStr8)
		e.w.Byte(byte(n))
	case n <= 0xFFFF:
		e.w.Byte(mStr16)
		e.w.Uint16BE(uint16(n))
	default:
		e.w.Byte(mStr32)
		e.w.Uint32BE(uint32(n))
	}
}

func (e *Encoder) writeBinHeader(n int) {
	switch {
	case n <= 0xFF:
		e.w.Byte(mBin8)
		e.w.Byte(byte(n))
	case n <= 0xFFFF:
		e.w.Byte(mBin16)
		e.w.Uint16BE(uint16(n))
	default:
		e.w.Byte(mBin32)
		e.w.Uint32BE(uint32(n))
	}
}

// BeginObject ignores an unknown length (-1) and always emits a definite-
// length map header since MessagePack has no indefinite-length map form;
// length -1 is only possible from a producer that did not count ahead,
// which this module's own parsers never do.
func (e *Encoder) BeginObject(length int, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	if length < 0 {
		length = 0
	}
	e.writeMapHeader(length)
	return e.err == nil, e.err
}

func (e *Encoder) EndObject(ctx visitor.Context) (bool, error) { return e.err == nil, e.err }

func (e *Encoder) BeginArray(length int, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	if length < 0 {
		length = 0
	}
	e.writeArrayHeader(length)
	return e.err == nil, e.err
}

func (e *Encoder) EndArray(ctx visitor.Context) (bool, error) { return e.err == nil, e.err }

func (e *Encoder) Key(key string, ctx visitor.Context) (bool, error) {
	e.writeStrHeader(len(key))
	e.w.Write([]byte(key))
	return e.err == nil, e.err
}

func (e *Encoder) Null(tag doctree.Tag, ctx visitor.Context) (bool, error) {
	e.w.Byte(mNil)
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
	case v >= 0:
		return e.UInt64(uint64(v), tag, ctx)
	case v >= -32:
		e.w.Byte(byte(int8(v)))
	case v >= math.MinInt8:
		e.w.Byte(mInt8)
		e.w.Byte(byte(int8(v)))
	case v >= math.MinInt16:
		e.w.Byte(mInt16)
		e.w.Uint16BE(uint16(int16(v)))
	case v >= math.MinInt32:
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
	case v <= 0x7f:
		e.w.Byte(byte(v))
	case v <= math.MaxUint8:
		e.w.Byte(mUint8)
		e.w.Byte(byte(v))
	case v <= math.MaxUint16:
		e.w.Byte(mUint16)
		e.w.Uint16BE(uint16(v))
	case v <= math.MaxUint32:
		e.w.Byte(mUint32)
		e.w.Uint32BE(uint32(v))
	default:
		e.w.Byte(mUint64)
		e.w.Uint64BE(v)
	}
	return e.err == nil, e.err
}

// Half widens to float64 and re-encodes as float32/float64 -- MessagePack
// has no binary16 form.
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

// String encodes BigInt/BigDec canonical decimal strings as a msgpack ext
// type (private codes 17=bigint, 18=bigdec, matching no standard registry
// entry since MessagePack's spec leaves application ext codes >= 0
// unassigned for user definition); every other string is written as a
// msgpack str.
func (e *Encoder) String(v string, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	switch tag {
	case doctree.TagBigInt:
		return e.writeExt(extBigInt, []byte(v))
	case doctree.TagBigDec:
		return e.writeExt(extBigDec, []byte(v))
	}
	e.writeStrHeader(len(v))
	e.w.Write([]byte(v))
	return e.err == nil, e.err
}

func (e *Encoder) ByteString(v []byte, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	e.writeBinHeader(len(v))
	e.w.Write(v)
	return e.err == nil, e.err
}

const (
	extBigInt = 17
	extBigDec = 18
)

func (e *Encoder) writeExt(extType int8, payload []byte) (bool, error) {
	n := len(payload)
	switch n {
	case 1:
		e.w.Byte(mFixExt1)
	case 2:
		e.w.Byte(mFixExt2)
	case 4:
		e.w.Byte(mFixExt4)
	case 8:
		e.w.Byte(mFixExt8)
	case 16:
		e.w.Byte(mFixExt16)
	default:
		switch {
		case n <= 0xFF:
			e.w.Byte(mExt8)
			e.w.Byte(byte(n))
		case n <= 0xFFFF:
			e.w.Byte(mExt16)
			e.w.Uint16BE(uint16(n))
		default:
			e.w.Byte(mExt32)
			e.w.Uint32BE(uint32(n))
		}
	}
	e.w.Byte(byte(extType))
	e.w.Write(payload)
	return e.err == nil, e.err
}

// TypedArray has no native MessagePack representation; every typed array
// falls back to an ordinary length-prefixed array of scalars.
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

// EncodeDocument serializes d as a single MessagePack item.
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
