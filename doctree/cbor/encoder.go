package cbor

import (
	"math"
	"math/big"

	"github.com/quillbyte/doctree"
	"github.com/quillbyte/doctree/internal/byteio"
	"github.com/quillbyte/doctree/visitor"
)

// Encoder is a visitor.Visitor that serializes the event stream it receives
// as CBOR, choosing the shortest header encoding for every length/integer
// (RFC 8949 section 4.2's canonical-encoding guidance).
type Encoder struct {
	w        *byteio.Writer
	err      error
	indefStk []bool // per open container, whether it was opened indefinite-length
}

func NewEncoder() *Encoder { return &Encoder{w: byteio.NewWriter()} }

// Bytes returns everything written so far.
func (e *Encoder) Bytes() []byte { return e.w.Bytes() }

func (e *Encoder) writeHeader(major byte, n uint64) {
	if e.err != nil {
		return
	}
	switch {
	case n < 24:
		e.w.Byte(major<<5 | byte(n))
	case n <= 0xFF:
		e.w.Byte(major<<5 | 24)
		e.w.Byte(byte(n))
	case n <= 0xFFFF:
		e.w.Byte(major<<5 | 25)
		e.w.Uint16BE(uint16(n))
	case n <= 0xFFFFFFFF:
		e.w.Byte(major<<5 | 26)
		e.w.Uint32BE(uint32(n))
	default:
		e.w.Byte(major<<5 | 27)
		e.w.Uint64BE(n)
	}
}

func (e *Encoder) writeTag(num uint64) { e.writeHeader(majorTag, num) }

func (e *Encoder) tagForKind(tag doctree.Tag) (uint64, bool) {
	switch tag {
	case doctree.TagDateTime:
		return tagDateTime, true
	case doctree.TagEpochSecond:
		return tagEpochSecond, true
	case doctree.TagBase64URL:
		return tagBase64URL, true
	case doctree.TagBase64:
		return tagBase64, true
	case doctree.TagBase16:
		return tagBase16, true
	case doctree.TagURI:
		return tagURI, true
	case doctree.TagRegex:
		return tagRegex, true
	}
	return 0, false
}

func (e *Encoder) BeginObject(length int, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	if length < 0 {
		e.w.Byte(majorMap<<5 | 31)
		e.indefStk = append(e.indefStk, true)
	} else {
		e.writeHeader(majorMap, uint64(length))
		e.indefStk = append(e.indefStk, false)
	}
	return e.err == nil, e.err
}

func (e *Encoder) EndObject(ctx visitor.Context) (bool, error) {
	e.popIndef()
	return e.err == nil, e.err
}

func (e *Encoder) BeginArray(length int, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	if length < 0 {
		e.w.Byte(majorArray<<5 | 31)
		e.indefStk = append(e.indefStk, true)
	} else {
		e.writeHeader(majorArray, uint64(length))
		e.indefStk = append(e.indefStk, false)
	}
	return e.err == nil, e.err
}

func (e *Encoder) EndArray(ctx visitor.Context) (bool, error) {
	e.popIndef()
	return e.err == nil, e.err
}

// popIndef pops the innermost open container's indefinite-length flag and
// emits the 0xFF break byte only if that container was opened indefinite:
// a definite-length container carries its count in the header and must not
// be followed by a break.
func (e *Encoder) popIndef() {
	top := len(e.indefStk) - 1
	if top < 0 {
		return
	}
	wasIndef := e.indefStk[top]
	e.indefStk = e.indefStk[:top]
	if wasIndef {
		e.w.Byte(0xFF)
	}
}

func (e *Encoder) Key(key string, ctx visitor.Context) (bool, error) {
	e.writeHeader(majorText, uint64(len(key)))
	e.w.Write([]byte(key))
	return e.err == nil, e.err
}

func (e *Encoder) Null(tag doctree.Tag, ctx visitor.Context) (bool, error) {
	if tag == doctree.TagUndefined {
		e.w.Byte(majorSimple<<5 | 23)
	} else {
		e.w.Byte(majorSimple<<5 | 22)
	}
	return e.err == nil, e.err
}

func (e *Encoder) Bool(v bool, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	if v {
		e.w.Byte(majorSimple<<5 | 21)
	} else {
		e.w.Byte(majorSimple<<5 | 20)
	}
	return e.err == nil, e.err
}

func (e *Encoder) Int64(v int64, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	if t, ok := e.tagForKind(tag); ok {
		e.writeTag(t)
	}
	if v >= 0 {
		e.writeHeader(majorUint, uint64(v))
	} else {
		e.writeHeader(majorNegInt, uint64(-1-v))
	}
	return e.err == nil, e.err
}

func (e *Encoder) UInt64(v uint64, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	if t, ok := e.tagForKind(tag); ok {
		e.writeTag(t)
	}
	e.writeHeader(majorUint, v)
	return e.err == nil, e.err
}

func (e *Encoder) Half(raw uint16, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	e.w.Byte(majorSimple<<5 | 25)
	e.w.Uint16BE(raw)
	return e.err == nil, e.err
}

func (e *Encoder) Double(v float64, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	if t, ok := e.tagForKind(tag); ok {
		e.writeTag(t)
	}
	if h, ok := doctree.Float64ToHalf(v); ok {
		e.w.Byte(majorSimple<<5 | 25)
		e.w.Uint16BE(h)
		return e.err == nil, e.err
	}
	if f32 := float32(v); float64(f32) == v {
		e.w.Byte(majorSimple<<5 | 26)
		e.w.Uint32BE(math.Float32bits(f32))
		return e.err == nil, e.err
	}
	e.w.Byte(majorSimple<<5 | 27)
	e.w.Uint64BE(math.Float64bits(v))
	return e.err == nil, e.err
}

func (e *Encoder) String(v string, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	switch tag {
	case doctree.TagBigInt:
		return e.encodeBigIntString(v)
	case doctree.TagBigDec:
		return e.encodeBigDecString(v)
	}
	if t, ok := e.tagForKind(tag); ok {
		e.writeTag(t)
	}
	e.writeHeader(majorText, uint64(len(v)))
	e.w.Write([]byte(v))
	return e.err == nil, e.err
}

func (e *Encoder) encodeBigIntString(v string) (bool, error) {
	n, ok := new(big.Int).SetString(v, 10)
	if !ok {
		return false, doctree.NewError(doctree.KindInvalidBigInt, doctree.Position{}, nil)
	}
	tag, payload := bigIntToBytes(n)
	e.writeTag(tag)
	e.writeHeader(majorBytes, uint64(len(payload)))
	e.w.Write(payload)
	return e.err == nil, e.err
}

func (e *Encoder) encodeBigDecString(v string) (bool, error) {
	exponent, mantissa, err := doctree.BigDecToExponentMantissa(v)
	if err != nil {
		return false, err
	}
	e.writeTag(tagBigDec)
	e.w.Byte(majorArray<<5 | 2)
	if exponent >= 0 {
		e.writeHeader(majorUint, uint64(exponent))
	} else {
		e.writeHeader(majorNegInt, uint64(-1-exponent))
	}
	mtag, payload := bigIntToBytes(mantissa)
	e.writeTag(mtag)
	e.writeHeader(majorBytes, uint64(len(payload)))
	e.w.Write(payload)
	return e.err == nil, e.err
}

func (e *Encoder) ByteString(v []byte, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	if t, ok := e.tagForKind(tag); ok {
		e.writeTag(t)
	}
	e.writeHeader(majorBytes, uint64(len(v)))
	e.w.Write(v)
	return e.err == nil, e.err
}

var typedArrayEncodeTags = map[string]uint64{
	"u8": 64, "u16": 65, "u32": 66, "u64": 67,
	"i8": 69, "i16": 70, "i32": 71, "i64": 72,
	"f32": 82, "f64": 83,
}

func (e *Encoder) TypedArray(data visitor.TypedArrayData, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	t, ok := typedArrayEncodeTags[data.ElemKind]
	if !ok {
		return e.typedArrayFallback(data, ctx)
	}
	e.writeTag(t)
	k := typedArrayTags[t]
	n := len(data.Floats) + len(data.Ints) + len(data.Uints)
	payload := make([]byte, n*k.width)
	for i := 0; i < n; i++ {
		off := i * k.width
		switch {
		case k.float && k.width == 4:
			putBE32(payload[off:], math.Float32bits(float32(data.Floats[i])))
		case k.float:
			putBE64(payload[off:], math.Float64bits(data.Floats[i]))
		case k.signed:
			putBESignedN(payload[off:off+k.width], data.Ints[i], k.width)
		default:
			putBEUnsignedN(payload[off:off+k.width], data.Uints[i], k.width)
		}
	}
	e.writeHeader(majorBytes, uint64(len(payload)))
	e.w.Write(payload)
	return e.err == nil, e.err
}

func (e *Encoder) typedArrayFallback(data visitor.TypedArrayData, ctx visitor.Context) (bool, error) {
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

func putBE32(b []byte, v uint32) {
	b[0], b[1], b[2], b[3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
}
func putBE64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (56 - 8*i))
	}
}
func putBESignedN(b []byte, v int64, width int) { putBEUnsignedN(b, uint64(v), width) }
func putBEUnsignedN(b []byte, v uint64, width int) {
	for i := 0; i < width; i++ {
		b[i] = byte(v >> (8 * (width - 1 - i)))
	}
}

// EncodeDocument serializes d as a single CBOR item.
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
