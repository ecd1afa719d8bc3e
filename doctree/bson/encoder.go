package bson

import (
	"math"

	"github.com/quillbyte/doctree"
	"github.com/quillbyte/doctree/internal/byteio"
	"github.com/quillbyte/doctree/visitor"
)

// frame tracks one open document/array: the byte offset its length
// prefix occupies (patched in on close, since BSON's length is a forward
// reference known only once the body is fully written) and, for arrays,
// the next numeric index to synthesize as the element's key.
type frame struct {
	lengthAt int
	isArray  bool
	index    int
}

// Encoder serializes the event stream it receives as a single BSON
// document. doctree/bson is object-root only (per this module's scope for
// the format): the first event must be BeginObject.
type Encoder struct {
	w       *byteio.Writer
	err     error
	stack   []frame
	lastKey string
}

func NewEncoder() *Encoder { return &Encoder{w: byteio.NewWriter()} }

func (e *Encoder) Bytes() []byte { return e.w.Bytes() }

func (e *Encoder) fail(err error) (bool, error) {
	if e.err == nil {
		e.err = err
	}
	return false, e.err
}

func itoaDecimal(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// writeElementHeader writes the type byte and cstring key for the next
// element, using the enclosing array's synthesized numeric index or the
// most recently seen Key event's key for an object.
func (e *Encoder) writeElementHeader(elemType byte) {
	e.w.Byte(elemType)
	top := &e.stack[len(e.stack)-1]
	key := e.lastKey
	if top.isArray {
		key = itoaDecimal(top.index)
		top.index++
	}
	e.w.Write([]byte(key))
	e.w.Byte(0)
}

func (e *Encoder) Key(key string, ctx visitor.Context) (bool, error) {
	e.lastKey = key
	return true, nil
}

func (e *Encoder) BeginObject(length int, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	return e.beginContainer(false)
}

func (e *Encoder) BeginArray(length int, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	return e.beginContainer(true)
}

func (e *Encoder) beginContainer(isArray bool) (bool, error) {
	if len(e.stack) == 0 && isArray {
		return e.fail(doctree.NewError(doctree.KindUnknownType, doctree.Position{}, nil))
	}
	if len(e.stack) > 0 {
		elemType := byte(tDocument)
		if isArray {
			elemType = tArray
		}
		e.writeElementHeader(elemType)
	}
	lenAt := e.w.Len()
	e.w.Uint32LE(0) // placeholder, patched by endContainer
	e.stack = append(e.stack, frame{lengthAt: lenAt, isArray: isArray})
	return e.err == nil, e.err
}

func (e *Encoder) EndObject(ctx visitor.Context) (bool, error) { return e.endContainer() }
func (e *Encoder) EndArray(ctx visitor.Context) (bool, error)  { return e.endContainer() }

func (e *Encoder) endContainer() (bool, error) {
	e.w.Byte(0)
	top := len(e.stack) - 1
	lenAt := e.stack[top].lengthAt
	e.stack = e.stack[:top]
	total := e.w.Len() - lenAt
	buf := e.w.Bytes()
	buf[lenAt] = byte(total)
	buf[lenAt+1] = byte(total >> 8)
	buf[lenAt+2] = byte(total >> 16)
	buf[lenAt+3] = byte(total >> 24)
	return e.err == nil, e.err
}

func (e *Encoder) Null(tag doctree.Tag, ctx visitor.Context) (bool, error) {
	switch tag {
	case doctree.TagUndefined:
		e.writeElementHeader(tUndefined)
	case doctree.TagClamped:
		e.writeElementHeader(tMaxKey)
	default:
		e.writeElementHeader(tNull)
	}
	return e.err == nil, e.err
}

func (e *Encoder) Bool(v bool, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	e.writeElementHeader(tBool)
	if v {
		e.w.Byte(1)
	} else {
		e.w.Byte(0)
	}
	return e.err == nil, e.err
}

func (e *Encoder) Int64(v int64, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	if tag == doctree.TagDateTime {
		e.writeElementHeader(tDateTime)
		e.w.Uint64LE(uint64(v))
		return e.err == nil, e.err
	}
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		e.writeElementHeader(tInt32)
		e.w.Uint32LE(uint32(int32(v)))
	} else {
		e.writeElementHeader(tInt64)
		e.w.Uint64LE(uint64(v))
	}
	return e.err == nil, e.err
}

func (e *Encoder) UInt64(v uint64, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	switch {
	case tag == doctree.TagNone && v <= math.MaxInt32:
		e.writeElementHeader(tInt32)
		e.w.Uint32LE(uint32(v))
	case v <= math.MaxInt64:
		e.writeElementHeader(tInt64)
		e.w.Uint64LE(v)
	default:
		e.writeElementHeader(tTimestamp)
		e.w.Uint64LE(v)
	}
	return e.err == nil, e.err
}

func (e *Encoder) Half(raw uint16, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	return e.Double(doctree.HalfToFloat64(raw), tag, ctx)
}

func (e *Encoder) Double(v float64, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	e.writeElementHeader(tDouble)
	e.w.Uint64LE(math.Float64bits(v))
	return e.err == nil, e.err
}

func (e *Encoder) String(v string, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	switch tag {
	case doctree.TagBigDec, doctree.TagBigInt:
		return e.encodeDecimal128(v)
	case doctree.TagRegex:
		return e.encodeRegex(v)
	}
	elemType := byte(tString)
	if tag == doctree.TagCode {
		elemType = tJSCode
	}
	e.writeElementHeader(elemType)
	e.writeBSONString(v)
	return e.err == nil, e.err
}

func (e *Encoder) writeBSONString(v string) {
	e.w.Uint32LE(uint32(len(v) + 1))
	e.w.Write([]byte(v))
	e.w.Byte(0)
}

// encodeRegex expects the doctree/bson decoder's own "pattern\x00options"
// packing (the Visitor contract has only one string slot, and a BSON
// regex carries two cstrings).
func (e *Encoder) encodeRegex(v string) (bool, error) {
	pattern, options := v, ""
	for i := 0; i < len(v); i++ {
		if v[i] == 0 {
			pattern, options = v[:i], v[i+1:]
			break
		}
	}
	e.writeElementHeader(tRegex)
	e.w.Write([]byte(pattern))
	e.w.Byte(0)
	e.w.Write([]byte(options))
	e.w.Byte(0)
	return e.err == nil, e.err
}

func (e *Encoder) encodeDecimal128(v string) (bool, error) {
	bytes16, err := decimal128FromString(v)
	if err != nil {
		return false, err
	}
	e.writeElementHeader(tDecimal128)
	e.w.Write(bytes16[:])
	return e.err == nil, e.err
}

func (e *Encoder) ByteString(v []byte, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	if tag == doctree.TagID && len(v) == 12 {
		e.writeElementHeader(tObjectID)
		e.w.Write(v)
		return e.err == nil, e.err
	}
	e.writeElementHeader(tBinary)
	e.w.Uint32LE(uint32(len(v)))
	if tag == doctree.TagID {
		e.w.Byte(0x04)
	} else {
		e.w.Byte(0x00)
	}
	e.w.Write(v)
	return e.err == nil, e.err
}

// TypedArray has no BSON representation; every typed array falls back to
// an ordinary BSON array of scalars.
func (e *Encoder) TypedArray(data visitor.TypedArrayData, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	if cont, err := e.BeginArray(0, doctree.TagNone, ctx); !cont || err != nil {
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

// EncodeDocument serializes d (which must be an Object, BSON's only root
// form) as a BSON document.
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
