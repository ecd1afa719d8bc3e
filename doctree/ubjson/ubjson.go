// Package ubjson implements a Universal Binary JSON parser and encoder
// over the Visitor contract, reusing doctree/internal/byteio exactly as
// doctree/cbor and doctree/msgpack do. UBJSON's marker-byte grammar (a
// single ASCII letter names each value's type, containers are either
// terminator-delimited or count/type-prefixed) is the most JSON-shaped of
// the binary formats in this module, so its decoder is grounded equally on
// doctree/cbor's decodeValue dispatch shape and on doctree/text's literal
// marker handling for true/false/null.
package ubjson

import (
	"math"

	"github.com/quillbyte/doctree"
	"github.com/quillbyte/doctree/internal/byteio"
	"github.com/quillbyte/doctree/visitor"
)

const (
	mNull      = 'Z'
	mNoop      = 'N'
	mTrue      = 'T'
	mFalse     = 'F'
	mInt8      = 'i'
	mUint8     = 'U'
	mInt16     = 'I'
	mInt32     = 'l'
	mInt64     = 'L'
	mFloat32   = 'd'
	mFloat64   = 'D'
	mHighPrec  = 'H'
	mChar      = 'C'
	mString    = 'S'
	mArrayOpen  = '['
	mArrayClose = ']'
	mObjOpen    = '{'
	mObjClose   = '}'
	mOptType   = '$'
	mOptCount  = '#'
)

// Decoder reads a single UBJSON-encoded value and emits it to v.
type Decoder struct {
	r     *byteio.Reader
	v     visitor.Visitor
	depth *byteio.DepthGuard
}

func NewDecoder(b []byte, v visitor.Visitor, maxDepth int) *Decoder {
	return &Decoder{r: byteio.NewReader(b), v: v, depth: byteio.NewDepthGuard(maxDepth)}
}

func (d *Decoder) Decode() error {
	if err := d.skipNoopsAndDecodeValue(); err != nil {
		return err
	}
	return d.v.Flush()
}

func (d *Decoder) errf(kind doctree.ErrorKind, cause error) error {
	return doctree.NewError(kind, doctree.Position{Offset: d.r.Pos()}, cause)
}

func (d *Decoder) wrapIOErr(err error) error {
	if err == nil {
		return nil
	}
	return d.errf(doctree.KindUnexpectedEOF, err)
}

func (d *Decoder) ctx() visitor.Context {
	return visitor.Context{Pos: doctree.Position{Offset: d.r.Pos()}}
}

// skipNoopsAndDecodeValue reads past any no-op ('N') fillers, which UBJSON
// permits before any value as a stream-padding convention, then decodes
// the value that follows.
func (d *Decoder) skipNoopsAndDecodeValue() error {
	for {
		b, err := d.r.Peek()
		if err != nil {
			return d.wrapIOErr(err)
		}
		if b != mNoop {
			break
		}
		d.r.Byte()
	}
	return d.decodeValue()
}

func (d *Decoder) decodeValue() error {
	b, err := d.r.Byte()
	if err != nil {
		return d.wrapIOErr(err)
	}
	switch b {
	case mNull:
		_, err := d.v.Null(doctree.TagNone, d.ctx())
		return err
	case mTrue:
		_, err := d.v.Bool(true, doctree.TagNone, d.ctx())
		return err
	case mFalse:
		_, err := d.v.Bool(false, doctree.TagNone, d.ctx())
		return err
	case mInt8:
		n, err := d.r.Byte()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.Int64(int64(int8(n)), doctree.TagNone, d.ctx())
		return err
	case mUint8:
		n, err := d.r.Byte()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.UInt64(uint64(n), doctree.TagNone, d.ctx())
		return err
	case mInt16:
		n, err := d.r.Uint16BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.Int64(int64(int16(n)), doctree.TagNone, d.ctx())
		return err
	case mInt32:
		n, err := d.r.Uint32BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.Int64(int64(int32(n)), doctree.TagNone, d.ctx())
		return err
	case mInt64:
		n, err := d.r.Uint64BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.Int64(int64(n), doctree.TagNone, d.ctx())
		return err
	case mFloat32:
		n, err := d.r.Uint32BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.Double(float64(math.Float32frombits(n)), doctree.TagNone, d.ctx())
		return err
	case mFloat64:
		n, err := d.r.Uint64BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.Double(math.Float64frombits(n), doctree.TagNone, d.ctx())
		return err
	case mHighPrec:
		s, err := d.readCountedBytes()
		if err != nil {
			return err
		}
		return d.emitHighPrecision(string(s))
	case mChar:
		c, err := d.r.Byte()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.String(string(rune(c)), doctree.TagNone, d.ctx())
		return err
	case mString:
		s, err := d.readCountedBytes()
		if err != nil {
			return err
		}
		_, err = d.v.String(string(s), doctree.TagNone, d.ctx())
		return err
	case mArrayOpen:
		return d.decodeArray()
	case mObjOpen:
		return d.decodeObject()
	}
	return d.errf(doctree.KindUnknownType, nil)
}

// emitHighPrecision classifies a UBJSON high-precision number literal as
// BigInt (no '.', 'e', or 'E') or BigDec, matching the same classification
// doctree/text's parser applies to text-literal numbers.
func (d *Decoder) emitHighPrecision(s string) error {
	isFloat := false
	for _, c := range s {
		if c == '.' || c == 'e' || c == 'E' {
			isFloat = true
			break
		}
	}
	if isFloat {
		canon, err := doctree.CanonicalBigDecString(s)
		if err != nil {
			return err
		}
		_, err = d.v.String(canon, doctree.TagBigDec, d.ctx())
		return err
	}
	canon, err := doctree.CanonicalBigIntString(s)
	if err != nil {
		return err
	}
	_, err = d.v.String(canon, doctree.TagBigInt, d.ctx())
	return err
}

// readLengthMarkedInt reads one of the integer markers followed by its
// payload and returns the value as an int, as UBJSON requires for every
// length/count prefix (a length is itself a full typed integer value, not
// a raw varint).
func (d *Decoder) readLengthMarkedInt() (int, error) {
	b, err := d.r.Byte()
	if err != nil {
		return 0, d.wrapIOErr(err)
	}
	switch b {
	case mInt8:
		n, err := d.r.Byte()
		if err != nil {
			return 0, d.wrapIOErr(err)
		}
		return int(int8(n)), nil
	case mUint8:
		n, err := d.r.Byte()
		if err != nil {
			return 0, d.wrapIOErr(err)
		}
		return int(n), nil
	case mInt16:
		n, err := d.r.Uint16BE()
		if err != nil {
			return 0, d.wrapIOErr(err)
		}
		return int(int16(n)), nil
	case mInt32:
		n, err := d.r.Uint32BE()
		if err != nil {
			return 0, d.wrapIOErr(err)
		}
		return int(int32(n)), nil
	case mInt64:
		n, err := d.r.Uint64BE()
		if err != nil {
			return 0, d.wrapIOErr(err)
		}
		return int(int64(n)), nil
	}
	return 0, d.errf(doctree.KindInvalidNumber, nil)
}

func (d *Decoder) readCountedBytes() ([]byte, error) {
	n, err := d.readLengthMarkedInt()
	if err != nil {
		return nil, err
	}
	b, err := d.r.Bytes(n)
	if err != nil {
		return nil, d.wrapIOErr(err)
	}
	return append([]byte(nil), b...), nil
}

// decodeArray supports all three UBJSON container forms: plain
// terminator-delimited, count-prefixed ('#'), and type+count optimized
// ('$' type '#' count), per the format's container-optimization grammar.
func (d *Decoder) decodeArray() error {
	if err := d.depth.Enter(); err != nil {
		return d.errf(doctree.KindMaxDepthExceeded, nil)
	}
	defer d.depth.Exit()

	elemType, count, err := d.readContainerHeader()
	if err != nil {
		return err
	}
	if count >= 0 {
		cont, err := d.v.BeginArray(count, doctree.TagNone, d.ctx())
		if err != nil || !cont {
			return err
		}
		for i := 0; i < count; i++ {
			if elemType != 0 {
				if err := d.decodeFixedType(elemType); err != nil {
					return err
				}
			} else if err := d.skipNoopsAndDecodeValue(); err != nil {
				return err
			}
		}
		_, err = d.v.EndArray(d.ctx())
		return err
	}

	cont, err := d.v.BeginArray(-1, doctree.TagNone, d.ctx())
	if err != nil || !cont {
		return err
	}
	for {
		b, err := d.r.Peek()
		if err != nil {
			return d.wrapIOErr(err)
		}
		if b == mArrayClose {
			d.r.Byte()
			break
		}
		if err := d.skipNoopsAndDecodeValue(); err != nil {
			return err
		}
	}
	_, err = d.v.EndArray(d.ctx())
	return err
}

func (d *Decoder) decodeObject() error {
	if err := d.depth.Enter(); err != nil {
		return d.errf(doctree.KindMaxDepthExceeded, nil)
	}
	defer d.depth.Exit()

	elemType, count, err := d.readContainerHeader()
	if err != nil {
		return err
	}
	if count >= 0 {
		cont, err := d.v.BeginObject(count, doctree.TagNone, d.ctx())
		if err != nil || !cont {
			return err
		}
		for i := 0; i < count; i++ {
			key, err := d.readCountedBytes()
			if err != nil {
				return err
			}
			if _, err := d.v.Key(string(key), d.ctx()); err != nil {
				return err
			}
			if elemType != 0 {
				if err := d.decodeFixedType(elemType); err != nil {
					return err
				}
			} else if err := d.skipNoopsAndDecodeValue(); err != nil {
				return err
			}
		}
		_, err = d.v.EndObject(d.ctx())
		return err
	}

	cont, err := d.v.BeginObject(-1, doctree.TagNone, d.ctx())
	if err != nil || !cont {
		return err
	}
	for {
		b, err := d.r.Peek()
		if err != nil {
			return d.wrapIOErr(err)
		}
		if b == mObjClose {
			d.r.Byte()
			break
		}
		key, err := d.readCountedBytes()
		if err != nil {
			return err
		}
		if _, err := d.v.Key(string(key), d.ctx()); err != nil {
			return err
		}
		if err := d.skipNoopsAndDecodeValue(); err != nil {
			return err
		}
	}
	_, err = d.v.EndObject(d.ctx())
	return err
}

// readContainerHeader peeks for an optional '$' type marker and/or '#'
// count marker immediately following a container-open byte. elemType is 0
// when no type optimization applies; count is -1 when no count was given
// (terminator-delimited form applies instead).
func (d *Decoder) readContainerHeader() (elemType byte, count int, err error) {
	b, err := d.r.Peek()
	if err != nil {
		return 0, 0, d.wrapIOErr(err)
	}
	if b == mOptType {
		d.r.Byte()
		elemType, err = d.r.Byte()
		if err != nil {
			return 0, 0, d.wrapIOErr(err)
		}
		b, err = d.r.Peek()
		if err != nil {
			return 0, 0, d.wrapIOErr(err)
		}
		if b != mOptCount {
			return 0, 0, d.errf(doctree.KindUnexpectedCharacter, nil)
		}
	}
	if b == mOptCount {
		d.r.Byte()
		n, err := d.readLengthMarkedInt()
		if err != nil {
			return 0, 0, err
		}
		return elemType, n, nil
	}
	return elemType, -1, nil
}

// decodeFixedType decodes one value of a known, pre-announced marker type
// (the '$'-optimized container form), without re-reading the marker byte
// -- decodeValue always consumes the marker itself first, so every case
// here replays that same payload-reading logic directly instead.
func (d *Decoder) decodeFixedType(marker byte) error {
	switch marker {
	case mNull:
		_, err := d.v.Null(doctree.TagNone, d.ctx())
		return err
	case mTrue:
		_, err := d.v.Bool(true, doctree.TagNone, d.ctx())
		return err
	case mFalse:
		_, err := d.v.Bool(false, doctree.TagNone, d.ctx())
		return err
	case mInt8:
		n, err := d.r.Byte()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.Int64(int64(int8(n)), doctree.TagNone, d.ctx())
		return err
	case mUint8:
		n, err := d.r.Byte()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.UInt64(uint64(n), doctree.TagNone, d.ctx())
		return err
	case mInt16:
		n, err := d.r.Uint16BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.Int64(int64(int16(n)), doctree.TagNone, d.ctx())
		return err
	case mInt32:
		n, err := d.r.Uint32BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.Int64(int64(int32(n)), doctree.TagNone, d.ctx())
		return err
	case mInt64:
		n, err := d.r.Uint64BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.Int64(int64(n), doctree.TagNone, d.ctx())
		return err
	case mFloat32:
		n, err := d.r.Uint32BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.Double(float64(math.Float32frombits(n)), doctree.TagNone, d.ctx())
		return err
	case mFloat64:
		n, err := d.r.Uint64BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.Double(math.Float64frombits(n), doctree.TagNone, d.ctx())
		return err
	case mHighPrec:
		s, err := d.readCountedBytes()
		if err != nil {
			return err
		}
		return d.emitHighPrecision(string(s))
	case mChar:
		c, err := d.r.Byte()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.String(string(rune(c)), doctree.TagNone, d.ctx())
		return err
	case mString:
		s, err := d.readCountedBytes()
		if err != nil {
			return err
		}
		_, err = d.v.String(string(s), doctree.TagNone, d.ctx())
		return err
	case mArrayOpen:
		return d.decodeArray()
	case mObjOpen:
		return d.decodeObject()
	}
	return d.errf(doctree.KindUnknownType, nil)
}

// DecodeBytes is a convenience entry point mirroring doctree/cbor.DecodeBytes.
func DecodeBytes(b []byte, policy doctree.ObjectPolicy, maxDepth int) (*doctree.Document, error) {
	dec := visitor.NewDecoder(nil, policy)
	if err := NewDecoder(b, dec, maxDepth).Decode(); err != nil {
		return nil, err
	}
	return dec.Document(), nil
}
