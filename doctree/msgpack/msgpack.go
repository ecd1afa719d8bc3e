// Package msgpack implements a MessagePack parser and encoder (C6/C7) over
// the Visitor contract, grounded on the same byte-level scaffolding
// (doctree/internal/byteio) as doctree/cbor, generalized to MessagePack's
// distinct format-byte layout (no major-type/additional-info split; each
// leading byte either encodes a fixed form directly or names an explicit
// width marker).
package msgpack

import (
	"math"

	"github.com/quillbyte/doctree"
	"github.com/quillbyte/doctree/internal/byteio"
	"github.com/quillbyte/doctree/visitor"
)

const (
	mNil       = 0xc0
	mFalse     = 0xc2
	mTrue      = 0xc3
	mBin8      = 0xc4
	mBin16     = 0xc5
	mBin32     = 0xc6
	mExt8      = 0xc7
	mExt16     = 0xc8
	mExt32     = 0xc9
	mFloat32   = 0xca
	mFloat64   = 0xcb
	mUint8     = 0xcc
	mUint16    = 0xcd
	mUint32    = 0xce
	mUint64    = 0xcf
	mInt8      = 0xd0
	mInt16     = 0xd1
	mInt32     = 0xd2
	mInt64     = 0xd3
	mFixExt1   = 0xd4
	mFixExt2   = 0xd5
	mFixExt4   = 0xd6
	mFixExt8   = 0xd7
	mFixExt16  = 0xd8
	mStr8      = 0xd9
	mStr16     = 0xda
	mStr32     = 0xdb
	mArray16   = 0xdc
	mArray32   = 0xdd
	mMap16     = 0xde
	mMap32     = 0xdf
	extTimestamp = -1
)

// Decoder reads a single MessagePack-encoded item and emits it to v.
type Decoder struct {
	r     *byteio.Reader
	v     visitor.Visitor
	depth *byteio.DepthGuard
}

func NewDecoder(b []byte, v visitor.Visitor, maxDepth int) *Decoder {
	return &Decoder{r: byteio.NewReader(b), v: v, depth: byteio.NewDepthGuard(maxDepth)}
}

func (d *Decoder) Decode() error {
	if err := d.decodeValue(); err != nil {
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

func (d *Decoder) decodeValue() error {
	b, err := d.r.Byte()
	if err != nil {
		return d.wrapIOErr(err)
	}
	switch {
	case b <= 0x7f:
		_, err := d.v.UInt64(uint64(b), doctree.TagNone, d.ctx())
		return err
	case b >= 0xe0:
		_, err := d.v.Int64(int64(int8(b)), doctree.TagNone, d.ctx())
		return err
	case b&0xf0 == 0x80:
		return d.decodeMap(int(b & 0x0f))
	case b&0xf0 == 0x90:
		return d.decodeArray(int(b & 0x0f))
	case b&0xe0 == 0xa0:
		return d.decodeStr(int(b & 0x1f))
	}
	return d.decodeMarker(b)
}

func (d *Decoder) decodeMarker(b byte) error {
	switch b {
	case mNil:
		_, err := d.v.Null(doctree.TagNone, d.ctx())
		return err
	case mFalse:
		_, err := d.v.Bool(false, doctree.TagNone, d.ctx())
		return err
	case mTrue:
		_, err := d.v.Bool(true, doctree.TagNone, d.ctx())
		return err
	case mBin8:
		n, err := d.r.Uint8()
		if err != nil {
			return d.wrapIOErr(err)
		}
		return d.emitBin(int(n))
	case mBin16:
		n, err := d.r.Uint16BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		return d.emitBin(int(n))
	case mBin32:
		n, err := d.r.Uint32BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		return d.emitBin(int(n))
	case mExt8:
		n, err := d.r.Uint8()
		if err != nil {
			return d.wrapIOErr(err)
		}
		return d.decodeExt(int(n))
	case mExt16:
		n, err := d.r.Uint16BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		return d.decodeExt(int(n))
	case mExt32:
		n, err := d.r.Uint32BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		return d.decodeExt(int(n))
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
	case mUint8:
		n, err := d.r.Uint8()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.UInt64(uint64(n), doctree.TagNone, d.ctx())
		return err
	case mUint16:
		n, err := d.r.Uint16BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.UInt64(uint64(n), doctree.TagNone, d.ctx())
		return err
	case mUint32:
		n, err := d.r.Uint32BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.UInt64(uint64(n), doctree.TagNone, d.ctx())
		return err
	case mUint64:
		n, err := d.r.Uint64BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.UInt64(n, doctree.TagNone, d.ctx())
		return err
	case mInt8:
		n, err := d.r.Uint8()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.Int64(int64(int8(n)), doctree.TagNone, d.ctx())
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
	case mFixExt1:
		return d.decodeFixExt(1)
	case mFixExt2:
		return d.decodeFixExt(2)
	case mFixExt4:
		return d.decodeFixExt(4)
	case mFixExt8:
		return d.decodeFixExt(8)
	case mFixExt16:
		return d.decodeFixExt(16)
	case mStr8:
		n, err := d.r.Uint8()
		if err != nil {
			return d.wrapIOErr(err)
		}
		return d.decodeStr(int(n))
	case mStr16:
		n, err := d.r.Uint16BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		return d.decodeStr(int(n))
	case mStr32:
		n, err := d.r.Uint32BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		return d.decodeStr(int(n))
	case mArray16:
		n, err := d.r.Uint16BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		return d.decodeArray(int(n))
	case mArray32:
		n, err := d.r.Uint32BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		return d.decodeArray(int(n))
	case mMap16:
		n, err := d.r.Uint16BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		return d.decodeMap(int(n))
	case mMap32:
		n, err := d.r.Uint32BE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		return d.decodeMap(int(n))
	}
	return d.errf(doctree.KindUnknownType, nil)
}

func (d *Decoder) emitBin(n int) error {
	b, err := d.r.Bytes(n)
	if err != nil {
		return d.wrapIOErr(err)
	}
	_, err = d.v.ByteString(append([]byte(nil), b...), doctree.TagNone, d.ctx())
	return err
}

func (d *Decoder) decodeStr(n int) error {
	b, err := d.r.Bytes(n)
	if err != nil {
		return d.wrapIOErr(err)
	}
	_, err = d.v.String(string(b), doctree.TagNone, d.ctx())
	return err
}

func (d *Decoder) decodeFixExt(n int) error {
	t, err := d.r.Byte()
	if err != nil {
		return d.wrapIOErr(err)
	}
	payload, err := d.r.Bytes(n)
	if err != nil {
		return d.wrapIOErr(err)
	}
	return d.emitExt(int8(t), payload)
}

func (d *Decoder) decodeExt(n int) error {
	t, err := d.r.Byte()
	if err != nil {
		return d.wrapIOErr(err)
	}
	payload, err := d.r.Bytes(n)
	if err != nil {
		return d.wrapIOErr(err)
	}
	return d.emitExt(int8(t), payload)
}

// emitExt handles a decoded ext type/payload pair. The timestamp ext (-1)
// and this package's own private BigInt/BigDec application ext codes (see
// encoder.go's extBigInt/extBigDec) carry semantic meaning at the
// Visitor-event level; any other ext type is surfaced as an untagged byte
// string, since the Visitor contract has no event slot for an opaque
// side-channel type code -- doctree.Document.ExtCode exists for callers
// that build a tree directly and want to stamp one on afterward, but the
// streaming event itself cannot carry it.
func (d *Decoder) emitExt(extType int8, payload []byte) error {
	switch extType {
	case extTimestamp:
		return d.emitTimestamp(payload)
	case extBigInt:
		_, err := d.v.String(string(payload), doctree.TagBigInt, d.ctx())
		return err
	case extBigDec:
		_, err := d.v.String(string(payload), doctree.TagBigDec, d.ctx())
		return err
	}
	_, err := d.v.ByteString(append([]byte(nil), payload...), doctree.TagNone, d.ctx())
	return err
}

func (d *Decoder) emitTimestamp(payload []byte) error {
	switch len(payload) {
	case 4:
		sec := beUint32(payload)
		_, err := d.v.UInt64(uint64(sec), doctree.TagEpochSecond, d.ctx())
		return err
	case 8:
		v := beUint64(payload)
		nsec := v >> 34
		sec := v & 0x3FFFFFFFF
		_, err := d.v.Double(float64(sec)+float64(nsec)/1e9, doctree.TagEpochSecond, d.ctx())
		return err
	case 12:
		nsec := beUint32(payload[:4])
		sec := int64(beUint64(payload[4:]))
		_, err := d.v.Double(float64(sec)+float64(nsec)/1e9, doctree.TagEpochSecond, d.ctx())
		return err
	}
	return d.errf(doctree.KindUnknownType, nil)
}

func (d *Decoder) decodeArray(n int) error {
	if err := d.depth.Enter(); err != nil {
		return d.errf(doctree.KindMaxDepthExceeded, nil)
	}
	defer d.depth.Exit()
	cont, err := d.v.BeginArray(n, doctree.TagNone, d.ctx())
	if err != nil || !cont {
		return err
	}
	for i := 0; i < n; i++ {
		if err := d.decodeValue(); err != nil {
			return err
		}
	}
	_, err = d.v.EndArray(d.ctx())
	return err
}

func (d *Decoder) decodeMap(n int) error {
	if err := d.depth.Enter(); err != nil {
		return d.errf(doctree.KindMaxDepthExceeded, nil)
	}
	defer d.depth.Exit()
	cont, err := d.v.BeginObject(n, doctree.TagNone, d.ctx())
	if err != nil || !cont {
		return err
	}
	for i := 0; i < n; i++ {
		key, err := d.decodeMapKey()
		if err != nil {
			return err
		}
		if _, err := d.v.Key(key, d.ctx()); err != nil {
			return err
		}
		if err := d.decodeValue(); err != nil {
			return err
		}
	}
	_, err = d.v.EndObject(d.ctx())
	return err
}

// decodeMapKey reads one value expected to be a string and renders it as a
// Go string usable as an object key; non-string keys are formatted
// numerically, mirroring doctree/cbor's same narrowing (object keys in
// this module's Document are always strings).
func (d *Decoder) decodeMapKey() (string, error) {
	kd := visitor.NewDecoder(nil, doctree.Sorted)
	if err := d.decodeValueInto(kd); err != nil {
		return "", err
	}
	doc := kd.Document()
	if s, err := doc.AsString(); err == nil {
		return s, nil
	}
	if n, err := doc.AsInt64(); err == nil {
		return doctree.CanonicalBigIntString(itoa(n))
	}
	return "", doctree.NewError(doctree.KindUnexpectedCharacter, d.ctx().Pos, nil)
}

func (d *Decoder) decodeValueInto(v visitor.Visitor) error {
	saved := d.v
	d.v = v
	err := d.decodeValue()
	d.v = saved
	return err
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	var buf [20]byte
	i := len(buf)
	u := uint64(n)
	if neg {
		u = uint64(-n)
	}
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func beUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// DecodeBytes is a convenience entry point mirroring doctree/cbor.DecodeBytes.
func DecodeBytes(b []byte, policy doctree.ObjectPolicy, maxDepth int) (*doctree.Document, error) {
	dec := visitor.NewDecoder(nil, policy)
	if err := NewDecoder(b, dec, maxDepth).Decode(); err != nil {
		return nil, err
	}
	return dec.Document(), nil
}
