// Package bson implements a BSON parser and encoder (object-root only, per
// spec.md section 6's scoping of the wire formats this module speaks) over
// the Visitor contract. BSON's document framing -- an int32 total byte
// length, a run of type-tagged elements, and a trailing 0x00 -- is little-
// endian throughout, unlike every other format this module supports, so
// this package uses doctree/internal/byteio's *LE readers/writers rather
// than the *BE ones doctree/cbor, doctree/msgpack, and doctree/ubjson use.
package bson

import (
	"math"

	"github.com/quillbyte/doctree"
	"github.com/quillbyte/doctree/internal/byteio"
	"github.com/quillbyte/doctree/visitor"
)

const (
	tDouble    = 0x01
	tString    = 0x02
	tDocument  = 0x03
	tArray     = 0x04
	tBinary    = 0x05
	tUndefined = 0x06
	tObjectID  = 0x07
	tBool      = 0x08
	tDateTime  = 0x09
	tNull      = 0x0A
	tRegex     = 0x0B
	tJSCode    = 0x0D
	tSymbol    = 0x0E
	tInt32     = 0x10
	tTimestamp = 0x11
	tInt64     = 0x12
	tDecimal128 = 0x13
	tMinKey    = 0xFF
	tMaxKey    = 0x7F
)

// Decoder reads a single root BSON document and emits it to v.
type Decoder struct {
	r     *byteio.Reader
	v     visitor.Visitor
	depth *byteio.DepthGuard
}

func NewDecoder(b []byte, v visitor.Visitor, maxDepth int) *Decoder {
	return &Decoder{r: byteio.NewReader(b), v: v, depth: byteio.NewDepthGuard(maxDepth)}
}

// Decode reads the root document. BSON has no non-object wire form, so
// unlike the other binary formats in this module there is no generic
// decodeValue entry point at the top level.
func (d *Decoder) Decode() error {
	if err := d.decodeDocument(false); err != nil {
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

func (d *Decoder) readCString() (string, error) {
	var b []byte
	for {
		c, err := d.r.Byte()
		if err != nil {
			return "", d.wrapIOErr(err)
		}
		if c == 0 {
			break
		}
		b = append(b, c)
	}
	return string(b), nil
}

func (d *Decoder) readBSONString() (string, error) {
	n, err := d.r.Uint32LE()
	if err != nil {
		return "", d.wrapIOErr(err)
	}
	payload, err := d.r.Bytes(int(n))
	if err != nil {
		return "", d.wrapIOErr(err)
	}
	if n == 0 || payload[n-1] != 0 {
		return "", d.errf(doctree.KindUnexpectedCharacter, nil)
	}
	return string(payload[:n-1]), nil
}

// decodeDocument reads a length-prefixed BSON document or array body
// (identical wire shape; asArray selects which Visitor container events to
// emit and tells the caller to discard BSON's numeric-string array keys).
func (d *Decoder) decodeDocument(asArray bool) error {
	if err := d.depth.Enter(); err != nil {
		return d.errf(doctree.KindMaxDepthExceeded, nil)
	}
	defer d.depth.Exit()

	totalLen, err := d.r.Uint32LE()
	if err != nil {
		return d.wrapIOErr(err)
	}
	end := d.r.Pos() + int64(totalLen) - 4

	var cont bool
	if asArray {
		cont, err = d.v.BeginArray(-1, doctree.TagNone, d.ctx())
	} else {
		cont, err = d.v.BeginObject(-1, doctree.TagNone, d.ctx())
	}
	if err != nil || !cont {
		return err
	}

	for d.r.Pos() < end-1 {
		elemType, err := d.r.Byte()
		if err != nil {
			return d.wrapIOErr(err)
		}
		if elemType == 0 {
			break
		}
		key, err := d.readCString()
		if err != nil {
			return err
		}
		if !asArray {
			if _, err := d.v.Key(key, d.ctx()); err != nil {
				return err
			}
		}
		if err := d.decodeElement(elemType); err != nil {
			return err
		}
	}

	term, err := d.r.Byte()
	if err != nil {
		return d.wrapIOErr(err)
	}
	if term != 0 {
		return d.errf(doctree.KindUnexpectedCharacter, nil)
	}

	if asArray {
		_, err = d.v.EndArray(d.ctx())
	} else {
		_, err = d.v.EndObject(d.ctx())
	}
	return err
}

func (d *Decoder) decodeElement(elemType byte) error {
	switch elemType {
	case tDouble:
		n, err := d.r.Uint64LE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.Double(math.Float64frombits(n), doctree.TagNone, d.ctx())
		return err
	case tString, tSymbol, tJSCode:
		s, err := d.readBSONString()
		if err != nil {
			return err
		}
		tag := doctree.TagNone
		if elemType == tJSCode {
			tag = doctree.TagCode
		}
		_, err = d.v.String(s, tag, d.ctx())
		return err
	case tDocument:
		return d.decodeDocument(false)
	case tArray:
		return d.decodeDocument(true)
	case tBinary:
		return d.decodeBinary()
	case tUndefined:
		_, err := d.v.Null(doctree.TagUndefined, d.ctx())
		return err
	case tObjectID:
		b, err := d.r.Bytes(12)
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.ByteString(append([]byte(nil), b...), doctree.TagID, d.ctx())
		return err
	case tBool:
		b, err := d.r.Byte()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.Bool(b != 0, doctree.TagNone, d.ctx())
		return err
	case tDateTime:
		n, err := d.r.Uint64LE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.Int64(int64(n), doctree.TagDateTime, d.ctx())
		return err
	case tNull:
		_, err := d.v.Null(doctree.TagNone, d.ctx())
		return err
	case tRegex:
		pattern, err := d.readCString()
		if err != nil {
			return err
		}
		options, err := d.readCString()
		if err != nil {
			return err
		}
		_, err = d.v.String(pattern+"\x00"+options, doctree.TagRegex, d.ctx())
		return err
	case tInt32:
		n, err := d.r.Uint32LE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.Int64(int64(int32(n)), doctree.TagNone, d.ctx())
		return err
	case tTimestamp:
		n, err := d.r.Uint64LE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.UInt64(n, doctree.TagNone, d.ctx())
		return err
	case tInt64:
		n, err := d.r.Uint64LE()
		if err != nil {
			return d.wrapIOErr(err)
		}
		_, err = d.v.Int64(int64(n), doctree.TagNone, d.ctx())
		return err
	case tDecimal128:
		b, err := d.r.Bytes(16)
		if err != nil {
			return d.wrapIOErr(err)
		}
		s, err := decimal128ToString(b)
		if err != nil {
			return err
		}
		_, err = d.v.String(s, doctree.TagBigDec, d.ctx())
		return err
	case tMinKey, tMaxKey:
		_, err := d.v.Null(doctree.TagClamped, d.ctx())
		return err
	}
	return d.errf(doctree.KindUnknownType, nil)
}

func (d *Decoder) decodeBinary() error {
	n, err := d.r.Uint32LE()
	if err != nil {
		return d.wrapIOErr(err)
	}
	subtype, err := d.r.Byte()
	if err != nil {
		return d.wrapIOErr(err)
	}
	payload, err := d.r.Bytes(int(n))
	if err != nil {
		return d.wrapIOErr(err)
	}
	tag := doctree.TagBase16
	if subtype == 0x04 {
		tag = doctree.TagID
	}
	_, err = d.v.ByteString(append([]byte(nil), payload...), tag, d.ctx())
	return err
}

// DecodeBytes is a convenience entry point mirroring doctree/cbor.DecodeBytes.
// The Visitor stream always starts with BeginObject, so policy selects how
// the root (and every nested) document's keys are ordered.
func DecodeBytes(b []byte, policy doctree.ObjectPolicy, maxDepth int) (*doctree.Document, error) {
	dec := visitor.NewDecoder(nil, policy)
	if err := NewDecoder(b, dec, maxDepth).Decode(); err != nil {
		return nil, err
	}
	return dec.Document(), nil
}
