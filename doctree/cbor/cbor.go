// Package cbor implements a CBOR (RFC 8949) parser and encoder (C6/C7) over
// the Visitor contract, grounded on the byte-level codec conventions in
// doctree/internal/byteio and on the major-type/tag layout documented by
// synadia-labs' CBOR reader in the retrieval pack.
package cbor

import (
	"math"
	"strconv"

	"github.com/quillbyte/doctree"
	"github.com/quillbyte/doctree/internal/byteio"
	"github.com/quillbyte/doctree/visitor"
)

const (
	majorUint byte = iota
	majorNegInt
	majorBytes
	majorText
	majorArray
	majorMap
	majorTag
	majorSimple
)

const (
	tagDateTime       = 0
	tagEpochSecond    = 1
	tagBigIntPos      = 2
	tagBigIntNeg      = 3
	tagBigDec         = 4
	tagBase64URL      = 21
	tagBase64         = 22
	tagBase16         = 23
	tagURI            = 32
	tagRegex          = 35
	typedArrayTagLow  = 64
	typedArrayTagHigh = 87
)

type typedArrayKind struct {
	elemKind string
	width    int
	signed   bool
	float    bool
}

// typedArrayTags is a grounded SUBSET of the IANA "Typed Arrays" CBOR tag
// registry (tags 64-87): the common fixed-width integer and IEEE-754 forms.
// Tags in 64-87 outside this subset are not decoded as typed arrays: the
// tagged byte string is emitted as a plain byte string, without an error.
var typedArrayTags = map[uint64]typedArrayKind{
	64: {"u8", 1, false, false},
	65: {"u16", 2, false, false},
	66: {"u32", 4, false, false},
	67: {"u64", 8, false, false},
	69: {"i8", 1, true, false},
	70: {"i16", 2, true, false},
	71: {"i32", 4, true, false},
	72: {"i64", 8, true, false},
	82: {"f32", 4, false, true},
	83: {"f64", 8, false, true},
}

// Decoder reads a single CBOR-encoded item and emits it to v.
type Decoder struct {
	r        *byteio.Reader
	v        visitor.Visitor
	depth    *byteio.DepthGuard
	maxDepth int
}

// NewDecoder returns a Decoder over a complete byte slice (CBOR documents
// are framed by their own length-prefixed structure, so unlike the text
// parser this module does not support incremental feeding; see
// doctree/internal/byteio's doc comment).
func NewDecoder(b []byte, v visitor.Visitor, maxDepth int) *Decoder {
	return &Decoder{r: byteio.NewReader(b), v: v, depth: byteio.NewDepthGuard(maxDepth), maxDepth: maxDepth}
}

// Decode parses the wrapped buffer as exactly one CBOR item.
func (d *Decoder) Decode() error {
	if err := d.decodeValue(); err != nil {
		return err
	}
	return d.v.Flush()
}

func (d *Decoder) errf(kind doctree.ErrorKind, cause error) error {
	return doctree.NewError(kind, doctree.Position{Offset: d.r.Pos()}, cause)
}

func (d *Decoder) readHeader() (major byte, info byte, arg uint64, err error) {
	b, err := d.r.Byte()
	if err != nil {
		return 0, 0, 0, d.wrapIOErr(err)
	}
	major = b >> 5
	info = b & 0x1F
	switch {
	case info < 24:
		return major, info, uint64(info), nil
	case info == 24:
		v, err := d.r.Uint8()
		return major, info, uint64(v), d.wrapIOErr(err)
	case info == 25:
		v, err := d.r.Uint16BE()
		return major, info, uint64(v), d.wrapIOErr(err)
	case info == 26:
		v, err := d.r.Uint32BE()
		return major, info, uint64(v), d.wrapIOErr(err)
	case info == 27:
		v, err := d.r.Uint64BE()
		return major, info, uint64(v), d.wrapIOErr(err)
	case info == 31:
		return major, info, 0, nil // indefinite length
	}
	return 0, 0, 0, d.errf(doctree.KindUnknownType, nil)
}

func (d *Decoder) wrapIOErr(err error) error {
	if err == nil {
		return nil
	}
	return d.errf(doctree.KindUnexpectedEOF, err)
}

func (d *Decoder) decodeValue() error {
	major, info, arg, err := d.readHeader()
	if err != nil {
		return err
	}
	return d.decodeByMajor(major, info, arg, doctree.TagNone)
}

func (d *Decoder) decodeByMajor(major, info byte, arg uint64, tag doctree.Tag) error {
	ctx := visitor.Context{Pos: doctree.Position{Offset: d.r.Pos()}}
	switch major {
	case majorUint:
		_, err := d.v.UInt64(arg, tag, ctx)
		return err
	case majorNegInt:
		_, err := d.v.Int64(-1-int64(arg), tag, ctx)
		return err
	case majorBytes:
		b, err := d.readBytesPayload(info, arg)
		if err != nil {
			return err
		}
		_, err = d.v.ByteString(b, tag, ctx)
		return err
	case majorText:
		b, err := d.readBytesPayload(info, arg)
		if err != nil {
			return err
		}
		_, err = d.v.String(string(b), tag, ctx)
		return err
	case majorArray:
		return d.decodeArray(info, arg, tag)
	case majorMap:
		return d.decodeMap(info, arg, tag)
	case majorTag:
		return d.decodeTag(arg)
	case majorSimple:
		return d.decodeSimple(info, arg, tag)
	}
	return d.errf(doctree.KindUnknownType, nil)
}

func (d *Decoder) readBytesPayload(info byte, arg uint64) ([]byte, error) {
	if info == 31 {
		// indefinite-length byte/text string: concatenation of definite chunks
		var out []byte
		for {
			b, err := d.r.Peek()
			if err != nil {
				return nil, d.wrapIOErr(err)
			}
			if b == 0xFF {
				d.r.Byte()
				return out, nil
			}
			_, _, carg, err := d.readHeader()
			if err != nil {
				return nil, err
			}
			chunk, err := d.r.Bytes(int(carg))
			if err != nil {
				return nil, d.wrapIOErr(err)
			}
			out = append(out, chunk...)
		}
	}
	b, err := d.r.Bytes(int(arg))
	if err != nil {
		return nil, d.wrapIOErr(err)
	}
	return append([]byte(nil), b...), nil
}

func (d *Decoder) decodeArray(info byte, arg uint64, tag doctree.Tag) error {
	ctx := visitor.Context{Pos: doctree.Position{Offset: d.r.Pos()}}
	if err := d.depth.Enter(); err != nil {
		return d.errf(doctree.KindMaxDepthExceeded, nil)
	}
	defer d.depth.Exit()

	length := -1
	if info != 31 {
		length = int(arg)
	}
	cont, err := d.v.BeginArray(length, tag, ctx)
	if err != nil || !cont {
		return err
	}
	if info == 31 {
		for {
			b, err := d.r.Peek()
			if err != nil {
				return d.wrapIOErr(err)
			}
			if b == 0xFF {
				d.r.Byte()
				break
			}
			if err := d.decodeValue(); err != nil {
				return err
			}
		}
	} else {
		for i := uint64(0); i < arg; i++ {
			if err := d.decodeValue(); err != nil {
				return err
			}
		}
	}
	_, err = d.v.EndArray(ctx)
	return err
}

func (d *Decoder) decodeMap(info byte, arg uint64, tag doctree.Tag) error {
	ctx := visitor.Context{Pos: doctree.Position{Offset: d.r.Pos()}}
	if err := d.depth.Enter(); err != nil {
		return d.errf(doctree.KindMaxDepthExceeded, nil)
	}
	defer d.depth.Exit()

	length := -1
	if info != 31 {
		length = int(arg)
	}
	cont, err := d.v.BeginObject(length, tag, ctx)
	if err != nil || !cont {
		return err
	}
	readPair := func() (bool, error) {
		b, err := d.r.Peek()
		if err != nil {
			return false, d.wrapIOErr(err)
		}
		if info == 31 && b == 0xFF {
			d.r.Byte()
			return false, nil
		}
		kmajor, kinfo, karg, err := d.readHeader()
		if err != nil {
			return false, err
		}
		if kmajor != majorText && kmajor != majorUint && kmajor != majorNegInt {
			return false, d.errf(doctree.KindUnexpectedCharacter, nil)
		}
		var key string
		switch kmajor {
		case majorText:
			kb, err := d.readBytesPayload(kinfo, karg)
			if err != nil {
				return false, err
			}
			key = string(kb)
		case majorUint:
			key = strconv.FormatUint(karg, 10)
		case majorNegInt:
			key = strconv.FormatInt(-1-int64(karg), 10)
		}
		if _, err := d.v.Key(key, ctx); err != nil {
			return false, err
		}
		return true, d.decodeValue()
	}
	if info == 31 {
		for {
			more, err := readPair()
			if err != nil {
				return err
			}
			if !more {
				break
			}
		}
	} else {
		for i := uint64(0); i < arg; i++ {
			if _, err := readPair(); err != nil {
				return err
			}
		}
	}
	_, err = d.v.EndObject(ctx)
	return err
}

func (d *Decoder) decodeTag(num uint64) error {
	switch num {
	case tagDateTime:
		return d.decodeTagged(doctree.TagDateTime)
	case tagEpochSecond:
		return d.decodeTagged(doctree.TagEpochSecond)
	case tagBigIntPos, tagBigIntNeg:
		return d.decodeBigInt(num == tagBigIntNeg)
	case tagBigDec:
		return d.decodeBigDec()
	case tagBase64URL:
		return d.decodeTagged(doctree.TagBase64URL)
	case tagBase64:
		return d.decodeTagged(doctree.TagBase64)
	case tagBase16:
		return d.decodeTagged(doctree.TagBase16)
	case tagURI:
		return d.decodeTagged(doctree.TagURI)
	case tagRegex:
		return d.decodeTagged(doctree.TagRegex)
	}
	if k, ok := typedArrayTags[num]; ok && num >= typedArrayTagLow && num <= typedArrayTagHigh {
		return d.decodeTypedArray(k)
	}
	// Unknown tag: decode the tagged item untagged rather than failing, per
	// spec.md's guidance that tag mapping only applies to the enumerated
	// set.
	return d.decodeValue()
}

func (d *Decoder) decodeTagged(tag doctree.Tag) error {
	major, info, arg, err := d.readHeader()
	if err != nil {
		return err
	}
	return d.decodeByMajor(major, info, arg, tag)
}

func (d *Decoder) decodeBigInt(neg bool) error {
	major, info, arg, err := d.readHeader()
	if err != nil {
		return err
	}
	if major != majorBytes {
		return d.errf(doctree.KindInvalidBigInt, nil)
	}
	payload, err := d.readBytesPayload(info, arg)
	if err != nil {
		return err
	}
	s := bigIntFromBytes(payload, neg)
	ctx := visitor.Context{Pos: doctree.Position{Offset: d.r.Pos()}}
	_, err = d.v.String(s, doctree.TagBigInt, ctx)
	return err
}

func (d *Decoder) decodeBigDec() error {
	major, info, arg, err := d.readHeader()
	if err != nil {
		return err
	}
	if major != majorArray || (info != 31 && arg != 2) {
		return d.errf(doctree.KindInvalidBigDec, nil)
	}
	emajor, _, earg, err := d.readHeader()
	if err != nil {
		return err
	}
	var exponent int64
	switch emajor {
	case majorUint:
		exponent = int64(earg)
	case majorNegInt:
		exponent = -1 - int64(earg)
	default:
		return d.errf(doctree.KindInvalidBigDec, nil)
	}
	mmajor, _, marg, err := d.readHeader()
	if err != nil {
		return err
	}
	var mantissa string
	switch mmajor {
	case majorUint:
		mantissa = strconv.FormatUint(marg, 10)
	case majorNegInt:
		mantissa = strconv.FormatInt(-1-int64(marg), 10)
	case majorTag:
		// nested bigint tag (2/3) carrying the mantissa as a byte string
		if marg != tagBigIntPos && marg != tagBigIntNeg {
			return d.errf(doctree.KindInvalidBigDec, nil)
		}
		bmajor, binfo, barg, err := d.readHeader()
		if err != nil {
			return err
		}
		if bmajor != majorBytes {
			return d.errf(doctree.KindInvalidBigDec, nil)
		}
		payload, err := d.readBytesPayload(binfo, barg)
		if err != nil {
			return err
		}
		mantissa = bigIntFromBytes(payload, marg == tagBigIntNeg)
	default:
		return d.errf(doctree.KindInvalidBigDec, nil)
	}
	canon, err := mantissaExponentToCanonical(mantissa, exponent)
	if err != nil {
		return d.errf(doctree.KindInvalidBigDec, err)
	}
	ctx := visitor.Context{Pos: doctree.Position{Offset: d.r.Pos()}}
	_, err = d.v.String(canon, doctree.TagBigDec, ctx)
	return err
}

func (d *Decoder) decodeTypedArray(k typedArrayKind) error {
	major, info, arg, err := d.readHeader()
	if err != nil {
		return err
	}
	if major != majorBytes {
		return d.errf(doctree.KindUnknownType, nil)
	}
	payload, err := d.readBytesPayload(info, arg)
	if err != nil {
		return err
	}
	if len(payload)%k.width != 0 {
		return d.errf(doctree.KindInvalidNumber, nil)
	}
	n := len(payload) / k.width
	data := visitor.TypedArrayData{ElemKind: k.elemKind}
	switch {
	case k.float:
		floats := make([]float64, n)
		for i := 0; i < n; i++ {
			off := i * k.width
			if k.width == 4 {
				floats[i] = float64(math.Float32frombits(beUint32(payload[off:])))
			} else {
				floats[i] = math.Float64frombits(beUint64(payload[off:]))
			}
		}
		data.Floats = floats
	case k.signed:
		ints := make([]int64, n)
		for i := 0; i < n; i++ {
			off := i * k.width
			ints[i] = beSignedN(payload[off:off+k.width], k.width)
		}
		data.Ints = ints
	default:
		uints := make([]uint64, n)
		for i := 0; i < n; i++ {
			off := i * k.width
			uints[i] = beUnsignedN(payload[off:off+k.width], k.width)
		}
		data.Uints = uints
	}
	ctx := visitor.Context{Pos: doctree.Position{Offset: d.r.Pos()}}
	_, err = d.v.TypedArray(data, doctree.TagNone, ctx)
	return err
}

func (d *Decoder) decodeSimple(info byte, arg uint64, tag doctree.Tag) error {
	ctx := visitor.Context{Pos: doctree.Position{Offset: d.r.Pos()}}
	switch info {
	case 20:
		_, err := d.v.Bool(false, tag, ctx)
		return err
	case 21:
		_, err := d.v.Bool(true, tag, ctx)
		return err
	case 22:
		_, err := d.v.Null(tag, ctx)
		return err
	case 23:
		_, err := d.v.Null(doctree.TagUndefined, ctx)
		return err
	case 25:
		_, err := d.v.Half(uint16(arg), tag, ctx)
		return err
	case 26:
		_, err := d.v.Double(float64(math.Float32frombits(uint32(arg))), tag, ctx)
		return err
	case 27:
		_, err := d.v.Double(math.Float64frombits(arg), tag, ctx)
		return err
	}
	return d.errf(doctree.KindUnknownType, nil)
}

// DecodeBytes is a convenience entry point: decode a complete CBOR item
// from b into a Document using policy for map ordering.
func DecodeBytes(b []byte, policy doctree.ObjectPolicy, maxDepth int) (*doctree.Document, error) {
	dec := visitor.NewDecoder(nil, policy)
	if err := NewDecoder(b, dec, maxDepth).Decode(); err != nil {
		return nil, err
	}
	return dec.Document(), nil
}
