package cbor

import (
	"encoding/binary"
	"math/big"

	"github.com/quillbyte/doctree"
)

// bigIntFromBytes decodes a CBOR tag-2/tag-3 byte-string payload (a
// big-endian unsigned magnitude) into a canonical decimal string, applying
// the tag-3 "-1 - n" transform when neg is true.
func bigIntFromBytes(payload []byte, neg bool) string {
	n := new(big.Int).SetBytes(payload)
	if neg {
		n.Add(n, big.NewInt(1))
		n.Neg(n)
	}
	return n.String()
}

// bigIntToBytes is the inverse of bigIntFromBytes: it returns the tag to use
// (2 or 3) and the big-endian unsigned magnitude payload for n.
func bigIntToBytes(n *big.Int) (tag uint64, payload []byte) {
	if n.Sign() >= 0 {
		return tagBigIntPos, n.Bytes()
	}
	m := new(big.Int).Neg(n)
	m.Sub(m, big.NewInt(1))
	return tagBigIntNeg, m.Bytes()
}

func mantissaExponentToCanonical(mantissa string, exponent int64) (string, error) {
	m, ok := new(big.Int).SetString(mantissa, 10)
	if !ok {
		return "", errInvalidMantissa
	}
	return doctree.ExponentMantissaToBigDecString(exponent, m), nil
}

var errInvalidMantissa = &simpleErr{"cbor: invalid bigdec mantissa"}

type simpleErr struct{ s string }

func (e *simpleErr) Error() string { return e.s }

func beUint32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }
func beUint64(b []byte) uint64 { return binary.BigEndian.Uint64(b) }

func beUnsignedN(b []byte, width int) uint64 {
	switch width {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.BigEndian.Uint16(b))
	case 4:
		return uint64(binary.BigEndian.Uint32(b))
	default:
		return binary.BigEndian.Uint64(b)
	}
}

func beSignedN(b []byte, width int) int64 {
	u := beUnsignedN(b, width)
	switch width {
	case 1:
		return int64(int8(u))
	case 2:
		return int64(int16(u))
	case 4:
		return int64(int32(u))
	default:
		return int64(u)
	}
}
