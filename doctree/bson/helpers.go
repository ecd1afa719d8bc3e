package bson

import (
	"encoding/binary"
	"math/big"

	"github.com/quillbyte/doctree"
)

const decimal128ExponentBias = 6176

var maxDecimal128Coefficient = func() *big.Int {
	n, _ := new(big.Int).SetString("9999999999999999999999999999999999", 10) // 10^34 - 1
	return n
}()

// decimal128ToString decodes a 16-byte little-endian Decimal128 (the BID
// encoding BSON uses) into a canonical BigDec string, reusing
// doctree.ExponentMantissaToBigDecString exactly as doctree/cbor's tag-4
// bigdec decoding does, so both formats produce the same canonical shape
// for the same numeric value.
func decimal128ToString(b []byte) (string, error) {
	lo := binary.LittleEndian.Uint64(b[0:8])
	hi := binary.LittleEndian.Uint64(b[8:16])

	sign := hi>>63&1 == 1

	var exponent int64
	var sigHigh uint64
	if hi&0x6000000000000000 == 0x6000000000000000 {
		// Combination field's top two bits are both set: either a special
		// value (inf/nan) or the rare alternate coefficient form with an
		// implicit leading "100" prefix. NaN/Infinity have no decimal
		// string rendering, so they are surfaced via sentinel text rather
		// than failing outright.
		if hi&0x7c00000000000000 == 0x7c00000000000000 {
			return "nan", nil
		}
		if hi&0x7800000000000000 == 0x7800000000000000 {
			if sign {
				return "-inf", nil
			}
			return "inf", nil
		}
		exponent = int64((hi>>47)&0x3fff) - decimal128ExponentBias
		sigHigh = (hi & 0x7fffffffffff) | 0x0020000000000000
	} else {
		exponent = int64((hi>>49)&0x3fff) - decimal128ExponentBias
		sigHigh = hi & 0x1ffffffffffff
	}

	coeff := new(big.Int).Lsh(new(big.Int).SetUint64(sigHigh), 64)
	coeff.Or(coeff, new(big.Int).SetUint64(lo))
	if coeff.Cmp(maxDecimal128Coefficient) > 0 {
		coeff.SetInt64(0)
	}
	if sign {
		coeff.Neg(coeff)
	}
	return doctree.ExponentMantissaToBigDecString(exponent, coeff), nil
}

// decimal128FromString is the encoder-side inverse, writing the standard
// (non-"11" combination) form, which holds every coefficient up to
// 10^34-1. A larger coefficient, or an exponent outside Decimal128's
// range, is rejected with invalid_bigdec.
func decimal128FromString(s string) ([16]byte, error) {
	var out [16]byte
	exponent, mantissa, err := doctree.BigDecToExponentMantissa(s)
	if err != nil {
		return out, err
	}
	sign := mantissa.Sign() < 0
	mag := new(big.Int).Abs(mantissa)

	biased := exponent + decimal128ExponentBias
	if mag.Cmp(maxDecimal128Coefficient) > 0 || biased < 0 || biased > 0x2fff {
		return out, doctree.NewError(doctree.KindInvalidBigDec, doctree.Position{}, nil)
	}

	mask64 := new(big.Int).SetUint64(^uint64(0))
	lo := new(big.Int).And(mag, mask64).Uint64()
	high64 := new(big.Int).Rsh(mag, 64).Uint64()

	var hi uint64
	if sign {
		hi |= 1 << 63
	}
	hi |= uint64(biased&0x3fff) << 49
	hi |= high64 & 0x1ffffffffffff

	binary.LittleEndian.PutUint64(out[0:8], lo)
	binary.LittleEndian.PutUint64(out[8:16], hi)
	return out, nil
}
