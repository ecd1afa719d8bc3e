package doctree

import (
	"math/big"
	"strconv"
	"strings"
)

// ParseInt64Overflow parses a signed decimal integer, reporting overflow
// instead of truncating (unlike strconv.ParseInt, which returns a clamped
// value and a *NumError on overflow -- this returns ok=false so callers can
// fall through to the BigInt path per spec.md section 4.4's number
// classification).
func ParseInt64Overflow(s string) (v int64, ok bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseUint64Overflow is the unsigned counterpart of ParseInt64Overflow.
func ParseUint64Overflow(s string) (v uint64, ok bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// CanonicalBigIntString normalizes a decimal integer literal (as scanned by
// a parser, possibly with a leading '+' or redundant leading zeros) to the
// canonical form required by the GLOSSARY: no leading zeros, optional
// leading minus, via math/big so arbitrarily large literals round-trip
// exactly.
func CanonicalBigIntString(s string) (string, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return "", NewError(KindInvalidBigInt, Position{}, nil)
	}
	return n.String(), nil
}

// CanonicalBigDecString normalizes a decimal-fraction literal (possibly
// with a sign, a fractional part, and/or an exponent) into this module's
// canonical BigDec form: the significant digits written as an integer
// with no leading zeros, trailing zeros moved into the exponent, followed
// by "e±N" when the exponent is not zero ("273.15" becomes "27315e-2",
// "1200" becomes "12e+2"). The literal's decimal point is not preserved.
func CanonicalBigDecString(s string) (string, error) {
	neg := false
	rest := s
	if strings.HasPrefix(rest, "-") {
		neg = true
		rest = rest[1:]
	} else if strings.HasPrefix(rest, "+") {
		rest = rest[1:]
	}
	if rest == "" {
		return "", NewError(KindInvalidBigDec, Position{}, nil)
	}

	mantissa := rest
	exp := 0
	if idx := strings.IndexAny(rest, "eE"); idx >= 0 {
		mantissa = rest[:idx]
		e, err := strconv.Atoi(rest[idx+1:])
		if err != nil {
			return "", NewError(KindInvalidBigDec, Position{}, err)
		}
		exp = e
	}

	intPart, fracPart := mantissa, ""
	if idx := strings.IndexByte(mantissa, '.'); idx >= 0 {
		intPart, fracPart = mantissa[:idx], mantissa[idx+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	// Every fractional digit shifts the value's decimal exponent down by one.
	exp -= len(fracPart)

	digits := strings.TrimLeft(intPart+fracPart, "0")
	if digits == "" {
		digits = "0"
	}
	// Strip trailing zeros from the digit string into the exponent, so
	// "1200" with exp 0 normalizes to digits "12" exp 2.
	for len(digits) > 1 && digits[len(digits)-1] == '0' {
		digits = digits[:len(digits)-1]
		exp++
	}

	var b strings.Builder
	if neg && digits != "0" {
		b.WriteByte('-')
	}
	if exp == 0 {
		b.WriteString(digits)
	} else {
		b.WriteString(digits)
		b.WriteByte('e')
		if exp > 0 {
			b.WriteByte('+')
		}
		b.WriteString(strconv.Itoa(exp))
	}
	return b.String(), nil
}

// BigDecToExponentMantissa decomposes a canonical BigDec string into the
// (exponent, mantissa) pair used by CBOR tag 4 (decimal fraction, section
// 6.2) and BSON Decimal128-adjacent encodings: value = mantissa * 10^exponent.
func BigDecToExponentMantissa(canonical string) (exponent int64, mantissa *big.Int, err error) {
	neg := false
	rest := canonical
	if strings.HasPrefix(rest, "-") {
		neg = true
		rest = rest[1:]
	}
	digits := rest
	exp := int64(0)
	if idx := strings.IndexByte(rest, 'e'); idx >= 0 {
		digits = rest[:idx]
		e, perr := strconv.ParseInt(rest[idx+1:], 10, 64)
		if perr != nil {
			return 0, nil, NewError(KindInvalidBigDec, Position{}, perr)
		}
		exp = e
	}
	m, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return 0, nil, NewError(KindInvalidBigDec, Position{}, nil)
	}
	if neg {
		m.Neg(m)
	}
	return exp, m, nil
}

// ExponentMantissaToBigDecString is the inverse of BigDecToExponentMantissa,
// used when decoding CBOR tag 4 or BSON Decimal128 into a canonical BigDec
// string.
func ExponentMantissaToBigDecString(exponent int64, mantissa *big.Int) string {
	digits := new(big.Int).Abs(mantissa).String()
	var b strings.Builder
	if mantissa.Sign() < 0 {
		b.WriteByte('-')
	}
	b.WriteString(digits)
	if exponent != 0 {
		b.WriteByte('e')
		if exponent > 0 {
			b.WriteByte('+')
		}
		b.WriteString(strconv.FormatInt(exponent, 10))
	}
	return b.String()
}
