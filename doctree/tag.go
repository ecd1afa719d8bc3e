package doctree

// Tag is a semantic marker attached to every scalar event and Document
// value. Tags never change the encoded payload type; they refine its
// interpretation. Encoders choose a representation consistent with the tag
// where the wire format supports it, otherwise degrade to the payload's
// native form.
type Tag int8

// Recognized semantic tags.
const (
	TagNone Tag = iota
	TagDateTime
	TagEpochSecond
	TagEpochMillisecond
	TagBigInt
	TagBigDec
	TagBigFloat
	TagBase16
	TagBase64
	TagBase64URL
	TagURI
	TagClamped
	TagMultiDimRowMajor
	TagMultiDimColumnMajor
	TagID
	TagRegex
	TagCode
	TagUndefined
	TagFloat
	TagNoEsc
	numTags
)

var tagStrings = [numTags]string{
	TagNone:                "none",
	TagDateTime:            "datetime",
	TagEpochSecond:         "epoch_second",
	TagEpochMillisecond:    "epoch_millisecond",
	TagBigInt:              "bigint",
	TagBigDec:              "bigdec",
	TagBigFloat:            "bigfloat",
	TagBase16:              "base16",
	TagBase64:              "base64",
	TagBase64URL:           "base64url",
	TagURI:                 "uri",
	TagClamped:             "clamped",
	TagMultiDimRowMajor:    "multi_dim_row_major",
	TagMultiDimColumnMajor: "multi_dim_column_major",
	TagID:                  "id",
	TagRegex:               "regex",
	TagCode:                "code",
	TagUndefined:           "undefined",
	TagFloat:               "float",
	TagNoEsc:               "noesc",
}

// String returns the tag's canonical lowercase name, or "<unknown>" if t is
// out of range.
func (t Tag) String() string {
	if t < 0 || t >= numTags {
		return "<unknown>"
	}
	return tagStrings[t]
}

// IsNumericTag reports whether t refines a scalar as an arbitrary-precision
// number (BigInt/BigDec/BigFloat). Of these, BigInt and BigDec change which
// Document variant visitor.Decoder stores a string as; a BigFloat-tagged
// string stays a String.
func (t Tag) IsNumericTag() bool {
	return t == TagBigInt || t == TagBigDec || t == TagBigFloat
}
