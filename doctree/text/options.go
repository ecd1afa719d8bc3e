package text

// Options configures optional text-parser grammar extensions beyond strict
// JSON (spec.md section 6.1) and the parser's depth bound. Every toggle
// defaults to off, matching spec.md's "each default to off".
type Options struct {
	// MaxDepth bounds array/object nesting; <=0 means the package default
	// (1024, mirroring mcvoid-json's depth constant).
	MaxDepth int
	// AllowComments accepts "//" line comments and "/* */" block comments
	// anywhere whitespace is accepted.
	AllowComments bool
	// AllowTrailingCommas accepts a comma immediately before a closing
	// ']' or '}'.
	AllowTrailingCommas bool
	// AllowUnquotedKeys accepts a bareword identifier ([A-Za-z_$][A-Za-z0-9_$]*)
	// as an object key without surrounding quotes.
	AllowUnquotedKeys bool
	// AllowLoneSurrogates tolerates an unpaired UTF-16 surrogate inside a
	// \uXXXX escape instead of raising invalid_utf8 (spec.md section 9's
	// named compatibility mode for its open question on this point).
	AllowLoneSurrogates bool
	// StrictDecimals forces every fractional/exponent literal to be
	// represented as BigDec rather than Double, so no decimal digit is ever
	// lost to float64 rounding (the "strict mode" alternative named in
	// spec.md section 9 for its bigdec/double open question).
	StrictDecimals bool
}

const defaultMaxDepth = 1024

func (o Options) maxDepth() int {
	if o.MaxDepth > 0 {
		return o.MaxDepth
	}
	return defaultMaxDepth
}
