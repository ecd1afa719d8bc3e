package text

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/quillbyte/doctree"
	"github.com/quillbyte/doctree/visitor"
)

// PrettyOptions controls the pretty-printer's layout, per spec.md section
// 4.5's table of independently-tunable knobs. A zero-valued PrettyOptions
// falls back to sane defaults via the accessor methods below.
type PrettyOptions struct {
	IndentSize            int
	ObjectArrayLineSplit  bool
	ArrayArrayLineSplit   bool
	ObjectObjectLineSplit bool
	ArrayObjectLineSplit  bool
	EscapeSolidus         bool
	EscapeAllNonASCII     bool
	NanToStr              string
	InfToStr              string
	NegInfToStr           string
	Precision             int
}

func (o PrettyOptions) indentSize() int {
	if o.IndentSize > 0 {
		return o.IndentSize
	}
	return 2
}

// Encoder is a visitor.Visitor that serializes the event stream it receives
// as text. With Pretty == nil it produces compact output (no insignificant
// whitespace); with Pretty set, it line-splits per PrettyOptions.
type Encoder struct {
	w      io.Writer
	err    error
	pretty *PrettyOptions

	depth     int
	firstItem []bool // per depth level, whether the next item is the first
	isObject  []bool // per depth level, container kind
	split     []bool // per depth level, whether any item so far forced a line break
	afterKey  bool   // true between Key(...) and the value that follows it
}

// NewEncoder returns a compact Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder { return &Encoder{w: w} }

// NewPrettyEncoder returns an Encoder that pretty-prints per opts.
func NewPrettyEncoder(w io.Writer, opts PrettyOptions) *Encoder {
	return &Encoder{w: w, pretty: &opts}
}

func (e *Encoder) write(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}

func (e *Encoder) writeIndent() {
	if e.pretty == nil {
		return
	}
	e.write("\n")
	e.write(strings.Repeat(" ", e.pretty.indentSize()*e.depth))
}

// splitBefore reports whether, given the current container kind and the
// child kind about to be written, a line break belongs before it, per
// spec.md section 4.5's four independent knobs.
func (e *Encoder) splitBefore(childIsObject bool) bool {
	if e.pretty == nil || e.depth == 0 {
		return e.pretty != nil
	}
	parentIsObject := e.isObject[len(e.isObject)-1]
	switch {
	case parentIsObject && childIsObject:
		return e.pretty.ObjectObjectLineSplit
	case parentIsObject && !childIsObject:
		return e.pretty.ObjectArrayLineSplit
	case !parentIsObject && childIsObject:
		return e.pretty.ArrayObjectLineSplit
	default:
		return e.pretty.ArrayArrayLineSplit
	}
}

// beforeItem prepares to write a value (scalar or container open). It is a
// no-op for a value immediately following a Key(), since that value shares
// the key's line and comma bookkeeping. A non-split item gets nothing but
// its leading comma: no indent, no inter-element space, so a container
// none of whose items split lays out fully compact.
func (e *Encoder) beforeItem(childIsObject bool) {
	if e.afterKey {
		e.afterKey = false
		return
	}
	top := len(e.firstItem) - 1
	if top < 0 {
		return
	}
	if !e.firstItem[top] {
		e.write(",")
	}
	e.firstItem[top] = false
	if e.pretty == nil {
		return
	}
	if e.splitBefore(childIsObject) {
		e.split[top] = true
		e.writeIndent()
	}
}

func (e *Encoder) BeginObject(length int, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	e.beforeItem(true)
	e.write("{")
	e.depth++
	e.firstItem = append(e.firstItem, true)
	e.isObject = append(e.isObject, true)
	e.split = append(e.split, false)
	return e.err == nil, e.err
}

func (e *Encoder) EndObject(ctx visitor.Context) (bool, error) {
	empty := e.firstItem[len(e.firstItem)-1]
	split := e.split[len(e.split)-1]
	e.firstItem = e.firstItem[:len(e.firstItem)-1]
	e.isObject = e.isObject[:len(e.isObject)-1]
	e.split = e.split[:len(e.split)-1]
	e.depth--
	if !empty && split {
		e.writeIndent()
	}
	e.write("}")
	return e.err == nil, e.err
}

func (e *Encoder) BeginArray(length int, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	e.beforeItem(false)
	e.write("[")
	e.depth++
	e.firstItem = append(e.firstItem, true)
	e.isObject = append(e.isObject, false)
	e.split = append(e.split, false)
	return e.err == nil, e.err
}

func (e *Encoder) EndArray(ctx visitor.Context) (bool, error) {
	empty := e.firstItem[len(e.firstItem)-1]
	split := e.split[len(e.split)-1]
	e.firstItem = e.firstItem[:len(e.firstItem)-1]
	e.isObject = e.isObject[:len(e.isObject)-1]
	e.split = e.split[:len(e.split)-1]
	e.depth--
	if !empty && split {
		e.writeIndent()
	}
	e.write("]")
	return e.err == nil, e.err
}

func (e *Encoder) Key(key string, ctx visitor.Context) (bool, error) {
	top := len(e.firstItem) - 1
	if !e.firstItem[top] {
		e.write(",")
	}
	e.firstItem[top] = false
	if e.pretty != nil {
		e.split[top] = true
		e.writeIndent()
	}
	e.writeQuoted(key)
	if e.pretty != nil {
		e.write(": ")
	} else {
		e.write(":")
	}
	e.afterKey = true
	return e.err == nil, e.err
}

func (e *Encoder) Null(tag doctree.Tag, ctx visitor.Context) (bool, error) {
	e.beforeItem(false)
	e.write("null")
	return e.err == nil, e.err
}

func (e *Encoder) Bool(v bool, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	e.beforeItem(false)
	if v {
		e.write("true")
	} else {
		e.write("false")
	}
	return e.err == nil, e.err
}

func (e *Encoder) Int64(v int64, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	e.beforeItem(false)
	e.write(strconv.FormatInt(v, 10))
	return e.err == nil, e.err
}

func (e *Encoder) UInt64(v uint64, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	e.beforeItem(false)
	e.write(strconv.FormatUint(v, 10))
	return e.err == nil, e.err
}

func (e *Encoder) Half(raw uint16, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	return e.Double(doctree.HalfToFloat64(raw), tag, ctx)
}

func (e *Encoder) Double(v float64, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	e.beforeItem(false)
	switch {
	case math.IsNaN(v):
		e.write(e.specialFloat(e.pretty.nanToStr(), "NaN"))
	case math.IsInf(v, 1):
		e.write(e.specialFloat(e.pretty.infToStr(), "Infinity"))
	case math.IsInf(v, -1):
		e.write(e.specialFloat(e.pretty.negInfToStr(), "-Infinity"))
	default:
		prec := -1
		if e.pretty != nil && e.pretty.Precision > 0 {
			prec = e.pretty.Precision
		}
		s := strconv.FormatFloat(v, 'g', prec, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		e.write(s)
	}
	return e.err == nil, e.err
}

func (p *PrettyOptions) nanToStr() string {
	if p == nil || p.NanToStr == "" {
		return "NaN"
	}
	return p.NanToStr
}
func (p *PrettyOptions) infToStr() string {
	if p == nil || p.InfToStr == "" {
		return "Infinity"
	}
	return p.InfToStr
}
func (p *PrettyOptions) negInfToStr() string {
	if p == nil || p.NegInfToStr == "" {
		return "-Infinity"
	}
	return p.NegInfToStr
}

// specialFloat emits a non-finite value either as a bare identifier (the
// default, matching the GLOSSARY's "NaN"/"Infinity"/"-Infinity" literals,
// which are not valid JSON but are what jsoncons itself emits by default)
// or as a quoted string when the caller has configured a replacement.
func (e *Encoder) specialFloat(replacement, fallback string) string {
	if replacement == fallback {
		return fallback
	}
	return strconv.Quote(replacement)
}

func (e *Encoder) String(v string, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	e.beforeItem(false)
	e.writeQuoted(v)
	return e.err == nil, e.err
}

func (e *Encoder) ByteString(v []byte, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	e.beforeItem(false)
	e.writeQuoted(encodeBase64(v))
	return e.err == nil, e.err
}

func (e *Encoder) TypedArray(data visitor.TypedArrayData, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	// Text format has no native typed-array representation: write the
	// elements as an ordinary array.
	n := len(data.Floats) + len(data.Ints) + len(data.Uints)
	if cont, err := e.BeginArray(n, tag, ctx); !cont || err != nil {
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

func (e *Encoder) writeQuoted(s string) {
	e.write(`"`)
	for _, r := range s {
		switch r {
		case '"':
			e.write(`\"`)
		case '\\':
			e.write(`\\`)
		case '\b':
			e.write(`\b`)
		case '\f':
			e.write(`\f`)
		case '\n':
			e.write(`\n`)
		case '\r':
			e.write(`\r`)
		case '\t':
			e.write(`\t`)
		case '/':
			if e.pretty != nil && e.pretty.EscapeSolidus {
				e.write(`\/`)
			} else {
				e.write("/")
			}
		default:
			if r < 0x20 {
				e.write(fmt.Sprintf(`\u%04x`, r))
				continue
			}
			if r > 0x7E && e.pretty != nil && e.pretty.EscapeAllNonASCII {
				writeEscapedRune(e, r)
				continue
			}
			e.write(string(r))
		}
	}
	e.write(`"`)
}

func writeEscapedRune(e *Encoder, r rune) {
	if r > 0xFFFF {
		r -= 0x10000
		hi := 0xD800 + (r >> 10)
		lo := 0xDC00 + (r & 0x3FF)
		e.write(fmt.Sprintf(`\u%04x\u%04x`, hi, lo))
		return
	}
	e.write(fmt.Sprintf(`\u%04x`, r))
}

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// encodeBase64 renders a ByteString as base64 text, the text format's only
// way to carry binary payloads (spec.md section 6.1).
func encodeBase64(b []byte) string {
	var sb strings.Builder
	sb.Grow((len(b) + 2) / 3 * 4)
	for i := 0; i < len(b); i += 3 {
		var n uint32
		rem := len(b) - i
		n = uint32(b[i]) << 16
		if rem > 1 {
			n |= uint32(b[i+1]) << 8
		}
		if rem > 2 {
			n |= uint32(b[i+2])
		}
		sb.WriteByte(base64Alphabet[(n>>18)&0x3F])
		sb.WriteByte(base64Alphabet[(n>>12)&0x3F])
		if rem > 1 {
			sb.WriteByte(base64Alphabet[(n>>6)&0x3F])
		} else {
			sb.WriteByte('=')
		}
		if rem > 2 {
			sb.WriteByte(base64Alphabet[n&0x3F])
		} else {
			sb.WriteByte('=')
		}
	}
	return sb.String()
}

// Marshal renders d as compact text.
func Marshal(d *doctree.Document) ([]byte, error) {
	var sb strings.Builder
	enc := NewEncoder(&sb)
	if err := visitor.Walk(d, enc); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// MarshalPretty renders d as pretty-printed text per opts.
func MarshalPretty(d *doctree.Document, opts PrettyOptions) ([]byte, error) {
	var sb strings.Builder
	enc := NewPrettyEncoder(&sb, opts)
	if err := visitor.Walk(d, enc); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// Unmarshal parses b into a freshly-allocated Document using the given
// object-ordering policy.
func Unmarshal(b []byte, policy doctree.ObjectPolicy) (*doctree.Document, error) {
	dec := visitor.NewDecoder(nil, policy)
	if err := ParseBytes(b, dec, Options{}); err != nil {
		return nil, err
	}
	return dec.Document(), nil
}
