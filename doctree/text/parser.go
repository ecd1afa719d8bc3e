// Package text implements the text encoding's incremental parser (C4) and
// its compact/pretty encoder (C5), per spec.md sections 4.4-4.5 and 6.1.
//
// The parser is a restartable pushdown automaton generalized from
// mcvoid-json's table-driven JSON PDA: instead of building a private value
// tree, it emits visitor.Visitor events directly as each token completes,
// and it additionally classifies numbers into uint/int/double/bigint/bigdec,
// tracks line/column/byte position for diagnostics, and supports the
// optional grammar extensions in Options (comments, trailing commas,
// unquoted keys).
package text

import (
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/quillbyte/doctree"
	"github.com/quillbyte/doctree/visitor"
)

// state names stay short and lower-case, matching the teacher PDA's naming
// convention (sr = start, ok = just finished a value, ...).
type state int8

const (
	sr  state = iota // start / top-level value expected
	ok               // just finished a value; next char decided by peekMode()
	ob               // object just opened: expect key or '}'
	ke               // object after ',': expect key or '}'
	co               // expect ':'
	ar               // array just opened: expect element or ']'
	tc               // array after ',': expect element or ']'
	va               // expect a value (object value slot)
	st               // in string
	ec               // in escape
	u1               // unicode escape hex digit 1
	u2
	u3
	u4
	mi // '-' consumed
	ze // a lone leading '0' consumed
	in // integer digits
	fr // '.' consumed, expect digit
	fs // fraction digits
	e1 // 'e'/'E' consumed
	e2 // exponent sign consumed
	e3 // exponent digits
	t1 // "t"
	t2 // "tr"
	t3 // "tru"
	f1 // "f"
	f2 // "fa"
	f3 // "fal"
	f4 // "fals"
	n1 // "n"
	n2 // "nu"
	n3 // "nul"
	c1 // '/' consumed, expect '/' or '*'
	c2 // "// ..." line comment
	c3 // "/* ..." block comment
	c4 // block comment, just saw '*'
	uk // scanning an unquoted key (AllowUnquotedKeys)
)

type mode int8

const (
	modeArray mode = iota
	modeObject
	modeDone
)

// Parser is a restartable single-pass state machine over a byte buffer.
// Feed it bytes via ParseSome, and call Finalize once no more bytes will
// arrive, to distinguish "need more bytes" from "end of document" per
// spec.md section 4.4.
type Parser struct {
	opts Options
	v    visitor.Visitor

	buf       []byte
	pos       int
	line, col int
	started   bool
	finalized bool
	stopped   bool
	done      bool

	state         state
	commentReturn state
	modes         []mode

	numBuf      strings.Builder
	strBuf      strings.Builder
	stringIsKey bool
	pendingHigh rune // non-zero while holding an unpaired \u high surrogate
	unicodeAcc  uint16
}

// NewParser returns a Parser that emits events to v.
func NewParser(v visitor.Visitor, opts Options) *Parser {
	return &Parser{opts: opts, v: v, state: sr, line: 1, col: 1, modes: []mode{modeDone}}
}

func (p *Parser) posNow() doctree.Position {
	return doctree.Position{Line: p.line, Column: p.col, Offset: int64(p.pos)}
}

func (p *Parser) errf(kind doctree.ErrorKind) error {
	return doctree.NewError(kind, p.posNow(), nil)
}

func (p *Parser) pushMode(m mode) error {
	p.modes = append(p.modes, m)
	if p.opts.maxDepth() > 0 && len(p.modes) > p.opts.maxDepth() {
		return p.errf(doctree.KindMaxDepthExceeded)
	}
	return nil
}

func (p *Parser) popMode() mode {
	m := p.modes[len(p.modes)-1]
	p.modes = p.modes[:len(p.modes)-1]
	return m
}

func (p *Parser) peekMode() mode { return p.modes[len(p.modes)-1] }

// ParseSome feeds additional input bytes and advances the state machine as
// far as it can go without more input.
func (p *Parser) ParseSome(data []byte) error {
	p.buf = append(p.buf, data...)
	return p.run(false)
}

// Finalize signals end of input and drives the parser to completion,
// raising unexpected_eof if the document was left incomplete, and flushes
// the visitor.
func (p *Parser) Finalize() error {
	p.finalized = true
	if err := p.run(true); err != nil {
		return err
	}
	if !p.done && !p.stopped {
		return p.errf(doctree.KindUnexpectedEOF)
	}
	return p.v.Flush()
}

// ParseReader reads r to completion and parses it in one call.
func ParseReader(r io.Reader, v visitor.Visitor, opts Options) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return doctree.NewError(doctree.KindSourceError, doctree.Position{}, err)
	}
	return ParseBytes(b, v, opts)
}

// ParseBytes parses a complete buffer in one call.
func ParseBytes(b []byte, v visitor.Visitor, opts Options) error {
	p := NewParser(v, opts)
	if err := p.ParseSome(b); err != nil {
		return err
	}
	return p.Finalize()
}

// ParseString is the string counterpart of ParseBytes.
func ParseString(s string, v visitor.Visitor, opts Options) error {
	return ParseBytes([]byte(s), v, opts)
}

func (p *Parser) run(atEOF bool) error {
	for !p.done && !p.stopped {
		if p.pos >= len(p.buf) {
			if !atEOF {
				return nil
			}
			if err := p.step(0, true); err != nil {
				return err
			}
			continue
		}
		r, n := utf8.DecodeRune(p.buf[p.pos:])
		if r == utf8.RuneError && n <= 1 {
			if !atEOF && p.pos+utf8.UTFMax > len(p.buf) {
				return nil // maybe a truncated multi-byte sequence; wait for more
			}
			return p.errf(doctree.KindInvalidUTF8)
		}
		if !p.started {
			p.started = true
			if r == '﻿' {
				p.advance(n, r)
				continue
			}
		}
		if err := p.step(r, false); err != nil {
			return err
		}
		p.advance(n, r)
	}
	return nil
}

func (p *Parser) advance(n int, r rune) {
	p.pos += n
	if r == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
}

func isWS(r rune) bool      { return r == ' ' || r == '\t' || r == '\r' || r == '\n' }
func isDigit(r rune) bool   { return r >= '0' && r <= '9' }
func isHex(r rune) bool     { return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F') }
func isIdentStart(r rune) bool { return unicode.IsLetter(r) || r == '_' || r == '$' }
func isIdentPart(r rune) bool  { return isIdentStart(r) || isDigit(r) }

// step processes one input rune against the current state. When atEOF is
// true, r is meaningless and only end-of-input handling applies.
func (p *Parser) step(r rune, atEOF bool) error {
	switch {
	case p.state == c1 || p.state == c2 || p.state == c3 || p.state == c4:
		return p.stepComment(r, atEOF)
	case p.state == st:
		return p.stepString(r, atEOF)
	case p.state == ec:
		return p.stepEscape(r, atEOF)
	case p.state >= u1 && p.state <= u4:
		return p.stepUnicodeEscape(r, atEOF)
	}

	if p.opts.AllowComments && !atEOF && r == '/' && p.isCommentEligible() {
		p.commentReturn = p.state
		p.state = c1
		return nil
	}

	switch p.state {
	case sr, va:
		return p.stepStartValueCtx(r, atEOF)
	case ob, ke:
		return p.stepKeyCtx(r, atEOF)
	case ar, tc:
		return p.stepArrayElemCtx(r, atEOF)
	case ok:
		return p.stepAfterValue(r, atEOF)
	case co:
		return p.stepColon(r, atEOF)
	case mi, ze, in, fr, fs, e1, e2, e3:
		return p.stepNumber(r, atEOF)
	case t1, t2, t3:
		return p.stepTrue(r, atEOF)
	case f1, f2, f3, f4:
		return p.stepFalse(r, atEOF)
	case n1, n2, n3:
		return p.stepNull(r, atEOF)
	case uk:
		return p.stepUnquotedKey(r, atEOF)
	}
	return p.errf(doctree.KindUnexpectedCharacter)
}

// isCommentEligible reports whether a '/' at this point could only be a
// comment opener, i.e. we are in a context expecting either whitespace or
// the start of a value/key (comments are never valid inside an in-progress
// token, which is excluded by the caller already routing st/ec/u1-4/number/
// literal states elsewhere).
func (p *Parser) isCommentEligible() bool {
	switch p.state {
	case sr, va, ob, ke, ar, tc, ok, co:
		return true
	}
	return false
}

func (p *Parser) emit2(cont bool, err error) error {
	if err != nil {
		return err
	}
	if !cont {
		p.stopped = true
	}
	return nil
}

// --- container open/close -------------------------------------------------

func (p *Parser) openObject() error {
	ctx := visitor.Context{Pos: p.posNow()}
	if err := p.pushMode(modeObject); err != nil {
		return err
	}
	cont, err := p.v.BeginObject(-1, doctree.TagNone, ctx)
	p.state = ob
	return p.emit2(cont, err)
}

func (p *Parser) closeObject() error {
	ctx := visitor.Context{Pos: p.posNow()}
	p.popMode()
	cont, err := p.v.EndObject(ctx)
	if err := p.emit2(cont, err); err != nil {
		return err
	}
	p.state = ok
	return nil
}

func (p *Parser) openArray() error {
	ctx := visitor.Context{Pos: p.posNow()}
	if err := p.pushMode(modeArray); err != nil {
		return err
	}
	cont, err := p.v.BeginArray(-1, doctree.TagNone, ctx)
	p.state = ar
	return p.emit2(cont, err)
}

func (p *Parser) closeArray() error {
	ctx := visitor.Context{Pos: p.posNow()}
	p.popMode()
	cont, err := p.v.EndArray(ctx)
	if err := p.emit2(cont, err); err != nil {
		return err
	}
	p.state = ok
	return nil
}

// --- value-expected contexts ----------------------------------------------

func (p *Parser) stepStartValueCtx(r rune, atEOF bool) error {
	if atEOF {
		return p.errf(doctree.KindUnexpectedEOF)
	}
	if isWS(r) {
		return nil
	}
	return p.startValue(r)
}

func (p *Parser) stepKeyCtx(r rune, atEOF bool) error {
	if atEOF {
		return p.errf(doctree.KindUnexpectedEOF)
	}
	if isWS(r) {
		return nil
	}
	if r == '}' {
		if p.state == ke && !p.opts.AllowTrailingCommas {
			return p.errf(doctree.KindExpectedKey)
		}
		return p.closeObject()
	}
	if r == '"' {
		p.strBuf.Reset()
		p.stringIsKey = true
		p.state = st
		return nil
	}
	if r == '\'' {
		return p.errf(doctree.KindSingleQuote)
	}
	if p.opts.AllowUnquotedKeys && isIdentStart(r) {
		p.strBuf.Reset()
		p.strBuf.WriteRune(r)
		p.stringIsKey = true
		p.state = uk
		return nil
	}
	return p.errf(doctree.KindExpectedKey)
}

func (p *Parser) stepUnquotedKey(r rune, atEOF bool) error {
	if !atEOF && isIdentPart(r) {
		p.strBuf.WriteRune(r)
		return nil
	}
	// Any other character (or EOF) terminates the bareword key; finish it
	// and reprocess r, mirroring the number-termination trick below.
	ctx := visitor.Context{Pos: p.posNow()}
	key := p.strBuf.String()
	p.strBuf.Reset()
	p.state = co
	cont, err := p.v.Key(key, ctx)
	if err := p.emit2(cont, err); err != nil {
		return err
	}
	return p.step(r, atEOF)
}

func (p *Parser) stepArrayElemCtx(r rune, atEOF bool) error {
	if atEOF {
		return p.errf(doctree.KindUnexpectedEOF)
	}
	if isWS(r) {
		return nil
	}
	if r == ']' {
		if p.state == tc && !p.opts.AllowTrailingCommas {
			return p.errf(doctree.KindUnexpectedCharacter)
		}
		return p.closeArray()
	}
	return p.startValue(r)
}

func (p *Parser) startValue(r rune) error {
	switch {
	case r == '{':
		return p.openObject()
	case r == '[':
		return p.openArray()
	case r == '"':
		p.strBuf.Reset()
		p.stringIsKey = false
		p.state = st
		return nil
	case r == '\'':
		return p.errf(doctree.KindSingleQuote)
	case r == '-':
		p.numBuf.Reset()
		p.numBuf.WriteRune(r)
		p.state = mi
		return nil
	case r == '0':
		p.numBuf.Reset()
		p.numBuf.WriteRune(r)
		p.state = ze
		return nil
	case isDigit(r):
		p.numBuf.Reset()
		p.numBuf.WriteRune(r)
		p.state = in
		return nil
	case r == 't':
		p.state = t1
		return nil
	case r == 'f':
		p.state = f1
		return nil
	case r == 'n':
		p.state = n1
		return nil
	}
	return p.errf(doctree.KindUnexpectedCharacter)
}

func (p *Parser) stepAfterValue(r rune, atEOF bool) error {
	mode := p.peekMode()
	if atEOF {
		if mode == modeDone {
			p.done = true
			return nil
		}
		return p.errf(doctree.KindUnexpectedEOF)
	}
	if isWS(r) {
		return nil
	}
	switch mode {
	case modeDone:
		return p.errf(doctree.KindUnexpectedCharacter)
	case modeArray:
		switch r {
		case ',':
			p.state = tc
			return nil
		case ']':
			return p.closeArray()
		}
		return p.errf(doctree.KindExpectedCommaOrEnd)
	case modeObject:
		switch r {
		case ',':
			p.state = ke
			return nil
		case '}':
			return p.closeObject()
		}
		return p.errf(doctree.KindExpectedCommaOrEnd)
	}
	return p.errf(doctree.KindUnexpectedCharacter)
}

func (p *Parser) stepColon(r rune, atEOF bool) error {
	if atEOF {
		return p.errf(doctree.KindUnexpectedEOF)
	}
	if isWS(r) {
		return nil
	}
	if r != ':' {
		return p.errf(doctree.KindExpectedColon)
	}
	p.state = va
	return nil
}

// --- strings ---------------------------------------------------------------

func (p *Parser) stepString(r rune, atEOF bool) error {
	if atEOF {
		return p.errf(doctree.KindUnexpectedEOF)
	}
	switch {
	case r == '"':
		return p.finishString()
	case r == '\\':
		p.state = ec
		return nil
	case r < 0x20:
		return p.errf(doctree.KindIllegalControlCharacter)
	default:
		if p.pendingHigh != 0 {
			if err := p.resolvePendingHighSurrogate(0); err != nil {
				return err
			}
		}
		p.strBuf.WriteRune(r)
		return nil
	}
}

func (p *Parser) finishString() error {
	if p.pendingHigh != 0 {
		if err := p.resolvePendingHighSurrogate(0); err != nil {
			return err
		}
	}
	ctx := visitor.Context{Pos: p.posNow()}
	s := p.strBuf.String()
	p.strBuf.Reset()
	if p.stringIsKey {
		cont, err := p.v.Key(s, ctx)
		if err := p.emit2(cont, err); err != nil {
			return err
		}
		p.state = co
		return nil
	}
	cont, err := p.v.String(s, doctree.TagNone, ctx)
	if err := p.emit2(cont, err); err != nil {
		return err
	}
	p.state = ok
	return nil
}

func (p *Parser) stepEscape(r rune, atEOF bool) error {
	if atEOF {
		return p.errf(doctree.KindUnexpectedEOF)
	}
	switch r {
	case '"', '\\', '/':
		p.appendEscaped(r)
	case 'b':
		p.appendEscaped('\b')
	case 'f':
		p.appendEscaped('\f')
	case 'n':
		p.appendEscaped('\n')
	case 'r':
		p.appendEscaped('\r')
	case 't':
		p.appendEscaped('\t')
	case 'u':
		p.unicodeAcc = 0
		p.state = u1
		return nil
	default:
		return p.errf(doctree.KindIllegalEscape)
	}
	p.state = st
	return nil
}

func (p *Parser) appendEscaped(r rune) {
	if p.pendingHigh != 0 {
		// a non-surrogate-pair escape interrupts a pending high surrogate
		p.resolvePendingHighSurrogate(0)
	}
	p.strBuf.WriteRune(r)
}

func (p *Parser) stepUnicodeEscape(r rune, atEOF bool) error {
	if atEOF {
		return p.errf(doctree.KindUnexpectedEOF)
	}
	if !isHex(r) {
		return p.errf(doctree.KindIllegalEscape)
	}
	p.unicodeAcc = p.unicodeAcc<<4 | hexVal(r)
	switch p.state {
	case u1:
		p.state = u2
	case u2:
		p.state = u3
	case u3:
		p.state = u4
	case u4:
		cp := rune(p.unicodeAcc)
		p.state = st
		return p.acceptUnicodeCodeUnit(cp)
	}
	return nil
}

func hexVal(r rune) uint16 {
	switch {
	case r >= '0' && r <= '9':
		return uint16(r - '0')
	case r >= 'a' && r <= 'f':
		return uint16(r-'a') + 10
	default:
		return uint16(r-'A') + 10
	}
}

const (
	surrHighLo = 0xD800
	surrHighHi = 0xDBFF
	surrLowLo  = 0xDC00
	surrLowHi  = 0xDFFF
)

func (p *Parser) acceptUnicodeCodeUnit(cp rune) error {
	isHighSurr := cp >= surrHighLo && cp <= surrHighHi
	isLowSurr := cp >= surrLowLo && cp <= surrLowHi

	if p.pendingHigh != 0 {
		if isLowSurr {
			combined := 0x10000 + (p.pendingHigh-surrHighLo)<<10 + (cp - surrLowLo)
			p.strBuf.WriteRune(combined)
			p.pendingHigh = 0
			return nil
		}
		if err := p.resolvePendingHighSurrogate(0); err != nil {
			return err
		}
		// fall through: reprocess cp as a fresh code unit
	}
	switch {
	case isHighSurr:
		p.pendingHigh = cp
		return nil
	case isLowSurr:
		if !p.opts.AllowLoneSurrogates {
			return p.errf(doctree.KindInvalidUTF8)
		}
		p.strBuf.WriteRune(unicode.ReplacementChar)
		return nil
	default:
		p.strBuf.WriteRune(cp)
		return nil
	}
}

// resolvePendingHighSurrogate is called when a pending high surrogate was
// not completed by a matching low surrogate.
func (p *Parser) resolvePendingHighSurrogate(_ rune) error {
	if !p.opts.AllowLoneSurrogates {
		return p.errf(doctree.KindInvalidUTF8)
	}
	p.strBuf.WriteRune(unicode.ReplacementChar)
	p.pendingHigh = 0
	return nil
}

// --- numbers -----------------------------------------------------------

func (p *Parser) stepNumber(r rune, atEOF bool) error {
	if !atEOF {
		switch p.state {
		case mi:
			if r == '0' {
				p.numBuf.WriteRune(r)
				p.state = ze
				return nil
			}
			if isDigit(r) {
				p.numBuf.WriteRune(r)
				p.state = in
				return nil
			}
			return p.errf(doctree.KindInvalidNumber)
		case ze:
			if isDigit(r) {
				return p.errf(doctree.KindLeadingZero)
			}
			if r == '.' {
				p.numBuf.WriteRune(r)
				p.state = fr
				return nil
			}
			if r == 'e' || r == 'E' {
				p.numBuf.WriteRune(r)
				p.state = e1
				return nil
			}
		case in:
			if isDigit(r) {
				p.numBuf.WriteRune(r)
				return nil
			}
			if r == '.' {
				p.numBuf.WriteRune(r)
				p.state = fr
				return nil
			}
			if r == 'e' || r == 'E' {
				p.numBuf.WriteRune(r)
				p.state = e1
				return nil
			}
		case fr:
			if isDigit(r) {
				p.numBuf.WriteRune(r)
				p.state = fs
				return nil
			}
			return p.errf(doctree.KindInvalidNumber)
		case fs:
			if isDigit(r) {
				p.numBuf.WriteRune(r)
				return nil
			}
			if r == 'e' || r == 'E' {
				p.numBuf.WriteRune(r)
				p.state = e1
				return nil
			}
		case e1:
			if r == '+' || r == '-' {
				p.numBuf.WriteRune(r)
				p.state = e2
				return nil
			}
			if isDigit(r) {
				p.numBuf.WriteRune(r)
				p.state = e3
				return nil
			}
			return p.errf(doctree.KindInvalidNumber)
		case e2:
			if isDigit(r) {
				p.numBuf.WriteRune(r)
				p.state = e3
				return nil
			}
			return p.errf(doctree.KindInvalidNumber)
		case e3:
			if isDigit(r) {
				p.numBuf.WriteRune(r)
				return nil
			}
		}
	}
	// Any other character (or EOF) terminates the number; finalize then
	// reprocess r in the resulting state, mirroring the teacher's
	// terminateLiterals-on-terminator pattern generalized to any
	// terminator rather than only closing brackets.
	if p.state == mi || p.state == fr || p.state == e1 || p.state == e2 {
		return p.errf(doctree.KindInvalidNumber)
	}
	if err := p.finishNumber(); err != nil {
		return err
	}
	return p.step(r, atEOF)
}

func (p *Parser) finishNumber() error {
	s := p.numBuf.String()
	p.numBuf.Reset()
	ctx := visitor.Context{Pos: p.posNow()}

	isFloatLike := p.state == fs || p.state == e3
	p.state = ok

	if !isFloatLike {
		if strings.HasPrefix(s, "-") {
			if n, ok := doctree.ParseInt64Overflow(s); ok {
				cont, err := p.v.Int64(n, doctree.TagNone, ctx)
				return p.emit2(cont, err)
			}
		} else if n, ok := doctree.ParseUint64Overflow(s); ok {
			cont, err := p.v.UInt64(n, doctree.TagNone, ctx)
			return p.emit2(cont, err)
		}
		canon, err := doctree.CanonicalBigIntString(s)
		if err != nil {
			return err
		}
		cont, err := p.v.String(canon, doctree.TagBigInt, ctx)
		return p.emit2(cont, err)
	}

	if p.opts.StrictDecimals {
		canon, err := doctree.CanonicalBigDecString(s)
		if err != nil {
			return err
		}
		cont, err := p.v.String(canon, doctree.TagBigDec, ctx)
		return p.emit2(cont, err)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		canon, cerr := doctree.CanonicalBigDecString(s)
		if cerr != nil {
			return cerr
		}
		cont, verr := p.v.String(canon, doctree.TagBigDec, ctx)
		return p.emit2(cont, verr)
	}
	cont, verr := p.v.Double(f, doctree.TagNone, ctx)
	return p.emit2(cont, verr)
}

// --- literals ------------------------------------------------------------

func (p *Parser) stepTrue(r rune, atEOF bool) error {
	if atEOF {
		return p.errf(doctree.KindUnexpectedEOF)
	}
	switch p.state {
	case t1:
		if r != 'r' {
			return p.errf(doctree.KindUnexpectedCharacter)
		}
		p.state = t2
	case t2:
		if r != 'u' {
			return p.errf(doctree.KindUnexpectedCharacter)
		}
		p.state = t3
	case t3:
		if r != 'e' {
			return p.errf(doctree.KindUnexpectedCharacter)
		}
		ctx := visitor.Context{Pos: p.posNow()}
		p.state = ok
		cont, err := p.v.Bool(true, doctree.TagNone, ctx)
		return p.emit2(cont, err)
	}
	return nil
}

func (p *Parser) stepFalse(r rune, atEOF bool) error {
	if atEOF {
		return p.errf(doctree.KindUnexpectedEOF)
	}
	switch p.state {
	case f1:
		if r != 'a' {
			return p.errf(doctree.KindUnexpectedCharacter)
		}
		p.state = f2
	case f2:
		if r != 'l' {
			return p.errf(doctree.KindUnexpectedCharacter)
		}
		p.state = f3
	case f3:
		if r != 's' {
			return p.errf(doctree.KindUnexpectedCharacter)
		}
		p.state = f4
	case f4:
		if r != 'e' {
			return p.errf(doctree.KindUnexpectedCharacter)
		}
		ctx := visitor.Context{Pos: p.posNow()}
		p.state = ok
		cont, err := p.v.Bool(false, doctree.TagNone, ctx)
		return p.emit2(cont, err)
	}
	return nil
}

func (p *Parser) stepNull(r rune, atEOF bool) error {
	if atEOF {
		return p.errf(doctree.KindUnexpectedEOF)
	}
	switch p.state {
	case n1:
		if r != 'u' {
			return p.errf(doctree.KindUnexpectedCharacter)
		}
		p.state = n2
	case n2:
		if r != 'l' {
			return p.errf(doctree.KindUnexpectedCharacter)
		}
		p.state = n3
	case n3:
		if r != 'l' {
			return p.errf(doctree.KindUnexpectedCharacter)
		}
		ctx := visitor.Context{Pos: p.posNow()}
		p.state = ok
		cont, err := p.v.Null(doctree.TagNone, ctx)
		return p.emit2(cont, err)
	}
	return nil
}

// --- comments --------------------------------------------------------------

func (p *Parser) stepComment(r rune, atEOF bool) error {
	switch p.state {
	case c1:
		if atEOF {
			return p.errf(doctree.KindUnexpectedEOF)
		}
		switch r {
		case '/':
			p.state = c2
		case '*':
			p.state = c3
		default:
			return p.errf(doctree.KindUnexpectedCharacter)
		}
	case c2:
		if atEOF {
			p.state = p.commentReturn
			return p.step(r, atEOF)
		}
		if r == '\n' {
			p.state = p.commentReturn
			return p.stepAfterComment('\n')
		}
	case c3:
		if atEOF {
			return p.errf(doctree.KindUnexpectedEOF)
		}
		if r == '*' {
			p.state = c4
		}
	case c4:
		if atEOF {
			return p.errf(doctree.KindUnexpectedEOF)
		}
		switch r {
		case '/':
			p.state = p.commentReturn
		case '*':
			// stay in c4
		default:
			p.state = c3
		}
	}
	return nil
}

func (p *Parser) stepAfterComment(r rune) error {
	if isWS(r) {
		return nil
	}
	return p.step(r, false)
}
