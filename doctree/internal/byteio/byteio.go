// Package byteio is the shared byte-level scaffolding used by every binary
// format parser/encoder (spec.md section 4.6): an input abstraction that
// yields bytes or runs of bytes and reports EOF vs I/O error, a depth
// counter, and big/little-endian primitive readers/writers. It is the Go
// equivalent of jsoncons' jsoncons_io.hpp source abstraction generalized
// across formats (SPEC_FULL.md section 2.2).
package byteio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrNeedMoreBytes signals that the buffered input is exhausted but the
// Reader is not yet finalized (Fill has not been called) -- "need more bytes" distinct from
// "end of document" per spec.md section 4.4.
var ErrNeedMoreBytes = errors.New("byteio: need more bytes")

// Reader is an incremental byte-run source. It can be fed from a pre-
// buffered []byte (the common case for binary formats, which are rarely
// streamed incrementally in practice) or from an io.Reader drained
// eagerly via Fill.
type Reader struct {
	buf       []byte
	pos       int
	finalized bool
	src       io.Reader
}

// NewReader wraps a complete, already-available byte slice. The Reader
// starts finalized: reading past the end reports EOF, not ErrNeedMoreBytes.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b, finalized: true}
}

// NewStreamingReader wraps an io.Reader that is read only when Fill is
// called; until then reads report ErrNeedMoreBytes, so callers can
// distinguish a truncated-so-far buffer from a genuinely
// finished input, exactly as spec.md section 4.4 requires for the text
// parser, generalized here to the binary formats (SPEC_FULL.md section
// 2.2).
func NewStreamingReader(src io.Reader) *Reader {
	return &Reader{src: src}
}

// Fill reads all remaining bytes from the wrapped io.Reader into the
// buffer and marks the Reader finalized. Binary formats are framed by
// length prefixes or explicit terminators, so unlike the text parser this
// module does not attempt partial incremental binary parsing across Fill
// calls; callers that need suspend/resume semantics should buffer
// themselves and use NewReader per chunk.
func (r *Reader) Fill() error {
	if r.src == nil {
		r.finalized = true
		return nil
	}
	rest, err := io.ReadAll(r.src)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("byteio: %w", err)
	}
	r.buf = append(r.buf, rest...)
	r.finalized = true
	return nil
}

// Pos reports the current byte offset.
func (r *Reader) Pos() int64 { return int64(r.pos) }

// Remaining reports how many buffered bytes are left unread.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Byte reads a single byte.
func (r *Reader) Byte() (byte, error) {
	if r.pos >= len(r.buf) {
		if !r.finalized {
			return 0, ErrNeedMoreBytes
		}
		return 0, io.EOF
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// Peek returns the next byte without consuming it.
func (r *Reader) Peek() (byte, error) {
	if r.pos >= len(r.buf) {
		if !r.finalized {
			return 0, ErrNeedMoreBytes
		}
		return 0, io.EOF
	}
	return r.buf[r.pos], nil
}

// Bytes reads exactly n bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("byteio: negative length %d", n)
	}
	if r.pos+n > len(r.buf) {
		if !r.finalized {
			return nil, ErrNeedMoreBytes
		}
		return nil, io.ErrUnexpectedEOF
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) Uint8() (uint8, error) { return r.Byte() }

func (r *Reader) Uint16BE() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *Reader) Uint32BE() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *Reader) Uint64BE() (uint64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *Reader) Uint16LE() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) Uint32LE() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) Uint64LE() (uint64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Writer is a small buffered output sink shared by the binary encoders.
// Scoped resources (per spec.md section 9) are released deterministically:
// Bytes() reads out whatever has been written so far without requiring an
// explicit close.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Byte(b byte) { w.buf = append(w.buf, b) }

func (w *Writer) Write(b []byte) { w.buf = append(w.buf, b...) }

func (w *Writer) Uint16BE(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.Write(b[:])
}

func (w *Writer) Uint32BE(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func (w *Writer) Uint64BE(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.Write(b[:])
}

func (w *Writer) Uint16LE(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.Write(b[:])
}

func (w *Writer) Uint32LE(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func (w *Writer) Uint64LE(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.Write(b[:])
}

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) Len() int { return len(w.buf) }

// DepthGuard bounds container nesting (spec.md section 4.2 rule 5). Enter
// returns an error once max is exceeded; Exit must be called once per
// matching Enter.
type DepthGuard struct {
	depth, max int
}

func NewDepthGuard(max int) *DepthGuard { return &DepthGuard{max: max} }

func (g *DepthGuard) Enter() error {
	g.depth++
	if g.max > 0 && g.depth > g.max {
		return errors.New("byteio: max depth exceeded")
	}
	return nil
}

func (g *DepthGuard) Exit() {
	if g.depth > 0 {
		g.depth--
	}
}
