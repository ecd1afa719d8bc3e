// Package cursor implements the pull-based adapter (C8) that converts any
// push-based parser into an iterator of Visitor events, supporting
// filtering, transcoding, and controlled read-into-decoder splicing.
//
// The concurrency model this module follows (SPEC_FULL.md section 5) is
// single-threaded cooperative with no internal goroutines, so a Cursor
// cannot suspend a parser mid-callback the way a generator/coroutine
// would. Instead a Cursor drives its Source to completion once, up front,
// materializing the full event sequence into a slice, then exposes a
// pull API over that slice -- the same "parse fully, then iterate"
// tradeoff doctree/visitor.Decoder already makes for building a Document,
// generalized here to an arbitrary event sequence instead of a tree.
package cursor

import (
	"github.com/quillbyte/doctree"
	"github.com/quillbyte/doctree/visitor"
)

// EventKind identifies which Visitor method produced an Event.
type EventKind int8

const (
	EventBeginObject EventKind = iota
	EventEndObject
	EventBeginArray
	EventEndArray
	EventKey
	EventNull
	EventBool
	EventInt64
	EventUInt64
	EventHalf
	EventDouble
	EventString
	EventByteString
	EventTypedArray
)

// Event is a materialized Visitor call: exactly one of the payload fields
// is meaningful, selected by Kind.
type Event struct {
	Kind   EventKind
	Tag    doctree.Tag
	Ctx    visitor.Context
	Length int // BeginObject/BeginArray only

	Key        string
	BoolVal    bool
	Int64Val   int64
	UInt64Val  uint64
	HalfVal    uint16
	DoubleVal  float64
	StringVal  string
	BytesVal   []byte
	TypedArray visitor.TypedArrayData
}

// Filter decides whether an event (and, for Key/Begin* events, everything
// it introduces) survives. Returning false for a Key drops the key and
// its value; returning false for a Begin* drops the whole subtree
// including the matching End*. A rejected value inside an object also
// drops the Key it belongs to.
type Filter func(ev Event, ctx visitor.Context) bool

// Source is anything that can drive a Visitor to completion -- the
// format-agnostic shape every parser package in this module already
// exposes via its ParseBytes/DecodeBytes top-level functions, wrapped in
// a single-method adapter so Cursor does not need to know which format
// produced the events.
type Source interface {
	Drive(v visitor.Visitor) error
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(v visitor.Visitor) error

func (f SourceFunc) Drive(v visitor.Visitor) error { return f(v) }

// collector is the Visitor that materializes a Source's event stream.
type collector struct {
	visitor.BaseVisitor
	events []Event
}

func (c *collector) BeginObject(length int, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	c.events = append(c.events, Event{Kind: EventBeginObject, Tag: tag, Ctx: ctx, Length: length})
	return true, nil
}
func (c *collector) EndObject(ctx visitor.Context) (bool, error) {
	c.events = append(c.events, Event{Kind: EventEndObject, Ctx: ctx})
	return true, nil
}
func (c *collector) BeginArray(length int, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	c.events = append(c.events, Event{Kind: EventBeginArray, Tag: tag, Ctx: ctx, Length: length})
	return true, nil
}
func (c *collector) EndArray(ctx visitor.Context) (bool, error) {
	c.events = append(c.events, Event{Kind: EventEndArray, Ctx: ctx})
	return true, nil
}
func (c *collector) Key(key string, ctx visitor.Context) (bool, error) {
	c.events = append(c.events, Event{Kind: EventKey, Key: key, Ctx: ctx})
	return true, nil
}
func (c *collector) Null(tag doctree.Tag, ctx visitor.Context) (bool, error) {
	c.events = append(c.events, Event{Kind: EventNull, Tag: tag, Ctx: ctx})
	return true, nil
}
func (c *collector) Bool(v bool, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	c.events = append(c.events, Event{Kind: EventBool, BoolVal: v, Tag: tag, Ctx: ctx})
	return true, nil
}
func (c *collector) Int64(v int64, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	c.events = append(c.events, Event{Kind: EventInt64, Int64Val: v, Tag: tag, Ctx: ctx})
	return true, nil
}
func (c *collector) UInt64(v uint64, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	c.events = append(c.events, Event{Kind: EventUInt64, UInt64Val: v, Tag: tag, Ctx: ctx})
	return true, nil
}
func (c *collector) Half(v uint16, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	c.events = append(c.events, Event{Kind: EventHalf, HalfVal: v, Tag: tag, Ctx: ctx})
	return true, nil
}
func (c *collector) Double(v float64, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	c.events = append(c.events, Event{Kind: EventDouble, DoubleVal: v, Tag: tag, Ctx: ctx})
	return true, nil
}
func (c *collector) String(v string, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	c.events = append(c.events, Event{Kind: EventString, StringVal: v, Tag: tag, Ctx: ctx})
	return true, nil
}
func (c *collector) ByteString(v []byte, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	c.events = append(c.events, Event{Kind: EventByteString, BytesVal: v, Tag: tag, Ctx: ctx})
	return true, nil
}
func (c *collector) TypedArray(data visitor.TypedArrayData, tag doctree.Tag, ctx visitor.Context) (bool, error) {
	c.events = append(c.events, Event{Kind: EventTypedArray, TypedArray: data, Tag: tag, Ctx: ctx})
	return true, nil
}

func isBegin(k EventKind) bool { return k == EventBeginObject || k == EventBeginArray }
func isEnd(k EventKind) bool   { return k == EventEndObject || k == EventEndArray }

// skipSubtree returns the index just past the End* matching the Begin* at
// raw[i].
func skipSubtree(raw []Event, i int) int {
	depth := 0
	for j := i; j < len(raw); j++ {
		switch {
		case isBegin(raw[j].Kind):
			depth++
		case isEnd(raw[j].Kind):
			depth--
			if depth == 0 {
				return j + 1
			}
		}
	}
	return len(raw)
}

// skipValue returns the index just past the value starting at raw[i]
// (a single scalar, or a whole Begin*/End* subtree).
func skipValue(raw []Event, i int) int {
	if i >= len(raw) {
		return i
	}
	if isBegin(raw[i].Kind) {
		return skipSubtree(raw, i)
	}
	return i + 1
}

// applyFilter drops Key events (and their value) and Begin* events (and
// their whole subtree) that the filter rejects; a Key whose value is
// rejected is dropped together with that value. End* events are never
// independently evaluated: their fate is decided by the matching Begin*.
func applyFilter(raw []Event, filter Filter) []Event {
	if filter == nil {
		return raw
	}
	var out []Event
	i := 0
	for i < len(raw) {
		ev := raw[i]
		switch {
		case ev.Kind == EventKey:
			if !filter(ev, ev.Ctx) {
				i = skipValue(raw, i+1)
				continue
			}
			// A rejected value takes the Key it belongs to with it.
			if next := i + 1; next < len(raw) && !isEnd(raw[next].Kind) && !filter(raw[next], raw[next].Ctx) {
				i = skipValue(raw, next)
				continue
			}
			out = append(out, ev)
			i++
		case isBegin(ev.Kind):
			if !filter(ev, ev.Ctx) {
				i = skipSubtree(raw, i)
				continue
			}
			out = append(out, ev)
			i++
		case isEnd(ev.Kind):
			out = append(out, ev)
			i++
		default:
			if filter(ev, ev.Ctx) {
				out = append(out, ev)
			}
			i++
		}
	}
	return out
}

// Cursor is a pull-based, single-consumer iterator over a materialized
// event sequence. Not safe for concurrent use.
type Cursor struct {
	src    Source
	filter Filter
	events []Event
	pos    int
}

// New drives src to completion, applies filter (nil keeps every event),
// and returns a Cursor positioned at the first surviving event.
func New(src Source, filter Filter) (*Cursor, error) {
	c := &collector{}
	if err := src.Drive(c); err != nil {
		return nil, err
	}
	return &Cursor{src: src, filter: filter, events: applyFilter(c.events, filter)}, nil
}

// Done reports whether the cursor has no current event left.
func (cu *Cursor) Done() bool { return cu.pos >= len(cu.events) }

// Current returns the event at the cursor's position. Calling it when
// Done is true returns the zero Event.
func (cu *Cursor) Current() Event {
	if cu.Done() {
		return Event{}
	}
	return cu.events[cu.pos]
}

// Advance moves to the next event and reports whether one remains.
func (cu *Cursor) Advance() bool {
	if cu.Done() {
		return false
	}
	cu.pos++
	return !cu.Done()
}

// Skip advances past the current event and, if it opens a container,
// past its entire subtree, without replaying anything.
func (cu *Cursor) Skip() {
	if cu.Done() {
		return
	}
	if isBegin(cu.events[cu.pos].Kind) {
		cu.pos = skipSubtree(cu.events, cu.pos)
		return
	}
	cu.pos++
}

// ReadInto splices the value starting at the cursor's current position
// (a scalar, or a container and its full matching subtree) into v,
// advancing the cursor past whatever was read.
func (cu *Cursor) ReadInto(v visitor.Visitor) error {
	if cu.Done() {
		return nil
	}
	end := skipValue(cu.events, cu.pos)
	for i := cu.pos; i < end; i++ {
		cont, err := replay(cu.events[i], v)
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	cu.pos = end
	return nil
}

func replay(ev Event, v visitor.Visitor) (bool, error) {
	switch ev.Kind {
	case EventBeginObject:
		return v.BeginObject(ev.Length, ev.Tag, ev.Ctx)
	case EventEndObject:
		return v.EndObject(ev.Ctx)
	case EventBeginArray:
		return v.BeginArray(ev.Length, ev.Tag, ev.Ctx)
	case EventEndArray:
		return v.EndArray(ev.Ctx)
	case EventKey:
		return v.Key(ev.Key, ev.Ctx)
	case EventNull:
		return v.Null(ev.Tag, ev.Ctx)
	case EventBool:
		return v.Bool(ev.BoolVal, ev.Tag, ev.Ctx)
	case EventInt64:
		return v.Int64(ev.Int64Val, ev.Tag, ev.Ctx)
	case EventUInt64:
		return v.UInt64(ev.UInt64Val, ev.Tag, ev.Ctx)
	case EventHalf:
		return v.Half(ev.HalfVal, ev.Tag, ev.Ctx)
	case EventDouble:
		return v.Double(ev.DoubleVal, ev.Tag, ev.Ctx)
	case EventString:
		return v.String(ev.StringVal, ev.Tag, ev.Ctx)
	case EventByteString:
		return v.ByteString(ev.BytesVal, ev.Tag, ev.Ctx)
	case EventTypedArray:
		return v.TypedArray(ev.TypedArray, ev.Tag, ev.Ctx)
	}
	return true, nil
}

// Reset rewinds the cursor to the first surviving event of the same
// materialized sequence, without re-driving the Source.
func (cu *Cursor) Reset() {
	cu.pos = 0
}

// ResetSource re-drives a new Source from the start and repositions the
// cursor at its first surviving event, reusing the existing filter. This
// is the Go rendering of "reset(new_input)": Source, not raw bytes, is
// the format-agnostic unit a Cursor can redirect at.
func (cu *Cursor) ResetSource(src Source) error {
	c := &collector{}
	if err := src.Drive(c); err != nil {
		return err
	}
	cu.src = src
	cu.events = applyFilter(c.events, cu.filter)
	cu.pos = 0
	return nil
}
