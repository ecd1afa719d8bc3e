package doctree

import (
	"fmt"
	"strconv"
)

// Kind discriminates the variant a Document currently holds.
type Kind int8

// Document variants, per spec.md section 3.2.
const (
	KindNull Kind = iota
	KindBool
	KindInt64
	KindUInt64
	KindDouble
	KindHalfFloat
	KindString
	KindByteString
	KindArray
	KindObject
	KindBigInt
	KindBigDec
	numKinds
)

var kindNames = [numKinds]string{
	KindNull:       "null",
	KindBool:       "bool",
	KindInt64:      "int64",
	KindUInt64:     "uint64",
	KindDouble:     "double",
	KindHalfFloat:  "half",
	KindString:     "string",
	KindByteString: "byte_string",
	KindArray:      "array",
	KindObject:     "object",
	KindBigInt:     "bigint",
	KindBigDec:     "bigdec",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "<unknown kind>"
	}
	return kindNames[k]
}

// Allocator is the Go expression of spec.md's allocator/ownership concept
// (section 3.4, section 9): every component accepts one at construction.
// The zero value of Document needs none; DefaultAllocator is the only
// concrete implementation this module ships (section 9: "Implementations
// without allocator polymorphism satisfy this trivially with a single
// global allocator").
type Allocator interface {
	New() *Document
}

type defaultAllocator struct{}

func (defaultAllocator) New() *Document { return &Document{alloc: DefaultAllocator} }

// DefaultAllocator is the package-level stateless allocator used when no
// other Allocator is supplied.
var DefaultAllocator Allocator = defaultAllocator{}

// Document is a tagged union capable of representing any value from any of
// the five supported encodings. The zero value is a Null Document with
// TagNone, ready to use.
type Document struct {
	kind Kind
	tag  Tag

	boolVal bool
	i64     int64
	u64     uint64
	f64     float64
	half    uint16

	str   string // String / BigInt / BigDec canonical payload
	bytes []byte // ByteString payload
	extra int64  // side channel: MessagePack ext type code, etc.

	arr []*Document
	obj *object

	alloc Allocator
}

func (d *Document) allocator() Allocator {
	if d == nil || d.alloc == nil {
		return DefaultAllocator
	}
	return d.alloc
}

// New allocates a Null Document bound to alloc (nil means DefaultAllocator).
func New(alloc Allocator) *Document {
	if alloc == nil {
		alloc = DefaultAllocator
	}
	return &Document{alloc: alloc}
}

// --- constructors -----------------------------------------------------

func NewNull() *Document { return &Document{kind: KindNull} }

func NewBool(b bool) *Document { return &Document{kind: KindBool, boolVal: b} }

func NewInt64(v int64) *Document { return &Document{kind: KindInt64, i64: v} }

func NewUInt64(v uint64) *Document { return &Document{kind: KindUInt64, u64: v} }

func NewDouble(v float64) *Document { return &Document{kind: KindDouble, f64: v} }

// NewHalfFloat stores the raw 16-bit half-precision pattern; HalfFloat
// values are decoded to double on access when requested (section 3.2).
func NewHalfFloat(raw uint16) *Document { return &Document{kind: KindHalfFloat, half: raw} }

func NewString(s string) *Document { return &Document{kind: KindString, str: s} }

func NewByteString(b []byte) *Document {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &Document{kind: KindByteString, bytes: cp}
}

// NewBigInt stores a canonical decimal-string arbitrary-precision integer.
// Use CanonicalBigIntString to normalize an arbitrary literal first.
func NewBigInt(canonical string) *Document {
	return &Document{kind: KindBigInt, str: canonical, tag: TagBigInt}
}

// NewBigDec stores a canonical decimal-string arbitrary-precision decimal.
// Use CanonicalBigDecString to normalize an arbitrary literal first.
func NewBigDec(canonical string) *Document {
	return &Document{kind: KindBigDec, str: canonical, tag: TagBigDec}
}

func NewArray() *Document { return &Document{kind: KindArray, arr: []*Document{}} }

func NewObject(policy ObjectPolicy) *Document {
	return &Document{kind: KindObject, obj: newObject(policy)}
}

// --- inspection ---------------------------------------------------------

func (d *Document) Kind() Kind {
	if d == nil {
		return KindNull
	}
	return d.kind
}

func (d *Document) Tag() Tag {
	if d == nil {
		return TagNone
	}
	return d.tag
}

// SetTag mutates the Document's semantic tag in place and returns it, for
// fluent construction.
func (d *Document) SetTag(t Tag) *Document {
	d.tag = t
	return d
}

// ExtCode returns the side-channel type code stored by SetExtCode (0 by
// default). No decoder in this module sets it: the MessagePack decoder
// surfaces an unrecognized ext payload as a plain byte string.
func (d *Document) ExtCode() int64 { return d.extra }

// SetExtCode sets the side-channel ext type code.
func (d *Document) SetExtCode(code int64) *Document {
	d.extra = code
	return d
}

// Len reports the number of elements for Array/Object, or byte length for
// String/ByteString. It returns 0 for scalar kinds.
func (d *Document) Len() int {
	switch d.Kind() {
	case KindArray:
		return len(d.arr)
	case KindObject:
		return d.obj.len()
	case KindString:
		return len(d.str)
	case KindByteString:
		return len(d.bytes)
	default:
		return 0
	}
}

func (d *Document) typeErrorf(want Kind) error {
	return fmt.Errorf("%w: expected %s, got %s", ErrType, want, d.Kind())
}

// --- scalar accessors (fallible) ----------------------------------------

func (d *Document) AsBool() (bool, error) {
	if d.Kind() != KindBool {
		return false, d.typeErrorf(KindBool)
	}
	return d.boolVal, nil
}

func (d *Document) AsInt64() (int64, error) {
	switch d.Kind() {
	case KindInt64:
		return d.i64, nil
	case KindUInt64:
		if d.u64 > 1<<63-1 {
			return 0, fmt.Errorf("%w: uint64 %d does not fit in int64", ErrOverflow, d.u64)
		}
		return int64(d.u64), nil
	}
	return 0, d.typeErrorf(KindInt64)
}

func (d *Document) AsUInt64() (uint64, error) {
	switch d.Kind() {
	case KindUInt64:
		return d.u64, nil
	case KindInt64:
		if d.i64 < 0 {
			return 0, fmt.Errorf("%w: negative int64 %d does not fit in uint64", ErrOverflow, d.i64)
		}
		return uint64(d.i64), nil
	}
	return 0, d.typeErrorf(KindUInt64)
}

// AsDouble widens any numeric kind to float64; this is always a lossy
// conversion for BigInt/BigDec/HalfFloat/Int64/UInt64 magnitudes beyond
// double precision, as permitted by spec.md section 4.3.
func (d *Document) AsDouble() (float64, error) {
	switch d.Kind() {
	case KindDouble:
		return d.f64, nil
	case KindHalfFloat:
		return HalfToFloat64(d.half), nil
	case KindInt64:
		return float64(d.i64), nil
	case KindUInt64:
		return float64(d.u64), nil
	case KindBigInt, KindBigDec:
		f, err := strconv.ParseFloat(d.str, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrType, err)
		}
		return f, nil
	}
	return 0, d.typeErrorf(KindDouble)
}

func (d *Document) AsString() (string, error) {
	if d.Kind() != KindString {
		return "", d.typeErrorf(KindString)
	}
	return d.str, nil
}

func (d *Document) AsByteString() ([]byte, error) {
	if d.Kind() != KindByteString {
		return nil, d.typeErrorf(KindByteString)
	}
	return d.bytes, nil
}

// AsBigIntString returns the canonical decimal string for a BigInt value,
// or for an Int64/UInt64 widened losslessly (the integer->BigInt path of
// spec.md section 4.3's convert contract).
func (d *Document) AsBigIntString() (string, error) {
	switch d.Kind() {
	case KindBigInt:
		return d.str, nil
	case KindInt64:
		return strconv.FormatInt(d.i64, 10), nil
	case KindUInt64:
		return strconv.FormatUint(d.u64, 10), nil
	}
	return "", d.typeErrorf(KindBigInt)
}

// AsBigDecString returns the canonical decimal-fraction string for a BigDec
// value, or the decimal rendering of any other numeric kind.
func (d *Document) AsBigDecString() (string, error) {
	switch d.Kind() {
	case KindBigDec:
		return d.str, nil
	case KindBigInt:
		return d.str, nil
	case KindDouble:
		return strconv.FormatFloat(d.f64, 'g', -1, 64), nil
	case KindInt64:
		return strconv.FormatInt(d.i64, 10), nil
	case KindUInt64:
		return strconv.FormatUint(d.u64, 10), nil
	}
	return "", d.typeErrorf(KindBigDec)
}

func (d *Document) IsNull() bool { return d.Kind() == KindNull }

// --- Must* infallible wrappers (section 7) -------------------------------

func mustVal[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func (d *Document) MustBool() bool          { return mustVal(d.AsBool()) }
func (d *Document) MustInt64() int64        { return mustVal(d.AsInt64()) }
func (d *Document) MustUInt64() uint64      { return mustVal(d.AsUInt64()) }
func (d *Document) MustDouble() float64     { return mustVal(d.AsDouble()) }
func (d *Document) MustString() string      { return mustVal(d.AsString()) }
func (d *Document) MustByteString() []byte  { return mustVal(d.AsByteString()) }

// --- array accessors ------------------------------------------------------

// Array returns the Array's elements, or ErrType if d is not an Array.
func (d *Document) Array() ([]*Document, error) {
	if d.Kind() != KindArray {
		return nil, d.typeErrorf(KindArray)
	}
	return d.arr, nil
}

// Index returns the element at i, or ErrNotFound if out of range.
func (d *Document) Index(i int) (*Document, error) {
	if d.Kind() != KindArray {
		return nil, d.typeErrorf(KindArray)
	}
	if i < 0 || i >= len(d.arr) {
		return nil, fmt.Errorf("%w: index %d out of range [0,%d)", ErrNotFound, i, len(d.arr))
	}
	return d.arr[i], nil
}

// Append adds val to the end of an Array, moving ownership of val into d.
func (d *Document) Append(val *Document) error {
	if d.Kind() != KindArray {
		return d.typeErrorf(KindArray)
	}
	d.arr = append(d.arr, val)
	return nil
}

// InsertAt inserts val at index i, shifting subsequent elements right.
func (d *Document) InsertAt(i int, val *Document) error {
	if d.Kind() != KindArray {
		return d.typeErrorf(KindArray)
	}
	if i < 0 || i > len(d.arr) {
		return fmt.Errorf("%w: index %d out of range [0,%d]", ErrNotFound, i, len(d.arr))
	}
	d.arr = append(d.arr, nil)
	copy(d.arr[i+1:], d.arr[i:])
	d.arr[i] = val
	return nil
}

// EraseAt removes the element at index i, replacing the caller's reference
// semantics described in section 3.4 (the removed subtree is detached, not
// merely nulled).
func (d *Document) EraseAt(i int) (*Document, error) {
	if d.Kind() != KindArray {
		return nil, d.typeErrorf(KindArray)
	}
	if i < 0 || i >= len(d.arr) {
		return nil, fmt.Errorf("%w: index %d out of range [0,%d)", ErrNotFound, i, len(d.arr))
	}
	v := d.arr[i]
	d.arr = append(d.arr[:i], d.arr[i+1:]...)
	return v, nil
}

// --- object accessors -----------------------------------------------------

// Get returns the value bound to key, distinct ErrNotFound from "present
// but null" per spec.md section 4.3.
func (d *Document) Get(key string) (*Document, error) {
	if d.Kind() != KindObject {
		return nil, d.typeErrorf(KindObject)
	}
	v, ok := d.obj.get(key)
	if !ok {
		return nil, fmt.Errorf("%w: key %q", ErrNotFound, key)
	}
	return v, nil
}

// Has reports whether key is present, without distinguishing null values.
func (d *Document) Has(key string) bool {
	if d.Kind() != KindObject {
		return false
	}
	_, ok := d.obj.get(key)
	return ok
}

// Set inserts or overwrites key with val, preserving position for
// InsertionOrdered objects (section 3.3).
func (d *Document) Set(key string, val *Document) error {
	if d.Kind() != KindObject {
		return d.typeErrorf(KindObject)
	}
	d.obj.set(key, val)
	return nil
}

// Remove deletes key, returning false if it was absent.
func (d *Document) Remove(key string) (bool, error) {
	if d.Kind() != KindObject {
		return false, d.typeErrorf(KindObject)
	}
	return d.obj.remove(key), nil
}

// ObjectPolicy returns the ordering policy of an Object Document.
func (d *Document) ObjectPolicy() (ObjectPolicy, error) {
	if d.Kind() != KindObject {
		return 0, d.typeErrorf(KindObject)
	}
	return d.obj.policy, nil
}

// Keys returns the object's keys in storage order (lexicographic for
// Sorted, insertion order for InsertionOrdered).
func (d *Document) Keys() ([]string, error) {
	if d.Kind() != KindObject {
		return nil, d.typeErrorf(KindObject)
	}
	keys := make([]string, len(d.obj.pairs))
	for i, p := range d.obj.pairs {
		keys[i] = p.key
	}
	return keys, nil
}

// Pairs returns the object's (key, value) pairs in storage order.
func (d *Document) Pairs() ([]struct {
	Key string
	Val *Document
}, error) {
	if d.Kind() != KindObject {
		return nil, d.typeErrorf(KindObject)
	}
	out := make([]struct {
		Key string
		Val *Document
	}, len(d.obj.pairs))
	for i, p := range d.obj.pairs {
		out[i] = struct {
			Key string
			Val *Document
		}{p.key, p.val}
	}
	return out, nil
}
