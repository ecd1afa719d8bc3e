package doctree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarAccessors(t *testing.T) {
	for _, test := range []struct {
		name string
		doc  *Document
		kind Kind
	}{
		{"null", NewNull(), KindNull},
		{"bool", NewBool(true), KindBool},
		{"int64", NewInt64(-7), KindInt64},
		{"uint64", NewUInt64(7), KindUInt64},
		{"double", NewDouble(3.5), KindDouble},
		{"string", NewString("hi"), KindString},
		{"bytestring", NewByteString([]byte{1, 2, 3}), KindByteString},
		{"array", NewArray(), KindArray},
		{"object", NewObject(InsertionOrdered), KindObject},
	} {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.kind, test.doc.Kind())
		})
	}
}

func TestAsInt64CrossKind(t *testing.T) {
	n, err := NewUInt64(5).AsInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	_, err = NewUInt64(1 << 63).AsInt64()
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = NewString("x").AsInt64()
	assert.ErrorIs(t, err, ErrType)
}

func TestAsUInt64CrossKind(t *testing.T) {
	n, err := NewInt64(5).AsUInt64()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), n)

	_, err = NewInt64(-1).AsUInt64()
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestAsDoubleWidensEveryNumericKind(t *testing.T) {
	for _, test := range []struct {
		name string
		doc  *Document
		want float64
	}{
		{"int64", NewInt64(2), 2},
		{"uint64", NewUInt64(3), 3},
		{"double", NewDouble(1.5), 1.5},
	} {
		t.Run(test.name, func(t *testing.T) {
			got, err := test.doc.AsDouble()
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestArrayAccessors(t *testing.T) {
	arr := NewArray()
	require.NoError(t, arr.Append(NewInt64(1)))
	require.NoError(t, arr.Append(NewInt64(2)))
	require.NoError(t, arr.InsertAt(1, NewInt64(99)))

	elems, err := arr.Array()
	require.NoError(t, err)
	require.Len(t, elems, 3)
	assert.Equal(t, int64(99), elems[1].MustInt64())

	erased, err := arr.EraseAt(1)
	require.NoError(t, err)
	assert.Equal(t, int64(99), erased.MustInt64())
	assert.Equal(t, 2, arr.Len())

	_, err = arr.Index(10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestObjectAccessors(t *testing.T) {
	obj := NewObject(InsertionOrdered)
	require.NoError(t, obj.Set("a", NewInt64(1)))
	require.NoError(t, obj.Set("b", NewInt64(2)))

	assert.True(t, obj.Has("a"))
	assert.False(t, obj.Has("missing"))

	v, err := obj.Get("a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.MustInt64())

	_, err = obj.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	keys, err := obj.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	removed, err := obj.Remove("a")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, obj.Has("a"))
}

func TestSortedObjectOrdersKeysLexicographically(t *testing.T) {
	obj := NewObject(Sorted)
	require.NoError(t, obj.Set("zeta", NewInt64(1)))
	require.NoError(t, obj.Set("alpha", NewInt64(2)))

	keys, err := obj.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, keys)
}

func TestMustWrappersPanicOnTypeMismatch(t *testing.T) {
	assert.Panics(t, func() {
		NewString("x").MustInt64()
	})
}
