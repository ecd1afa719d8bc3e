package pointer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbyte/doctree"
	"github.com/quillbyte/doctree/text"
)

func mustParseJSON(t *testing.T, s string) *doctree.Document {
	t.Helper()
	doc, err := text.Unmarshal([]byte(s), doctree.InsertionOrdered)
	require.NoError(t, err)
	return doc
}

// TestGet exercises the examples from RFC 6901 section 5, the reference
// fixture every JSON Pointer implementation is checked against.
func TestGet(t *testing.T) {
	doc := mustParseJSON(t, `{
		"foo": ["bar", "baz"],
		"": 0,
		"a/b": 1,
		"c%d": 2,
		"e^f": 3,
		"g|h": 4,
		"i\\j": 5,
		"k\"l": 6,
		" ": 7,
		"m~n": 8
	}`)

	for _, test := range []struct {
		pointer string
		want    string
	}{
		{"", ""},
		{"/foo", `["bar","baz"]`},
		{"/foo/0", `"bar"`},
		{"/", "0"},
		{"/a~1b", "1"},
		{"/c%d", "2"},
		{"/e^f", "3"},
		{"/g|h", "4"},
		{"/i\\j", "5"},
		{"/k\"l", "6"},
		{"/ ", "7"},
		{"/m~0n", "8"},
	} {
		t.Run(test.pointer, func(t *testing.T) {
			if test.pointer == "" {
				got, err := Get(doc, "")
				require.NoError(t, err)
				assert.True(t, doctree.Equal(got, doc))
				return
			}
			got, err := Get(doc, test.pointer)
			require.NoError(t, err)
			want := mustParseJSON(t, test.want)
			assert.True(t, doctree.Equal(got, want), "got %v want %v", got, want)
		})
	}
}

func TestGetDashTokenRejectedOutsideSet(t *testing.T) {
	doc := mustParseJSON(t, `{"items":[1,2,3]}`)
	_, err := Get(doc, "/items/-")
	assert.Error(t, err)
}

func TestSetOverwritesExistingKey(t *testing.T) {
	doc := mustParseJSON(t, `{"a":{"b":1}}`)
	require.NoError(t, Set(doc, "/a/b", doctree.NewInt64(99)))

	got, err := Get(doc, "/a/b")
	require.NoError(t, err)
	assert.Equal(t, int64(99), got.MustInt64())
}

func TestSetDashAppendsToArray(t *testing.T) {
	doc := mustParseJSON(t, `{"items":[1,2]}`)
	require.NoError(t, Set(doc, "/items/-", doctree.NewInt64(3)))

	items, err := Get(doc, "/items")
	require.NoError(t, err)
	elems, err := items.Array()
	require.NoError(t, err)
	require.Len(t, elems, 3)
	assert.Equal(t, int64(3), elems[2].MustInt64())
}

func TestRemoveReturnsErasedValue(t *testing.T) {
	doc := mustParseJSON(t, `{"a":1,"b":2}`)
	removed, err := Remove(doc, "/a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed.MustInt64())
	assert.False(t, doc.Has("a"))
}

func TestRemoveFromArrayShiftsElements(t *testing.T) {
	doc := mustParseJSON(t, `{"items":[1,2,3]}`)
	removed, err := Remove(doc, "/items/1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed.MustInt64())

	items, err := Get(doc, "/items")
	require.NoError(t, err)
	elems, err := items.Array()
	require.NoError(t, err)
	require.Len(t, elems, 2)
	assert.Equal(t, int64(3), elems[1].MustInt64())
}

func TestGetOnScalarReturnsTypeError(t *testing.T) {
	doc := mustParseJSON(t, `{"a":1}`)
	_, err := Get(doc, "/a/b")
	assert.ErrorIs(t, err, doctree.ErrType)
}
