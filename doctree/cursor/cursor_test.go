package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbyte/doctree"
	"github.com/quillbyte/doctree/text"
	"github.com/quillbyte/doctree/visitor"
)

func sourceFromJSON(t *testing.T, s string) Source {
	t.Helper()
	doc, err := text.Unmarshal([]byte(s), doctree.InsertionOrdered)
	require.NoError(t, err)
	return SourceFunc(func(v visitor.Visitor) error {
		return visitor.Walk(doc, v)
	})
}

func TestCursorWalksEveryEventInOrder(t *testing.T) {
	cu, err := New(sourceFromJSON(t, `{"a":1,"b":[2,3]}`), nil)
	require.NoError(t, err)

	var kinds []EventKind
	for !cu.Done() {
		kinds = append(kinds, cu.Current().Kind)
		cu.Advance()
	}

	assert.Equal(t, []EventKind{
		EventBeginObject,
		EventKey, EventUInt64,
		EventKey, EventBeginArray, EventUInt64, EventUInt64, EventEndArray,
		EventEndObject,
	}, kinds)
}

func TestFilterDropsKeyAndItsValue(t *testing.T) {
	filter := func(ev Event, _ visitor.Context) bool {
		return !(ev.Kind == EventKey && ev.Key == "secret")
	}
	cu, err := New(sourceFromJSON(t, `{"a":1,"secret":2,"b":3}`), filter)
	require.NoError(t, err)

	var keys []string
	for !cu.Done() {
		if cu.Current().Kind == EventKey {
			keys = append(keys, cu.Current().Key)
		}
		cu.Advance()
	}
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestFilterDropsWholeSubtree(t *testing.T) {
	filter := func(ev Event, _ visitor.Context) bool {
		return ev.Kind != EventBeginArray
	}
	cu, err := New(sourceFromJSON(t, `{"keep":1,"arr":[1,2,3]}`), filter)
	require.NoError(t, err)

	count := 0
	for !cu.Done() {
		count++
		cu.Advance()
	}
	// BeginObject, Key "keep", UInt64, Key "arr" (dropped along with its
	// value since the array itself is rejected), EndObject.
	assert.Equal(t, 4, count)
}

func TestSkipAdvancesPastSubtree(t *testing.T) {
	cu, err := New(sourceFromJSON(t, `{"arr":[1,2,3],"after":9}`), nil)
	require.NoError(t, err)

	require.Equal(t, EventBeginObject, cu.Current().Kind)
	cu.Advance()
	require.Equal(t, EventKey, cu.Current().Kind)
	cu.Advance()
	require.Equal(t, EventBeginArray, cu.Current().Kind)

	cu.Skip()
	assert.Equal(t, EventKey, cu.Current().Kind)
	assert.Equal(t, "after", cu.Current().Key)
}

func TestReadIntoSplicesOneValue(t *testing.T) {
	cu, err := New(sourceFromJSON(t, `{"arr":[1,2,3],"after":9}`), nil)
	require.NoError(t, err)

	cu.Advance() // past BeginObject
	cu.Advance() // past Key "arr"

	dec := visitor.NewDecoder(nil, doctree.InsertionOrdered)
	require.NoError(t, cu.ReadInto(dec))

	elems, err := dec.Document().Array()
	require.NoError(t, err)
	require.Len(t, elems, 3)

	assert.Equal(t, EventKey, cu.Current().Kind)
	assert.Equal(t, "after", cu.Current().Key)
}

func TestResetSourceReDrivesFromScratch(t *testing.T) {
	cu, err := New(sourceFromJSON(t, `{"a":1}`), nil)
	require.NoError(t, err)
	cu.Advance()
	cu.Advance()
	require.False(t, cu.Done())

	require.NoError(t, cu.ResetSource(sourceFromJSON(t, `{"b":2,"c":3}`)))
	assert.Equal(t, EventBeginObject, cu.Current().Kind)
}
