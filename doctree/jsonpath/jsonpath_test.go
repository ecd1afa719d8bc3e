package jsonpath

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

func intVals(t *testing.T, docs []*doctree.Document) []int64 {
	t.Helper()
	out := make([]int64, len(docs))
	for i, d := range docs {
		out[i] = d.MustInt64()
	}
	return out
}

func TestQueryDotAndBracketKeys(t *testing.T) {
	doc := mustParseJSON(t, `{"store":{"book":[{"title":"a"},{"title":"b"}]}}`)

	for _, expr := range []string{"$.store.book", "store.book", "$['store']['book']"} {
		t.Run(expr, func(t *testing.T) {
			res, err := Query(doc, expr)
			require.NoError(t, err)
			require.Len(t, res, 1)
			assert.Equal(t, doctree.KindArray, res[0].Kind())
		})
	}
}

func TestQueryIndexAndNegativeIndex(t *testing.T) {
	doc := mustParseJSON(t, `{"items":[10,20,30]}`)

	res, err := Query(doc, "$.items[0]")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, int64(10), res[0].MustInt64())

	res, err = Query(doc, "$.items[-1]")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, int64(30), res[0].MustInt64())
}

func TestQueryWildcard(t *testing.T) {
	doc := mustParseJSON(t, `{"items":[1,2,3]}`)

	res, err := Query(doc, "$.items[*]")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, intVals(t, res))

	res, err = Query(doc, "$.*")
	require.NoError(t, err)
	require.Len(t, res, 1)
}

func TestQuerySlice(t *testing.T) {
	doc := mustParseJSON(t, `{"items":[0,1,2,3,4,5]}`)

	for _, test := range []struct {
		expr string
		want []int64
	}{
		{"$.items[1:3]", []int64{1, 2}},
		{"$.items[:2]", []int64{0, 1}},
		{"$.items[4:]", []int64{4, 5}},
		{"$.items[::2]", []int64{0, 2, 4}},
		{"$.items[::-1]", []int64{5, 4, 3, 2, 1, 0}},
	} {
		t.Run(test.expr, func(t *testing.T) {
			res, err := Query(doc, test.expr)
			require.NoError(t, err)
			assert.Equal(t, test.want, intVals(t, res))
		})
	}
}

func TestQueryFanOutAcrossArrayOfObjects(t *testing.T) {
	doc := mustParseJSON(t, `{"items":[{"v":1},{"v":2},{"v":3}]}`)

	res, err := Query(doc, "$.items[*].v")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, intVals(t, res))
}

func TestQueryMissingKeyYieldsNoMatches(t *testing.T) {
	doc := mustParseJSON(t, `{"a":1}`)
	res, err := Query(doc, "$.missing")
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestQueryInvalidExpression(t *testing.T) {
	doc := mustParseJSON(t, `{"a":1}`)
	_, err := Query(doc, "$.a[")
	assert.Error(t, err)
}
