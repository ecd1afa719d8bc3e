package bson

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

func TestRoundTrip(t *testing.T) {
	// BSON roots must be a document (object); arrays-as-root are out of
	// scope, so every fixture here is a top-level object.
	for _, input := range []string{
		`{}`,
		`{"a":1}`,
		`{"a":-1}`,
		`{"a":1.5}`,
		`{"a":"hello"}`,
		`{"a":true,"b":false,"c":null}`,
		`{"a":[1,2,3]}`,
		`{"a":{"b":{"c":42}}}`,
	} {
		t.Run(input, func(t *testing.T) {
			doc := mustParseJSON(t, input)

			encoded, err := EncodeDocument(doc)
			require.NoError(t, err)

			decoded, err := DecodeBytes(encoded, doctree.InsertionOrdered, 1024)
			require.NoError(t, err)

			assert.True(t, doctree.Equal(doc, decoded))
		})
	}
}

func TestDecimal128RoundTrip(t *testing.T) {
	root := doctree.NewObject(doctree.InsertionOrdered)
	require.NoError(t, root.Set("price", doctree.NewBigDec("19.99")))

	encoded, err := EncodeDocument(root)
	require.NoError(t, err)

	decoded, err := DecodeBytes(encoded, doctree.InsertionOrdered, 1024)
	require.NoError(t, err)

	price, err := decoded.Get("price")
	require.NoError(t, err)
	assert.Equal(t, doctree.KindBigDec, price.Kind())
	s, err := price.AsBigDecString()
	require.NoError(t, err)
	assert.Equal(t, "19.99", s)
}

func TestArrayRootNestedUnderObjectRoundTrips(t *testing.T) {
	doc := mustParseJSON(t, `{"items":[10,20,30]}`)

	encoded, err := EncodeDocument(doc)
	require.NoError(t, err)

	decoded, err := DecodeBytes(encoded, doctree.InsertionOrdered, 1024)
	require.NoError(t, err)

	items, err := decoded.Get("items")
	require.NoError(t, err)
	elems, err := items.Array()
	require.NoError(t, err)
	require.Len(t, elems, 3)
	assert.Equal(t, int64(20), elems[1].MustInt64())
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	_, err := DecodeBytes([]byte{0x05, 0x00, 0x00, 0x00}, doctree.InsertionOrdered, 1024)
	assert.Error(t, err)
}
