package ubjson

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
	for _, input := range []string{
		`null`,
		`true`,
		`false`,
		`0`,
		`-1`,
		`1234567890`,
		`1.5`,
		`"hello"`,
		`[]`,
		`[1,2,3]`,
		`{}`,
		`{"a":1,"b":[true,null,"x"]}`,
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

func TestHighPrecisionMarkerRoundTripsBigIntAndBigDec(t *testing.T) {
	for _, test := range []struct {
		name string
		doc  *doctree.Document
		kind doctree.Kind
	}{
		{"bigint", doctree.NewBigInt("123456789012345678901234567890"), doctree.KindBigInt},
		{"bigdec", doctree.NewBigDec("1.25"), doctree.KindBigDec},
	} {
		t.Run(test.name, func(t *testing.T) {
			encoded, err := EncodeDocument(test.doc)
			require.NoError(t, err)

			decoded, err := DecodeBytes(encoded, doctree.InsertionOrdered, 1024)
			require.NoError(t, err)

			assert.Equal(t, test.kind, decoded.Kind())
		})
	}
}

func TestDecodeTerminatorDelimitedContainer(t *testing.T) {
	// [ i 1 i 2 ] with no count prefix: the terminator-delimited form this
	// package's own encoder emits only for a container of unknown length,
	// one of the three UBJSON container grammars.
	payload := []byte{'[', 'i', 1, 'i', 2, ']'}

	decoded, err := DecodeBytes(payload, doctree.InsertionOrdered, 1024)
	require.NoError(t, err)

	elems, err := decoded.Array()
	require.NoError(t, err)
	require.Len(t, elems, 2)
	assert.Equal(t, int64(1), elems[0].MustInt64())
	assert.Equal(t, int64(2), elems[1].MustInt64())
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	_, err := DecodeBytes([]byte{'['}, doctree.InsertionOrdered, 1024)
	assert.Error(t, err)
}
