package msgpack

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

func TestBigDecRoundTripsViaPrivateExtCode(t *testing.T) {
	doc := doctree.NewBigDec("1.5e10")

	encoded, err := EncodeDocument(doc)
	require.NoError(t, err)

	decoded, err := DecodeBytes(encoded, doctree.InsertionOrdered, 1024)
	require.NoError(t, err)

	assert.Equal(t, doctree.KindBigDec, decoded.Kind())
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	_, err := DecodeBytes([]byte{0xd2}, doctree.InsertionOrdered, 1024)
	assert.Error(t, err)
}
