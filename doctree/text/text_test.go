package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbyte/doctree"
	"github.com/quillbyte/doctree/visitor"
)

func TestUnmarshalScalars(t *testing.T) {
	for _, test := range []struct {
		name  string
		input string
		kind  doctree.Kind
	}{
		{"null", `null`, doctree.KindNull},
		{"true", `true`, doctree.KindBool},
		{"false", `false`, doctree.KindBool},
		{"integer", `42`, doctree.KindUInt64},
		{"negative integer", `-42`, doctree.KindInt64},
		{"string", `"hi"`, doctree.KindString},
		{"array", `[1,2,3]`, doctree.KindArray},
		{"object", `{"a":1}`, doctree.KindObject},
		{"fraction defaults to double", `1.5`, doctree.KindDouble},
	} {
		t.Run(test.name, func(t *testing.T) {
			doc, err := Unmarshal([]byte(test.input), doctree.InsertionOrdered)
			require.NoError(t, err)
			assert.Equal(t, test.kind, doc.Kind())
		})
	}
}

func TestUnmarshalRejectsMalformedInput(t *testing.T) {
	for _, input := range []string{
		`{`,
		`[1,2,`,
		`{"a":}`,
		`tru`,
		``,
	} {
		t.Run(input, func(t *testing.T) {
			_, err := Unmarshal([]byte(input), doctree.InsertionOrdered)
			assert.Error(t, err)
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	const input = `{"a":1,"b":[true,false,null],"c":"hi"}`

	doc, err := Unmarshal([]byte(input), doctree.InsertionOrdered)
	require.NoError(t, err)

	out, err := Marshal(doc)
	require.NoError(t, err)

	reparsed, err := Unmarshal(out, doctree.InsertionOrdered)
	require.NoError(t, err)

	assert.True(t, doctree.Equal(doc, reparsed))
}

func TestMarshalPrettyIsReparseable(t *testing.T) {
	doc, err := Unmarshal([]byte(`{"a":[1,2,{"b":3}]}`), doctree.InsertionOrdered)
	require.NoError(t, err)

	pretty, err := MarshalPretty(doc, PrettyOptions{IndentSize: 4})
	require.NoError(t, err)
	assert.Contains(t, string(pretty), "\n")

	reparsed, err := Unmarshal(pretty, doctree.InsertionOrdered)
	require.NoError(t, err)
	assert.True(t, doctree.Equal(doc, reparsed))
}

// TestMarshalPrettyCompactsNonSplitContainers pins down the normative
// scenario from spec.md section 4.5's worked examples: with every line
// split option left at its same-line default, a nested array gets no
// internal breaks and its own brackets stay on the line its last element
// ended on, while the enclosing object's key still gets its own line.
func TestMarshalPrettyCompactsNonSplitContainers(t *testing.T) {
	doc, err := Unmarshal([]byte(`{"foo":["bar","baz"]}`), doctree.InsertionOrdered)
	require.NoError(t, err)

	pretty, err := MarshalPretty(doc, PrettyOptions{IndentSize: 2})
	require.NoError(t, err)

	assert.Equal(t, "{\n  \"foo\": [\"bar\",\"baz\"]\n}", string(pretty))
}

func TestParserOptionsAllowComments(t *testing.T) {
	dec := visitor.NewDecoder(nil, doctree.InsertionOrdered)
	p := NewParser(dec, Options{AllowComments: true})
	require.NoError(t, p.ParseSome([]byte("// comment\n{\"a\":1}")))
	require.NoError(t, p.Finalize())
	assert.Equal(t, doctree.KindObject, dec.Document().Kind())
}
