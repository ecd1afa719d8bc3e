package schema

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

func TestValidateType(t *testing.T) {
	v, err := Compile(mustParseJSON(t, `{"type":"string"}`))
	require.NoError(t, err)

	assert.Empty(t, v.Validate(mustParseJSON(t, `"hi"`)))
	assert.NotEmpty(t, v.Validate(mustParseJSON(t, `42`)))
}

func TestValidateIntegerAcceptedByNumberType(t *testing.T) {
	v, err := Compile(mustParseJSON(t, `{"type":"number"}`))
	require.NoError(t, err)

	assert.Empty(t, v.Validate(mustParseJSON(t, `42`)))
	assert.Empty(t, v.Validate(mustParseJSON(t, `4.2`)))
}

func TestValidateRequired(t *testing.T) {
	v, err := Compile(mustParseJSON(t, `{"type":"object","required":["name","age"]}`))
	require.NoError(t, err)

	assert.Empty(t, v.Validate(mustParseJSON(t, `{"name":"a","age":1}`)))

	errs := v.Validate(mustParseJSON(t, `{"name":"a"}`))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "age")
}

func TestValidateProperties(t *testing.T) {
	v, err := Compile(mustParseJSON(t, `{
		"type": "object",
		"properties": {
			"age": {"type": "integer", "minimum": 0, "maximum": 150}
		}
	}`))
	require.NoError(t, err)

	assert.Empty(t, v.Validate(mustParseJSON(t, `{"age":30}`)))

	errs := v.Validate(mustParseJSON(t, `{"age":-1}`))
	require.Len(t, errs, 1)
	assert.Equal(t, "/age", errs[0].Path)
}

func TestValidateItems(t *testing.T) {
	v, err := Compile(mustParseJSON(t, `{"type":"array","items":{"type":"integer"}}`))
	require.NoError(t, err)

	assert.Empty(t, v.Validate(mustParseJSON(t, `[1,2,3]`)))

	errs := v.Validate(mustParseJSON(t, `[1,"x",3]`))
	require.Len(t, errs, 1)
	assert.Equal(t, "/1", errs[0].Path)
}

func TestValidateEnum(t *testing.T) {
	v, err := Compile(mustParseJSON(t, `{"enum":["red","green","blue"]}`))
	require.NoError(t, err)

	assert.Empty(t, v.Validate(mustParseJSON(t, `"green"`)))
	assert.NotEmpty(t, v.Validate(mustParseJSON(t, `"purple"`)))
}

func TestValidateRef(t *testing.T) {
	v, err := Compile(mustParseJSON(t, `{
		"definitions": {
			"positiveInt": {"type": "integer", "minimum": 0}
		},
		"type": "object",
		"properties": {
			"count": {"$ref": "#/definitions/positiveInt"}
		}
	}`))
	require.NoError(t, err)

	assert.Empty(t, v.Validate(mustParseJSON(t, `{"count":5}`)))
	assert.NotEmpty(t, v.Validate(mustParseJSON(t, `{"count":-5}`)))
}

func TestCompileRejectsNonObjectRoot(t *testing.T) {
	_, err := Compile(mustParseJSON(t, `"not a schema"`))
	assert.Error(t, err)
}
