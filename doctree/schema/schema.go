// Package schema implements the thin, deliberately partial JSON Schema
// validator named in SPEC_FULL.md section 6.8: type, required, properties,
// items, enum, minimum/maximum, and $ref within a single schema document.
// Full JSON Schema draft compliance is out of scope per spec.md's
// Non-goals -- this is sufficient to validate the Document model's own
// shape, not a general-purpose schema engine.
package schema

import (
	"fmt"
	"strings"

	"github.com/quillbyte/doctree"
	"github.com/quillbyte/doctree/pointer"
)

// ValidationError reports a single constraint violation at a path into
// the document being validated, rendered the same way doctree/pointer
// renders locations (a leading-slash token path rooted at "").
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validator holds a compiled schema document. Compile performs no
// structural checks beyond confirming the root is an object -- invalid
// keywords are simply ignored at Validate time, matching this package's
// deliberately small slice of the full JSON Schema vocabulary.
type Validator struct {
	root *doctree.Document
}

// Compile prepares schemaDoc for repeated use against Validate.
func Compile(schemaDoc *doctree.Document) (*Validator, error) {
	if schemaDoc == nil || schemaDoc.Kind() != doctree.KindObject {
		return nil, fmt.Errorf("schema: root schema must be an object, got %v", schemaDoc)
	}
	return &Validator{root: schemaDoc}, nil
}

// Validate checks doc against the compiled schema and returns every
// violation found; a nil/empty result means doc is valid.
func (val *Validator) Validate(doc *doctree.Document) []ValidationError {
	var errs []ValidationError
	val.validate(val.root, doc, "", &errs)
	return errs
}

func (val *Validator) validate(schema, doc *doctree.Document, path string, errs *[]ValidationError) {
	schema = val.resolveRef(schema, errs, path)
	if schema == nil {
		return
	}

	val.checkType(schema, doc, path, errs)
	val.checkEnum(schema, doc, path, errs)
	val.checkRange(schema, doc, path, errs)
	val.checkRequired(schema, doc, path, errs)
	val.checkProperties(schema, doc, path, errs)
	val.checkItems(schema, doc, path, errs)
}

// resolveRef follows a "$ref" keyword ("#/a/b"-style, relative to the
// schema document's own root) to the schema it points at. A schema with
// no "$ref" is returned unchanged.
func (val *Validator) resolveRef(schema *doctree.Document, errs *[]ValidationError, path string) *doctree.Document {
	if schema.Kind() != doctree.KindObject || !schema.Has("$ref") {
		return schema
	}
	refDoc, err := schema.Get("$ref")
	if err != nil {
		*errs = append(*errs, ValidationError{Path: path, Message: "$ref is not readable"})
		return nil
	}
	ref, err := refDoc.AsString()
	if err != nil {
		*errs = append(*errs, ValidationError{Path: path, Message: "$ref must be a string"})
		return nil
	}
	if !strings.HasPrefix(ref, "#") {
		*errs = append(*errs, ValidationError{Path: path, Message: fmt.Sprintf("$ref %q: only in-document refs are supported", ref)})
		return nil
	}
	target, err := pointer.Get(val.root, ref[1:])
	if err != nil {
		*errs = append(*errs, ValidationError{Path: path, Message: fmt.Sprintf("$ref %q does not resolve: %v", ref, err)})
		return nil
	}
	return target
}

func schemaTypeName(k doctree.Kind) string {
	switch k {
	case doctree.KindObject:
		return "object"
	case doctree.KindArray:
		return "array"
	case doctree.KindString, doctree.KindByteString, doctree.KindBigInt, doctree.KindBigDec:
		return "string"
	case doctree.KindBool:
		return "boolean"
	case doctree.KindNull:
		return "null"
	case doctree.KindInt64, doctree.KindUInt64:
		return "integer"
	case doctree.KindDouble, doctree.KindHalfFloat:
		return "number"
	}
	return "unknown"
}

func (val *Validator) checkType(schema, doc *doctree.Document, path string, errs *[]ValidationError) {
	if schema.Kind() != doctree.KindObject || !schema.Has("type") {
		return
	}
	tDoc, err := schema.Get("type")
	if err != nil {
		return
	}
	want, err := tDoc.AsString()
	if err != nil {
		return
	}
	got := schemaTypeName(doc.Kind())
	if want == got {
		return
	}
	// "integer" is a stricter subset of "number"; a schema asking for
	// "number" accepts an integer-kinded value too.
	if want == "number" && got == "integer" {
		return
	}
	*errs = append(*errs, ValidationError{Path: path, Message: fmt.Sprintf("expected type %q, got %q", want, got)})
}

func (val *Validator) checkEnum(schema, doc *doctree.Document, path string, errs *[]ValidationError) {
	if schema.Kind() != doctree.KindObject || !schema.Has("enum") {
		return
	}
	enumDoc, err := schema.Get("enum")
	if err != nil || enumDoc.Kind() != doctree.KindArray {
		return
	}
	values, err := enumDoc.Array()
	if err != nil {
		return
	}
	for _, v := range values {
		if doctree.Equal(doc, v) {
			return
		}
	}
	*errs = append(*errs, ValidationError{Path: path, Message: "value is not one of the enum's allowed values"})
}

func (val *Validator) checkRange(schema, doc *doctree.Document, path string, errs *[]ValidationError) {
	if schema.Kind() != doctree.KindObject {
		return
	}
	n, err := doc.AsDouble()
	if err != nil {
		return
	}
	if schema.Has("minimum") {
		minDoc, err := schema.Get("minimum")
		if err == nil {
			if min, err := minDoc.AsDouble(); err == nil && n < min {
				*errs = append(*errs, ValidationError{Path: path, Message: fmt.Sprintf("%v is less than minimum %v", n, min)})
			}
		}
	}
	if schema.Has("maximum") {
		maxDoc, err := schema.Get("maximum")
		if err == nil {
			if max, err := maxDoc.AsDouble(); err == nil && n > max {
				*errs = append(*errs, ValidationError{Path: path, Message: fmt.Sprintf("%v is greater than maximum %v", n, max)})
			}
		}
	}
}

func (val *Validator) checkRequired(schema, doc *doctree.Document, path string, errs *[]ValidationError) {
	if schema.Kind() != doctree.KindObject || !schema.Has("required") {
		return
	}
	reqDoc, err := schema.Get("required")
	if err != nil || reqDoc.Kind() != doctree.KindArray {
		return
	}
	if doc.Kind() != doctree.KindObject {
		return
	}
	names, err := reqDoc.Array()
	if err != nil {
		return
	}
	for _, nameDoc := range names {
		name, err := nameDoc.AsString()
		if err != nil {
			continue
		}
		if !doc.Has(name) {
			*errs = append(*errs, ValidationError{Path: path, Message: fmt.Sprintf("missing required property %q", name)})
		}
	}
}

func (val *Validator) checkProperties(schema, doc *doctree.Document, path string, errs *[]ValidationError) {
	if schema.Kind() != doctree.KindObject || !schema.Has("properties") {
		return
	}
	propsDoc, err := schema.Get("properties")
	if err != nil || propsDoc.Kind() != doctree.KindObject {
		return
	}
	if doc.Kind() != doctree.KindObject {
		return
	}
	pairs, err := propsDoc.Pairs()
	if err != nil {
		return
	}
	for _, p := range pairs {
		if !doc.Has(p.Key) {
			continue
		}
		v, err := doc.Get(p.Key)
		if err != nil {
			continue
		}
		val.validate(p.Val, v, path+"/"+p.Key, errs)
	}
}

func (val *Validator) checkItems(schema, doc *doctree.Document, path string, errs *[]ValidationError) {
	if schema.Kind() != doctree.KindObject || !schema.Has("items") {
		return
	}
	itemSchema, err := schema.Get("items")
	if err != nil {
		return
	}
	if doc.Kind() != doctree.KindArray {
		return
	}
	elems, err := doc.Array()
	if err != nil {
		return
	}
	for i, elem := range elems {
		val.validate(itemSchema, elem, fmt.Sprintf("%s/%d", path, i), errs)
	}
}
