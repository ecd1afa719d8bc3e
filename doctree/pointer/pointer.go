// Package pointer implements RFC 6901 JSON Pointer navigation over
// *doctree.Document, the thin query surface SPEC_FULL.md section 6.8
// names alongside jsonpath and schema.
package pointer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quillbyte/doctree"
)

// tokens splits a pointer string into its reference tokens, unescaping
// "~1" to "/" and "~0" to "~" per RFC 6901 section 4, in that order (a
// literal "~01" must decode to "~1", not "/").
func tokens(p string) ([]string, error) {
	if p == "" {
		return nil, nil
	}
	if p[0] != '/' {
		return nil, doctree.NewError(doctree.KindUnexpectedCharacter, doctree.Position{}, nil)
	}
	raw := strings.Split(p[1:], "/")
	out := make([]string, len(raw))
	for i, t := range raw {
		t = strings.ReplaceAll(t, "~1", "/")
		t = strings.ReplaceAll(t, "~0", "~")
		out[i] = t
	}
	return out, nil
}

// Get navigates doc by pointer and returns the value found there.
func Get(doc *doctree.Document, p string) (*doctree.Document, error) {
	toks, err := tokens(p)
	if err != nil {
		return nil, err
	}
	cur := doc
	for _, t := range toks {
		next, err := step(cur, t)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func step(cur *doctree.Document, t string) (*doctree.Document, error) {
	switch cur.Kind() {
	case doctree.KindObject:
		v, err := cur.Get(t)
		if err != nil {
			return nil, err
		}
		return v, nil
	case doctree.KindArray:
		idx, err := arrayIndex(cur, t)
		if err != nil {
			return nil, err
		}
		return cur.Index(idx)
	default:
		return nil, fmt.Errorf("pointer: %w", doctree.ErrType)
	}
}

// arrayIndex resolves a pointer token against an array, supporting the
// RFC 6901 "-" token (one past the last element, valid for Set's append
// behavior but never for Get/Remove, which reject it as out of range).
func arrayIndex(arr *doctree.Document, t string) (int, error) {
	if t == "-" {
		return arr.Len(), nil
	}
	if t == "" || (len(t) > 1 && t[0] == '0') {
		return 0, doctree.NewError(doctree.KindUnexpectedCharacter, doctree.Position{}, nil)
	}
	n, err := strconv.Atoi(t)
	if err != nil || n < 0 {
		return 0, doctree.NewError(doctree.KindUnexpectedCharacter, doctree.Position{}, nil)
	}
	return n, nil
}

// Set writes val at the location named by p, creating the final object
// key or inserting/appending the final array element. Every intermediate
// segment must already exist (pointer.Set does not create intermediate
// containers, matching RFC 6901's navigation-only contract).
func Set(doc *doctree.Document, p string, val *doctree.Document) error {
	toks, err := tokens(p)
	if err != nil {
		return err
	}
	if len(toks) == 0 {
		return doctree.NewError(doctree.KindUnexpectedCharacter, doctree.Position{}, nil)
	}
	parent, err := Get(doc, parentPointer(toks))
	if err != nil {
		return err
	}
	last := toks[len(toks)-1]
	switch parent.Kind() {
	case doctree.KindObject:
		return parent.Set(last, val)
	case doctree.KindArray:
		idx, err := arrayIndex(parent, last)
		if err != nil {
			return err
		}
		if idx >= parent.Len() {
			return parent.Append(val)
		}
		return parent.InsertAt(idx, val)
	default:
		return fmt.Errorf("pointer: %w", doctree.ErrType)
	}
}

// Remove deletes the value named by p, returning it.
func Remove(doc *doctree.Document, p string) (*doctree.Document, error) {
	toks, err := tokens(p)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, doctree.NewError(doctree.KindUnexpectedCharacter, doctree.Position{}, nil)
	}
	parent, err := Get(doc, parentPointer(toks))
	if err != nil {
		return nil, err
	}
	last := toks[len(toks)-1]
	switch parent.Kind() {
	case doctree.KindObject:
		v, err := parent.Get(last)
		if err != nil {
			return nil, err
		}
		if _, err := parent.Remove(last); err != nil {
			return nil, err
		}
		return v, nil
	case doctree.KindArray:
		idx, err := arrayIndex(parent, last)
		if err != nil {
			return nil, err
		}
		return parent.EraseAt(idx)
	default:
		return nil, fmt.Errorf("pointer: %w", doctree.ErrType)
	}
}

// parentPointer reconstructs the pointer string for every token but the
// last, re-escaping each token so it can be re-tokenized by Get.
func parentPointer(toks []string) string {
	if len(toks) == 1 {
		return ""
	}
	var b strings.Builder
	for _, t := range toks[:len(toks)-1] {
		b.WriteByte('/')
		t = strings.ReplaceAll(t, "~", "~0")
		t = strings.ReplaceAll(t, "/", "~1")
		b.WriteString(t)
	}
	return b.String()
}
