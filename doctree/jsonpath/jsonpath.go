// Package jsonpath implements the small dot/bracket/wildcard/slice subset
// of JSONPath named in SPEC_FULL.md section 6.8 -- enough to exercise
// doctree.Document's own traversal API, not the full JSONPath grammar
// (script expressions and function extensions are explicitly out of
// scope, matching spec.md's Non-goals).
package jsonpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quillbyte/doctree"
)

type selectorKind int8

const (
	selKey selectorKind = iota
	selIndex
	selWildcard
	selSlice
)

type selector struct {
	kind       selectorKind
	key        string
	index      int
	start, end *int
	step       int
}

// Query evaluates expr against doc and returns every matching value, in
// document order at each fan-out step.
func Query(doc *doctree.Document, expr string) ([]*doctree.Document, error) {
	sels, err := parse(expr)
	if err != nil {
		return nil, err
	}
	cur := []*doctree.Document{doc}
	for _, s := range sels {
		var next []*doctree.Document
		for _, c := range cur {
			matches, err := apply(c, s)
			if err != nil {
				return nil, err
			}
			next = append(next, matches...)
		}
		cur = next
	}
	return cur, nil
}

func parse(expr string) ([]selector, error) {
	expr = strings.TrimSpace(expr)
	expr = strings.TrimPrefix(expr, "$")
	if expr != "" && expr[0] != '.' && expr[0] != '[' {
		expr = "." + expr // a bare leading member name, as in "store.book"
	}
	var sels []selector
	i := 0
	for i < len(expr) {
		switch expr[i] {
		case '.':
			i++
			if i < len(expr) && expr[i] == '*' {
				sels = append(sels, selector{kind: selWildcard})
				i++
				continue
			}
			start := i
			for i < len(expr) && expr[i] != '.' && expr[i] != '[' {
				i++
			}
			if i == start {
				return nil, errf("empty member name in jsonpath expression")
			}
			sels = append(sels, selector{kind: selKey, key: expr[start:i]})
		case '[':
			end := strings.IndexByte(expr[i:], ']')
			if end < 0 {
				return nil, errf("unterminated '[' in jsonpath expression")
			}
			inner := expr[i+1 : i+end]
			i += end + 1
			sel, err := parseBracket(inner)
			if err != nil {
				return nil, err
			}
			sels = append(sels, sel)
		default:
			return nil, errf("unexpected character %q in jsonpath expression", expr[i])
		}
	}
	return sels, nil
}

func parseBracket(inner string) (selector, error) {
	inner = strings.TrimSpace(inner)
	if inner == "*" {
		return selector{kind: selWildcard}, nil
	}
	if len(inner) >= 2 && (inner[0] == '\'' || inner[0] == '"') && inner[len(inner)-1] == inner[0] {
		return selector{kind: selKey, key: inner[1 : len(inner)-1]}, nil
	}
	if strings.Contains(inner, ":") {
		return parseSlice(inner)
	}
	n, err := strconv.Atoi(inner)
	if err != nil {
		return selector{}, errf("invalid bracket selector %q", inner)
	}
	return selector{kind: selIndex, index: n}, nil
}

func parseSlice(inner string) (selector, error) {
	parts := strings.Split(inner, ":")
	if len(parts) > 3 {
		return selector{}, errf("invalid slice %q", inner)
	}
	s := selector{kind: selSlice, step: 1}
	if p := strings.TrimSpace(parts[0]); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return selector{}, errf("invalid slice start %q", p)
		}
		s.start = &n
	}
	if len(parts) > 1 {
		if p := strings.TrimSpace(parts[1]); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil {
				return selector{}, errf("invalid slice end %q", p)
			}
			s.end = &n
		}
	}
	if len(parts) > 2 {
		if p := strings.TrimSpace(parts[2]); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil || n == 0 {
				return selector{}, errf("invalid slice step %q", p)
			}
			s.step = n
		}
	}
	return s, nil
}

func apply(doc *doctree.Document, s selector) ([]*doctree.Document, error) {
	switch s.kind {
	case selKey:
		if doc.Kind() != doctree.KindObject {
			return nil, nil
		}
		if !doc.Has(s.key) {
			return nil, nil
		}
		v, err := doc.Get(s.key)
		if err != nil {
			return nil, err
		}
		return []*doctree.Document{v}, nil
	case selIndex:
		if doc.Kind() != doctree.KindArray {
			return nil, nil
		}
		idx := s.index
		if idx < 0 {
			idx += doc.Len()
		}
		if idx < 0 || idx >= doc.Len() {
			return nil, nil
		}
		v, err := doc.Index(idx)
		if err != nil {
			return nil, err
		}
		return []*doctree.Document{v}, nil
	case selWildcard:
		return wildcardMatches(doc)
	case selSlice:
		return sliceMatches(doc, s)
	}
	return nil, nil
}

func wildcardMatches(doc *doctree.Document) ([]*doctree.Document, error) {
	switch doc.Kind() {
	case doctree.KindArray:
		arr, err := doc.Array()
		if err != nil {
			return nil, err
		}
		return append([]*doctree.Document(nil), arr...), nil
	case doctree.KindObject:
		pairs, err := doc.Pairs()
		if err != nil {
			return nil, err
		}
		out := make([]*doctree.Document, len(pairs))
		for i, p := range pairs {
			out[i] = p.Val
		}
		return out, nil
	default:
		return nil, nil
	}
}

func sliceMatches(doc *doctree.Document, s selector) ([]*doctree.Document, error) {
	if doc.Kind() != doctree.KindArray {
		return nil, nil
	}
	n := doc.Len()
	start, end := 0, n
	if s.step < 0 {
		start, end = n-1, -1
	}
	if s.start != nil {
		start = normalizeIndex(*s.start, n)
	}
	if s.end != nil {
		end = normalizeIndex(*s.end, n)
	}
	var out []*doctree.Document
	if s.step > 0 {
		for i := start; i < end && i < n; i += s.step {
			if i < 0 {
				continue
			}
			v, err := doc.Index(i)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	} else {
		for i := start; i > end && i >= 0; i += s.step {
			if i >= n {
				continue
			}
			v, err := doc.Index(i)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func normalizeIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func errf(format string, args ...any) error {
	return doctree.NewError(doctree.KindUnexpectedCharacter, doctree.Position{}, fmt.Errorf(format, args...))
}
