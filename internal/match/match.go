// Package match compares a recorded snapshot tree against freshly captured
// content. Comparison is deep structural equality, except that placeholder
// tokens in recorded strings act as pattern slots: they match any text, and
// the same slot must capture identical text everywhere it appears.
package match

import (
	"fmt"
	"sort"

	"snapcheck/internal/placeholder"
	"snapcheck/internal/snapshot"
)

// Kind classifies a mismatch.
type Kind string

const (
	KindMissing Kind = "missing" // key in recorded content, absent in fresh
	KindExtra   Kind = "extra"   // key in fresh content, absent in recording
	KindType    Kind = "type"    // node types differ
	KindValue   Kind = "value"   // literal leaf values differ
	KindPattern Kind = "pattern" // placeholder pattern did not match or bound inconsistently
)

// Mismatch is one point of disagreement between recorded and fresh content.
type Mismatch struct {
	Path string
	Kind Kind
	Want any // recorded value (may contain placeholder tokens)
	Got  any // fresh value
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %s (want %v, got %v)", m.Path, m.Kind, m.Want, m.Got)
}

// Result is the outcome of one comparison.
type Result struct {
	Mismatches []Mismatch
	// Bindings maps each placeholder token (canonical text, e.g.
	// "<domain-name:1>") to the fresh text it captured.
	Bindings map[string]string
}

// OK reports whether the fresh content matched the recording.
func (r *Result) OK() bool { return len(r.Mismatches) == 0 }

// BoundTokens returns the bound token texts in sorted order.
func (r *Result) BoundTokens() []string {
	toks := make([]string, 0, len(r.Bindings))
	for t := range r.Bindings {
		toks = append(toks, t)
	}
	sort.Strings(toks)
	return toks
}

// Compare matches fresh content against recorded content.
func Compare(want, got snapshot.Content) *Result {
	res := &Result{Bindings: map[string]string{}}
	compareNode("", want, got, res)
	return res
}

func compareNode(path string, want, got any, res *Result) {
	switch w := want.(type) {
	case map[string]any:
		g, ok := got.(map[string]any)
		if !ok {
			res.add(path, KindType, want, got)
			return
		}
		keys := make([]string, 0, len(w))
		for k := range w {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := join(path, k)
			gv, ok := g[k]
			if !ok {
				res.add(child, KindMissing, w[k], nil)
				continue
			}
			compareNode(child, w[k], gv, res)
		}
		extras := make([]string, 0)
		for k := range g {
			if _, ok := w[k]; !ok {
				extras = append(extras, k)
			}
		}
		sort.Strings(extras)
		for _, k := range extras {
			res.add(join(path, k), KindExtra, nil, g[k])
		}

	case []any:
		g, ok := got.([]any)
		if !ok {
			res.add(path, KindType, want, got)
			return
		}
		n := len(w)
		if len(g) < n {
			n = len(g)
		}
		for i := 0; i < n; i++ {
			compareNode(fmt.Sprintf("%s[%d]", path, i), w[i], g[i], res)
		}
		for i := n; i < len(w); i++ {
			res.add(fmt.Sprintf("%s[%d]", path, i), KindMissing, w[i], nil)
		}
		for i := n; i < len(g); i++ {
			res.add(fmt.Sprintf("%s[%d]", path, i), KindExtra, nil, g[i])
		}

	case string:
		g, ok := got.(string)
		if !ok {
			res.add(path, KindType, want, got)
			return
		}
		compareString(path, w, g, res)

	default:
		// float64, bool, nil
		if !leafEqual(want, got) {
			kind := KindValue
			if !sameLeafType(want, got) {
				kind = KindType
			}
			res.add(path, kind, want, got)
		}
	}
}

// compareString handles recorded strings, which may embed placeholder slots.
func compareString(path, want, got string, res *Result) {
	tokens := placeholder.Find(want)
	if len(tokens) == 0 {
		if want != got {
			res.add(path, KindValue, want, got)
		}
		return
	}

	re, groups, err := placeholder.Pattern(want)
	if err != nil {
		res.add(path, KindPattern, want, got)
		return
	}
	m := re.FindStringSubmatch(got)
	if m == nil {
		res.add(path, KindPattern, want, got)
		return
	}
	for i, tok := range groups {
		captured := m[i+1]
		key := tok.String()
		if prev, ok := res.Bindings[key]; ok {
			if prev != captured {
				// Same slot bound to different text at this site.
				res.add(path, KindPattern, want, got)
				return
			}
			continue
		}
		res.Bindings[key] = captured
	}
}

func (r *Result) add(path string, kind Kind, want, got any) {
	r.Mismatches = append(r.Mismatches, Mismatch{Path: path, Kind: kind, Want: want, Got: got})
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func leafEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}

func sameLeafType(a, b any) bool {
	switch a.(type) {
	case float64:
		_, ok := b.(float64)
		return ok
	case bool:
		_, ok := b.(bool)
		return ok
	case nil:
		return b == nil
	}
	return false
}
