package snapshot

import (
	"fmt"
	"sort"
)

// Walk visits every node of a content tree depth-first, calling fn with a
// dotted path ("describe_domain.DomainStatus.EngineVersion"; sequence
// elements as "TagList[0]") and the node value. Object keys are visited in
// sorted order so traversal is deterministic. Walk stops at the first error.
func Walk(tree any, fn func(path string, v any) error) error {
	return walk("", tree, fn)
}

func walk(path string, v any, fn func(path string, v any) error) error {
	if path != "" {
		if err := fn(path, v); err != nil {
			return err
		}
	}
	switch node := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := k
			if path != "" {
				child = path + "." + k
			}
			if err := walk(child, node[k], fn); err != nil {
				return err
			}
		}
	case []any:
		for i, elem := range node {
			if err := walk(fmt.Sprintf("%s[%d]", path, i), elem, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// IsLeaf reports whether v is a permitted leaf value (string, number,
// boolean, or null) as opposed to an interior mapping or sequence node.
func IsLeaf(v any) bool {
	switch v.(type) {
	case string, float64, bool, nil:
		return true
	}
	return false
}

// LeafAt returns the leaf value at a dotted path inside a content tree.
// Sequence indexing is not supported; the path must address object keys only.
func LeafAt(tree Content, path ...string) (any, error) {
	var cur any = tree
	for i, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("path %v: element %d is %T, not an object", path, i, cur)
		}
		cur, ok = m[key]
		if !ok {
			return nil, fmt.Errorf("path %v: key %q not found", path, key)
		}
	}
	return cur, nil
}
