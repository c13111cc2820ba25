// Package transform rewrites freshly captured content before it is recorded,
// replacing variable fields (generated names, ARNs, account IDs, timestamps)
// with placeholder tokens so the stored snapshot stays stable across runs.
package transform

import (
	"fmt"
	"regexp"
	"strings"

	"snapcheck/internal/placeholder"
	"snapcheck/internal/snapshot"
)

// Transformer rewrites one aspect of a content tree. Implementations return
// a new tree; the input is never mutated.
type Transformer interface {
	Apply(content snapshot.Content, reg *placeholder.Registry) snapshot.Content
}

// Apply runs transformers in order over content with a shared registry, so
// the same raw value gets the same token no matter which rule found it first.
func Apply(content snapshot.Content, reg *placeholder.Registry, ts ...Transformer) snapshot.Content {
	out := content
	for _, t := range ts {
		out = t.Apply(out, reg)
	}
	return out
}

// rewrite rebuilds a tree, replacing each node with fn's result. fn receives
// the dotted path and the (already-rewritten, for composites) node.
func rewrite(path string, v any, fn func(path string, v any) any) any {
	switch node := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		for k, child := range node {
			childPath := k
			if path != "" {
				childPath = path + "." + k
			}
			out[k] = rewrite(childPath, child, fn)
		}
		return fn(path, out)
	case []any:
		out := make([]any, len(node))
		for i, elem := range node {
			out[i] = rewrite(fmt.Sprintf("%s[%d]", path, i), elem, fn)
		}
		return fn(path, out)
	default:
		return fn(path, v)
	}
}

// keyValue replaces the string value at every key named Key.
type keyValue struct {
	key   string
	label string
}

// KeyValue returns a transformer tokenizing the value of every object key
// named key, anywhere in the tree.
func KeyValue(key, label string) Transformer {
	return &keyValue{key: key, label: label}
}

func (t *keyValue) Apply(content snapshot.Content, reg *placeholder.Registry) snapshot.Content {
	out := rewrite("", content, func(path string, v any) any {
		m, ok := v.(map[string]any)
		if !ok {
			return v
		}
		if s, ok := m[t.key].(string); ok && s != "" {
			m[t.key] = reg.Token(t.label, s)
		}
		return m
	})
	return out.(map[string]any)
}

// jsonPath replaces the leaf at one exact dotted path.
type jsonPath struct {
	path  string
	label string
}

// JSONPath returns a transformer tokenizing the string leaf at an exact
// dotted path (e.g. "describe_domain.DomainStatus.Endpoint").
func JSONPath(path, label string) Transformer {
	return &jsonPath{path: path, label: label}
}

func (t *jsonPath) Apply(content snapshot.Content, reg *placeholder.Registry) snapshot.Content {
	out := rewrite("", content, func(path string, v any) any {
		if path != t.path {
			return v
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return v
		}
		return reg.Token(t.label, s)
	})
	return out.(map[string]any)
}

// regexSub replaces every match of a pattern inside string leaves.
type regexSub struct {
	re    *regexp.Regexp
	label string
}

// Regex returns a transformer tokenizing every substring of a string leaf
// that matches pattern. Matches that are already placeholder tokens are
// left alone.
func Regex(pattern, label string) (Transformer, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("transformer pattern %q: %w", pattern, err)
	}
	return &regexSub{re: re, label: label}, nil
}

// MustRegex is Regex for compile-time-constant patterns.
func MustRegex(pattern, label string) Transformer {
	t, err := Regex(pattern, label)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *regexSub) Apply(content snapshot.Content, reg *placeholder.Registry) snapshot.Content {
	out := rewrite("", content, func(path string, v any) any {
		s, ok := v.(string)
		if !ok {
			return v
		}
		if strings.Contains(s, "<") && placeholder.CheckString(s) == nil && len(placeholder.Find(s)) > 0 {
			// Already templated; substituting inside tokens would corrupt them.
			return v
		}
		return t.re.ReplaceAllStringFunc(s, func(m string) string {
			return reg.Token(t.label, m)
		})
	})
	return out.(map[string]any)
}

// Cloud-generic transformers mirroring the fields every provisioning API
// leaks into responses.

// AccountID tokenizes bare 12-digit account identifiers.
func AccountID() Transformer {
	return MustRegex(`\b[0-9]{12}\b`, "account-id")
}

// ARN tokenizes partition and region segments of ARN strings.
type arnTransformer struct{}

var arnRe = regexp.MustCompile(`\barn:([a-z0-9-]+):([a-z0-9-]+):([a-z0-9-]*):([0-9]{12})?:`)

// ARN returns a transformer rewriting "arn:PARTITION:service:REGION:ACCOUNT:"
// prefixes to "arn:<partition>:service:<region>:<account-id>:".
func ARN() Transformer { return arnTransformer{} }

func (arnTransformer) Apply(content snapshot.Content, reg *placeholder.Registry) snapshot.Content {
	reg.Bare("partition")
	reg.Bare("region")
	reg.Bare("account-id")
	out := rewrite("", content, func(path string, v any) any {
		s, ok := v.(string)
		if !ok {
			return v
		}
		return arnRe.ReplaceAllStringFunc(s, func(m string) string {
			parts := arnRe.FindStringSubmatch(m)
			region := parts[3]
			if region != "" {
				region = reg.Token("region", region)
			}
			account := parts[4]
			if account != "" {
				account = reg.Token("account-id", account)
			}
			return fmt.Sprintf("arn:%s:%s:%s:%s:", reg.Token("partition", parts[1]), parts[2], region, account)
		})
	})
	return out.(map[string]any)
}

// Timestamps tokenizes RFC3339 timestamps and 10/13-digit epoch strings.
// The epoch branch only matches runs of exactly 10 or 13 digits, so 12-digit
// account identifiers are left for AccountID.
func Timestamps() Transformer {
	return MustRegex(`\b\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})\b|\b\d{10}(?:\d{3})?\b`, "timestamp")
}

// RequestID tokenizes the amazon-style request id header value wherever the
// key appears.
func RequestID() Transformer {
	return KeyValue("x-amzn-requestid", "request-id")
}
