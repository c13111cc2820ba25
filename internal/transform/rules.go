package transform

import (
	"fmt"
	"os"
	"path"

	yaml "gopkg.in/yaml.v3"

	"snapcheck/internal/placeholder"
	"snapcheck/internal/snapshot"
)

// RuleSet is a parsed rules file: transformer specs grouped by test-id glob.
// Fixtures can be re-recorded reproducibly without code changes.
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// Rule binds transformers to the tests whose identifiers match Tests
// (a path.Match glob; "*" matches everything).
type Rule struct {
	Tests        string   `yaml:"tests"`
	Transformers []Spec   `yaml:"transformers"`
	Bare         []string `yaml:"bare,omitempty"` // labels recorded without an index suffix
}

// Spec is one transformer entry in a rules file.
type Spec struct {
	Type    string `yaml:"type"` // key-value | json-path | regex | account-id | arn | timestamps | request-id
	Key     string `yaml:"key,omitempty"`
	Path    string `yaml:"path,omitempty"`
	Pattern string `yaml:"pattern,omitempty"`
	Label   string `yaml:"label,omitempty"`
}

// LoadRules reads and parses a YAML rules file.
func LoadRules(rulesPath string) (*RuleSet, error) {
	data, err := os.ReadFile(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules parses rules YAML and validates every spec.
func ParseRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse rules yaml: %w", err)
	}
	for i, rule := range rs.Rules {
		if rule.Tests == "" {
			return nil, fmt.Errorf("rule %d: tests glob is required", i)
		}
		for j, spec := range rule.Transformers {
			if _, err := build(spec); err != nil {
				return nil, fmt.Errorf("rule %d transformer %d: %w", i, j, err)
			}
		}
	}
	return &rs, nil
}

// For returns the transformers applying to testID, plus the labels to
// register as bare, in file order.
func (rs *RuleSet) For(testID string) ([]Transformer, []string, error) {
	var ts []Transformer
	var bare []string
	for _, rule := range rs.Rules {
		ok, err := path.Match(rule.Tests, testID)
		if err != nil {
			return nil, nil, fmt.Errorf("glob %q: %w", rule.Tests, err)
		}
		if !ok && rule.Tests != "*" {
			continue
		}
		for _, spec := range rule.Transformers {
			t, err := build(spec)
			if err != nil {
				return nil, nil, err
			}
			ts = append(ts, t)
		}
		bare = append(bare, rule.Bare...)
	}
	return ts, bare, nil
}

// ApplyFor runs every transformer matching testID over content.
func (rs *RuleSet) ApplyFor(testID string, content snapshot.Content, reg *placeholder.Registry) (snapshot.Content, error) {
	ts, bare, err := rs.For(testID)
	if err != nil {
		return nil, err
	}
	for _, label := range bare {
		reg.Bare(label)
	}
	return Apply(content, reg, ts...), nil
}

func build(spec Spec) (Transformer, error) {
	switch spec.Type {
	case "key-value":
		if spec.Key == "" || spec.Label == "" {
			return nil, fmt.Errorf("key-value needs key and label")
		}
		return KeyValue(spec.Key, spec.Label), nil
	case "json-path":
		if spec.Path == "" || spec.Label == "" {
			return nil, fmt.Errorf("json-path needs path and label")
		}
		return JSONPath(spec.Path, spec.Label), nil
	case "regex":
		if spec.Pattern == "" || spec.Label == "" {
			return nil, fmt.Errorf("regex needs pattern and label")
		}
		return Regex(spec.Pattern, spec.Label)
	case "account-id":
		return AccountID(), nil
	case "arn":
		return ARN(), nil
	case "timestamps":
		return Timestamps(), nil
	case "request-id":
		return RequestID(), nil
	}
	return nil, fmt.Errorf("unknown transformer type %q", spec.Type)
}
