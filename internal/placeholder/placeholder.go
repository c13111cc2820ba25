// Package placeholder implements the bracketed token grammar used in
// snapshot files to stand in for redacted or non-deterministic values:
//
//	<label>       single occurrence, e.g. <account-id>
//	<label:N>     Nth distinct value of the label, e.g. <domain-name:2>
//
// Tokens may be embedded inside larger strings, as in templated ARNs.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// tokenRe matches one grammatically valid token. Label: letter first, then
// letters, digits, underscore, hyphen. Index: decimal integer.
var tokenRe = regexp.MustCompile(`<([A-Za-z][A-Za-z0-9_-]*)(?::([0-9]+))?>`)

// spanRe matches anything token-shaped, valid or not, for validation.
var spanRe = regexp.MustCompile(`<[^<>]*>`)

// Token is one parsed placeholder. Index 0 means the bare <label> form.
type Token struct {
	Label string
	Index int
	Raw   string // the literal token text, e.g. "<domain-name:1>"
}

// String returns the canonical token text.
func (t Token) String() string {
	if t.Index == 0 {
		return "<" + t.Label + ">"
	}
	return fmt.Sprintf("<%s:%d>", t.Label, t.Index)
}

// TokenError reports a string that looks like a token but violates the grammar.
type TokenError struct {
	Input  string
	Reason string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("invalid placeholder token %q: %s", e.Input, e.Reason)
}

// Parse parses s, which must be exactly one token.
func Parse(s string) (Token, error) {
	m := tokenRe.FindStringSubmatch(s)
	if m == nil || m[0] != s {
		return Token{}, &TokenError{Input: s, Reason: "want <label> or <label:integer>"}
	}
	tok := Token{Label: m[1], Raw: s}
	if m[2] != "" {
		n, err := strconv.Atoi(m[2])
		if err != nil || n < 1 {
			return Token{}, &TokenError{Input: s, Reason: "index must be a positive integer"}
		}
		tok.Index = n
	}
	return tok, nil
}

// Match is a token found embedded in a string, with byte offsets.
type Match struct {
	Token Token
	Start int
	End   int
}

// Find returns all valid tokens embedded in s, in order of appearance.
func Find(s string) []Match {
	var out []Match
	for _, loc := range tokenRe.FindAllStringSubmatchIndex(s, -1) {
		raw := s[loc[0]:loc[1]]
		tok, err := Parse(raw)
		if err != nil {
			continue
		}
		out = append(out, Match{Token: tok, Start: loc[0], End: loc[1]})
	}
	return out
}

// CheckString validates every token-shaped span in s against the grammar.
// A span like <Bad Token!> or <:3> is an error; strings with no angle
// brackets pass trivially.
func CheckString(s string) error {
	for _, span := range spanRe.FindAllString(s, -1) {
		if _, err := Parse(span); err != nil {
			return err
		}
	}
	return nil
}

// Pattern compiles a templated string into an anchored regexp. Each token
// becomes a capture group that may bind empty text (an ARN with an empty
// region segment still matches); groups[i] names the token bound to capture
// group i+1. Literal segments are quoted. Repeated-token consistency is not
// expressible in RE2 (no backreferences) and is enforced by the matcher.
func Pattern(s string) (re *regexp.Regexp, groups []Token, err error) {
	matches := Find(s)
	if len(matches) == 0 {
		return nil, nil, fmt.Errorf("no placeholder tokens in %q", s)
	}
	var b strings.Builder
	b.WriteString("^")
	last := 0
	for _, m := range matches {
		b.WriteString(regexp.QuoteMeta(s[last:m.Start]))
		b.WriteString("(.*?)")
		groups = append(groups, m.Token)
		last = m.End
	}
	b.WriteString(regexp.QuoteMeta(s[last:]))
	b.WriteString("$")

	re, err = regexp.Compile(b.String())
	if err != nil {
		return nil, nil, fmt.Errorf("compile pattern for %q: %w", s, err)
	}
	return re, groups, nil
}
