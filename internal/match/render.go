package match

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"

	"snapcheck/internal/format"
)

// Render produces a human-readable report for a failed comparison: a table
// of mismatch paths, then a go-cmp diff for each composite disagreement.
func Render(res *Result, mode format.Mode) string {
	if res.OK() {
		return "match: recorded content and fresh content agree"
	}

	tbl := format.NewTable(mode, "PATH", "KIND", "RECORDED", "FRESH")
	tbl.WidthMax(3, 48)
	for _, m := range res.Mismatches {
		tbl.Row(m.Path, string(m.Kind), short(m.Want), short(m.Got))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d mismatch(es)\n", len(res.Mismatches))
	b.WriteString(tbl.String())
	b.WriteString("\n")

	for _, m := range res.Mismatches {
		if isComposite(m.Want) || isComposite(m.Got) {
			fmt.Fprintf(&b, "\n--- %s (-recorded +fresh)\n%s", m.Path, cmp.Diff(m.Want, m.Got))
		}
	}
	return b.String()
}

func isComposite(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

func short(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any:
		return fmt.Sprintf("{...%d keys}", len(t))
	case []any:
		return fmt.Sprintf("[...%d items]", len(t))
	default:
		return fmt.Sprint(v)
	}
}
