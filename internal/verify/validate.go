package verify

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"snapcheck/internal/placeholder"
	"snapcheck/internal/snapshot"

	"github.com/google/go-cmp/cmp"
)

// Problem is one validation finding in a fixture file.
type Problem struct {
	TestID string // empty for file-level problems
	Path   string // content path, when applicable
	Detail string
}

func (p Problem) String() string {
	switch {
	case p.TestID == "":
		return p.Detail
	case p.Path == "":
		return fmt.Sprintf("%s: %s", p.TestID, p.Detail)
	default:
		return fmt.Sprintf("%s: %s: %s", p.TestID, p.Path, p.Detail)
	}
}

// FileReport is the validation result for one fixture file.
type FileReport struct {
	Path     string
	Records  int
	Problems []Problem
}

// OK reports whether the file validated cleanly.
func (r *FileReport) OK() bool { return len(r.Problems) == 0 }

// ValidateFile checks one fixture file for the full set of well-formedness
// properties: strict parse (duplicate keys rejected), non-empty records with
// permitted leaf types, placeholder grammar, and serialization round-trip
// identity.
func ValidateFile(path string) (*FileReport, error) {
	report := &FileReport{Path: path}

	f, err := snapshot.Load(path)
	if err != nil {
		report.Problems = append(report.Problems, Problem{Detail: err.Error()})
		return report, nil
	}
	report.Records = f.Len()

	for _, testID := range f.TestIDs() {
		rec, lookupErr := f.Lookup(testID)
		if lookupErr != nil {
			report.Problems = append(report.Problems, Problem{TestID: testID, Detail: lookupErr.Error()})
			continue
		}
		validateRecord(report, testID, rec)
	}

	validateRoundTrip(report, f)
	return report, nil
}

func validateRecord(report *FileReport, testID string, rec *snapshot.Record) {
	if rec.RecordedDate == "" {
		report.Problems = append(report.Problems, Problem{TestID: testID, Detail: "missing recorded-date"})
	}
	if len(rec.RecordedContent) == 0 {
		report.Problems = append(report.Problems, Problem{TestID: testID, Detail: "recorded-content is empty"})
		return
	}

	_ = snapshot.Walk(rec.RecordedContent, func(path string, v any) error {
		switch node := v.(type) {
		case map[string]any, []any:
			// interior node; nothing to check
		case string:
			if err := placeholder.CheckString(node); err != nil {
				report.Problems = append(report.Problems, Problem{TestID: testID, Path: path, Detail: err.Error()})
			}
		case float64, bool, nil:
			// permitted leaf
		default:
			report.Problems = append(report.Problems, Problem{
				TestID: testID, Path: path,
				Detail: fmt.Sprintf("leaf type %T not permitted", v),
			})
		}
		return nil
	})
}

func validateRoundTrip(report *FileReport, f *snapshot.File) {
	data, err := f.Bytes()
	if err != nil {
		report.Problems = append(report.Problems, Problem{Detail: fmt.Sprintf("serialize: %v", err)})
		return
	}
	f2, err := snapshot.Parse(data)
	if err != nil {
		report.Problems = append(report.Problems, Problem{Detail: fmt.Sprintf("re-parse: %v", err)})
		return
	}
	for _, id := range f.TestIDs() {
		r1, _ := f.Lookup(id)
		r2, err := f2.Lookup(id)
		if err != nil {
			report.Problems = append(report.Problems, Problem{TestID: id, Detail: "record lost in round trip"})
			continue
		}
		if diff := cmp.Diff(r1, r2); diff != "" {
			report.Problems = append(report.Problems, Problem{
				TestID: id,
				Detail: "round trip changed the tree:\n" + diff,
			})
		}
	}
}

// ValidateFiles validates fixture files concurrently, up to parallel at a
// time (<=0 means one per file). Reports come back sorted by path.
func ValidateFiles(ctx context.Context, paths []string, parallel int) ([]*FileReport, error) {
	g, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}

	var mu sync.Mutex
	reports := make([]*FileReport, 0, len(paths))

	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			report, err := ValidateFile(path)
			if err != nil {
				return err
			}
			mu.Lock()
			reports = append(reports, report)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].Path < reports[j].Path })
	return reports, nil
}
