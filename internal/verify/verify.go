// Package verify drives the snapshot lifecycle: matching fresh content
// against a recorded fixture, recording new expectations, and validating
// fixture files themselves.
package verify

import (
	"fmt"

	"snapcheck/internal/logging"
	"snapcheck/internal/match"
	"snapcheck/internal/placeholder"
	"snapcheck/internal/snapshot"
	"snapcheck/internal/store"
	"snapcheck/internal/transform"
)

// Mode selects what Run does with fresh content.
type Mode int

const (
	// ModeVerify compares fresh content against the stored record and fails
	// on any mismatch.
	ModeVerify Mode = iota
	// ModeRecord applies transformers to fresh content and overwrites the
	// stored record. Used on first capture and on intentional behavior change.
	ModeRecord
	// ModeSkip compares and reports but never fails, for migration windows.
	ModeSkip
)

func (m Mode) String() string {
	switch m {
	case ModeRecord:
		return "record"
	case ModeSkip:
		return "skip"
	default:
		return "verify"
	}
}

// Outcome is the result of one Run.
type Outcome struct {
	TestID string
	Mode   Mode
	// Result is one of the store result constants.
	Result string
	// Match is set in verify and skip modes.
	Match *match.Result
	// RecordedDate of the record consulted or written.
	RecordedDate string
}

// Verifier runs snapshot operations against one fixture file.
type Verifier struct {
	File *snapshot.File
	// Path is where ModeRecord saves the updated fixture.
	Path string
	Mode Mode
	// Rules configures recording-side transformers; nil means record raw.
	Rules *transform.RuleSet
	// History receives one run row per Run call; nil disables history.
	History store.Store
}

// Run executes the verifier's mode for one test identifier with freshly
// captured content.
func (v *Verifier) Run(testID string, fresh snapshot.Content) (*Outcome, error) {
	logger := logging.New("verify")

	var out *Outcome
	var err error
	switch v.Mode {
	case ModeRecord:
		out, err = v.record(testID, fresh)
	default:
		out, err = v.compare(testID, fresh)
	}
	if err != nil {
		return nil, err
	}

	if v.History != nil {
		mismatches := 0
		if out.Match != nil {
			mismatches = len(out.Match.Mismatches)
		}
		if _, herr := v.History.SaveRun(&store.Run{
			TestID:       testID,
			FixturePath:  v.Path,
			Mode:         v.Mode.String(),
			Result:       out.Result,
			Mismatches:   mismatches,
			RecordedDate: out.RecordedDate,
		}); herr != nil {
			// History is advisory; a broken run DB must not fail the verify.
			logger.Warn("save run history", "error", herr)
		}
	}
	return out, nil
}

func (v *Verifier) compare(testID string, fresh snapshot.Content) (*Outcome, error) {
	rec, err := v.File.Lookup(testID)
	if err != nil {
		return nil, err
	}
	if len(rec.RecordedContent) == 0 {
		return nil, fmt.Errorf("%q: recorded content is empty", testID)
	}

	res := match.Compare(rec.RecordedContent, fresh)
	out := &Outcome{
		TestID:       testID,
		Mode:         v.Mode,
		Match:        res,
		RecordedDate: rec.RecordedDate,
	}
	switch {
	case res.OK():
		out.Result = store.ResultPass
	case v.Mode == ModeSkip:
		out.Result = store.ResultSkipped
	default:
		out.Result = store.ResultFail
	}
	return out, nil
}

func (v *Verifier) record(testID string, fresh snapshot.Content) (*Outcome, error) {
	if len(fresh) == 0 {
		return nil, fmt.Errorf("%q: refusing to record empty content", testID)
	}

	content := fresh
	if v.Rules != nil {
		reg := placeholder.NewRegistry()
		transformed, err := v.Rules.ApplyFor(testID, fresh, reg)
		if err != nil {
			return nil, fmt.Errorf("apply transformers: %w", err)
		}
		content = transformed
	}

	rec := snapshot.NewRecord(content)
	v.File.Put(testID, rec)
	if v.Path != "" {
		if err := v.File.Save(v.Path); err != nil {
			return nil, err
		}
	}
	return &Outcome{
		TestID:       testID,
		Mode:         ModeRecord,
		Result:       store.ResultRecorded,
		RecordedDate: rec.RecordedDate,
	}, nil
}
