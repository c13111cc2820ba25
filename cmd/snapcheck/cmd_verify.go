package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"snapcheck/internal/format"
	"snapcheck/internal/match"
	"snapcheck/internal/snapshot"
	"snapcheck/internal/store"
	"snapcheck/internal/verify"
)

var verifyFlags struct {
	snapshotPath string
	testID       string
	capturePath  string
	dbPath       string
	noHistory    bool
	skip         bool
	format       string
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compare a fresh capture against its recorded snapshot",
	RunE:  runVerify,
}

func init() {
	f := verifyCmd.Flags()
	f.StringVar(&verifyFlags.snapshotPath, "snapshot", "", "Snapshot fixture path (required)")
	f.StringVar(&verifyFlags.testID, "test", "", "Fully-qualified test identifier (required)")
	f.StringVarP(&verifyFlags.capturePath, "file", "f", "", "Captured content JSON path (required)")
	f.StringVar(&verifyFlags.dbPath, "db", store.DefaultDBPath, "Run-history DB path")
	f.BoolVar(&verifyFlags.noHistory, "no-history", false, "Do not record this run in the history DB")
	f.BoolVar(&verifyFlags.skip, "skip", false, "Report mismatches without failing (migration mode)")
	f.StringVar(&verifyFlags.format, "format", "table", "Output format (table, markdown)")

	_ = verifyCmd.MarkFlagRequired("snapshot")
	_ = verifyCmd.MarkFlagRequired("test")
	_ = verifyCmd.MarkFlagRequired("file")
}

func runVerify(cmd *cobra.Command, _ []string) error {
	f, err := snapshot.Load(verifyFlags.snapshotPath)
	if err != nil {
		return err
	}
	fresh, err := loadCapture(verifyFlags.capturePath)
	if err != nil {
		return err
	}

	mode := verify.ModeVerify
	if verifyFlags.skip {
		mode = verify.ModeSkip
	}

	v := &verify.Verifier{
		File: f,
		Path: verifyFlags.snapshotPath,
		Mode: mode,
	}
	if !verifyFlags.noHistory {
		hist, err := store.Open(verifyFlags.dbPath)
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer hist.Close()
		v.History = hist
	}

	out, err := v.Run(verifyFlags.testID, fresh)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, match.Render(out.Match, format.ParseMode(verifyFlags.format)))
	if out.Result == store.ResultFail {
		return fmt.Errorf("snapshot mismatch for %s", out.TestID)
	}
	return nil
}

// loadCapture reads a captured content JSON file: either a bare content
// object, or a full record with a recorded-content key (as written by
// snapcheck record), which is unwrapped.
func loadCapture(path string) (snapshot.Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}
	var content map[string]any
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("parse capture: %w", err)
	}
	if inner, ok := content["recorded-content"].(map[string]any); ok && len(content) <= 2 {
		return inner, nil
	}
	return content, nil
}
