package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"snapcheck/internal/snapshot"
	"snapcheck/internal/store"
	"snapcheck/internal/transform"
	"snapcheck/internal/verify"
)

var recordFlags struct {
	snapshotPath string
	testID       string
	capturePath  string
	rulesPath    string
	dbPath       string
	noHistory    bool
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record or overwrite a snapshot from a fresh capture",
	Long: `Applies the transformer rules to the captured content (replacing generated
names, ARNs, account IDs and timestamps with placeholder tokens) and writes
the record into the fixture, stamping a new recorded-date. Existing records
for the test identifier are overwritten.`,
	RunE: runRecord,
}

func init() {
	f := recordCmd.Flags()
	f.StringVar(&recordFlags.snapshotPath, "snapshot", "", "Snapshot fixture path (required; created if absent)")
	f.StringVar(&recordFlags.testID, "test", "", "Fully-qualified test identifier (required)")
	f.StringVarP(&recordFlags.capturePath, "file", "f", "", "Captured content JSON path (required)")
	f.StringVar(&recordFlags.rulesPath, "rules", "", "Transformer rules YAML path")
	f.StringVar(&recordFlags.dbPath, "db", store.DefaultDBPath, "Run-history DB path")
	f.BoolVar(&recordFlags.noHistory, "no-history", false, "Do not record this run in the history DB")

	_ = recordCmd.MarkFlagRequired("snapshot")
	_ = recordCmd.MarkFlagRequired("test")
	_ = recordCmd.MarkFlagRequired("file")
}

func runRecord(cmd *cobra.Command, _ []string) error {
	f, err := snapshot.Load(recordFlags.snapshotPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		f = snapshot.NewFile()
	}

	fresh, err := loadCapture(recordFlags.capturePath)
	if err != nil {
		return err
	}

	var rules *transform.RuleSet
	if recordFlags.rulesPath != "" {
		rules, err = transform.LoadRules(recordFlags.rulesPath)
		if err != nil {
			return err
		}
	}

	v := &verify.Verifier{
		File:  f,
		Path:  recordFlags.snapshotPath,
		Mode:  verify.ModeRecord,
		Rules: rules,
	}
	if !recordFlags.noHistory {
		hist, err := store.Open(recordFlags.dbPath)
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer hist.Close()
		v.History = hist
	}

	out, err := v.Run(recordFlags.testID, fresh)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s (%s) into %s\n",
		out.TestID, out.RecordedDate, recordFlags.snapshotPath)
	return nil
}
