package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"snapcheck/internal/format"
	"snapcheck/internal/match"
	"snapcheck/internal/snapshot"
)

var diffFlags struct {
	snapshotPath string
	testID       string
	capturePath  string
	format       string
}

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show mismatches between a capture and its snapshot, without failing",
	RunE:  runDiff,
}

func init() {
	f := diffCmd.Flags()
	f.StringVar(&diffFlags.snapshotPath, "snapshot", "", "Snapshot fixture path (required)")
	f.StringVar(&diffFlags.testID, "test", "", "Fully-qualified test identifier (required)")
	f.StringVarP(&diffFlags.capturePath, "file", "f", "", "Captured content JSON path (required)")
	f.StringVar(&diffFlags.format, "format", "table", "Output format (table, markdown)")

	_ = diffCmd.MarkFlagRequired("snapshot")
	_ = diffCmd.MarkFlagRequired("test")
	_ = diffCmd.MarkFlagRequired("file")
}

func runDiff(cmd *cobra.Command, _ []string) error {
	f, err := snapshot.Load(diffFlags.snapshotPath)
	if err != nil {
		return err
	}
	rec, err := f.Lookup(diffFlags.testID)
	if err != nil {
		return err
	}
	fresh, err := loadCapture(diffFlags.capturePath)
	if err != nil {
		return err
	}

	res := match.Compare(rec.RecordedContent, fresh)
	fmt.Fprintln(cmd.OutOrStdout(), match.Render(res, format.ParseMode(diffFlags.format)))
	return nil
}
