package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"snapcheck/internal/format"
	"snapcheck/internal/store"
)

var historyFlags struct {
	testID string
	limit  int
	dbPath string
	format string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show verification run history",
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyFlags.testID, "test", "", "Filter by fully-qualified test identifier")
	f.IntVar(&historyFlags.limit, "limit", 20, "Max runs to show (0 = all)")
	f.StringVar(&historyFlags.dbPath, "db", store.DefaultDBPath, "Run-history DB path")
	f.StringVar(&historyFlags.format, "format", "table", "Output format (table, markdown)")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	s, err := store.Open(historyFlags.dbPath)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer s.Close()

	var runs []*store.Run
	if historyFlags.testID != "" {
		runs, err = s.ListRunsByTest(historyFlags.testID, historyFlags.limit)
	} else {
		runs, err = s.ListRecentRuns(historyFlags.limit)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	tbl := format.NewTable(format.ParseMode(historyFlags.format),
		"ID", "TEST", "MODE", "RESULT", "MISMATCHES", "RUN AT")
	tbl.WidthMax(2, 64)
	tbl.AlignRight(5)
	for _, r := range runs {
		tbl.Row(r.ID, r.TestID, r.Mode, r.Result, r.Mismatches, r.CreatedAt)
	}
	fmt.Fprintln(out, tbl.String())
	return nil
}
