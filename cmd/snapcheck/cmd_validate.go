package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"snapcheck/internal/format"
	"snapcheck/internal/verify"
)

var validateFlags struct {
	parallel int
	format   string
}

var validateCmd = &cobra.Command{
	Use:   "validate <fixture>...",
	Short: "Check snapshot fixtures for well-formedness",
	Long: `Validates each fixture file: strict JSON parse with duplicate keys rejected,
non-empty records with permitted leaf types, placeholder token grammar, and
serialization round-trip stability.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	f := validateCmd.Flags()
	f.IntVar(&validateFlags.parallel, "parallel", 4, "Max fixtures validated concurrently")
	f.StringVar(&validateFlags.format, "format", "table", "Output format (table, markdown)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	reports, err := verify.ValidateFiles(cmd.Context(), args, validateFlags.parallel)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	mode := format.ParseMode(validateFlags.format)
	tbl := format.NewTable(mode, "FIXTURE", "RECORDS", "PROBLEMS")
	tbl.AlignRight(2)

	failed := 0
	for _, r := range reports {
		tbl.Row(r.Path, r.Records, len(r.Problems))
		if !r.OK() {
			failed++
		}
	}
	fmt.Fprintln(out, tbl.String())

	for _, r := range reports {
		for _, p := range r.Problems {
			fmt.Fprintf(out, "%s: %s\n", r.Path, p)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d fixture(s) failed validation", failed, len(reports))
	}
	fmt.Fprintf(out, "%d fixture(s) valid\n", len(reports))
	return nil
}
