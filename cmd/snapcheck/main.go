// snapcheck is the snapshot-fixture toolkit CLI: validate recorded fixtures,
// verify fresh API captures against them, re-record on intentional change,
// and inspect verification history.
//
// Usage:
//
//	snapcheck validate <fixture>...
//	snapcheck verify   --snapshot <fixture> --test <id> -f <capture.json>
//	snapcheck diff     --snapshot <fixture> --test <id> -f <capture.json>
//	snapcheck record   --snapshot <fixture> --test <id> -f <capture.json> [--rules <rules.yaml>]
//	snapcheck history  [--test <id>] [--limit N]
//	snapcheck serve    [--fixtures <dir>]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"snapcheck/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "snapcheck",
	Short: "Golden-snapshot verification for cloud provisioning tests",
	Long: "Snapcheck manages recorded API-response snapshots: fixtures mapping test\n" +
		"identifiers to captured responses, with placeholder tokens standing in for\n" +
		"generated or redacted values.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level, err := logging.ParseLevel(rootFlags.logLevel)
		if err != nil {
			return err
		}
		logging.Init(level, rootFlags.logFormat)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
