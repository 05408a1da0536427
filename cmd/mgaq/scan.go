package main

import (
	"github.com/spf13/cobra"

	"mgaq/internal/scan"
)

var (
	scanFormat         string
	scanConcurrency    int
	scanFailOnFindings bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <path>...",
	Short: "Scan script files for commands needing advanced query parameters",
	Long: `Scan PowerShell scripts for Microsoft Graph commands that set -CountVariable
without -ConsistencyLevel. Directories are walked for the configured
extensions (scan.extensions) skipping scan.ignore; files named explicitly are
always scanned.

Examples:
  mgaq scan ./scripts
  mgaq scan deploy.ps1 --format json
  mgaq scan . --concurrency 8 --fail-on-findings`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanFormat, "format", "", "Output format (json, human)")
	scanCmd.Flags().IntVar(&scanConcurrency, "concurrency", 0, "Files scanned in parallel (default: scan.concurrency)")
	scanCmd.Flags().BoolVar(&scanFailOnFindings, "fail-on-findings", false, "Exit with status 1 when any command is flagged")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	opts := scan.OptionsFromConfig(cfg)
	if scanConcurrency > 0 {
		opts.Concurrency = scanConcurrency
	}

	report, err := scan.NewScanner(opts, logger).ScanPaths(cmd.Context(), args)
	if err != nil {
		return err
	}
	if err := writeResponse(cmd.OutOrStdout(), report, scanFormat); err != nil {
		return err
	}
	if scanFailOnFindings && report.FindingsCount > 0 {
		exitStatus = 1
	}
	return nil
}
