package main

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mgaq/internal/advisory"
	"mgaq/internal/classify"
	"mgaq/internal/errors"
	"mgaq/internal/feedback"
	"mgaq/internal/psast"
)

var (
	checkFile           string
	checkErrorFile      string
	checkFormat         string
	checkFailOnAdvisory bool
)

var checkCmd = &cobra.Command{
	Use:   "check [command line...]",
	Short: "Check a command line and its error for advanced query problems",
	Long: `Check a PowerShell command line, and optionally the Microsoft Graph error
its execution produced, for commands that need advanced query parameters.

The command line is taken from the arguments, from --file, or from stdin when
no arguments (or a single "-") are given. Flags must precede the command
line; everything after the first argument belongs to it. Arguments are joined
with single spaces after the shell has removed its quoting, so use --file or
stdin to check the exact text. A command line that does not parse is reported
as a warning and only the error is checked.

The error is read from a JSON, YAML or TOML descriptor file with the fields
code, message, target and commandText.

Examples:
  mgaq check Get-MgUser -CountVariable c
  mgaq check --file script.ps1 --format json
  mgaq check --error error.yaml Get-Nothing
  echo 'Get-MgGroup -CountVariable n' | mgaq check --fail-on-advisory`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkFile, "file", "", "Read the command line from a file")
	checkCmd.Flags().StringVar(&checkErrorFile, "error", "", "Error descriptor file (json, yaml, toml)")
	checkCmd.Flags().StringVar(&checkFormat, "format", "", "Output format (json, human)")
	checkCmd.Flags().BoolVar(&checkFailOnAdvisory, "fail-on-advisory", false, "Exit with status 1 when an advisory is produced")
	checkCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(checkCmd)
}

// CheckResponse is the output of the check command
type CheckResponse struct {
	Advisory *advisory.Payload `json:"advisory"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	src, err := readCommandLine(cmd, args)
	if err != nil {
		return err
	}

	root, err := psast.Parse(src)
	if err != nil {
		logger.Warn("Failed to parse command line; checking the error only", "error", err)
		root = nil
	}

	var lastErr *classify.ErrorDescriptor
	if checkErrorFile != "" {
		lastErr, err = classify.LoadDescriptor(checkErrorFile)
		if err != nil {
			return errors.New(errors.DescriptorInvalid, "failed to load error descriptor", err)
		}
	}

	provider := feedback.NewProvider(logger)
	payload, err := provider.GetFeedback(cmd.Context(), feedback.NewStaticContext(root, lastErr))
	if err != nil {
		return errors.New(errors.Cancelled, "check interrupted", err)
	}

	if err := writeResponse(cmd.OutOrStdout(), &CheckResponse{Advisory: payload}, checkFormat); err != nil {
		return err
	}
	if payload != nil && checkFailOnAdvisory {
		exitStatus = 1
	}
	return nil
}

func readCommandLine(cmd *cobra.Command, args []string) (string, error) {
	if checkFile != "" {
		if len(args) > 0 {
			return "", errors.Errorf(errors.InvalidInput, "--file cannot be combined with a command line argument")
		}
		data, err := os.ReadFile(checkFile)
		if err != nil {
			return "", errors.New(errors.InvalidInput, "failed to read "+checkFile, err)
		}
		return string(data), nil
	}
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", errors.New(errors.InvalidInput, "failed to read stdin", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}
