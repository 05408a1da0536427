package main

import (
	"github.com/spf13/cobra"

	"mgaq/internal/classify"
	"mgaq/internal/errors"
)

var (
	classifyCode      string
	classifyMessage   string
	classifyFilter    string
	classifyCommand   string
	classifyErrorFile string
	classifyFormat    string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a Microsoft Graph error",
	Long: `Classify a Microsoft Graph error against the known advanced query rejections
and print the category and the command that caused it.

Examples:
  mgaq classify --code Request_BadRequest,Get_MgUser --filter 'assignedLicenses/$count eq 0' \
      --command 'Get-MgUser -Filter assignedLicenses/$count eq 0'
  mgaq classify --error error.json --format json`,
	Args: cobra.NoArgs,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyCode, "code", "", "Fully qualified error id, e.g. Request_UnsupportedQuery,Get_MgUser")
	classifyCmd.Flags().StringVar(&classifyMessage, "message", "", "Error message")
	classifyCmd.Flags().StringVar(&classifyFilter, "filter", "", "Filter value of the error target")
	classifyCmd.Flags().StringVar(&classifyCommand, "command", "", "Command text that produced the error")
	classifyCmd.Flags().StringVar(&classifyErrorFile, "error", "", "Error descriptor file (json, yaml, toml)")
	classifyCmd.Flags().StringVar(&classifyFormat, "format", "", "Output format (json, human)")
	rootCmd.AddCommand(classifyCmd)
}

// ClassifyResponse is the output of the classify command
type ClassifyResponse struct {
	Category classify.Category `json:"category"`
	Command  *string           `json:"command"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	d, err := classifyDescriptor(cmd)
	if err != nil {
		return err
	}

	c := classify.NewClassifier(classify.WithLogger(logger))
	resp := &ClassifyResponse{Category: c.Categorize(cmd.Context(), d)}
	if command, ok := c.Classify(cmd.Context(), d); ok {
		resp.Command = &command
	}
	return writeResponse(cmd.OutOrStdout(), resp, classifyFormat)
}

// classifyDescriptor builds the descriptor from --error or the field flags.
// Flags that were not given stay absent.
func classifyDescriptor(cmd *cobra.Command) (*classify.ErrorDescriptor, error) {
	flags := cmd.Flags()
	if classifyErrorFile != "" {
		if flags.Changed("code") || flags.Changed("message") || flags.Changed("filter") || flags.Changed("command") {
			return nil, errors.Errorf(errors.InvalidInput, "--error cannot be combined with descriptor field flags")
		}
		d, err := classify.LoadDescriptor(classifyErrorFile)
		if err != nil {
			return nil, errors.New(errors.DescriptorInvalid, "failed to load error descriptor", err)
		}
		return d, nil
	}
	if classifyCode == "" {
		return nil, errors.Errorf(errors.InvalidInput, "--code or --error is required")
	}

	d := &classify.ErrorDescriptor{Code: classifyCode}
	if flags.Changed("message") {
		msg := classifyMessage
		d.Message = &msg
	}
	if flags.Changed("filter") {
		filter := classifyFilter
		d.Target = &classify.TargetPayload{Filter: &filter}
	}
	if flags.Changed("command") {
		text := classifyCommand
		d.CommandText = &text
	}
	return d, nil
}
