package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"mgaq/internal/errors"
	"mgaq/internal/scan"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// resolveFormat prefers the command flag over the configured default
func resolveFormat(flag string) (OutputFormat, error) {
	f := flag
	if f == "" && cfg != nil {
		f = cfg.Output.Format
	}
	switch OutputFormat(strings.ToLower(f)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatHuman, "":
		return FormatHuman, nil
	default:
		return "", errors.Errorf(errors.InvalidInput, "unsupported format: %s", f)
	}
}

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data) + "\n", nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *CheckResponse:
		return formatCheckHuman(v), nil
	case *ClassifyResponse:
		return formatClassifyHuman(v), nil
	case *scan.Report:
		return formatScanHuman(v), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatCheckHuman(resp *CheckResponse) string {
	if resp.Advisory == nil {
		return "No advanced query issues detected.\n"
	}
	return resp.Advisory.String()
}

func formatClassifyHuman(resp *ClassifyResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s\n", resp.Category)
	if resp.Command != nil {
		fmt.Fprintf(&b, "Command:  %s\n", *resp.Command)
	} else {
		b.WriteString("Command:  (none)\n")
	}
	return b.String()
}

func formatScanHuman(report *scan.Report) string {
	var b strings.Builder
	for _, f := range report.Files {
		switch {
		case f.Error != "":
			fmt.Fprintf(&b, "%s: error: %s\n", f.Path, f.Error)
		case f.Skipped != "":
			fmt.Fprintf(&b, "%s: skipped: %s\n", f.Path, f.Skipped)
		}
		for _, finding := range f.Findings {
			fmt.Fprintf(&b, "%s:%d:%d: %s\n", f.Path, finding.Line, finding.Column, finding.Command)
		}
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%d file(s) scanned, %d flagged, %d finding(s), %d error(s)",
		report.FilesScanned, report.FilesFlagged, report.FindingsCount, report.Errors)
	if report.FilesSkipped > 0 {
		fmt.Fprintf(&b, ", %d skipped", report.FilesSkipped)
	}
	b.WriteString("\n")
	return b.String()
}

// writeResponse formats resp and writes it to the command output
func writeResponse(out io.Writer, resp interface{}, formatFlag string) error {
	format, err := resolveFormat(formatFlag)
	if err != nil {
		return err
	}
	s, err := FormatResponse(resp, format)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, s)
	return err
}
