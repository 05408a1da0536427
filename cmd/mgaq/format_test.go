package main

import (
	"strings"
	"testing"

	"mgaq/internal/advisory"
	"mgaq/internal/config"
	"mgaq/internal/scan"
)

func TestFormatResponse_JSON(t *testing.T) {
	resp := map[string]interface{}{
		"key": "value",
		"num": 42,
	}

	result, err := FormatResponse(resp, FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result, `"key": "value"`) {
		t.Error("JSON output missing expected key")
	}
	if !strings.Contains(result, `"num": 42`) {
		t.Error("JSON output missing expected number")
	}
	if !strings.HasSuffix(result, "}\n") {
		t.Error("JSON output should end with a newline")
	}
}

func TestFormatResponse_UnsupportedFormat(t *testing.T) {
	_, err := FormatResponse(map[string]string{"key": "value"}, "xml")
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("error should mention unsupported format, got: %v", err)
	}
}

func TestFormatHuman_UnknownFallsBackToJSON(t *testing.T) {
	result, err := formatHuman(struct {
		Name string `json:"name"`
	}{Name: "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, `"name": "test"`) {
		t.Errorf("expected JSON fallback, got %q", result)
	}
}

func TestFormatCheckHuman(t *testing.T) {
	if got := formatCheckHuman(&CheckResponse{}); got != "No advanced query issues detected.\n" {
		t.Errorf("empty check = %q", got)
	}
	payload := advisory.Build([]string{"Get-MgUser -CountVariable c\n  -Top 5"})
	got := formatCheckHuman(&CheckResponse{Advisory: payload})
	if !strings.Contains(got, "\n    Get-MgUser -CountVariable c\n      -Top 5\n") {
		t.Errorf("multi-line command not indented:\n%s", got)
	}
}

func TestFormatClassifyHuman(t *testing.T) {
	cmd := "Get-MgUser -Search x"
	got := formatClassifyHuman(&ClassifyResponse{Category: "UNSUPPORTED_SEARCH", Command: &cmd})
	if got != "Category: UNSUPPORTED_SEARCH\nCommand:  Get-MgUser -Search x\n" {
		t.Errorf("got %q", got)
	}
	got = formatClassifyHuman(&ClassifyResponse{Category: "NO_MATCH"})
	if got != "Category: NO_MATCH\nCommand:  (none)\n" {
		t.Errorf("got %q", got)
	}
}

func TestFormatScanHuman(t *testing.T) {
	report := &scan.Report{
		Files: []scan.FileResult{
			{Path: "a.ps1", Findings: []scan.Finding{{Command: "Get-MgUser -CountVariable c", Line: 3, Column: 5}}},
			{Path: "b.ps1", Error: "parse error at 1:1: boom"},
			{Path: "c.ps1", Skipped: "file too large"},
		},
		FilesScanned:  2,
		FilesSkipped:  1,
		FilesFlagged:  1,
		FindingsCount: 1,
		Errors:        1,
	}
	want := "a.ps1:3:5: Get-MgUser -CountVariable c\n" +
		"b.ps1: error: parse error at 1:1: boom\n" +
		"c.ps1: skipped: file too large\n" +
		"\n" +
		"2 file(s) scanned, 1 flagged, 1 finding(s), 1 error(s), 1 skipped\n"
	if got := formatScanHuman(report); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestResolveFormat(t *testing.T) {
	saved := cfg
	t.Cleanup(func() { cfg = saved })

	cfg = config.DefaultConfig()
	cfg.Output.Format = "json"

	tests := []struct {
		flag    string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"human", FormatHuman, false},
		{"JSON", FormatJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := resolveFormat(tt.flag)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("resolveFormat(%q) = (%q, %v), want %q", tt.flag, got, err, tt.want)
		}
	}
}
