// Package scan checks script files on disk for Microsoft Graph commands that
// need advanced query parameters.
package scan

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"mgaq/internal/config"
	"mgaq/internal/errors"
	"mgaq/internal/psast"
	"mgaq/internal/query"
	"mgaq/internal/slogutil"
)

// Options controls which files are scanned and how
type Options struct {
	Extensions       []string
	Ignore           []string
	Concurrency      int
	MaxFileSizeBytes int64 // 0 means unlimited
}

// OptionsFromConfig derives scan options from the loaded configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Extensions:       cfg.Scan.Extensions,
		Ignore:           cfg.Scan.Ignore,
		Concurrency:      cfg.Scan.Concurrency,
		MaxFileSizeBytes: cfg.Scan.MaxFileSizeBytes,
	}
}

// Finding is one flagged command invocation
type Finding struct {
	Command string `json:"command"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
}

// FileResult holds the findings for one file. Error and Skipped are set
// instead of Findings when the file could not be checked.
type FileResult struct {
	Path     string    `json:"path"`
	Findings []Finding `json:"findings"`
	Error    string    `json:"error,omitempty"`
	Skipped  string    `json:"skipped,omitempty"`
}

// Report is the outcome of a batch scan. FilesScanned counts the files that
// were read; files over the size limit are counted in FilesSkipped instead.
type Report struct {
	Files         []FileResult `json:"files"`
	FilesScanned  int          `json:"filesScanned"`
	FilesSkipped  int          `json:"filesSkipped"`
	FilesFlagged  int          `json:"filesFlagged"`
	FindingsCount int          `json:"findingsCount"`
	Errors        int          `json:"errors"`
	DurationMs    int64        `json:"durationMs"`
}

// Scanner runs batch scans. It is safe for concurrent use.
type Scanner struct {
	opts   Options
	exts   map[string]bool
	ignore map[string]bool
	logger *slog.Logger
}

// NewScanner creates a scanner. A nil logger discards output.
func NewScanner(opts Options, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	s := &Scanner{
		opts:   opts,
		exts:   make(map[string]bool, len(opts.Extensions)),
		ignore: make(map[string]bool, len(opts.Ignore)),
		logger: logger,
	}
	for _, ext := range opts.Extensions {
		s.exts[strings.ToLower(ext)] = true
	}
	for _, name := range opts.Ignore {
		s.ignore[name] = true
	}
	return s
}

// ScanSource returns the flagged commands in a single script body
func ScanSource(ctx context.Context, src string) ([]Finding, error) {
	root, err := psast.Parse(src)
	if err != nil {
		return nil, errors.New(errors.ParseFailed, "failed to parse script", err)
	}
	invocations, err := query.FlaggedInvocations(ctx, root)
	if err != nil {
		return nil, err
	}
	findings := make([]Finding, 0, len(invocations))
	for _, inv := range invocations {
		findings = append(findings, Finding{Command: inv.Text, Line: inv.Line, Column: inv.Column})
	}
	return findings, nil
}

// ScanPaths scans every matching file under paths. Files named explicitly
// are scanned regardless of extension. Per-file failures are recorded in the
// report; only cancellation or an unreadable path aborts the scan.
func (s *Scanner) ScanPaths(ctx context.Context, paths []string) (*Report, error) {
	start := time.Now()

	files, err := s.collect(paths)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Scanning files", "count", len(files), "concurrency", s.opts.Concurrency)

	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.scanFile(gctx, path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.New(errors.Cancelled, "scan interrupted", err)
	}

	report := &Report{Files: results}
	for _, r := range results {
		if r.Skipped != "" {
			report.FilesSkipped++
		} else {
			report.FilesScanned++
		}
		report.FindingsCount += len(r.Findings)
		if len(r.Findings) > 0 {
			report.FilesFlagged++
		}
		if r.Error != "" {
			report.Errors++
		}
	}
	report.DurationMs = time.Since(start).Milliseconds()
	s.logger.Info("Scan complete",
		"files", report.FilesScanned,
		"skipped", report.FilesSkipped,
		"flagged", report.FilesFlagged,
		"findings", report.FindingsCount,
		"errors", report.Errors,
	)
	return report, nil
}

// scanFile returns an error only on cancellation.
func (s *Scanner) scanFile(ctx context.Context, path string) (FileResult, error) {
	res := FileResult{Path: path, Findings: []Finding{}}

	info, err := os.Stat(path)
	if err != nil {
		res.Error = err.Error()
		return res, nil
	}
	if s.opts.MaxFileSizeBytes > 0 && info.Size() > s.opts.MaxFileSizeBytes {
		res.Skipped = "file too large"
		s.logger.Debug("Skipping large file", "path", path, "size", info.Size())
		return res, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Error = err.Error()
		return res, nil
	}
	findings, err := ScanSource(ctx, string(data))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		s.logger.Warn("Failed to scan file", "path", path, "error", err)
		res.Error = err.Error()
		return res, nil
	}
	res.Findings = findings
	return res, nil
}

// collect expands paths into a sorted, de-duplicated file list.
func (s *Scanner) collect(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, errors.New(errors.InvalidInput, "cannot scan "+p, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(p))
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				s.logger.Debug("Skipping unreadable path", "path", path, "error", walkErr)
				return nil
			}
			if d.IsDir() {
				if path != p && s.ignore[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if s.exts[strings.ToLower(filepath.Ext(path))] {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.New(errors.ScanFailed, "failed to walk "+p, err)
		}
	}

	sort.Strings(files)
	return files, nil
}
