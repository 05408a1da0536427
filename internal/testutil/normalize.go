package testutil

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// volatileFields are dropped before golden comparison.
var volatileFields = map[string]bool{
	"elapsed":    true,
	"durationMs": true,
	"scannedAt":  true,
}

// MarshalNormalized marshals data to indented JSON after replacing root with
// <root>, converting path separators to forward slashes and dropping
// volatile fields. The output ends with a newline.
func MarshalNormalized(t *testing.T, root string, data any) []byte {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Failed to marshal data for normalization: %v", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("Failed to unmarshal data for normalization: %v", err)
	}

	out, err := json.MarshalIndent(normalizeValue(generic, root), "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal normalized data: %v", err)
	}
	return append(out, '\n')
}

// NormalizeText applies the string normalization of MarshalNormalized to
// plain text output.
func NormalizeText(s, root string) string {
	return normalizeString(s, root)
}

func normalizeValue(v any, root string) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if volatileFields[k] {
				continue
			}
			out[k] = normalizeValue(item, root)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item, root)
		}
		sortByPath(out)
		return out
	case string:
		return normalizeString(val, root)
	default:
		return v
	}
}

func normalizeString(s, root string) string {
	if root != "" {
		s = strings.ReplaceAll(s, root+string(filepath.Separator), "<root>/")
		s = strings.ReplaceAll(s, root, "<root>")
	}
	return strings.ReplaceAll(s, "\\", "/")
}

// sortByPath orders slices of objects by their "path" key so that results
// collected concurrently compare stably.
func sortByPath(items []any) {
	sort.SliceStable(items, func(i, j int) bool {
		mi, oki := items[i].(map[string]any)
		mj, okj := items[j].(map[string]any)
		if !oki || !okj {
			return false
		}
		pi, _ := mi["path"].(string)
		pj, _ := mj["path"].(string)
		return pi < pj
	})
}
