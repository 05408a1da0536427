package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrorDescriptor describes a failed command execution as captured by the
// host: the fully qualified error id, the exception message, the request
// target and the statement that failed.
type ErrorDescriptor struct {
	Code        string         `json:"code"`
	Message     *string        `json:"message,omitempty"`
	Target      *TargetPayload `json:"target,omitempty"`
	CommandText *string        `json:"commandText,omitempty"`
}

// TargetPayload is the request target attached to a Graph error. Only the
// filter expression is inspected.
type TargetPayload struct {
	Filter *string `json:"filter,omitempty"`
}

// Filter returns the target filter expression when one was supplied.
func (d *ErrorDescriptor) Filter() (string, bool) {
	if d == nil || d.Target == nil || d.Target.Filter == nil {
		return "", false
	}
	return *d.Target.Filter, true
}

// TargetFromMap builds a TargetPayload from an untyped value. The Filter key
// is matched exactly first and then without regard to case, taking the first
// such key in sorted order. A value that is not a string is treated as
// absent. It returns nil when m is nil.
func TargetFromMap(m map[string]any) *TargetPayload {
	if m == nil {
		return nil
	}
	t := &TargetPayload{}
	v, ok := m["Filter"]
	if !ok {
		for _, k := range slices.Sorted(maps.Keys(m)) {
			if strings.EqualFold(k, "filter") {
				v, ok = m[k], true
				break
			}
		}
	}
	if s, isString := v.(string); ok && isString {
		t.Filter = &s
	}
	return t
}

// descriptorFile is the on-disk layout. Target is decoded loosely and then
// narrowed with TargetFromMap.
type descriptorFile struct {
	Code        string         `json:"code" yaml:"code" toml:"code"`
	Message     *string        `json:"message" yaml:"message" toml:"message"`
	Target      map[string]any `json:"target" yaml:"target" toml:"target"`
	CommandText *string        `json:"commandText" yaml:"commandText" toml:"commandText"`
}

// LoadDescriptor reads an error descriptor from a .json, .yaml, .yml or .toml
// file.
func LoadDescriptor(path string) (*ErrorDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}
	return ParseDescriptor(data, filepath.Ext(path))
}

// ParseDescriptor decodes a descriptor in the format named by ext.
func ParseDescriptor(data []byte, ext string) (*ErrorDescriptor, error) {
	var f descriptorFile
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse JSON descriptor: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse YAML descriptor: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("failed to parse TOML descriptor: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported descriptor format %q", ext)
	}
	if f.Code == "" {
		return nil, errors.New("descriptor is missing the error code")
	}
	return &ErrorDescriptor{
		Code:        f.Code,
		Message:     f.Message,
		Target:      TargetFromMap(f.Target),
		CommandText: f.CommandText,
	}, nil
}
