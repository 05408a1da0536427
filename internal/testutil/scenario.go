// Package testutil provides golden-file and scenario fixture helpers.
package testutil

import (
	"os"
	"testing"

	"gopkg.in/yaml.v3"
)

// Scenario is one end-to-end feedback case: a command line, an optional
// failed-execution error and the advisory body expected for it.
type Scenario struct {
	Name        string         `yaml:"name"`
	CommandLine string         `yaml:"commandLine"`
	Error       *ScenarioError `yaml:"error"`
	Want        []string       `yaml:"want"`
}

// ScenarioError mirrors the error descriptor fields in fixture files.
type ScenarioError struct {
	Code        string         `yaml:"code"`
	Message     *string        `yaml:"message"`
	Target      map[string]any `yaml:"target"`
	CommandText *string        `yaml:"commandText"`
}

type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadScenarios reads a YAML scenario file, failing the test on error.
func LoadScenarios(t *testing.T, path string) []Scenario {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read scenarios: %v", err)
	}
	var f scenarioFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		t.Fatalf("Failed to parse scenarios %s: %v", path, err)
	}
	if len(f.Scenarios) == 0 {
		t.Fatalf("No scenarios in %s", path)
	}
	return f.Scenarios
}
