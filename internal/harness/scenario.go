package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario: a payload, a script, and the
// expected outcome of applying the one to the other.
type Scenario struct {
	// Name uniquely identifies the scenario; it is also the golden file name.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Payload is the textual IR the script runs against.
	Payload string `yaml:"payload"`

	// Script is the transform script source.
	Script string `yaml:"script"`

	// Expect describes the required outcome. Defaults to a clean run.
	Expect Expect `yaml:"expect,omitempty"`
}

// Expect is a scenario's required outcome.
type Expect struct {
	// Status is "ok" (default) or "failed".
	Status string `yaml:"status,omitempty"`

	// Code is the transform error code a failed scenario must report.
	Code string `yaml:"code,omitempty"`
}

// Load reads and validates one scenario file. Unknown YAML fields are
// rejected so typos in scenario files fail loudly.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", path, err)
	}

	if s.Name == "" {
		return nil, fmt.Errorf("load scenario %s: name is required", path)
	}
	if s.Payload == "" {
		return nil, fmt.Errorf("load scenario %s: payload is required", path)
	}
	if s.Script == "" {
		return nil, fmt.Errorf("load scenario %s: script is required", path)
	}
	switch s.Expect.Status {
	case "":
		s.Expect.Status = "ok"
	case "ok", "failed":
	default:
		return nil, fmt.Errorf("load scenario %s: bad expect.status %q", path, s.Expect.Status)
	}
	if s.Expect.Status == "ok" && s.Expect.Code != "" {
		return nil, fmt.Errorf("load scenario %s: expect.code requires expect.status failed", path)
	}
	return &s, nil
}

// LoadDir loads every *.yaml scenario in a directory, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := Load(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}
