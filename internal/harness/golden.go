package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot is the golden-file form of a scenario run.
type Snapshot struct {
	Scenario string      `json:"scenario"`
	Trace    []PassTrace `json:"trace"`
}

// MarshalSnapshot renders the run as indented JSON with a trailing newline.
// Map keys are sorted by encoding/json, so the output is deterministic.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	data, err := json.MarshalIndent(Snapshot{Scenario: name, Trace: result.Trace}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// GoldenPath returns the golden file of a scenario file:
// <dir>/golden/<name>.golden.
func GoldenPath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// WriteGolden stores the run's snapshot at path.
func WriteGolden(path, name string, result *Result) error {
	data, err := MarshalSnapshot(name, result)
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// MatchGolden reports whether the run's snapshot equals the file at path.
func MatchGolden(path, name string, result *Result) (bool, error) {
	want, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	got, err := MarshalSnapshot(name, result)
	if err != nil {
		return false, fmt.Errorf("failed to marshal trace: %w", err)
	}
	return bytes.Equal(want, got), nil
}

// RunWithGolden loads a scenario file, executes it and compares the trace
// against GoldenPath(scenarioFile).
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenarioFile string) (*Result, error) {
	t.Helper()

	scenario, err := LoadScenario(scenarioFile)
	if err != nil {
		return nil, err
	}
	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	data, err := MarshalSnapshot(scenario.Name, result)
	if err != nil {
		return nil, err
	}

	golden := GoldenPath(scenarioFile)
	g := goldie.New(t,
		goldie.WithFixtureDir(filepath.Dir(golden)),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, strings.TrimSuffix(filepath.Base(golden), ".golden"), data)
	return result, nil
}
