package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/stampbook/internal/tour"
)

// Scenario describes an initial tour state and a sequence of passes.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Identifier is the visitor identifier. Empty means anonymous.
	Identifier string `yaml:"identifier"`

	// Set is the target set. When nil, DefaultSet is used.
	Set *SetSpec `yaml:"set,omitempty"`

	Setup  Setup  `yaml:"setup"`
	Passes []Pass `yaml:"passes"`
}

// SetSpec is the YAML form of a target set.
type SetSpec struct {
	Name      string   `yaml:"name"`
	Spots     []string `yaml:"spots"`
	Required  int      `yaml:"required"`
	SeenScope *string  `yaml:"seen_scope,omitempty"`
}

// Setup seeds the local store and the remote tree.
type Setup struct {
	// Local lists spots flagged in the local store.
	Local []string `yaml:"local,omitempty"`

	// LocalAs overrides the namespace Local and Seen are written under,
	// e.g. the legacy anonymous marker.
	LocalAs string `yaml:"local_as,omitempty"`

	// Remote holds raw values of the remote stamps record.
	Remote map[string]any `yaml:"remote,omitempty"`

	// Seen pre-sets the completion-seen flag.
	Seen bool `yaml:"seen,omitempty"`
}

// Pass is one page load.
type Pass struct {
	Visit  []string `yaml:"visit,omitempty"`
	Faults Faults   `yaml:"faults,omitempty"`
	Expect *Expect  `yaml:"expect,omitempty"`
}

// Faults injected for a single pass. Remote faults carry the error text.
type Faults struct {
	RemoteReads   string `yaml:"remote_reads,omitempty"`
	RemoteWrites  string `yaml:"remote_writes,omitempty"`
	StorageReads  bool   `yaml:"storage_reads,omitempty"`
	StorageWrites bool   `yaml:"storage_writes,omitempty"`
}

// Expect lists the checked outcomes of a pass. Unset fields are not checked.
type Expect struct {
	Owned         map[string]bool `yaml:"owned,omitempty"`
	Count         *int            `yaml:"count,omitempty"`
	Completed     *bool           `yaml:"completed,omitempty"`
	Notify        *bool           `yaml:"notify,omitempty"`
	State         string          `yaml:"state,omitempty"`
	SeenPersisted *bool           `yaml:"seen_persisted,omitempty"`
	RemoteFetches *int            `yaml:"remote_fetches,omitempty"`
	RemoteSaved   *bool           `yaml:"remote_saved,omitempty"`
}

// DefaultSet is used by scenarios that do not name a target set.
func DefaultSet() tour.TargetSet {
	return tour.TargetSet{
		Name:     "map_noar",
		Spots:    []tour.SpotID{"spot7", "spot8", "spot9"},
		Required: 3,
	}
}

// TargetSet converts the scenario's set, or returns DefaultSet.
func (s *Scenario) TargetSet() (tour.TargetSet, error) {
	if s.Set == nil {
		return DefaultSet(), nil
	}
	set := tour.TargetSet{Name: s.Set.Name, Required: s.Set.Required, SeenScope: s.Set.SeenScope}
	for _, raw := range s.Set.Spots {
		id, err := tour.ParseSpotID(raw)
		if err != nil {
			return tour.TargetSet{}, err
		}
		set.Spots = append(set.Spots, id)
	}
	if err := set.Validate(); err != nil {
		return tour.TargetSet{}, err
	}
	return set, nil
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so that typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios returns the YAML files under dir whose base name matches
// filter (a filepath.Match pattern; empty matches all), in lexical order.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Description == "" {
		return errors.New("description is required")
	}
	if len(s.Passes) == 0 {
		return errors.New("passes list is required and must be non-empty")
	}
	if _, err := s.TargetSet(); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	for _, raw := range s.Setup.Local {
		if _, err := tour.ParseSpotID(raw); err != nil {
			return fmt.Errorf("setup.local: %w", err)
		}
	}
	for i, p := range s.Passes {
		for _, raw := range p.Visit {
			if _, err := tour.ParseSpotID(raw); err != nil {
				return fmt.Errorf("passes[%d].visit: %w", i, err)
			}
		}
		if p.Expect != nil && p.Expect.State != "" {
			switch p.Expect.State {
			case "NOT_COMPLETED", "COMPLETED_UNSEEN", "COMPLETED_SEEN":
			default:
				return fmt.Errorf("passes[%d].expect.state: unknown state %q", i, p.Expect.State)
			}
		}
	}
	return nil
}
