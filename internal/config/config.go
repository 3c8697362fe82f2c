// Package config loads the stampbook configuration file.
//
// The file is YAML, decoded strictly, and checked against an embedded CUE
// schema before the target sets are validated.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/stampbook/internal/tour"
)

//go:embed schema.cue
var schemaSource string

// ErrInvalid wraps every configuration validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Defaults.
const (
	DefaultDatabase      = "stampbook.db"
	DefaultRemoteTimeout = 10 * time.Second
	DefaultSetName       = "map"
	DefaultFallbackPage  = "map.html"
)

// Config is the resolved configuration.
type Config struct {
	Database   string
	Remote     Remote
	Identity   Identity
	Survey     Survey
	DefaultSet string
	Sets       map[string]tour.TargetSet
}

// Remote configures the remote record backend. An empty BaseURL disables it.
type Remote struct {
	BaseURL   string
	AuthToken string
	Timeout   time.Duration
}

// Identity configures identifier resolution.
type Identity struct {
	// Provision mints and remembers a device identifier when none exists.
	Provision bool
}

// Survey configures the post-survey redirect.
type Survey struct {
	ReturnPages  []string
	FallbackPage string
}

// Default returns the configuration of the two shipped tour pages.
func Default() *Config {
	return &Config{
		Database: DefaultDatabase,
		Remote:   Remote{Timeout: DefaultRemoteTimeout},
		Survey: Survey{
			ReturnPages:  []string{"map.html", "map_noar.html"},
			FallbackPage: DefaultFallbackPage,
		},
		DefaultSet: DefaultSetName,
		Sets: map[string]tour.TargetSet{
			"map": {
				Name:      "map",
				Spots:     []tour.SpotID{"spot1", "spot3", "spot4"},
				Required:  3,
				SeenScope: tour.Scoped(""),
			},
			"map_noar": {
				Name:     "map_noar",
				Spots:    []tour.SpotID{"spot7", "spot8", "spot9"},
				Required: 3,
			},
		},
	}
}

// Set returns the named target set, or the default one when name is empty.
func (c *Config) Set(name string) (tour.TargetSet, error) {
	if name == "" {
		name = c.DefaultSet
	}
	set, ok := c.Sets[name]
	if !ok {
		return tour.TargetSet{}, fmt.Errorf("unknown target set %q (have %v)", name, c.SetNames())
	}
	return set, nil
}

// SetNames returns the configured set names in sorted order.
func (c *Config) SetNames() []string {
	names := make([]string, 0, len(c.Sets))
	for n := range c.Sets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Spots returns every spot of every set, de-duplicated and sorted.
func (c *Config) Spots() []tour.SpotID {
	seen := make(map[tour.SpotID]bool)
	var out []tour.SpotID
	for _, set := range c.Sets {
		for _, s := range set.Spots {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if len(c.Sets) == 0 {
		return fmt.Errorf("%w: no target sets", ErrInvalid)
	}
	for name, set := range c.Sets {
		if set.Name != name {
			return fmt.Errorf("%w: target set key %q names set %q", ErrInvalid, name, set.Name)
		}
		if err := set.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	if _, ok := c.Sets[c.DefaultSet]; !ok {
		return fmt.Errorf("%w: default_set %q is not a configured target set", ErrInvalid, c.DefaultSet)
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("%w: remote timeout must be positive", ErrInvalid)
	}
	return nil
}

// Load reads path. An empty path yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML configuration document. Fields absent
// from the document keep their Default() values; a target_sets section
// replaces the default sets entirely.
func Parse(data []byte) (*Config, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := checkSchema(f); err != nil {
		return nil, err
	}

	cfg := Default()
	if f.Database != "" {
		cfg.Database = f.Database
	}
	if f.DefaultSet != "" {
		cfg.DefaultSet = f.DefaultSet
	}
	if r := f.Remote; r != nil {
		cfg.Remote.BaseURL = r.BaseURL
		cfg.Remote.AuthToken = r.AuthToken
		if r.Timeout != "" {
			d, err := time.ParseDuration(r.Timeout)
			if err != nil {
				return nil, fmt.Errorf("%w: remote.timeout: %v", ErrInvalid, err)
			}
			cfg.Remote.Timeout = d
		}
	}
	if f.Identity != nil && f.Identity.Provision != nil {
		cfg.Identity.Provision = *f.Identity.Provision
	}
	if s := f.Survey; s != nil {
		if len(s.ReturnPages) > 0 {
			cfg.Survey.ReturnPages = s.ReturnPages
		}
		if s.FallbackPage != "" {
			cfg.Survey.FallbackPage = s.FallbackPage
		}
	}
	if len(f.TargetSets) > 0 {
		cfg.Sets = make(map[string]tour.TargetSet, len(f.TargetSets))
		for name, ts := range f.TargetSets {
			if _, err := tour.ParseSpotID(name); err != nil {
				return nil, fmt.Errorf("%w: target set name: %v", ErrInvalid, err)
			}
			set := tour.TargetSet{Name: name, Required: ts.Required, SeenScope: ts.SeenScope}
			for _, s := range ts.Spots {
				id, err := tour.ParseSpotID(s)
				if err != nil {
					return nil, fmt.Errorf("%w: target_sets.%s: %v", ErrInvalid, name, err)
				}
				set.Spots = append(set.Spots, id)
			}
			cfg.Sets[name] = set
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// checkSchema unifies the decoded document with #Config.
func checkSchema(f file) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	doc := ctx.Encode(f)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// file mirrors the YAML document. json tags drive the CUE encoding.
type file struct {
	Database   string                   `yaml:"database" json:"database,omitempty"`
	DefaultSet string                   `yaml:"default_set" json:"default_set,omitempty"`
	Remote     *remoteFile              `yaml:"remote" json:"remote,omitempty"`
	Identity   *identityFile            `yaml:"identity" json:"identity,omitempty"`
	Survey     *surveyFile              `yaml:"survey" json:"survey,omitempty"`
	TargetSets map[string]targetSetFile `yaml:"target_sets" json:"target_sets,omitempty"`
}

type remoteFile struct {
	BaseURL   string `yaml:"base_url" json:"base_url,omitempty"`
	AuthToken string `yaml:"auth_token" json:"auth_token,omitempty"`
	Timeout   string `yaml:"timeout" json:"timeout,omitempty"`
}

type identityFile struct {
	Provision *bool `yaml:"provision" json:"provision,omitempty"`
}

type surveyFile struct {
	ReturnPages  []string `yaml:"return_pages" json:"return_pages,omitempty"`
	FallbackPage string   `yaml:"fallback_page" json:"fallback_page,omitempty"`
}

type targetSetFile struct {
	Spots     []string `yaml:"spots" json:"spots"`
	Required  int      `yaml:"required" json:"required"`
	SeenScope *string  `yaml:"seen_scope" json:"seen_scope,omitempty"`
}
