package tour

import (
	"errors"
	"fmt"
)

// TargetSet is the completion configuration of one page or deployment.
//
// Spots is treated as a set: duplicates are ignored when counting.
// Required may be smaller than the number of spots, in which case owning
// any Required of them counts as completion.
type TargetSet struct {
	Name     string
	Spots    []SpotID
	Required int

	// SeenScope overrides the scope used in the completion-seen key.
	// nil means "use Name"; a pointer to "" selects the legacy unscoped key.
	SeenScope *string
}

// Unique returns the de-duplicated spots in first-occurrence order.
func (t TargetSet) Unique() []SpotID {
	seen := make(map[SpotID]struct{}, len(t.Spots))
	out := make([]SpotID, 0, len(t.Spots))
	for _, s := range t.Spots {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Scope returns the scope token used by SeenKey for this set.
func (t TargetSet) Scope() string {
	if t.SeenScope != nil {
		return *t.SeenScope
	}
	return t.Name
}

// Validate checks that the set can be reconciled.
func (t TargetSet) Validate() error {
	if t.Name == "" {
		return errors.New("target set name is required")
	}
	if len(t.Spots) == 0 {
		return fmt.Errorf("target set %q: at least one spot is required", t.Name)
	}
	for _, s := range t.Spots {
		if _, err := ParseSpotID(string(s)); err != nil {
			return fmt.Errorf("target set %q: %w", t.Name, err)
		}
	}
	n := len(t.Unique())
	if t.Required < 1 || t.Required > n {
		return fmt.Errorf("target set %q: required must be between 1 and %d, got %d", t.Name, n, t.Required)
	}
	return nil
}

// Scoped returns a pointer to scope, for building TargetSet literals.
func Scoped(scope string) *string {
	return &scope
}
