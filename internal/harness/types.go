package harness

import "github.com/roach88/stampbook/internal/tour"

// PassTrace records what one pass observed.
type PassTrace struct {
	Pass          int          `json:"pass"`
	Seq           int64        `json:"seq"`
	Identifier    string       `json:"identifier"`
	Anonymous     bool         `json:"anonymous"`
	Visits        []VisitTrace `json:"visits,omitempty"`
	Owned         tour.Record  `json:"owned"`
	Count         int          `json:"count"`
	Required      int          `json:"required"`
	Completed     bool         `json:"completed"`
	Notify        bool         `json:"notify"`
	State         string       `json:"state"`
	SeenPersisted bool         `json:"seen_persisted"`
	RemoteFetches int          `json:"remote_fetches"`
}

// VisitTrace records one visit made during a pass.
type VisitTrace struct {
	Spot        tour.SpotID `json:"spot"`
	RemoteSaved bool        `json:"remote_saved"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	Trace  []PassTrace `json:"trace"`
	Errors []string    `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []PassTrace{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
