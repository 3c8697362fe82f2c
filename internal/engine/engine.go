package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/stampbook/internal/identity"
	"github.com/roach88/stampbook/internal/metrics"
	"github.com/roach88/stampbook/internal/tour"
)

// LocalFlags is the read side of the local cache.
type LocalFlags interface {
	GetFlag(ctx context.Context, id string, spot tour.SpotID) bool
}

// RemoteRecords is the read side of the remote record adapter.
// Implementations must not fail; see remote.Adapter.
type RemoteRecords interface {
	FetchStampRecord(ctx context.Context, id string) tour.Record
}

// Result is the outcome of one reconciliation pass.
type Result struct {
	// Seq orders passes of the same engine; larger is newer.
	Seq int64 `json:"seq"`

	// Identifier is the namespace local data was read under. When no
	// identifier resolved it is tour.AnonymousIdentifier.
	Identifier string `json:"identifier"`

	// Anonymous is true when no identifier resolved.
	Anonymous bool `json:"anonymous"`

	// Set is the target set name.
	Set string `json:"set"`

	// Ownership has one entry per unique spot of the target set.
	Ownership tour.Record `json:"ownership"`

	Count     int  `json:"count"`
	Total     int  `json:"total"`
	Required  int  `json:"required"`
	Completed bool `json:"completed"`
}

// Engine reconciles one target set.
//
// Thread-safety: Reconcile may be called concurrently; passes share no
// mutable state besides the atomic Clock.
type Engine struct {
	set      tour.TargetSet
	spots    []tour.SpotID
	identity identity.Provider
	local    LocalFlags
	remote   RemoteRecords
	clock    *Clock
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock shares a pass clock between engines.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// New creates an engine for set. The set is validated here so that a bad
// configuration surfaces at startup rather than as a silent never-complete.
func New(set tour.TargetSet, ident identity.Provider, local LocalFlags, remote RemoteRecords, opts ...Option) (*Engine, error) {
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e := &Engine{
		set:      set,
		spots:    set.Unique(),
		identity: ident,
		local:    local,
		remote:   remote,
		clock:    NewClock(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Reconcile runs one pass for the identifier the provider resolves.
func (e *Engine) Reconcile(ctx context.Context) Result {
	seq := e.clock.Next()
	id := identity.Resolve(ctx, e.identity, e.logger)
	return e.reconcile(ctx, seq, id)
}

// ReconcileFor runs one pass for an identifier the caller already holds.
// An empty id is anonymous.
func (e *Engine) ReconcileFor(ctx context.Context, id string) Result {
	return e.reconcile(ctx, e.clock.Next(), id)
}

func (e *Engine) reconcile(ctx context.Context, seq int64, id string) Result {
	anonymous := tour.IsAnonymous(id)
	ns := id
	if anonymous {
		ns = tour.AnonymousIdentifier
	}

	var remote tour.Record
	if e.remote != nil && !anonymous {
		remote = e.remote.FetchStampRecord(ctx, id)
	}

	var local LocalLookup
	if e.local != nil {
		local = func(s tour.SpotID) bool { return e.local.GetFlag(ctx, ns, s) }
	}

	owned := Merge(e.spots, remote, local)
	count := owned.Count(e.spots)
	res := Result{
		Seq:        seq,
		Identifier: ns,
		Anonymous:  anonymous,
		Set:        e.set.Name,
		Ownership:  owned,
		Count:      count,
		Total:      len(e.spots),
		Required:   e.set.Required,
		Completed:  count >= e.set.Required,
	}

	metrics.Reconciliations.WithLabelValues(e.set.Name, metrics.BoolLabel(res.Completed)).Inc()
	e.logger.Debug("reconciled",
		"set", res.Set,
		"seq", res.Seq,
		"anonymous", res.Anonymous,
		"count", res.Count,
		"required", res.Required,
		"completed", res.Completed,
	)
	return res
}
