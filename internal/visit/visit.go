// Package visit records that the visitor reached a spot.
//
// The local flag is written first and synchronously, independent of network
// state; the remote record is updated afterwards on a best-effort basis.
package visit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/stampbook/internal/identity"
	"github.com/roach88/stampbook/internal/metrics"
	"github.com/roach88/stampbook/internal/remote"
	"github.com/roach88/stampbook/internal/tour"
)

// LocalStamps is the write side of the local cache.
type LocalStamps interface {
	SetFlag(ctx context.Context, id string, spot tour.SpotID)
}

// Outcome describes what a visit recorded.
type Outcome struct {
	Spot        tour.SpotID `json:"spot"`
	Identifier  string      `json:"identifier"`
	Anonymous   bool        `json:"anonymous"`
	RemoteSaved bool        `json:"remote_saved"`
}

// Recorder records spot visits.
type Recorder struct {
	identity identity.Provider
	local    LocalStamps
	writer   remote.Writer
	known    map[tour.SpotID]bool
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the wall clock used for the updatedAt stamp.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the recorder logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithKnownSpots restricts Record to the given spots.
func WithKnownSpots(spots ...tour.SpotID) Option {
	return func(r *Recorder) {
		r.known = make(map[tour.SpotID]bool, len(spots))
		for _, s := range spots {
			r.known[s] = true
		}
	}
}

// New creates a recorder. writer may be nil for local-only deployments.
func New(ident identity.Provider, local LocalStamps, writer remote.Writer, opts ...Option) *Recorder {
	r := &Recorder{
		identity: ident,
		local:    local,
		writer:   writer,
		now:      time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record stamps spot for the current visitor. The only error is an invalid
// or unknown spot; storage and network faults are absorbed.
func (r *Recorder) Record(ctx context.Context, raw string) (Outcome, error) {
	spot, err := tour.ParseSpotID(raw)
	if err != nil {
		return Outcome{}, err
	}
	if r.known != nil && !r.known[spot] {
		return Outcome{}, fmt.Errorf("unknown spot %q", spot)
	}

	id := identity.Resolve(ctx, r.identity, r.logger)
	out := Outcome{
		Spot:       spot,
		Identifier: tour.ResolveIdentifier(id),
		Anonymous:  tour.IsAnonymous(id),
	}
	if out.Anonymous {
		out.Identifier = tour.AnonymousIdentifier
	}

	if r.local != nil {
		r.local.SetFlag(ctx, out.Identifier, spot)
	}

	if out.Anonymous || r.writer == nil {
		metrics.RemoteWrites.WithLabelValues("stamp", metrics.OutcomeSkipped).Inc()
		return out, nil
	}

	err = r.writer.Update(ctx, map[string]any{
		tour.RemoteStampPath(id, spot): true,
		tour.RemoteUpdatedAtPath(id):   r.now().UnixMilli(),
	})
	if err != nil {
		metrics.RemoteWrites.WithLabelValues("stamp", metrics.OutcomeError).Inc()
		r.logger.Warn("remote stamp write failed", "spot", spot, "error", err)
		return out, nil
	}

	metrics.RemoteWrites.WithLabelValues("stamp", metrics.OutcomeOK).Inc()
	r.logger.Info("stamp saved", "spot", spot)
	out.RemoteSaved = true
	return out, nil
}
