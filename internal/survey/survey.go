// Package survey records the post-visit survey.
//
// A submission always marks the survey as done locally. The answers are sent
// to the remote record when an identifier is available; otherwise, or when
// the write fails, they are parked in the local cache and sent by a later
// SyncPending.
package survey

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/roach88/stampbook/internal/identity"
	"github.com/roach88/stampbook/internal/metrics"
	"github.com/roach88/stampbook/internal/remote"
	"github.com/roach88/stampbook/internal/tour"
)

// CurrentVersion is the payload schema version written by Submit.
const CurrentVersion = 3

// ErrNoAnswers is returned by Submit for an empty submission.
var ErrNoAnswers = errors.New("survey: no answers")

// Submission is one completed survey. Answers are opaque to this package.
type Submission struct {
	Version     int               `json:"version"`
	SubmittedAt int64             `json:"submittedAt"`
	Answers     map[string]any    `json:"answers"`
	Client      map[string]string `json:"client,omitempty"`
}

// Outcome describes where a submission ended up.
type Outcome struct {
	Identifier  string `json:"identifier"`
	Anonymous   bool   `json:"anonymous"`
	RemoteSaved bool   `json:"remote_saved"`
	Pending     bool   `json:"pending"`
}

// Cache is the local state the recorder needs.
type Cache interface {
	SetSurveySubmitted(ctx context.Context, id string)
	PendingSurvey(ctx context.Context) ([]byte, bool)
	SetPendingSurvey(ctx context.Context, payload []byte)
	ClearPendingSurvey(ctx context.Context)
}

// Recorder submits surveys and retries parked ones.
type Recorder struct {
	identity identity.Provider
	cache    Cache
	writer   remote.Writer
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the wall clock.
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

// New creates a recorder. writer may be nil, in which case every submission
// stays pending.
func New(ident identity.Provider, cache Cache, writer remote.Writer, opts ...Option) *Recorder {
	r := &Recorder{
		identity: ident,
		cache:    cache,
		writer:   writer,
		now:      time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit records sub. Version and SubmittedAt are filled in when zero.
func (r *Recorder) Submit(ctx context.Context, sub Submission) (Outcome, error) {
	if len(sub.Answers) == 0 {
		return Outcome{}, ErrNoAnswers
	}
	if sub.Version == 0 {
		sub.Version = CurrentVersion
	}
	if sub.SubmittedAt == 0 {
		sub.SubmittedAt = r.now().UnixMilli()
	}

	id := identity.Resolve(ctx, r.identity, r.logger)
	out := Outcome{Identifier: id, Anonymous: tour.IsAnonymous(id)}
	if out.Anonymous {
		out.Identifier = tour.AnonymousIdentifier
	}
	r.cache.SetSurveySubmitted(ctx, out.Identifier)

	if !out.Anonymous && r.writer != nil {
		if err := r.write(ctx, id, sub); err == nil {
			out.RemoteSaved = true
			return out, nil
		}
	} else {
		metrics.RemoteWrites.WithLabelValues("survey", metrics.OutcomeSkipped).Inc()
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return out, err
	}
	r.cache.SetPendingSurvey(ctx, payload)
	out.Pending = true
	r.logger.Info("survey saved for later", "identifier", out.Identifier)
	return out, nil
}

// SyncPending sends a parked submission, if any, and clears it on success.
// It reports whether a submission was sent.
func (r *Recorder) SyncPending(ctx context.Context) bool {
	raw, ok := r.cache.PendingSurvey(ctx)
	if !ok {
		return false
	}
	var sub Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		r.logger.Warn("dropping unreadable pending survey", "error", err)
		r.cache.ClearPendingSurvey(ctx)
		return false
	}

	id := identity.Resolve(ctx, r.identity, r.logger)
	if tour.IsAnonymous(id) || r.writer == nil {
		return false
	}
	if err := r.write(ctx, id, sub); err != nil {
		return false
	}
	r.cache.ClearPendingSurvey(ctx)
	r.cache.SetSurveySubmitted(ctx, id)
	r.logger.Info("pending survey synced", "identifier", id)
	return true
}

func (r *Recorder) write(ctx context.Context, id string, sub Submission) error {
	err := r.writer.Update(ctx, map[string]any{
		tour.RemoteSurveyPath(id):    sub,
		tour.RemoteUpdatedAtPath(id): r.now().UnixMilli(),
	})
	if err != nil {
		metrics.RemoteWrites.WithLabelValues("survey", metrics.OutcomeError).Inc()
		r.logger.Warn("remote survey write failed", "error", err)
		return err
	}
	metrics.RemoteWrites.WithLabelValues("survey", metrics.OutcomeOK).Inc()
	return nil
}

// ReturnTarget reduces raw to a page basename and returns it if allowed,
// otherwise fallback. Query strings, fragments and directories are stripped.
func ReturnTarget(raw string, allowed []string, fallback string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	base := path.Base(raw)
	for _, a := range allowed {
		if base == a {
			return base
		}
	}
	return fallback
}
