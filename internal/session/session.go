// Package session runs the page-load sequence for one target set: reconcile
// ownership, decide on the completion notification, then derive what the
// presentation layer may unlock.
package session

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/stampbook/internal/cache"
	"github.com/roach88/stampbook/internal/engine"
	"github.com/roach88/stampbook/internal/identity"
	"github.com/roach88/stampbook/internal/notify"
	"github.com/roach88/stampbook/internal/tour"
)

// SurveyFlags reports whether the visitor submitted the survey.
type SurveyFlags interface {
	GetSurveySubmitted(ctx context.Context, id string) bool
}

// Unlocks lists the gated content the visitor may see.
type Unlocks struct {
	CompleteLink bool `json:"complete_link"`
	SpecialLink  bool `json:"special_link"`
	BonusContent bool `json:"bonus_content"`
}

// Status is everything a page needs after one refresh.
//
// Stale marks a pass that finished after a newer pass for the same visitor.
// Its ownership and unlocks are older than what the newer pass reported and
// should not be rendered over it.
type Status struct {
	engine.Result
	ShouldNotify    bool         `json:"should_notify"`
	State           notify.State `json:"state"`
	Stale           bool         `json:"stale,omitempty"`
	SurveySubmitted bool         `json:"survey_submitted"`
	Unlocks         Unlocks      `json:"unlocks"`
}

// Session ties an engine and a notifier of the same target set together.
type Session struct {
	engine     *engine.Engine
	notifier   *notify.Notifier
	surveys    SurveyFlags
	onComplete func(Status)
	logger     *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// OnComplete registers fn to run on the single refresh that should notify.
func OnComplete(fn func(Status)) Option {
	return func(s *Session) {
		s.onComplete = fn
	}
}

// New creates a session. surveys may be nil.
func New(eng *engine.Engine, n *notify.Notifier, surveys SurveyFlags, opts ...Option) *Session {
	s := &Session{
		engine:   eng,
		notifier: n,
		surveys:  surveys,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build assembles the engine, notifier and session for set over a local
// cache and a remote adapter. remote may be nil for local-only use.
func Build(set tour.TargetSet, ident identity.Provider, c *cache.Cache, remote engine.RemoteRecords, logger *slog.Logger, opts ...Option) (*Session, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	eng, err := engine.New(set, ident, c, remote, engine.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	n := notify.New(set, c, logger)
	return New(eng, n, c, append([]Option{WithLogger(logger)}, opts...)...), nil
}

// Refresh runs one pass for the provider's identifier.
func (s *Session) Refresh(ctx context.Context) Status {
	return s.finish(ctx, s.engine.Reconcile(ctx))
}

// RefreshFor runs one pass for id. An empty id is anonymous.
func (s *Session) RefreshFor(ctx context.Context, id string) Status {
	return s.finish(ctx, s.engine.ReconcileFor(ctx, id))
}

func (s *Session) finish(ctx context.Context, res engine.Result) Status {
	st := Status{Result: res}

	var fired bool
	d := s.notifier.Observe(ctx, res, func() { fired = true })
	st.ShouldNotify = d.ShouldNotify
	st.State = d.State
	st.Stale = d.Stale

	if s.surveys != nil {
		st.SurveySubmitted = s.surveys.GetSurveySubmitted(ctx, res.Identifier)
	}
	st.Unlocks = Unlocks{
		CompleteLink: res.Completed,
		SpecialLink:  res.Completed,
		BonusContent: st.SurveySubmitted,
	}

	if d.Stale {
		s.logger.Debug("stale refresh", "set", res.Set, "seq", res.Seq)
	}
	if fired && s.onComplete != nil {
		s.onComplete(st)
	}
	return st
}
