// Package cache is the per-device local cache of stamps and one-shot flags.
//
// Every operation is fault tolerant: storage errors are logged, counted and
// swallowed. A failed read reports "not owned" / "not seen", a failed write
// is dropped. Callers never see an error from this package.
package cache

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/stampbook/internal/metrics"
	"github.com/roach88/stampbook/internal/store"
	"github.com/roach88/stampbook/internal/tour"
)

// Cache wraps a store.KV with the stamp, seen-flag and survey key formats.
type Cache struct {
	kv     store.KV
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used to report swallowed faults.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a cache over kv. A nil kv behaves like unavailable storage.
func New(kv store.KV, opts ...Option) *Cache {
	c := &Cache{
		kv:     kv,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetFlag reports whether id owns spot according to this device.
// Anonymous identifiers read both fallback namespaces.
func (c *Cache) GetFlag(ctx context.Context, id string, spot tour.SpotID) bool {
	if id == "" {
		return false
	}
	for _, alias := range tour.Aliases(id) {
		if c.isTrue(ctx, "get_flag", tour.StampKey(alias, spot)) {
			return true
		}
	}
	return false
}

// SetFlag records that id owns spot. Repeated calls are harmless.
func (c *Cache) SetFlag(ctx context.Context, id string, spot tour.SpotID) {
	if id == "" {
		return
	}
	c.setTrue(ctx, "set_flag", tour.StampKey(writeNamespace(id), spot))
}

// GetSeen reports whether the completion notification for set was shown to id.
func (c *Cache) GetSeen(ctx context.Context, id string, set tour.TargetSet) bool {
	if id == "" {
		return false
	}
	for _, alias := range tour.Aliases(id) {
		if c.isTrue(ctx, "get_seen", tour.SeenKey(alias, set.Required, set.Scope())) {
			return true
		}
	}
	return false
}

// SetSeen records that the completion notification for set was shown to id.
func (c *Cache) SetSeen(ctx context.Context, id string, set tour.TargetSet) {
	if id == "" {
		return
	}
	c.setTrue(ctx, "set_seen", tour.SeenKey(writeNamespace(id), set.Required, set.Scope()))
}

// GetSurveySubmitted reports whether id submitted the post-visit survey.
func (c *Cache) GetSurveySubmitted(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}
	for _, alias := range tour.Aliases(id) {
		if c.isTrue(ctx, "get_survey", tour.SurveyKey(alias)) {
			return true
		}
	}
	return false
}

// SetSurveySubmitted records that id submitted the post-visit survey.
func (c *Cache) SetSurveySubmitted(ctx context.Context, id string) {
	if id == "" {
		return
	}
	c.setTrue(ctx, "set_survey", tour.SurveyKey(writeNamespace(id)))
}

// writeNamespace picks the namespace new entries are written under.
// The legacy anonymous marker is read but never written.
func writeNamespace(id string) string {
	if tour.IsAnonymous(id) {
		return tour.AnonymousIdentifier
	}
	return id
}

func (c *Cache) isTrue(ctx context.Context, op, key string) bool {
	v, ok := c.get(ctx, op, key)
	return ok && v == tour.FlagTrue
}

func (c *Cache) setTrue(ctx context.Context, op, key string) {
	c.set(ctx, op, key, tour.FlagTrue)
}

func (c *Cache) get(ctx context.Context, op, key string) (string, bool) {
	if c.kv == nil {
		c.fault(op, key, store.ErrClosed)
		return "", false
	}
	v, ok, err := c.kv.Get(ctx, key)
	if err != nil {
		c.fault(op, key, err)
		return "", false
	}
	return v, ok
}

func (c *Cache) set(ctx context.Context, op, key, value string) {
	if c.kv == nil {
		c.fault(op, key, store.ErrClosed)
		return
	}
	if err := c.kv.Set(ctx, key, value); err != nil {
		c.fault(op, key, err)
	}
}

func (c *Cache) remove(ctx context.Context, op, key string) {
	if c.kv == nil {
		c.fault(op, key, store.ErrClosed)
		return
	}
	if err := c.kv.Delete(ctx, key); err != nil {
		c.fault(op, key, err)
	}
}

func (c *Cache) fault(op, key string, err error) {
	metrics.StorageFaults.WithLabelValues(op).Inc()
	c.logger.Debug("local storage fault", "op", op, "key", key, "error", err)
}
