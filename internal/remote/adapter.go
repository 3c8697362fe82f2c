package remote

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/stampbook/internal/metrics"
	"github.com/roach88/stampbook/internal/tour"
)

// Adapter is the read side consumed by the reconciliation engine.
// It converts every failure into an empty record.
type Adapter struct {
	source Source
	logger *slog.Logger
}

// NewAdapter wraps source. A nil source always yields empty records.
func NewAdapter(source Source, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Adapter{source: source, logger: logger}
}

// FetchStampRecord returns id's remote stamps, or an empty record when id is
// absent or anonymous, the backend is not configured, or the read fails.
func (a *Adapter) FetchStampRecord(ctx context.Context, id string) (rec tour.Record) {
	if a == nil || a.source == nil || tour.IsAnonymous(id) {
		metrics.RemoteFetches.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return tour.Record{}
	}

	// A panicking source degrades like a failing one.
	defer func() {
		if r := recover(); r != nil {
			metrics.RemoteFetches.WithLabelValues(metrics.OutcomeError).Inc()
			a.logger.Warn("remote fetch panicked", "id", id, "panic", r)
			rec = tour.Record{}
		}
	}()

	start := time.Now()
	got, err := a.source.FetchStamps(ctx, id)
	metrics.RemoteFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RemoteFetches.WithLabelValues(metrics.OutcomeError).Inc()
		a.logger.Warn("remote fetch failed", "id", id, "error", err)
		return tour.Record{}
	}

	metrics.RemoteFetches.WithLabelValues(metrics.OutcomeOK).Inc()
	if got == nil {
		return tour.Record{}
	}
	return got
}
