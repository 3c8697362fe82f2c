// Package notify decides when to show the one-time completion notification.
//
// Per (identifier, target set) the notifier moves through
//
//	NotCompleted -> CompletedUnseen -> CompletedSeen
//
// and never back. CompletedUnseen is transient: the seen flag is written
// before the notification callback runs, so a crash between the two can
// only cause the notification to be lost, and a crash before the write can
// only cause it to be repeated on the next pass.
package notify

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/stampbook/internal/engine"
	"github.com/roach88/stampbook/internal/metrics"
	"github.com/roach88/stampbook/internal/tour"
)

// State is the notifier state for one (identifier, target set).
type State int

const (
	NotCompleted State = iota
	CompletedUnseen
	CompletedSeen
)

func (s State) String() string {
	switch s {
	case NotCompleted:
		return "NOT_COMPLETED"
	case CompletedUnseen:
		return "COMPLETED_UNSEEN"
	case CompletedSeen:
		return "COMPLETED_SEEN"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the state name, for JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SeenStore is the seen-flag slice of the local cache.
type SeenStore interface {
	GetSeen(ctx context.Context, id string, set tour.TargetSet) bool
	SetSeen(ctx context.Context, id string, set tour.TargetSet)
}

// Decision is the outcome of observing one reconciliation result.
type Decision struct {
	// ShouldNotify is true for exactly one observation per
	// (identifier, target set), the first completed one.
	ShouldNotify bool `json:"should_notify"`

	// State is the state after the observation.
	State State `json:"state"`

	// Stale is true when the result was older than one already observed
	// and was discarded.
	Stale bool `json:"stale,omitempty"`
}

// defaultMaxTracked bounds how many identifiers a Notifier remembers.
const defaultMaxTracked = 4096

// tracked is the in-process bookkeeping for one identifier.
type tracked struct {
	latest   int64
	notified bool
}

// Notifier applies results of one target set to the seen-flag state machine.
//
// The notifier remembers the newest seq and whether it already notified for
// at most maxTracked identifiers; the oldest is forgotten first. A forgotten
// identifier falls back to the persisted seen flag.
//
// Thread-safety: safe for concurrent use. Observations of the same key are
// serialized so that two overlapping completed passes notify once.
type Notifier struct {
	set        tour.TargetSet
	seen       SeenStore
	logger     *slog.Logger
	maxTracked int

	mu      sync.Mutex
	tracked map[string]*tracked
	order   []string
}

// New creates a notifier for set backed by seen.
func New(set tour.TargetSet, seen SeenStore, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Notifier{
		set:        set,
		seen:       seen,
		logger:     logger,
		maxTracked: defaultMaxTracked,
		tracked:    make(map[string]*tracked),
	}
}

// entry returns the bookkeeping for key, evicting the oldest entry when a
// new one would exceed maxTracked.
func (n *Notifier) entry(key string) *tracked {
	if t, ok := n.tracked[key]; ok {
		return t
	}
	t := &tracked{}
	n.tracked[key] = t
	n.order = append(n.order, key)
	for len(n.order) > n.maxTracked {
		evict := n.order[0]
		n.order = n.order[1:]
		delete(n.tracked, evict)
	}
	return t
}

// state also honours notifications made by this process, so a seen flag
// lost to a storage fault does not repeat the notification every pass.
func (n *Notifier) state(ctx context.Context, id string, completed bool) State {
	if tour.IsAnonymous(id) {
		id = tour.AnonymousIdentifier
	}
	if t, ok := n.tracked[id]; ok && t.notified {
		return CompletedSeen
	}
	if n.seen != nil && n.seen.GetSeen(ctx, id, n.set) {
		return CompletedSeen
	}
	if completed {
		return CompletedUnseen
	}
	return NotCompleted
}

// Observe applies res. When this is the first completed observation for the
// identifier, the seen flag is persisted and then fn (if non-nil) is called
// exactly once. Otherwise fn is not called.
func (n *Notifier) Observe(ctx context.Context, res engine.Result, fn func()) Decision {
	n.mu.Lock()
	defer n.mu.Unlock()

	key := res.Identifier
	if tour.IsAnonymous(key) {
		key = tour.AnonymousIdentifier
	}
	t := n.entry(key)
	if res.Seq != 0 && res.Seq < t.latest {
		metrics.Notifications.WithLabelValues("stale").Inc()
		n.logger.Debug("discarding stale result", "set", n.set.Name, "seq", res.Seq, "latest", t.latest)
		return Decision{State: n.state(ctx, res.Identifier, false), Stale: true}
	}
	if res.Seq > t.latest {
		t.latest = res.Seq
	}

	state := n.state(ctx, res.Identifier, res.Completed)
	if state != CompletedUnseen {
		if state == CompletedSeen && res.Completed {
			metrics.Notifications.WithLabelValues("suppressed").Inc()
		}
		return Decision{State: state}
	}

	if n.seen != nil {
		n.seen.SetSeen(ctx, res.Identifier, n.set)
	}
	t.notified = true
	metrics.Notifications.WithLabelValues("notified").Inc()
	n.logger.Info("tour completed", "set", n.set.Name, "count", res.Count, "required", res.Required)
	if fn != nil {
		fn()
	}
	return Decision{ShouldNotify: true, State: CompletedSeen}
}
