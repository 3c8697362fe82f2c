package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/stampbook/internal/cache"
	"github.com/roach88/stampbook/internal/identity"
	"github.com/roach88/stampbook/internal/remote"
	"github.com/roach88/stampbook/internal/session"
	"github.com/roach88/stampbook/internal/store"
	"github.com/roach88/stampbook/internal/testutil"
	"github.com/roach88/stampbook/internal/tour"
	"github.com/roach88/stampbook/internal/visit"
)

// Epoch is the fixed wall clock scenarios run at.
var Epoch = time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

// Harness holds the fixtures of one scenario run.
type Harness struct {
	set     tour.TargetSet
	mem     *store.Memory
	kv      *testutil.FaultyKV
	source  *remote.MemorySource
	session *session.Session
	visitor *visit.Recorder
	logger  *slog.Logger
}

// Run executes a scenario on fresh in-memory fixtures.
//
// Execution flow:
// 1. Seed the local store and remote tree from setup
// 2. For each pass: apply faults, record visits, refresh the session
// 3. Check the pass expectations and append to the trace
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario, nil)
}

// RunContext is Run with a caller context and logger. A nil logger discards.
func RunContext(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	set, err := scenario.TargetSet()
	if err != nil {
		return nil, fmt.Errorf("invalid target set: %w", err)
	}

	h := &Harness{
		set:    set,
		mem:    store.NewMemory(),
		source: remote.NewMemorySource(),
		logger: logger,
	}
	h.kv = testutil.NewFaultyKV(h.mem)
	defer h.mem.Close()

	ident := identity.Static(scenario.Identifier)
	c := cache.New(h.kv, cache.WithLogger(logger))
	h.session, err = session.Build(set, ident, c, remote.NewAdapter(h.source, logger), logger)
	if err != nil {
		return nil, err
	}
	clock := testutil.NewFixedClock(Epoch)
	h.visitor = visit.New(ident, c, h.source,
		visit.WithKnownSpots(set.Spots...),
		visit.WithClock(clock.Now),
		visit.WithLogger(logger),
	)

	if err := h.seed(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	for i, pass := range scenario.Passes {
		trace := h.runPass(ctx, i+1, pass, result)
		result.Trace = append(result.Trace, trace)
		if pass.Expect != nil {
			for _, e := range checkExpect(trace, *pass.Expect) {
				result.AddError(e.Error())
			}
		}
		clock.Advance(time.Minute)
	}
	return result, nil
}

// seed writes setup state below the fault wrapper.
func (h *Harness) seed(ctx context.Context, scenario *Scenario) error {
	ns := tour.ResolveIdentifier(scenario.Identifier)
	if tour.IsAnonymous(scenario.Identifier) {
		ns = tour.AnonymousIdentifier
	}
	if scenario.Setup.LocalAs != "" {
		ns = scenario.Setup.LocalAs
	}

	for _, raw := range scenario.Setup.Local {
		spot, err := tour.ParseSpotID(raw)
		if err != nil {
			return err
		}
		if err := h.mem.Set(ctx, tour.StampKey(ns, spot), tour.FlagTrue); err != nil {
			return err
		}
	}
	if scenario.Setup.Seen {
		if err := h.mem.Set(ctx, tour.SeenKey(ns, h.set.Required, h.set.Scope()), tour.FlagTrue); err != nil {
			return err
		}
	}
	if len(scenario.Setup.Remote) > 0 {
		updates := make(map[string]any, len(scenario.Setup.Remote))
		for spot, v := range scenario.Setup.Remote {
			updates[tour.RemoteStampPath(ns, tour.SpotID(spot))] = v
		}
		if err := h.source.Update(ctx, updates); err != nil {
			return err
		}
	}
	return nil
}

func (h *Harness) runPass(ctx context.Context, n int, pass Pass, result *Result) PassTrace {
	h.applyFaults(pass.Faults)
	defer h.applyFaults(Faults{})

	trace := PassTrace{Pass: n}
	for _, raw := range pass.Visit {
		out, err := h.visitor.Record(ctx, raw)
		if err != nil {
			result.AddError(fmt.Sprintf("pass %d: visit %q: %v", n, raw, err))
			continue
		}
		trace.Visits = append(trace.Visits, VisitTrace{Spot: out.Spot, RemoteSaved: out.RemoteSaved})
	}

	st := h.session.Refresh(ctx)
	trace.Seq = st.Seq
	trace.Identifier = st.Identifier
	trace.Anonymous = st.Anonymous
	trace.Owned = st.Ownership
	trace.Count = st.Count
	trace.Required = st.Required
	trace.Completed = st.Completed
	trace.Notify = st.ShouldNotify
	trace.State = st.State.String()
	trace.RemoteFetches = h.source.FetchCalls()

	// Read below the fault wrapper: what would survive a reload.
	trace.SeenPersisted = cache.New(h.mem).GetSeen(ctx, st.Identifier, h.set)

	h.logger.Info("pass completed",
		"pass", n,
		"count", trace.Count,
		"completed", trace.Completed,
		"notify", trace.Notify,
	)
	return trace
}

func (h *Harness) applyFaults(f Faults) {
	h.kv.FailReads(f.StorageReads)
	h.kv.FailWrites(f.StorageWrites)
	h.source.FailReads(faultError(f.RemoteReads))
	h.source.FailWrites(faultError(f.RemoteWrites))
}

func faultError(msg string) error {
	if msg == "" {
		return nil
	}
	return errors.New(msg)
}
