package testutil

import "sync"

// FixedIDGenerator returns predetermined identifiers for device provisioning.
//
// This enables deterministic tests of anonymous identity provisioning: the
// first visit of a fresh device mints ids[0], the next fresh device ids[1].
// Once the list is exhausted the last identifier is repeated.
//
// Thread-safety: FixedIDGenerator is safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDGenerator creates a generator over ids.
// If ids is empty, Generate returns "test-device-default".
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	if len(ids) == 0 {
		ids = []string{"test-device-default"}
	}
	return &FixedIDGenerator{ids: ids}
}

// Generate returns the next identifier.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.ids[g.idx]
	if g.idx < len(g.ids)-1 {
		g.idx++
	}
	return id
}

// Calls returns how many identifiers were handed out before the list ran out,
// i.e. the current position in the list.
func (g *FixedIDGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.idx
}
