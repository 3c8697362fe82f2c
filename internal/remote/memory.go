package remote

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/stampbook/internal/tour"
)

// MemorySource is an in-process record tree implementing Source and Writer.
//
// Failures can be injected with FailReads/FailWrites to exercise degraded
// behaviour without a network.
//
// Thread-safety: all methods are safe for concurrent use.
type MemorySource struct {
	mu         sync.Mutex
	tree       map[string]any
	readErr    error
	writeErr   error
	fetchCalls int
}

var (
	_ Source = (*MemorySource)(nil)
	_ Writer = (*MemorySource)(nil)
)

// NewMemorySource creates an empty tree.
func NewMemorySource() *MemorySource {
	return &MemorySource{tree: make(map[string]any)}
}

// SetStamps replaces id's stamps with rec.
func (m *MemorySource) SetStamps(id string, rec tour.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamps := make(map[string]any, len(rec))
	for k, v := range rec {
		stamps[string(k)] = v
	}
	setPath(m.tree, tour.RemoteStampsPath(id), stamps)
}

// FailReads makes FetchStamps return err until called with nil.
func (m *MemorySource) FailReads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// FailWrites makes Update return err until called with nil.
func (m *MemorySource) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// FetchCalls returns how many reads reached the source.
func (m *MemorySource) FetchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls
}

// FetchStamps implements Source.
func (m *MemorySource) FetchStamps(ctx context.Context, id string) (tour.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.readErr != nil {
		return nil, m.readErr
	}
	node := getPath(m.tree, tour.RemoteStampsPath(id))
	if node == nil {
		return tour.Record{}, nil
	}
	obj, ok := node.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: users/%s/stamps is %T", ErrMalformed, id, node)
	}
	return recordFrom(obj), nil
}

// Update implements Writer.
func (m *MemorySource) Update(ctx context.Context, updates map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.writeErr != nil {
		return m.writeErr
	}
	for path, v := range updates {
		setPath(m.tree, path, v)
	}
	return nil
}

// Get returns the value stored at path, or nil.
func (m *MemorySource) Get(path string) any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return getPath(m.tree, path)
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func getPath(tree map[string]any, path string) any {
	var node any = tree
	for _, p := range splitPath(path) {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node = obj[p]
	}
	return node
}

func setPath(tree map[string]any, path string, v any) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return
	}
	node := tree
	for _, p := range parts[:len(parts)-1] {
		child, ok := node[p].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[p] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = v
}
