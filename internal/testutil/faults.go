package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/stampbook/internal/store"
)

// ErrStorageUnavailable simulates disabled or blocked device storage.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrQuotaExceeded simulates a full device storage quota.
var ErrQuotaExceeded = errors.New("quota exceeded")

// FaultyKV wraps a KV and fails reads and/or writes on demand.
//
// Thread-safety: safe for concurrent use.
type FaultyKV struct {
	mu         sync.Mutex
	inner      store.KV
	failReads  bool
	failWrites bool
	reads      int
	writes     int
}

var _ store.KV = (*FaultyKV)(nil)

// NewFaultyKV wraps inner. A nil inner is replaced by an empty store.Memory.
func NewFaultyKV(inner store.KV) *FaultyKV {
	if inner == nil {
		inner = store.NewMemory()
	}
	return &FaultyKV{inner: inner}
}

// FailReads makes Get and Keys fail with ErrStorageUnavailable.
func (f *FaultyKV) FailReads(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failReads = fail
}

// FailWrites makes Set and Delete fail with ErrQuotaExceeded.
func (f *FaultyKV) FailWrites(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = fail
}

// Writes returns how many write attempts reached the wrapper.
func (f *FaultyKV) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// Reads returns how many read attempts reached the wrapper.
func (f *FaultyKV) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

func (f *FaultyKV) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	f.reads++
	fail := f.failReads
	f.mu.Unlock()
	if fail {
		return "", false, ErrStorageUnavailable
	}
	return f.inner.Get(ctx, key)
}

func (f *FaultyKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	f.writes++
	fail := f.failWrites
	f.mu.Unlock()
	if fail {
		return ErrQuotaExceeded
	}
	return f.inner.Set(ctx, key, value)
}

func (f *FaultyKV) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	f.writes++
	fail := f.failWrites
	f.mu.Unlock()
	if fail {
		return ErrQuotaExceeded
	}
	return f.inner.Delete(ctx, key)
}
