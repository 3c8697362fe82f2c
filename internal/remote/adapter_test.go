package remote

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/stampbook/internal/tour"
)

type panicSource struct{}

func (panicSource) FetchStamps(context.Context, string) (tour.Record, error) {
	panic("boom")
}

type nilSource struct{}

func (nilSource) FetchStamps(context.Context, string) (tour.Record, error) {
	return nil, nil
}

func TestAdapter_ReturnsRemoteRecord(t *testing.T) {
	src := NewMemorySource()
	src.SetStamps("u1", tour.Record{"spot7": true})

	a := NewAdapter(src, nil)
	assert.Equal(t, tour.Record{"spot7": true}, a.FetchStampRecord(context.Background(), "u1"))
}

func TestAdapter_SkipsAnonymous(t *testing.T) {
	src := NewMemorySource()
	a := NewAdapter(src, nil)

	for _, id := range []string{"", tour.AnonymousIdentifier, tour.LegacyAnonymousIdentifier} {
		assert.Empty(t, a.FetchStampRecord(context.Background(), id))
	}
	assert.Equal(t, 0, src.FetchCalls())
}

func TestAdapter_DegradesToEmpty(t *testing.T) {
	src := NewMemorySource()
	src.SetStamps("u1", tour.Record{"spot7": true})
	src.FailReads(errors.New("network unreachable"))

	a := NewAdapter(src, nil)
	rec := a.FetchStampRecord(context.Background(), "u1")
	assert.NotNil(t, rec)
	assert.Empty(t, rec)
}

func TestAdapter_CancelledContext(t *testing.T) {
	src := NewMemorySource()
	src.SetStamps("u1", tour.Record{"spot7": true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, NewAdapter(src, nil).FetchStampRecord(ctx, "u1"))
}

func TestAdapter_NilAndPanickingSources(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, NewAdapter(nil, nil).FetchStampRecord(ctx, "u1"))
	assert.NotNil(t, NewAdapter(nilSource{}, nil).FetchStampRecord(ctx, "u1"))

	assert.NotPanics(t, func() {
		rec := NewAdapter(panicSource{}, nil).FetchStampRecord(ctx, "u1")
		assert.Empty(t, rec)
		assert.NotNil(t, rec)
	})

	var a *Adapter
	assert.Empty(t, a.FetchStampRecord(ctx, "u1"))
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		v    any
		want bool
	}{
		{nil, false},
		{true, true},
		{false, false},
		{float64(1), true},
		{float64(0), false},
		{"", false},
		{"yes", true},
		{map[string]any{}, true},
		{[]any{}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truthy(tt.v), "Truthy(%#v)", tt.v)
	}
}
