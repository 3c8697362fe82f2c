package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stampbook/internal/store"
	"github.com/roach88/stampbook/internal/testutil"
	"github.com/roach88/stampbook/internal/tour"
)

var mapSet = tour.TargetSet{
	Name:     "map",
	Spots:    []tour.SpotID{"spot7", "spot8", "spot9"},
	Required: 3,
}

func TestCache_FlagRoundTripUsesStampKey(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	c := New(kv)

	assert.False(t, c.GetFlag(ctx, "u1", "spot8"))
	c.SetFlag(ctx, "u1", "spot8")
	c.SetFlag(ctx, "u1", "spot8")
	assert.True(t, c.GetFlag(ctx, "u1", "spot8"))
	assert.False(t, c.GetFlag(ctx, "u2", "spot8"))

	v, ok, err := kv.Get(ctx, "stamp_u1_spot8")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)
}

func TestCache_OnlyLiteralTrueCounts(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	require.NoError(t, kv.Set(ctx, "stamp_u1_spot7", "TRUE"))
	require.NoError(t, kv.Set(ctx, "stamp_u1_spot8", "1"))
	require.NoError(t, kv.Set(ctx, "stamp_u1_spot9", "true"))

	c := New(kv)
	assert.False(t, c.GetFlag(ctx, "u1", "spot7"))
	assert.False(t, c.GetFlag(ctx, "u1", "spot8"))
	assert.True(t, c.GetFlag(ctx, "u1", "spot9"))
}

func TestCache_EmptyIdentifier(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewFaultyKV(nil)
	c := New(kv)

	c.SetFlag(ctx, "", "spot7")
	c.SetSeen(ctx, "", mapSet)
	assert.False(t, c.GetFlag(ctx, "", "spot7"))
	assert.False(t, c.GetSeen(ctx, "", mapSet))
	assert.Equal(t, 0, kv.Writes())
	assert.Equal(t, 0, kv.Reads())
}

func TestCache_AnonymousAliases(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	// An older spot page wrote under the legacy marker.
	require.NoError(t, kv.Set(ctx, "stamp_nouid_spot7", "true"))

	c := New(kv)
	assert.True(t, c.GetFlag(ctx, tour.AnonymousIdentifier, "spot7"))
	assert.True(t, c.GetFlag(ctx, tour.LegacyAnonymousIdentifier, "spot7"))

	// Writes always land under the current sentinel.
	c.SetFlag(ctx, tour.LegacyAnonymousIdentifier, "spot8")
	_, ok, err := kv.Get(ctx, "stamp_anon_spot8")
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = kv.Get(ctx, "stamp_nouid_spot8")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_SeenRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	c := New(kv)

	assert.False(t, c.GetSeen(ctx, "u1", mapSet))
	c.SetSeen(ctx, "u1", mapSet)
	assert.True(t, c.GetSeen(ctx, "u1", mapSet))

	_, ok, err := kv.Get(ctx, "complete_3_seen_map_u1")
	require.NoError(t, err)
	assert.True(t, ok)

	other := mapSet
	other.Name = "map_noar"
	assert.False(t, c.GetSeen(ctx, "u1", other))
}

func TestCache_SeenLegacyScope(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	require.NoError(t, kv.Set(ctx, "complete_3_seen_u1", "true"))

	set := mapSet
	set.SeenScope = tour.Scoped("")
	assert.True(t, New(kv).GetSeen(ctx, "u1", set))
}

func TestCache_ReadFaultsReportNotOwned(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewFaultyKV(nil)
	c := New(kv)
	c.SetFlag(ctx, "u1", "spot7")
	c.SetSeen(ctx, "u1", mapSet)
	c.SetSurveySubmitted(ctx, "u1")

	kv.FailReads(true)
	assert.NotPanics(t, func() {
		assert.False(t, c.GetFlag(ctx, "u1", "spot7"))
		assert.False(t, c.GetSeen(ctx, "u1", mapSet))
		assert.False(t, c.GetSurveySubmitted(ctx, "u1"))
		assert.Equal(t, "", c.DeviceIdentifier(ctx))
	})
}

func TestCache_WriteFaultsAreSwallowed(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewFaultyKV(nil)
	kv.FailWrites(true)
	c := New(kv)

	assert.NotPanics(t, func() {
		c.SetFlag(ctx, "u1", "spot7")
		c.SetSeen(ctx, "u1", mapSet)
		c.SetSurveySubmitted(ctx, "u1")
		c.SetPendingSurvey(ctx, []byte(`{}`))
		c.ClearPendingSurvey(ctx)
	})
	assert.Equal(t, 5, kv.Writes())

	kv.FailWrites(false)
	assert.False(t, c.GetFlag(ctx, "u1", "spot7"))
}

func TestCache_NilStore(t *testing.T) {
	ctx := context.Background()
	c := New(nil)
	assert.NotPanics(t, func() {
		c.SetFlag(ctx, "u1", "spot7")
		assert.False(t, c.GetFlag(ctx, "u1", "spot7"))
	})
}

func TestCache_IdentifiersSharingAPrefixStayApart(t *testing.T) {
	ctx := context.Background()
	c := New(store.NewMemory())

	c.SetFlag(ctx, "u1_x", "spot1")
	c.SetSeen(ctx, "u1_x", mapSet)
	c.SetSurveySubmitted(ctx, "u1_x")

	assert.True(t, c.GetFlag(ctx, "u1_x", "spot1"))
	assert.False(t, c.GetFlag(ctx, "u1", "spot1"))
	assert.False(t, c.GetFlag(ctx, "u1", "x_spot1"))
	assert.False(t, c.GetSeen(ctx, "u1", mapSet))
	assert.False(t, c.GetSurveySubmitted(ctx, "u1"))
}

func TestCache_SurveyAndDevice(t *testing.T) {
	ctx := context.Background()
	c := New(store.NewMemory())

	assert.False(t, c.GetSurveySubmitted(ctx, "u1"))
	c.SetSurveySubmitted(ctx, "u1")
	assert.True(t, c.GetSurveySubmitted(ctx, "u1"))

	assert.Equal(t, "", c.DeviceIdentifier(ctx))
	c.SetDeviceIdentifier(ctx, "dev-1")
	assert.Equal(t, "dev-1", c.DeviceIdentifier(ctx))

	_, ok := c.PendingSurvey(ctx)
	assert.False(t, ok)
	c.SetPendingSurvey(ctx, []byte(`{"version":3}`))
	payload, ok := c.PendingSurvey(ctx)
	assert.True(t, ok)
	assert.JSONEq(t, `{"version":3}`, string(payload))
	c.ClearPendingSurvey(ctx)
	_, ok = c.PendingSurvey(ctx)
	assert.False(t, ok)
}
