package tour

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStampKey(t *testing.T) {
	assert.Equal(t, "stamp_u1_spot8", StampKey("u1", "spot8"))
	assert.Equal(t, "stamp_anon_spot1", StampKey(AnonymousIdentifier, "spot1"))
}

func TestSeenKey(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		required int
		scope    string
		want     string
	}{
		{"scoped", "u1", 3, "map_noar", "complete_3_seen_map_noar_u1"},
		{"unscoped legacy form", "u1", 3, "", "complete_3_seen_u1"},
		{"required is part of the key", "u1", 2, "map", "complete_2_seen_map_u1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SeenKey(tt.id, tt.required, tt.scope))
		})
	}
}

func TestResolveIdentifier(t *testing.T) {
	assert.Equal(t, AnonymousIdentifier, ResolveIdentifier(""))
	assert.Equal(t, "u1", ResolveIdentifier("u1"))
}

func TestIsAnonymous(t *testing.T) {
	assert.True(t, IsAnonymous(""))
	assert.True(t, IsAnonymous("anon"))
	assert.True(t, IsAnonymous("nouid"))
	assert.False(t, IsAnonymous("u1"))
}

func TestAliases(t *testing.T) {
	assert.Equal(t, []string{"anon", "nouid"}, Aliases(""))
	assert.Equal(t, []string{"anon", "nouid"}, Aliases("nouid"))
	assert.Equal(t, []string{"u1"}, Aliases("u1"))
}

func TestRemotePaths(t *testing.T) {
	assert.Equal(t, "users/u1/stamps", RemoteStampsPath("u1"))
	assert.Equal(t, "users/u1/stamps/spot7", RemoteStampPath("u1", "spot7"))
	assert.Equal(t, "users/u1/meta/updatedAt", RemoteUpdatedAtPath("u1"))
	assert.Equal(t, "users/u1/survey", RemoteSurveyPath("u1"))
}
