package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/roach88/stampbook/internal/tour"
)

var allSpots = []tour.SpotID{"spot1", "spot2", "spot3", "spot4", "spot5", "spot6", "spot7", "spot8", "spot9"}

func TestMerge_ORsBothSides(t *testing.T) {
	remote := tour.Record{"spot7": true}
	local := func(s tour.SpotID) bool { return s == "spot8" }

	got := Merge([]tour.SpotID{"spot7", "spot8", "spot9"}, remote, local)
	assert.Equal(t, tour.Record{"spot7": true, "spot8": true, "spot9": false}, got)
}

func TestMerge_ConsultsLocalEvenWhenRemoteOwns(t *testing.T) {
	var asked []tour.SpotID
	local := func(s tour.SpotID) bool {
		asked = append(asked, s)
		return false
	}
	Merge([]tour.SpotID{"spot7", "spot8"}, tour.Record{"spot7": true, "spot8": true}, local)
	assert.Equal(t, []tour.SpotID{"spot7", "spot8"}, asked)
}

func TestMerge_NilSides(t *testing.T) {
	got := Merge([]tour.SpotID{"spot1"}, nil, nil)
	assert.Equal(t, tour.Record{"spot1": false}, got)
}

func TestMerge_IgnoresRemoteSpotsOutsideSet(t *testing.T) {
	got := Merge([]tour.SpotID{"spot1"}, tour.Record{"spot1": false, "spot2": true}, nil)
	assert.Equal(t, tour.Record{"spot1": false}, got)
}

func TestMerge_DuplicatesCollapse(t *testing.T) {
	got := Merge([]tour.SpotID{"spot1", "spot1", "spot2"}, tour.Record{"spot1": true}, nil)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, got.Count([]tour.SpotID{"spot1", "spot2"}))
}

// drawRecord draws a record over a random subset of allSpots.
func drawRecord(t *rapid.T, label string) tour.Record {
	owned := rapid.SliceOfDistinct(rapid.SampledFrom(allSpots), func(s tour.SpotID) tour.SpotID { return s }).Draw(t, label)
	rec := tour.Record{}
	for _, s := range owned {
		rec[s] = rapid.Bool().Draw(t, label+"_"+string(s))
	}
	return rec
}

// P1: owned iff remote or local is set.
func TestMerge_PropertyORMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		spots := rapid.SliceOfN(rapid.SampledFrom(allSpots), 1, 12).Draw(t, "spots")
		remote := drawRecord(t, "remote")
		local := drawRecord(t, "local")

		got := Merge(spots, remote, func(s tour.SpotID) bool { return local[s] })

		for _, s := range spots {
			want := remote[s] || local[s]
			if got[s] != want {
				t.Fatalf("owned(%s) = %v, want %v (remote=%v local=%v)", s, got[s], want, remote[s], local[s])
			}
		}
		if len(got) != len(tour.TargetSet{Spots: spots}.Unique()) {
			t.Fatalf("ownership has %d entries for %d unique spots", len(got), len(tour.TargetSet{Spots: spots}.Unique()))
		}
	})
}

// Adding a flag to either side can only add ownership.
func TestMerge_PropertyAddingFlagsNeverUnowns(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		remote := drawRecord(t, "remote")
		local := drawRecord(t, "local")
		extra := rapid.SampledFrom(allSpots).Draw(t, "extra")

		before := Merge(allSpots, remote, func(s tour.SpotID) bool { return local[s] })

		local2 := local.Clone()
		local2[extra] = true
		after := Merge(allSpots, remote, func(s tour.SpotID) bool { return local2[s] })

		for _, s := range allSpots {
			if before[s] && !after[s] {
				t.Fatalf("spot %s was un-owned by adding a local flag", s)
			}
		}
		if !after[extra] {
			t.Fatalf("spot %s not owned after setting its local flag", extra)
		}
	})
}
