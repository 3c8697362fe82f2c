package engine

import "github.com/roach88/stampbook/internal/tour"

// LocalLookup reports the local flag for one spot.
type LocalLookup func(spot tour.SpotID) bool

// Merge computes ownership for spots as remote OR local.
//
// Duplicate spots are collapsed. Both sides are consulted for every spot;
// local is looked up even when remote already owns the spot. A nil remote
// or local is treated as all-false. The returned record has an entry for
// every spot and nothing else.
func Merge(spots []tour.SpotID, remote tour.Record, local LocalLookup) tour.Record {
	owned := make(tour.Record, len(spots))
	for _, s := range spots {
		if _, done := owned[s]; done {
			continue
		}
		l := local != nil && local(s)
		owned[s] = remote[s] || l
	}
	return owned
}
