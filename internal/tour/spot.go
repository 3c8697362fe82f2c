package tour

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SpotID names one physical location of the tour (e.g. "spot7").
type SpotID string

// Record maps spots to ownership. A missing spot is not owned.
type Record map[SpotID]bool

var spotPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ParseSpotID normalizes a configured or user-supplied spot token.
// Tokens are trimmed and NFC normalized before validation so that
// visually identical tokens produce identical storage keys.
func ParseSpotID(s string) (SpotID, error) {
	tok := norm.NFC.String(strings.TrimSpace(s))
	if tok == "" {
		return "", fmt.Errorf("spot id is empty")
	}
	if !spotPattern.MatchString(tok) {
		return "", fmt.Errorf("invalid spot id %q: must match %s", tok, spotPattern.String())
	}
	return SpotID(tok), nil
}

// Count returns how many of the given spots are owned in r.
func (r Record) Count(spots []SpotID) int {
	n := 0
	for _, s := range spots {
		if r[s] {
			n++
		}
	}
	return n
}

// Clone returns a copy of r. A nil record clones to an empty one.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
