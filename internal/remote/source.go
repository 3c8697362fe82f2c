package remote

import (
	"context"
	"errors"

	"github.com/roach88/stampbook/internal/tour"
)

// ErrMalformed is returned when a stored record cannot be interpreted.
var ErrMalformed = errors.New("malformed stamp record")

// Source performs a single point read of a user's stamp record.
// A user with no record yields an empty record and a nil error.
type Source interface {
	FetchStamps(ctx context.Context, id string) (tour.Record, error)
}

// Writer applies a multi-path update. Keys are slash-separated paths
// relative to the database root; values are JSON-encodable.
type Writer interface {
	Update(ctx context.Context, updates map[string]any) error
}

// Truthy reports whether v counts as owned. Records written by older
// clients are not always strict booleans, so this mirrors loose truthiness:
// false, 0, "", null and a missing value are not owned, anything else is.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case string:
		return val != ""
	default:
		return true
	}
}

// recordFrom converts a decoded JSON object into a stamp record.
func recordFrom(raw map[string]any) tour.Record {
	rec := make(tour.Record, len(raw))
	for k, v := range raw {
		rec[tour.SpotID(k)] = Truthy(v)
	}
	return rec
}
