package harness

import (
	"fmt"
	"sort"

	"github.com/roach88/stampbook/internal/tour"
)

// ExpectationError is returned when a pass does not match its expectation.
type ExpectationError struct {
	Pass     int
	Field    string
	Expected string
	Actual   string
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("pass %d: %s: expected %s, got %s", e.Pass, e.Field, e.Expected, e.Actual)
}

// checkExpect compares a pass trace with its expectation.
func checkExpect(trace PassTrace, want Expect) []*ExpectationError {
	var errs []*ExpectationError
	fail := func(field string, expected, actual any) {
		errs = append(errs, &ExpectationError{
			Pass:     trace.Pass,
			Field:    field,
			Expected: fmt.Sprint(expected),
			Actual:   fmt.Sprint(actual),
		})
	}

	if want.Owned != nil {
		spots := make([]string, 0, len(want.Owned))
		for s := range want.Owned {
			spots = append(spots, s)
		}
		sort.Strings(spots)
		for _, s := range spots {
			got, ok := trace.Owned[tour.SpotID(s)]
			if !ok {
				fail("owned."+s, want.Owned[s], "missing")
				continue
			}
			if got != want.Owned[s] {
				fail("owned."+s, want.Owned[s], got)
			}
		}
	}
	if want.Count != nil && *want.Count != trace.Count {
		fail("count", *want.Count, trace.Count)
	}
	if want.Completed != nil && *want.Completed != trace.Completed {
		fail("completed", *want.Completed, trace.Completed)
	}
	if want.Notify != nil && *want.Notify != trace.Notify {
		fail("notify", *want.Notify, trace.Notify)
	}
	if want.State != "" && want.State != trace.State {
		fail("state", want.State, trace.State)
	}
	if want.SeenPersisted != nil && *want.SeenPersisted != trace.SeenPersisted {
		fail("seen_persisted", *want.SeenPersisted, trace.SeenPersisted)
	}
	if want.RemoteFetches != nil && *want.RemoteFetches != trace.RemoteFetches {
		fail("remote_fetches", *want.RemoteFetches, trace.RemoteFetches)
	}
	if want.RemoteSaved != nil {
		for _, v := range trace.Visits {
			if v.RemoteSaved != *want.RemoteSaved {
				fail("remote_saved."+string(v.Spot), *want.RemoteSaved, v.RemoteSaved)
			}
		}
	}
	return errs
}
