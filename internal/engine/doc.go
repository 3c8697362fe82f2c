// Package engine implements stamp reconciliation.
//
// The engine merges the two stores a stamp can live in, the per-device
// local cache and the per-user remote record, into one ownership view for a
// configured target set, and decides whether the set is complete.
//
// PASS FLOW:
//
//  1. Resolve the identifier (absence is valid and means anonymous)
//  2. Fetch the remote record (degrades to empty on any failure)
//  3. owned(spot) = remote[spot] || local(identifier, spot)
//  4. count = number of owned spots in the target set
//  5. completed = count >= required
//
// CRITICAL PATTERNS:
//
// OR-merge: a flag set in either store is owned. The engine never writes
// stamps and never un-owns a spot.
//
// Set semantics: the target set is de-duplicated before counting.
//
// Pass ordering: every pass is stamped with a monotonic seq from Clock so
// consumers can discard a result that arrives after a newer one.
//
// No errors: identity, remote and storage faults are absorbed by the
// collaborators. Total failure yields an all-false, not-completed result.
package engine
