// Package tour defines the shared vocabulary of the stamp tour: spot tokens,
// stamp records, target sets and the local-storage key formats.
//
// # Key Formats
//
// The key formats are shared with clients that are already installed and
// must stay bit-exact:
//
//	stamp_<identifier>_<spotId>                  -> "true"
//	complete_<k>_seen_<scope>_<identifier>       -> "true"
//	complete_<k>_seen_<identifier>               -> "true" (empty scope)
//
// # Anonymous Visitors
//
// When no identifier can be resolved, every layer uses AnonymousIdentifier.
// Older clients wrote anonymous stamps under LegacyAnonymousIdentifier, so
// readers treat both markers as the same visitor on one device.
package tour
