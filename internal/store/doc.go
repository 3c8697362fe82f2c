// Package store provides durable key/value storage for the on-device cache.
//
// The local cache is a flat namespace of string keys holding string values
// (the stamp and seen-flag formats are defined in package tour). Two
// implementations of KV are provided:
//   - Store: SQLite-backed, survives restarts, never expires entries
//   - Memory: map-backed, for tests and ephemeral sessions
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Writes are single-row upserts, so concurrent writers racing on the same
// key converge on the same value regardless of order.
package store
