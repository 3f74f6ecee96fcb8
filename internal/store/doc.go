// Package store provides the SQLite-backed call journal.
//
// Every call through the bridge can be appended to the calls table together
// with its outcome and, on success, the result's type and structural
// fingerprint. The journal is append-only.
//
// # Ordering
//
//   - Every row carries seq INTEGER from a logical clock, never a timestamp
//   - Queries order by seq ASC, id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Journal adapts a Store to bridge.Recorder. Write failures are logged and
// counted but never returned to the bridge caller.
package store
