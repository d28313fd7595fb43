// Package store provides SQLite-backed storage for ticktrack.
//
// The store holds five tables:
//   - ticks: every tick marker seen, with the tick handle it resolved to
//   - conflict_states: the last-seen conflict per location (State Store)
//   - raw_records: per-submission records stamped with a tick handle
//   - mirror_conflicts: mirror table fed by the live ingestion feed
//   - tracked_parties: names the operator considers "ours"
//
// # Write Patterns
//
// All writes are idempotent: ticks use ON CONFLICT(marker) DO NOTHING,
// conflict states use ON CONFLICT(location) DO UPDATE, deletes of missing
// rows are no-ops. Re-applying the same reconciliation plan leaves the
// database unchanged apart from confirmation timestamps.
//
// No transaction spans a reconciliation run. Two consumers may read the same
// conflict_states snapshot and both write; the last write wins.
//
// # Time
//
// Tick markers, receive times and confirmation times are stored as Unix
// milliseconds so that markers and record times compare numerically.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
