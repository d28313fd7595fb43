// Package reconcile runs conflict reconciliation against the State Store.
//
// Two independent consumers feed the same Reconciler:
//
//   - TickConsumer reads tick markers from a tick.Subscription, resolves
//     each one to a tick handle and builds the current snapshot from the raw
//     records stamped with that handle.
//   - FallbackScanner runs on a fixed interval and builds the current
//     snapshot from the mirror table.
//
// Both call Reconciler.Reconcile, which loads the previous snapshot, runs
// conflict.Diff and applies the plan one location at a time: store write
// first, notification second. A failed notification never rolls back a
// write; a failed write suppresses that location's notification so the next
// run reports it instead.
//
// The consumers do not coordinate. Both may read the same previous snapshot
// and both may notify for the same transition. That duplicate is accepted:
// delivery is at-least-once and no lock or transaction spans a run.
//
// Data gaps (no tick handle yet, no tracked parties, an empty mirror while
// parties exist) skip the run or its sweep and leave the store untouched.
package reconcile
