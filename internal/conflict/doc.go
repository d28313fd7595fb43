// Package conflict holds the conflict domain model and the diff engine that
// reconciles a freshly observed snapshot against the persisted one.
//
// Diff is pure: it reads two snapshots and a tracked-party set and returns a
// Plan. Applying the plan (store writes, notifications) is the caller's job.
//
// # Classification
//
// Per location, in strict priority order:
//
//  1. current only                        -> New       (upsert, notify)
//  2. both, either side >= TerminalScore  -> Resolved  (delete, notify)
//  3. both, a side's score increased      -> Scored    (upsert, notify)
//  4. both, nothing changed               -> Unchanged (upsert, silent)
//  5. previous only                       -> Gone      (delete, silent)
//
// A terminal score is also an increase, so (2) is checked before (3).
//
// When both sides sit at or above TerminalScore the winner is Side1. Real
// data never produces this; the rule only keeps the engine total.
package conflict
