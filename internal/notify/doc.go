// Package notify delivers human-readable messages to webhook sinks.
//
// Delivery is best effort. Every configured URL for a category gets its own
// attempt with its own timeout; failures are logged and never returned, so a
// notification problem can never undo or skip a state write upstream.
package notify
