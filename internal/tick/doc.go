// Package tick watches the external tick endpoint and broadcasts tick
// boundaries.
//
// The Poller is the only publisher. It seeds its last known marker from the
// store, polls on an interval and, when the marker changes, persists it,
// publishes it on the Bus and announces it to the configured sinks.
//
// The Bus is an in-memory broadcast: Publish never blocks and every
// subscriber has its own unbounded FIFO, so a slow consumer never holds up
// the poller or other subscribers. Markers published before Subscribe are
// not replayed.
package tick
