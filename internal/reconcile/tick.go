package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/roach88/ticktrack/internal/store"
	"github.com/roach88/ticktrack/internal/tick"
)

// Skip reasons reported in Summary.Skipped.
const (
	SkipNoTickHandle = "no tick handle for marker yet"
	SkipNoParties    = "no tracked parties"
)

// TickConsumer reconciles against raw records each time a tick marker
// arrives.
type TickConsumer struct {
	rec   *Reconciler
	store *store.Store
}

// NewTickConsumer creates a consumer that reads records from st.
func NewTickConsumer(rec *Reconciler, st *store.Store) *TickConsumer {
	return &TickConsumer{rec: rec, store: st}
}

// Run handles markers from sub one at a time, in arrival order, until ctx
// is done or the subscription is closed. Failed runs are logged and the
// next marker is processed.
func (c *TickConsumer) Run(ctx context.Context, sub *tick.Subscription) error {
	slog.Info("tick consumer starting")
	for {
		marker, err := sub.Next(ctx)
		if err != nil {
			if errors.Is(err, tick.ErrClosed) {
				slog.Info("tick consumer stopping: subscription closed")
			} else {
				slog.Info("tick consumer stopping", "reason", err)
			}
			return err
		}

		if _, err := c.HandleMarker(ctx, marker); err != nil {
			slog.Error("tick reconciliation failed",
				"marker", marker.Format(time.RFC3339),
				"error", err,
			)
		}
	}
}

// HandleMarker runs one reconciliation for marker. Handling the same
// marker twice is safe: the second run sees the first run's writes as the
// previous snapshot.
func (c *TickConsumer) HandleMarker(ctx context.Context, marker time.Time) (Summary, error) {
	runID := c.rec.NewRunID()
	sum := Summary{RunID: runID, Source: SourceTick}

	handle, err := c.store.ResolveTickHandle(ctx, marker)
	if errors.Is(err, store.ErrNotFound) {
		slog.Info("no tick handle for marker yet, skipping",
			"run_id", runID,
			"marker", marker.Format(time.RFC3339),
		)
		sum.Skipped = SkipNoTickHandle
		return sum, nil
	}
	if err != nil {
		return sum, &RunError{Phase: "resolve", Source: SourceTick, Err: err}
	}
	sum.ConfirmedBy = handle

	records, err := c.store.RawRecordsByHandle(ctx, handle)
	if err != nil {
		return sum, &RunError{Phase: "records", Source: SourceTick, Err: err}
	}

	parties, err := c.rec.LoadParties(ctx)
	if err != nil {
		return sum, &RunError{Phase: "parties", Source: SourceTick, Err: err}
	}
	if parties.Len() == 0 {
		slog.Info("no tracked parties configured, skipping", "run_id", runID)
		sum.Skipped = SkipNoParties
		return sum, nil
	}

	if err := c.store.SetTickHandle(ctx, marker, handle); err != nil {
		slog.Warn("could not record tick handle", "run_id", runID, "handle", handle, "error", err)
	}

	current := ExtractSnapshot(records, parties)
	slog.Debug("tick snapshot extracted",
		"run_id", runID,
		"handle", handle,
		"records", len(records),
		"conflicts", len(current),
	)

	return c.rec.Reconcile(ctx, Input{
		RunID:       runID,
		Source:      SourceTick,
		ConfirmedBy: handle,
		Current:     current,
		Parties:     parties,
	})
}
