package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/juju/clock"

	"github.com/roach88/ticktrack/internal/store"
)

const (
	// DefaultScanInterval is the default delay between fallback scans.
	DefaultScanInterval = time.Hour
	// DefaultQueryTimeout bounds the mirror query of one scan.
	DefaultQueryTimeout = 10 * time.Second
)

// ScannerConfig configures a FallbackScanner.
type ScannerConfig struct {
	Interval     time.Duration
	QueryTimeout time.Duration
	Clock        clock.Clock // defaults to clock.WallClock
}

// FallbackScanner reconciles against the mirror table on a fixed interval,
// independent of ticks, to catch changes the tick consumer missed.
type FallbackScanner struct {
	rec   *Reconciler
	store *store.Store
	cfg   ScannerConfig
}

// NewFallbackScanner creates a scanner reading the mirror table from st.
func NewFallbackScanner(rec *Reconciler, st *store.Store, cfg ScannerConfig) *FallbackScanner {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultScanInterval
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultQueryTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	return &FallbackScanner{rec: rec, store: st, cfg: cfg}
}

// Run scans every interval until ctx is done. The first scan happens one
// interval after start. Failed scans are logged and the loop continues.
func (f *FallbackScanner) Run(ctx context.Context) error {
	slog.Info("fallback scanner starting", "interval", f.cfg.Interval.String())
	for {
		select {
		case <-ctx.Done():
			slog.Info("fallback scanner stopping: context cancelled")
			return ctx.Err()
		case <-f.cfg.Clock.After(f.cfg.Interval):
		}

		if _, err := f.ScanOnce(ctx); err != nil {
			slog.Error("fallback scan failed", "error", err)
		}
	}
}

// ScanOnce runs a single mirror reconciliation.
//
// When tracked parties exist but the mirror returns no rows at all, the
// mirror has most likely not been refilled yet this cycle. The run then
// keeps every stored conflict instead of sweeping them as Gone.
func (f *FallbackScanner) ScanOnce(ctx context.Context) (Summary, error) {
	runID := f.rec.NewRunID()
	sum := Summary{RunID: runID, Source: SourceMirror, ConfirmedBy: store.ConfirmedByMirror}

	parties, err := f.rec.LoadParties(ctx)
	if err != nil {
		return sum, &RunError{Phase: "parties", Source: SourceMirror, Err: err}
	}
	if parties.Len() == 0 {
		slog.Info("no tracked parties configured, skipping", "run_id", runID, "source", SourceMirror)
		sum.Skipped = SkipNoParties
		return sum, nil
	}

	qctx, cancel := context.WithTimeout(ctx, f.cfg.QueryTimeout)
	rows, err := f.store.MirrorConflicts(qctx, parties.Names())
	cancel()
	if err != nil {
		return sum, &RunError{Phase: "mirror", Source: SourceMirror, Err: err}
	}

	skipSweep := len(rows) == 0
	if skipSweep {
		slog.Warn("mirror returned no rows for tracked parties, assuming it is not populated yet",
			"run_id", runID,
			"parties", parties.Len(),
		)
	}

	return f.rec.Reconcile(ctx, Input{
		RunID:       runID,
		Source:      SourceMirror,
		ConfirmedBy: store.ConfirmedByMirror,
		Current:     MirrorSnapshot(rows, parties),
		Parties:     parties,
		SkipSweep:   skipSweep,
	})
}
