package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/ticktrack/internal/conflict"
	"github.com/roach88/ticktrack/internal/notify"
	"github.com/roach88/ticktrack/internal/store"
)

// Source names used in summaries and logs.
const (
	SourceTick   = "tick"
	SourceMirror = "mirror"
)

// Summary describes one reconciliation run.
type Summary struct {
	RunID       string `json:"run_id"`
	Source      string `json:"source"`
	ConfirmedBy string `json:"confirmed_by,omitempty"`

	// Skipped is set when the run stopped before diffing.
	Skipped string `json:"skipped,omitempty"`
	// SweepSkipped is set when Gone locations were left in place.
	SweepSkipped bool `json:"sweep_skipped,omitempty"`

	New       int `json:"new"`
	Scored    int `json:"scored"`
	Resolved  int `json:"resolved"`
	Unchanged int `json:"unchanged"`
	Gone      int `json:"gone"`
	Failed    int `json:"failed"`
}

func (s *Summary) count(t conflict.Transition) {
	switch t {
	case conflict.TransitionNew:
		s.New++
	case conflict.TransitionScored:
		s.Scored++
	case conflict.TransitionResolved:
		s.Resolved++
	case conflict.TransitionUnchanged:
		s.Unchanged++
	case conflict.TransitionGone:
		s.Gone++
	}
}

// Input is one run's view of the world.
type Input struct {
	RunID       string
	Source      string
	ConfirmedBy string
	Current     conflict.Snapshot
	Parties     conflict.PartySet
	SkipSweep   bool
}

// Reconciler applies diff plans to the State Store and notifies sinks.
// It is safe for concurrent use; concurrent runs race as described in the
// package documentation.
type Reconciler struct {
	store    *store.Store
	notifier notify.Notifier
	runIDs   RunIDGenerator
	now      func() time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithRunIDGenerator overrides the run ID generator (for testing).
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(r *Reconciler) {
		r.runIDs = g
	}
}

// WithNow overrides the wall clock used for confirmation timestamps.
func WithNow(now func() time.Time) Option {
	return func(r *Reconciler) {
		r.now = now
	}
}

// NewReconciler creates a Reconciler. A nil notifier discards messages.
func NewReconciler(st *store.Store, n notify.Notifier, opts ...Option) *Reconciler {
	if n == nil {
		n = notify.Discard{}
	}
	r := &Reconciler{
		store:    st,
		notifier: n,
		runIDs:   UUIDv7Generator{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRunID returns a fresh run ID.
func (r *Reconciler) NewRunID() string {
	return r.runIDs.Generate()
}

// LoadParties reads the tracked-party set. It is called at the start of
// every run and never cached.
func (r *Reconciler) LoadParties(ctx context.Context) (conflict.PartySet, error) {
	names, err := r.store.TrackedParties(ctx)
	if err != nil {
		return conflict.PartySet{}, err
	}
	return conflict.NewPartySet(names...), nil
}

// Reconcile diffs in.Current against the stored snapshot and applies the
// plan sequentially, one location at a time.
func (r *Reconciler) Reconcile(ctx context.Context, in Input) (Summary, error) {
	if in.RunID == "" {
		in.RunID = r.NewRunID()
	}
	sum := Summary{RunID: in.RunID, Source: in.Source, ConfirmedBy: in.ConfirmedBy}

	previous, err := r.store.ConflictSnapshot(ctx)
	if err != nil {
		return sum, &RunError{Phase: "previous", Source: in.Source, Err: err}
	}

	plan := conflict.Diff(in.Current, previous, in.Parties)
	if in.SkipSweep {
		if n := plan.Count(conflict.TransitionGone); n > 0 {
			slog.Warn("skipping sweep of absent conflicts",
				"run_id", in.RunID,
				"source", in.Source,
				"locations", n,
			)
		}
		plan = plan.WithoutSweep()
		sum.SweepSkipped = true
	}

	at := r.now()
	for _, c := range plan.Changes {
		if err := r.apply(ctx, c, in.ConfirmedBy, at); err != nil {
			sum.Failed++
			slog.Error("conflict state write failed",
				"run_id", in.RunID,
				"source", in.Source,
				"location", c.Location,
				"transition", c.Transition.String(),
				"error", err,
			)
			continue
		}
		sum.count(c.Transition)
		logChange(in, c)
		r.notify(ctx, c)
	}

	slog.Info("reconciliation finished",
		"run_id", in.RunID,
		"source", in.Source,
		"confirmed_by", in.ConfirmedBy,
		"new", sum.New,
		"scored", sum.Scored,
		"resolved", sum.Resolved,
		"unchanged", sum.Unchanged,
		"gone", sum.Gone,
		"failed", sum.Failed,
	)
	return sum, nil
}

func (r *Reconciler) apply(ctx context.Context, c conflict.Change, confirmedBy string, at time.Time) error {
	switch c.Op {
	case conflict.OpUpsert:
		return r.store.UpsertConflictState(ctx, c.Current, confirmedBy, at)
	case conflict.OpDelete:
		return r.store.DeleteConflictState(ctx, c.Location)
	default:
		return nil
	}
}

func (r *Reconciler) notify(ctx context.Context, c conflict.Change) {
	category, ok := notify.CategoryFor(c.Transition)
	if !ok {
		return
	}
	msg, ok := notify.FormatChange(c)
	if !ok {
		return
	}
	r.notifier.Notify(ctx, category, msg)
}

func logChange(in Input, c conflict.Change) {
	attrs := []any{
		"run_id", in.RunID,
		"source", in.Source,
		"location", c.Location,
		"transition", c.Transition.String(),
	}
	switch c.Transition {
	case conflict.TransitionGone:
		slog.Info("conflict no longer reported, dropped silently", append(attrs, "last_score", c.Previous.Score())...)
	case conflict.TransitionUnchanged:
		slog.Debug("conflict unchanged", append(attrs, "score", c.Current.Score())...)
	case conflict.TransitionResolved:
		slog.Info("conflict resolved", append(attrs,
			"score", c.Current.Score(),
			"winner", c.Current.Side(c.Winner).Name,
			"winner_tracked", c.WinnerTracked,
		)...)
	default:
		slog.Info("conflict transition", append(attrs, "score", c.Current.Score())...)
	}
}
