package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/ticktrack/internal/conflict"
)

// ConfirmedByMirror is the confirmation source stamped by the fallback scan.
const ConfirmedByMirror = "mirror"

// ConflictState is a persisted conflict plus the source that last saw it.
type ConflictState struct {
	Record      conflict.Record
	ConfirmedBy string
	ConfirmedAt time.Time
}

// UpsertConflictState writes the last-seen record for a location.
// Re-applying an identical record only refreshes the confirmation columns.
func (s *Store) UpsertConflictState(ctx context.Context, rec conflict.Record, confirmedBy string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conflict_states
		(location, kind, side1_name, side1_stake, side1_score,
		 side2_name, side2_stake, side2_score, confirmed_by, confirmed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(location) DO UPDATE SET
			kind = excluded.kind,
			side1_name = excluded.side1_name,
			side1_stake = excluded.side1_stake,
			side1_score = excluded.side1_score,
			side2_name = excluded.side2_name,
			side2_stake = excluded.side2_stake,
			side2_score = excluded.side2_score,
			confirmed_by = excluded.confirmed_by,
			confirmed_at = excluded.confirmed_at
	`,
		rec.Location,
		rec.Kind,
		rec.Side1.Name,
		rec.Side1.Stake,
		rec.Side1.Score,
		rec.Side2.Name,
		rec.Side2.Stake,
		rec.Side2.Score,
		confirmedBy,
		toMillis(at),
	)
	if err != nil {
		return fmt.Errorf("upsert conflict state %q: %w", rec.Location, err)
	}
	return nil
}

// DeleteConflictState removes the state for a location.
// Deleting a location that is not tracked is a no-op.
func (s *Store) DeleteConflictState(ctx context.Context, location string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM conflict_states WHERE location = ?`, location)
	if err != nil {
		return fmt.Errorf("delete conflict state %q: %w", location, err)
	}
	return nil
}

// ConflictStates returns every persisted state ordered by location.
// Returns an empty slice (not nil) when nothing is tracked.
func (s *Store) ConflictStates(ctx context.Context) ([]ConflictState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT location, kind, side1_name, side1_stake, side1_score,
		       side2_name, side2_stake, side2_score, confirmed_by, confirmed_at
		FROM conflict_states
		ORDER BY location COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query conflict states: %w", err)
	}
	defer rows.Close()

	states := []ConflictState{}
	for rows.Next() {
		st, err := scanConflictState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conflict states: %w", err)
	}

	return states, nil
}

// ConflictSnapshot returns the persisted states keyed by location, the
// "previous" input of conflict.Diff.
func (s *Store) ConflictSnapshot(ctx context.Context) (conflict.Snapshot, error) {
	states, err := s.ConflictStates(ctx)
	if err != nil {
		return nil, err
	}
	snap := make(conflict.Snapshot, len(states))
	for _, st := range states {
		snap[st.Record.Location] = st.Record
	}
	return snap, nil
}

// StaleConflictStates returns states whose last confirmation is older than
// cutoff, ordered by location.
func (s *Store) StaleConflictStates(ctx context.Context, cutoff time.Time) ([]ConflictState, error) {
	states, err := s.ConflictStates(ctx)
	if err != nil {
		return nil, err
	}
	stale := []ConflictState{}
	for _, st := range states {
		if st.ConfirmedAt.Before(cutoff) {
			stale = append(stale, st)
		}
	}
	return stale, nil
}

func scanConflictState(rows *sql.Rows) (ConflictState, error) {
	var st ConflictState
	var at int64
	r := &st.Record
	err := rows.Scan(
		&r.Location,
		&r.Kind,
		&r.Side1.Name,
		&r.Side1.Stake,
		&r.Side1.Score,
		&r.Side2.Name,
		&r.Side2.Stake,
		&r.Side2.Score,
		&st.ConfirmedBy,
		&at,
	)
	if err != nil {
		return ConflictState{}, fmt.Errorf("scan conflict state: %w", err)
	}
	st.ConfirmedAt = fromMillis(at)
	return st, nil
}
