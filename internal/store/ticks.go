package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Tick is a persisted tick marker. Handle is empty until the marker has
// been resolved to a tick handle.
type Tick struct {
	Marker     time.Time
	Handle     string
	ObservedAt time.Time
}

// SaveTick records a newly observed tick marker.
// Uses ON CONFLICT(marker) DO NOTHING - saving the same marker twice is a no-op.
func (s *Store) SaveTick(ctx context.Context, marker time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ticks (marker, observed_at)
		VALUES (?, ?)
		ON CONFLICT(marker) DO NOTHING
	`, toMillis(marker), toMillis(s.now()))
	if err != nil {
		return fmt.Errorf("save tick: %w", err)
	}
	return nil
}

// LatestTick returns the most recent tick marker.
// Returns ErrNotFound if no tick has ever been saved.
func (s *Store) LatestTick(ctx context.Context) (Tick, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT marker, handle, observed_at
		FROM ticks
		ORDER BY marker DESC
		LIMIT 1
	`)
	return scanTick(row)
}

// ReadTick returns the tick row for marker.
// Returns ErrNotFound if the marker was never saved.
func (s *Store) ReadTick(ctx context.Context, marker time.Time) (Tick, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT marker, handle, observed_at
		FROM ticks
		WHERE marker = ?
	`, toMillis(marker))
	return scanTick(row)
}

// SetTickHandle stores the handle a marker resolved to. The marker row is
// created if it does not exist yet.
func (s *Store) SetTickHandle(ctx context.Context, marker time.Time, handle string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ticks (marker, handle, observed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(marker) DO UPDATE SET handle = excluded.handle
	`, toMillis(marker), handle, toMillis(s.now()))
	if err != nil {
		return fmt.Errorf("set tick handle: %w", err)
	}
	return nil
}

// ResolveTickHandle returns the tick handle of the most recent raw record
// received strictly before marker. Records without a handle are ignored.
// Returns ErrNotFound if no such record exists yet.
//
// The lookup trusts record receive times. If the upstream clock skews
// relative to the tick source this can return a stale handle.
func (s *Store) ResolveTickHandle(ctx context.Context, marker time.Time) (string, error) {
	var handle string
	err := s.db.QueryRowContext(ctx, `
		SELECT tick_handle
		FROM raw_records
		WHERE received_at < ? AND tick_handle <> ''
		ORDER BY received_at DESC, id DESC
		LIMIT 1
	`, toMillis(marker)).Scan(&handle)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve tick handle: %w", err)
	}
	return handle, nil
}

func scanTick(row *sql.Row) (Tick, error) {
	var marker, observed int64
	var t Tick
	err := row.Scan(&marker, &t.Handle, &observed)
	if errors.Is(err, sql.ErrNoRows) {
		return Tick{}, ErrNotFound
	}
	if err != nil {
		return Tick{}, fmt.Errorf("scan tick: %w", err)
	}
	t.Marker = fromMillis(marker)
	t.ObservedAt = fromMillis(observed)
	return t, nil
}
