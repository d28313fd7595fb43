package store

import (
	"context"
	"fmt"
	"strings"
)

// TrackedParties returns the tracked party names in name order.
// Read on every reconciliation run so operator edits apply on the next cycle.
func (s *Store) TrackedParties(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM tracked_parties ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query tracked parties: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan tracked party: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracked parties: %w", err)
	}
	return names, nil
}

// AddTrackedParty adds name. Adding a name whose folded form is already
// tracked is a no-op.
func (s *Store) AddTrackedParty(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("add tracked party: empty name")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracked_parties (name)
		SELECT ?
		WHERE NOT EXISTS (SELECT 1 FROM tracked_parties WHERE fold(name) = fold(?))
		ON CONFLICT(name) DO NOTHING
	`, name, name)
	if err != nil {
		return fmt.Errorf("add tracked party %q: %w", name, err)
	}
	return nil
}

// RemoveTrackedParty removes every tracked name that folds to the same key
// as name and reports whether any was tracked.
func (s *Store) RemoveTrackedParty(ctx context.Context, name string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tracked_parties WHERE fold(name) = fold(?)`, strings.TrimSpace(name))
	if err != nil {
		return false, fmt.Errorf("remove tracked party %q: %w", name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove tracked party %q: rows affected: %w", name, err)
	}
	return n > 0, nil
}
