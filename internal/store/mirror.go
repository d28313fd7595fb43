package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/ticktrack/internal/conflict"
)

// MirrorRow is one row of the mirror table.
type MirrorRow struct {
	Location string `yaml:"location"`
	Side1    string `yaml:"side1"`
	Side2    string `yaml:"side2"`
	Stake1   string `yaml:"stake1"`
	Stake2   string `yaml:"stake2"`
	Score1   int    `yaml:"score1"`
	Score2   int    `yaml:"score2"`
	Kind     string `yaml:"kind"`
}

// UpsertMirrorRow writes a mirror row keyed by location. The live feed owns
// this table; ticktrack only writes it when loading fixtures.
func (s *Store) UpsertMirrorRow(ctx context.Context, row MirrorRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mirror_conflicts
		(location, side1, side2, stake1, stake2, score1, score2, kind)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(location) DO UPDATE SET
			side1 = excluded.side1,
			side2 = excluded.side2,
			stake1 = excluded.stake1,
			stake2 = excluded.stake2,
			score1 = excluded.score1,
			score2 = excluded.score2,
			kind = excluded.kind
	`,
		row.Location,
		row.Side1,
		row.Side2,
		row.Stake1,
		row.Stake2,
		row.Score1,
		row.Score2,
		row.Kind,
	)
	if err != nil {
		return fmt.Errorf("upsert mirror row %q: %w", row.Location, err)
	}
	return nil
}

// DeleteMirrorRow removes the mirror row for a location.
func (s *Store) DeleteMirrorRow(ctx context.Context, location string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM mirror_conflicts WHERE location = ?`, location); err != nil {
		return fmt.Errorf("delete mirror row %q: %w", location, err)
	}
	return nil
}

// MirrorConflicts returns the mirror rows where either side is one of
// parties, ordered by location. Names are compared by their
// conflict.FoldName key, the same matching the raw-record path uses.
// An empty party list returns no rows without querying.
func (s *Store) MirrorConflicts(ctx context.Context, parties []string) ([]MirrorRow, error) {
	out := []MirrorRow{}
	if len(parties) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(parties)), ",")
	args := make([]any, 0, 2*len(parties))
	for i := 0; i < 2; i++ {
		for _, p := range parties {
			args = append(args, conflict.FoldName(p))
		}
	}

	query := fmt.Sprintf(`
		SELECT location, side1, side2, stake1, stake2, score1, score2, kind
		FROM mirror_conflicts
		WHERE fold(side1) IN (%s) OR fold(side2) IN (%s)
		ORDER BY location COLLATE BINARY ASC
	`, placeholders, placeholders)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query mirror conflicts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r MirrorRow
		if err := rows.Scan(&r.Location, &r.Side1, &r.Side2, &r.Stake1, &r.Stake2, &r.Score1, &r.Score2, &r.Kind); err != nil {
			return nil, fmt.Errorf("scan mirror row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mirror rows: %w", err)
	}

	return out, nil
}
