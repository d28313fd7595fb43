package reconcile

import (
	"log/slog"
	"strings"

	"github.com/roach88/ticktrack/internal/conflict"
	"github.com/roach88/ticktrack/internal/store"
)

// MirrorSnapshot converts mirror rows into a snapshot, dropping rows that
// fail validation or do not involve a tracked party.
func MirrorSnapshot(rows []store.MirrorRow, parties conflict.PartySet) conflict.Snapshot {
	snap := make(conflict.Snapshot, len(rows))
	for _, row := range rows {
		rec := conflict.Record{
			Location: strings.TrimSpace(row.Location),
			Kind:     strings.TrimSpace(row.Kind),
			Side1:    conflict.Side{Name: strings.TrimSpace(row.Side1), Stake: row.Stake1, Score: row.Score1},
			Side2:    conflict.Side{Name: strings.TrimSpace(row.Side2), Stake: row.Stake2, Score: row.Score2},
		}
		if err := rec.Validate(); err != nil {
			slog.Debug("skipping mirror row", "location", row.Location, "error", err)
			continue
		}
		if !parties.Involves(rec) {
			continue
		}
		snap[rec.Location] = rec
	}
	return snap
}
