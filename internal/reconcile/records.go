package reconcile

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/roach88/ticktrack/internal/conflict"
	"github.com/roach88/ticktrack/internal/store"
)

var (
	errNoPayload      = errors.New("no payload")
	errInvalidPayload = errors.New("payload is not valid JSON")
	errNoConflictData = errors.New("payload carries no conflict data")
	errAllMalformed   = errors.New("every conflict entry is malformed")
)

// ExtractSnapshot builds the current snapshot from raw records, oldest
// first. A record whose payload has a Conflicts array is authoritative for
// its location: it replaces whatever earlier records said, including
// dropping the location when none of its conflicts involves a tracked
// party. Records without a payload, with invalid JSON, without conflict
// data or whose conflict entries are all malformed are skipped.
func ExtractSnapshot(records []store.RawRecord, parties conflict.PartySet) conflict.Snapshot {
	snap := conflict.Snapshot{}
	skipped := 0

	for _, rec := range records {
		loc, conflicts, err := parsePayload(rec.Payload)
		if err != nil {
			skipped++
			if !errors.Is(err, errNoConflictData) {
				slog.Debug("skipping raw record", "record_id", rec.ID, "error", err)
			}
			continue
		}

		delete(snap, loc)
		for _, c := range conflicts {
			if parties.Involves(c) {
				snap[loc] = c
			}
		}
	}

	if skipped > 0 {
		slog.Debug("raw records skipped", "count", skipped, "total", len(records))
	}
	return snap
}

// parsePayload reads the location and its conflicts from a journal-style
// payload. Individual malformed conflicts are dropped; a non-empty list in
// which every entry is malformed is an error.
func parsePayload(payload []byte) (string, []conflict.Record, error) {
	if len(payload) == 0 {
		return "", nil, errNoPayload
	}
	if !gjson.ValidBytes(payload) {
		return "", nil, errInvalidPayload
	}

	root := gjson.ParseBytes(payload)
	loc := strings.TrimSpace(root.Get("StarSystem").String())
	if loc == "" {
		return "", nil, fmt.Errorf("payload missing StarSystem")
	}

	list := root.Get("Conflicts")
	if !list.IsArray() {
		return "", nil, errNoConflictData
	}

	var out []conflict.Record
	dropped := 0
	list.ForEach(func(_, v gjson.Result) bool {
		if rec, ok := parseConflict(loc, v); ok {
			out = append(out, rec)
		} else {
			dropped++
		}
		return true
	})
	if len(out) == 0 && dropped > 0 {
		return loc, nil, errAllMalformed
	}
	if dropped > 0 {
		slog.Debug("dropped malformed conflict entries", "location", loc, "dropped", dropped)
	}
	return loc, out, nil
}

func parseConflict(loc string, v gjson.Result) (conflict.Record, bool) {
	if !v.IsObject() {
		return conflict.Record{}, false
	}
	kind := v.Get("WarType")
	if kind.Type != gjson.String || strings.TrimSpace(kind.Str) == "" {
		return conflict.Record{}, false
	}
	s1, ok := parseSide(v.Get("Faction1"))
	if !ok {
		return conflict.Record{}, false
	}
	s2, ok := parseSide(v.Get("Faction2"))
	if !ok {
		return conflict.Record{}, false
	}

	rec := conflict.Record{Location: loc, Kind: strings.TrimSpace(kind.Str), Side1: s1, Side2: s2}
	if err := rec.Validate(); err != nil {
		return conflict.Record{}, false
	}
	return rec, true
}

func parseSide(v gjson.Result) (conflict.Side, bool) {
	if !v.IsObject() {
		return conflict.Side{}, false
	}
	name := v.Get("Name")
	if name.Type != gjson.String {
		return conflict.Side{}, false
	}
	days := v.Get("WonDays")
	if days.Type != gjson.Number || days.Num != float64(days.Int()) {
		return conflict.Side{}, false
	}
	return conflict.Side{
		Name:  strings.TrimSpace(name.Str),
		Stake: strings.TrimSpace(v.Get("Stake").String()),
		Score: int(days.Int()),
	}, true
}
