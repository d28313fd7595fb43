package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/ticktrack/internal/conflict"
)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testTime returns a fixed UTC instant offset by minutes.
func testTime(minutes int) time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
}

func testRecord(loc string, s1, s2 int) conflict.Record {
	return conflict.Record{
		Location: loc,
		Kind:     "war",
		Side1:    conflict.Side{Name: "Fuel Rats", Stake: "Rescue Depot", Score: s1},
		Side2:    conflict.Side{Name: "Gold Syndicate", Score: s2},
	}
}
