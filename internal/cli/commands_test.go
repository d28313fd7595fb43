package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ticktrack/internal/conflict"
	"github.com/roach88/ticktrack/internal/reconcile"
	"github.com/roach88/ticktrack/internal/store"
)

func TestParties(t *testing.T) {
	db := testDB(t)

	res := runCLI(t, "--db", db, "parties", "add", "Fuel Rats", "Gold Syndicate")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Tracked parties (2):")

	res = runCLI(t, "--db", db, "parties", "remove", "gold syndicate", "Nobody")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Not tracked: Nobody")

	res = runCLI(t, "--db", db, "--format", "json", "parties", "list")
	require.NoError(t, res.err)
	var got PartiesResult
	decodeData(t, res.stdout, &got)
	assert.Equal(t, []string{"Fuel Rats"}, got.Parties)
}

func TestPartiesAddRejectsEmptyName(t *testing.T) {
	res := runCLI(t, "--db", testDB(t), "parties", "add", "  ")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
}

func TestIngestRecordsAndReconcileTick(t *testing.T) {
	db := testDB(t)
	require.NoError(t, runCLI(t, "--db", db, "parties", "add", "Fuel Rats").err)

	res := runCLI(t, "--db", db, "ingest", "records", writeFile(t, "records.jsonl", recordsFixture))
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Ingested 3 records rows")

	res = runCLI(t, "--db", db, "--format", "json", "reconcile", "tick", "2026-03-01T12:00:00Z", "--dry-run")
	require.NoError(t, res.err)

	var sum reconcile.Summary
	decodeData(t, res.stdout, &sum)
	assert.Equal(t, reconcile.SourceTick, sum.Source)
	assert.Equal(t, "h-1", sum.ConfirmedBy)
	assert.Equal(t, 1, sum.New)

	res = runCLI(t, "--db", db, "--format", "json", "status")
	require.NoError(t, res.err)
	var status StatusResult
	decodeData(t, res.stdout, &status)
	require.Len(t, status.Conflicts, 1)
	assert.Equal(t, "Alpha", status.Conflicts[0].Location)
	assert.Equal(t, "1-0", status.Conflicts[0].Score)
	require.NotNil(t, status.LastTick)
	assert.Equal(t, "h-1", status.LastTick.Handle)
}

func TestReconcileTickDefaultsToLastTick(t *testing.T) {
	db := testDB(t)
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.SaveTick(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
	require.NoError(t, st.Close())

	res := runCLI(t, "--db", db, "reconcile", "tick")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "skipped: "+reconcile.SkipNoTickHandle)
}

func TestReconcileTickInvalidMarker(t *testing.T) {
	res := runCLI(t, "--db", testDB(t), "reconcile", "tick", "yesterday")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "invalid marker")
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
}

func TestIngestMirrorAndReconcileMirror(t *testing.T) {
	db := testDB(t)
	require.NoError(t, runCLI(t, "--db", db, "parties", "add", "Fuel Rats").err)

	res := runCLI(t, "--db", db, "ingest", "mirror", writeFile(t, "mirror.yaml", mirrorFixture))
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Ingested 2 mirror rows")

	res = runCLI(t, "--db", db, "reconcile", "mirror", "--dry-run")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "confirmed by mirror")
	assert.Contains(t, res.stdout, "New: 2")

	res = runCLI(t, "--db", db, "status")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Conflicts: 2")
	assert.Contains(t, res.stdout, "Gamma: civilwar Gold Syndicate vs fuel rats, 0-0 (confirmed by mirror")
}

func TestReconcileMirrorEmptyKeepsState(t *testing.T) {
	db := testDB(t)
	st, err := store.Open(db)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, st.AddTrackedParty(ctx, "Fuel Rats"))
	require.NoError(t, st.UpsertConflictState(ctx, conflict.Record{
		Location: "Alpha",
		Kind:     "war",
		Side1:    conflict.Side{Name: "Fuel Rats", Score: 1},
		Side2:    conflict.Side{Name: "Gold Syndicate"},
	}, "h-1", time.Now()))
	require.NoError(t, st.Close())

	res := runCLI(t, "--db", db, "reconcile", "mirror", "--dry-run")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Sweep skipped")

	res = runCLI(t, "--db", db, "status")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Conflicts: 1")
}

func TestIngestInvalidInput(t *testing.T) {
	db := testDB(t)

	res := runCLI(t, "--db", db, "ingest", "records", writeFile(t, "bad.jsonl", "{\"tick_handle\":\"h\"}\nnot json\n"))
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "line 2")
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))

	res = runCLI(t, "--db", db, "ingest", "mirror", writeFile(t, "bad.yaml", "- side1: x\n"))
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "row 1 has no location")

	res = runCLI(t, "--db", db, "ingest", "records", "/nonexistent/records.jsonl")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "failed to open input file")
}

func TestStatusStale(t *testing.T) {
	db := testDB(t)
	st, err := store.Open(db)
	require.NoError(t, err)
	ctx := context.Background()
	for loc, at := range map[string]time.Time{
		"Old":   time.Now().Add(-3 * time.Hour),
		"Fresh": time.Now(),
	} {
		require.NoError(t, st.UpsertConflictState(ctx, conflict.Record{
			Location: loc,
			Kind:     "war",
			Side1:    conflict.Side{Name: "Fuel Rats"},
			Side2:    conflict.Side{Name: "Gold Syndicate"},
		}, "h-1", at))
	}
	require.NoError(t, st.Close())

	res := runCLI(t, "--db", db, "--format", "json", "status", "--stale", "1h")
	require.NoError(t, res.err)

	var status StatusResult
	decodeData(t, res.stdout, &status)
	assert.Equal(t, "1h0m0s", status.Stale)
	require.Len(t, status.Conflicts, 1)
	assert.Equal(t, "Old", status.Conflicts[0].Location)
	assert.Nil(t, status.LastTick)
}

func TestStatusNonExistentDatabase(t *testing.T) {
	res := runCLI(t, "--db", "/nonexistent/path/test.db", "status")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "failed to open database")
}
