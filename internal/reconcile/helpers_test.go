package reconcile

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ticktrack/internal/notify"
	"github.com/roach88/ticktrack/internal/store"
	"github.com/roach88/ticktrack/internal/testutil"
)

const us = "Fuel Rats"

func at(minutes int) time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
}

type fixture struct {
	store *store.Store
	hook  *testutil.WebhookRecorder
	rec   *Reconciler
	now   *testutil.ManualTime
}

func newFixture(t *testing.T, parties ...string) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	for _, p := range parties {
		require.NoError(t, st.AddTrackedParty(context.Background(), p))
	}

	hook := testutil.NewWebhookRecorder(t)
	sinks := map[notify.Category][]string{}
	for _, c := range notify.Categories {
		sinks[c] = []string{hook.URL}
	}
	now := testutil.NewManualTime(at(0))

	rec := NewReconciler(st, notify.NewWebhook(sinks),
		WithRunIDGenerator(testutil.NewFixedRunIDGenerator("run-test")),
		WithNow(now.Now),
	)
	return &fixture{store: st, hook: hook, rec: rec, now: now}
}

func warJSON(f1 string, d1 int, f2 string, d2 int) string {
	return fmt.Sprintf(
		`{"WarType":"war","Status":"active","Faction1":{"Name":%q,"Stake":"Rescue Depot","WonDays":%d},"Faction2":{"Name":%q,"Stake":"","WonDays":%d}}`,
		f1, d1, f2, d2,
	)
}

func journal(loc string, conflicts ...string) []byte {
	return []byte(fmt.Sprintf(`{"event":"FSDJump","StarSystem":%q,"Conflicts":[%s]}`, loc, strings.Join(conflicts, ",")))
}

func (f *fixture) addRecord(t *testing.T, handle string, minutes int, payload []byte) {
	t.Helper()
	_, err := f.store.InsertRawRecord(context.Background(), store.RawRecord{
		TickHandle: handle,
		Payload:    payload,
		ReceivedAt: at(minutes),
	})
	require.NoError(t, err)
}

func (f *fixture) states(t *testing.T) map[string]store.ConflictState {
	t.Helper()
	list, err := f.store.ConflictStates(context.Background())
	require.NoError(t, err)
	out := make(map[string]store.ConflictState, len(list))
	for _, st := range list {
		out[st.Record.Location] = st
	}
	return out
}
