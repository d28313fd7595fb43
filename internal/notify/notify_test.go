package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ticktrack/internal/testutil"
)

func TestWebhook_DeliversToEverySinkOfCategory(t *testing.T) {
	a := testutil.NewWebhookRecorder(t)
	b := testutil.NewWebhookRecorder(t)
	other := testutil.NewWebhookRecorder(t)

	w := NewWebhook(map[Category][]string{
		CategoryConflictNew:    {a.URL, b.URL},
		CategoryConflictScored: {other.URL},
	})

	w.Notify(context.Background(), CategoryConflictNew, "hello")

	assert.Equal(t, []string{"hello"}, a.Messages())
	assert.Equal(t, []string{"hello"}, b.Messages())
	assert.Empty(t, other.Messages())
}

func TestWebhook_UnconfiguredCategoryIsSilent(t *testing.T) {
	w := NewWebhook(nil)
	assert.NotPanics(t, func() {
		w.Notify(context.Background(), CategoryConflictResolved, "nobody listens")
	})
}

func TestWebhook_OneFailingSinkDoesNotBlockOthers(t *testing.T) {
	broken := testutil.NewWebhookRecorder(t)
	broken.FailWith(http.StatusInternalServerError)
	ok := testutil.NewWebhookRecorder(t)

	w := NewWebhook(map[Category][]string{
		CategoryTick: {broken.URL, "://not a url", ok.URL},
	})

	w.Notify(context.Background(), CategoryTick, "tick")

	assert.Empty(t, broken.Messages())
	assert.Equal(t, []string{"tick"}, ok.Messages())
}

func TestWebhook_TimeoutPerSink(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)
	ok := testutil.NewWebhookRecorder(t)

	w := NewWebhook(map[Category][]string{
		CategoryTick: {slow.URL, ok.URL},
	}, WithTimeout(50*time.Millisecond))

	start := time.Now()
	w.Notify(context.Background(), CategoryTick, "tick")
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, []string{"tick"}, ok.Messages())
}

func TestWebhook_AnnounceTick(t *testing.T) {
	rec := testutil.NewWebhookRecorder(t)
	w := NewWebhook(map[Category][]string{CategoryTick: {rec.URL}})

	w.AnnounceTick(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "**New tick** detected at 2026-03-01 12:00 UTC", msgs[0])
}

func TestNewWebhook_CopiesSinks(t *testing.T) {
	rec := testutil.NewWebhookRecorder(t)
	sinks := map[Category][]string{CategoryTick: {rec.URL}}
	w := NewWebhook(sinks)

	sinks[CategoryTick][0] = "http://127.0.0.1:1/"
	w.Notify(context.Background(), CategoryTick, "still delivered")

	assert.Equal(t, []string{"still delivered"}, rec.Messages())
}

func TestSinkHost(t *testing.T) {
	assert.Equal(t, "discord.com", sinkHost("https://discord.com/api/webhooks/1/secret"))
	assert.Equal(t, "invalid-url", sinkHost("::"))
}

func TestDiscard(t *testing.T) {
	var n Notifier = Discard{}
	n.Notify(context.Background(), CategoryTick, "dropped")
	Discard{}.AnnounceTick(context.Background(), time.Now())
}
