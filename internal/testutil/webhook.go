package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// WebhookRecorder is an httptest server that records webhook payloads.
type WebhookRecorder struct {
	*httptest.Server

	mu       sync.Mutex
	messages []string
	status   int
}

// NewWebhookRecorder starts a recorder that answers 204 until told
// otherwise. It is closed when the test ends.
func NewWebhookRecorder(t *testing.T) *WebhookRecorder {
	t.Helper()
	r := &WebhookRecorder{status: http.StatusNoContent}
	r.Server = httptest.NewServer(http.HandlerFunc(r.handle))
	t.Cleanup(r.Close)
	return r
}

func (r *WebhookRecorder) handle(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.mu.Lock()
	status := r.status
	if status >= 200 && status <= 299 {
		r.messages = append(r.messages, body.Content)
	}
	r.mu.Unlock()

	w.WriteHeader(status)
}

// FailWith makes the recorder answer with status and stop recording.
func (r *WebhookRecorder) FailWith(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
}

// Messages returns a copy of the recorded message contents in arrival order.
func (r *WebhookRecorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

// Reset forgets recorded messages.
func (r *WebhookRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
