package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// TickServer is an httptest server that answers like the tick endpoint:
// {"lastTick": "<RFC3339>"}.
type TickServer struct {
	*httptest.Server

	mu     sync.Mutex
	marker time.Time
	fail   bool
	hits   int
}

// NewTickServer starts a tick endpoint reporting marker. It is closed when
// the test ends.
func NewTickServer(t *testing.T, marker time.Time) *TickServer {
	t.Helper()
	s := &TickServer{marker: marker}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *TickServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits++
	marker, fail := s.marker, s.fail
	s.mu.Unlock()

	if fail {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"lastTick": marker.UTC().Format(time.RFC3339Nano),
	})
}

// SetMarker changes the reported tick.
func (s *TickServer) SetMarker(m time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marker = m
}

// SetFailing makes the endpoint answer 503 while fail is true.
func (s *TickServer) SetFailing(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

// Hits returns how many requests the server has answered.
func (s *TickServer) Hits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits
}
