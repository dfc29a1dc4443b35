package store

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Polqt/iComplain/client"
	"github.com/Polqt/iComplain/types"
)

// newTestClient spins up a stub API server and a client pointed at it.
func newTestClient(t *testing.T, handler http.Handler) *client.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return client.NewClient(&client.Config{BaseURL: srv.URL})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestCounter records how many requests hit each path, for the tests
// that assert a call was or was not made.
type requestCounter struct {
	mu    sync.Mutex
	paths []string
}

func (rc *requestCounter) record(r *http.Request) {
	rc.mu.Lock()
	rc.paths = append(rc.paths, r.URL.Path+"?"+r.URL.RawQuery)
	rc.mu.Unlock()
}

func (rc *requestCounter) count() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.paths)
}

func (rc *requestCounter) seen() []string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := make([]string, len(rc.paths))
	copy(out, rc.paths)
	return out
}

func ticket(id int, title string, status types.TicketStatus) types.Ticket {
	return types.Ticket{
		ID:       id,
		Title:    title,
		Status:   status,
		Category: types.Category{ID: 1, Name: "Electrical"},
		Priority: types.PriorityFromName("medium"),
	}
}
