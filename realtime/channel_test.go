package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Polqt/iComplain/client"
	"github.com/Polqt/iComplain/store"
	"github.com/Polqt/iComplain/types"
)

var upgrader = websocket.Upgrader{}

// socketServer runs handle for every accepted connection and counts dials.
func socketServer(t *testing.T, handle func(conn *websocket.Conn, dial int64)) (url string, dials *int64) {
	t.Helper()
	var count int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		handle(conn, atomic.AddInt64(&count, 1))
	}))
	t.Cleanup(srv.Close)

	url, err := SocketURL(srv.URL)
	require.NoError(t, err)
	return url, &count
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testChannel(url string, stores Stores) *Channel {
	return NewChannel(Config{
		URL:         url,
		Stores:      stores,
		BackoffBase: 5 * time.Millisecond,
		MaxBackoff:  20 * time.Millisecond,
		MaxAttempts: 3,
	})
}

func TestSocketURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		{"plain http", "http://localhost:8000", "ws://localhost:8000/ws/tickets/"},
		{"https upgrades to wss", "https://icomplain.example.edu", "wss://icomplain.example.edu/ws/tickets/"},
		{"existing path is replaced", "http://localhost:8000/api/v1", "ws://localhost:8000/ws/tickets/"},
		{"query is stripped", "http://localhost:8000?debug=1", "ws://localhost:8000/ws/tickets/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SocketURL(tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBackoffDelaySequence(t *testing.T) {
	c := NewChannel(Config{URL: "ws://localhost:8000/ws/tickets/"})

	want := []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 30 * time.Second, 30 * time.Second, 30 * time.Second,
		30 * time.Second, 30 * time.Second,
	}
	for attempt, delay := range want {
		assert.Equal(t, delay, c.backoffDelay(attempt), "attempt %d", attempt)
	}

	// A shift wide enough to overflow must still land on the cap.
	assert.Equal(t, 30*time.Second, c.backoffDelay(70))
}

func TestChannelTicketPushesRefetch(t *testing.T) {
	var mu sync.Mutex
	backend := []types.Ticket{{ID: 1, Title: "Light out in stairwell", Status: types.StatusPending}}

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/tickets":
			json.NewEncoder(w).Encode(types.TicketList{
				Items: append([]types.Ticket(nil), backend...), Total: len(backend),
			})
		case "/tickets/2":
			json.NewEncoder(w).Encode(backend[1])
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(api.Close)

	apiClient := client.NewClient(&client.Config{BaseURL: api.URL, Timeout: 5 * time.Second})
	tickets := store.NewTicketsStore(apiClient, nil)
	tickets.Load(context.Background(), client.ListOptions{})
	require.Empty(t, tickets.Snapshot().Error)
	require.Len(t, tickets.Snapshot().Tickets, 1)

	pushes := make(chan string)
	url, _ := socketServer(t, func(conn *websocket.Conn, dial int64) {
		for p := range pushes {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(p)); err != nil {
				return
			}
		}
	})

	ch := testChannel(url, Stores{Tickets: tickets})
	ch.Connect(context.Background())
	t.Cleanup(ch.Disconnect)
	waitFor(t, "connection", func() bool { return ch.State() == StateConnected })

	// A create broadcast carries only the id; the store repeats its last
	// list load to pick the new ticket up.
	mu.Lock()
	backend = append(backend, types.Ticket{ID: 2, Title: "Projector request", Status: types.StatusPending})
	mu.Unlock()
	pushes <- `{"action":"created","ticket_id":2}`
	waitFor(t, "created push to reload the list", func() bool {
		return len(tickets.Snapshot().Tickets) == 2
	})

	mu.Lock()
	backend[1].Status = types.StatusInProgress
	mu.Unlock()
	pushes <- `{"action":"updated","ticket_id":2}`
	waitFor(t, "updated push to refetch the ticket", func() bool {
		for _, tk := range tickets.Snapshot().Tickets {
			if tk.ID == 2 && tk.Status == types.StatusInProgress {
				return true
			}
		}
		return false
	})
	close(pushes)
}

func TestChannelDispatchesPushes(t *testing.T) {
	url, _ := socketServer(t, func(conn *websocket.Conn, dial int64) {
		payloads := []string{
			`not json at all`,
			`{"type":"comment_created","comment":{"id":11,"message":"pushed","ticket":{"id":7}}}`,
			`{"action":"deleted","ticket_id":5}`,
			`{"type":"info","id":"n-1","title":"Ticket updated","message":"Your ticket status was set to Pending.","read":false}`,
			`{"type":"from_the_future","whatever":true}`,
		}
		for _, p := range payloads {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(p)); err != nil {
				return
			}
		}
		// Hold the connection open until the test ends.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	tickets := store.NewTicketsStore(nil, nil)
	tickets.AddTicket(types.Ticket{ID: 5, Title: "doomed", Status: types.StatusPending})
	comments := store.NewCommentsStore(nil, nil)
	notifications := store.NewNotificationsStore(nil, nil)

	ch := testChannel(url, Stores{Tickets: tickets, Comments: comments, Notifications: notifications})
	ch.Connect(context.Background())
	defer ch.Disconnect()

	waitFor(t, "connected state", func() bool { return ch.State() == StateConnected })
	waitFor(t, "pushed comment", func() bool { return len(comments.Snapshot().Comments) == 1 })
	assert.Equal(t, "pushed", comments.Snapshot().Comments[0].Message)

	waitFor(t, "ticket removal", func() bool { return len(tickets.Snapshot().Tickets) == 0 })

	waitFor(t, "pushed notification", func() bool { return notifications.Snapshot().UnreadCount == 1 })
	assert.Equal(t, "n-1", notifications.Snapshot().Notifications[0].ID)

	// The malformed and unknown payloads must not have torn the channel down.
	assert.Equal(t, StateConnected, ch.State())
}

func TestChannelCleanCloseDoesNotReconnect(t *testing.T) {
	url, dials := socketServer(t, func(conn *websocket.Conn, dial int64) {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutting down"), deadline)
		_ = conn.Close()
	})

	ch := testChannel(url, Stores{})
	ch.Connect(context.Background())

	waitFor(t, "disconnected state", func() bool { return ch.State() == StateDisconnected })
	time.Sleep(100 * time.Millisecond) // several backoff periods
	assert.EqualValues(t, 1, atomic.LoadInt64(dials), "a clean server close must not trigger reconnection")
}

func TestChannelReconnectsAfterDrop(t *testing.T) {
	url, dials := socketServer(t, func(conn *websocket.Conn, dial int64) {
		if dial == 1 {
			// Abrupt drop, no close handshake.
			_ = conn.Close()
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	ch := testChannel(url, Stores{})
	ch.Connect(context.Background())
	defer ch.Disconnect()

	waitFor(t, "reconnection", func() bool {
		return atomic.LoadInt64(dials) >= 2 && ch.State() == StateConnected
	})
}

func TestChannelGivesUpAfterMaxAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no sockets here", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	url, err := SocketURL(srv.URL)
	require.NoError(t, err)

	ch := testChannel(url, Stores{})

	states := make(chan State, 32)
	unsubscribe := ch.Subscribe(func(s State) { states <- s })
	defer unsubscribe()

	ch.Connect(context.Background())
	waitFor(t, "give-up", func() bool {
		for {
			select {
			case s := <-states:
				if s == StateDisconnected {
					return true
				}
			default:
				return false
			}
		}
	})
	assert.Equal(t, StateDisconnected, ch.State())
}

func TestChannelConnectIsIdempotent(t *testing.T) {
	url, dials := socketServer(t, func(conn *websocket.Conn, dial int64) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	ch := testChannel(url, Stores{})
	ch.Connect(context.Background())
	defer ch.Disconnect()
	waitFor(t, "connected state", func() bool { return ch.State() == StateConnected })

	ch.Connect(context.Background())
	ch.Connect(context.Background())
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt64(dials), "connect while active must be a no-op")
}

func TestChannelDisconnect(t *testing.T) {
	closed := make(chan struct{})
	url, _ := socketServer(t, func(conn *websocket.Conn, dial int64) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(closed)
				return
			}
		}
	})

	ch := testChannel(url, Stores{})
	ch.Connect(context.Background())
	waitFor(t, "connected state", func() bool { return ch.State() == StateConnected })

	ch.Disconnect()

	assert.Equal(t, StateDisconnected, ch.State())
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw the close")
	}

	// The channel can be reused after a deliberate disconnect.
	ch.Connect(context.Background())
	defer ch.Disconnect()
	waitFor(t, "reconnected state", func() bool { return ch.State() == StateConnected })
}
