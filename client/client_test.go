package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Polqt/iComplain/errors"
	"github.com/Polqt/iComplain/types"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient(&Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	return c, srv
}

func TestErrorNormalization(t *testing.T) {
	t.Run("non-2xx resolves to RequestError with structured message", func(t *testing.T) {
		c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"detail":"You do not have permission to delete this ticket."}`))
		}))
		defer srv.Close()

		err := c.Tickets.Delete(context.Background(), 9)
		require.Error(t, err)
		reqErr, ok := err.(*errors.RequestError)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, reqErr.RawStatus)
		assert.Equal(t, "You do not have permission to delete this ticket.", reqErr.Message)
	})

	t.Run("connection failure resolves to RequestError with status zero", func(t *testing.T) {
		c := NewClient(&Config{BaseURL: "http://127.0.0.1:1", Timeout: 500 * time.Millisecond})

		_, err := c.Tickets.Get(context.Background(), 1)
		require.Error(t, err)
		assert.True(t, errors.IsRequestError(err))
		assert.Equal(t, 0, errors.Status(err))
	})
}

func TestTicketList(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tickets", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, "50", r.URL.Query().Get("offset"))
		writeJSON(w, types.TicketList{
			Items: []types.Ticket{
				{ID: 3, TicketNumber: "TKT-00003", Title: "Flickering light", Status: types.StatusPending},
			},
			Total: 51, Limit: 25, Offset: 50,
		})
	}))
	defer srv.Close()

	list, err := c.Tickets.List(context.Background(), &ListOptions{Limit: 25, Offset: 50})
	require.NoError(t, err)
	assert.Equal(t, 51, list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "TKT-00003", list.Items[0].TicketNumber)
}

func TestDecodesMislabeledJSON(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A proxy that drops the content-type header must not break decoding.
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(`{"items":[{"id":9,"title":"Leaky faucet"}],"total":1}`))
	}))
	defer srv.Close()

	list, err := c.Tickets.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Leaky faucet", list.Items[0].Title)
}

func TestTicketCreateMultipart(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Broken AC", r.FormValue("title"))
		assert.Equal(t, "1", r.FormValue("category"))
		assert.Equal(t, "Main", r.FormValue("building"))
		assert.Equal(t, "301", r.FormValue("room_name"))

		file, header, err := r.FormFile("attachment")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "ac.jpg", header.Filename)

		writeJSON(w, types.Ticket{
			ID: 42, TicketNumber: "TKT-00042", Title: "Broken AC", Status: types.StatusPending,
		})
	}))
	defer srv.Close()

	ticket, err := c.Tickets.Create(context.Background(), types.TicketCreatePayload{
		Title: "Broken AC", Description: "Not cooling", Category: 1, Building: "Main", RoomName: "301",
	}, &types.Upload{Filename: "ac.jpg", ContentType: "image/jpeg", Reader: strings.NewReader("jpegdata")})
	require.NoError(t, err)
	assert.Equal(t, 42, ticket.ID)
	assert.Equal(t, types.StatusPending, ticket.Status)
}

func TestAdminPatchIsJSON(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/tickets/7/admin", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

		var patch types.TicketAdminPatch
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		require.NotNil(t, patch.Status)
		assert.Equal(t, "in_progress", *patch.Status)

		writeJSON(w, types.Ticket{ID: 7, Status: types.StatusInProgress})
	}))
	defer srv.Close()

	status := "in_progress"
	ticket, err := c.Tickets.AdminPatch(context.Background(), 7, types.TicketAdminPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, types.StatusInProgress, ticket.Status)
}

func TestFeedbackNotFound(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Not found."}`))
	}))
	defer srv.Close()

	_, err := c.Feedback.Get(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestAuthEnvelope(t *testing.T) {
	t.Run("login success returns the user", func(t *testing.T) {
		c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/user/login", r.URL.Path)
			http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "abc"})
			writeJSON(w, types.AuthResponse{
				Success: true, Message: "Logged in successfully.",
				User: &types.User{ID: 5, Email: "jane@usls.edu.ph", IsActive: true},
			})
		}))
		defer srv.Close()

		user, err := c.Users.Login(context.Background(), "jane@usls.edu.ph", "hunter22")
		require.NoError(t, err)
		assert.Equal(t, 5, user.ID)
		assert.Equal(t, types.RoleStudent, user.Role)
	})

	t.Run("login failure surfaces the server message", func(t *testing.T) {
		c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, types.AuthResponse{Success: false, Message: "Invalid email or password."})
		}))
		defer srv.Close()

		user, err := c.Users.Login(context.Background(), "jane@usls.edu.ph", "wrong")
		assert.Nil(t, user)
		require.Error(t, err)
		assert.Equal(t, "Invalid email or password.", err.(*errors.RequestError).Message)
	})

	t.Run("profile with expired session is nil user and nil error", func(t *testing.T) {
		c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		user, err := c.Users.Profile(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, user)
	})
}

func TestLookupEndpoints(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tickets/categories":
			writeJSON(w, []types.Category{{ID: 1, Name: "Electrical"}, {ID: 2, Name: "Plumbing"}})
		case "/tickets/priorities":
			writeJSON(w, []types.TicketPriority{{ID: 3, Name: "High", Level: 3, ColorCode: "#ef4444"}})
		case "/tickets/history":
			writeJSON(w, []types.HistoryItem{
				{ID: "h1", TicketPk: 7, TicketID: "TKT-00007", Action: "status_changed", Status: "resolved"},
			})
		case "/tickets/search":
			assert.Equal(t, "projector", r.URL.Query().Get("q"))
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			writeJSON(w, []types.SearchResult{
				{ID: "t-7", Type: "ticket", Title: "Projector bulb out", URL: "/tickets/7"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	categories, err := c.Tickets.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Plumbing", categories[1].Name)

	priorities, err := c.Tickets.Priorities(ctx)
	require.NoError(t, err)
	require.Len(t, priorities, 1)
	assert.Equal(t, 3, priorities[0].Level)

	history, err := c.Tickets.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "TKT-00007", history[0].TicketID)

	results, err := c.Tickets.Search(ctx, "projector", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "t-7", results[0].ID)
}

func TestDashboardStats(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dashboard/stats", r.URL.Path)
		writeJSON(w, types.DashboardStats{
			Metrics:         []types.DashboardMetric{{Title: "Open tickets", Value: "12", Trend: "down"}},
			Volume:          []types.TicketVolumeDataPoint{{Day: "Mon", Value: 4}},
			StatusBreakdown: map[string]int{"pending": 5, "resolved": 7},
		})
	}))
	defer srv.Close()

	stats, err := c.Dashboard.GetStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats.Metrics, 1)
	assert.Equal(t, "Open tickets", stats.Metrics[0].Title)
	assert.Equal(t, 5, stats.StatusBreakdown["pending"])
}

func TestSessionCookieRides(t *testing.T) {
	var sawCookie bool
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/login":
			http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "abc"})
			writeJSON(w, types.AuthResponse{Success: true, User: &types.User{ID: 1}})
		default:
			if cookie, err := r.Cookie("sessionid"); err == nil && cookie.Value == "abc" {
				sawCookie = true
			}
			writeJSON(w, []types.Notification{})
		}
	}))
	defer srv.Close()

	_, err := c.Users.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	_, err = c.Notifications.List(context.Background(), 50)
	require.NoError(t, err)
	assert.True(t, sawCookie, "session cookie should ride on subsequent requests")
}

func TestNotifications(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/notifications/inapp" && r.Method == http.MethodGet:
			assert.Equal(t, "10", r.URL.Query().Get("limit"))
			writeJSON(w, []types.Notification{
				{ID: "n1", Type: types.NotificationInfo, Title: "Ticket updated", Read: false},
			})
		case r.URL.Path == "/notifications/inapp/n1" && r.Method == http.MethodPatch:
			var body map[string]bool
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.True(t, body["read"])
			writeJSON(w, types.Notification{ID: "n1", Read: true})
		case r.URL.Path == "/notifications/inapp/mark-all-read":
			writeJSON(w, types.MarkAllReadResult{Marked: 3})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	list, err := c.Notifications.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	n, err := c.Notifications.MarkRead(ctx, "n1", true)
	require.NoError(t, err)
	assert.True(t, n.Read)

	res, err := c.Notifications.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Marked)
}
