package store

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Polqt/iComplain/types"
)

func TestFeedbackStoreLoadForTicket(t *testing.T) {
	t.Run("loads the ticket's feedback", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/tickets/3/feedback", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, types.TicketFeedback{ID: 1, Rating: 4})
		})
		s := NewFeedbackStore(newTestClient(t, mux), nil)

		s.LoadForTicket(context.Background(), 3)

		st := s.Snapshot()
		require.Len(t, st.Feedbacks, 1)
		assert.Equal(t, 4, st.Feedbacks[0].Rating)
		assert.Empty(t, st.Error)
	})

	t.Run("absent feedback is an empty collection, not an error", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/tickets/3/feedback", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "No feedback for this ticket"})
		})
		s := NewFeedbackStore(newTestClient(t, mux), nil)

		s.LoadForTicket(context.Background(), 3)

		st := s.Snapshot()
		assert.Empty(t, st.Feedbacks)
		assert.Empty(t, st.Error, "a 404 here means not-yet-rated")
		assert.False(t, st.IsLoading)
	})

	t.Run("other failures are recorded", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/tickets/3/feedback", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
		})
		s := NewFeedbackStore(newTestClient(t, mux), nil)

		s.LoadForTicket(context.Background(), 3)

		assert.NotEmpty(t, s.Snapshot().Error)
	})
}

func TestFeedbackStoreCreate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tickets/3/feedback", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		writeJSON(w, http.StatusCreated, types.TicketFeedback{ID: 9, Rating: 5})
	})
	s := NewFeedbackStore(newTestClient(t, mux), nil)

	created := s.Create(context.Background(), 3, types.FeedbackCreatePayload{Rating: 5})

	require.NotNil(t, created)
	st := s.Snapshot()
	require.Len(t, st.Feedbacks, 1, "a ticket has at most one feedback")
	assert.Equal(t, 9, st.Feedbacks[0].ID)
}

func TestFeedbackStoreDelete(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tickets/3/feedback/9", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	s := NewFeedbackStore(newTestClient(t, mux), nil)
	// Seed through create against the same server.
	mux.HandleFunc("/tickets/3/feedback", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, types.TicketFeedback{ID: 9, Rating: 5})
	})
	s.Create(context.Background(), 3, types.FeedbackCreatePayload{Rating: 5})

	ok := s.Delete(context.Background(), 3, 9)

	assert.True(t, ok)
	assert.Empty(t, s.Snapshot().Feedbacks)
}
