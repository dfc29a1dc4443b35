package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Polqt/iComplain/client"
	"github.com/Polqt/iComplain/errors"
	"github.com/Polqt/iComplain/types"
)

// FeedbackState is the snapshot the feedback store publishes. A ticket has
// at most one feedback, so the collection holds zero or one entry.
type FeedbackState struct {
	Feedbacks []types.TicketFeedback
	IsLoading bool
	Error     string
}

// FeedbackStore owns the active ticket's feedback.
type FeedbackStore struct {
	obs observable[FeedbackState]
	api *client.Client
	log *zap.Logger
}

// NewFeedbackStore creates a feedback store backed by the given API client.
func NewFeedbackStore(api *client.Client, log *zap.Logger) *FeedbackStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &FeedbackStore{api: api, log: log.Named("feedback")}
}

// Snapshot returns the current state.
func (s *FeedbackStore) Snapshot() FeedbackState { return s.obs.Snapshot() }

// Subscribe registers a change listener.
func (s *FeedbackStore) Subscribe(fn Listener) func() { return s.obs.Subscribe(fn) }

func (s *FeedbackStore) begin() {
	s.obs.update(func(st FeedbackState) FeedbackState {
		st.IsLoading = true
		st.Error = ""
		return st
	})
}

func (s *FeedbackStore) fail(format string, err error) {
	msg := fmt.Sprintf(format, errors.Message(err))
	s.log.Warn("feedback operation failed", zap.String("error", msg))
	s.obs.update(func(st FeedbackState) FeedbackState {
		st.IsLoading = false
		st.Error = msg
		return st
	})
}

// LoadForTicket fetches the feedback for one ticket. A 404 means nothing
// has been submitted yet; that resolves to an empty collection with no
// error, not a failure.
func (s *FeedbackStore) LoadForTicket(ctx context.Context, ticketID int) {
	s.begin()
	feedback, err := s.api.Feedback.Get(ctx, ticketID)
	if err != nil {
		if errors.IsNotFound(err) {
			s.obs.update(func(st FeedbackState) FeedbackState {
				return FeedbackState{Feedbacks: []types.TicketFeedback{}}
			})
			return
		}
		s.fail("Failed to load feedback: %s", err)
		return
	}

	f := *feedback
	s.obs.update(func(st FeedbackState) FeedbackState {
		return FeedbackState{Feedbacks: []types.TicketFeedback{f}}
	})
}

// Create submits feedback; the single-entry collection becomes the server's
// version of it.
func (s *FeedbackStore) Create(ctx context.Context, ticketID int, payload types.FeedbackCreatePayload) *types.TicketFeedback {
	s.begin()
	feedback, err := s.api.Feedback.Create(ctx, ticketID, payload)
	if err != nil {
		s.fail("Failed to create feedback: %s", err)
		return nil
	}

	f := *feedback
	s.obs.update(func(st FeedbackState) FeedbackState {
		return FeedbackState{Feedbacks: []types.TicketFeedback{f}}
	})
	return &f
}

// Update edits feedback and replaces the stored entry by id.
func (s *FeedbackStore) Update(ctx context.Context, ticketID, feedbackID int, payload types.FeedbackUpdatePayload) *types.TicketFeedback {
	s.begin()
	feedback, err := s.api.Feedback.Update(ctx, ticketID, feedbackID, payload)
	if err != nil {
		s.fail("Failed to update feedback: %s", err)
		return nil
	}

	f := *feedback
	s.obs.update(func(st FeedbackState) FeedbackState {
		out := make([]types.TicketFeedback, len(st.Feedbacks))
		for i, existing := range st.Feedbacks {
			if existing.ID == f.ID {
				out[i] = f
			} else {
				out[i] = existing
			}
		}
		return FeedbackState{Feedbacks: out}
	})
	return &f
}

// Delete removes feedback server-side and locally.
func (s *FeedbackStore) Delete(ctx context.Context, ticketID, feedbackID int) bool {
	s.begin()
	if err := s.api.Feedback.Delete(ctx, ticketID, feedbackID); err != nil {
		s.fail("Failed to delete feedback: %s", err)
		return false
	}

	s.obs.update(func(st FeedbackState) FeedbackState {
		out := make([]types.TicketFeedback, 0, len(st.Feedbacks))
		for _, f := range st.Feedbacks {
			if f.ID != feedbackID {
				out = append(out, f)
			}
		}
		return FeedbackState{Feedbacks: out}
	})
	return true
}

// Clear resets the store, typically on navigation away from a ticket.
func (s *FeedbackStore) Clear() {
	s.obs.update(func(st FeedbackState) FeedbackState {
		return FeedbackState{}
	})
}
