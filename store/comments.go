package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Polqt/iComplain/client"
	"github.com/Polqt/iComplain/errors"
	"github.com/Polqt/iComplain/types"
)

// CommentsState is the snapshot the comments store publishes. The
// collection always belongs to one ticket: the one LoadForTicket saw last.
type CommentsState struct {
	TicketID  int
	Comments  []types.TicketComment
	IsLoading bool
	Error     string
}

// CommentsStore owns the active ticket's comment thread. LoadForTicket
// replaces the whole collection; it never merges threads across tickets.
type CommentsStore struct {
	obs observable[CommentsState]
	api *client.Client
	log *zap.Logger
}

// NewCommentsStore creates a comments store backed by the given API client.
func NewCommentsStore(api *client.Client, log *zap.Logger) *CommentsStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommentsStore{api: api, log: log.Named("comments")}
}

// Snapshot returns the current state.
func (s *CommentsStore) Snapshot() CommentsState { return s.obs.Snapshot() }

// Subscribe registers a change listener.
func (s *CommentsStore) Subscribe(fn Listener) func() { return s.obs.Subscribe(fn) }

func (s *CommentsStore) begin() {
	s.obs.update(func(st CommentsState) CommentsState {
		st.IsLoading = true
		st.Error = ""
		return st
	})
}

func (s *CommentsStore) fail(format string, err error) {
	msg := fmt.Sprintf(format, errors.Message(err))
	s.log.Warn("comment operation failed", zap.String("error", msg))
	s.obs.update(func(st CommentsState) CommentsState {
		st.IsLoading = false
		st.Error = msg
		return st
	})
}

// LoadForTicket fetches the comment thread of one ticket and replaces the
// collection, re-scoping the store to that ticket.
func (s *CommentsStore) LoadForTicket(ctx context.Context, ticketID int) {
	s.begin()
	comments, err := s.api.Comments.ListForTicket(ctx, ticketID)
	if err != nil {
		s.fail("Failed to load comments: %s", err)
		return
	}

	s.obs.update(func(st CommentsState) CommentsState {
		st.TicketID = ticketID
		st.Comments = comments
		st.IsLoading = false
		st.Error = ""
		return st
	})
}

// Create posts a comment and appends the server's version of it.
func (s *CommentsStore) Create(ctx context.Context, ticketID int, payload types.CommentCreatePayload, attachment *types.Upload) *types.TicketComment {
	s.begin()
	comment, err := s.api.Comments.Create(ctx, ticketID, payload, attachment)
	if err != nil {
		s.fail("Failed to create comment: %s", err)
		return nil
	}

	c := *comment
	s.obs.update(func(st CommentsState) CommentsState {
		st.Comments = appendComment(st.Comments, c)
		st.IsLoading = false
		st.Error = ""
		return st
	})
	return &c
}

// Update edits a comment and replaces the stored entry by id.
func (s *CommentsStore) Update(ctx context.Context, ticketID, commentID int, payload types.CommentUpdatePayload) *types.TicketComment {
	s.begin()
	comment, err := s.api.Comments.Update(ctx, ticketID, commentID, payload)
	if err != nil {
		s.fail("Failed to update comment: %s", err)
		return nil
	}

	c := *comment
	s.obs.update(func(st CommentsState) CommentsState {
		st.Comments = replaceComment(st.Comments, c)
		st.IsLoading = false
		st.Error = ""
		return st
	})
	return &c
}

// Delete removes a comment server-side and locally. A delete for an id the
// server does not know leaves the collection unchanged and records the
// server's message.
func (s *CommentsStore) Delete(ctx context.Context, ticketID, commentID int) bool {
	s.begin()
	if err := s.api.Comments.Delete(ctx, ticketID, commentID); err != nil {
		s.fail("Failed to delete comment: %s", err)
		return false
	}

	s.obs.update(func(st CommentsState) CommentsState {
		st.Comments = removeComment(st.Comments, commentID)
		st.IsLoading = false
		st.Error = ""
		return st
	})
	return true
}

// AddComment is the fast-path append driven by the realtime channel.
// Comments for a ticket other than the active one are dropped, and an id
// already present is replaced instead of duplicated.
func (s *CommentsStore) AddComment(c types.TicketComment) {
	s.obs.update(func(st CommentsState) CommentsState {
		if st.TicketID != 0 && c.Ticket.ID != 0 && c.Ticket.ID != st.TicketID {
			return st
		}
		st.Comments = appendComment(st.Comments, c)
		return st
	})
}

// PatchComment is the fast-path partial edit; unknown ids are ignored.
func (s *CommentsStore) PatchComment(commentID int, mutate func(*types.TicketComment)) {
	s.obs.update(func(st CommentsState) CommentsState {
		out := make([]types.TicketComment, len(st.Comments))
		for i, c := range st.Comments {
			if c.ID == commentID {
				mutate(&c)
			}
			out[i] = c
		}
		st.Comments = out
		return st
	})
}

// RemoveComment is the fast-path removal by id.
func (s *CommentsStore) RemoveComment(commentID int) {
	s.obs.update(func(st CommentsState) CommentsState {
		st.Comments = removeComment(st.Comments, commentID)
		return st
	})
}

// Clear drops the collection, typically on navigation away from a ticket.
func (s *CommentsStore) Clear() {
	s.obs.update(func(st CommentsState) CommentsState {
		return CommentsState{}
	})
}

func appendComment(comments []types.TicketComment, c types.TicketComment) []types.TicketComment {
	for i, existing := range comments {
		if existing.ID == c.ID {
			out := make([]types.TicketComment, len(comments))
			copy(out, comments)
			out[i] = c
			return out
		}
	}
	out := make([]types.TicketComment, len(comments), len(comments)+1)
	copy(out, comments)
	return append(out, c)
}

func replaceComment(comments []types.TicketComment, c types.TicketComment) []types.TicketComment {
	out := make([]types.TicketComment, len(comments))
	for i, existing := range comments {
		if existing.ID == c.ID {
			out[i] = c
		} else {
			out[i] = existing
		}
	}
	return out
}

func removeComment(comments []types.TicketComment, id int) []types.TicketComment {
	out := make([]types.TicketComment, 0, len(comments))
	for _, c := range comments {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}
