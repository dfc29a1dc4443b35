package client

import (
	"context"
	"fmt"

	"github.com/Polqt/iComplain/types"
)

// CommentsService handles comment operations nested under a ticket.
type CommentsService struct {
	client *Client
}

// ListForTicket retrieves every comment on a ticket, oldest first.
// The comment endpoints are not paginated.
func (s *CommentsService) ListForTicket(ctx context.Context, ticketID int) ([]types.TicketComment, error) {
	var result []types.TicketComment
	err := s.client.Get(ctx, fmt.Sprintf("/tickets/%d/comments", ticketID), &result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Create posts a comment. Multipart because of the optional attachment.
// Closed tickets reject new comments server-side.
func (s *CommentsService) Create(ctx context.Context, ticketID int, payload types.CommentCreatePayload, attachment *types.Upload) (*types.TicketComment, error) {
	fields := map[string]string{"message": payload.Message}

	var result types.TicketComment
	err := s.client.sendMultipart(ctx, "POST", fmt.Sprintf("/tickets/%d/comments", ticketID), fields, attachment, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Update edits a comment's message. Only the author may edit.
func (s *CommentsService) Update(ctx context.Context, ticketID, commentID int, payload types.CommentUpdatePayload) (*types.TicketComment, error) {
	var result types.TicketComment
	err := s.client.Put(ctx, fmt.Sprintf("/tickets/%d/comments/%d", ticketID, commentID), payload, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete removes a comment. Only the author may delete.
func (s *CommentsService) Delete(ctx context.Context, ticketID, commentID int) error {
	return s.client.Delete(ctx, fmt.Sprintf("/tickets/%d/comments/%d", ticketID, commentID))
}
