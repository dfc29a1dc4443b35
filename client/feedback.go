package client

import (
	"context"
	"fmt"

	"github.com/Polqt/iComplain/types"
)

// FeedbackService handles post-resolution feedback nested under a ticket.
type FeedbackService struct {
	client *Client
}

// Get retrieves the feedback for a ticket. A 404 means no feedback has been
// left yet; callers detect that with errors.IsNotFound.
func (s *FeedbackService) Get(ctx context.Context, ticketID int) (*types.TicketFeedback, error) {
	var result types.TicketFeedback
	err := s.client.Get(ctx, fmt.Sprintf("/tickets/%d/feedback", ticketID), &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Create submits feedback for a resolved ticket. The server enforces one
// feedback per ticket per student and closes the ticket on success.
func (s *FeedbackService) Create(ctx context.Context, ticketID int, payload types.FeedbackCreatePayload) (*types.TicketFeedback, error) {
	var result types.TicketFeedback
	err := s.client.Post(ctx, fmt.Sprintf("/tickets/%d/feedback", ticketID), payload, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Update edits feedback. The server limits edits to the author within 24h.
func (s *FeedbackService) Update(ctx context.Context, ticketID, feedbackID int, payload types.FeedbackUpdatePayload) (*types.TicketFeedback, error) {
	var result types.TicketFeedback
	err := s.client.Put(ctx, fmt.Sprintf("/tickets/%d/feedback/%d", ticketID, feedbackID), payload, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete removes feedback, same author/window rules as Update.
func (s *FeedbackService) Delete(ctx context.Context, ticketID, feedbackID int) error {
	return s.client.Delete(ctx, fmt.Sprintf("/tickets/%d/feedback/%d", ticketID, feedbackID))
}
