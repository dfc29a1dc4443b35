package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Polqt/iComplain/types"
)

// TicketsService handles ticket-related API operations.
type TicketsService struct {
	client *Client
}

// ListOptions paginates the ticket list endpoints.
type ListOptions struct {
	Limit  int
	Offset int
}

func (o *ListOptions) encode() string {
	if o == nil {
		return ""
	}
	query := url.Values{}
	if o.Limit > 0 {
		query.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		query.Set("offset", strconv.Itoa(o.Offset))
	}
	if len(query) == 0 {
		return ""
	}
	return "?" + query.Encode()
}

// List retrieves the caller's tickets, paginated. Admins see every ticket.
func (s *TicketsService) List(ctx context.Context, options *ListOptions) (*types.TicketList, error) {
	var result types.TicketList
	err := s.client.Get(ctx, "/tickets"+options.encode(), &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListCommunity retrieves every student's tickets for the community board.
func (s *TicketsService) ListCommunity(ctx context.Context, options *ListOptions) (*types.TicketList, error) {
	var result types.TicketList
	err := s.client.Get(ctx, "/tickets/community"+options.encode(), &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Get retrieves a specific ticket by ID.
func (s *TicketsService) Get(ctx context.Context, id int) (*types.Ticket, error) {
	var result types.Ticket
	err := s.client.Get(ctx, fmt.Sprintf("/tickets/%d", id), &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Create files a new ticket. The server assigns the ticket number, default
// priority and pending status. Multipart because of the optional attachment.
func (s *TicketsService) Create(ctx context.Context, payload types.TicketCreatePayload, attachment *types.Upload) (*types.Ticket, error) {
	fields := map[string]string{
		"title":       payload.Title,
		"description": payload.Description,
		"category":    strconv.Itoa(payload.Category),
		"building":    payload.Building,
		"room_name":   payload.RoomName,
	}

	var result types.Ticket
	err := s.client.sendMultipart(ctx, "POST", "/tickets", fields, attachment, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Update applies a partial update to a ticket the caller owns.
func (s *TicketsService) Update(ctx context.Context, id int, payload types.TicketUpdatePayload, attachment *types.Upload) (*types.Ticket, error) {
	fields := map[string]string{}
	if payload.Title != nil {
		fields["title"] = *payload.Title
	}
	if payload.Description != nil {
		fields["description"] = *payload.Description
	}
	if payload.Category != nil {
		fields["category"] = strconv.Itoa(*payload.Category)
	}
	if payload.Priority != nil {
		fields["priority"] = strconv.Itoa(*payload.Priority)
	}
	if payload.Building != nil {
		fields["building"] = *payload.Building
	}
	if payload.RoomName != nil {
		fields["room_name"] = *payload.RoomName
	}
	if payload.Status != nil {
		fields["status"] = *payload.Status
	}

	var result types.Ticket
	err := s.client.sendMultipart(ctx, "PUT", fmt.Sprintf("/tickets/%d", id), fields, attachment, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AdminPatch updates status and priority on behalf of an administrator.
func (s *TicketsService) AdminPatch(ctx context.Context, id int, patch types.TicketAdminPatch) (*types.Ticket, error) {
	var result types.Ticket
	err := s.client.Patch(ctx, fmt.Sprintf("/tickets/%d/admin", id), patch, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete deletes a ticket.
func (s *TicketsService) Delete(ctx context.Context, id int) error {
	return s.client.Delete(ctx, fmt.Sprintf("/tickets/%d", id))
}

// Search queries tickets, notifications and pages by free text.
func (s *TicketsService) Search(ctx context.Context, query string, limit int) ([]types.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var result []types.SearchResult
	err := s.client.Get(ctx, "/tickets/search?"+params.Encode(), &result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// History retrieves the caller's ticket activity feed, newest first.
func (s *TicketsService) History(ctx context.Context) ([]types.HistoryItem, error) {
	var result []types.HistoryItem
	err := s.client.Get(ctx, "/tickets/history", &result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Categories retrieves the category catalog.
func (s *TicketsService) Categories(ctx context.Context) ([]types.Category, error) {
	var result []types.Category
	err := s.client.Get(ctx, "/tickets/categories", &result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Priorities retrieves the priority catalog, ordered by severity level.
func (s *TicketsService) Priorities(ctx context.Context) ([]types.TicketPriority, error) {
	var result []types.TicketPriority
	err := s.client.Get(ctx, "/tickets/priorities", &result)
	if err != nil {
		return nil, err
	}
	return result, nil
}
