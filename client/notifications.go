package client

import (
	"context"
	"fmt"

	"github.com/Polqt/iComplain/types"
)

// NotificationsService handles in-app notification operations.
type NotificationsService struct {
	client *Client
}

// List retrieves the caller's notifications, newest first.
func (s *NotificationsService) List(ctx context.Context, limit int) ([]types.Notification, error) {
	path := "/notifications/inapp"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}

	var result []types.Notification
	err := s.client.Get(ctx, path, &result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkRead sets a notification's read flag.
func (s *NotificationsService) MarkRead(ctx context.Context, id string, read bool) (*types.Notification, error) {
	body := map[string]bool{"read": read}

	var result types.Notification
	err := s.client.Patch(ctx, fmt.Sprintf("/notifications/inapp/%s", id), body, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// MarkAllRead marks every unread notification read and reports the count.
func (s *NotificationsService) MarkAllRead(ctx context.Context) (*types.MarkAllReadResult, error) {
	var result types.MarkAllReadResult
	err := s.client.Post(ctx, "/notifications/inapp/mark-all-read", nil, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete removes a notification.
func (s *NotificationsService) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, fmt.Sprintf("/notifications/inapp/%s", id))
}
