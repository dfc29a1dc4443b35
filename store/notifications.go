package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/Polqt/iComplain/client"
	"github.com/Polqt/iComplain/errors"
	"github.com/Polqt/iComplain/types"
)

// NotificationsState is the snapshot the notifications store publishes.
// UnreadCount is recomputed from the read flags after every mutation, so it
// can never drift from the collection.
type NotificationsState struct {
	Notifications []types.Notification
	UnreadCount   int
	IsLoading     bool
	Error         string
}

// NotificationsStore owns the in-app notification list.
type NotificationsStore struct {
	obs observable[NotificationsState]
	api *client.Client
	log *zap.Logger
}

// NewNotificationsStore creates a notifications store backed by the given
// API client.
func NewNotificationsStore(api *client.Client, log *zap.Logger) *NotificationsStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &NotificationsStore{api: api, log: log.Named("notifications")}
}

// Snapshot returns the current state.
func (s *NotificationsStore) Snapshot() NotificationsState { return s.obs.Snapshot() }

// Subscribe registers a change listener.
func (s *NotificationsStore) Subscribe(fn Listener) func() { return s.obs.Subscribe(fn) }

func countUnread(list []types.Notification) int {
	n := 0
	for _, item := range list {
		if !item.Read {
			n++
		}
	}
	return n
}

// Load fetches the newest notifications, replacing the collection. Pass
// limit 0 for the server default of 50.
func (s *NotificationsStore) Load(ctx context.Context, limit int) {
	s.obs.update(func(st NotificationsState) NotificationsState {
		st.IsLoading = true
		st.Error = ""
		return st
	})

	list, err := s.api.Notifications.List(ctx, limit)
	if err != nil {
		s.log.Warn("failed to load notifications", zap.Error(err))
		s.obs.update(func(st NotificationsState) NotificationsState {
			st.IsLoading = false
			st.Error = errors.Message(err)
			return st
		})
		return
	}

	s.obs.update(func(st NotificationsState) NotificationsState {
		return NotificationsState{Notifications: list, UnreadCount: countUnread(list)}
	})
}

// Add is the fast-path prepend driven by the realtime channel. An id that
// already exists is replaced in place rather than duplicated.
func (s *NotificationsStore) Add(n types.Notification) {
	s.obs.update(func(st NotificationsState) NotificationsState {
		replaced := false
		out := make([]types.Notification, len(st.Notifications))
		for i, existing := range st.Notifications {
			if existing.ID == n.ID {
				out[i] = n
				replaced = true
			} else {
				out[i] = existing
			}
		}
		if !replaced {
			out = append([]types.Notification{n}, out...)
		}
		st.Notifications = out
		st.UnreadCount = countUnread(out)
		return st
	})
}

// MarkAsRead flips one notification's read flag locally first, then asks
// the server to confirm; on failure the optimistic flip is rolled back and
// the error recorded.
func (s *NotificationsStore) MarkAsRead(ctx context.Context, id string) {
	s.setRead(id, true)

	if _, err := s.api.Notifications.MarkRead(ctx, id, true); err != nil {
		s.log.Warn("failed to mark notification as read", zap.String("id", id), zap.Error(err))
		s.setRead(id, false)
		s.obs.update(func(st NotificationsState) NotificationsState {
			st.Error = errors.Message(err)
			return st
		})
	}
}

// MarkAllAsRead marks every notification read, server first so a failure
// leaves the local flags untouched.
func (s *NotificationsStore) MarkAllAsRead(ctx context.Context) {
	if _, err := s.api.Notifications.MarkAllRead(ctx); err != nil {
		s.log.Warn("failed to mark all notifications as read", zap.Error(err))
		s.obs.update(func(st NotificationsState) NotificationsState {
			st.Error = errors.Message(err)
			return st
		})
		return
	}

	s.obs.update(func(st NotificationsState) NotificationsState {
		out := make([]types.Notification, len(st.Notifications))
		for i, n := range st.Notifications {
			n.Read = true
			out[i] = n
		}
		st.Notifications = out
		st.UnreadCount = 0
		st.Error = ""
		return st
	})
}

// Remove deletes a notification server-side and locally.
func (s *NotificationsStore) Remove(ctx context.Context, id string) bool {
	if err := s.api.Notifications.Delete(ctx, id); err != nil {
		s.log.Warn("failed to delete notification", zap.String("id", id), zap.Error(err))
		s.obs.update(func(st NotificationsState) NotificationsState {
			st.Error = errors.Message(err)
			return st
		})
		return false
	}

	s.obs.update(func(st NotificationsState) NotificationsState {
		out := make([]types.Notification, 0, len(st.Notifications))
		for _, n := range st.Notifications {
			if n.ID != id {
				out = append(out, n)
			}
		}
		st.Notifications = out
		st.UnreadCount = countUnread(out)
		st.Error = ""
		return st
	})
	return true
}

// Clear resets the store, typically on logout.
func (s *NotificationsStore) Clear() {
	s.obs.update(func(st NotificationsState) NotificationsState {
		return NotificationsState{}
	})
}

func (s *NotificationsStore) setRead(id string, read bool) {
	s.obs.update(func(st NotificationsState) NotificationsState {
		out := make([]types.Notification, len(st.Notifications))
		for i, n := range st.Notifications {
			if n.ID == id {
				n.Read = read
			}
			out[i] = n
		}
		st.Notifications = out
		st.UnreadCount = countUnread(out)
		return st
	})
}
