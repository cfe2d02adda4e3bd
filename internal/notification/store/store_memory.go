package store

import (
	"context"
	"sort"
	"sync"

	"mandat/internal/notification"
	id "mandat/pkg/domain"
	"mandat/pkg/platform/sentinel"
)

// InMemory keeps notifications in process memory. Used in tests and when no
// database is configured.
type InMemory struct {
	mu            sync.RWMutex
	notifications map[id.NotificationID]*notification.Notification
}

func NewInMemory() *InMemory {
	return &InMemory{notifications: make(map[id.NotificationID]*notification.Notification)}
}

func (s *InMemory) Append(_ context.Context, n *notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.notifications[n.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, notificationID id.NotificationID) (*notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notifications[notificationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (s *InMemory) ListByRecipient(_ context.Context, recipientID id.UserID) ([]*notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*notification.Notification
	for _, n := range s.notifications {
		if n.RecipientID == recipientID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) MarkRead(_ context.Context, notificationID id.NotificationID, recipientID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[notificationID]
	if !ok || n.RecipientID != recipientID {
		return sentinel.ErrNotFound
	}
	n.Read = true
	return nil
}

func (s *InMemory) Delete(_ context.Context, notificationID id.NotificationID, recipientID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[notificationID]
	if !ok || n.RecipientID != recipientID {
		return sentinel.ErrNotFound
	}
	delete(s.notifications, notificationID)
	return nil
}
