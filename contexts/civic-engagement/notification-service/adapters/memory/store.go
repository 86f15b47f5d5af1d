package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"agora/contexts/civic-engagement/notification-service/domain/entities"
	domainerrors "agora/contexts/civic-engagement/notification-service/domain/errors"

	"github.com/google/uuid"
)

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

type Store struct {
	mu            sync.RWMutex
	notifications map[string]entities.Notification
	eventDedup    map[string]dedupRecord
}

func NewStore() *Store {
	return &Store{
		notifications: make(map[string]entities.Notification),
		eventDedup:    make(map[string]dedupRecord),
	}
}

func (s *Store) SaveNotification(_ context.Context, notification entities.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[strings.TrimSpace(notification.NotificationID)] = notification
	return nil
}

func (s *Store) GetNotification(_ context.Context, notificationID string) (entities.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	notification, ok := s.notifications[strings.TrimSpace(notificationID)]
	if !ok {
		return entities.Notification{}, domainerrors.ErrNotificationNotFound
	}
	return notification, nil
}

func (s *Store) ListNotifications(_ context.Context, limit int) ([]entities.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	items := make([]entities.Notification, 0, len(s.notifications))
	for _, notification := range s.notifications {
		items = append(items, notification)
	}
	// Newest first, like the inbox view.
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) ReserveEvent(
	_ context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(eventID)
	existing, ok := s.eventDedup[key]
	if ok {
		if !existing.expiresAt.IsZero() && time.Now().UTC().After(existing.expiresAt.UTC()) {
			delete(s.eventDedup, key)
		} else {
			if existing.payloadHash != strings.TrimSpace(payloadHash) {
				return false, domainerrors.ErrConflict
			}
			return true, nil
		}
	}

	s.eventDedup[key] = dedupRecord{
		payloadHash: strings.TrimSpace(payloadHash),
		expiresAt:   expiresAt.UTC(),
	}
	return false, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
