package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/civic-engagement/notification-service/domain/entities"
	domainerrors "agora/contexts/civic-engagement/notification-service/domain/errors"
	"agora/contexts/civic-engagement/notification-service/ports"
)

type CreateNotificationInput struct {
	Message    string
	EntityID   string
	EntityKind string
	EventType  string
}

// Service owns notification records produced from engagement events.
// Delivery to end users is a dispatcher concern outside this module.
type Service struct {
	Repo   ports.NotificationRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (s Service) CreateNotification(ctx context.Context, input CreateNotificationInput) (entities.Notification, error) {
	if strings.TrimSpace(input.Message) == "" {
		return entities.Notification{}, domainerrors.ErrInvalidNotificationInput
	}
	notificationID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Notification{}, err
	}
	notification := entities.Notification{
		NotificationID: notificationID,
		Message:        strings.TrimSpace(input.Message),
		EntityID:       strings.TrimSpace(input.EntityID),
		EntityKind:     strings.TrimSpace(input.EntityKind),
		EventType:      strings.TrimSpace(input.EventType),
		CreatedAt:      s.now(),
	}
	if err := s.Repo.SaveNotification(ctx, notification); err != nil {
		return entities.Notification{}, err
	}
	s.logger().Info("notification created",
		"event", "notification_created",
		"module", "civic-engagement/notification-service",
		"layer", "application",
		"notification_id", notification.NotificationID,
		"entity_id", notification.EntityID,
		"event_type", notification.EventType,
	)
	return notification, nil
}

func (s Service) ListNotifications(ctx context.Context, limit int) ([]entities.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.Repo.ListNotifications(ctx, limit)
}

func (s Service) MarkRead(ctx context.Context, notificationID string) (entities.Notification, error) {
	notificationID = strings.TrimSpace(notificationID)
	if notificationID == "" {
		return entities.Notification{}, domainerrors.ErrInvalidNotificationInput
	}
	notification, err := s.Repo.GetNotification(ctx, notificationID)
	if err != nil {
		return entities.Notification{}, err
	}
	if notification.ReadAt == nil {
		readAt := s.now()
		notification.ReadAt = &readAt
		if err := s.Repo.SaveNotification(ctx, notification); err != nil {
			return entities.Notification{}, err
		}
	}
	return notification, nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
