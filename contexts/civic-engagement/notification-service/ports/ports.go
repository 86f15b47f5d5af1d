package ports

import (
	"context"
	"time"

	"agora/contexts/civic-engagement/notification-service/domain/entities"
	"agora/internal/shared/events"
)

type NotificationRepository interface {
	SaveNotification(ctx context.Context, notification entities.Notification) error
	GetNotification(ctx context.Context, notificationID string) (entities.Notification, error)
	ListNotifications(ctx context.Context, limit int) ([]entities.Notification, error)
}

// EventDedupStore makes consumption replay-safe: ReserveEvent returns true
// when the event id was already processed with the same payload hash.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, events.Envelope) error) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
