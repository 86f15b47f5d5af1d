package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/civic-engagement/notification-service/domain/entities"
	domainerrors "agora/contexts/civic-engagement/notification-service/domain/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type notificationModel struct {
	ID         string     `gorm:"column:id;primaryKey"`
	Message    string     `gorm:"column:message"`
	EntityID   string     `gorm:"column:entity_id;index"`
	EntityKind string     `gorm:"column:entity_kind"`
	EventType  string     `gorm:"column:event_type"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	ReadAt     *time.Time `gorm:"column:read_at"`
}

func (notificationModel) TableName() string { return "notifications" }

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (eventDedupModel) TableName() string { return "notification_event_dedup" }

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) SaveNotification(ctx context.Context, notification entities.Notification) error {
	row := notificationModel{
		ID:         notification.NotificationID,
		Message:    notification.Message,
		EntityID:   notification.EntityID,
		EntityKind: notification.EntityKind,
		EventType:  notification.EventType,
		CreatedAt:  notification.CreatedAt,
		ReadAt:     notification.ReadAt,
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"read_at": row.ReadAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("notification_repo_save_failed", create.Error,
			"notification_id", strings.TrimSpace(notification.NotificationID),
		)
	}
	return nil
}

func (r *Repository) GetNotification(ctx context.Context, notificationID string) (entities.Notification, error) {
	var row notificationModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(notificationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Notification{}, domainerrors.ErrNotificationNotFound
		}
		return entities.Notification{}, r.logError("notification_repo_get_failed", err,
			"notification_id", strings.TrimSpace(notificationID),
		)
	}
	return toNotification(row), nil
}

func (r *Repository) ListNotifications(ctx context.Context, limit int) ([]entities.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []notificationModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("notification_repo_list_failed", err)
	}
	items := make([]entities.Notification, 0, len(rows))
	for _, row := range rows {
		items = append(items, toNotification(row))
	}
	return items, nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("notification_repo_reserve_event_failed", create.Error,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	if create.RowsAffected > 0 {
		return false, nil
	}
	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", row.EventID).
		First(&existing).Error; err != nil {
		return false, r.logError("notification_repo_reserve_lookup_failed", err,
			"event_id", row.EventID,
		)
	}
	if existing.PayloadHash != row.PayloadHash {
		return false, domainerrors.ErrConflict
	}
	return true, nil
}

// SystemClock satisfies the Clock port with wall time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator satisfies the IDGenerator port.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func toNotification(row notificationModel) entities.Notification {
	return entities.Notification{
		NotificationID: row.ID,
		Message:        row.Message,
		EntityID:       row.EntityID,
		EntityKind:     row.EntityKind,
		EventType:      row.EventType,
		CreatedAt:      row.CreatedAt,
		ReadAt:         row.ReadAt,
	}
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "civic-engagement/notification-service",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("notification repository operation failed", fields...)
	return err
}
