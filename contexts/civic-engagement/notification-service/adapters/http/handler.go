package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"agora/contexts/civic-engagement/notification-service/application"
	"agora/contexts/civic-engagement/notification-service/domain/entities"
	httptransport "agora/contexts/civic-engagement/notification-service/transport/http"
)

type Handler struct {
	Notifications application.Service
	Logger        *slog.Logger
}

// ListNotificationsHandler godoc
// @Summary List notifications
// @Description Returns notifications, newest first, optionally capped by limit.
// @Tags notification-service
// @Produce json
// @Param limit query int false "Maximum notifications to return"
// @Success 200 {object} httptransport.NotificationListResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /api/notifications [get]
func (h Handler) ListNotificationsHandler(ctx context.Context, limit int) (httptransport.NotificationListResponse, error) {
	items, err := h.Notifications.ListNotifications(ctx, limit)
	if err != nil {
		return httptransport.NotificationListResponse{}, err
	}
	out := make([]httptransport.NotificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, mapNotification(item))
	}
	return httptransport.NotificationListResponse{Items: out}, nil
}

// MarkReadHandler godoc
// @Summary Mark a notification as read
// @Description Stamps the notification's read time; marking twice keeps the first stamp.
// @Tags notification-service
// @Produce json
// @Param notification_id path string true "Notification id"
// @Success 200 {object} httptransport.NotificationResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/notifications/{notification_id}/read [post]
func (h Handler) MarkReadHandler(ctx context.Context, notificationID string) (httptransport.NotificationResponse, error) {
	notification, err := h.Notifications.MarkRead(ctx, notificationID)
	if err != nil {
		return httptransport.NotificationResponse{}, err
	}
	return mapNotification(notification), nil
}

func mapNotification(notification entities.Notification) httptransport.NotificationResponse {
	out := httptransport.NotificationResponse{
		NotificationID: notification.NotificationID,
		Message:        notification.Message,
		EntityID:       notification.EntityID,
		EntityKind:     notification.EntityKind,
		EventType:      notification.EventType,
		CreatedAt:      notification.CreatedAt.Format(time.RFC3339),
	}
	if notification.ReadAt != nil {
		out.ReadAt = notification.ReadAt.Format(time.RFC3339)
	}
	return out
}
