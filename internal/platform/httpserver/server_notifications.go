package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	notificationerrors "agora/contexts/civic-engagement/notification-service/domain/errors"
	notificationhttp "agora/contexts/civic-engagement/notification-service/transport/http"
)

func writeNotificationError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, notificationhttp.ErrorResponse{Code: code, Message: message})
}

func writeNotificationDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, notificationerrors.ErrNotificationNotFound):
		writeNotificationError(w, http.StatusNotFound, "notification_not_found", err.Error())
	case errors.Is(err, notificationerrors.ErrInvalidNotificationInput):
		writeNotificationError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, notificationerrors.ErrConflict):
		writeNotificationError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeNotificationError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitRaw := r.URL.Query().Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeNotificationError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}
	resp, err := s.notifications.Handler.ListNotificationsHandler(r.Context(), limit)
	if err != nil {
		writeNotificationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	resp, err := s.notifications.Handler.MarkReadHandler(r.Context(), r.PathValue("notification_id"))
	if err != nil {
		writeNotificationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
