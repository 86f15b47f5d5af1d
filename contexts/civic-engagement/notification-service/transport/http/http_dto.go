package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type NotificationResponse struct {
	NotificationID string `json:"notification_id"`
	Message        string `json:"message"`
	EntityID       string `json:"entity_id,omitempty"`
	EntityKind     string `json:"entity_kind,omitempty"`
	EventType      string `json:"event_type,omitempty"`
	CreatedAt      string `json:"created_at"`
	ReadAt         string `json:"read_at,omitempty"`
}

type NotificationListResponse struct {
	Items []NotificationResponse `json:"items"`
}
