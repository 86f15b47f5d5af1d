package entities

import "time"

type Notification struct {
	NotificationID string
	Message        string
	EntityID       string
	EntityKind     string
	EventType      string
	CreatedAt      time.Time
	ReadAt         *time.Time
}
