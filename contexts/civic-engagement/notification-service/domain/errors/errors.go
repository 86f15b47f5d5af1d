package errors

import "errors"

var (
	ErrInvalidNotificationInput = errors.New("invalid notification input")
	ErrNotificationNotFound     = errors.New("notification not found")
	ErrConflict                 = errors.New("notification conflict")
)
