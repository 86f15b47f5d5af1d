package errors

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid engagement input")
	ErrEntityNotFound    = errors.New("entity not found")
	ErrRecordNotFound    = errors.New("engagement record not found")
	ErrCommentNotFound   = errors.New("comment not found")
	ErrDuplicateAction   = errors.New("action already recorded for this actor")
	ErrActionNotAllowed  = errors.New("action is not valid for this entity kind")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("engagement conflict")
)
