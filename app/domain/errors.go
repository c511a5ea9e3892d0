package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrBadRequest        = errors.New("bad request")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrValidation        = errors.New("validation error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPublishFailed     = errors.New("publish failed")
	ErrUnknownMessage    = errors.New("unknown stock change message type")
	ErrInternal          = errors.New("internal server error")
)
