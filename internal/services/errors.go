package services

import "errors"

// Sentinel errors shared by the service layer. HTTP handlers map them to
// status codes; the WebSocket controller maps them to scoped error events.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")

	ErrEmailTaken         = errors.New("email is already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
