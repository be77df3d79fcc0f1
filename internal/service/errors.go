package service

import "errors"

// Service errors. Handlers map these to HTTP responses with errors.Is;
// the wrapped message carries the offending field.
var (
	ErrValidation  = errors.New("validation error")
	ErrInvalidDate = errors.New("invalid date")
	ErrNotFound    = errors.New("user not found")
	ErrStore       = errors.New("store error")
)
