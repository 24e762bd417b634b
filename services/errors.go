package services

import "errors"

// Sentinel errors returned by services. They are wrapped with a client-facing
// detail, e.g. fmt.Errorf("%w: name is required", ErrInvalidArgument).
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUploadRejected  = errors.New("upload rejected")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrTooManyRequests = errors.New("too many requests")
)
