package service

import "errors"

// Sentinel errors returned synchronously from workflow operations.
// Controllers map these to HTTP status codes with errors.Is.
//
// Fatal pipeline errors are not part of this set: the pipeline runs
// detached and records failures on the submission row instead of
// returning them.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidState      = errors.New("invalid state")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)
