package domain

import "errors"

var (
	// ErrNotFound is returned when a stored record (blob, question) does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidSnapshot indicates a payload that does not match the Snapshot schema.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	// ErrInvalidEntity indicates an entity payload failed validation.
	ErrInvalidEntity = errors.New("invalid entity")
	// ErrEmptyClassroom is returned when a classroom id normalizes to the empty string.
	ErrEmptyClassroom = errors.New("classroom id is empty")
	// ErrUnexpectedStatus is returned by HTTP clients on a non-success response.
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrMissingLocation is returned when the remote store does not report a created identifier.
	ErrMissingLocation = errors.New("remote store did not return a location")
)
