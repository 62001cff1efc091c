package domain

import "errors"

var (
	// ErrNotFound is returned when a conversation, session or task index
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a request is rejected before any
	// processing (e.g. an empty message).
	ErrInvalidInput = errors.New("invalid input")
)
