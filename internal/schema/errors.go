package schema

import "errors"

var (
	// ErrNilSchema is returned when a nil schema is validated or filtered
	ErrNilSchema = errors.New("schema cannot be nil")

	// ErrInvalidSchema wraps every structural invariant violation
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrNoLayersMatched is returned when a filter removes every layer
	ErrNoLayersMatched = errors.New("no layers matched filter")
)
