package codegen

import (
	"errors"

	"github.com/okra-platform/gisgen/internal/codegen/ops"
	"github.com/okra-platform/gisgen/internal/schema"
)

var (
	// ErrUnknownDialect is returned when no generator is registered for a dialect
	ErrUnknownDialect = errors.New("unsupported platform")

	// ErrInvalidOperation is returned when an operation name is outside the closed set
	ErrInvalidOperation = ops.ErrInvalidOperation

	// ErrInvalidSchema is returned when the schema breaks a structural invariant
	ErrInvalidSchema = schema.ErrInvalidSchema
)
