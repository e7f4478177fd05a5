package codegen

import (
	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/schema"
)

// Generator is the interface that every dialect generator must implement
type Generator interface {
	// Generate renders the artifact for the schema. Operation names are
	// already validated; dialects without operation support ignore them.
	Generate(s *schema.Schema, operations []string) ([]byte, error)

	// Dialect returns the dialect tag (e.g. "pyqgis", "qgs")
	Dialect() target.Dialect

	// FileExtension returns the file extension for generated files (e.g. ".py", ".qgs")
	FileExtension() string
}

// OperationSupporter is implemented by generators that render operations
type OperationSupporter interface {
	SupportsOperation(name string) bool
}

// Factory builds a generator for one generation call
type Factory func(opts target.Options) Generator
