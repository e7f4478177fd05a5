package codegen

import (
	"fmt"

	"github.com/okra-platform/gisgen/internal/codegen/ops"
	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/schema"
)

// WarningKind classifies a recoverable generation diagnostic
type WarningKind string

const (
	// WarningIgnored marks an operation passed to a dialect that never renders operations
	WarningIgnored WarningKind = "ignored"

	// WarningUnsupported marks an operation the dialect has no template for
	WarningUnsupported WarningKind = "unsupported"
)

// Warning is a non-blocking diagnostic. Warnings never appear in generated text.
type Warning struct {
	Kind      WarningKind    `json:"kind"`
	Operation string         `json:"operation"`
	Dialect   target.Dialect `json:"dialect"`
}

func (w Warning) String() string {
	switch w.Kind {
	case WarningIgnored:
		return fmt.Sprintf("operation %q ignored: %s does not render operations", w.Operation, w.Dialect)
	default:
		return fmt.Sprintf("operation %q is not supported by %s and was skipped", w.Operation, w.Dialect)
	}
}

// Request is one generation unit of work
type Request struct {
	Dialect    string
	Schema     *schema.Schema
	Operations []string
	Options    target.Options
}

// Result is the generated artifact with its diagnostics
type Result struct {
	Code      []byte
	Warnings  []Warning
	Extension string
}

// Generate runs a request against the default registry
func Generate(req Request) (*Result, error) {
	return DefaultRegistry.Generate(req)
}

// Generate validates the request and renders it. Invalid operation names,
// unknown dialects and schemas breaking a structural invariant fail before
// anything is rendered.
func (r *Registry) Generate(req Request) (*Result, error) {
	gen, err := r.Get(req.Dialect, req.Options)
	if err != nil {
		return nil, err
	}

	requested := requestedOperations(req)
	if err := ops.Validate(requested); err != nil {
		return nil, err
	}

	if err := schema.Validate(req.Schema); err != nil {
		return nil, err
	}

	warnings := operationWarnings(gen, requested)

	code, err := gen.Generate(req.Schema, req.Operations)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", gen.Dialect(), err)
	}

	return &Result{
		Code:      code,
		Warnings:  warnings,
		Extension: gen.FileExtension(),
	}, nil
}

// requestedOperations returns the global list followed by every per-layer list
// in schema order
func requestedOperations(req Request) []string {
	out := append([]string(nil), req.Operations...)
	if req.Schema == nil || len(req.Options.PerLayerOps) == 0 {
		return out
	}
	for _, layer := range req.Schema.Layers {
		out = append(out, req.Options.PerLayerOps[layer.QualifiedName()]...)
	}
	return out
}

// operationWarnings yields one warning per distinct operation name the
// generator will not render, in first-request order
func operationWarnings(gen Generator, requested []string) []Warning {
	var warnings []Warning
	seen := make(map[string]bool)

	supporter, renders := gen.(OperationSupporter)
	for _, name := range requested {
		if seen[name] {
			continue
		}
		seen[name] = true

		switch {
		case !renders:
			warnings = append(warnings, Warning{Kind: WarningIgnored, Operation: name, Dialect: gen.Dialect()})
		case !supporter.SupportsOperation(name):
			warnings = append(warnings, Warning{Kind: WarningUnsupported, Operation: name, Dialect: gen.Dialect()})
		}
	}
	return warnings
}
