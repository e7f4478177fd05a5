// Package ops is the catalog of named geoprocessing operations and the
// two-dimensional (operation, dialect) table of rendering templates.
package ops

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/okra-platform/gisgen/internal/codegen/script"
	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/schema"
)

var (
	// ErrInvalidOperation is wrapped by InvalidOperationError
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrUnsupported is returned by Render when the dialect has no template for the operation
	ErrUnsupported = errors.New("operation not supported for dialect")
)

// Group partitions operations for documentation only
type Group string

const (
	GroupGeneral Group = "general"
	GroupMassing Group = "massing"
)

// Operation describes one named operation
type Operation struct {
	Name    string `json:"name"`
	Group   Group  `json:"group"`
	Summary string `json:"summary"`
}

var operations = []Operation{
	{Name: "reproject", Group: GroupGeneral, Summary: "Reproject the layer to a target CRS"},
	{Name: "export", Group: GroupGeneral, Summary: "Export features to a file format"},
	{Name: "buffer", Group: GroupGeneral, Summary: "Buffer features by a distance"},
	{Name: "clip", Group: GroupGeneral, Summary: "Clip features to a boundary layer"},
	{Name: "select", Group: GroupGeneral, Summary: "Select features by attribute"},
	{Name: "dissolve", Group: GroupGeneral, Summary: "Dissolve features by field"},
	{Name: "centroid", Group: GroupGeneral, Summary: "Compute feature centroids"},
	{Name: "field_calc", Group: GroupGeneral, Summary: "Calculate a new field"},
	{Name: "spatial_join", Group: GroupGeneral, Summary: "Join attributes by location"},
	{Name: "intersect", Group: GroupGeneral, Summary: "Intersect with an overlay layer"},
	{Name: "extrude", Group: GroupMassing, Summary: "Extrude polygons by a height field"},
	{Name: "z_stats", Group: GroupMassing, Summary: "Report Z value statistics"},
	{Name: "floor_ceiling", Group: GroupMassing, Summary: "Extrude between base and roof heights"},
	{Name: "volume", Group: GroupMassing, Summary: "Approximate volume from area and height"},
	{Name: "scene_layer", Group: GroupMassing, Summary: "Export a 3D scene layer package"},
}

// All returns every operation in canonical order
func All() []Operation {
	return append([]Operation(nil), operations...)
}

// Names returns the closed set of valid operation names in canonical order
func Names() []string {
	out := make([]string, len(operations))
	for i, op := range operations {
		out[i] = op.Name
	}
	return out
}

// Lookup returns the operation called name
func Lookup(name string) (Operation, bool) {
	for _, op := range operations {
		if op.Name == name {
			return op, true
		}
	}
	return Operation{}, false
}

// InvalidOperationError reports names outside the closed operation set
type InvalidOperationError struct {
	Names []string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("invalid operation(s): %s (valid operations: %s)",
		strings.Join(e.Names, ", "), strings.Join(Names(), ", "))
}

func (e *InvalidOperationError) Unwrap() error {
	return ErrInvalidOperation
}

// Validate fails with an InvalidOperationError naming every invalid entry.
// Each invalid name is reported once, in first-seen order.
func Validate(names []string) error {
	var invalid []string
	seen := make(map[string]bool)
	for _, n := range names {
		if _, ok := Lookup(n); ok || seen[n] {
			continue
		}
		seen[n] = true
		invalid = append(invalid, n)
	}
	if len(invalid) > 0 {
		return &InvalidOperationError{Names: invalid}
	}
	return nil
}

// Context is the per-layer data available to operation templates
type Context struct {
	Var         string
	Table       string
	Schema      string
	FirstColumn string
}

// NewContext builds the template context for a layer
func NewContext(layer schema.Layer) Context {
	return Context{
		Var:         target.SafeVar(layer.Table),
		Table:       layer.Table,
		Schema:      layer.Schema,
		FirstColumn: layer.FirstColumn("field_name"),
	}
}

// Fragment is one rendered operation block
type Fragment struct {
	Operation string
	Text      string
}

// Composition is the outcome of composing an operation sequence for one dialect
type Composition struct {
	Fragments   []Fragment
	Unsupported []string
}

// templateFuncs quote layer names for the string context they appear in
var templateFuncs = template.FuncMap{
	"pytext":   script.PyText,
	"fstr":     script.FStringText,
	"pysq":     script.PySingle,
	"sqlident": script.SQLIdent,
}

// Registry holds the (operation, dialect) template table
type Registry struct {
	templates map[string]map[target.Dialect]*template.Template
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[string]map[target.Dialect]*template.Template),
	}
}

// Register parses text as the template for (name, dialect)
func (r *Registry) Register(name string, d target.Dialect, text string) error {
	if _, ok := Lookup(name); !ok {
		return &InvalidOperationError{Names: []string{name}}
	}

	tmpl, err := template.New(name + "/" + string(d)).Option("missingkey=error").Funcs(templateFuncs).Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse template %s/%s: %w", name, d, err)
	}

	if r.templates[name] == nil {
		r.templates[name] = make(map[target.Dialect]*template.Template)
	}
	r.templates[name][d] = tmpl
	return nil
}

// Supports reports whether (name, dialect) has a template
func (r *Registry) Supports(name string, d target.Dialect) bool {
	_, ok := r.templates[name][d]
	return ok
}

// Dialects returns the dialects that can render name, sorted
func (r *Registry) Dialects(name string) []target.Dialect {
	var out []target.Dialect
	for d := range r.templates[name] {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Render renders one operation for one dialect
func (r *Registry) Render(name string, d target.Dialect, ctx Context) (string, error) {
	if _, ok := Lookup(name); !ok {
		return "", &InvalidOperationError{Names: []string{name}}
	}

	tmpl, ok := r.templates[name][d]
	if !ok {
		return "", fmt.Errorf("%w: %s on %s", ErrUnsupported, name, d)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("failed to render %s for %s: %w", name, d, err)
	}
	return buf.String(), nil
}

// Compose renders names in caller order. Duplicates render once per
// occurrence. Names without a template for d are collected in Unsupported
// (once each) instead of failing. Invalid names fail before anything renders.
func (r *Registry) Compose(names []string, d target.Dialect, ctx Context) (Composition, error) {
	if err := Validate(names); err != nil {
		return Composition{}, err
	}

	var out Composition
	skipped := make(map[string]bool)
	for _, name := range names {
		text, err := r.Render(name, d, ctx)
		if errors.Is(err, ErrUnsupported) {
			if !skipped[name] {
				skipped[name] = true
				out.Unsupported = append(out.Unsupported, name)
			}
			continue
		}
		if err != nil {
			return Composition{}, err
		}
		out.Fragments = append(out.Fragments, Fragment{Operation: name, Text: text})
	}
	return out, nil
}

// DefaultRegistry carries the built-in templates for every operation aware dialect
var DefaultRegistry = NewRegistry()

func init() {
	mustRegisterAll(DefaultRegistry, target.PyQGIS, pyqgisTemplates)
	mustRegisterAll(DefaultRegistry, target.ArcPy, arcpyTemplates)
}

func mustRegisterAll(r *Registry, d target.Dialect, templates map[string]string) {
	for name, text := range templates {
		if err := r.Register(name, d, text); err != nil {
			panic(err)
		}
	}
}
