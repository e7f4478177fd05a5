// Package layout loads the two YAML documents that shape a generated script:
// a Template (custom code injection and section toggles) and a Composition
// (layer selection and per-layer operations).
package layout

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okra-platform/gisgen/internal/schema"
)

// ErrLayoutNotFound is returned when a template or layout file does not exist
var ErrLayoutNotFound = errors.New("layout file not found")

// Template is a reusable script template
type Template struct {
	Name     string   `yaml:"name"`
	Custom   Custom   `yaml:"custom"`
	Sections Sections `yaml:"sections"`
}

// Custom holds code snippets injected verbatim into generated scripts
type Custom struct {
	Preamble       string `yaml:"preamble"`
	ExtraImports   string `yaml:"extra_imports"`
	PerLayerPrefix string `yaml:"per_layer_prefix"`
	PerLayerSuffix string `yaml:"per_layer_suffix"`
	Teardown       string `yaml:"teardown"`
}

// Sections toggles optional per-layer blocks. Unset toggles default to true.
type Sections struct {
	IncludeSampleRows *bool `yaml:"include_sample_rows"`
	IncludeCRSInfo    *bool `yaml:"include_crs_info"`
	IncludeFieldList  *bool `yaml:"include_field_list"`
}

// SampleRows reports whether the sample rows block is emitted
func (t *Template) SampleRows() bool {
	return t == nil || t.Sections.IncludeSampleRows == nil || *t.Sections.IncludeSampleRows
}

// CRSInfo reports whether the CRS info block is emitted
func (t *Template) CRSInfo() bool {
	return t == nil || t.Sections.IncludeCRSInfo == nil || *t.Sections.IncludeCRSInfo
}

// FieldList reports whether the field list block is emitted
func (t *Template) FieldList() bool {
	return t == nil || t.Sections.IncludeFieldList == nil || *t.Sections.IncludeFieldList
}

// Substitute replaces {table}, {schema} and {qualified_name} in text
func Substitute(text string, layer schema.Layer) string {
	return strings.NewReplacer(
		"{table}", layer.Table,
		"{schema}", layer.Schema,
		"{qualified_name}", layer.QualifiedName(),
	).Replace(text)
}

// LoadTemplate reads a template YAML file
func LoadTemplate(path string) (*Template, error) {
	var t Template
	if err := loadYAML(path, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Composition selects and orders layers and assigns per-layer operations
type Composition struct {
	Name     string       `yaml:"name"`
	Platform string       `yaml:"platform"`
	Output   string       `yaml:"output"`
	Layers   []LayerEntry `yaml:"layers"`
}

// LayerEntry is one layer selected by a composition
type LayerEntry struct {
	Table      string     `yaml:"table"`
	Operations StringList `yaml:"operations"`
}

// StringList accepts either a YAML sequence or a single scalar
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		if node.Value == "" {
			*l = nil
			return nil
		}
		*l = StringList{node.Value}
		return nil
	}

	var items []string
	if err := node.Decode(&items); err != nil {
		return err
	}
	*l = items
	return nil
}

// LoadComposition reads a composition layout YAML file
func LoadComposition(path string) (*Composition, error) {
	var c Composition
	if err := loadYAML(path, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Apply returns a new schema holding only the listed layers, in layout order.
// Listed tables absent from the schema are returned as missing.
func (c *Composition) Apply(s *schema.Schema) (*schema.Schema, []string) {
	out := &schema.Schema{Database: s.Database, Host: s.Host}
	if len(c.Layers) == 0 {
		return out, nil
	}

	byTable := make(map[string]schema.Layer, len(s.Layers))
	byQualified := make(map[string]schema.Layer, len(s.Layers))
	for _, l := range s.Layers {
		byTable[l.Table] = l
		byQualified[l.QualifiedName()] = l
	}

	var missing []string
	for _, entry := range c.Layers {
		l, ok := byQualified[entry.Table]
		if !ok {
			l, ok = byTable[entry.Table]
		}
		if !ok {
			missing = append(missing, entry.Table)
			continue
		}
		out.Layers = append(out.Layers, l)
	}

	return out.Clone(), missing
}

// PerLayerOps returns operations keyed by qualified name for entries that
// declare any. Unqualified tables are assumed to live in "public".
func (c *Composition) PerLayerOps() map[string][]string {
	ops := make(map[string][]string)
	for _, entry := range c.Layers {
		if len(entry.Operations) == 0 {
			continue
		}
		name := entry.Table
		if !strings.Contains(name, ".") {
			name = "public." + name
		}
		ops[name] = append([]string(nil), entry.Operations...)
	}
	return ops
}

func loadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrLayoutNotFound, path)
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	return nil
}
