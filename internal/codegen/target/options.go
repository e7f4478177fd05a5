package target

import (
	"strings"
	"unicode"

	"github.com/okra-platform/gisgen/internal/layout"
	"github.com/okra-platform/gisgen/internal/schema"
)

// Connection holds the database coordinates embedded in generated artifacts.
// Passwords are never embedded; scripts read PGPASSWORD at run time.
type Connection struct {
	Host   string
	Port   int
	DBName string
	User   string
}

// Options contains common options for code generation
type Options struct {
	Connection Connection

	// Template injects custom code and toggles optional sections (pyqgis, arcpy)
	Template *layout.Template

	// PerLayerOps replaces the global operation list for the listed layers,
	// keyed by qualified name
	PerLayerOps map[string][]string

	// Styles carries a pre-resolved styling fragment per qualified layer name
	Styles map[string]string

	// Notes are extra header lines, e.g. catalogue metadata for a batch artifact
	Notes []string
}

// ResolveConnection fills unset connection fields from the schema and the
// built-in defaults.
func (o Options) ResolveConnection(s *schema.Schema) Connection {
	c := o.Connection
	if c.Host == "" && s != nil {
		c.Host = s.Host
	}
	if c.DBName == "" && s != nil {
		c.DBName = s.Database
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.DBName == "" {
		c.DBName = "my_gis_db"
	}
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.User == "" {
		c.User = "postgres"
	}
	return c
}

// LayerOperations returns the operations for a layer: its per-layer list when
// one is configured, otherwise the global list.
func (o Options) LayerOperations(layer schema.Layer, global []string) []string {
	if ops, ok := o.PerLayerOps[layer.QualifiedName()]; ok && len(ops) > 0 {
		return ops
	}
	return global
}

// Style returns the styling fragment for layer, if any
func (o Options) Style(layer schema.Layer) string {
	return o.Styles[layer.QualifiedName()]
}

// SafeVar converts a layer or table name into a token usable as a variable
// name in generated code. Hyphens, spaces and periods become underscores and a
// leading digit gets an underscore prefix. SafeVar is idempotent.
func SafeVar(name string) string {
	r := strings.NewReplacer("-", "_", " ", "_", ".", "_")
	out := r.Replace(name)
	if out != "" && unicode.IsDigit(rune(out[0])) {
		out = "_" + out
	}
	return out
}
