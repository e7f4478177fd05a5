// Package script holds the building blocks shared by the Python-flavoured
// generators: the header docstring, the per-layer banner and the web palette.
package script

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/codegen/writer"
	"github.com/okra-platform/gisgen/internal/schema"
)

// RuleWidth is the width of the "=" banners around each layer
const RuleWidth = 66

// Header describes the docstring at the top of a generated script
type Header struct {
	Title string
	Conn  target.Connection
	// Layers is the number of layers in the artifact
	Layers int
	Notes  []string
	// Usage lines follow a blank line after the fixed fields
	Usage []string
}

// WriteHeader writes the module docstring. It carries no timestamp so output
// stays byte-identical across runs.
func WriteHeader(w *writer.Writer, h Header) {
	lines := []string{
		h.Title,
		fmt.Sprintf("Database : %s @ %s:%d", h.Conn.DBName, h.Conn.Host, h.Conn.Port),
		fmt.Sprintf("Layers   : %d", h.Layers),
	}
	lines = append(lines, h.Notes...)
	if len(h.Usage) > 0 {
		lines = append(lines, "")
		lines = append(lines, h.Usage...)
	}
	w.WriteDocString(lines)
	w.BlankLine()
}

// RowsLabel renders the approximate row count, e.g. "~12,345" or "unknown"
func RowsLabel(layer schema.Layer) string {
	n, ok := layer.RowCount()
	if !ok {
		return "unknown"
	}
	return "~" + humanize.Comma(n)
}

// FieldSummary lists columns as "name (token)" using the dialect's type tokens
func FieldSummary(layer schema.Layer, d target.Dialect) string {
	if len(layer.Columns) == 0 {
		return "(none)"
	}
	parts := make([]string, len(layer.Columns))
	for i, c := range layer.Columns {
		parts[i] = fmt.Sprintf("%s (%s)", c.Name, target.Coerce(c.Type, d))
	}
	return strings.Join(parts, ", ")
}

// WriteLayerBanner writes the full per-layer banner used by the operation aware dialects
func WriteLayerBanner(w *writer.Writer, layer schema.Layer, d target.Dialect) {
	w.WriteRule("=", RuleWidth)
	w.WriteComment("Layer : " + layer.QualifiedName())
	w.WriteComment(fmt.Sprintf("Geom  : %s  |  SRID: %d", layer.Geometry.Type, layer.Geometry.SRID))
	w.WriteComment("Rows  : " + RowsLabel(layer))
	w.WriteComment("Fields: " + FieldSummary(layer, d))
	if layer.Comment != "" {
		w.WriteComment("Note  : " + layer.Comment)
	}
	w.WriteRule("=", RuleWidth)
	w.BlankLine()
}

// WriteShortBanner writes the compact banner used by the visualization dialects.
// Extra lines go inside the rules.
func WriteShortBanner(w *writer.Writer, layer schema.Layer, extra ...string) {
	w.WriteRule("=", RuleWidth)
	w.WriteComment(fmt.Sprintf("Layer: %s  (%s, SRID %d)", layer.QualifiedName(), layer.Geometry.Type, layer.Geometry.SRID))
	for _, e := range extra {
		w.WriteComment(e)
	}
	w.WriteRule("=", RuleWidth)
}

// WriteSnippet writes a user supplied code snippet followed by a blank line.
// Empty snippets write nothing.
func WriteSnippet(w *writer.Writer, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	w.WriteLines(text)
	w.BlankLine()
}

var (
	pyTextEscaper   = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)
	pySingleEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)
	fStringBraces   = strings.NewReplacer("{", "{{", "}", "}}")
)

// PyString quotes s as a Python double-quoted string literal
func PyString(s string) string {
	return `"` + PyText(s) + `"`
}

// PyText escapes s for use inside a Python double-quoted string literal
func PyText(s string) string {
	return pyTextEscaper.Replace(s)
}

// FStringText escapes s for use inside a double-quoted Python f-string, where
// braces are also special
func FStringText(s string) string {
	return fStringBraces.Replace(PyText(s))
}

// PySingle quotes s as a Python single-quoted string literal
func PySingle(s string) string {
	return `'` + pySingleEscaper.Replace(s) + `'`
}

// SQLIdent quotes s as a double-quoted SQL identifier
func SQLIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// PyList renders items as a Python list of string literals
func PyList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = PyString(it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// ColumnNames returns up to n column names in schema order. n <= 0 means all.
func ColumnNames(layer schema.Layer, n int) []string {
	cols := layer.Columns
	if n > 0 && len(cols) > n {
		cols = cols[:n]
	}
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

// SelectAll is the SQL used by the visualization dialects to read a layer,
// as a Python string literal
func SelectAll(layer schema.Layer) string {
	return PySingle("SELECT * FROM " + SQLIdent(layer.Schema) + "." + SQLIdent(layer.Table))
}

// WriteConnectionBlock writes the DB_* constants and SQLAlchemy engine used by
// the geopandas based dialects. The password is read from PGPASSWORD.
func WriteConnectionBlock(w *writer.Writer, conn target.Connection, extra ...string) {
	w.WriteLinef(`DB_HOST     = %s`, PyString(conn.Host))
	w.WriteLinef(`DB_PORT     = %d`, conn.Port)
	w.WriteLinef(`DB_NAME     = %s`, PyString(conn.DBName))
	w.WriteLinef(`DB_USER     = %s`, PyString(conn.User))
	w.WriteLine(`DB_PASSWORD = os.environ["PGPASSWORD"]`)
	for _, e := range extra {
		w.WriteLine(e)
	}
	w.BlankLine()
	w.WriteLine("engine = create_engine(")
	w.WriteLine(`    f"postgresql://{DB_USER}:{quote_plus(DB_PASSWORD)}@{DB_HOST}:{DB_PORT}/{DB_NAME}"`)
	w.WriteLine(")")
	w.BlankLine()
}

// Color is one palette entry in both notations used by the web dialects
type Color struct {
	Hex  string
	RGBA [4]int
}

var palette = []Color{
	{Hex: "#ff8c00", RGBA: [4]int{255, 140, 0, 160}},
	{Hex: "#0080ff", RGBA: [4]int{0, 128, 255, 160}},
	{Hex: "#00c864", RGBA: [4]int{0, 200, 100, 160}},
	{Hex: "#ff3232", RGBA: [4]int{255, 50, 50, 160}},
	{Hex: "#b400ff", RGBA: [4]int{180, 0, 255, 160}},
	{Hex: "#00c8c8", RGBA: [4]int{0, 200, 200, 160}},
}

// PaletteColor returns the colour for the i-th layer, cycling through the palette
func PaletteColor(i int) Color {
	if i < 0 {
		i = -i
	}
	return palette[i%len(palette)]
}

// RGBAList renders c as a Python list literal
func (c Color) RGBAList() string {
	return fmt.Sprintf("[%d, %d, %d, %d]", c.RGBA[0], c.RGBA[1], c.RGBA[2], c.RGBA[3])
}

var heightHints = map[string]bool{
	"height": true, "bldg_height": true, "building_height": true, "h": true,
	"elev": true, "elevation": true, "floors": true, "num_floors": true,
	"stories": true, "z": true, "roof_height": true, "max_height": true,
}

// HeightField returns the first column whose name suggests a building height
func HeightField(layer schema.Layer) (string, bool) {
	for _, c := range layer.Columns {
		if heightHints[strings.ToLower(c.Name)] {
			return c.Name, true
		}
	}
	return "", false
}

// GeometryFamily classifies a geometry type tag as point, line or polygon
type GeometryFamily int

const (
	FamilyPolygon GeometryFamily = iota
	FamilyLine
	FamilyPoint
)

// Family returns the family of a PostGIS geometry type such as MULTILINESTRINGZ.
// Unknown and generic types count as polygon.
func Family(geomType string) GeometryFamily {
	t := strings.ToUpper(geomType)
	switch {
	case strings.Contains(t, "POINT"):
		return FamilyPoint
	case strings.Contains(t, "LINE"):
		return FamilyLine
	default:
		return FamilyPolygon
	}
}
