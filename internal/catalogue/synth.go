package catalogue

import (
	"strconv"
	"strings"

	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/schema"
	"github.com/okra-platform/gisgen/internal/symbology"
)

// Reference resolves catalogue tables against an extracted schema
type Reference struct {
	byQualified map[string]schema.Layer
	byTable     map[string]schema.Layer
}

// NewReference indexes s by qualified name and by table name. A nil schema
// gives an empty reference.
func NewReference(s *schema.Schema) *Reference {
	ref := &Reference{
		byQualified: make(map[string]schema.Layer),
		byTable:     schema.LayerByTable(s),
	}
	if s != nil {
		for _, l := range s.Layers {
			ref.byQualified[l.QualifiedName()] = l
		}
	}
	return ref
}

// Len returns the number of distinct tables known to the reference
func (r *Reference) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byQualified)
}

// Lookup finds the reference layer for a row, by qualified name first
func (r *Reference) Lookup(row Row) (schema.Layer, bool) {
	if r == nil {
		return schema.Layer{}, false
	}
	if row.SchemaName != "" {
		if l, ok := r.byQualified[row.QualifiedTable()]; ok {
			return l, true
		}
	}
	l, ok := r.byTable[row.tableName()]
	return l, ok
}

func (r Row) tableName() string {
	switch {
	case r.TableName != "":
		return r.TableName
	case r.MapName != "":
		return r.MapName
	}
	return "layer_" + strconv.Itoa(r.Line)
}

// Synthesize builds the single layer described by row. When ref knows the
// table its geometry, columns and keys are used and enriched is true.
func Synthesize(row Row, ref *Reference) (layer schema.Layer, enriched bool) {
	layer = schema.Layer{
		Schema:   row.SchemaName,
		Table:    row.tableName(),
		Geometry: schema.Geometry{Column: "geom", Type: "GEOMETRY", SRID: 4326},
		Comment:  row.MapName,
	}

	if known, ok := ref.Lookup(row); ok {
		c := (&schema.Schema{Layers: []schema.Layer{known}}).Clone().Layers[0]
		layer.Geometry = c.Geometry
		layer.Columns = c.Columns
		layer.PrimaryKeys = c.PrimaryKeys
		layer.RowCountEstimate = c.RowCountEstimate
		if layer.Schema == "" {
			layer.Schema = c.Schema
		}
		enriched = true
	}

	if layer.Schema == "" {
		layer.Schema = "public"
	}
	if row.GeometryType != "" {
		layer.Geometry.Type = strings.ToUpper(row.GeometryType)
	}
	return layer, enriched
}

// StyleFor returns the styling request of row applied to layer. Without a
// label field, graduated and heatmap renderers classify on the first numeric
// column and categorized on the first text column.
func StyleFor(row Row, layer schema.Layer) symbology.Style {
	style := symbology.Style{
		Renderer: row.RendererType,
		Color:    row.Color,
		Field:    row.LabelField,
		Label:    row.LabelField,
		Opacity:  row.Opacity,
		Geometry: layer.Geometry.Type,
		Var:      target.SafeVar(layer.Table),
	}

	if style.Field == "" {
		switch symbology.Normalize(row.RendererType) {
		case symbology.Graduated, symbology.Heatmap:
			style.Field = BestField(layer, true)
		case symbology.Categorized, symbology.RuleBased:
			style.Field = BestField(layer, false)
		}
	}
	return style
}

// BestField picks the first non-key attribute column that is numeric (or
// text when numeric is false), or "value" when there is none
func BestField(layer schema.Layer, numeric bool) string {
	keys := make(map[string]bool, len(layer.PrimaryKeys))
	for _, pk := range layer.PrimaryKeys {
		keys[pk] = true
	}

	for _, c := range layer.Columns {
		if keys[c.Name] || c.Name == layer.Geometry.Column {
			continue
		}
		if numeric && c.Type.IsNumeric() {
			return c.Name
		}
		if !numeric && c.Type == schema.TypeText {
			return c.Name
		}
	}
	return "value"
}
