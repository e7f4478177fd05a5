package script

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/codegen/writer"
	"github.com/okra-platform/gisgen/internal/schema"
)

func int64Ptr(v int64) *int64 { return &v }

func TestWriteHeader(t *testing.T) {
	w := writer.NewWriter("    ")
	WriteHeader(w, Header{
		Title:  "Generated PyQGIS script",
		Conn:   target.Connection{Host: "db", Port: 5433, DBName: "city"},
		Layers: 2,
		Usage:  []string{"Run inside QGIS."},
	})

	expected := `"""
Generated PyQGIS script
Database : city @ db:5433
Layers   : 2

Run inside QGIS.
"""

`
	assert.Equal(t, expected, w.String())
}

func TestRowsLabel(t *testing.T) {
	assert.Equal(t, "~1,234,567", RowsLabel(schema.Layer{RowCountEstimate: int64Ptr(1234567)}))
	assert.Equal(t, "~0", RowsLabel(schema.Layer{RowCountEstimate: int64Ptr(0)}))
	assert.Equal(t, "unknown", RowsLabel(schema.Layer{RowCountEstimate: int64Ptr(-1)}))
	assert.Equal(t, "unknown", RowsLabel(schema.Layer{}))
}

func TestFieldSummary(t *testing.T) {
	layer := schema.Layer{Columns: []schema.Column{
		{Name: "id", Type: schema.TypeInteger},
		{Name: "name", Type: schema.TypeText},
		{Name: "shape_blob", Type: schema.Type("bytea")},
	}}
	assert.Equal(t, "id (LONG), name (TEXT), shape_blob (TEXT)", FieldSummary(layer, target.ArcPy))
	assert.Equal(t, "(none)", FieldSummary(schema.Layer{}, target.PyQGIS))
}

func TestPyString(t *testing.T) {
	assert.Equal(t, `"plain"`, PyString("plain"))
	assert.Equal(t, `"say \"hi\""`, PyString(`say "hi"`))
	assert.Equal(t, `"C:\\data"`, PyString(`C:\data`))
	assert.Equal(t, `["a", "b"]`, PyList([]string{"a", "b"}))
	assert.Equal(t, `[]`, PyList(nil))
	assert.Equal(t, `"line\nbreak"`, PyString("line\nbreak"))
}

func TestQuoting(t *testing.T) {
	const odd = `odd{name}'s "t"`

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"python text", PyText(odd), `odd{name}'s \"t\"`},
		{"f-string text", FStringText(odd), `odd{{name}}'s \"t\"`},
		{"f-string backslash", FStringText(`a\b`), `a\\b`},
		{"single quoted", PySingle(odd), `'odd{name}\'s "t"'`},
		{"single quoted backslash", PySingle(`a\b`), `'a\\b'`},
		{"sql identifier", SQLIdent(odd), `"odd{name}'s ""t"""`},
		{"sql identifier plain", SQLIdent("roads"), `"roads"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestSelectAll(t *testing.T) {
	plain := schema.Layer{Schema: "transit", Table: "bus-stops"}
	assert.Equal(t, `'SELECT * FROM "transit"."bus-stops"'`, SelectAll(plain))

	odd := schema.Layer{Schema: "public", Table: `o'brien "st"`}
	assert.Equal(t, `'SELECT * FROM "public"."o\'brien ""st"""'`, SelectAll(odd))
}

func TestPaletteColor_Cycles(t *testing.T) {
	assert.Equal(t, "#ff8c00", PaletteColor(0).Hex)
	assert.Equal(t, PaletteColor(1), PaletteColor(7))
	assert.Equal(t, "[0, 128, 255, 160]", PaletteColor(1).RGBAList())
}

func TestHeightField(t *testing.T) {
	layer := schema.Layer{Columns: []schema.Column{{Name: "name"}, {Name: "Bldg_Height"}, {Name: "z"}}}
	got, ok := HeightField(layer)
	assert.True(t, ok)
	assert.Equal(t, "Bldg_Height", got)

	_, ok = HeightField(schema.Layer{Columns: []schema.Column{{Name: "name"}}})
	assert.False(t, ok)
}

func TestFamily(t *testing.T) {
	tests := []struct {
		in   string
		want GeometryFamily
	}{
		{"MULTIPOINT", FamilyPoint},
		{"LineString", FamilyLine},
		{"MULTILINESTRINGZ", FamilyLine},
		{"POLYGON", FamilyPolygon},
		{"GEOMETRY", FamilyPolygon},
		{"", FamilyPolygon},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Family(tt.in))
		})
	}
}

func TestColumnNames(t *testing.T) {
	layer := schema.Layer{Columns: []schema.Column{{Name: "a"}, {Name: "b"}, {Name: "c"}}}
	assert.Equal(t, []string{"a", "b"}, ColumnNames(layer, 2))
	assert.Equal(t, []string{"a", "b", "c"}, ColumnNames(layer, 0))
}
