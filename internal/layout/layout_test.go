package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okra-platform/gisgen/internal/schema"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testSchema() *schema.Schema {
	return &schema.Schema{
		Database: "test_db",
		Host:     "localhost",
		Layers: []schema.Layer{
			{Schema: "public", Table: "parcels", Geometry: schema.Geometry{Column: "geom"}},
			{Schema: "public", Table: "roads", Geometry: schema.Geometry{Column: "geom"}},
			{Schema: "transit", Table: "stops", Geometry: schema.Geometry{Column: "geom"}},
		},
	}
}

func TestLoadTemplate(t *testing.T) {
	path := writeFile(t, "template.yaml", `
name: qa
custom:
  preamble: "# company header"
  extra_imports: "import json"
  per_layer_prefix: "# begin {qualified_name}"
  per_layer_suffix: "# end {table}"
  teardown: "print('done')"
sections:
  include_sample_rows: false
`)

	tmpl, err := LoadTemplate(path)
	require.NoError(t, err)

	assert.Equal(t, "qa", tmpl.Name)
	assert.Equal(t, "# company header", tmpl.Custom.Preamble)
	assert.Equal(t, "import json", tmpl.Custom.ExtraImports)
	assert.False(t, tmpl.SampleRows())
	assert.True(t, tmpl.CRSInfo())
	assert.True(t, tmpl.FieldList())
}

func TestTemplate_NilDefaults(t *testing.T) {
	var tmpl *Template
	assert.True(t, tmpl.SampleRows())
	assert.True(t, tmpl.CRSInfo())
	assert.True(t, tmpl.FieldList())
}

func TestLoadTemplate_Errors(t *testing.T) {
	_, err := LoadTemplate(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrLayoutNotFound)

	path := writeFile(t, "bad.yaml", "custom: [unclosed")
	_, err = LoadTemplate(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid YAML")
}

func TestSubstitute(t *testing.T) {
	layer := schema.Layer{Schema: "transit", Table: "stops"}
	got := Substitute("{schema}/{table} = {qualified_name}", layer)
	assert.Equal(t, "transit/stops = transit.stops", got)
}

func TestComposition_Apply(t *testing.T) {
	path := writeFile(t, "layout.yaml", `
name: downtown
platform: arcpy
output: downtown.py
layers:
  - table: roads
    operations: [buffer, clip]
  - table: missing_table
  - table: transit.stops
    operations: centroid
  - table: parcels
`)

	comp, err := LoadComposition(path)
	require.NoError(t, err)
	assert.Equal(t, "arcpy", comp.Platform)
	assert.Equal(t, "downtown.py", comp.Output)

	s := testSchema()
	out, missing := comp.Apply(s)

	require.Len(t, out.Layers, 3)
	assert.Equal(t, "roads", out.Layers[0].Table)
	assert.Equal(t, "stops", out.Layers[1].Table)
	assert.Equal(t, "parcels", out.Layers[2].Table)
	assert.Equal(t, []string{"missing_table"}, missing)

	// Source schema keeps its order
	assert.Equal(t, "parcels", s.Layers[0].Table)

	ops := comp.PerLayerOps()
	assert.Equal(t, map[string][]string{
		"public.roads":  {"buffer", "clip"},
		"transit.stops": {"centroid"},
	}, ops)
}

func TestComposition_EmptyLayers(t *testing.T) {
	comp := &Composition{}
	out, missing := comp.Apply(testSchema())
	assert.Empty(t, out.Layers)
	assert.Empty(t, missing)
	assert.Empty(t, comp.PerLayerOps())
}
