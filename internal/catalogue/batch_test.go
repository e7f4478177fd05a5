package catalogue

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okra-platform/gisgen/internal/codegen"
	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/schema"
	"github.com/okra-platform/gisgen/internal/symbology"
	"github.com/okra-platform/gisgen/internal/testutil"
)

// Test plan:
// - Synthetic layers default to public/geom/GEOMETRY and honour overrides
// - A reference schema supplies geometry, columns and keys
// - Classification fields come from the label field, then the reference columns
// - Batch renders one artifact per row with the resolved style embedded
// - Invalid operations and unknown dialects fail before any artifact exists

func TestSynthesize_Defaults(t *testing.T) {
	layer, enriched := Synthesize(Row{MapName: "Parks", TableName: "parks", GeometryType: "multipolygon", Line: 3}, nil)
	assert.False(t, enriched)
	assert.Equal(t, schema.Layer{
		Schema:   "public",
		Table:    "parks",
		Geometry: schema.Geometry{Column: "geom", Type: "MULTIPOLYGON", SRID: 4326},
		Comment:  "Parks",
	}, layer)

	layer, _ = Synthesize(Row{Line: 9}, nil)
	assert.Equal(t, "layer_9", layer.Table)
	assert.NoError(t, schema.Validate(&schema.Schema{Layers: []schema.Layer{layer}}))
}

func TestSynthesize_Enriched(t *testing.T) {
	ref := NewReference(testutil.Schema())
	assert.Equal(t, 3, ref.Len())

	layer, enriched := Synthesize(Row{MapName: "Stops", TableName: "bus-stops"}, ref)
	require.True(t, enriched)
	assert.Equal(t, "transit", layer.Schema)
	assert.Equal(t, "location", layer.Geometry.Column)
	assert.Equal(t, []string{"stop_id"}, layer.PrimaryKeys)
	assert.Len(t, layer.Columns, 2)

	// The reference is not aliased
	layer.Columns[0].Name = "changed"
	assert.Equal(t, "stop_id", testutil.Schema().Layers[1].Columns[0].Name)

	// Explicit namespace that does not match falls back to the table name
	layer, enriched = Synthesize(Row{TableName: "roads", SchemaName: "archive"}, ref)
	assert.True(t, enriched)
	assert.Equal(t, "archive", layer.Schema)
}

func TestStyleFor_FieldSelection(t *testing.T) {
	buildings := testutil.Schema().Layers[0]

	tests := []struct {
		name     string
		row      Row
		field    string
		renderer symbology.Renderer
	}{
		{"graduated picks numeric non-key", Row{RendererType: "graduated"}, "height", symbology.Graduated},
		{"heatmap picks numeric", Row{RendererType: "heat map"}, "height", symbology.Heatmap},
		{"categorized picks text", Row{RendererType: "categorised"}, "name", symbology.Categorized},
		{"label field wins", Row{RendererType: "graduated", LabelField: "built"}, "built", symbology.Graduated},
		{"single symbol needs no field", Row{}, "", symbology.SingleSymbol},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			style := StyleFor(tt.row, buildings)
			assert.Equal(t, tt.field, style.Field)
			assert.Equal(t, tt.renderer, symbology.Normalize(style.Renderer))
			assert.Equal(t, "buildings", style.Var)
			assert.Equal(t, "MULTIPOLYGON", style.Geometry)
		})
	}
}

func TestBestField(t *testing.T) {
	stops := testutil.Schema().Layers[1]
	assert.Equal(t, "value", BestField(stops, true))
	assert.Equal(t, "value", BestField(stops, false), "the only text column is the key")
	assert.Equal(t, "value", BestField(schema.Layer{}, true))
}

func TestBatch(t *testing.T) {
	rows := []Row{
		{Status: "have", LayerType: "vector", MapName: "Building heights", TableName: "buildings", RendererType: "graduated", Color: "red", Opacity: "50%", Line: 2},
		{Status: "have", LayerType: "vector", MapName: "Stops", TableName: "bus-stops", RendererType: "cluster", Line: 3},
		{Status: "have", LayerType: "vector", MapName: "Building heights", TableName: "buildings", Line: 4},
	}
	conn := target.Connection{Host: "gis.local", Port: 5433, DBName: "city", User: "reader"}

	artifacts, err := Batch(nil, rows, BatchOptions{
		Dialect:    "PyQGIS",
		Operations: []string{"centroid"},
		Connection: conn,
		Reference:  NewReference(testutil.Schema()),
	})
	require.NoError(t, err)
	require.Len(t, artifacts, 3)

	assert.Equal(t, "Building heights.py", artifacts[0].Name)
	assert.Equal(t, "Stops.py", artifacts[1].Name)
	assert.Equal(t, "Building heights_2.py", artifacts[2].Name)

	first := string(artifacts[0].Code)
	assert.True(t, artifacts[0].Enriched)
	assert.Equal(t, symbology.Graduated, artifacts[0].Renderer)
	assert.Contains(t, first, "Map      : Building heights")
	assert.Contains(t, first, "Renderer : graduated (graduated)")
	assert.Contains(t, first, "# --- Symbology ---")
	assert.Contains(t, first, `GRAD_FIELD_buildings = "height"`)
	assert.Contains(t, first, "lyr_buildings.setOpacity(0.5)")
	assert.Contains(t, first, "# --- centroid ---")
	assert.Contains(t, first, `DB_HOST     = "gis.local"`)
	assert.Equal(t, 1, strings.Count(first, "QgsVectorLayer(uri_"))

	assert.Contains(t, string(artifacts[1].Code), "QgsPointClusterRenderer()")
	assert.Equal(t, symbology.SingleSymbol, artifacts[2].Renderer)
}

func TestBatch_DistinctNames(t *testing.T) {
	tests := []struct {
		name  string
		stems []string
		want  []string
	}{
		{
			name:  "suffix already taken by a later row",
			stems: []string{"roads", "roads", "roads_2"},
			want:  []string{"roads.py", "roads_2.py", "roads_2_2.py"},
		},
		{
			name:  "suffix already taken by an earlier row",
			stems: []string{"roads_2", "roads", "roads"},
			want:  []string{"roads_2.py", "roads.py", "roads_3.py"},
		},
		{
			name:  "names differing only in case",
			stems: []string{"Roads", "roads", "ROADS"},
			want:  []string{"Roads.py", "roads_2.py", "ROADS_3.py"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([]Row, len(tt.stems))
			for i, stem := range tt.stems {
				rows[i] = Row{MapName: stem, TableName: "roads", Line: i + 2}
			}

			artifacts, err := Batch(nil, rows, BatchOptions{Dialect: "pyqgis"})
			require.NoError(t, err)

			got := make([]string, len(artifacts))
			seen := map[string]bool{}
			for i, a := range artifacts {
				got[i] = a.Name
				assert.False(t, seen[strings.ToLower(a.Name)], "duplicate artifact name %q", a.Name)
				seen[strings.ToLower(a.Name)] = true
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBatch_PerDialectExtension(t *testing.T) {
	rows := []Row{{MapName: "Parcels", TableName: "parcels", RendererType: "categorized", Line: 2}}
	for _, d := range target.All() {
		t.Run(string(d), func(t *testing.T) {
			artifacts, err := Batch(codegen.DefaultRegistry, rows, BatchOptions{Dialect: string(d)})
			require.NoError(t, err)
			require.Len(t, artifacts, 1)
			assert.Equal(t, "Parcels"+d.Extension(), artifacts[0].Name)
			assert.NotEmpty(t, artifacts[0].Code)
		})
	}
}

func TestBatch_IgnoredOperationsWarnPerArtifact(t *testing.T) {
	rows := []Row{{MapName: "A", TableName: "a"}, {MapName: "B", TableName: "b"}}
	artifacts, err := Batch(nil, rows, BatchOptions{Dialect: "qgs", Operations: []string{"buffer"}})
	require.NoError(t, err)
	for _, a := range artifacts {
		require.Len(t, a.Warnings, 1)
		assert.Equal(t, codegen.WarningIgnored, a.Warnings[0].Kind)
	}
}

func TestBatch_FailsFast(t *testing.T) {
	rows := []Row{{MapName: "A", TableName: "a"}}

	artifacts, err := Batch(nil, rows, BatchOptions{Dialect: "pyqgis", Operations: []string{"bogus_op"}})
	assert.ErrorIs(t, err, codegen.ErrInvalidOperation)
	assert.Nil(t, artifacts)

	artifacts, err = Batch(nil, rows, BatchOptions{Dialect: "mapinfo"})
	assert.ErrorIs(t, err, codegen.ErrUnknownDialect)
	assert.Nil(t, artifacts)

	// Invalid operations fail even when there is nothing to render
	_, err = Batch(nil, nil, BatchOptions{Dialect: "pyqgis", Operations: []string{"bogus_op"}})
	assert.ErrorIs(t, err, codegen.ErrInvalidOperation)
}

func TestFileStem(t *testing.T) {
	assert.Equal(t, "Roads_Rail", FileStem(Row{MapName: "Roads/Rail"}))
	assert.Equal(t, "roads", FileStem(Row{TableName: "roads"}))
	assert.Equal(t, "layer_4", FileStem(Row{Line: 4}))
	assert.Equal(t, "map_5", FileStem(Row{MapName: "..", Line: 5}))
}
