// Package testutil provides shared schema fixtures for generator and command tests
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/okra-platform/gisgen/internal/schema"
)

func rows(n int64) *int64 { return &n }

// Schema returns a three-layer schema covering polygon, point and line
// geometry, a hyphenated table name, a height column and an unknown row count
func Schema() *schema.Schema {
	return &schema.Schema{
		Database: "city_gis",
		Host:     "db.example.org",
		Layers: []schema.Layer{
			{
				Schema:   "public",
				Table:    "buildings",
				Geometry: schema.Geometry{Column: "geom", Type: "MULTIPOLYGON", SRID: 27700},
				Columns: []schema.Column{
					{Name: "id", Type: schema.TypeInteger, DataType: "integer"},
					{Name: "name", Type: schema.TypeText, DataType: "text", Nullable: true},
					{Name: "height", Type: schema.TypeFloat, DataType: "double precision", Nullable: true},
					{Name: "built", Type: schema.TypeDate, DataType: "date", Nullable: true},
				},
				PrimaryKeys:      []string{"id"},
				Comment:          "Building footprints",
				RowCountEstimate: rows(48213),
			},
			{
				Schema:   "transit",
				Table:    "bus-stops",
				Geometry: schema.Geometry{Column: "location", Type: "POINT", SRID: 4326},
				Columns: []schema.Column{
					{Name: "stop_id", Type: schema.TypeText, DataType: "character varying"},
					{Name: "sheltered", Type: schema.TypeBoolean, DataType: "boolean"},
				},
				PrimaryKeys:      []string{"stop_id"},
				RowCountEstimate: rows(912),
			},
			{
				Schema:   "public",
				Table:    "roads",
				Geometry: schema.Geometry{Column: "geom", Type: "MULTILINESTRING", SRID: 4326},
				Columns: []schema.Column{
					{Name: "gid", Type: schema.TypeInteger, DataType: "bigint"},
					{Name: "surveyed_at", Type: schema.TypeTimestamp, DataType: "timestamp with time zone"},
					{Name: "shape_meta", Type: schema.TypeOther, DataType: "xml"},
				},
			},
		},
	}
}

// Empty returns a schema with no layers
func Empty() *schema.Schema {
	return &schema.Schema{Database: "empty_db", Host: "localhost"}
}

// WriteSchema marshals s into a temp file and returns its path
func WriteSchema(t *testing.T, s *schema.Schema) string {
	t.Helper()
	data, err := schema.Marshal(s)
	if err != nil {
		t.Fatalf("failed to marshal schema: %v", err)
	}
	return WriteFile(t, "schema.json", string(data))
}

// WriteFile writes content into a file inside a fresh temp dir
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
