package export

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/okra-platform/gisgen/internal/codegen/script"
	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/codegen/writer"
	"github.com/okra-platform/gisgen/internal/schema"
)

// Generator generates scripts that copy every layer into one GeoPackage
type Generator struct {
	opts target.Options
}

// NewGenerator creates a new GeoPackage export generator
func NewGenerator(opts target.Options) *Generator {
	return &Generator{opts: opts}
}

// Dialect returns the dialect tag
func (g *Generator) Dialect() target.Dialect {
	return target.Export
}

// FileExtension returns the file extension for generated files
func (g *Generator) FileExtension() string {
	return target.Export.Extension()
}

// Generate generates the export script. The first layer creates the
// GeoPackage and later layers append to it. Operations are not rendered.
func (g *Generator) Generate(s *schema.Schema, _ []string) ([]byte, error) {
	if s == nil {
		return nil, schema.ErrNilSchema
	}

	conn := g.opts.ResolveConnection(s)
	n := len(s.Layers)
	w := writer.NewWriter("    ")

	script.WriteHeader(w, script.Header{
		Title:  "Auto-generated PostGIS -> GeoPackage export script",
		Conn:   conn,
		Layers: n,
		Notes:  g.opts.Notes,
		Usage: []string{
			"Install:  pip install geopandas sqlalchemy psycopg2-binary",
			fmt.Sprintf("Run:      python <this_file>.py  ->  %s_export.gpkg", conn.DBName),
		},
	})

	w.WriteLine("import os")
	w.WriteLine("import sys")
	w.WriteLine("from urllib.parse import quote_plus")
	w.WriteLine("import geopandas as gpd")
	w.WriteLine("from sqlalchemy import create_engine")
	w.BlankLine()
	script.WriteConnectionBlock(w, conn, `OUTPUT_GPKG = f"{DB_NAME}_export.gpkg"`)

	w.WriteLinef(`print(f"[export] Writing {OUTPUT_GPKG} (%d layer(s))")`, n)
	w.WriteLine("_ok = 0")
	w.BlankLine()

	for i, layer := range s.Layers {
		g.generateLayer(w, i, n, layer)
	}

	w.WriteLine("engine.dispose()")
	w.WriteLinef(`print(f"\n[DONE] {_ok}/%d layers written to {OUTPUT_GPKG}")`, n)
	w.WriteLinef("if _ok < %d:", n)
	w.WriteLine("    sys.exit(1)")

	return w.Bytes(), nil
}

func (g *Generator) generateLayer(w *writer.Writer, i, n int, layer schema.Layer) {
	v := target.SafeVar(layer.Table)

	rows := "row count unknown"
	if c, ok := layer.RowCount(); ok {
		rows = "~" + humanize.Comma(c) + " rows"
	}
	mode := `"a"`
	if i == 0 {
		mode = `"w"`
	}

	w.WriteRule("=", script.RuleWidth)
	w.WriteComment(fmt.Sprintf("[%d/%d] %s", i+1, n, layer.QualifiedName()))
	w.WriteComment(fmt.Sprintf("    Geometry : %s   SRID: %d   %s", layer.Geometry.Type, layer.Geometry.SRID, rows))
	w.WriteComment("    Fields   : " + script.FieldSummary(layer, target.Export))
	if style := g.opts.Style(layer); style != "" {
		w.WriteLines(style)
	}
	w.WriteRule("=", script.RuleWidth)

	w.WriteLinef(`print(f"[%d/%d] %s ...", end=" ", flush=True)`, i+1, n, script.FStringText(layer.Table))
	w.WriteBlock("try:", "", func() {
		w.WriteLinef("gdf_%s = gpd.read_postgis(", v)
		w.WriteLinef("    %s,", script.SelectAll(layer))
		w.WriteLine("    engine,")
		w.WriteLinef("    geom_col=%s,", script.PyString(layer.Geometry.Column))
		w.WriteLine(")")
		w.WriteComment(fmt.Sprintf("CRS is preserved from PostGIS (SRID %d).", layer.Geometry.SRID))
		w.WriteComment(fmt.Sprintf("To reproject: gdf_%s = gdf_%s.to_crs(epsg=4326)", v, v))
		w.WriteLinef(`gdf_%s.to_file(OUTPUT_GPKG, layer=%s, driver="GPKG", mode=%s)`, v, script.PyString(layer.Table), mode)
		w.WriteLinef(`print(f"OK  ({len(gdf_%s)} rows)")`, v)
		w.WriteLine("_ok += 1")
	})
	w.WriteBlock("except Exception as _e:", "", func() {
		w.WriteLine(`print(f"FAILED  ({_e})", file=sys.stderr)`)
	})
	w.BlankLine()
}
