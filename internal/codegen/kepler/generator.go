package kepler

import (
	"fmt"

	"github.com/okra-platform/gisgen/internal/codegen/script"
	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/codegen/writer"
	"github.com/okra-platform/gisgen/internal/schema"
)

// Generator generates Kepler.gl web map scripts
type Generator struct {
	opts target.Options
}

// NewGenerator creates a new Kepler.gl generator
func NewGenerator(opts target.Options) *Generator {
	return &Generator{opts: opts}
}

// Dialect returns the dialect tag
func (g *Generator) Dialect() target.Dialect {
	return target.Kepler
}

// FileExtension returns the file extension for generated files
func (g *Generator) FileExtension() string {
	return target.Kepler.Extension()
}

// Generate generates a script adding every layer to a KeplerGl map.
// Operations are not rendered.
func (g *Generator) Generate(s *schema.Schema, _ []string) ([]byte, error) {
	if s == nil {
		return nil, schema.ErrNilSchema
	}

	conn := g.opts.ResolveConnection(s)
	w := writer.NewWriter("    ")

	script.WriteHeader(w, script.Header{
		Title:  "Auto-generated Kepler.gl web map",
		Conn:   conn,
		Layers: len(s.Layers),
		Notes:  g.opts.Notes,
		Usage: []string{
			"Install:  pip install geopandas keplergl sqlalchemy psycopg2-binary",
			"Run:      python <this_file>.py  ->  writes kepler_map.html",
			"          (or display map_k in a Jupyter cell to render inline)",
		},
	})

	w.WriteLine("import os")
	w.WriteLine("from urllib.parse import quote_plus")
	w.WriteLine("import geopandas as gpd")
	w.WriteLine("from keplergl import KeplerGl")
	w.WriteLine("from sqlalchemy import create_engine")
	w.BlankLine()
	script.WriteConnectionBlock(w, conn, `OUTPUT_HTML = "kepler_map.html"`)

	w.WriteLine("map_k = KeplerGl(height=600)")
	w.BlankLine()

	for _, layer := range s.Layers {
		g.generateLayer(w, layer)
	}

	w.WriteLine("map_k.save_to_html(file_name=OUTPUT_HTML)")
	w.WriteLine(`print(f"[OK] Kepler map saved to {OUTPUT_HTML}")`)

	return w.Bytes(), nil
}

func (g *Generator) generateLayer(w *writer.Writer, layer schema.Layer) {
	v := target.SafeVar(layer.Table)
	height, hasHeight := script.HeightField(layer)

	var extra []string
	if hasHeight {
		extra = append(extra, fmt.Sprintf(`3D height field detected: "%s"`, height))
	}
	script.WriteShortBanner(w, layer, extra...)

	w.WriteLinef("gdf_%s = gpd.read_postgis(", v)
	w.WriteLinef("    %s,", script.SelectAll(layer))
	w.WriteLine("    engine,")
	w.WriteLinef("    geom_col=%s,", script.PyString(layer.Geometry.Column))
	w.WriteLine(")")
	w.WriteLinef(`print(f"[OK] %s: {len(gdf_%s)} features")`, script.FStringText(layer.Table), v)
	w.WriteLinef("map_k.add_data(data=gdf_%s, name=%s)", v, script.PyString(layer.Table))

	if style := g.opts.Style(layer); style != "" {
		w.WriteLines(style)
	}
	if hasHeight {
		w.WriteComment(fmt.Sprintf("3D tip: in the Kepler UI open Layers > %s,", layer.Table))
		w.WriteComment(fmt.Sprintf(`  enable "3D buildings" and set the height field to "%s"`, height))
	}
	w.BlankLine()
}
