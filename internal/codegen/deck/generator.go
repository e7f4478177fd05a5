package deck

import (
	"fmt"

	"github.com/okra-platform/gisgen/internal/codegen/script"
	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/codegen/writer"
	"github.com/okra-platform/gisgen/internal/schema"
)

// Generator generates pydeck (deck.gl) web map scripts
type Generator struct {
	opts target.Options
}

// NewGenerator creates a new pydeck generator
func NewGenerator(opts target.Options) *Generator {
	return &Generator{opts: opts}
}

// Dialect returns the dialect tag
func (g *Generator) Dialect() target.Dialect {
	return target.Deck
}

// FileExtension returns the file extension for generated files
func (g *Generator) FileExtension() string {
	return target.Deck.Extension()
}

// Generate generates a pydeck script with a ScatterplotLayer for point
// layers and a GeoJsonLayer otherwise. Operations are not rendered.
func (g *Generator) Generate(s *schema.Schema, _ []string) ([]byte, error) {
	if s == nil {
		return nil, schema.ErrNilSchema
	}

	conn := g.opts.ResolveConnection(s)
	w := writer.NewWriter("    ")

	script.WriteHeader(w, script.Header{
		Title:  "Auto-generated pydeck (deck.gl) web map",
		Conn:   conn,
		Layers: len(s.Layers),
		Notes:  g.opts.Notes,
		Usage: []string{
			"Install:  pip install geopandas pydeck sqlalchemy psycopg2-binary",
			"Run:      python <this_file>.py  ->  writes deck_map.html",
		},
	})

	w.WriteLine("import os")
	w.WriteLine("import json")
	w.WriteLine("from urllib.parse import quote_plus")
	w.WriteLine("import geopandas as gpd")
	w.WriteLine("import pydeck as pdk")
	w.WriteLine("from sqlalchemy import create_engine")
	w.BlankLine()
	script.WriteConnectionBlock(w, conn, `OUTPUT_HTML = "deck_map.html"`)

	w.WriteLine("_deck_layers = []")
	w.BlankLine()

	for i, layer := range s.Layers {
		g.generateLayer(w, i, layer)
	}

	if len(s.Layers) > 0 {
		w.WriteLinef("_b = gdf_%s.total_bounds", target.SafeVar(s.Layers[0].Table))
		w.WriteLine("_cx, _cy = (_b[0] + _b[2]) / 2, (_b[1] + _b[3]) / 2")
	} else {
		w.WriteLine("_cx, _cy = 0.0, 0.0")
	}
	w.BlankLine()
	w.WriteBlock("_view = pdk.ViewState(", ")", func() {
		w.WriteLine("latitude=_cy,")
		w.WriteLine("longitude=_cx,")
		w.WriteLine("zoom=12,")
		w.WriteLine("pitch=0,  # 45 gives a 3D view when extrusion is enabled")
	})
	w.BlankLine()
	w.WriteBlock("r = pdk.Deck(", ")", func() {
		w.WriteLine("layers=_deck_layers,")
		w.WriteLine("initial_view_state=_view,")
		w.WriteLine(`map_style="light",`)
	})
	w.WriteLine("r.to_html(OUTPUT_HTML)")
	w.WriteLine(`print(f"[OK] pydeck map saved to {OUTPUT_HTML}")`)

	return w.Bytes(), nil
}

func (g *Generator) generateLayer(w *writer.Writer, i int, layer schema.Layer) {
	v := target.SafeVar(layer.Table)
	height, hasHeight := script.HeightField(layer)

	fill := g.opts.Style(layer)
	if fill == "" {
		fill = script.PaletteColor(i).RGBAList()
	}

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
	w.WriteLinef("gdf_%s = gdf_%s.to_crs(epsg=4326)", v, v)
	w.WriteLinef(`print(f"[OK] %s: {len(gdf_%s)} features")`, script.FStringText(layer.Table), v)
	w.BlankLine()

	w.WriteBlock(fmt.Sprintf("_lyr_%s = pdk.Layer(", v), ")", func() {
		if script.Family(layer.Geometry.Type) == script.FamilyPoint {
			w.WriteLine(`"ScatterplotLayer",`)
			w.WriteLinef(`data=json.loads(gdf_%s.to_json())["features"],`, v)
			w.WriteLine(`get_position="geometry.coordinates",`)
			w.WriteLinef("get_fill_color=%s,", fill)
			w.WriteLine("get_radius=50,")
			w.WriteLine("radius_min_pixels=3,")
			w.WriteLine("pickable=True,")
			return
		}

		w.WriteLine(`"GeoJsonLayer",`)
		w.WriteLinef("data=json.loads(gdf_%s.to_json()),", v)
		w.WriteLinef("get_fill_color=%s,", fill)
		w.WriteLine("get_line_color=[50, 50, 50, 200],")
		w.WriteLine("line_width_min_pixels=1,")
		w.WriteLine("pickable=True,")
		if hasHeight {
			w.WriteComment("3D extrusion, uncomment to enable:")
			w.WriteComment("extruded=True,")
			w.WriteComment(fmt.Sprintf(`get_elevation="properties.%s",`, height))
			w.WriteComment("elevation_scale=1,")
		}
	})
	w.WriteLinef("_deck_layers.append(_lyr_%s)", v)
	w.BlankLine()
}
