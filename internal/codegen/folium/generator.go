package folium

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/okra-platform/gisgen/internal/codegen/script"
	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/codegen/writer"
	"github.com/okra-platform/gisgen/internal/schema"
)

const tooltipFields = 5

// Generator generates Folium (Leaflet) web map scripts
type Generator struct {
	opts  target.Options
	title cases.Caser
}

// NewGenerator creates a new Folium generator
func NewGenerator(opts target.Options) *Generator {
	return &Generator{opts: opts, title: cases.Title(language.Und)}
}

// Dialect returns the dialect tag
func (g *Generator) Dialect() target.Dialect {
	return target.Folium
}

// FileExtension returns the file extension for generated files
func (g *Generator) FileExtension() string {
	return target.Folium.Extension()
}

// Generate generates a script that reads each layer with geopandas and
// renders it on a Leaflet map. Operations are not rendered.
func (g *Generator) Generate(s *schema.Schema, _ []string) ([]byte, error) {
	if s == nil {
		return nil, schema.ErrNilSchema
	}

	conn := g.opts.ResolveConnection(s)
	w := writer.NewWriter("    ")

	script.WriteHeader(w, script.Header{
		Title:  "Auto-generated Folium (Leaflet) web map",
		Conn:   conn,
		Layers: len(s.Layers),
		Notes:  g.opts.Notes,
		Usage: []string{
			"Install:  pip install geopandas folium sqlalchemy psycopg2-binary",
			"Run:      python <this_file>.py  ->  writes map.html",
		},
	})

	w.WriteLine("import os")
	w.WriteLine("from urllib.parse import quote_plus")
	w.WriteLine("import geopandas as gpd")
	w.WriteLine("import folium")
	w.WriteLine("from sqlalchemy import create_engine")
	w.BlankLine()
	script.WriteConnectionBlock(w, conn, `OUTPUT_HTML = "map.html"`)

	for _, layer := range s.Layers {
		v := target.SafeVar(layer.Table)
		script.WriteShortBanner(w, layer)
		w.WriteLinef("gdf_%s = gpd.read_postgis(", v)
		w.WriteLinef("    %s,", script.SelectAll(layer))
		w.WriteLine("    engine,")
		w.WriteLinef("    geom_col=%s,", script.PyString(layer.Geometry.Column))
		w.WriteLine(")")
		w.WriteLinef("gdf_%s = gdf_%s.to_crs(epsg=4326)", v, v)
		w.WriteLinef(`print(f"[OK] %s: {len(gdf_%s)} features")`, script.FStringText(layer.Table), v)
		w.BlankLine()
	}

	w.WriteComment("--- Build map ---")
	if len(s.Layers) > 0 {
		w.WriteLinef("_b = gdf_%s.total_bounds  # [minx, miny, maxx, maxy]", target.SafeVar(s.Layers[0].Table))
		w.WriteLine("_cx, _cy = (_b[0] + _b[2]) / 2, (_b[1] + _b[3]) / 2")
	} else {
		w.WriteLine("_cx, _cy = 0.0, 0.0")
	}
	w.BlankLine()
	w.WriteLine(`m = folium.Map(location=[_cy, _cx], zoom_start=12, tiles="CartoDB positron")`)
	w.BlankLine()

	for i, layer := range s.Layers {
		g.addLayer(w, i, layer)
	}

	w.WriteLine("folium.LayerControl(collapsed=False).add_to(m)")
	w.WriteLine("m.save(OUTPUT_HTML)")
	w.WriteLine(`print(f"[OK] Map saved to {OUTPUT_HTML}")`)

	return w.Bytes(), nil
}

func (g *Generator) addLayer(w *writer.Writer, i int, layer schema.Layer) {
	v := target.SafeVar(layer.Table)
	style := g.opts.Style(layer)
	if style == "" {
		style = defaultStyle(layer.Geometry.Type, script.PaletteColor(i).Hex)
	}

	fields := script.ColumnNames(layer, tooltipFields)

	w.WriteBlock("folium.GeoJson(", ").add_to(m)", func() {
		w.WriteLinef("gdf_%s.__geo_interface__,", v)
		w.WriteLinef("name=%s,", script.PyString(layer.Table))
		w.WriteLinef("style_function=lambda _: %s,", style)
		if len(fields) > 0 {
			w.WriteBlock("tooltip=folium.GeoJsonTooltip(", "),", func() {
				w.WriteLinef("fields=%s,", script.PyList(fields))
				w.WriteLinef("aliases=%s,", script.PyList(g.aliases(fields)))
				w.WriteLine("sticky=True,")
			})
		}
	})
	w.BlankLine()
}

// aliases turns column names like "land_use" into "Land Use"
func (g *Generator) aliases(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = g.title.String(strings.ReplaceAll(f, "_", " "))
	}
	return out
}

func defaultStyle(geomType, hex string) string {
	switch script.Family(geomType) {
	case script.FamilyLine:
		return fmt.Sprintf(`{"color": "%s", "weight": 2, "fillOpacity": 0.0}`, hex)
	case script.FamilyPoint:
		return fmt.Sprintf(`{"color": "%s", "fillColor": "%s", "radius": 5, "fillOpacity": 0.7}`, hex, hex)
	default:
		return fmt.Sprintf(`{"fillColor": "%s", "color": "#333333", "weight": 1, "fillOpacity": 0.5}`, hex)
	}
}
