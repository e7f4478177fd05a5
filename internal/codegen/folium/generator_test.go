package folium

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/schema"
	"github.com/okra-platform/gisgen/internal/testutil"
)

func TestGenerator_Map(t *testing.T) {
	out, err := NewGenerator(target.Options{}).Generate(testutil.Schema(), []string{"buffer"})
	require.NoError(t, err)
	code := string(out)

	assert.Contains(t, code, "# Layer: transit.bus-stops  (POINT, SRID 4326)\n")
	assert.Contains(t, code, "    'SELECT * FROM \"transit\".\"bus-stops\"',\n")
	assert.Contains(t, code, "gdf_bus_stops = gdf_bus_stops.to_crs(epsg=4326)\n")
	assert.Contains(t, code, "_b = gdf_buildings.total_bounds  # [minx, miny, maxx, maxy]\n")
	assert.NotContains(t, code, "buffer")

	// Geometry family picks the default style, colours cycle by layer index
	assert.Contains(t, code, `style_function=lambda _: {"fillColor": "#ff8c00", "color": "#333333", "weight": 1, "fillOpacity": 0.5},`)
	assert.Contains(t, code, `style_function=lambda _: {"color": "#0080ff", "fillColor": "#0080ff", "radius": 5, "fillOpacity": 0.7},`)
	assert.Contains(t, code, `style_function=lambda _: {"color": "#00c864", "weight": 2, "fillOpacity": 0.0},`)
}

func TestGenerator_TooltipAliases(t *testing.T) {
	s := &schema.Schema{Database: "db", Layers: []schema.Layer{{
		Schema:   "public",
		Table:    "parcels",
		Geometry: schema.Geometry{Column: "geom", Type: "POLYGON", SRID: 4326},
		Columns: []schema.Column{
			{Name: "land_use"}, {Name: "owner_name"}, {Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "sixth"},
		},
	}}}

	out, err := NewGenerator(target.Options{}).Generate(s, nil)
	require.NoError(t, err)
	code := string(out)

	assert.Contains(t, code, `        fields=["land_use", "owner_name", "a", "b", "c"],`)
	assert.Contains(t, code, `        aliases=["Land Use", "Owner Name", "A", "B", "C"],`)
	assert.NotContains(t, code, "sixth")
}

func TestGenerator_StyleOverride(t *testing.T) {
	opts := target.Options{Styles: map[string]string{"public.roads": `{"color": "#123456"}`}}
	out, err := NewGenerator(opts).Generate(testutil.Schema(), nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), `style_function=lambda _: {"color": "#123456"},`)
}
