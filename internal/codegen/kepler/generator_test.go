package kepler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/testutil"
)

func TestGenerator_Map(t *testing.T) {
	g := NewGenerator(target.Options{})
	assert.Equal(t, target.Kepler, g.Dialect())

	out, err := g.Generate(testutil.Schema(), nil)
	require.NoError(t, err)
	code := string(out)

	assert.Contains(t, code, "map_k = KeplerGl(height=600)\n")
	assert.Contains(t, code, "map_k.add_data(data=gdf_bus_stops, name=\"bus-stops\")\n")
	assert.Contains(t, code, "DB_PASSWORD = os.environ[\"PGPASSWORD\"]\n")
	assert.Contains(t, code, "OUTPUT_HTML = \"kepler_map.html\"\n")
}

func TestGenerator_HeightHint(t *testing.T) {
	out, err := NewGenerator(target.Options{}).Generate(testutil.Schema(), nil)
	require.NoError(t, err)
	code := string(out)

	assert.Contains(t, code, "# 3D height field detected: \"height\"\n")
	assert.Contains(t, code, "#   enable \"3D buildings\" and set the height field to \"height\"\n")
	// Only buildings carries a height column
	assert.Equal(t, 1, strings.Count(code, "3D height field detected"))
}
