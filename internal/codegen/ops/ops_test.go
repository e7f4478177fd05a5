package ops

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/schema"
)

// Test plan:
// - The operation set is closed at fifteen names split ten general / five massing
// - Validate rejects unknown names, listing every valid name
// - Every operation renders for both full dialects and for no other
// - Compose keeps caller order and duplicates and collects unsupported names

func testContext() Context {
	return NewContext(schema.Layer{
		Schema:  "public",
		Table:   "city-parcels",
		Columns: []schema.Column{{Name: "zoning", Type: schema.TypeText}},
	})
}

func TestNames_ClosedSet(t *testing.T) {
	names := Names()
	require.Len(t, names, 15)
	assert.Equal(t, "reproject", names[0])
	assert.Equal(t, "scene_layer", names[14])

	groups := map[Group]int{}
	for _, op := range All() {
		groups[op.Group]++
	}
	assert.Equal(t, 10, groups[GroupGeneral])
	assert.Equal(t, 5, groups[GroupMassing])
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(nil))
	assert.NoError(t, Validate([]string{"buffer", "extrude", "buffer"}))

	err := Validate([]string{"buffer", "bogus_op", "teleport", "bogus_op"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	var invalid *InvalidOperationError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, []string{"bogus_op", "teleport"}, invalid.Names)

	for _, name := range Names() {
		assert.Contains(t, err.Error(), name)
	}
}

func TestDefaultRegistry_Coverage(t *testing.T) {
	// Test: both full dialects render all fifteen operations; no other dialect renders any
	ctx := testContext()
	for _, name := range Names() {
		assert.Equal(t, []target.Dialect{target.ArcPy, target.PyQGIS}, DefaultRegistry.Dialects(name), name)

		for _, d := range []target.Dialect{target.PyQGIS, target.ArcPy} {
			text, err := DefaultRegistry.Render(name, d, ctx)
			require.NoError(t, err, "%s/%s", name, d)
			assert.NotEmpty(t, text)
			assert.NotContains(t, text, "{{", "%s/%s", name, d)
			assert.NotContains(t, text, "<no value>")
		}
	}

	_, err := DefaultRegistry.Render("buffer", target.Folium, ctx)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestRender_SubstitutesContext(t *testing.T) {
	ctx := testContext()
	assert.Equal(t, "city_parcels", ctx.Var)
	assert.Equal(t, "zoning", ctx.FirstColumn)

	text, err := DefaultRegistry.Render("select", target.PyQGIS, ctx)
	require.NoError(t, err)
	assert.Contains(t, text, `lyr_city_parcels.selectByExpression('"zoning" IS NOT NULL')`)

	text, err = DefaultRegistry.Render("select", target.ArcPy, ctx)
	require.NoError(t, err)
	assert.Contains(t, text, `"city-parcels_sel"`)
	assert.Contains(t, text, `"zoning IS NOT NULL"`)

	text, err = DefaultRegistry.Render("extrude", target.PyQGIS, ctx)
	require.NoError(t, err)
	assert.Contains(t, text, `print(f"  3D extrusion applied using '{_HEIGHT_FIELD_city_parcels}'")`)
}

func TestRender_QuotesNames(t *testing.T) {
	// Test: names with quotes and braces stay inside their string literals
	ctx := NewContext(schema.Layer{
		Schema:  "public",
		Table:   `odd{name}'s "t"`,
		Columns: []schema.Column{{Name: `my "col"`}},
	})

	text, err := DefaultRegistry.Render("export", target.PyQGIS, ctx)
	require.NoError(t, err)
	assert.Contains(t, text, `f"/tmp/odd{{name}}'s \"t\".geojson"`)

	text, err = DefaultRegistry.Render("select", target.PyQGIS, ctx)
	require.NoError(t, err)
	assert.Contains(t, text, `selectByExpression('"my ""col""" IS NOT NULL')`)

	text, err = DefaultRegistry.Render("select", target.ArcPy, ctx)
	require.NoError(t, err)
	assert.Contains(t, text, `"odd{name}'s \"t\"_sel"`)
	assert.Contains(t, text, `"my \"col\" IS NOT NULL"`)
}

func TestRender_FirstColumnFallback(t *testing.T) {
	ctx := NewContext(schema.Layer{Schema: "public", Table: "empty"})
	text, err := DefaultRegistry.Render("select", target.ArcPy, ctx)
	require.NoError(t, err)
	assert.Contains(t, text, `"field_name IS NOT NULL"`)
}

func TestCompose(t *testing.T) {
	ctx := testContext()

	tests := []struct {
		name        string
		ops         []string
		dialect     target.Dialect
		wantOps     []string
		unsupported []string
	}{
		{
			name:    "caller order preserved",
			ops:     []string{"clip", "buffer", "reproject"},
			dialect: target.PyQGIS,
			wantOps: []string{"clip", "buffer", "reproject"},
		},
		{
			name:    "duplicates render twice",
			ops:     []string{"buffer", "buffer"},
			dialect: target.ArcPy,
			wantOps: []string{"buffer", "buffer"},
		},
		{
			name:        "visualization dialect collects unsupported once",
			ops:         []string{"buffer", "extrude", "buffer"},
			dialect:     target.Kepler,
			unsupported: []string{"buffer", "extrude"},
		},
		{
			name:    "empty",
			dialect: target.PyQGIS,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp, err := DefaultRegistry.Compose(tt.ops, tt.dialect, ctx)
			require.NoError(t, err)

			var got []string
			for _, f := range comp.Fragments {
				got = append(got, f.Operation)
			}
			assert.Equal(t, tt.wantOps, got)
			assert.Equal(t, tt.unsupported, comp.Unsupported)
		})
	}
}

func TestCompose_InvalidFailsBeforeRendering(t *testing.T) {
	comp, err := DefaultRegistry.Compose([]string{"buffer", "bogus_op"}, target.PyQGIS, testContext())
	assert.ErrorIs(t, err, ErrInvalidOperation)
	assert.Empty(t, comp.Fragments)
}

func TestRegistry_PartialTable(t *testing.T) {
	// Test: a registry missing an entry reports it as unsupported instead of failing
	r := NewRegistry()
	require.NoError(t, r.Register("buffer", target.PyQGIS, "buffer {{.Var}}\n"))

	comp, err := r.Compose([]string{"buffer", "clip"}, target.PyQGIS, Context{Var: "roads"})
	require.NoError(t, err)
	require.Len(t, comp.Fragments, 1)
	assert.Equal(t, "buffer roads\n", comp.Fragments[0].Text)
	assert.Equal(t, []string{"clip"}, comp.Unsupported)
	assert.False(t, r.Supports("clip", target.PyQGIS))
}

func TestRegistry_RegisterErrors(t *testing.T) {
	r := NewRegistry()
	assert.ErrorIs(t, r.Register("teleport", target.PyQGIS, "x"), ErrInvalidOperation)

	err := r.Register("buffer", target.PyQGIS, "{{.Var")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to parse template"))
}
