package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okra-platform/gisgen/internal/codegen"
	"github.com/okra-platform/gisgen/internal/config"
	"github.com/okra-platform/gisgen/internal/schema"
	"github.com/okra-platform/gisgen/internal/testutil"
)

// Test plan for Generate command:
// 1. Test code goes to stdout, or to --output with parents created
// 2. Test the schema file's own host and database win unless overridden
// 3. Test config defaults fill unset flags
// 4. Test namespace and layer filters
// 5. Test layouts select tables, set per-layer operations and warn on missing tables
// 6. Test --list-layers and --save-schema
// 7. Test operation warnings are logged, invalid operations write nothing
//    and fail before the schema is saved or the database is contacted
// 8. Test missing platform and missing password errors

type testController struct {
	*Controller
	stdout *bytes.Buffer
	logs   *bytes.Buffer
	dir    string
}

// newTestController isolates config discovery and the environment
func newTestController(t *testing.T, env map[string]string) *testController {
	t.Helper()
	t.Setenv(config.EnvConfig, "")
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	prevWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prevWD) })

	stdout := &bytes.Buffer{}
	logs := &bytes.Buffer{}
	logger := zerolog.New(logs)
	return &testController{
		Controller: &Controller{
			Flags:  &Flags{},
			Stdout: stdout,
			Getenv: func(key string) string { return env[key] },
			Logger: &logger,
		},
		stdout: stdout,
		logs:   logs,
		dir:    dir,
	}
}

func TestController_Generate_Stdout(t *testing.T) {
	// Test: pyqgis script for every layer, connection taken from the schema
	tc := newTestController(t, nil)

	err := tc.Generate(context.Background(), GenerateOptions{
		SchemaFile: testutil.WriteSchema(t, testutil.Schema()),
		Platform:   "pyqgis",
	})
	require.NoError(t, err)

	out := tc.stdout.String()
	assert.Contains(t, out, `DB_HOST     = "db.example.org"`)
	assert.Contains(t, out, `DB_NAME     = "city_gis"`)
	assert.Contains(t, out, `DB_PORT     = 5432`)
	assert.Contains(t, out, "uri_buildings")
	assert.Contains(t, out, "uri_bus_stops")
	assert.Contains(t, out, "uri_roads")
	assert.Contains(t, tc.logs.String(), `"message":"schema loaded"`)
}

func TestController_Generate_ConnectionOverride(t *testing.T) {
	// Test: explicit flags beat the schema's host and database
	tc := newTestController(t, nil)

	err := tc.Generate(context.Background(), GenerateOptions{
		SchemaFile: testutil.WriteSchema(t, testutil.Schema()),
		Platform:   "pyqgis",
		Connection: config.Database{Host: "replica.internal", Port: 6432},
	})
	require.NoError(t, err)

	out := tc.stdout.String()
	assert.Contains(t, out, `DB_HOST     = "replica.internal"`)
	assert.Contains(t, out, `DB_PORT     = 6432`)
	assert.Contains(t, out, `DB_NAME     = "city_gis"`)
}

func TestController_Generate_OutputFile(t *testing.T) {
	// Test: --output creates parent directories and leaves stdout empty
	tc := newTestController(t, nil)
	out := filepath.Join(tc.dir, "scripts", "city.py")

	err := tc.Generate(context.Background(), GenerateOptions{
		SchemaFile: testutil.WriteSchema(t, testutil.Schema()),
		Platform:   "arcpy",
		Output:     out,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "import arcpy")
	assert.Empty(t, tc.stdout.String())
	assert.Contains(t, tc.logs.String(), `"message":"script written"`)
}

func TestController_Generate_ConfigDefaults(t *testing.T) {
	// Test: platform, schema filter and output come from gisgen.yaml
	tc := newTestController(t, nil)
	cfg := &config.Config{
		Database: config.Database{User: "analyst"},
		Defaults: config.Defaults{Platform: "arcpy", SchemaFilter: "transit", Output: "from_config.py"},
	}
	require.NoError(t, cfg.Save(filepath.Join(tc.dir, config.FileName)))

	err := tc.Generate(context.Background(), GenerateOptions{
		SchemaFile: testutil.WriteSchema(t, testutil.Schema()),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(tc.dir, "from_config.py"))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "import arcpy")
	assert.Contains(t, out, `DB_USER     = "analyst"`)
	assert.Contains(t, out, "bus-stops")
	assert.NotContains(t, out, "buildings")
	assert.Contains(t, tc.logs.String(), `"message":"using config"`)
}

func TestController_Generate_Filters(t *testing.T) {
	tests := []struct {
		name      string
		opts      GenerateOptions
		contains  []string
		excludes  []string
		errSubstr string
	}{
		{
			name:     "namespace filter",
			opts:     GenerateOptions{SchemaFilter: "public"},
			contains: []string{"uri_buildings", "uri_roads"},
			excludes: []string{"uri_bus_stops"},
		},
		{
			name:     "layer filter",
			opts:     GenerateOptions{Layers: []string{"public.roads"}},
			contains: []string{"uri_roads"},
			excludes: []string{"uri_buildings", "uri_bus_stops"},
		},
		{
			name:      "namespace without layers",
			opts:      GenerateOptions{SchemaFilter: "archive"},
			errSubstr: "--list-layers",
		},
		{
			name:      "unknown layer",
			opts:      GenerateOptions{Layers: []string{"public.rivers"}},
			errSubstr: schema.ErrNoLayersMatched.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestController(t, nil)
			opts := tt.opts
			opts.SchemaFile = testutil.WriteSchema(t, testutil.Schema())
			opts.Platform = "pyqgis"

			err := tc.Generate(context.Background(), opts)
			if tt.errSubstr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errSubstr)
				assert.Empty(t, tc.stdout.String())
				return
			}
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, tc.stdout.String(), s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, tc.stdout.String(), s)
			}
		})
	}
}

func TestController_Generate_Layout(t *testing.T) {
	// Test: layout picks tables, platform and output; missing tables warn
	tc := newTestController(t, nil)
	layoutFile := testutil.WriteFile(t, "layout.yaml", `
name: overview
platform: pyqgis
output: overview.py
layers:
  - table: public.buildings
    operations: [centroid]
  - table: public.rivers
`)

	err := tc.Generate(context.Background(), GenerateOptions{
		SchemaFile: testutil.WriteSchema(t, testutil.Schema()),
		Layout:     layoutFile,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(tc.dir, "overview.py"))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "uri_buildings")
	assert.NotContains(t, out, "uri_roads")
	assert.Contains(t, out, "native:centroids")

	logs := tc.logs.String()
	assert.Contains(t, logs, "layout table not found in schema; skipped")
	assert.Contains(t, logs, `"table":"public.rivers"`)
}

func TestController_Generate_ListLayers(t *testing.T) {
	// Test: --list-layers prints the table and generates nothing
	tc := newTestController(t, nil)

	err := tc.Generate(context.Background(), GenerateOptions{
		SchemaFile: testutil.WriteSchema(t, testutil.Schema()),
		ListLayers: true,
	})
	require.NoError(t, err)

	out := tc.stdout.String()
	assert.Contains(t, out, "LAYER")
	assert.Contains(t, out, "public.buildings")
	assert.Contains(t, out, "~48,213")
	assert.Contains(t, out, "unknown")
	assert.Contains(t, out, "3 layer(s) in city_gis")
	assert.NotContains(t, out, "QgsDataSourceUri")
}

func TestController_Generate_SaveSchema(t *testing.T) {
	// Test: the filtered schema is saved and loads back
	tc := newTestController(t, nil)
	saved := filepath.Join(tc.dir, "saved", "schema.json")

	err := tc.Generate(context.Background(), GenerateOptions{
		SchemaFile:   testutil.WriteSchema(t, testutil.Schema()),
		Platform:     "folium",
		SchemaFilter: "transit",
		SaveSchema:   saved,
	})
	require.NoError(t, err)

	s, err := schema.LoadFile(saved)
	require.NoError(t, err)
	require.Len(t, s.Layers, 1)
	assert.Equal(t, "transit.bus-stops", s.Layers[0].QualifiedName())
	assert.Equal(t, "city_gis", s.Database)
}

func TestController_Generate_Warnings(t *testing.T) {
	// Test: operations on a dialect without operations are logged, not fatal
	tc := newTestController(t, nil)

	err := tc.Generate(context.Background(), GenerateOptions{
		SchemaFile: testutil.WriteSchema(t, testutil.Schema()),
		Platform:   "qgs",
		Operations: []string{"buffer"},
	})
	require.NoError(t, err)

	assert.Contains(t, tc.stdout.String(), "<qgis")
	logs := tc.logs.String()
	assert.Contains(t, logs, `"level":"warn"`)
	assert.Contains(t, logs, `"operation":"buffer"`)
	assert.Contains(t, logs, "ignored")
}

func TestController_Generate_Errors(t *testing.T) {
	schemaFile := func(t *testing.T) string { return testutil.WriteSchema(t, testutil.Schema()) }

	t.Run("no platform", func(t *testing.T) {
		tc := newTestController(t, nil)
		err := tc.Generate(context.Background(), GenerateOptions{SchemaFile: schemaFile(t)})
		assert.ErrorIs(t, err, ErrNoPlatform)
	})

	t.Run("unknown platform", func(t *testing.T) {
		tc := newTestController(t, nil)
		err := tc.Generate(context.Background(), GenerateOptions{SchemaFile: schemaFile(t), Platform: "mapinfo"})
		assert.ErrorIs(t, err, codegen.ErrUnknownDialect)
	})

	t.Run("invalid operation writes nothing", func(t *testing.T) {
		tc := newTestController(t, nil)
		out := filepath.Join(tc.dir, "never.py")
		err := tc.Generate(context.Background(), GenerateOptions{
			SchemaFile: schemaFile(t),
			Platform:   "pyqgis",
			Operations: []string{"teleport"},
			Output:     out,
		})
		assert.ErrorIs(t, err, codegen.ErrInvalidOperation)
		assert.NoFileExists(t, out)
	})

	t.Run("invalid operation saves no schema", func(t *testing.T) {
		tc := newTestController(t, nil)
		saved := filepath.Join(tc.dir, "saved", "schema.json")
		out := filepath.Join(tc.dir, "never.py")
		err := tc.Generate(context.Background(), GenerateOptions{
			SchemaFile: schemaFile(t),
			Platform:   "pyqgis",
			Operations: []string{"bogus_op"},
			SaveSchema: saved,
			Output:     out,
		})
		assert.ErrorIs(t, err, codegen.ErrInvalidOperation)
		assert.NoFileExists(t, saved)
		assert.NoFileExists(t, out)
		assert.NotContains(t, tc.logs.String(), "schema loaded")
	})

	t.Run("invalid layout operation saves no schema", func(t *testing.T) {
		tc := newTestController(t, nil)
		saved := filepath.Join(tc.dir, "schema.json")
		layoutFile := testutil.WriteFile(t, "layout.yaml", `
platform: pyqgis
layers:
  - table: public.buildings
    operations: [centroid, bogus_op]
`)
		err := tc.Generate(context.Background(), GenerateOptions{
			SchemaFile: schemaFile(t),
			Layout:     layoutFile,
			SaveSchema: saved,
		})
		assert.ErrorIs(t, err, codegen.ErrInvalidOperation)
		assert.Contains(t, err.Error(), "bogus_op")
		assert.NoFileExists(t, saved)
	})

	t.Run("invalid operation fails before connecting", func(t *testing.T) {
		// No password is set; an ordering bug would surface ErrNoPassword
		tc := newTestController(t, map[string]string{"PGHOST": "db.internal"})
		err := tc.Generate(context.Background(), GenerateOptions{
			Platform:   "pyqgis",
			Operations: []string{"bogus_op"},
		})
		assert.ErrorIs(t, err, codegen.ErrInvalidOperation)
		assert.NotErrorIs(t, err, config.ErrNoPassword)
	})

	t.Run("unknown platform fails before connecting", func(t *testing.T) {
		tc := newTestController(t, map[string]string{"PGHOST": "db.internal"})
		err := tc.Generate(context.Background(), GenerateOptions{Platform: "mapinfo"})
		assert.ErrorIs(t, err, codegen.ErrUnknownDialect)
	})

	t.Run("missing schema file", func(t *testing.T) {
		tc := newTestController(t, nil)
		err := tc.Generate(context.Background(), GenerateOptions{
			SchemaFile: filepath.Join(t.TempDir(), "missing.json"),
			Platform:   "pyqgis",
		})
		require.Error(t, err)
	})

	t.Run("live mode without password", func(t *testing.T) {
		tc := newTestController(t, map[string]string{"PGHOST": "db.internal"})
		err := tc.Generate(context.Background(), GenerateOptions{Platform: "pyqgis"})
		assert.ErrorIs(t, err, config.ErrNoPassword)
	})
}

func TestMergeExplicit(t *testing.T) {
	// Test: flags win over the config file, unset fields stay empty
	got := mergeExplicit(
		config.Database{Host: "flag-host"},
		config.Database{Host: "file-host", Port: 6543, User: "file-user"},
	)
	assert.Equal(t, "flag-host", got.Host)
	assert.Equal(t, 6543, got.Port)
	assert.Equal(t, "file-user", got.User)
	assert.Empty(t, got.DBName)
}
