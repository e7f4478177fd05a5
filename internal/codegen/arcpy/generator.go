package arcpy

import (
	"fmt"

	"github.com/okra-platform/gisgen/internal/codegen/ops"
	"github.com/okra-platform/gisgen/internal/codegen/script"
	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/codegen/writer"
	"github.com/okra-platform/gisgen/internal/layout"
	"github.com/okra-platform/gisgen/internal/schema"
)

// Generator generates ArcPy scripts that read layers through an .sde connection
type Generator struct {
	opts target.Options
	ops  *ops.Registry
}

// NewGenerator creates a new ArcPy generator
func NewGenerator(opts target.Options) *Generator {
	return &Generator{opts: opts, ops: ops.DefaultRegistry}
}

// WithOperations swaps the operation template table
func (g *Generator) WithOperations(r *ops.Registry) *Generator {
	g.ops = r
	return g
}

// Dialect returns the dialect tag
func (g *Generator) Dialect() target.Dialect {
	return target.ArcPy
}

// FileExtension returns the file extension for generated files
func (g *Generator) FileExtension() string {
	return target.ArcPy.Extension()
}

// SupportsOperation reports whether name has an ArcPy template
func (g *Generator) SupportsOperation(name string) bool {
	return g.ops.Supports(name, target.ArcPy)
}

// Generate generates an ArcPy script for every layer of the schema
func (g *Generator) Generate(s *schema.Schema, operations []string) ([]byte, error) {
	if s == nil {
		return nil, schema.ErrNilSchema
	}

	// Compose everything up front so an invalid name fails before any output
	fragments := make([][]ops.Fragment, len(s.Layers))
	for i, layer := range s.Layers {
		comp, err := g.ops.Compose(g.opts.LayerOperations(layer, operations), target.ArcPy, ops.NewContext(layer))
		if err != nil {
			return nil, err
		}
		fragments[i] = comp.Fragments
	}

	conn := g.opts.ResolveConnection(s)
	tmpl := g.opts.Template
	w := writer.NewWriter("    ")

	script.WriteHeader(w, script.Header{
		Title:  "Auto-generated ArcPy script",
		Conn:   conn,
		Layers: len(s.Layers),
		Notes:  g.opts.Notes,
		Usage: []string{
			"Requires ArcGIS Pro with the PostgreSQL client libraries installed.",
			"Run from an ArcGIS Pro Python environment or the ArcGIS Pro console.",
		},
	})

	w.WriteLine("import arcpy")
	w.WriteLine("import os")
	w.WriteLine("import tempfile")
	w.BlankLine()
	writeConnection(w, conn)

	if tmpl != nil {
		script.WriteSnippet(w, tmpl.Custom.Preamble)
		script.WriteSnippet(w, tmpl.Custom.ExtraImports)
	}

	for i, layer := range s.Layers {
		g.generateLayer(w, layer, fragments[i])
	}

	if tmpl != nil {
		script.WriteSnippet(w, tmpl.Custom.Teardown)
	}

	w.WriteLine(`print("[OK] Done")`)

	return w.Bytes(), nil
}

func writeConnection(w *writer.Writer, conn target.Connection) {
	w.WriteComment("Database connection parameters")
	w.WriteLinef(`DB_HOST     = %s`, script.PyString(conn.Host))
	w.WriteLinef(`DB_INSTANCE = %s  # ArcGIS uses "host,port" format`, script.PyString(fmt.Sprintf("%s,%d", conn.Host, conn.Port)))
	w.WriteLinef(`DB_NAME     = %s`, script.PyString(conn.DBName))
	w.WriteLinef(`DB_USER     = %s`, script.PyString(conn.User))
	w.WriteLine(`DB_PASSWORD = os.environ.get("PGPASSWORD", "")  # set PGPASSWORD before running`)
	w.BlankLine()
	w.WriteComment("Create a temporary .sde connection file")
	w.WriteLine("SDE_FOLDER = tempfile.gettempdir()")
	w.WriteLine(`SDE_FILE   = os.path.join(SDE_FOLDER, f"{DB_NAME}.sde")`)
	w.BlankLine()
	w.WriteBlock("if not os.path.exists(SDE_FILE):", "", func() {
		w.WriteBlock("arcpy.management.CreateDatabaseConnection(", ")", func() {
			w.WriteLine("out_folder_path=SDE_FOLDER,")
			w.WriteLine("out_name=os.path.basename(SDE_FILE),")
			w.WriteLine(`database_platform="POSTGRESQL",`)
			w.WriteLine("instance=DB_INSTANCE,")
			w.WriteLine(`account_authentication="DATABASE_AUTH",`)
			w.WriteLine("username=DB_USER,")
			w.WriteLine("password=DB_PASSWORD,")
			w.WriteLine(`save_user_pass="SAVE_USERNAME",`)
			w.WriteLine("database=DB_NAME,")
		})
		w.WriteLine(`print(f"[OK] SDE connection created: {SDE_FILE}")`)
	})
	w.WriteBlock("else:", "", func() {
		w.WriteLine(`print(f"[OK] Reusing SDE connection: {SDE_FILE}")`)
	})
	w.BlankLine()
}

func (g *Generator) generateLayer(w *writer.Writer, layer schema.Layer, fragments []ops.Fragment) {
	tmpl := g.opts.Template
	v := target.SafeVar(layer.Table)

	if tmpl != nil {
		script.WriteSnippet(w, layout.Substitute(tmpl.Custom.PerLayerPrefix, layer))
	}

	script.WriteLayerBanner(w, layer, target.ArcPy)

	w.WriteLinef("fc_%s = os.path.join(SDE_FILE, %s)", v, script.PyString(layer.QualifiedName()))
	w.BlankLine()

	w.WriteBlock(fmt.Sprintf("if arcpy.Exists(fc_%s):", v), "", func() {
		w.WriteLinef("desc_%s = arcpy.Describe(fc_%s)", v, v)
		w.WriteLinef(`print("[OK] %s")`, script.PyText(layer.Table))

		if tmpl.CRSInfo() {
			w.WriteLinef(`print(f"  Geometry : {desc_%s.shapeType}")`, v)
			w.WriteLinef(`print(f"  CRS      : {desc_%s.spatialReference.name}")`, v)
		}
		w.BlankLine()

		if tmpl.FieldList() {
			w.WriteComment("List fields")
			w.WriteLinef("fields_%s = arcpy.ListFields(fc_%s)", v, v)
			w.WriteLinef("for fld in fields_%s:", v)
			w.WriteLine(`    print(f"  field: {fld.name} ({fld.type})")`)
			w.BlankLine()
		}

		w.WriteComment("Row count")
		w.WriteLinef("count_%s = int(arcpy.management.GetCount(fc_%s)[0])", v, v)
		w.WriteLinef(`print(f"  Rows: {count_%s}")`, v)
		w.BlankLine()

		if tmpl.SampleRows() {
			var cursor []string
			if pk := layer.PrimaryKey(); pk != "" {
				cursor = append(cursor, pk)
			}
			cursor = append(cursor, script.ColumnNames(layer, 4)...)
			cursor = append(cursor, "SHAPE@")

			w.WriteComment("--- Sample: iterate first 5 rows ---")
			w.WriteLinef("with arcpy.da.SearchCursor(fc_%s, %s) as cur_%s:", v, script.PyList(cursor), v)
			w.WriteLinef("    for i, row in enumerate(cur_%s):", v)
			w.WriteLine("        if i >= 5:")
			w.WriteLine("            break")
			w.WriteLine(`        print("  row:", row)`)
			w.BlankLine()
		}

		if style := g.opts.Style(layer); style != "" {
			w.WriteComment("--- Symbology ---")
			w.WriteLines(style)
			w.BlankLine()
		}

		for _, f := range fragments {
			w.WriteLines(f.Text)
			w.BlankLine()
		}

		w.WriteComment("--- Example: SQL WHERE filter ---")
		w.WriteComment(fmt.Sprintf(`with arcpy.da.SearchCursor(fc_%s, ["*"], where_clause="field = 'value'") as cur:`, v))
		w.WriteComment("    for row in cur:")
		w.WriteComment("        print(row)")
	})
	w.WriteBlock("else:", "", func() {
		w.WriteLinef(`print("[ERROR] Layer '%s' not found in SDE connection.")`, script.PyText(layer.QualifiedName()))
	})
	w.BlankLine()

	if tmpl != nil {
		script.WriteSnippet(w, layout.Substitute(tmpl.Custom.PerLayerSuffix, layer))
	}
}
