package pyqgis

import (
	"fmt"
	"strings"

	"github.com/okra-platform/gisgen/internal/codegen/ops"
	"github.com/okra-platform/gisgen/internal/codegen/script"
	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/codegen/writer"
	"github.com/okra-platform/gisgen/internal/layout"
	"github.com/okra-platform/gisgen/internal/schema"
)

// Generator generates standalone PyQGIS scripts
type Generator struct {
	opts target.Options
	ops  *ops.Registry
}

// NewGenerator creates a new PyQGIS generator
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
	return target.PyQGIS
}

// FileExtension returns the file extension for generated files
func (g *Generator) FileExtension() string {
	return target.PyQGIS.Extension()
}

// SupportsOperation reports whether name has a PyQGIS template
func (g *Generator) SupportsOperation(name string) bool {
	return g.ops.Supports(name, target.PyQGIS)
}

type layerPlan struct {
	layer     schema.Layer
	fragments []ops.Fragment
}

// Generate generates a PyQGIS script loading every layer of the schema and
// applying operations in the order given
func (g *Generator) Generate(s *schema.Schema, operations []string) ([]byte, error) {
	if s == nil {
		return nil, schema.ErrNilSchema
	}

	plans := make([]layerPlan, 0, len(s.Layers))
	needsProcessing := false
	for _, layer := range s.Layers {
		comp, err := g.ops.Compose(g.opts.LayerOperations(layer, operations), target.PyQGIS, ops.NewContext(layer))
		if err != nil {
			return nil, err
		}
		for _, f := range comp.Fragments {
			if strings.Contains(f.Text, "processing.") {
				needsProcessing = true
			}
		}
		plans = append(plans, layerPlan{layer: layer, fragments: comp.Fragments})
	}

	conn := g.opts.ResolveConnection(s)
	tmpl := g.opts.Template
	w := writer.NewWriter("    ")

	script.WriteHeader(w, script.Header{
		Title:  "Auto-generated PyQGIS script",
		Conn:   conn,
		Layers: len(s.Layers),
		Notes:  g.opts.Notes,
		Usage: []string{
			"Run as a standalone script (outside QGIS) or paste into the QGIS",
			"Python console. In the console, omit the QgsApplication init block.",
		},
	})

	w.WriteLine("import os")
	w.WriteLine("import sys")
	w.BlankLine()
	w.WriteComment("-- QGIS standalone init (remove if running inside QGIS console) ------")
	w.WriteLine("from qgis.core import (")
	w.WriteLine("    QgsApplication, QgsDataSourceUri, QgsVectorLayer, QgsProject,")
	w.WriteLine("    QgsCoordinateReferenceSystem,")
	w.WriteLine(")")
	w.BlankLine()
	w.WriteLine("qgs = QgsApplication([], False)")
	w.WriteLine("qgs.initQgis()")
	w.WriteRule("-", 73)
	w.BlankLine()

	if needsProcessing {
		w.WriteLine("from qgis import processing")
		w.BlankLine()
	}

	w.WriteComment("Database connection defaults (edit as needed)")
	w.WriteLinef(`DB_HOST     = %s`, script.PyString(conn.Host))
	w.WriteLinef(`DB_PORT     = "%d"`, conn.Port)
	w.WriteLinef(`DB_NAME     = %s`, script.PyString(conn.DBName))
	w.WriteLinef(`DB_USER     = %s`, script.PyString(conn.User))
	w.WriteLine(`DB_PASSWORD = os.environ.get("PGPASSWORD", "")  # set PGPASSWORD before running`)
	w.BlankLine()

	if tmpl != nil {
		script.WriteSnippet(w, tmpl.Custom.Preamble)
		script.WriteSnippet(w, tmpl.Custom.ExtraImports)
	}

	for _, p := range plans {
		g.generateLayer(w, p)
	}

	if tmpl != nil {
		script.WriteSnippet(w, tmpl.Custom.Teardown)
	}

	w.WriteComment("-- Cleanup (standalone only) ----------------------------------------")
	w.WriteLine("qgs.exitQgis()")

	return w.Bytes(), nil
}

func (g *Generator) generateLayer(w *writer.Writer, p layerPlan) {
	layer := p.layer
	tmpl := g.opts.Template
	v := target.SafeVar(layer.Table)

	if tmpl != nil {
		script.WriteSnippet(w, layout.Substitute(tmpl.Custom.PerLayerPrefix, layer))
	}

	script.WriteLayerBanner(w, layer, target.PyQGIS)

	w.WriteLinef("uri_%s = QgsDataSourceUri()", v)
	w.WriteLinef("uri_%s.setConnection(DB_HOST, DB_PORT, DB_NAME, DB_USER, DB_PASSWORD)", v)
	w.WriteLinef("uri_%s.setDataSource(", v)
	w.WriteLinef("    %s,", script.PyString(layer.Schema))
	w.WriteLinef("    %s,", script.PyString(layer.Table))
	w.WriteLinef("    %s,  # geometry column", script.PyString(layer.Geometry.Column))
	w.WriteLine(`    "",  # optional SQL WHERE filter`)
	w.WriteLinef("    %s,  # primary key column", script.PyString(layer.PrimaryKey()))
	w.WriteLine(")")
	w.BlankLine()
	w.WriteLinef(`lyr_%s = QgsVectorLayer(uri_%s.uri(False), %s, "postgres")`, v, v, script.PyString(layer.Table))
	w.BlankLine()

	w.WriteLinef("if not lyr_%s.isValid():", v)
	w.WriteLinef(`    print("[ERROR] Layer '%s' failed to load; check the connection.")`, script.PyText(layer.Table))
	w.WriteBlock("else:", "", func() {
		w.WriteLinef("QgsProject.instance().addMapLayer(lyr_%s)", v)
		w.WriteLinef(`print(f"[OK] %s: {lyr_%s.featureCount()} features")`, script.FStringText(layer.Table), v)
		w.BlankLine()

		if tmpl.CRSInfo() {
			w.WriteComment("CRS")
			w.WriteLinef("crs = lyr_%s.crs()", v)
			w.WriteLine(`print(f"  CRS: {crs.authid()}  ({crs.description()})")`)
			w.BlankLine()
		}

		if tmpl.FieldList() {
			w.WriteComment("Field names")
			w.WriteLinef("fields = [f.name() for f in lyr_%s.fields()]", v)
			w.WriteLine(`print(f"  Fields: {fields}")`)
			w.BlankLine()
		}

		if sample := script.ColumnNames(layer, 10); tmpl.SampleRows() && len(sample) > 0 {
			w.WriteComment("--- Sample: iterate first 5 features ---")
			w.WriteLinef("for i, feat in enumerate(lyr_%s.getFeatures()):", v)
			w.WriteLine("    if i >= 5:")
			w.WriteLine("        break")
			w.WriteLinef(`    print("  row:", {k: feat[k] for k in %s})`, script.PyList(sample))
			w.BlankLine()
		}

		if style := g.opts.Style(layer); style != "" {
			w.WriteComment("--- Symbology ---")
			w.WriteLines(style)
			w.BlankLine()
		}

		for _, f := range p.fragments {
			w.WriteLines(f.Text)
			w.BlankLine()
		}

		w.WriteComment("--- Example: spatial filter (bounding box) ---")
		w.WriteComment("from qgis.core import QgsRectangle, QgsFeatureRequest")
		w.WriteComment("bbox = QgsRectangle(xmin, ymin, xmax, ymax)")
		w.WriteComment("request = QgsFeatureRequest().setFilterRect(bbox)")
		w.WriteComment(fmt.Sprintf("for feat in lyr_%s.getFeatures(request):", v))
		w.WriteComment("    print(feat.id())")
		w.BlankLine()
		w.WriteComment("--- Example: attribute filter ---")
		w.WriteComment(`request = QgsFeatureRequest().setFilterExpression('"field" = \'value\'')`)
		w.WriteComment(fmt.Sprintf("for feat in lyr_%s.getFeatures(request):", v))
		w.WriteComment("    print(feat.id())")
		w.BlankLine()
	})

	if tmpl != nil {
		script.WriteSnippet(w, layout.Substitute(tmpl.Custom.PerLayerSuffix, layer))
	}
}
