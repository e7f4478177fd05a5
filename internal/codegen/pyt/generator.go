package pyt

import (
	"fmt"
	"strings"

	"github.com/okra-platform/gisgen/internal/codegen/script"
	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/codegen/writer"
	"github.com/okra-platform/gisgen/internal/schema"
)

// Generator generates ArcGIS Python Toolboxes. The password is never written;
// the tool dialog prompts for it.
type Generator struct {
	opts target.Options
}

// NewGenerator creates a new Python toolbox generator
func NewGenerator(opts target.Options) *Generator {
	return &Generator{opts: opts}
}

// Dialect returns the dialect tag
func (g *Generator) Dialect() target.Dialect {
	return target.PYT
}

// FileExtension returns the file extension for generated files
func (g *Generator) FileExtension() string {
	return target.PYT.Extension()
}

type param struct {
	name, display, datatype, kind, value string
}

// Generate generates the toolbox source. Operations are not rendered.
func (g *Generator) Generate(s *schema.Schema, _ []string) ([]byte, error) {
	if s == nil {
		return nil, schema.ErrNilSchema
	}

	conn := g.opts.ResolveConnection(s)
	w := writer.NewWriter("    ")

	w.WriteComment("-*- coding: utf-8 -*-")
	script.WriteHeader(w, script.Header{
		Title:  "Auto-generated ArcGIS Python Toolbox (.pyt)",
		Conn:   conn,
		Layers: len(s.Layers),
		Notes:  g.opts.Notes,
		Usage:  []string{"Open in ArcGIS Pro via Insert > Toolbox > Add Python Toolbox"},
	})

	w.WriteLine("import os")
	w.WriteLine("import arcpy")
	w.BlankLine()
	w.Newline()

	w.WriteBlock("class Toolbox:", "", func() {
		w.WriteLine(`"""PostGIS Layer Loader toolbox."""`)
		w.BlankLine()
		w.WriteBlock("def __init__(self):", "", func() {
			w.WriteLine(`self.label = "PostGIS Loader"`)
			w.WriteLine(`self.alias = "postgis_loader"`)
			w.WriteLine("self.tools = [LoadPostGISLayers]")
		})
	})
	w.BlankLine()
	w.Newline()

	params := []param{
		{name: "host", display: "Host", datatype: "GPString", kind: "Required", value: conn.Host},
		{name: "port", display: "Port", datatype: "GPString", kind: "Required", value: fmt.Sprintf("%d", conn.Port)},
		{name: "dbname", display: "Database", datatype: "GPString", kind: "Required", value: conn.DBName},
		{name: "user", display: "User", datatype: "GPString", kind: "Required", value: conn.User},
		{name: "password", display: "Password", datatype: "GPStringHidden", kind: "Required"},
		{name: "schema_filter", display: "Schema Filter (optional)", datatype: "GPString", kind: "Optional"},
	}

	w.WriteBlock("class LoadPostGISLayers:", "", func() {
		w.WriteLine(`"""Load all PostGIS layers into the current ArcGIS Pro map."""`)
		w.BlankLine()
		w.WriteBlock("def __init__(self):", "", func() {
			w.WriteLine(`self.label = "Load PostGIS Layers"`)
			w.WriteBlock("self.description = (", ")", func() {
				w.WriteLine(`"Connect to a PostGIS database and add all spatial layers "`)
				w.WriteLine(`"to the active map."`)
			})
		})
		w.BlankLine()

		w.WriteBlock("def getParameterInfo(self):", "", func() {
			names := make([]string, len(params))
			for i, p := range params {
				names[i] = p.name
				w.WriteBlock(p.name+" = arcpy.Parameter(", ")", func() {
					w.WriteLinef("displayName=%s,", script.PyString(p.display))
					w.WriteLinef("name=%s,", script.PyString(p.name))
					w.WriteLinef("datatype=%s,", script.PyString(p.datatype))
					w.WriteLinef("parameterType=%s,", script.PyString(p.kind))
					w.WriteLine(`direction="Input",`)
				})
				if p.value != "" {
					w.WriteLinef("%s.value = %s", p.name, script.PyString(p.value))
				}
				w.BlankLine()
			}
			w.WriteLinef("return [%s]", strings.Join(names, ", "))
		})
		w.BlankLine()

		w.WriteBlock("def isLicensed(self):", "", func() { w.WriteLine("return True") })
		w.BlankLine()
		w.WriteBlock("def updateParameters(self, parameters):", "", func() { w.WriteLine("pass") })
		w.BlankLine()
		w.WriteBlock("def updateMessages(self, parameters):", "", func() { w.WriteLine("pass") })
		w.BlankLine()

		w.WriteBlock("def execute(self, parameters, messages):", "", func() {
			for i, p := range params {
				w.WriteLinef("%-13s = parameters[%d].valueAsText", p.name, i)
			}
			w.BlankLine()
			w.WriteLine(`sde_file = os.path.join(arcpy.env.scratchFolder, "postgis_conn.sde")`)
			w.BlankLine()
			w.WriteBlock("arcpy.management.CreateDatabaseConnection(", ")", func() {
				w.WriteLine("out_folder_path=arcpy.env.scratchFolder,")
				w.WriteLine(`out_name="postgis_conn.sde",`)
				w.WriteLine(`database_platform="POSTGRESQL",`)
				w.WriteLine(`instance=f"{host},{port}",`)
				w.WriteLine(`account_authentication="DATABASE_AUTH",`)
				w.WriteLine("username=user,")
				w.WriteLine("password=password,")
				w.WriteLine(`save_user_pass="SAVE_USERNAME",`)
				w.WriteLine("database=dbname,")
			})
			w.BlankLine()
			w.WriteLine(`aprx    = arcpy.mp.ArcGISProject("CURRENT")`)
			w.WriteLine("act_map = aprx.activeMap")
			w.BlankLine()

			w.WriteBlock("_tables = [", "]", func() {
				for _, layer := range s.Layers {
					w.WriteComment(fmt.Sprintf("%s: %s", layer.QualifiedName(), script.FieldSummary(layer, target.PYT)))
					if style := g.opts.Style(layer); style != "" {
						w.WriteLines(style)
					}
					w.WriteLinef("(%s, %s),", script.PyString(layer.Schema), script.PyString(layer.Table))
				}
			})
			w.WriteBlock("for _schema, _table in _tables:", "", func() {
				w.WriteLine("if schema_filter and _schema != schema_filter:")
				w.WriteLine("    continue")
				w.WriteLine(`_fc = os.path.join(sde_file, f"{dbname}.{_schema}.{_table}")`)
				w.WriteLine("act_map.addDataFromPath(_fc)")
				w.WriteLine(`messages.addMessage(f"Added: {_schema}.{_table}")`)
			})
			w.BlankLine()
			w.WriteLine(`messages.addMessage(f"Done. {len(_tables)} layer(s) processed.")`)
		})
	})

	return w.Bytes(), nil
}
