package qgs

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/okra-platform/gisgen/internal/codegen/script"
	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/codegen/writer"
	"github.com/okra-platform/gisgen/internal/schema"
)

// Generator generates QGIS project files with every layer pre-connected.
// Passwords are never embedded; QGIS prompts on open.
type Generator struct {
	opts target.Options
}

// NewGenerator creates a new QGIS project generator
func NewGenerator(opts target.Options) *Generator {
	return &Generator{opts: opts}
}

// Dialect returns the dialect tag
func (g *Generator) Dialect() target.Dialect {
	return target.QGS
}

// FileExtension returns the file extension for generated files
func (g *Generator) FileExtension() string {
	return target.QGS.Extension()
}

// GeometryKind maps a PostGIS geometry type to the QGIS geometry name and
// layerGeometryType code
func GeometryKind(geomType string) (string, int) {
	switch script.Family(geomType) {
	case script.FamilyPoint:
		return "Point", 0
	case script.FamilyLine:
		return "Line", 1
	default:
		return "Polygon", 2
	}
}

// LayerID returns the stable project id for a layer: the table name plus the
// first eight hex digits of a hash of the qualified name
func LayerID(layer schema.Layer) string {
	sum := xxh3.HashString(layer.QualifiedName())
	return fmt.Sprintf("%s_%08x", layer.Table, uint32(sum>>32))
}

// Generate generates the .qgs XML document. Operations are not rendered.
func (g *Generator) Generate(s *schema.Schema, _ []string) ([]byte, error) {
	if s == nil {
		return nil, schema.ErrNilSchema
	}

	conn := g.opts.ResolveConnection(s)
	w := writer.NewWriter("  ")

	w.WriteLine(`<!DOCTYPE qgis PUBLIC 'http://mrcc.com/qgis.dtd' 'SYSTEM'>`)
	w.WriteBlock(fmt.Sprintf(`<qgis projectname="%s" version="3.28.0-Firenze">`, esc(conn.DBName)), "</qgis>", func() {
		w.WriteLine(fmt.Sprintf("<!-- Database : %s @ %s:%d -->", esc(conn.DBName), esc(conn.Host), conn.Port))
		w.WriteLine(fmt.Sprintf("<!-- Layers   : %d -->", len(s.Layers)))
		for _, note := range g.opts.Notes {
			w.WriteLine(fmt.Sprintf("<!-- %s -->", esc(note)))
		}

		w.WriteBlock("<projectCrs>", "</projectCrs>", func() {
			writeSRS(w, 4326)
		})
		w.WriteBlock(`<mapcanvas annotationsVisible="1" name="theMapCanvas">`, "</mapcanvas>", func() {
			w.WriteLine("<units>degrees</units>")
			w.WriteBlock("<extent>", "</extent>", func() {
				w.WriteLine("<xmin>-180</xmin>")
				w.WriteLine("<ymin>-90</ymin>")
				w.WriteLine("<xmax>180</xmax>")
				w.WriteLine("<ymax>90</ymax>")
			})
			w.WriteLine("<rotation>0</rotation>")
			w.WriteBlock("<destinationsrs>", "</destinationsrs>", func() {
				writeSRS(w, 4326)
			})
			w.WriteLine("<rendermaptile>0</rendermaptile>")
		})

		w.WriteBlock("<projectlayers>", "</projectlayers>", func() {
			for _, layer := range s.Layers {
				g.writeMapLayer(w, conn, layer)
			}
		})

		w.WriteBlock(`<legend updateDrawingOrder="true">`, "</legend>", func() {
			for _, layer := range s.Layers {
				writeLegendLayer(w, layer)
			}
		})
	})

	return w.Bytes(), nil
}

func (g *Generator) writeMapLayer(w *writer.Writer, conn target.Connection, layer schema.Layer) {
	kind, code := GeometryKind(layer.Geometry.Type)
	pk := layer.PrimaryKey()
	if pk == "" {
		pk = "id"
	}

	datasource := fmt.Sprintf(
		`dbname=%s host=%s port=%d sslmode=disable key=%s srid=%d type=%s table=%s.%s (%s) sql=`,
		uriValue(conn.DBName), conn.Host, conn.Port, uriValue(pk), layer.Geometry.SRID, kind,
		script.SQLIdent(layer.Schema), script.SQLIdent(layer.Table), layer.Geometry.Column,
	)

	w.WriteBlock(fmt.Sprintf(`<maplayer type="vector" geometry="%s" autoRefreshEnabled="0">`, kind), "</maplayer>", func() {
		w.WriteLinef("<id>%s</id>", esc(LayerID(layer)))
		w.WriteLinef("<datasource>%s</datasource>", esc(datasource))
		w.WriteLinef("<layername>%s</layername>", esc(layer.Table))
		if layer.Comment != "" {
			w.WriteLinef("<abstract>%s</abstract>", esc(layer.Comment))
		}
		w.WriteLine(`<provider encoding="UTF-8">postgres</provider>`)
		w.WriteBlock("<srs>", "</srs>", func() {
			writeSRS(w, layer.Geometry.SRID)
		})
		w.WriteLinef("<layerGeometryType>%d</layerGeometryType>", code)
		if len(layer.Columns) > 0 {
			w.WriteBlock("<fieldConfiguration>", "</fieldConfiguration>", func() {
				for _, c := range layer.Columns {
					w.WriteLinef(`<field name="%s" type="%s" configurationFlags="None"/>`,
						esc(c.Name), target.Coerce(c.Type, target.QGS))
				}
			})
		}
		if style := g.opts.Style(layer); style != "" {
			w.WriteLines(style)
		}
	})
}

func writeLegendLayer(w *writer.Writer, layer schema.Layer) {
	opener := fmt.Sprintf(`<legendlayer name="%s" showFeatureCount="0" checked="Qt::Checked" open="true" drawingOrder="-1">`, esc(layer.Table))
	w.WriteBlock(opener, "</legendlayer>", func() {
		w.WriteBlock(`<filegroup open="true" hidden="false">`, "</filegroup>", func() {
			w.WriteLinef(`<legendlayerfile isInOverview="0" visible="1" layerid="%s"/>`, esc(LayerID(layer)))
		})
	})
}

func writeSRS(w *writer.Writer, srid int) {
	w.WriteBlock("<spatialrefsys>", "</spatialrefsys>", func() {
		w.WriteLinef("<authid>EPSG:%d</authid>", srid)
	})
}

var uriEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// uriValue quotes a data source URI value the way QGIS reads it back
func uriValue(s string) string {
	return `'` + uriEscaper.Replace(s) + `'`
}

func esc(s string) string {
	var buf bytes.Buffer
	// EscapeText only fails when the underlying writer does
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
