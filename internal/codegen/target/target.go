// Package target holds the closed set of output dialects together with the
// per-dialect capability metadata and type vocabularies shared by every
// generator.
package target

import (
	"fmt"
	"strings"
)

// Dialect identifies one output target
type Dialect string

const (
	PyQGIS Dialect = "pyqgis"
	ArcPy  Dialect = "arcpy"
	Folium Dialect = "folium"
	Kepler Dialect = "kepler"
	Deck   Dialect = "deck"
	Export Dialect = "export"
	QGS    Dialect = "qgs"
	PYT    Dialect = "pyt"
)

// Class groups dialects by what kind of artifact they produce
type Class string

const (
	ClassFull      Class = "full"
	ClassVisualize Class = "visualize"
	ClassProject   Class = "project"
	ClassTool      Class = "tool"
)

// Capabilities is the explicit per-dialect metadata consulted by the dispatcher
type Capabilities struct {
	Dialect    Dialect `json:"dialect"`
	Class      Class   `json:"class"`
	Operations bool    `json:"operations"`
	Coerce3D   bool    `json:"coerce_3d"`
	Extension  string  `json:"extension"`
	Label      string  `json:"label"`
}

var capabilities = []Capabilities{
	{Dialect: PyQGIS, Class: ClassFull, Operations: true, Coerce3D: true, Extension: ".py", Label: "PyQGIS standalone script"},
	{Dialect: ArcPy, Class: ClassFull, Operations: true, Coerce3D: true, Extension: ".py", Label: "ArcPy script"},
	{Dialect: Folium, Class: ClassVisualize, Extension: ".py", Label: "Folium (Leaflet) web map"},
	{Dialect: Kepler, Class: ClassVisualize, Extension: ".py", Label: "Kepler.gl web map"},
	{Dialect: Deck, Class: ClassVisualize, Extension: ".py", Label: "pydeck (deck.gl) web map"},
	{Dialect: Export, Class: ClassVisualize, Extension: ".py", Label: "GeoPackage export script"},
	{Dialect: QGS, Class: ClassProject, Extension: ".qgs", Label: "QGIS project file"},
	{Dialect: PYT, Class: ClassTool, Extension: ".pyt", Label: "ArcGIS Python toolbox"},
}

// All returns every dialect in a stable order
func All() []Dialect {
	out := make([]Dialect, len(capabilities))
	for i, c := range capabilities {
		out[i] = c.Dialect
	}
	return out
}

// AllCapabilities returns the capability table in a stable order
func AllCapabilities() []Capabilities {
	return append([]Capabilities(nil), capabilities...)
}

// Lookup returns the capabilities of d
func Lookup(d Dialect) (Capabilities, bool) {
	for _, c := range capabilities {
		if c.Dialect == d {
			return c, true
		}
	}
	return Capabilities{}, false
}

// Parse converts a user supplied name into a Dialect
func Parse(name string) (Dialect, error) {
	d := Dialect(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := Lookup(d); !ok {
		return "", fmt.Errorf("unsupported platform: %s (valid: %s)", name, strings.Join(Names(), ", "))
	}
	return d, nil
}

// Names returns every dialect name in a stable order
func Names() []string {
	out := make([]string, len(capabilities))
	for i, c := range capabilities {
		out[i] = string(c.Dialect)
	}
	return out
}

// SupportsOperations reports whether d renders operation blocks
func (d Dialect) SupportsOperations() bool {
	c, ok := Lookup(d)
	return ok && c.Operations
}

// Extension returns the artifact file extension for d, ".py" when unknown
func (d Dialect) Extension() string {
	if c, ok := Lookup(d); ok {
		return c.Extension
	}
	return ".py"
}
