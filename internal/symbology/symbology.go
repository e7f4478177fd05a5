// Package symbology turns a catalogue renderer category into a styling
// fragment for one dialect. Resolution never fails: unknown categories fall
// back to a single symbol and bad colours or opacities to fixed defaults.
package symbology

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/template"

	"github.com/okra-platform/gisgen/internal/codegen/script"
	"github.com/okra-platform/gisgen/internal/codegen/target"
)

// Renderer is one of the ten renderer categories
type Renderer string

const (
	SingleSymbol      Renderer = "single_symbol"
	Categorized       Renderer = "categorized"
	Graduated         Renderer = "graduated"
	RuleBased         Renderer = "rule_based"
	Heatmap           Renderer = "heatmap"
	PointCluster      Renderer = "point_cluster"
	PointDisplacement Renderer = "point_displacement"
	InvertedPolygon   Renderer = "inverted_polygon"
	Pseudo3D          Renderer = "pseudo_3d"
	NullSymbol        Renderer = "null_symbol"
)

// FallbackColor is used when a row has no usable colour
const FallbackColor = "#3388ff"

var renderers = []Renderer{
	SingleSymbol, Categorized, Graduated, RuleBased, Heatmap,
	PointCluster, PointDisplacement, InvertedPolygon, Pseudo3D, NullSymbol,
}

var aliases = map[string]Renderer{
	"single":        SingleSymbol,
	"simple":        SingleSymbol,
	"categorised":   Categorized,
	"category":      Categorized,
	"unique":        Categorized,
	"unique_value":  Categorized,
	"unique_values": Categorized,
	"choropleth":    Graduated,
	"classified":    Graduated,
	"rule":          RuleBased,
	"rules":         RuleBased,
	"heat":          Heatmap,
	"heat_map":      Heatmap,
	"density":       Heatmap,
	"cluster":       PointCluster,
	"clustered":     PointCluster,
	"displacement":  PointDisplacement,
	"inverted":      InvertedPolygon,
	"2_5d":          Pseudo3D,
	"25d":           Pseudo3D,
	"3d":            Pseudo3D,
	"extrusion":     Pseudo3D,
	"none":          NullSymbol,
	"null":          NullSymbol,
	"no_symbol":     NullSymbol,
	"hidden":        NullSymbol,
}

// Renderers lists the categories in a stable order
func Renderers() []Renderer {
	return append([]Renderer(nil), renderers...)
}

// Normalize maps a free-form category to a Renderer. Separators and case are
// ignored; anything unrecognized is SingleSymbol.
func Normalize(raw string) Renderer {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_", ".", "_", "/", "_").Replace(key)
	key = strings.TrimSuffix(key, "_renderer")

	for _, r := range renderers {
		if string(r) == key {
			return r
		}
	}
	if r, ok := aliases[key]; ok {
		return r
	}
	return SingleSymbol
}

var namedColors = map[string]string{
	"black":  "#000000",
	"white":  "#ffffff",
	"red":    "#ff0000",
	"green":  "#008000",
	"blue":   "#0000ff",
	"yellow": "#ffff00",
	"orange": "#ffa500",
	"purple": "#800080",
	"brown":  "#a52a2a",
	"pink":   "#ffc0cb",
	"grey":   "#808080",
	"gray":   "#808080",
}

// NormalizeColor returns a lowercase "#rrggbb" colour. Short hex, hex without
// "#" and a few colour names are accepted; anything else is FallbackColor.
func NormalizeColor(raw string) string {
	c := strings.ToLower(strings.TrimSpace(raw))
	if named, ok := namedColors[c]; ok {
		return named
	}
	c = strings.TrimPrefix(c, "#")
	if len(c) == 3 {
		c = string([]byte{c[0], c[0], c[1], c[1], c[2], c[2]})
	}
	if len(c) != 6 {
		return FallbackColor
	}
	if _, err := strconv.ParseUint(c, 16, 32); err != nil {
		return FallbackColor
	}
	return "#" + c
}

// ParseOpacity reads an opacity in [0,1]. "60%" and bare numbers above 1 are
// percentages. Empty, invalid or out of range values are 1.0.
func ParseOpacity(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 1.0
	}

	percent := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1.0
	}
	if percent || v > 1 {
		v /= 100
	}
	if v < 0 || v > 1 {
		return 1.0
	}
	return v
}

// Style is the raw styling request of one catalogue row
type Style struct {
	Renderer string
	Color    string
	Field    string
	Label    string
	Opacity  string
	// Geometry is the layer geometry type, used to pick a symbol kind
	Geometry string
	// Var is the sanitized layer variable the fragment refers to
	Var string
}

type fragmentData struct {
	Renderer     Renderer
	Var          string
	Field        string
	Label        string
	Color        string
	Opacity      string
	Transparency int
	R, G, B, A   int
	SymbolXML    string
	LayerClass   string
}

func newFragmentData(s Style) fragmentData {
	color := NormalizeColor(s.Color)
	opacity := ParseOpacity(s.Opacity)
	rgb, _ := strconv.ParseUint(color[1:], 16, 32)

	d := fragmentData{
		Renderer: Normalize(s.Renderer),
		Var:      s.Var,
		Field:    s.Field,
		Label:    s.Label,
		Color:    color,
		Opacity:  strconv.FormatFloat(opacity, 'f', -1, 64),
		R:        int(rgb >> 16 & 0xff),
		G:        int(rgb >> 8 & 0xff),
		B:        int(rgb & 0xff),
		A:        int(math.Round(opacity * 255)),

		Transparency: int(math.Round((1 - opacity) * 100)),
	}
	if d.Field == "" {
		d.Field = "value"
	}

	switch script.Family(s.Geometry) {
	case script.FamilyPoint:
		d.SymbolXML, d.LayerClass = "marker", "SimpleMarker"
	case script.FamilyLine:
		d.SymbolXML, d.LayerClass = "line", "SimpleLine"
	default:
		d.SymbolXML, d.LayerClass = "fill", "SimpleFill"
	}
	if d.Renderer == NullSymbol {
		d.A = 0
	}
	return d
}

var funcs = template.FuncMap{
	"py":       script.PyString,
	"pytext":   script.PyText,
	"pysq":     script.PySingle,
	"sqlident": script.SQLIdent,
}

var table = make(map[target.Dialect]map[Renderer]*template.Template)

func init() {
	for d, texts := range map[target.Dialect]map[Renderer]string{
		target.PyQGIS: pyqgisTemplates,
		target.ArcPy:  arcpyTemplates,
		target.QGS:    qgsTemplates,
	} {
		table[d] = make(map[Renderer]*template.Template, len(texts))
		for r, text := range texts {
			table[d][r] = template.Must(template.New(fmt.Sprintf("%s/%s", d, r)).
				Funcs(funcs).Option("missingkey=error").Parse(text))
		}
	}
}

// Resolve returns the styling fragment for style in dialect d. Script
// fragments are unindented; generators place them inside the layer block.
func Resolve(style Style, d target.Dialect) string {
	data := newFragmentData(style)

	switch d {
	case target.Folium:
		return foliumStyle(data)
	case target.Deck:
		return fmt.Sprintf("[%d, %d, %d, %d]", data.R, data.G, data.B, data.A)
	}

	tmpl, ok := table[d][data.Renderer]
	if !ok {
		return summaryComment(data)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return summaryComment(data)
	}
	return buf.String()
}

func foliumStyle(d fragmentData) string {
	if d.Renderer == NullSymbol {
		return `{"opacity": 0.0, "fillOpacity": 0.0}`
	}
	return fmt.Sprintf(`{"color": "%s", "fillColor": "%s", "weight": 2, "opacity": %s, "fillOpacity": %s}`,
		d.Color, d.Color, d.Opacity, d.Opacity)
}

var commentBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func summaryComment(d fragmentData) string {
	d.Field = commentBreaks.Replace(d.Field)
	d.Label = commentBreaks.Replace(d.Label)
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Symbology: %s (%s, opacity %s)\n", d.Renderer, d.Color, d.Opacity)
	switch d.Renderer {
	case Categorized, Graduated, RuleBased, Heatmap:
		fmt.Fprintf(&sb, "# Classification field: %s\n", d.Field)
	}
	if d.Label != "" {
		fmt.Fprintf(&sb, "# Label field: %s\n", d.Label)
	}
	return sb.String()
}
