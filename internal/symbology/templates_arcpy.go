package symbology

// The layer is added to the active map first; APRX_PATH may point at a .aprx
// file when running outside ArcGIS Pro.
const arcpyHead = `APRX_PATH = "CURRENT"
aprx = arcpy.mp.ArcGISProject(APRX_PATH)
lyr_{{.Var}} = aprx.listMaps()[0].addDataFromPath(fc_{{.Var}})
sym_{{.Var}} = lyr_{{.Var}}.symbology
`

const arcpyTail = `lyr_{{.Var}}.symbology = sym_{{.Var}}
lyr_{{.Var}}.transparency = {{.Transparency}}
{{- if .Label}}
_lbl_{{.Var}} = lyr_{{.Var}}.listLabelClasses()[0]
_lbl_{{.Var}}.expression = "$feature.{{pytext .Label}}"
lyr_{{.Var}}.showLabels = True
{{- end}}
aprx.save()
print("  Renderer: {{.Renderer}}")
`

const arcpySimple = `sym_{{.Var}}.updateRenderer("SimpleRenderer")
sym_{{.Var}}.renderer.symbol.color = {"RGB": [{{.R}}, {{.G}}, {{.B}}, 100]}
`

var arcpyTemplates = map[Renderer]string{
	SingleSymbol: arcpyHead + arcpySimple + arcpyTail,

	Categorized: arcpyHead + `CAT_FIELD_{{.Var}} = {{py .Field}}
sym_{{.Var}}.updateRenderer("UniqueValueRenderer")
sym_{{.Var}}.renderer.fields = [CAT_FIELD_{{.Var}}]
` + arcpyTail,

	Graduated: arcpyHead + `GRAD_FIELD_{{.Var}} = {{py .Field}}
sym_{{.Var}}.updateRenderer("GraduatedColorsRenderer")
sym_{{.Var}}.renderer.classificationField = GRAD_FIELD_{{.Var}}
sym_{{.Var}}.renderer.breakCount = 5
` + arcpyTail,

	RuleBased: arcpyHead + arcpySimple + `lyr_{{.Var}}.definitionQuery = {{pysq (printf "%s IS NOT NULL" (sqlident .Field))}}
` + arcpyTail,

	Heatmap: arcpyHead + `sym_{{.Var}}.updateRenderer("HeatMapRenderer")
` + arcpyTail,

	PointCluster: arcpyHead + arcpySimple + `lyr_{{.Var}}.featureReduction = "Clustering"
` + arcpyTail,

	PointDisplacement: arcpyHead + arcpySimple + `# Displacement has no arcpy.mp equivalent; enable "Display dispersed" in Layer Properties
` + arcpyTail,

	InvertedPolygon: arcpyHead + arcpySimple + `# Inverted polygon fill has no arcpy.mp equivalent; use a mask layer in the map
` + arcpyTail,

	Pseudo3D: arcpyHead + arcpySimple + `# 2.5D extrusion is configured on a local scene, see the extrude operation
` + arcpyTail,

	NullSymbol: arcpyHead + `lyr_{{.Var}}.visible = False
` + arcpyTail,
}
