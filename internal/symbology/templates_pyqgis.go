package symbology

const pyqgisColor = `from qgis.PyQt.QtGui import QColor
`

const pyqgisTail = `lyr_{{.Var}}.setOpacity({{.Opacity}})
{{- if .Label}}
from qgis.core import QgsPalLayerSettings, QgsVectorLayerSimpleLabeling
_lbl_{{.Var}} = QgsPalLayerSettings()
_lbl_{{.Var}}.fieldName = {{py .Label}}
_lbl_{{.Var}}.enabled = True
lyr_{{.Var}}.setLabeling(QgsVectorLayerSimpleLabeling(_lbl_{{.Var}}))
lyr_{{.Var}}.setLabelsEnabled(True)
{{- end}}
lyr_{{.Var}}.triggerRepaint()
print("  Renderer: {{.Renderer}}")
`

var pyqgisTemplates = map[Renderer]string{
	SingleSymbol: pyqgisColor + `from qgis.core import QgsSingleSymbolRenderer, QgsSymbol
_sym_{{.Var}} = QgsSymbol.defaultSymbol(lyr_{{.Var}}.geometryType())
_sym_{{.Var}}.setColor(QColor("{{.Color}}"))
lyr_{{.Var}}.setRenderer(QgsSingleSymbolRenderer(_sym_{{.Var}}))
` + pyqgisTail,

	Categorized: `from qgis.core import (
    QgsCategorizedSymbolRenderer, QgsRendererCategory, QgsSymbol, QgsStyle,
)
CAT_FIELD_{{.Var}} = {{py .Field}}
_cats_{{.Var}} = []
for _val in lyr_{{.Var}}.uniqueValues(lyr_{{.Var}}.fields().indexFromName(CAT_FIELD_{{.Var}})):
    _sym = QgsSymbol.defaultSymbol(lyr_{{.Var}}.geometryType())
    _cats_{{.Var}}.append(QgsRendererCategory(_val, _sym, str(_val)))
_rend_{{.Var}} = QgsCategorizedSymbolRenderer(CAT_FIELD_{{.Var}}, _cats_{{.Var}})
_rend_{{.Var}}.updateColorRamp(QgsStyle.defaultStyle().colorRamp("Paired"))
lyr_{{.Var}}.setRenderer(_rend_{{.Var}})
` + pyqgisTail,

	Graduated: `from qgis.core import (
    QgsGraduatedSymbolRenderer, QgsClassificationQuantile, QgsColorBrewerColorRamp,
)
GRAD_FIELD_{{.Var}} = {{py .Field}}
_rend_{{.Var}} = QgsGraduatedSymbolRenderer(GRAD_FIELD_{{.Var}})
_rend_{{.Var}}.setClassificationMethod(QgsClassificationQuantile())
_rend_{{.Var}}.updateClasses(lyr_{{.Var}}, 5)
_rend_{{.Var}}.updateColorRamp(QgsColorBrewerColorRamp("YlOrRd", 5))
lyr_{{.Var}}.setRenderer(_rend_{{.Var}})
` + pyqgisTail,

	RuleBased: pyqgisColor + `from qgis.core import QgsRuleBasedRenderer, QgsSymbol
_sym_{{.Var}} = QgsSymbol.defaultSymbol(lyr_{{.Var}}.geometryType())
_sym_{{.Var}}.setColor(QColor("{{.Color}}"))
_root_{{.Var}} = QgsRuleBasedRenderer.Rule(None)
_rule_{{.Var}} = QgsRuleBasedRenderer.Rule(_sym_{{.Var}})
_rule_{{.Var}}.setFilterExpression({{pysq (printf "%s IS NOT NULL" (sqlident .Field))}})
_rule_{{.Var}}.setLabel("{{pytext .Field}} set")
_root_{{.Var}}.appendChild(_rule_{{.Var}})
lyr_{{.Var}}.setRenderer(QgsRuleBasedRenderer(_root_{{.Var}}))
` + pyqgisTail,

	Heatmap: `from qgis.core import QgsHeatmapRenderer, QgsStyle
_heat_{{.Var}} = QgsHeatmapRenderer()
_heat_{{.Var}}.setRadius(15)
_heat_{{.Var}}.setMaximumValue(0)
_heat_{{.Var}}.setWeightExpression({{py .Field}})
_heat_{{.Var}}.setColorRamp(QgsStyle.defaultStyle().colorRamp("Reds"))
lyr_{{.Var}}.setRenderer(_heat_{{.Var}})
` + pyqgisTail,

	PointCluster: pyqgisColor + `from qgis.core import QgsPointClusterRenderer, QgsSingleSymbolRenderer, QgsSymbol
_sym_{{.Var}} = QgsSymbol.defaultSymbol(lyr_{{.Var}}.geometryType())
_sym_{{.Var}}.setColor(QColor("{{.Color}}"))
_rend_{{.Var}} = QgsPointClusterRenderer()
_rend_{{.Var}}.setEmbeddedRenderer(QgsSingleSymbolRenderer(_sym_{{.Var}}))
_rend_{{.Var}}.setTolerance(10)
lyr_{{.Var}}.setRenderer(_rend_{{.Var}})
` + pyqgisTail,

	PointDisplacement: pyqgisColor + `from qgis.core import QgsPointDisplacementRenderer, QgsSingleSymbolRenderer, QgsSymbol
_sym_{{.Var}} = QgsSymbol.defaultSymbol(lyr_{{.Var}}.geometryType())
_sym_{{.Var}}.setColor(QColor("{{.Color}}"))
_rend_{{.Var}} = QgsPointDisplacementRenderer()
_rend_{{.Var}}.setEmbeddedRenderer(QgsSingleSymbolRenderer(_sym_{{.Var}}))
_rend_{{.Var}}.setTolerance(10)
lyr_{{.Var}}.setRenderer(_rend_{{.Var}})
` + pyqgisTail,

	InvertedPolygon: pyqgisColor + `from qgis.core import QgsInvertedPolygonRenderer, QgsSingleSymbolRenderer, QgsSymbol
_sym_{{.Var}} = QgsSymbol.defaultSymbol(lyr_{{.Var}}.geometryType())
_sym_{{.Var}}.setColor(QColor("{{.Color}}"))
lyr_{{.Var}}.setRenderer(QgsInvertedPolygonRenderer(QgsSingleSymbolRenderer(_sym_{{.Var}})))
` + pyqgisTail,

	Pseudo3D: pyqgisColor + `from qgis.core import Qgs25DRenderer
_rend_{{.Var}} = Qgs25DRenderer()
_rend_{{.Var}}.setRoofColor(QColor("{{.Color}}"))
_rend_{{.Var}}.setWallColor(QColor("{{.Color}}").darker(150))
_rend_{{.Var}}.setShadowEnabled(True)
lyr_{{.Var}}.setRenderer(_rend_{{.Var}})
` + pyqgisTail,

	NullSymbol: `from qgis.core import QgsNullSymbolRenderer
lyr_{{.Var}}.setRenderer(QgsNullSymbolRenderer())
` + pyqgisTail,
}
