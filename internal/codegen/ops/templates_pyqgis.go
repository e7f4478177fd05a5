package ops

// pyqgisTemplates render against a QgsVectorLayer bound to lyr_<var>
var pyqgisTemplates = map[string]string{
	"reproject": `# --- reproject ---
# TODO: change "EPSG:4326" to your target CRS
_target_crs_{{.Var}} = QgsCoordinateReferenceSystem("EPSG:4326")
_reproj_{{.Var}} = processing.run("native:reprojectlayer", {
    "INPUT":      lyr_{{.Var}},
    "TARGET_CRS": _target_crs_{{.Var}},
    "OUTPUT":     "memory:",
})
lyr_{{.Var}}_reprojected = _reproj_{{.Var}}["OUTPUT"]
print(f"  Reprojected: {lyr_{{.Var}}_reprojected.featureCount()} features")
`,

	"export": `# --- export to GeoJSON ---
# TODO: change output path
from qgis.core import QgsVectorFileWriter
_out_{{.Var}} = f"/tmp/{{fstr .Table}}.geojson"
_err_{{.Var}}, _msg_{{.Var}} = QgsVectorFileWriter.writeAsVectorFormat(
    lyr_{{.Var}}, _out_{{.Var}}, "utf-8", lyr_{{.Var}}.crs(), "GeoJSON",
)
if _err_{{.Var}} == QgsVectorFileWriter.NoError:
    print(f"  Exported to {_out_{{.Var}}}")
else:
    print(f"  Export error: {_msg_{{.Var}}}")
`,

	"buffer": `# --- buffer ---
# TODO: set DISTANCE in layer CRS units
_buf_{{.Var}} = processing.run("native:buffer", {
    "INPUT":         lyr_{{.Var}},
    "DISTANCE":      100,
    "SEGMENTS":      5,
    "END_CAP_STYLE": 0,
    "JOIN_STYLE":    0,
    "MITER_LIMIT":   2,
    "DISSOLVE":      False,
    "OUTPUT":        "memory:",
})
lyr_{{.Var}}_buffer = _buf_{{.Var}}["OUTPUT"]
print(f"  Buffer: {lyr_{{.Var}}_buffer.featureCount()} features")
`,

	"clip": `# --- clip ---
# TODO: define clip_layer_{{.Var}}, then uncomment
# clip_layer_{{.Var}} = QgsVectorLayer("/path/to/boundary.shp", "boundary", "ogr")
# _clip_{{.Var}} = processing.run("native:clip", {
#     "INPUT":   lyr_{{.Var}},
#     "OVERLAY": clip_layer_{{.Var}},
#     "OUTPUT":  "memory:",
# })
# lyr_{{.Var}}_clipped = _clip_{{.Var}}["OUTPUT"]
# print(f"  Clipped: {lyr_{{.Var}}_clipped.featureCount()} features")
`,

	"select": `# --- select by attribute ---
# TODO: update expression
lyr_{{.Var}}.selectByExpression({{pysq (printf "%s IS NOT NULL" (sqlident .FirstColumn))}})
print(f"  Selected: {lyr_{{.Var}}.selectedFeatureCount()} features")
lyr_{{.Var}}.removeSelection()
`,

	"dissolve": `# --- dissolve ---
# TODO: set FIELD list (empty = dissolve all into one feature)
_diss_{{.Var}} = processing.run("native:dissolve", {
    "INPUT":  lyr_{{.Var}},
    "FIELD":  [],  # e.g. ["district_name"]
    "OUTPUT": "memory:",
})
lyr_{{.Var}}_dissolved = _diss_{{.Var}}["OUTPUT"]
print(f"  Dissolved: {lyr_{{.Var}}_dissolved.featureCount()} features")
`,

	"centroid": `# --- centroid ---
_cent_{{.Var}} = processing.run("native:centroids", {
    "INPUT":     lyr_{{.Var}},
    "ALL_PARTS": False,
    "OUTPUT":    "memory:",
})
lyr_{{.Var}}_centroids = _cent_{{.Var}}["OUTPUT"]
print(f"  Centroids: {lyr_{{.Var}}_centroids.featureCount()} points")
`,

	"field_calc": `# --- field calculator ---
# TODO: set FIELD_NAME and FORMULA (QGIS expression syntax)
_calc_{{.Var}} = processing.run("native:fieldcalculator", {
    "INPUT":           lyr_{{.Var}},
    "FIELD_NAME":      "new_field",
    "FIELD_TYPE":      0,            # 0=float, 1=int, 2=string
    "FIELD_LENGTH":    20,
    "FIELD_PRECISION": 3,
    "FORMULA":         "$area",
    "OUTPUT":          "memory:",
})
lyr_{{.Var}}_calculated = _calc_{{.Var}}["OUTPUT"]
print(f"  Field calculated: {lyr_{{.Var}}_calculated.featureCount()} features")
`,

	"spatial_join": `# --- spatial join ---
# TODO: define join_layer_{{.Var}}, then uncomment
# join_layer_{{.Var}} = QgsVectorLayer("/path/to/join.shp", "join", "ogr")
# _sjoin_{{.Var}} = processing.run("native:joinattributesbylocation", {
#     "INPUT":               lyr_{{.Var}},
#     "JOIN":                join_layer_{{.Var}},
#     "PREDICATE":           [0],  # 0=intersects, 1=contains, 2=equals
#     "JOIN_FIELDS":         [],   # empty = all fields
#     "METHOD":              1,    # 1=first match, 2=largest overlap
#     "DISCARD_NONMATCHING": False,
#     "OUTPUT":              "memory:",
# })
# lyr_{{.Var}}_joined = _sjoin_{{.Var}}["OUTPUT"]
# print(f"  Spatial join: {lyr_{{.Var}}_joined.featureCount()} features")
`,

	"intersect": `# --- intersect ---
# TODO: define overlay_layer_{{.Var}}, then uncomment
# overlay_layer_{{.Var}} = QgsVectorLayer("/path/to/overlay.shp", "overlay", "ogr")
# _isect_{{.Var}} = processing.run("native:intersection", {
#     "INPUT":          lyr_{{.Var}},
#     "OVERLAY":        overlay_layer_{{.Var}},
#     "INPUT_FIELDS":   [],
#     "OVERLAY_FIELDS": [],
#     "OUTPUT":         "memory:",
# })
# lyr_{{.Var}}_intersected = _isect_{{.Var}}["OUTPUT"]
# print(f"  Intersect: {lyr_{{.Var}}_intersected.featureCount()} features")
`,

	"extrude": `# --- 3D extrude ---
# Data-defined extrusion renderer driven by a height attribute.
# TODO: set the height field name
from qgis.core import (
    QgsPolygon3DSymbol, QgsVectorLayer3DRenderer,
    QgsAbstract3DSymbol, QgsProperty,
)
_HEIGHT_FIELD_{{.Var}} = "height"
_sym3d_{{.Var}} = QgsPolygon3DSymbol()
_ddp_{{.Var}} = _sym3d_{{.Var}}.dataDefinedProperties()
_ddp_{{.Var}}.setProperty(
    QgsAbstract3DSymbol.PropertyExtrusionHeight,
    QgsProperty.fromField(_HEIGHT_FIELD_{{.Var}}),
)
_sym3d_{{.Var}}.setDataDefinedProperties(_ddp_{{.Var}})
_rndr3d_{{.Var}} = QgsVectorLayer3DRenderer()
_rndr3d_{{.Var}}.setSymbol(_sym3d_{{.Var}})
lyr_{{.Var}}.setRenderer3D(_rndr3d_{{.Var}})
lyr_{{.Var}}.triggerRepaint()
print(f"  3D extrusion applied using '{_HEIGHT_FIELD_{{.Var}}}'")
`,

	"z_stats": `# --- Z statistics ---
from qgis.core import QgsWkbTypes
if QgsWkbTypes.hasZ(lyr_{{.Var}}.wkbType()):
    _zvals_{{.Var}} = []
    for _feat in lyr_{{.Var}}.getFeatures():
        for _v in _feat.geometry().vertices():
            _zvals_{{.Var}}.append(_v.z())
    if _zvals_{{.Var}}:
        print(f"  Z min : {min(_zvals_{{.Var}}):.3f}")
        print(f"  Z max : {max(_zvals_{{.Var}}):.3f}")
        print(f"  Z mean: {sum(_zvals_{{.Var}})/len(_zvals_{{.Var}}):.3f}")
else:
    print("  Layer has no Z values; load a 3D geometry source.")
`,

	"floor_ceiling": `# --- floor / ceiling heights ---
# Extrudes from a base elevation field up to a roof elevation field.
# TODO: set the base and roof field names
from qgis.core import (
    QgsPolygon3DSymbol, QgsVectorLayer3DRenderer,
    QgsAbstract3DSymbol, QgsProperty,
)
_BASE_FIELD_{{.Var}} = "base_height"
_ROOF_FIELD_{{.Var}} = "roof_height"
_sym_fc_{{.Var}} = QgsPolygon3DSymbol()
_ddp_fc_{{.Var}} = _sym_fc_{{.Var}}.dataDefinedProperties()
_ddp_fc_{{.Var}}.setProperty(
    QgsAbstract3DSymbol.PropertyHeight,
    QgsProperty.fromField(_BASE_FIELD_{{.Var}}),
)
_ddp_fc_{{.Var}}.setProperty(
    QgsAbstract3DSymbol.PropertyExtrusionHeight,
    QgsProperty.fromExpression(
        f'"{_ROOF_FIELD_{{.Var}}}" - "{_BASE_FIELD_{{.Var}}}"'
    ),
)
_sym_fc_{{.Var}}.setDataDefinedProperties(_ddp_fc_{{.Var}})
_rndr_fc_{{.Var}} = QgsVectorLayer3DRenderer()
_rndr_fc_{{.Var}}.setSymbol(_sym_fc_{{.Var}})
lyr_{{.Var}}.setRenderer3D(_rndr_fc_{{.Var}})
lyr_{{.Var}}.triggerRepaint()
print(f"  Floor/ceiling extrusion: base='{_BASE_FIELD_{{.Var}}}' roof='{_ROOF_FIELD_{{.Var}}}'")
`,

	"volume": `# --- approximate volume (footprint area x height) ---
# TODO: set the height field name
# Exact 3D volume is available through ST_Volume() in PostGIS.
_VOL_HEIGHT_{{.Var}} = "height"
_total_vol_{{.Var}} = 0.0
for _feat in lyr_{{.Var}}.getFeatures():
    _h = _feat[_VOL_HEIGHT_{{.Var}}]
    if _h:
        _total_vol_{{.Var}} += _feat.geometry().area() * float(_h)
print(f"  Approx. total volume: {_total_vol_{{.Var}}:,.1f} (CRS units^3)")
`,

	"scene_layer": `# --- export to 3D Tiles (QGIS 3.34+) ---
# TODO: set the output directory; the layer needs a 3D renderer
_out_tiles_{{.Var}} = f"/tmp/{{fstr .Table}}_3dtiles"
import os as _os
_os.makedirs(_out_tiles_{{.Var}}, exist_ok=True)
# processing.run("native:convert3dtiles", {
#     "INPUT":         lyr_{{.Var}},
#     "OUTPUT_FOLDER": _out_tiles_{{.Var}},
#     "COMPRESSION":   0,  # 0=None, 1=GZIP
# })
# print(f"  3D Tiles written to: {_out_tiles_{{.Var}}}")
`,
}
