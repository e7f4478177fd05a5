package ops

// arcpyTemplates render against a feature class path bound to fc_<var>.
// The surrounding script imports os and tempfile.
var arcpyTemplates = map[string]string{
	"reproject": `# --- reproject ---
# TODO: set output path and target WKID
_out_reproj_{{.Var}} = os.path.join(tempfile.gettempdir(), "{{pytext .Table}}_reproj.shp")
arcpy.management.Project(
    fc_{{.Var}},
    _out_reproj_{{.Var}},
    arcpy.SpatialReference(4326),
)
print(f"  Reprojected to: {_out_reproj_{{.Var}}}")
`,

	"export": `# --- export ---
# TODO: set output directory
_out_dir_{{.Var}} = tempfile.gettempdir()
arcpy.conversion.FeatureClassToShapefile(fc_{{.Var}}, _out_dir_{{.Var}})
print(f"  Exported shapefile to: {_out_dir_{{.Var}}}")
# GeoJSON instead:
# arcpy.conversion.FeaturesToJSON(
#     fc_{{.Var}},
#     os.path.join(_out_dir_{{.Var}}, "{{pytext .Table}}.geojson"),
#     geoJSON="GEOJSON",
# )
`,

	"buffer": `# --- buffer ---
# TODO: set output path and distance
_out_buf_{{.Var}} = os.path.join(tempfile.gettempdir(), "{{pytext .Table}}_buffer.shp")
arcpy.analysis.Buffer(
    fc_{{.Var}},
    _out_buf_{{.Var}},
    "100 Meters",
    "FULL", "ROUND", "NONE",
)
print(f"  Buffer saved to: {_out_buf_{{.Var}}}")
`,

	"clip": `# --- clip ---
# TODO: set clip boundary path, then uncomment
# _clip_fc_{{.Var}}  = r"C:\path\to\boundary.shp"
# _out_clip_{{.Var}} = os.path.join(tempfile.gettempdir(), "{{pytext .Table}}_clipped.shp")
# arcpy.analysis.Clip(fc_{{.Var}}, _clip_fc_{{.Var}}, _out_clip_{{.Var}})
# print(f"  Clipped to: {_out_clip_{{.Var}}}")
`,

	"select": `# --- select by attribute ---
# TODO: update where clause
_lyr_sel_{{.Var}} = arcpy.management.MakeFeatureLayer(fc_{{.Var}}, "{{pytext .Table}}_sel")[0]
arcpy.management.SelectLayerByAttribute(
    _lyr_sel_{{.Var}}, "NEW_SELECTION", "{{pytext .FirstColumn}} IS NOT NULL",
)
_sel_count_{{.Var}} = int(arcpy.management.GetCount(_lyr_sel_{{.Var}})[0])
print(f"  Selected: {_sel_count_{{.Var}}} features")
arcpy.management.Delete(_lyr_sel_{{.Var}})
`,

	"dissolve": `# --- dissolve ---
# TODO: set dissolve_field (None = dissolve all into one feature)
_out_diss_{{.Var}} = os.path.join(tempfile.gettempdir(), "{{pytext .Table}}_dissolved.shp")
arcpy.management.Dissolve(
    fc_{{.Var}},
    _out_diss_{{.Var}},
    dissolve_field=None,  # e.g. "district_name"
    multi_part="MULTI_PART",
)
print(f"  Dissolved to: {_out_diss_{{.Var}}}")
`,

	"centroid": `# --- centroid ---
_out_cent_{{.Var}} = os.path.join(tempfile.gettempdir(), "{{pytext .Table}}_centroids.shp")
arcpy.management.FeatureToPoint(
    fc_{{.Var}}, _out_cent_{{.Var}}, point_location="CENTROID",
)
print(f"  Centroids saved to: {_out_cent_{{.Var}}}")
`,

	"field_calc": `# --- field calculator ---
# Works on a temp copy so the source database is untouched.
# TODO: set field name, type and expression
_out_calc_{{.Var}} = os.path.join(tempfile.gettempdir(), "{{pytext .Table}}_calc.shp")
arcpy.management.CopyFeatures(fc_{{.Var}}, _out_calc_{{.Var}})
arcpy.management.AddField(_out_calc_{{.Var}}, "new_field", "DOUBLE")
arcpy.management.CalculateField(
    _out_calc_{{.Var}},
    "new_field",
    "!Shape_Area!",
    "PYTHON3",
)
print(f"  Field calculated, saved to: {_out_calc_{{.Var}}}")
`,

	"spatial_join": `# --- spatial join ---
# TODO: set _join_fc_{{.Var}} path, then uncomment
# _join_fc_{{.Var}}   = r"C:\path\to\join_layer.shp"
# _out_sjoin_{{.Var}} = os.path.join(tempfile.gettempdir(), "{{pytext .Table}}_sjoin.shp")
# arcpy.analysis.SpatialJoin(
#     target_features=fc_{{.Var}},
#     join_features=_join_fc_{{.Var}},
#     out_feature_class=_out_sjoin_{{.Var}},
#     join_operation="JOIN_ONE_TO_ONE",
#     join_type="KEEP_ALL",
#     match_option="INTERSECT",
# )
# print(f"  Spatial join saved to: {_out_sjoin_{{.Var}}}")
`,

	"intersect": `# --- intersect ---
# TODO: set _overlay_fc_{{.Var}} path, then uncomment
# _overlay_fc_{{.Var}} = r"C:\path\to\overlay.shp"
# _out_isect_{{.Var}}  = os.path.join(tempfile.gettempdir(), "{{pytext .Table}}_intersect.shp")
# arcpy.analysis.Intersect(
#     in_features=[fc_{{.Var}}, _overlay_fc_{{.Var}}],
#     out_feature_class=_out_isect_{{.Var}},
# )
# print(f"  Intersect saved to: {_out_isect_{{.Var}}}")
`,

	"extrude": `# --- 3D extrude (multipatch) ---
# Requires the 3D Analyst extension.
# TODO: set the height field name
import arcpy.ddd
_HEIGHT_FIELD_{{.Var}} = "height"
_out_mp_{{.Var}} = os.path.join(tempfile.gettempdir(), "{{pytext .Table}}_multipatch.gdb", "{{pytext .Table}}_mp")
arcpy.management.CreateFileGDB(tempfile.gettempdir(), "{{pytext .Table}}_multipatch.gdb")
arcpy.ddd.ExtrudePolygon(
    in_features=fc_{{.Var}},
    out_feature_class=_out_mp_{{.Var}},
    size=_HEIGHT_FIELD_{{.Var}},
)
print(f"  Multipatch saved to: {_out_mp_{{.Var}}}")
`,

	"z_stats": `# --- Z statistics ---
# Requires the 3D Analyst extension. Z fields are added to a temp copy.
import arcpy.ddd
_out_z_{{.Var}} = os.path.join(tempfile.gettempdir(), "{{pytext .Table}}_zstats.shp")
arcpy.management.CopyFeatures(fc_{{.Var}}, _out_z_{{.Var}})
arcpy.ddd.AddZInformation(_out_z_{{.Var}}, "Z_MIN;Z_MAX;Z_MEAN", "NO_FILTER")
with arcpy.da.SearchCursor(_out_z_{{.Var}}, ["Z_MIN", "Z_MAX", "Z_MEAN"]) as _cur_z:
    for _i, _row in enumerate(_cur_z):
        if _i >= 5:
            break
        print(f"  Z_MIN={_row[0]:.2f}  Z_MAX={_row[1]:.2f}  Z_MEAN={_row[2]:.2f}")
`,

	"floor_ceiling": `# --- floor / ceiling heights ---
# Extrudes from a base elevation field up to a roof elevation field.
# Requires the 3D Analyst extension.
# TODO: set the base and roof field names
import arcpy.ddd
_BASE_FIELD_{{.Var}} = "base_height"
_ROOF_FIELD_{{.Var}} = "roof_height"
_out_fc_{{.Var}} = os.path.join(tempfile.gettempdir(), "{{pytext .Table}}_massing.gdb", "{{pytext .Table}}_mp")
arcpy.management.CreateFileGDB(tempfile.gettempdir(), "{{pytext .Table}}_massing.gdb")
arcpy.ddd.ExtrudePolygon(
    in_features=fc_{{.Var}},
    out_feature_class=_out_fc_{{.Var}},
    size=_ROOF_FIELD_{{.Var}},
    base_elevation_field=_BASE_FIELD_{{.Var}},
)
print(f"  Massing saved to: {_out_fc_{{.Var}}}")
`,

	"volume": `# --- approximate volume (footprint area x height) ---
# Exact multipatch volume is available through arcpy.ddd.SurfaceVolume().
# TODO: set the height field name
_VOL_HEIGHT_{{.Var}} = "height"
_total_vol_{{.Var}} = 0.0
with arcpy.da.SearchCursor(
    fc_{{.Var}}, [_VOL_HEIGHT_{{.Var}}, "SHAPE@AREA"]
) as _cur_vol:
    for _row in _cur_vol:
        if _row[0] and _row[1]:
            _total_vol_{{.Var}} += _row[0] * _row[1]
print(f"  Approx. total volume: {_total_vol_{{.Var}}:,.1f} (CRS units^3)")
`,

	"scene_layer": `# --- export to Scene Layer Package (.slpk) ---
# TODO: set output path
_out_slpk_{{.Var}} = os.path.join(tempfile.gettempdir(), "{{pytext .Table}}.slpk")
arcpy.management.CreateSceneLayerPackage(
    in_dataset=fc_{{.Var}},
    output_slpk=_out_slpk_{{.Var}},
)
print(f"  Scene Layer Package: {_out_slpk_{{.Var}}}")
`,
}
