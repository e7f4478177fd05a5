package symbology

const qgsSymbol = `  <symbols>
    <symbol name="0" type="{{.SymbolXML}}" alpha="{{.Opacity}}" clip_to_extent="1">
      <layer class="{{.LayerClass}}" enabled="1" locked="0" pass="0">
        <prop k="color" v="{{.R}},{{.G}},{{.B}},255"/>
      </layer>
    </symbol>
  </symbols>
`

const qgsNested = `  <renderer-v2 type="singleSymbol" symbollevels="0" enableorderby="0" forceraster="0">
    <symbols>
      <symbol name="0" type="{{.SymbolXML}}" alpha="{{.Opacity}}" clip_to_extent="1">
        <layer class="{{.LayerClass}}" enabled="1" locked="0" pass="0">
          <prop k="color" v="{{.R}},{{.G}},{{.B}},255"/>
        </layer>
      </symbol>
    </symbols>
  </renderer-v2>
`

const qgsEnd = `</renderer-v2>
`

var qgsTemplates = map[Renderer]string{
	SingleSymbol: `<renderer-v2 type="singleSymbol" symbollevels="0" enableorderby="0" forceraster="0">
` + qgsSymbol + qgsEnd,

	Categorized: `<renderer-v2 type="categorizedSymbol" attr="{{html .Field}}" symbollevels="0" enableorderby="0" forceraster="0">
  <categories/>
` + qgsSymbol + qgsEnd,

	Graduated: `<renderer-v2 type="graduatedSymbol" attr="{{html .Field}}" graduatedMethod="GraduatedColor" symbollevels="0" enableorderby="0" forceraster="0">
  <ranges/>
  <mode name="quantile"/>
` + qgsSymbol + qgsEnd,

	RuleBased: `<renderer-v2 type="RuleRenderer" symbollevels="0" enableorderby="0" forceraster="0">
  <rules key="root">
    <rule key="r0" symbol="0" label="{{html .Field}} set" filter="{{html (printf "%s IS NOT NULL" (sqlident .Field))}}"/>
  </rules>
` + qgsSymbol + qgsEnd,

	Heatmap: `<renderer-v2 type="heatmapRenderer" radius="15" radius_unit="3" max_value="0" quality="3" weight_expression="{{html .Field}}" enableorderby="0" forceraster="0"/>
`,

	PointCluster: `<renderer-v2 type="pointCluster" tolerance="10" toleranceUnit="MM" enableorderby="0" forceraster="0">
` + qgsNested + qgsEnd,

	PointDisplacement: `<renderer-v2 type="pointDisplacement" tolerance="10" toleranceUnit="MM" placement="0" enableorderby="0" forceraster="0">
` + qgsNested + qgsEnd,

	InvertedPolygon: `<renderer-v2 type="invertedPolygonRenderer" preprocessing="0" enableorderby="0" forceraster="0">
` + qgsNested + qgsEnd,

	Pseudo3D: `<renderer-v2 type="25dRenderer" enableorderby="0" forceraster="0">
` + qgsSymbol + qgsEnd,

	NullSymbol: `<renderer-v2 type="nullSymbol"/>
`,
}
