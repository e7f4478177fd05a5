package target

import "github.com/okra-platform/gisgen/internal/schema"

// typeTables maps every portable tag to a dialect type token. Each table must
// carry schema.TypeText, which is the fallback for tags it does not list.
var typeTables = map[Dialect]map[schema.Type]string{
	PyQGIS: {
		schema.TypeInteger:   "int",
		schema.TypeFloat:     "float",
		schema.TypeText:      "str",
		schema.TypeBoolean:   "bool",
		schema.TypeDate:      "QDate",
		schema.TypeTimestamp: "QDateTime",
		schema.TypeOther:     "str",
	},
	ArcPy: {
		schema.TypeInteger:   "LONG",
		schema.TypeFloat:     "DOUBLE",
		schema.TypeText:      "TEXT",
		schema.TypeBoolean:   "SHORT",
		schema.TypeDate:      "DATE",
		schema.TypeTimestamp: "DATE",
		schema.TypeOther:     "TEXT",
	},
	Folium: {
		schema.TypeInteger:   "int64",
		schema.TypeFloat:     "float64",
		schema.TypeText:      "object",
		schema.TypeBoolean:   "bool",
		schema.TypeDate:      "datetime64[ns]",
		schema.TypeTimestamp: "datetime64[ns]",
		schema.TypeOther:     "object",
	},
	Kepler: {
		schema.TypeInteger:   "integer",
		schema.TypeFloat:     "real",
		schema.TypeText:      "string",
		schema.TypeBoolean:   "boolean",
		schema.TypeDate:      "date",
		schema.TypeTimestamp: "timestamp",
		schema.TypeOther:     "string",
	},
	Deck: {
		schema.TypeInteger:   "number",
		schema.TypeFloat:     "number",
		schema.TypeText:      "string",
		schema.TypeBoolean:   "boolean",
		schema.TypeDate:      "string",
		schema.TypeTimestamp: "string",
		schema.TypeOther:     "string",
	},
	Export: {
		schema.TypeInteger:   "Integer64",
		schema.TypeFloat:     "Real",
		schema.TypeText:      "String",
		schema.TypeBoolean:   "Integer(Boolean)",
		schema.TypeDate:      "Date",
		schema.TypeTimestamp: "DateTime",
		schema.TypeOther:     "String",
	},
	QGS: {
		schema.TypeInteger:   "int",
		schema.TypeFloat:     "double",
		schema.TypeText:      "QString",
		schema.TypeBoolean:   "bool",
		schema.TypeDate:      "QDate",
		schema.TypeTimestamp: "QDateTime",
		schema.TypeOther:     "QString",
	},
	PYT: {
		schema.TypeInteger:   "GPLong",
		schema.TypeFloat:     "GPDouble",
		schema.TypeText:      "GPString",
		schema.TypeBoolean:   "GPBoolean",
		schema.TypeDate:      "GPDate",
		schema.TypeTimestamp: "GPDate",
		schema.TypeOther:     "GPString",
	},
}

// Coerce maps a portable column type to the type token of dialect d.
// It never fails: unknown tags take the dialect's text token, and unknown
// dialects take the PyQGIS vocabulary.
func Coerce(t schema.Type, d Dialect) string {
	table, ok := typeTables[d]
	if !ok {
		table = typeTables[PyQGIS]
	}
	if token, ok := table[t]; ok {
		return token
	}
	return table[schema.TypeText]
}
