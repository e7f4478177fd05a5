package schema

import "strings"

// Type is the portable, dialect-agnostic column type tag
type Type string

const (
	TypeInteger   Type = "integer"
	TypeFloat     Type = "float"
	TypeText      Type = "text"
	TypeBoolean   Type = "boolean"
	TypeDate      Type = "date"
	TypeTimestamp Type = "timestamp"
	TypeOther     Type = "other"
)

// Types lists every portable tag in a stable order
var Types = []Type{TypeInteger, TypeFloat, TypeText, TypeBoolean, TypeDate, TypeTimestamp, TypeOther}

// Valid reports whether t belongs to the closed vocabulary
func (t Type) Valid() bool {
	for _, v := range Types {
		if v == t {
			return true
		}
	}
	return false
}

// IsNumeric reports whether the tag holds integer or floating point values
func (t Type) IsNumeric() bool {
	return t == TypeInteger || t == TypeFloat
}

var postgresTypes = map[string]Type{
	"integer":                     TypeInteger,
	"bigint":                      TypeInteger,
	"smallint":                    TypeInteger,
	"int2":                        TypeInteger,
	"int4":                        TypeInteger,
	"int8":                        TypeInteger,
	"numeric":                     TypeFloat,
	"double precision":            TypeFloat,
	"real":                        TypeFloat,
	"float4":                      TypeFloat,
	"float8":                      TypeFloat,
	"text":                        TypeText,
	"character varying":           TypeText,
	"character":                   TypeText,
	"varchar":                     TypeText,
	"uuid":                        TypeText,
	"json":                        TypeText,
	"jsonb":                       TypeText,
	"boolean":                     TypeBoolean,
	"date":                        TypeDate,
	"timestamp without time zone": TypeTimestamp,
	"timestamp with time zone":    TypeTimestamp,
	"timestamp":                   TypeTimestamp,
	"timestamptz":                 TypeTimestamp,
}

// FromPostgres maps an information_schema data_type to a portable tag.
// Unknown database types map to TypeOther.
func FromPostgres(dataType string) Type {
	if t, ok := postgresTypes[strings.ToLower(strings.TrimSpace(dataType))]; ok {
		return t
	}
	return TypeOther
}
