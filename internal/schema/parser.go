package schema

import (
	"encoding/json"
	"fmt"
	"os"
)

// ParseSchema decodes a schema JSON document and normalizes column types.
// Columns that only carry a database data_type get their portable tag derived
// from it; unrecognized tags are kept and later coerce to the dialect's text type.
func ParseSchema(input []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(input, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	normalize(&s)
	return &s, nil
}

// LoadFile reads and parses a schema JSON file
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	return ParseSchema(data)
}

// Marshal encodes the schema the same way the extractor writes it
func Marshal(s *Schema) ([]byte, error) {
	if s == nil {
		return nil, ErrNilSchema
	}
	return json.MarshalIndent(s, "", "  ")
}

func normalize(s *Schema) {
	for i := range s.Layers {
		layer := &s.Layers[i]
		if layer.Schema == "" {
			layer.Schema = "public"
		}
		if layer.Geometry.Column == "" {
			layer.Geometry.Column = "geom"
		}
		if layer.Geometry.Type == "" {
			layer.Geometry.Type = "GEOMETRY"
		}
		for j := range layer.Columns {
			col := &layer.Columns[j]
			if col.Type == "" {
				col.Type = FromPostgres(col.DataType)
			}
		}
	}
}
