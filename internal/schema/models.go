package schema

// Schema is the root of an extracted spatial database description
type Schema struct {
	Database string  `json:"database"`
	Host     string  `json:"host"`
	Layers   []Layer `json:"layers"`
}

// Layer represents a single spatial table or view
type Layer struct {
	Schema           string   `json:"schema"`
	Table            string   `json:"table"`
	Geometry         Geometry `json:"geometry"`
	Columns          []Column `json:"columns"`
	PrimaryKeys      []string `json:"primary_keys"`
	Comment          string   `json:"comment,omitempty"`
	RowCountEstimate *int64   `json:"row_count_estimate,omitempty"`
}

// Geometry describes the geometry column of a layer
type Geometry struct {
	Column string `json:"column"`
	Type   string `json:"type"`
	SRID   int    `json:"srid"`
}

// Column represents a non-geometry attribute column
type Column struct {
	Name     string `json:"name"`
	Type     Type   `json:"type,omitempty"`
	DataType string `json:"data_type,omitempty"`
	Nullable bool   `json:"nullable"`
}

// QualifiedName returns "<schema>.<table>"
func (l Layer) QualifiedName() string {
	return l.Schema + "." + l.Table
}

// FirstColumn returns the first attribute column name, or fallback when the layer has none
func (l Layer) FirstColumn(fallback string) string {
	if len(l.Columns) == 0 {
		return fallback
	}
	return l.Columns[0].Name
}

// PrimaryKey returns the first primary key column or an empty string
func (l Layer) PrimaryKey() string {
	if len(l.PrimaryKeys) == 0 {
		return ""
	}
	return l.PrimaryKeys[0]
}

// RowCount returns the row estimate and whether it is known
func (l Layer) RowCount() (int64, bool) {
	if l.RowCountEstimate == nil || *l.RowCountEstimate < 0 {
		return 0, false
	}
	return *l.RowCountEstimate, true
}

// Clone returns a deep copy of the schema so callers can filter layers without
// touching the producer's value.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := &Schema{Database: s.Database, Host: s.Host}
	if s.Layers != nil {
		out.Layers = make([]Layer, len(s.Layers))
		for i, l := range s.Layers {
			out.Layers[i] = l.clone()
		}
	}
	return out
}

func (l Layer) clone() Layer {
	c := l
	c.Columns = append([]Column(nil), l.Columns...)
	c.PrimaryKeys = append([]string(nil), l.PrimaryKeys...)
	if l.RowCountEstimate != nil {
		n := *l.RowCountEstimate
		c.RowCountEstimate = &n
	}
	return c
}
