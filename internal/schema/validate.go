package schema

import (
	"fmt"
	"strings"
)

// Validate checks the structural invariants of a schema: column names are
// unique per layer, primary keys name existing columns and the geometry column
// does not collide with an attribute column.
func Validate(s *Schema) error {
	if s == nil {
		return ErrNilSchema
	}

	for _, layer := range s.Layers {
		if layer.Table == "" {
			return fmt.Errorf("%w: layer in schema %q has no table name", ErrInvalidSchema, layer.Schema)
		}

		seen := make(map[string]struct{}, len(layer.Columns))
		for _, col := range layer.Columns {
			if _, dup := seen[col.Name]; dup {
				return fmt.Errorf("%w: %s: duplicate column %q", ErrInvalidSchema, layer.QualifiedName(), col.Name)
			}
			seen[col.Name] = struct{}{}
		}

		if _, clash := seen[layer.Geometry.Column]; clash {
			return fmt.Errorf("%w: %s: geometry column %q collides with an attribute column",
				ErrInvalidSchema, layer.QualifiedName(), layer.Geometry.Column)
		}

		for _, pk := range layer.PrimaryKeys {
			if _, ok := seen[pk]; !ok {
				return fmt.Errorf("%w: %s: primary key %q is not a column", ErrInvalidSchema, layer.QualifiedName(), pk)
			}
		}

		if layer.RowCountEstimate != nil && *layer.RowCountEstimate < -1 {
			return fmt.Errorf("%w: %s: negative row count", ErrInvalidSchema, layer.QualifiedName())
		}
	}

	return nil
}

// FilterByNamespace keeps only layers whose namespace equals ns
func FilterByNamespace(s *Schema, ns string) (*Schema, error) {
	if s == nil {
		return nil, ErrNilSchema
	}

	out := &Schema{Database: s.Database, Host: s.Host}
	for _, layer := range s.Layers {
		if layer.Schema == ns {
			out.Layers = append(out.Layers, layer.clone())
		}
	}
	if len(out.Layers) == 0 {
		return nil, fmt.Errorf("%w: no layers in namespace %q", ErrNoLayersMatched, ns)
	}
	return out, nil
}

// FilterByQualifiedName keeps layers whose qualified name is listed, in schema order
func FilterByQualifiedName(s *Schema, names []string) (*Schema, error) {
	if s == nil {
		return nil, ErrNilSchema
	}

	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}

	out := &Schema{Database: s.Database, Host: s.Host}
	for _, layer := range s.Layers {
		if _, ok := want[layer.QualifiedName()]; ok {
			out.Layers = append(out.Layers, layer.clone())
		}
	}
	if len(out.Layers) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoLayersMatched, strings.Join(names, ", "))
	}
	return out, nil
}

// LayerByTable returns a lookup of layers keyed by table name
func LayerByTable(s *Schema) map[string]Layer {
	lookup := make(map[string]Layer)
	if s == nil {
		return lookup
	}
	for _, layer := range s.Layers {
		lookup[layer.Table] = layer
	}
	return lookup
}
