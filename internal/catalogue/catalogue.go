// Package catalogue drives batch generation from a spreadsheet: it reads
// catalogue rows, keeps the ones describing available vector layers and turns
// each into a single-layer schema plus a styling request.
package catalogue

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/cases"
)

// Column names
const (
	ColStatus       = "status"
	ColLayerType    = "spatial_layer_type"
	ColMapName      = "map_name"
	ColTableName    = "table_name"
	ColSchemaName   = "schema_name"
	ColRendererType = "renderer_type"
	ColColor        = "color"
	ColLabelField   = "label_field"
	ColOpacity      = "opacity"
	ColGeometryType = "geometry_type"
)

// RequiredColumns must be present in every catalogue header
var RequiredColumns = []string{ColStatus, ColLayerType, ColMapName, ColTableName}

// Row is one catalogue record
type Row struct {
	Status       string
	LayerType    string
	MapName      string
	TableName    string
	SchemaName   string
	RendererType string
	Color        string
	LabelField   string
	Opacity      string
	GeometryType string

	// Line is the 1-based source row, header included
	Line int
}

// Loader reads catalogues through the injected table readers
type Loader struct {
	readers Readers
}

// NewLoader creates a loader. A nil map uses DefaultReaders.
func NewLoader(readers Readers) *Loader {
	if readers == nil {
		readers = DefaultReaders()
	}
	return &Loader{readers: readers}
}

// Check reports whether path can be read at all, so a batch fails once up
// front instead of per row
func (l *Loader) Check(path string) error {
	_, err := l.readers.For(path)
	return err
}

// LoadFile reads every row of the catalogue at path, in source order
func (l *Loader) LoadFile(path string) ([]Row, error) {
	reader, err := l.readers.For(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()

	return load(path, reader, f)
}

// Load reads every row from r using the reader registered for name's extension
func (l *Loader) Load(name string, r io.Reader) ([]Row, error) {
	reader, err := l.readers.For(name)
	if err != nil {
		return nil, err
	}
	return load(name, reader, r)
}

func load(source string, reader TableReader, r io.Reader) ([]Row, error) {
	records, err := reader.ReadTable(r)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}

	rows, err := Parse(records)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Source = source
			return nil, le
		}
		return nil, &LoadError{Source: source, Err: err}
	}
	return rows, nil
}

// Parse maps raw records onto rows. Headers are matched after trimming and
// lowercasing; unknown columns are ignored and blank lines skipped.
func Parse(records [][]string) ([]Row, error) {
	if len(records) == 0 {
		return nil, ErrEmptyCatalogue
	}

	index := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &LoadError{Missing: missing}
	}

	rows := make([]Row, 0, len(records)-1)
	for n, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		cell := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		rows = append(rows, Row{
			Status:       cell(ColStatus),
			LayerType:    cell(ColLayerType),
			MapName:      cell(ColMapName),
			TableName:    cell(ColTableName),
			SchemaName:   cell(ColSchemaName),
			RendererType: cell(ColRendererType),
			Color:        cell(ColColor),
			LabelField:   cell(ColLabelField),
			Opacity:      cell(ColOpacity),
			GeometryType: cell(ColGeometryType),
			Line:         n + 2,
		})
	}
	return rows, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

var acceptedStatuses = map[string]bool{"have": true, "partial": true}

// Accept reports whether a row describes an available vector layer: status is
// "have" or "partial" and the layer type contains "vector", both ignoring case
func Accept(row Row) bool {
	fold := cases.Fold()
	status := fold.String(strings.TrimSpace(row.Status))
	if !acceptedStatuses[status] {
		return false
	}
	return strings.Contains(fold.String(row.LayerType), "vector")
}

// Filter keeps accepted rows in source order. Rejected rows are dropped
// without any diagnostic.
func Filter(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if Accept(r) {
			out = append(out, r)
		}
	}
	return out
}

// String is a compact description used in listings and logs
func (r Row) String() string {
	return fmt.Sprintf("%s (%s)", r.MapName, r.QualifiedTable())
}

// QualifiedTable returns "<schema>.<table>", assuming "public"
func (r Row) QualifiedTable() string {
	ns := r.SchemaName
	if ns == "" {
		ns = "public"
	}
	return ns + "." + r.TableName
}
