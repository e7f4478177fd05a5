package extract

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okra-platform/gisgen/internal/config"
	"github.com/okra-platform/gisgen/internal/schema"
)

// Test plan:
// - Layers come back in catalog order with columns, keys and comments
// - Row estimates are only queried when asked for
// - A failed estimate logs a warning and records -1
// - Column and key failures abort the extraction
// - An unreachable database surfaces ErrConnect

type fakeCatalog struct {
	layers   []SpatialLayer
	columns  map[string][]schema.Column
	keys     map[string][]string
	rows     map[string]int64
	rowErr   error
	colErr   error
	estimate int
}

func (f *fakeCatalog) SpatialLayers(context.Context) ([]SpatialLayer, error) {
	return f.layers, nil
}

func (f *fakeCatalog) Columns(_ context.Context, ns, table string) ([]schema.Column, error) {
	if f.colErr != nil {
		return nil, f.colErr
	}
	return f.columns[ns+"."+table], nil
}

func (f *fakeCatalog) PrimaryKeys(_ context.Context, ns, table string) ([]string, error) {
	return f.keys[ns+"."+table], nil
}

func (f *fakeCatalog) RowEstimate(_ context.Context, ns, table string) (int64, error) {
	f.estimate++
	if f.rowErr != nil {
		return -1, f.rowErr
	}
	return f.rows[ns+"."+table], nil
}

func strPtr(s string) *string { return &s }

func newFake() *fakeCatalog {
	return &fakeCatalog{
		layers: []SpatialLayer{
			{Schema: "public", Table: "parcels", GeomColumn: "geom", GeomType: "MULTIPOLYGON", SRID: 2193, TableComment: strPtr("Land parcels")},
			{Schema: "transit", Table: "stops", GeomColumn: "location", GeomType: "POINT", SRID: 4326},
		},
		columns: map[string][]schema.Column{
			"public.parcels": {
				{Name: "parcel_id", Type: schema.FromPostgres("integer"), DataType: "integer"},
				{Name: "area_m2", Type: schema.FromPostgres("double precision"), DataType: "double precision", Nullable: true},
			},
			"transit.stops": {
				{Name: "code", Type: schema.FromPostgres("text"), DataType: "text"},
			},
		},
		keys: map[string][]string{"public.parcels": {"parcel_id"}},
		rows: map[string]int64{"public.parcels": 1200, "transit.stops": 87},
	}
}

func TestExtract(t *testing.T) {
	fake := newFake()
	e := NewExtractor(fake, zerolog.Nop())

	s, err := e.Extract(context.Background(), "city", "db.local", Options{RowCounts: true})
	require.NoError(t, err)
	require.NoError(t, schema.Validate(s))

	assert.Equal(t, "city", s.Database)
	assert.Equal(t, "db.local", s.Host)
	require.Len(t, s.Layers, 2)

	parcels := s.Layers[0]
	assert.Equal(t, "public.parcels", parcels.QualifiedName())
	assert.Equal(t, schema.Geometry{Column: "geom", Type: "MULTIPOLYGON", SRID: 2193}, parcels.Geometry)
	assert.Equal(t, "Land parcels", parcels.Comment)
	assert.Equal(t, []string{"parcel_id"}, parcels.PrimaryKeys)
	assert.Equal(t, schema.TypeFloat, parcels.Columns[1].Type)
	n, ok := parcels.RowCount()
	assert.True(t, ok)
	assert.Equal(t, int64(1200), n)

	stops := s.Layers[1]
	assert.Empty(t, stops.Comment)
	assert.Empty(t, stops.PrimaryKeys)
	assert.Equal(t, 2, fake.estimate)
}

func TestExtract_NoRowCounts(t *testing.T) {
	fake := newFake()
	s, err := NewExtractor(fake, zerolog.Nop()).Extract(context.Background(), "city", "h", Options{})
	require.NoError(t, err)

	assert.Zero(t, fake.estimate)
	for _, l := range s.Layers {
		assert.Nil(t, l.RowCountEstimate)
	}
}

func TestExtract_RowEstimateFailure(t *testing.T) {
	fake := newFake()
	fake.rowErr = errors.New("permission denied for relation")

	var buf bytes.Buffer
	s, err := NewExtractor(fake, zerolog.New(&buf)).Extract(context.Background(), "city", "h", Options{RowCounts: true})
	require.NoError(t, err)

	for _, l := range s.Layers {
		require.NotNil(t, l.RowCountEstimate)
		assert.Equal(t, int64(-1), *l.RowCountEstimate)
		_, ok := l.RowCount()
		assert.False(t, ok)
	}
	assert.Contains(t, buf.String(), "row count estimate failed")
	assert.Contains(t, buf.String(), `"component":"extract"`)
	assert.Contains(t, buf.String(), "transit.stops")
}

func TestExtract_ColumnFailureAborts(t *testing.T) {
	fake := newFake()
	fake.colErr = errors.New("connection reset")

	s, err := NewExtractor(fake, zerolog.Nop()).Extract(context.Background(), "city", "h", Options{})
	require.Error(t, err)
	assert.Nil(t, s)
	assert.Contains(t, err.Error(), "public.parcels")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestExtract_EmptyDatabase(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewExtractor(&fakeCatalog{}, zerolog.New(&buf)).Extract(context.Background(), "empty", "h", Options{})
	require.NoError(t, err)
	assert.Empty(t, s.Layers)
	assert.Contains(t, buf.String(), "no spatial layers")
}

func TestConnect_Unreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Connect(ctx, config.Database{Host: "127.0.0.1", Port: 1, DBName: "none", User: "nobody", Password: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnect)
	assert.Contains(t, err.Error(), "nobody@127.0.0.1:1/none")
}
