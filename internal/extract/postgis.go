package extract

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/okra-platform/gisgen/internal/schema"
)

const spatialLayersSQL = `
SELECT
    gc.f_table_schema::text    AS schema_name,
    gc.f_table_name::text      AS table_name,
    gc.f_geometry_column::text AS geom_column,
    gc.type::text              AS geom_type,
    gc.srid::int               AS srid,
    obj_description(
        (quote_ident(gc.f_table_schema) || '.' || quote_ident(gc.f_table_name))::regclass,
        'pg_class'
    ) AS table_comment
FROM geometry_columns gc
ORDER BY gc.f_table_schema, gc.f_table_name`

const columnsSQL = `
SELECT
    c.column_name::text      AS column_name,
    c.data_type::text        AS data_type,
    (c.is_nullable = 'YES')  AS nullable
FROM information_schema.columns c
WHERE c.table_schema = $1
  AND c.table_name   = $2
  AND c.column_name NOT IN (
      SELECT f_geometry_column
      FROM geometry_columns
      WHERE f_table_schema = $1
        AND f_table_name   = $2
  )
ORDER BY c.ordinal_position`

const primaryKeySQL = `
SELECT kcu.column_name::text
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name
 AND tc.table_schema    = kcu.table_schema
 AND tc.table_name      = kcu.table_name
WHERE tc.constraint_type = 'PRIMARY KEY'
  AND tc.table_schema    = $1
  AND tc.table_name      = $2
ORDER BY kcu.ordinal_position`

const rowEstimateSQL = `
SELECT reltuples::bigint
FROM pg_class
WHERE oid = (quote_ident($1) || '.' || quote_ident($2))::regclass`

// Querier is the part of *pgx.Conn and *pgxpool.Pool used by PostGIS
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostGIS reads the catalog through PostGIS metadata views
type PostGIS struct {
	db Querier
}

// NewPostGIS creates a catalog over db
func NewPostGIS(db Querier) *PostGIS {
	return &PostGIS{db: db}
}

type columnRow struct {
	Name     string `db:"column_name"`
	DataType string `db:"data_type"`
	Nullable bool   `db:"nullable"`
}

// SpatialLayers implements Catalog
func (p *PostGIS) SpatialLayers(ctx context.Context) ([]SpatialLayer, error) {
	rows, err := p.db.Query(ctx, spatialLayersSQL)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[SpatialLayer])
}

// Columns implements Catalog
func (p *PostGIS) Columns(ctx context.Context, ns, table string) ([]schema.Column, error) {
	rows, err := p.db.Query(ctx, columnsSQL, ns, table)
	if err != nil {
		return nil, err
	}
	raw, err := pgx.CollectRows(rows, pgx.RowToStructByName[columnRow])
	if err != nil {
		return nil, err
	}

	cols := make([]schema.Column, len(raw))
	for i, r := range raw {
		cols[i] = schema.Column{
			Name:     r.Name,
			Type:     schema.FromPostgres(r.DataType),
			DataType: r.DataType,
			Nullable: r.Nullable,
		}
	}
	return cols, nil
}

// PrimaryKeys implements Catalog
func (p *PostGIS) PrimaryKeys(ctx context.Context, ns, table string) ([]string, error) {
	rows, err := p.db.Query(ctx, primaryKeySQL, ns, table)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// RowEstimate implements Catalog
func (p *PostGIS) RowEstimate(ctx context.Context, ns, table string) (int64, error) {
	var n int64
	if err := p.db.QueryRow(ctx, rowEstimateSQL, ns, table).Scan(&n); err != nil {
		return -1, err
	}
	return n, nil
}
