// Package extract introspects a PostGIS database read-only and produces the
// schema consumed by the generators.
package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/okra-platform/gisgen/internal/config"
	"github.com/okra-platform/gisgen/internal/schema"
)

// ErrConnect is returned when the database cannot be reached
var ErrConnect = errors.New("could not connect to database")

// SpatialLayer is one row of geometry_columns
type SpatialLayer struct {
	Schema       string  `db:"schema_name"`
	Table        string  `db:"table_name"`
	GeomColumn   string  `db:"geom_column"`
	GeomType     string  `db:"geom_type"`
	SRID         int     `db:"srid"`
	TableComment *string `db:"table_comment"`
}

// Catalog is the introspection surface the extractor needs
type Catalog interface {
	SpatialLayers(ctx context.Context) ([]SpatialLayer, error)
	Columns(ctx context.Context, ns, table string) ([]schema.Column, error)
	PrimaryKeys(ctx context.Context, ns, table string) ([]string, error)
	RowEstimate(ctx context.Context, ns, table string) (int64, error)
}

// Options controls an extraction
type Options struct {
	// RowCounts adds pg_class row estimates to each layer
	RowCounts bool
}

// Extractor builds a schema from a Catalog
type Extractor struct {
	catalog Catalog
	logger  zerolog.Logger
}

// NewExtractor creates an extractor over catalog
func NewExtractor(catalog Catalog, logger zerolog.Logger) *Extractor {
	return &Extractor{
		catalog: catalog,
		logger:  logger.With().Str("component", "extract").Logger(),
	}
}

// Extract reads every registered spatial layer in catalog order. A failed row
// estimate is logged and recorded as unknown; any other failure aborts.
func (e *Extractor) Extract(ctx context.Context, database, host string, opts Options) (*schema.Schema, error) {
	spatial, err := e.catalog.SpatialLayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list spatial layers: %w", err)
	}
	if len(spatial) == 0 {
		e.logger.Warn().Msg("no spatial layers found in geometry_columns")
	}

	out := &schema.Schema{Database: database, Host: host, Layers: make([]schema.Layer, 0, len(spatial))}
	for _, sl := range spatial {
		layer := schema.Layer{
			Schema:   sl.Schema,
			Table:    sl.Table,
			Geometry: schema.Geometry{Column: sl.GeomColumn, Type: sl.GeomType, SRID: sl.SRID},
		}
		if sl.TableComment != nil {
			layer.Comment = *sl.TableComment
		}

		if layer.Columns, err = e.catalog.Columns(ctx, sl.Schema, sl.Table); err != nil {
			return nil, fmt.Errorf("failed to read columns of %s: %w", layer.QualifiedName(), err)
		}
		if layer.PrimaryKeys, err = e.catalog.PrimaryKeys(ctx, sl.Schema, sl.Table); err != nil {
			return nil, fmt.Errorf("failed to read primary keys of %s: %w", layer.QualifiedName(), err)
		}

		if opts.RowCounts {
			n, err := e.catalog.RowEstimate(ctx, sl.Schema, sl.Table)
			if err != nil {
				e.logger.Warn().Err(err).Str("layer", layer.QualifiedName()).Msg("row count estimate failed")
				n = -1
			}
			layer.RowCountEstimate = &n
		}

		e.logger.Debug().
			Str("layer", layer.QualifiedName()).
			Int("columns", len(layer.Columns)).
			Msg("extracted layer")
		out.Layers = append(out.Layers, layer)
	}
	return out, nil
}

// Connect opens a read-only pgx connection for db
func Connect(ctx context.Context, db config.Database) (*pgx.Conn, error) {
	cfg, err := pgx.ParseConfig(db.DSN())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	cfg.RuntimeParams["default_transaction_read_only"] = "on"
	cfg.RuntimeParams["application_name"] = "gisgen"

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s@%s:%d/%s: %v", ErrConnect, db.User, db.Host, db.Port, db.DBName, err)
	}
	return conn, nil
}
