package commands

import (
	"context"

	"github.com/okra-platform/gisgen/internal/config"
	"github.com/okra-platform/gisgen/internal/schema"
)

// ExtractOptions contains options for the extract command
type ExtractOptions struct {
	Connection   config.Database
	SchemaFilter string
	NoRowCounts  bool
	Output       string
}

// Extract introspects the database and writes the schema JSON
func (c *Controller) Extract(ctx context.Context, opts ExtractOptions) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.SchemaFilter == "" {
		opts.SchemaFilter = cfg.Defaults.SchemaFilter
	}

	db := c.resolveDatabase(cfg, opts.Connection)
	s, err := c.extractLive(ctx, db, !opts.NoRowCounts && !cfg.Defaults.NoRowCounts)
	if err != nil {
		return err
	}

	if opts.SchemaFilter != "" {
		if s, err = schema.FilterByNamespace(s, opts.SchemaFilter); err != nil {
			return err
		}
	}

	data, err := schema.Marshal(s)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if opts.Output == "" {
		_, err := c.stdout().Write(data)
		return err
	}
	if err := writeFile(opts.Output, data); err != nil {
		return err
	}
	logger := c.logger()
	logger.Info().
		Str("path", opts.Output).
		Int("layers", len(s.Layers)).
		Msg("schema written")
	return nil
}
