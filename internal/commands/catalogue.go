package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/okra-platform/gisgen/internal/catalogue"
	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/config"
	"github.com/okra-platform/gisgen/internal/layout"
	"github.com/okra-platform/gisgen/internal/schema"
	"github.com/okra-platform/gisgen/internal/symbology"
)

const defaultCatalogueDir = "maps"

// CatalogueOptions contains options for the catalogue command
type CatalogueOptions struct {
	Input      string
	OutputDir  string
	Platform   string
	Connection config.Database

	// SchemaFile enriches rows with columns and geometry from a saved schema
	SchemaFile string

	Operations []string
	Template   string
	List       bool

	// Parallel bounds concurrent file writes; zero means GOMAXPROCS
	Parallel int
}

// Catalogue generates one artifact per accepted catalogue row
func (c *Controller) Catalogue(ctx context.Context, opts CatalogueOptions) error {
	logger := c.logger()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.Platform == "" {
		opts.Platform = cfg.Defaults.Platform
	}
	if opts.Platform == "" {
		opts.Platform = string(target.PyQGIS)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = defaultCatalogueDir
	}

	loader := catalogue.NewLoader(nil)
	if err := loader.Check(opts.Input); err != nil {
		return err
	}
	rows, err := loader.LoadFile(opts.Input)
	if err != nil {
		return err
	}
	accepted := catalogue.Filter(rows)
	logger.Info().Str("input", opts.Input).Int("maps", len(accepted)).Msg("catalogue loaded")

	if opts.List {
		return listRows(c.stdout(), accepted)
	}

	conn := mergeExplicit(opts.Connection, cfg.Database)
	conn = fillConnection(conn, config.FromEnv(c.getenv))

	batch := catalogue.BatchOptions{
		Dialect:    opts.Platform,
		Operations: opts.Operations,
	}
	if opts.SchemaFile != "" {
		ref, err := schema.LoadFile(opts.SchemaFile)
		if err != nil {
			return err
		}
		batch.Reference = catalogue.NewReference(ref)
		conn = fillConnection(conn, config.Database{Host: ref.Host, DBName: ref.Database})
		logger.Info().Str("path", opts.SchemaFile).Int("layers", batch.Reference.Len()).Msg("reference schema loaded")
	}
	batch.Connection = fillConnection(conn, config.Fallback)

	if opts.Template != "" {
		if batch.Template, err = layout.LoadTemplate(opts.Template); err != nil {
			return err
		}
	}

	artifacts, err := catalogue.Batch(c.registry(), accepted, batch)
	if err != nil {
		return err
	}
	if err := c.writeArtifacts(ctx, opts, artifacts); err != nil {
		return err
	}

	logger.Info().
		Int("files", len(artifacts)).
		Str("platform", opts.Platform).
		Str("dir", opts.OutputDir).
		Msg("catalogue complete")
	return nil
}

func (c *Controller) writeArtifacts(ctx context.Context, opts CatalogueOptions, artifacts []catalogue.Artifact) error {
	logger := c.logger()

	limit := opts.Parallel
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, a := range artifacts {
		a := a
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(opts.OutputDir, a.Name)
			if err := writeFile(path, a.Code); err != nil {
				return err
			}

			event := logger.Info().Str("file", a.Name).Str("renderer", string(a.Renderer))
			if a.Enriched {
				event = event.Bool("enriched", true)
			}
			event.Msg("map written")
			for _, w := range a.Warnings {
				logger.Warn().Str("file", a.Name).Str("operation", w.Operation).Msg(w.String())
			}
			return nil
		})
	}
	return g.Wait()
}

// fillConnection sets fields of c that are still empty from db
func fillConnection(c target.Connection, db config.Database) target.Connection {
	if c.Host == "" {
		c.Host = db.Host
	}
	if c.Port == 0 {
		c.Port = db.Port
	}
	if c.DBName == "" {
		c.DBName = db.DBName
	}
	if c.User == "" {
		c.User = db.User
	}
	return c
}

func listRows(w io.Writer, rows []catalogue.Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tSTATUS\tMAP\tTABLE\tRENDERER")
	fmt.Fprintln(tw, "----\t------\t---\t-----\t--------")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			r.Line, r.Status, r.MapName, r.QualifiedTable(), symbology.Normalize(r.RendererType))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d map(s)\n", len(rows))
	return err
}
