package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/okra-platform/gisgen/internal/codegen"
	"github.com/okra-platform/gisgen/internal/codegen/ops"
	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/config"
	"github.com/okra-platform/gisgen/internal/extract"
	"github.com/okra-platform/gisgen/internal/layout"
	"github.com/okra-platform/gisgen/internal/schema"
)

// ErrNoPlatform is returned when neither a flag, the layout nor the config names a platform
var ErrNoPlatform = errors.New("no platform given; pass --platform or set defaults.platform in the config file")

// GenerateOptions contains options for the generate command
type GenerateOptions struct {
	// Connection holds connection flags; zero fields are unset
	Connection config.Database

	// SchemaFile reads a saved schema instead of connecting to the database
	SchemaFile string

	Platform     string
	Operations   []string
	Layers       []string
	SchemaFilter string
	NoRowCounts  bool
	Output       string
	SaveSchema   string
	Template     string
	Layout       string
	ListLayers   bool
}

// Generate produces one script for the selected layers
func (c *Controller) Generate(ctx context.Context, opts GenerateOptions) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts = applyDefaults(opts, cfg)

	job, err := c.prepare(ctx, cfg, opts)
	if err != nil {
		return err
	}

	if opts.ListLayers {
		return listLayers(c.stdout(), job.schema)
	}

	res, err := c.render(job)
	if err != nil {
		return err
	}
	return c.emit(job.opts.Output, res.Code)
}

// applyDefaults fills unset options from the config defaults section
func applyDefaults(opts GenerateOptions, cfg *config.Config) GenerateOptions {
	d := cfg.Defaults
	if opts.Platform == "" {
		opts.Platform = d.Platform
	}
	if opts.SchemaFilter == "" {
		opts.SchemaFilter = d.SchemaFilter
	}
	if !opts.NoRowCounts {
		opts.NoRowCounts = d.NoRowCounts
	}
	if opts.Output == "" {
		opts.Output = d.Output
	}
	if opts.SaveSchema == "" {
		opts.SaveSchema = d.SaveSchema
	}
	return opts
}

// generateJob is a loaded, filtered schema ready to render
type generateJob struct {
	opts        GenerateOptions
	schema      *schema.Schema
	connection  target.Connection
	template    *layout.Template
	composition *layout.Composition
}

func (c *Controller) prepare(ctx context.Context, cfg *config.Config, opts GenerateOptions) (*generateJob, error) {
	logger := c.logger()
	job := &generateJob{opts: opts}

	if opts.Layout != "" {
		comp, err := layout.LoadComposition(opts.Layout)
		if err != nil {
			return nil, err
		}
		job.composition = comp
		if job.opts.Platform == "" {
			job.opts.Platform = comp.Platform
		}
		if job.opts.Output == "" {
			job.opts.Output = comp.Output
		}
	}
	if opts.Template != "" {
		tmpl, err := layout.LoadTemplate(opts.Template)
		if err != nil {
			return nil, err
		}
		job.template = tmpl
	}
	if err := c.checkRequest(job); err != nil {
		return nil, err
	}

	var err error
	if opts.SchemaFile != "" {
		job.schema, err = schema.LoadFile(opts.SchemaFile)
		if err != nil {
			return nil, err
		}
		// Only explicit settings override the schema's own database and host
		job.connection = mergeExplicit(opts.Connection, cfg.Database)
	} else {
		db := c.resolveDatabase(cfg, opts.Connection)
		job.schema, err = c.extractLive(ctx, db, !opts.NoRowCounts)
		if err != nil {
			return nil, err
		}
		job.connection = toConnection(db)
	}
	logger.Info().Int("layers", len(job.schema.Layers)).Str("database", job.schema.Database).Msg("schema loaded")

	if opts.ListLayers {
		return job, nil
	}

	if opts.SchemaFilter != "" {
		if job.schema, err = schema.FilterByNamespace(job.schema, opts.SchemaFilter); err != nil {
			return nil, fmt.Errorf("%w; run with --list-layers to see available namespaces", err)
		}
		logger.Info().Str("schema_filter", opts.SchemaFilter).Int("layers", len(job.schema.Layers)).Msg("applied namespace filter")
	}
	if len(opts.Layers) > 0 {
		if job.schema, err = schema.FilterByQualifiedName(job.schema, opts.Layers); err != nil {
			return nil, err
		}
		logger.Info().Int("layers", len(job.schema.Layers)).Msg("applied layer filter")
	}

	if opts.SaveSchema != "" {
		data, err := schema.Marshal(job.schema)
		if err != nil {
			return nil, err
		}
		if err := writeFile(opts.SaveSchema, data); err != nil {
			return nil, err
		}
		logger.Info().Str("path", opts.SaveSchema).Msg("schema saved")
	}

	if job.composition != nil {
		var missing []string
		job.schema, missing = job.composition.Apply(job.schema)
		for _, table := range missing {
			logger.Warn().Str("table", table).Str("layout", opts.Layout).Msg("layout table not found in schema; skipped")
		}
	}
	return job, nil
}

// checkRequest rejects invalid operations and unknown platforms before the
// database is contacted or any file is written
func (c *Controller) checkRequest(job *generateJob) error {
	requested := append([]string(nil), job.opts.Operations...)
	if job.composition != nil {
		for _, entry := range job.composition.Layers {
			requested = append(requested, entry.Operations...)
		}
	}
	if err := ops.Validate(requested); err != nil {
		return err
	}

	if job.opts.ListLayers || job.opts.Platform == "" {
		return nil
	}
	_, err := c.registry().Get(job.opts.Platform, target.Options{})
	return err
}

func (c *Controller) render(job *generateJob) (*codegen.Result, error) {
	if job.opts.Platform == "" {
		return nil, ErrNoPlatform
	}

	opts := target.Options{
		Connection: job.connection,
		Template:   job.template,
	}
	if job.composition != nil {
		opts.PerLayerOps = job.composition.PerLayerOps()
	}

	res, err := c.registry().Generate(codegen.Request{
		Dialect:    job.opts.Platform,
		Schema:     job.schema,
		Operations: job.opts.Operations,
		Options:    opts,
	})
	if err != nil {
		return nil, err
	}

	for _, w := range res.Warnings {
		logger := c.logger()
		logger.Warn().Str("operation", w.Operation).Str("platform", string(w.Dialect)).Msg(w.String())
	}
	return res, nil
}

// emit writes code to path, or to stdout when path is empty
func (c *Controller) emit(path string, code []byte) error {
	if path == "" {
		_, err := c.stdout().Write(code)
		return err
	}
	if err := writeFile(path, code); err != nil {
		return err
	}
	logger := c.logger()
	logger.Info().Str("path", path).Str("size", humanize.Bytes(uint64(len(code)))).Msg("script written")
	return nil
}

func (c *Controller) extractLive(ctx context.Context, db config.Database, rowCounts bool) (*schema.Schema, error) {
	if err := db.RequirePassword(); err != nil {
		return nil, err
	}

	logger := c.logger()
	logger.Info().Str("database", db.DBName).Str("host", fmt.Sprintf("%s:%d", db.Host, db.Port)).Msg("connecting")

	conn, err := extract.Connect(ctx, db)
	if err != nil {
		return nil, err
	}
	defer conn.Close(context.Background())

	return extract.NewExtractor(extract.NewPostGIS(conn), logger).
		Extract(ctx, db.DBName, db.Host, extract.Options{RowCounts: rowCounts})
}

func toConnection(db config.Database) target.Connection {
	return target.Connection{Host: db.Host, Port: db.Port, DBName: db.DBName, User: db.User}
}

// mergeExplicit keeps only settings given by flag or config file
func mergeExplicit(flags, file config.Database) target.Connection {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	port := flags.Port
	if port == 0 {
		port = file.Port
	}
	return target.Connection{
		Host:   pick(flags.Host, file.Host),
		Port:   port,
		DBName: pick(flags.DBName, file.DBName),
		User:   pick(flags.User, file.User),
	}
}

func listLayers(w io.Writer, s *schema.Schema) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LAYER\tGEOM TYPE\tSRID\tROWS (est.)")
	fmt.Fprintln(tw, "-----\t---------\t----\t-----------")
	for _, l := range s.Layers {
		rows := "unknown"
		if n, ok := l.RowCount(); ok {
			rows = "~" + humanize.Comma(n)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", l.QualifiedName(), l.Geometry.Type, l.Geometry.SRID, rows)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d layer(s) in %s\n", len(s.Layers), strings.TrimSpace(s.Database))
	return err
}
