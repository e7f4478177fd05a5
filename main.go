package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/okra-platform/gisgen/internal/commands"
	"github.com/okra-platform/gisgen/internal/config"
	"github.com/okra-platform/gisgen/internal/watch"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func connectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "host", Usage: "database host"},
		&cli.IntFlag{Name: "port", Usage: "database port"},
		&cli.StringFlag{Name: "dbname", Usage: "database name"},
		&cli.StringFlag{Name: "user", Usage: "database user"},
		&cli.StringFlag{Name: "password", Usage: "database password (prefer PGPASSWORD)"},
	}
}

func connection(c *cli.Command) config.Database {
	return config.Database{
		Host:     c.String("host"),
		Port:     int(c.Int("port")),
		DBName:   c.String("dbname"),
		User:     c.String("user"),
		Password: c.String("password"),
	}
}

// operations accepts repeated --op flags and comma separated lists
func operations(c *cli.Command) []string {
	var out []string
	for _, v := range c.StringSlice("op") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

func generateFlags() []cli.Flag {
	return append(connectionFlags(),
		&cli.StringFlag{Name: "schema-file", Usage: "read a saved schema JSON instead of connecting"},
		&cli.StringFlag{Name: "platform", Usage: "target platform (see gisgen dialects)"},
		&cli.StringSliceFlag{Name: "op", Usage: "operation to apply to every layer (repeatable)"},
		&cli.StringSliceFlag{Name: "layer", Usage: "qualified layer name to include (repeatable)"},
		&cli.StringFlag{Name: "schema-filter", Usage: "only include layers in this namespace"},
		&cli.BoolFlag{Name: "no-row-counts", Usage: "skip row count estimates"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write to a file instead of stdout"},
		&cli.StringFlag{Name: "save-schema", Usage: "save the filtered schema JSON to this path"},
		&cli.StringFlag{Name: "template", Usage: "script template YAML"},
		&cli.StringFlag{Name: "layout", Usage: "composition layout YAML"},
	)
}

func generateOptions(c *cli.Command) commands.GenerateOptions {
	return commands.GenerateOptions{
		Connection:   connection(c),
		SchemaFile:   c.String("schema-file"),
		Platform:     c.String("platform"),
		Operations:   operations(c),
		Layers:       c.StringSlice("layer"),
		SchemaFilter: c.String("schema-filter"),
		NoRowCounts:  c.Bool("no-row-counts"),
		Output:       c.String("output"),
		SaveSchema:   c.String("save-schema"),
		Template:     c.String("template"),
		Layout:       c.String("layout"),
		ListLayers:   c.Bool("list-layers"),
	}
}

func main() {
	ctrl := &commands.Controller{
		Flags: &commands.Flags{},
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.Command{
		Name:    "gisgen",
		Usage:   `Generate GIS scripts, web maps and project files from PostGIS schemas and map catalogues.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error, fatal, panic)",
				Sources: cli.EnvVars("GISGEN_LOG_LEVEL"),
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "config file (default: gisgen.yaml in this or a parent directory, then ~/.config/gisgen/config.yaml)",
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(c.String("log-level"))
			if err != nil {
				return ctx, fmt.Errorf("failed to parse log level: %w", err)
			}

			log.Logger = log.Level(level)
			ctrl.Flags.LogLevel = c.String("log-level")
			ctrl.Flags.Config = c.String("config")

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Generate one script for the layers of a database or saved schema",
				Flags: append(generateFlags(),
					&cli.BoolFlag{Name: "list-layers", Usage: "print the available layers and exit"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Generate(ctx, generateOptions(c))
				},
			},
			{
				Name:  "catalogue",
				Usage: "Generate one map per accepted row of a CSV or XLSX catalogue",
				Flags: append(connectionFlags(),
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "catalogue file (.csv or .xlsx)", Required: true},
					&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "directory for generated maps", Value: "maps"},
					&cli.StringFlag{Name: "platform", Aliases: []string{"p"}, Usage: "target platform (default from config, else pyqgis)"},
					&cli.StringFlag{Name: "schema", Aliases: []string{"s"}, Usage: "schema JSON used to enrich rows"},
					&cli.StringSliceFlag{Name: "op", Usage: "operation to apply to every map (repeatable)"},
					&cli.StringFlag{Name: "template", Usage: "script template YAML"},
					&cli.BoolFlag{Name: "list", Usage: "list accepted rows without writing"},
					&cli.IntFlag{Name: "parallel", Usage: "concurrent file writes (default: number of CPUs)"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Catalogue(ctx, commands.CatalogueOptions{
						Input:      c.String("input"),
						OutputDir:  c.String("output-dir"),
						Platform:   c.String("platform"),
						Connection: connection(c),
						SchemaFile: c.String("schema"),
						Operations: operations(c),
						Template:   c.String("template"),
						List:       c.Bool("list"),
						Parallel:   int(c.Int("parallel")),
					})
				},
			},
			{
				Name:  "extract",
				Usage: "Introspect a PostGIS database and write its schema JSON",
				Flags: append(connectionFlags(),
					&cli.StringFlag{Name: "schema-filter", Usage: "only include layers in this namespace"},
					&cli.BoolFlag{Name: "no-row-counts", Usage: "skip row count estimates"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write to a file instead of stdout"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Extract(ctx, commands.ExtractOptions{
						Connection:   connection(c),
						SchemaFilter: c.String("schema-filter"),
						NoRowCounts:  c.Bool("no-row-counts"),
						Output:       c.String("output"),
					})
				},
			},
			{
				Name:  "operations",
				Usage: "List the available operations",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Operations(ctx)
				},
			},
			{
				Name:  "dialects",
				Usage: "List the supported platforms",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Dialects(ctx)
				},
			},
			{
				Name:  "serve",
				Usage: "Serve the generation HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "host", Usage: "listen interface (0.0.0.0 exposes the API to the network)", Value: "127.0.0.1", Sources: cli.EnvVars("GISGEN_HOST")},
					&cli.IntFlag{Name: "port", Usage: "listen port", Value: 8080, Sources: cli.EnvVars("GISGEN_PORT")},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Serve(ctx, commands.ServeOptions{Host: c.String("host"), Port: int(c.Int("port"))})
				},
			},
			{
				Name:  "watch",
				Usage: "Regenerate a script whenever the schema, template or layout file changes",
				Flags: append(generateFlags(),
					&cli.DurationFlag{Name: "debounce", Usage: "quiet period before regenerating", Value: watch.DefaultDebounce},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Watch(ctx, commands.WatchOptions{
						GenerateOptions: generateOptions(c),
						Debounce:        c.Duration("debounce"),
					})
				},
			},
			{
				Name:  "init",
				Usage: "Create a gisgen config file interactively",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Init(ctx)
				},
			},
		},
	}

	ctx := context.Background()

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run gisgen")
	}
}
