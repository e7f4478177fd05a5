package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okra-platform/gisgen/internal/watch"
)

var (
	// ErrWatchNeedsSchema is returned when watch is started without a schema file
	ErrWatchNeedsSchema = errors.New("watch needs --schema-file; live databases cannot be watched")

	// ErrWatchNeedsOutput is returned when watch has nowhere to write
	ErrWatchNeedsOutput = errors.New("watch needs --output (or an output in the layout or config)")
)

// WatchOptions contains options for the watch command
type WatchOptions struct {
	GenerateOptions
	Debounce time.Duration
}

// Watch regenerates the output whenever the schema, template or layout file changes
func (c *Controller) Watch(ctx context.Context, opts WatchOptions) error {
	if opts.SchemaFile == "" {
		return ErrWatchNeedsSchema
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	gen := applyDefaults(opts.GenerateOptions, cfg)
	gen.ListLayers = false
	if gen.Output == "" && gen.Layout == "" {
		return ErrWatchNeedsOutput
	}

	files := []string{gen.SchemaFile}
	for _, f := range []string{gen.Template, gen.Layout} {
		if f != "" {
			files = append(files, f)
		}
	}

	rebuild := func(ctx context.Context) error {
		job, err := c.prepare(ctx, cfg, gen)
		if err != nil {
			return err
		}
		if job.opts.Output == "" {
			return ErrWatchNeedsOutput
		}
		res, err := c.render(job)
		if err != nil {
			return err
		}
		return c.emit(job.opts.Output, res.Code)
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = watch.DefaultDebounce
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watch.Run(ctx, watch.Options{Files: files, Debounce: debounce}, rebuild, c.logger())
}
