package watch

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Rebuild regenerates the output. It runs once up front and again after
// every settled change.
type Rebuild func(ctx context.Context) error

// Options controls Run
type Options struct {
	Files    []string
	Debounce time.Duration
}

// Run rebuilds immediately and then on every change until ctx is cancelled.
// Rebuild failures are logged and watching continues.
func Run(ctx context.Context, opts Options, rebuild Rebuild, logger zerolog.Logger) error {
	logger = logger.With().Str("component", "watch").Logger()

	run := func(triggers ...string) {
		start := time.Now()
		if err := rebuild(ctx); err != nil {
			logger.Error().Err(err).Strs("trigger", triggers).Msg("regeneration failed; still watching")
			return
		}
		logger.Info().Strs("trigger", triggers).Dur("took", time.Since(start)).Msg("regenerated")
	}

	fw, err := NewFileWatcher(opts.Files, opts.Debounce, func(changes []Change) {
		paths := make([]string, 0, len(changes))
		for _, ch := range changes {
			logger.Debug().Str("path", ch.Path).Str("op", ch.Op.String()).Msg("change detected")
			paths = append(paths, ch.Path)
		}
		run(paths...)
	}, logger)
	if err != nil {
		return err
	}
	defer fw.Close()

	run("startup")
	logger.Info().Strs("files", opts.Files).Msg("watching for changes")

	if err := fw.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
