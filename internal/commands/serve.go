package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okra-platform/gisgen/internal/serve"
)

// Default listen address for gisgen serve
const (
	defaultServeHost = "127.0.0.1"
	defaultServePort = 8080
)

// ServeOptions contains options for the serve command
type ServeOptions struct {
	// Host is the listen interface; empty means loopback only
	Host string
	Port int
}

// Serve runs the generation API until interrupted
func (c *Controller) Serve(ctx context.Context, opts ...ServeOptions) error {
	host, port := defaultServeHost, defaultServePort
	if len(opts) > 0 {
		if opts[0].Host != "" {
			host = opts[0].Host
		}
		if opts[0].Port > 0 {
			port = opts[0].Port
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := serve.NewServer(c.registry(), c.logger())
	if err := srv.Start(ctx, host, port); err != nil {
		return err
	}

	logger := c.logger()
	logger.Info().Msg("serve shutdown complete")
	return nil
}
