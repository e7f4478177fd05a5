// Package commands contains the CLI commands for the application
package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/okra-platform/gisgen/internal/codegen"
	"github.com/okra-platform/gisgen/internal/config"
)

type Flags struct {
	LogLevel string
	Config   string
}

type Controller struct {
	Flags *Flags

	// Registry defaults to codegen.DefaultRegistry
	Registry *codegen.Registry

	// Stdout receives generated code and listings; defaults to os.Stdout
	Stdout io.Writer

	// Getenv defaults to os.Getenv
	Getenv func(string) string

	// Logger defaults to the global zerolog logger
	Logger *zerolog.Logger
}

func (c *Controller) registry() *codegen.Registry {
	if c.Registry == nil {
		return codegen.DefaultRegistry
	}
	return c.Registry
}

func (c *Controller) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

func (c *Controller) logger() zerolog.Logger {
	if c.Logger == nil {
		return log.Logger
	}
	return *c.Logger
}

func (c *Controller) getenv(key string) string {
	if c.Getenv == nil {
		return os.Getenv(key)
	}
	return c.Getenv(key)
}

// loadConfig finds and loads gisgen.yaml, logging which file was used
func (c *Controller) loadConfig() (*config.Config, error) {
	explicit := ""
	if c.Flags != nil {
		explicit = c.Flags.Config
	}

	cfg, path, err := config.LoadConfig(explicit)
	if err != nil {
		return nil, err
	}
	if path != "" {
		logger := c.logger()
		logger.Info().Str("path", path).Msg("using config")
	}
	return cfg, nil
}

// resolveDatabase merges flag, config, env and built-in connection settings
func (c *Controller) resolveDatabase(cfg *config.Config, flags config.Database) config.Database {
	return cfg.Resolve(flags, config.FromEnv(c.getenv))
}

// writeFile writes data to path atomically through a temp file and rename
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
