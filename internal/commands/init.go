package commands

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/okra-platform/gisgen/internal/codegen/target"
	"github.com/okra-platform/gisgen/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

const (
	destProject = "project"
	destHome    = "home"

	samplesDir = "gisgen-examples"
)

type InitOptions struct {
	Host        string
	Port        string
	DBName      string
	User        string
	Platform    string
	Destination string
	Samples     bool
}

type FileSystem interface {
	Stat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(name string, data []byte, perm os.FileMode) error
	UserHomeDir() (string, error)
}

type osFileSystem struct{}

func (fs *osFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (fs *osFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (fs *osFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (fs *osFileSystem) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

type InitCommand struct {
	filesystem  FileSystem
	templatesFS fs.FS
	// projectDir receives gisgen.yaml and the samples; defaults to "."
	projectDir string
	// For testing: if set, skip prompting
	testOptions *InitOptions
}

func NewInitCommand() *InitCommand {
	return &InitCommand{
		filesystem:  &osFileSystem{},
		templatesFS: templatesFS,
		projectDir:  ".",
	}
}

func (c *Controller) Init(ctx context.Context) error {
	cmd := NewInitCommand()
	return cmd.Run(ctx)
}

func (ic *InitCommand) Run(ctx context.Context) error {
	return ic.RunWithOptions(ctx)
}

func (ic *InitCommand) RunWithOptions(ctx context.Context, opts ...tea.ProgramOption) error {
	var options *InitOptions
	var err error

	// For testing: use provided options instead of prompting
	if ic.testOptions != nil {
		options = ic.testOptions
	} else {
		options, err = ic.promptInitOptions(opts...)
		if err != nil {
			return fmt.Errorf("failed to get init options: %w", err)
		}
	}

	cfg, err := options.config()
	if err != nil {
		return err
	}

	path, err := ic.configPath(options.Destination)
	if err != nil {
		return err
	}
	if _, err := ic.filesystem.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists; edit it or remove it first", path)
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)

	if options.Samples {
		dir := filepath.Join(ic.projectDir, samplesDir)
		written, err := ic.extractTemplates(dir)
		if err != nil {
			return fmt.Errorf("failed to write examples: %w", err)
		}
		fmt.Printf("Wrote %d example file(s) to %s\n", written, dir)
	}

	fmt.Println("The password is never stored; set PGPASSWORD before running gisgen generate.")
	return nil
}

// config converts the answers into a config file
func (o *InitOptions) config() (*config.Config, error) {
	cfg := &config.Config{
		Database: config.Database{Host: o.Host, DBName: o.DBName, User: o.User},
		Defaults: config.Defaults{Platform: o.Platform},
	}
	if o.Port != "" {
		port, err := parsePort(o.Port)
		if err != nil {
			return nil, err
		}
		cfg.Database.Port = port
	}
	return cfg, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("port must be a number between 1 and 65535")
	}
	return port, nil
}

func (ic *InitCommand) configPath(destination string) (string, error) {
	if destination != destHome {
		return filepath.Join(ic.projectDir, config.FileName), nil
	}
	home, err := ic.filesystem.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "gisgen", "config.yaml"), nil
}

func (ic *InitCommand) promptInitOptions(opts ...tea.ProgramOption) (*InitOptions, error) {
	options := &InitOptions{
		Host:        config.Fallback.Host,
		Port:        strconv.Itoa(config.Fallback.Port),
		DBName:      config.Fallback.DBName,
		User:        config.Fallback.User,
		Platform:    string(target.PyQGIS),
		Destination: destProject,
		Samples:     true,
	}

	form := ic.createInitForm(options)

	if len(opts) > 0 {
		// For testing: run with provided options
		program := tea.NewProgram(form, opts...)
		if _, err := program.Run(); err != nil {
			return nil, err
		}
	} else {
		if err := form.Run(); err != nil {
			return nil, err
		}
	}

	return options, nil
}

func (ic *InitCommand) createInitForm(o *InitOptions) *huh.Form {
	platforms := make([]huh.Option[string], 0, len(target.AllCapabilities()))
	for _, c := range target.AllCapabilities() {
		platforms = append(platforms, huh.NewOption(c.Label, string(c.Dialect)))
	}

	required := func(field string) func(string) error {
		return func(s string) error {
			if s == "" {
				return fmt.Errorf("%s cannot be empty", field)
			}
			return nil
		}
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Database host").
				Value(&o.Host).
				Validate(required("host")),

			huh.NewInput().
				Title("Port").
				Value(&o.Port).
				Validate(func(s string) error {
					_, err := parsePort(s)
					return err
				}),

			huh.NewInput().
				Title("Database name").
				Value(&o.DBName).
				Validate(required("database name")),

			huh.NewInput().
				Title("User").
				Value(&o.User).
				Validate(required("user")),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default platform").
				Description("Used when --platform is not given").
				Options(platforms...).
				Value(&o.Platform),

			huh.NewSelect[string]().
				Title("Where should the config live?").
				Options(
					huh.NewOption("This directory ("+config.FileName+")", destProject),
					huh.NewOption("My home directory (~/.config/gisgen/config.yaml)", destHome),
				).
				Value(&o.Destination),

			huh.NewConfirm().
				Title("Write example catalogue, layout and template files?").
				Value(&o.Samples),
		),
	)
}

// extractTemplates copies the embedded examples into destDir, leaving
// existing files alone. It returns how many files were written.
func (ic *InitCommand) extractTemplates(destDir string) (int, error) {
	if err := ic.filesystem.MkdirAll(destDir, 0755); err != nil {
		return 0, err
	}

	written := 0
	err := fs.WalkDir(ic.templatesFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == "templates" {
			return nil
		}

		relPath, err := filepath.Rel("templates", path)
		if err != nil {
			return err
		}
		destPath := filepath.Join(destDir, relPath)

		if d.IsDir() {
			return ic.filesystem.MkdirAll(destPath, 0755)
		}
		if _, err := ic.filesystem.Stat(destPath); err == nil {
			return nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}

		data, err := fs.ReadFile(ic.templatesFS, path)
		if err != nil {
			return err
		}
		written++
		return ic.filesystem.WriteFile(destPath, data, 0644)
	})
	return written, err
}
