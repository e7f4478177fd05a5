package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file searched for in the working directory and its parents
	FileName = "gisgen.yaml"

	// EnvConfig names an explicit config file
	EnvConfig = "GISGEN_CONFIG"
)

var (
	// ErrConfigNotFound is returned when an explicitly named config file does not exist
	ErrConfigNotFound = errors.New("config file not found")

	// ErrNoPassword is returned when live extraction has no password from any source
	ErrNoPassword = errors.New("no database password supplied; set PGPASSWORD, add database.password to the config file or pass --password")
)

// Config represents the gisgen.yaml configuration file
type Config struct {
	Database Database `yaml:"database"`
	Defaults Defaults `yaml:"defaults"`
}

// Database holds connection settings. Zero values mean "not set".
type Database struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	DBName   string `yaml:"dbname,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// Defaults fill generate flags that were not given on the command line
type Defaults struct {
	Platform     string `yaml:"platform,omitempty"`
	SchemaFilter string `yaml:"schema_filter,omitempty"`
	NoRowCounts  bool   `yaml:"no_row_counts,omitempty"`
	Output       string `yaml:"output,omitempty"`
	SaveSchema   string `yaml:"save_schema,omitempty"`
}

// Fallback is the built-in connection used when no other source sets a field.
// There is no fallback password.
var Fallback = Database{Host: "localhost", Port: 5432, DBName: "my_gis_db", User: "postgres"}

// LoadConfig finds and loads the config file. explicit (a --config flag)
// wins over $GISGEN_CONFIG, which wins over gisgen.yaml in the working
// directory or a parent, then ~/.config/gisgen/config.yaml. When nothing is
// found an empty config and an empty path are returned.
func LoadConfig(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return &Config{}, "", nil
	}

	cfg, err := LoadConfigFromPath(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Find returns the config path to use, or "" when there is none
func Find(explicit string) (string, error) {
	if explicit != "" {
		return mustExist(explicit, "--config")
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return mustExist(env, EnvConfig)
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	if path, ok := findInParents(dir); ok {
		return path, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "gisgen", "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

func mustExist(path, source string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s (from %s)", ErrConfigNotFound, path, source)
	}
	return path, nil
}

// findInParents searches for gisgen.yaml in startDir and its parents
func findInParents(startDir string) (string, bool) {
	dir := startDir
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// LoadConfigFromPath loads a config file from a specific path
func LoadConfigFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config as YAML, creating parent directories
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// FromEnv reads the libpq PG* variables. An unparsable PGPORT is ignored.
func FromEnv(getenv func(string) string) Database {
	if getenv == nil {
		getenv = os.Getenv
	}
	db := Database{
		Host:     getenv("PGHOST"),
		DBName:   getenv("PGDATABASE"),
		User:     getenv("PGUSER"),
		Password: getenv("PGPASSWORD"),
	}
	if p, err := strconv.Atoi(getenv("PGPORT")); err == nil && p > 0 {
		db.Port = p
	}
	return db
}

// Resolve merges connection settings field by field: flags, then the config
// file, then env, then Fallback
func (c *Config) Resolve(flags, env Database) Database {
	var file Database
	if c != nil {
		file = c.Database
	}
	return Database{
		Host:     pick(flags.Host, file.Host, env.Host, Fallback.Host),
		Port:     pick(flags.Port, file.Port, env.Port, Fallback.Port),
		DBName:   pick(flags.DBName, file.DBName, env.DBName, Fallback.DBName),
		User:     pick(flags.User, file.User, env.User, Fallback.User),
		Password: pick(flags.Password, file.Password, env.Password, ""),
	}
}

func pick[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// RequirePassword fails when no source supplied a password
func (d Database) RequirePassword() error {
	if d.Password == "" {
		return ErrNoPassword
	}
	return nil
}

// DSN returns a libpq keyword/value connection string
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s",
		quote(d.Host), d.Port, quote(d.DBName), quote(d.User), quote(d.Password))
}

func quote(s string) string {
	out := []byte{'\''}
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' || s[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(append(out, '\''))
}
