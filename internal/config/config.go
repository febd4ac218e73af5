package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	CurrentVersion = 1
	DefaultPath    = "~/.schemalens/schemalens.yaml"
)

// Config is the top-level configuration.
type Config struct {
	Version int          `yaml:"version"`
	Source  SourceConfig `yaml:"source"`
	Output  OutputConfig `yaml:"output,omitempty"`
	Logging LogConfig    `yaml:"logging,omitempty"`
}

// SourceConfig defines the source to extract from. Which fields apply
// depends on Type; adapters validate what they need.
type SourceConfig struct {
	// Type selects the adapter: postgres, mysql, sqlite, mongodb,
	// firestore, prisma, drizzle.
	Type string `yaml:"type"`

	// DSN is the connection string for database-backed sources. For sqlite
	// it is the database file path.
	DSN string `yaml:"dsn,omitempty"`

	// Schema is the namespace to extract (postgres schema, mysql database).
	Schema string `yaml:"schema,omitempty"`

	// Database names the document-store database (mongodb).
	Database string `yaml:"database,omitempty"`

	// Project and CredentialsFile configure Firestore access.
	Project         string `yaml:"project,omitempty"`
	CredentialsFile string `yaml:"credentials_file,omitempty"`

	// SchemaFile is the path to an ORM schema definition file.
	SchemaFile string `yaml:"schema_file,omitempty"`

	// SampleSize bounds the documents read per collection. Default 100.
	SampleSize int `yaml:"sample_size,omitempty"`

	// Strict turns malformed ORM declarations into errors instead of
	// silently skipping them.
	Strict bool `yaml:"strict,omitempty"`
}

// OutputConfig defines where and how the unified schema is written.
type OutputConfig struct {
	Path   string `yaml:"path,omitempty"`
	Format string `yaml:"format,omitempty"` // yaml or json
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level     string `yaml:"level,omitempty"`     // debug, info, warn, error
	Directory string `yaml:"directory,omitempty"` // default ~/.schemalens/logs/
}

// Load reads and parses the config file from the given path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentVersion)
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, fmt.Errorf("resolving secrets: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config to the given path.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

func (c *Config) applyDefaults() {
	if c.Source.SampleSize == 0 {
		c.Source.SampleSize = 100
	}
	if c.Output.Format == "" {
		c.Output.Format = "yaml"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Directory == "" {
		c.Logging.Directory = ExpandHome("~/.schemalens/logs/")
	}
}

func (c *Config) resolveSecrets() error {
	var err error
	c.Source.DSN, err = ResolveValue(c.Source.DSN)
	if err != nil {
		return fmt.Errorf("source dsn: %w", err)
	}
	return nil
}

// ExpandHome expands ~ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
