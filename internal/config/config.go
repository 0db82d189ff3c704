// Package config loads the command line's settings: a .tsschema.yaml file
// found by walking up from the working directory, then a .env file, then
// TSSCHEMA_* environment variables. Flags are applied by the caller on top.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up from the working directory.
const FileName = ".tsschema.yaml"

// Environment variables overriding the file.
const (
	EnvDB       = "TSSCHEMA_DB"
	EnvFormat   = "TSSCHEMA_FORMAT"
	EnvLogLevel = "TSSCHEMA_LOG_LEVEL"
	EnvMaxDepth = "TSSCHEMA_MAX_DEPTH"
)

// ErrInvalid reports a configuration file or value that cannot be used.
var ErrInvalid = errors.Base("invalid configuration")

// Config holds every setting the command line reads.
type Config struct {
	// Path is the file the configuration was read from, if any.
	Path string `yaml:"-"`

	DB          string   `yaml:"db"`
	Format      string   `yaml:"format"`
	LogLevel    string   `yaml:"logLevel"`
	MaxDepth    int      `yaml:"maxDepth"`
	Select      string   `yaml:"select"`
	Exclude     []string `yaml:"exclude"`
	Parallelism int      `yaml:"parallelism"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		DB:     "tsschema.db",
		Format: "json",
	}
}

// Find walks up from dir looking for FileName. Returns "" if none is found.
func Find(dir string) string {
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load builds the configuration. An explicit path must exist; without one
// the file is searched from dir. The .env file in dir is loaded into the
// process environment when present.
func Load(dir, path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = Find(dir)
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, errors.WithDetails(errors.WrapWith(err, ErrInvalid), "path", filepath.Join(dir, ".env"))
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WithDetails(errors.WrapWith(err, ErrInvalid), "path", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.WithDetails(errors.WrapWith(err, ErrInvalid), "path", path)
	}
	c.Path = path
	if c.DB != "" && !filepath.IsAbs(c.DB) {
		c.DB = filepath.Join(filepath.Dir(path), c.DB)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvDB); v != "" {
		c.DB = v
	}
	if v := getenv(EnvFormat); v != "" {
		c.Format = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvMaxDepth); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return errors.WithDetails(errors.Errorf("%w: %s must be a non-negative integer", ErrInvalid, EnvMaxDepth), "value", v)
		}
		c.MaxDepth = n
	}
	return nil
}
