// Package config loads schemadiff.toml and resolves connection settings with
// the same explicit-flag > env-var > config-file > default precedence the
// rest of the ambient stack uses.
package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the schemadiff.toml configuration file.
type Config struct {
	DatabaseURL string `toml:"database_url"`
	SchemaName  string `toml:"schema_name"`
	OutputDir   string `toml:"output_dir"`
}

// Load discovers schemadiff.toml by walking from the current directory
// upward to the filesystem root, the same algorithm the teacher's
// LoadConfig uses for lockplane.toml. Returns an empty Config, not an error,
// when no file is found.
func Load() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "schemadiff.toml")
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			var cfg Config
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, err
			}
			return &cfg, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return &Config{}, nil
}

// ResolveDatabaseURL applies the precedence spec.md §6 requires: DB_URL
// overrides the configured connection; DB_HOSTNAME, when set, replaces only
// the host portion of whichever URL wins.
func ResolveDatabaseURL(explicit string, cfg *Config) string {
	url := explicit
	if url == "" {
		if envValue := os.Getenv("DB_URL"); envValue != "" {
			url = envValue
		} else if cfg != nil {
			url = cfg.DatabaseURL
		}
	}

	if host := os.Getenv("DB_HOSTNAME"); host != "" {
		url = replaceHost(url, host)
	}
	return url
}

// ResolveSchemaName returns the namespace to introspect/compile against.
func ResolveSchemaName(explicit string, cfg *Config) string {
	if explicit != "" {
		return explicit
	}
	if cfg != nil && cfg.SchemaName != "" {
		return cfg.SchemaName
	}
	return "public"
}

// ResolveOutputDir returns the directory artifacts are written to.
func ResolveOutputDir(explicit string, cfg *Config) string {
	if explicit != "" {
		return explicit
	}
	if cfg != nil && cfg.OutputDir != "" {
		return cfg.OutputDir
	}
	return "."
}
