// Package config loads the storefront configuration from a YAML file
// with environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendDynamo   = "dynamo"
)

type Config struct {
	Store StoreConfig `yaml:"store"`
}

type StoreConfig struct {
	Backend  string         `yaml:"backend"`
	Path     string         `yaml:"path"`
	Postgres PostgresConfig `yaml:"postgres"`
	Dynamo   DynamoConfig   `yaml:"dynamo"`
}

type PostgresConfig struct {
	URL string `yaml:"url"`
}

type DynamoConfig struct {
	Table string `yaml:"table"`
}

// Load reads the config file at path. A missing file yields defaults.
// Environment variables override file values: STOREFRONT_STORE_BACKEND,
// STOREFRONT_STORE_PATH, DATABASE_URL, DYNAMO_TABLE.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Store: StoreConfig{
			Backend: BackendFile,
			Path:    "storefront_data.json",
		},
	}

	raw, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Store.Backend = getEnv("STOREFRONT_STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.Path = getEnv("STOREFRONT_STORE_PATH", cfg.Store.Path)
	cfg.Store.Postgres.URL = getEnv("DATABASE_URL", cfg.Store.Postgres.URL)
	cfg.Store.Dynamo.Table = getEnv("DYNAMO_TABLE", cfg.Store.Dynamo.Table)

	switch cfg.Store.Backend {
	case BackendMemory, BackendFile, BackendPostgres, BackendDynamo:
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
