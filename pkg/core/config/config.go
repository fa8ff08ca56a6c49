// Package config loads service settings from an optional YAML file, a .env file and the
// process environment, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"spac_dashboard/pkg/core/redemption"
)

// DefaultPath is where the API server looks for its YAML config.
const DefaultPath = "config/spac.yaml"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Engine   EngineConfig   `yaml:"engine"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr"`
	AllowedOrigin string `yaml:"allowed_origin"`
}

// DatabaseConfig selects the deal store. An empty URL keeps deals in memory.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// EngineConfig holds the scenario grid defaults used when a request omits them.
type EngineConfig struct {
	Workers       int                   `yaml:"workers"`
	StandardRates []decimal.Decimal     `yaml:"standard_rates"`
	Grid          redemption.GridSpec   `yaml:"grid"`
	Categories    []redemption.Category `yaml:"categories"`
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// Default returns the settings used when no file or environment overrides exist.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Addr: ":8080", AllowedOrigin: "*"},
		Log:     LogConfig{Level: "info"},
		Metrics: MetricsConfig{Namespace: "spac_dashboard"},
		Engine: EngineConfig{
			Workers:       4,
			StandardRates: append([]decimal.Decimal(nil), redemption.StandardRates...),
			Grid:          redemption.DefaultGrid,
			Categories:    redemption.DefaultCategories,
		},
	}
}

// Load reads .env (if present), then the YAML file at path (if present), then applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// defaults
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SPAC_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SPAC_ALLOWED_ORIGIN"); v != "" {
		c.Server.AllowedOrigin = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("SPAC_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SPAC_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SPAC_WORKERS %q: %w", v, err)
		}
		c.Engine.Workers = n
	}
	if v := os.Getenv("SPAC_GRID_STEP"); v != "" {
		step, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid SPAC_GRID_STEP %q: %w", v, err)
		}
		c.Engine.Grid.Step = step
	}
	return nil
}

// Validate checks the engine defaults with the engine's own validators.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("engine.workers must not be negative (got %d)", c.Engine.Workers)
	}
	if err := c.Engine.Grid.Validate(); err != nil {
		return fmt.Errorf("invalid engine.grid: %w", err)
	}
	for _, r := range c.Engine.StandardRates {
		if err := redemption.ValidateRate(r); err != nil {
			return fmt.Errorf("invalid engine.standard_rates: %w", err)
		}
	}
	if len(c.Engine.Categories) == 0 {
		c.Engine.Categories = redemption.DefaultCategories
	}
	if err := redemption.ValidateCategories(c.Engine.Categories); err != nil {
		return fmt.Errorf("invalid engine.categories: %w", err)
	}
	return nil
}
