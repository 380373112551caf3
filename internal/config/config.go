//-------------------------------------------------------------------------
//
// EcoBottle Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, EcoBottle, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for ecobottle-etl.
// Configuration is loaded from config files and CLI flags (no environment variables).
// CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Referential-integrity modes accepted by the mode setting.
const (
	ModeStrict  = "strict"
	ModeLenient = "lenient"
)

// Config holds all configuration for ecobottle-etl.
type Config struct {
	// InputDir is the directory holding the raw CSV snapshot.
	InputDir string `mapstructure:"input_dir"`

	// OutputDir is the directory the warehouse CSV files are written to.
	OutputDir string `mapstructure:"output_dir"`

	// Mode controls unresolved-reference handling: strict aborts the run,
	// lenient drops the offending fact row and records a warning.
	Mode string `mapstructure:"mode"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Load holds configuration for the load subcommand.
	Load LoadConfig `mapstructure:"load"`

	// Seed holds configuration for the seed subcommand.
	Seed SeedConfig `mapstructure:"seed"`
}

// LoadConfig holds configuration for loading the warehouse into PostgreSQL.
type LoadConfig struct {
	// Connection is the PostgreSQL connection string.
	Connection string `mapstructure:"connection"`

	// DropExisting drops existing warehouse tables before loading.
	DropExisting bool `mapstructure:"drop_existing"`
}

// SeedConfig holds configuration for synthetic raw data generation.
type SeedConfig struct {
	// Customers is the number of customers to generate.
	Customers int `mapstructure:"customers"`

	// Products is the number of products to generate.
	Products int `mapstructure:"products"`

	// Orders is the number of sales orders to generate.
	Orders int `mapstructure:"orders"`

	// Seed is the RNG seed; 0 picks a random one.
	Seed uint64 `mapstructure:"seed"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		InputDir:  "raw",
		OutputDir: "dw",
		Mode:      ModeStrict,
		LogLevel:  "info",
		Seed: SeedConfig{
			Customers: 200,
			Products:  60,
			Orders:    500,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./ecobottle-etl.yaml
// 3. ~/.config/ecobottle-etl/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Set config name and type
	v.SetConfigName("ecobottle-etl")
	v.SetConfigType("yaml")

	// Add config paths
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "ecobottle-etl"))
	}

	// Use specific config file if provided
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Start with defaults
	cfg := DefaultConfig()

	// Unmarshal config file values
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("input directory is required")
	}
	if c.Mode != ModeStrict && c.Mode != ModeLenient {
		return fmt.Errorf("mode must be '%s' or '%s'", ModeStrict, ModeLenient)
	}
	return nil
}

// ValidateRun checks configuration required for the run command.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	return nil
}

// ValidateLoad checks configuration required for the load command.
func (c *Config) ValidateLoad() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Load.Connection == "" {
		return fmt.Errorf("connection string is required for load")
	}
	return nil
}

// ValidateSeed checks configuration required for the seed command.
func (c *Config) ValidateSeed() error {
	if c.InputDir == "" {
		return fmt.Errorf("input directory is required")
	}
	if c.Seed.Customers < 1 {
		return fmt.Errorf("seed customer count must be at least 1")
	}
	if c.Seed.Products < 1 {
		return fmt.Errorf("seed product count must be at least 1")
	}
	if c.Seed.Orders < 0 {
		return fmt.Errorf("seed order count must be non-negative")
	}
	return nil
}
