//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-etl.
// Configuration is loaded from config files and CLI flags (no environment variables).
// CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// DateLayout is the layout used for calendar range settings.
const DateLayout = "2006-01-02"

// Config holds all configuration for pgedge-etl.
type Config struct {
	// Connection is a PostgreSQL connection string. When empty, the
	// Database section is used to build one.
	Connection string `mapstructure:"connection"`

	// Database holds discrete connection parameters.
	Database DatabaseConfig `mapstructure:"database"`

	// Schemas names the staging and warehouse schemas.
	Schemas SchemaConfig `mapstructure:"schemas"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Logging holds the log destination settings.
	Logging LoggingConfig `mapstructure:"logging"`

	Load     LoadConfig     `mapstructure:"load"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Report   ReportConfig   `mapstructure:"report"`
	Serve    ServeConfig    `mapstructure:"serve"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Generate GenerateConfig `mapstructure:"generate"`
}

// DatabaseConfig holds discrete PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// SchemaConfig names the schemas the pipeline reads from and writes to.
type SchemaConfig struct {
	Staging   string `mapstructure:"staging"`
	Warehouse string `mapstructure:"warehouse"`
}

// LoggingConfig holds the log destination.
type LoggingConfig struct {
	// File receives JSON log lines in addition to stderr.
	File string `mapstructure:"file"`

	// Pretty enables the human readable console writer.
	Pretty bool `mapstructure:"pretty"`
}

// LoadConfig holds configuration for the raw CSV loader.
type LoadConfig struct {
	// DataDir is the directory scanned for *.csv files.
	DataDir string `mapstructure:"data_dir"`
}

// PipelineConfig holds configuration for the transform pipeline.
type PipelineConfig struct {
	// Parallelism is the maximum number of steps run at once.
	// 1 runs the pipeline strictly sequentially.
	Parallelism int `mapstructure:"parallelism"`

	// CalendarStart and CalendarEnd bound the date dimension (inclusive).
	CalendarStart string `mapstructure:"calendar_start"`
	CalendarEnd   string `mapstructure:"calendar_end"`
}

// ReportConfig holds configuration for the reporting queries.
type ReportConfig struct {
	// MinRouteOrders excludes seller/user state routes with fewer orders.
	MinRouteOrders int `mapstructure:"min_route_orders"`

	// TopStates limits the purchase frequency chart.
	TopStates int `mapstructure:"top_states"`
}

// ServeConfig holds configuration for the dashboard server.
type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// FetchConfig holds configuration for the HTTP extractor.
type FetchConfig struct {
	BaseURL   string   `mapstructure:"base_url"`
	OutputDir string   `mapstructure:"output_dir"`
	Endpoints []string `mapstructure:"endpoints"`

	// Timeout is the per-request timeout in seconds.
	Timeout int `mapstructure:"timeout"`
}

// GenerateConfig holds configuration for the sample dataset generator.
type GenerateConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	Orders    int    `mapstructure:"orders"`
	Seed      uint64 `mapstructure:"seed"`

	// Profile names the activity profile order times follow.
	Profile string `mapstructure:"profile"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "postgres",
			SSLMode: "prefer",
		},
		Schemas: SchemaConfig{
			Staging:   "staging",
			Warehouse: "warehouse",
		},
		LogLevel: "info",
		Logging: LoggingConfig{
			Pretty: true,
		},
		Load: LoadConfig{
			DataDir: "./data",
		},
		Pipeline: PipelineConfig{
			Parallelism:   1,
			CalendarStart: "2016-04-09",
			CalendarEnd:   "2018-10-17",
		},
		Report: ReportConfig{
			MinRouteOrders: 10,
			TopStates:      20,
		},
		Serve: ServeConfig{
			Addr: ":8080",
		},
		Fetch: FetchConfig{
			BaseURL:   "https://potterapi-fedeperin.vercel.app/en",
			OutputDir: "./hp_data",
			Endpoints: []string{"characters", "houses", "spells", "books"},
			Timeout:   30,
		},
		Generate: GenerateConfig{
			OutputDir: "./data",
			Orders:    1000,
			Profile:   "store-regional",
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-etl.yaml
// 3. ~/.config/pgedge-etl/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("pgedge-etl")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pgedge-etl"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// ConnString returns the PostgreSQL connection string, built from the
// Database section when Connection is not set.
func (c *Config) ConnString() string {
	if c.Connection != "" {
		return c.Connection
	}

	d := c.Database
	u := url.URL{
		Scheme: "postgres",
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}

// CalendarRange returns the parsed calendar bounds.
func (c *Config) CalendarRange() (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, c.Pipeline.CalendarStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid calendar_start: %w", err)
	}
	end, err := time.Parse(DateLayout, c.Pipeline.CalendarEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid calendar_end: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("calendar_end must not be before calendar_start")
	}
	return start, end, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" && (c.Database.Host == "" || c.Database.Name == "") {
		return fmt.Errorf("connection string or database host and name are required")
	}
	if c.Schemas.Staging == "" || c.Schemas.Warehouse == "" {
		return fmt.Errorf("staging and warehouse schema names are required")
	}
	return nil
}

// ValidateLoad checks configuration required for the load command.
func (c *Config) ValidateLoad() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Load.DataDir == "" {
		return fmt.Errorf("data directory is required for load")
	}
	return nil
}

// ValidateTransform checks configuration required for the transform command.
func (c *Config) ValidateTransform() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Pipeline.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1")
	}
	if _, _, err := c.CalendarRange(); err != nil {
		return err
	}
	return nil
}

// ValidateReport checks configuration required for report and serve.
func (c *Config) ValidateReport() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Report.MinRouteOrders < 0 {
		return fmt.Errorf("min_route_orders must be non-negative")
	}
	if c.Report.TopStates < 1 {
		return fmt.Errorf("top_states must be at least 1")
	}
	return nil
}

// ValidateFetch checks configuration required for the fetch command.
func (c *Config) ValidateFetch() error {
	if c.Fetch.BaseURL == "" {
		return fmt.Errorf("fetch base_url is required")
	}
	if len(c.Fetch.Endpoints) == 0 {
		return fmt.Errorf("at least one fetch endpoint is required")
	}
	if c.Fetch.OutputDir == "" {
		return fmt.Errorf("fetch output_dir is required")
	}
	return nil
}

// ValidateGenerate checks configuration required for the generate command.
func (c *Config) ValidateGenerate() error {
	if c.Generate.OutputDir == "" {
		return fmt.Errorf("generate output_dir is required")
	}
	if c.Generate.Orders < 1 {
		return fmt.Errorf("orders must be at least 1")
	}
	return nil
}
