// Package config loads service and CLI settings from defaults, an optional
// config file and RK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RK_SERVER_PORT.
const EnvPrefix = "RK"

// Config is the effective configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Rules    RulesConfig    `mapstructure:"rules"`
	Offset   OffsetConfig   `mapstructure:"offset"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Storage  StorageConfig  `mapstructure:"storage"`
	BigQuery BigQueryConfig `mapstructure:"bigquery"`
}

type ServerConfig struct {
	Port         string `mapstructure:"port"`
	MaxUploadMB  int64  `mapstructure:"max_upload_mb"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type RulesConfig struct {
	// File is an optional YAML rule set; empty means the built-in rules.
	File string `mapstructure:"file"`
}

type OffsetConfig struct {
	// Tolerance is the absolute amount under which a greedy sum counts as equal.
	Tolerance string `mapstructure:"tolerance"`
}

type JobsConfig struct {
	Workers    int `mapstructure:"workers"`
	Buffer     int `mapstructure:"buffer"`
	MaxRetries int `mapstructure:"max_retries"`
}

type StorageConfig struct {
	// ReportBucket receives finished reports; empty disables uploads.
	ReportBucket string `mapstructure:"report_bucket"`
	ReportPrefix string `mapstructure:"report_prefix"`
}

type BigQueryConfig struct {
	Project     string `mapstructure:"project"`
	Dataset     string `mapstructure:"dataset"`
	LedgerTable string `mapstructure:"ledger_table"`
	RunsTable   string `mapstructure:"runs_table"`
}

// Enabled reports whether a warehouse source is configured.
func (c BigQueryConfig) Enabled() bool {
	return c.Project != "" && c.Dataset != "" && c.LedgerTable != ""
}

// OffsetTolerance parses the configured tolerance.
func (c Config) OffsetTolerance() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Offset.Tolerance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("config: offset.tolerance %q: %w", c.Offset.Tolerance, err)
	}
	return d, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.allow_origins", "*")
	v.SetDefault("log.level", "info")
	v.SetDefault("rules.file", "")
	v.SetDefault("offset.tolerance", "0.000001")
	v.SetDefault("jobs.workers", 2)
	v.SetDefault("jobs.buffer", 100)
	v.SetDefault("jobs.max_retries", 0)
	v.SetDefault("storage.report_bucket", "")
	v.SetDefault("storage.report_prefix", "reports")
	v.SetDefault("bigquery.project", "")
	v.SetDefault("bigquery.dataset", "")
	v.SetDefault("bigquery.ledger_table", "")
	v.SetDefault("bigquery.runs_table", "")
}

// Load reads configuration. An empty path looks for rk.yaml in the working
// directory and ignores it when absent; an explicit path must exist.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("rk")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config.Load: reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config.Load: decoding: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	if c.Jobs.Workers < 1 {
		return fmt.Errorf("config: jobs.workers must be at least 1, got %d", c.Jobs.Workers)
	}
	if c.Jobs.MaxRetries < 0 {
		return fmt.Errorf("config: jobs.max_retries must not be negative, got %d", c.Jobs.MaxRetries)
	}
	tol, err := c.OffsetTolerance()
	if err != nil {
		return err
	}
	if !tol.IsPositive() {
		return fmt.Errorf("config: offset.tolerance must be positive, got %s", tol)
	}
	return nil
}
