// Package config holds the typed runtime configuration, loaded from
// the config file, environment, and flags via viper.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	CountyURL string `mapstructure:"county_url" validate:"required,url"`
	ZillowURL string `mapstructure:"zillow_url" validate:"required,url"`
	DealioURL string `mapstructure:"dealio_url" validate:"required,url"`

	// TargetZips limits enrichment to properties in these zip codes.
	// Empty means no filter.
	TargetZips []string `mapstructure:"target_zips" validate:"dive,len=5,numeric"`

	Strategy      string `mapstructure:"strategy" validate:"oneof=static impersonate browser undetected"`
	MaxConcurrent int    `mapstructure:"max_concurrent" validate:"min=1,max=16"`

	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gt=0"`
	MaxRetries        int           `mapstructure:"max_retries" validate:"min=1,max=10"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
	Timeout           time.Duration `mapstructure:"timeout"`
	PageLoadTimeout   time.Duration `mapstructure:"page_load_timeout"`
	Headless          bool          `mapstructure:"headless"`

	UserAgents []string `mapstructure:"user_agents"`

	DatabasePath string `mapstructure:"database_path" validate:"required"`
	ExportPath   string `mapstructure:"export_path"`
	ExportFormat string `mapstructure:"export_format" validate:"omitempty,oneof=csv json jsonl yaml xlsx"`

	ScheduleDays int `mapstructure:"schedule_days" validate:"min=1"`
}

// SetDefaults registers the default values on a viper instance. Called
// before flags and config files are bound so they can override.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("county_url", "https://publicindex.sccourts.org/york/courtrosters/")
	v.SetDefault("zillow_url", "https://www.zillow.com")
	v.SetDefault("dealio_url", "https://www.dealio.com")
	v.SetDefault("target_zips", []string{})
	v.SetDefault("strategy", "impersonate")
	v.SetDefault("max_concurrent", 2)
	v.SetDefault("requests_per_second", 1.0)
	v.SetDefault("max_retries", 3)
	v.SetDefault("retry_backoff", "2s")
	v.SetDefault("timeout", "30s")
	v.SetDefault("page_load_timeout", "60s")
	v.SetDefault("headless", true)
	v.SetDefault("database_path", "lienwatch.db")
	v.SetDefault("export_path", "")
	v.SetDefault("export_format", "csv")
	v.SetDefault("schedule_days", 14)
}

// Load builds and validates the configuration from a viper instance.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				return nil, fmt.Errorf("invalid config: field %s failed %q", fe.Field(), fe.Tag())
			}
		}
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// ScheduleInterval converts the configured cadence to a duration.
func (c *Config) ScheduleInterval() time.Duration {
	return time.Duration(c.ScheduleDays) * 24 * time.Hour
}
