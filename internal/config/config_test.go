package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func defaultViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(defaultViper())
	if err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Strategy != "impersonate" {
		t.Errorf("Strategy = %q", cfg.Strategy)
	}
	if cfg.RequestsPerSecond != 1.0 {
		t.Errorf("RequestsPerSecond = %v", cfg.RequestsPerSecond)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d", cfg.MaxRetries)
	}
	if cfg.RetryBackoff != 2*time.Second {
		t.Errorf("RetryBackoff = %v", cfg.RetryBackoff)
	}
	if cfg.ScheduleDays != 14 {
		t.Errorf("ScheduleDays = %d", cfg.ScheduleDays)
	}
	if cfg.CountyURL == "" || cfg.ZillowURL == "" || cfg.DealioURL == "" {
		t.Error("source URLs missing defaults")
	}
}

func TestLoadRejectsBadStrategy(t *testing.T) {
	v := defaultViper()
	v.Set("strategy", "teleport")
	if _, err := Load(v); err == nil {
		t.Error("expected validation error for unknown strategy")
	}
}

func TestLoadRejectsBadURL(t *testing.T) {
	v := defaultViper()
	v.Set("county_url", "not a url")
	if _, err := Load(v); err == nil {
		t.Error("expected validation error for malformed URL")
	}
}

func TestLoadRejectsBadZip(t *testing.T) {
	v := defaultViper()
	v.Set("target_zips", []string{"297"})
	if _, err := Load(v); err == nil {
		t.Error("expected validation error for short zip code")
	}
}

func TestLoadRejectsBadExportFormat(t *testing.T) {
	v := defaultViper()
	v.Set("export_format", "parquet")
	if _, err := Load(v); err == nil {
		t.Error("expected validation error for unsupported format")
	}
}

func TestScheduleInterval(t *testing.T) {
	cfg := &Config{ScheduleDays: 14}
	if got := cfg.ScheduleInterval(); got != 14*24*time.Hour {
		t.Errorf("ScheduleInterval = %v", got)
	}
}
