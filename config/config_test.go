package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.PeriodDays != 60 {
		t.Errorf("PeriodDays = %d, want 60", cfg.PeriodDays)
	}
	if cfg.SnapshotTTL != 10*time.Minute {
		t.Errorf("SnapshotTTL = %v, want 10m", cfg.SnapshotTTL)
	}
	if cfg.MaxIterations != 8 {
		t.Errorf("MaxIterations = %d, want 8", cfg.MaxIterations)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PERIOD_DAYS", "30")
	t.Setenv("SNAPSHOT_TTL", "5m")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.PeriodDays != 30 {
		t.Errorf("PeriodDays = %d, want 30", cfg.PeriodDays)
	}
	if cfg.SnapshotTTL != 5*time.Minute {
		t.Errorf("SnapshotTTL = %v, want 5m", cfg.SnapshotTTL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Port = "abc" }, "invalid port 'abc'"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "invalid port 70000"},
		{"bad backend", func(c *Config) { c.DataBackend = "postgres" }, "invalid data backend 'postgres'"},
		{"mongo without uri", func(c *Config) { c.MongoURI = "" }, "MongoDB URI cannot be empty"},
		{"zero period", func(c *Config) { c.PeriodDays = 0 }, "invalid period days 0"},
		{"zero iterations", func(c *Config) { c.MaxIterations = 0 }, "invalid max iterations 0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Load()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}
