package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/plp/internal/core/calculation"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv(EnvVar, "")
	t.Setenv("HOME", "/home/plp")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.DSN != "/home/plp/.plp/plp.db" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("PRISONER_SEARCH_TOKEN", "s3cret")
	path := filepath.Join(t.TempDir(), "plp.yaml")
	content := `
logging:
  level: debug
  format: json
database:
  driver: postgres
  dsn: postgres://plp@localhost/plp?sslmode=disable
queue:
  url: https://sqs.eu-west-2.amazonaws.com/000000000000/plp-events
  maxReceives: 3
  waitTime: 10s
prisonerSearch:
  baseUrl: https://prisoner-search.example
  timeout: 2s
parking:
  driver: s3
  bucket: plp-parked
engine:
  maxAttempts: 5
calculation:
  inductionDays:
    NEW_PRISON_ADMISSION: 15
  exemptionExtensionDays: 7
users:
  jsmith: Jane Smith
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvVar, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Database.Driver != "postgres" || cfg.Queue.MaxReceives != 3 || cfg.Queue.WaitTime != 10*time.Second {
		t.Errorf("decoded config = %+v", cfg)
	}
	if cfg.Queue.Workers != 4 {
		t.Errorf("workers = %d, want default 4", cfg.Queue.Workers)
	}
	if cfg.PrisonerSearch.Token != "s3cret" {
		t.Errorf("token = %q, want expanded from the environment", cfg.PrisonerSearch.Token)
	}
	if cfg.Users["jsmith"] != "Jane Smith" {
		t.Errorf("users = %v", cfg.Users)
	}

	table := cfg.Table()
	if table.InductionDays[calculation.InductionNewPrisonAdmission] != 15 {
		t.Errorf("overridden induction days = %d, want 15", table.InductionDays[calculation.InductionNewPrisonAdmission])
	}
	if table.InductionDays[calculation.InductionExistingPrisonerOnRemand] != 60 {
		t.Errorf("default induction days lost in merge")
	}
	if table.ExemptionExtensionDays != 7 {
		t.Errorf("extension days = %d, want 7", table.ExemptionExtensionDays)
	}
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	if _, err := Parse([]byte("databse:\n  driver: sqlite\n")); err == nil {
		t.Error("expected error for misspelt section")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }, "database.dsn"},
		{"memory needs no dsn", func(c *Config) { c.Database.Driver = "memory"; c.Database.DSN = "" }, ""},
		{"no receives", func(c *Config) { c.Queue.MaxReceives = 0 }, "queue.maxReceives"},
		{"long poll too long", func(c *Config) { c.Queue.WaitTime = time.Minute }, "queue.waitTime"},
		{"s3 without bucket", func(c *Config) { c.Parking.Driver = "s3" }, "parking.bucket"},
		{"no attempts", func(c *Config) { c.Engine.MaxAttempts = 0 }, "engine.maxAttempts"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Database.DSN = "/tmp/plp.db"
			cfg.Parking.Dir = "/tmp/parked"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}
