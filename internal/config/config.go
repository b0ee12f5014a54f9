// Package config loads the engine configuration from a single YAML file,
// named by the --config flag or the PLP_CONFIG environment variable. Values
// not set in the file keep their defaults; ${VAR} and ${VAR:-default} are
// expanded in paths, DSNs and credentials.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/plp/internal/core/calculation"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "PLP_CONFIG"

// Config is the complete engine configuration.
type Config struct {
	Logging        LoggingConfig        `yaml:"logging"`
	Database       DatabaseConfig       `yaml:"database"`
	AWS            AWSConfig            `yaml:"aws"`
	Queue          QueueConfig          `yaml:"queue"`
	Publisher      PublisherConfig      `yaml:"publisher"`
	PrisonerSearch PrisonerSearchConfig `yaml:"prisonerSearch"`
	Parking        ParkingConfig        `yaml:"parking"`
	Metrics        MetricsConfig        `yaml:"metrics"`
	Engine         EngineConfig         `yaml:"engine"`

	// Calculation overrides individual entries of the built-in timing table.
	Calculation calculation.Table `yaml:"calculation"`

	// Users maps usernames to display names.
	Users map[string]string `yaml:"users"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// DatabaseConfig selects the schedule store.
type DatabaseConfig struct {
	// Driver is sqlite, postgres or memory.
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// AWSConfig is shared by the SQS, SNS and S3 clients.
type AWSConfig struct {
	Region string `yaml:"region"`
	// Endpoint overrides the service endpoint, e.g. for LocalStack.
	Endpoint string `yaml:"endpoint"`
}

// QueueConfig configures the inbound event consumer.
type QueueConfig struct {
	URL         string        `yaml:"url"`
	Workers     int           `yaml:"workers"`
	MaxReceives int           `yaml:"maxReceives"`
	WaitTime    time.Duration `yaml:"waitTime"`
	RetryDelay  time.Duration `yaml:"retryDelay"`
}

// PublisherConfig configures outbound notifications. With no topic, events
// are logged instead.
type PublisherConfig struct {
	TopicARN      string `yaml:"topicArn"`
	DetailBaseURL string `yaml:"detailBaseUrl"`
}

// PrisonerSearchConfig configures the prisoner directory client.
type PrisonerSearchConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// ParkingConfig selects where unhandleable messages are kept.
type ParkingConfig struct {
	// Driver is fs or s3.
	Driver string `yaml:"driver"`
	Dir    string `yaml:"dir"`
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// MetricsConfig configures the Prometheus endpoint served by consume.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// EngineConfig tunes event handling.
type EngineConfig struct {
	MaxAttempts int `yaml:"maxAttempts"`
}

// Default returns the configuration used when no file is given: a local
// SQLite database and filesystem parking under ~/.plp.
func Default() *Config {
	return &Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "${HOME}/.plp/plp.db"},
		AWS:      AWSConfig{Region: "eu-west-2"},
		Queue: QueueConfig{
			Workers:     4,
			MaxReceives: 5,
			WaitTime:    20 * time.Second,
			RetryDelay:  30 * time.Second,
		},
		Publisher:      PublisherConfig{DetailBaseURL: "http://localhost:8080"},
		PrisonerSearch: PrisonerSearchConfig{Token: "${PRISONER_SEARCH_TOKEN}", Timeout: 5 * time.Second},
		Parking:        ParkingConfig{Driver: "fs", Dir: "${HOME}/.plp/parked", Prefix: "parked/"},
		Metrics:        MetricsConfig{Listen: ":9090"},
		Engine:         EngineConfig{MaxAttempts: 3},
		Users:          map[string]string{},
	}
}

// Load reads the file named by path or, when path is empty, by PLP_CONFIG.
// With neither set it returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile reads configuration from path over the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.expandVariables()
	return cfg, nil
}

// Table returns the built-in timing table with the configured overrides applied.
func (c *Config) Table() calculation.Table {
	return calculation.DefaultTable().Merge(c.Calculation)
}

func (c *Config) expandVariables() {
	c.Database.DSN = expandVars(c.Database.DSN)
	c.PrisonerSearch.BaseURL = expandVars(c.PrisonerSearch.BaseURL)
	c.PrisonerSearch.Token = expandVars(c.PrisonerSearch.Token)
	c.Parking.Dir = expandVars(c.Parking.Dir)
	c.Queue.URL = expandVars(c.Queue.URL)
	c.Publisher.TopicARN = expandVars(c.Publisher.TopicARN)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} from the environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of debug, info, warn, error"))
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format must be text or json"))
	}

	switch c.Database.Driver {
	case "memory":
	case "sqlite", "postgres":
		if c.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("database.dsn is required for %s", c.Database.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver must be one of sqlite, postgres, memory"))
	}

	if c.Queue.Workers < 1 {
		errs = append(errs, fmt.Errorf("queue.workers must be at least 1"))
	}
	if c.Queue.MaxReceives < 1 {
		errs = append(errs, fmt.Errorf("queue.maxReceives must be at least 1"))
	}
	if c.Queue.WaitTime > 20*time.Second {
		errs = append(errs, fmt.Errorf("queue.waitTime must be at most 20s"))
	}

	if c.Publisher.DetailBaseURL == "" {
		errs = append(errs, fmt.Errorf("publisher.detailBaseUrl is required"))
	}
	if c.PrisonerSearch.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("prisonerSearch.timeout must be positive"))
	}

	switch c.Parking.Driver {
	case "fs":
		if c.Parking.Dir == "" {
			errs = append(errs, fmt.Errorf("parking.dir is required for the fs driver"))
		}
	case "s3":
		if c.Parking.Bucket == "" {
			errs = append(errs, fmt.Errorf("parking.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("parking.driver must be fs or s3"))
	}

	if c.Engine.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("engine.maxAttempts must be at least 1"))
	}
	if err := c.Table().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("calculation: %w", err))
	}

	return errors.Join(errs...)
}
