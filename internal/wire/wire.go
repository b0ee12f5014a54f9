// Package wire provides dependency injection for the schedule engine.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"

	cliadapter "github.com/example/plp/internal/adapters/cli"
	"github.com/example/plp/internal/adapters/eventschema"
	"github.com/example/plp/internal/adapters/memory"
	"github.com/example/plp/internal/adapters/metrics"
	"github.com/example/plp/internal/adapters/parking"
	"github.com/example/plp/internal/adapters/prisonersearch"
	"github.com/example/plp/internal/adapters/sns"
	"github.com/example/plp/internal/adapters/sqldb"
	"github.com/example/plp/internal/adapters/sqs"
	"github.com/example/plp/internal/adapters/users"
	"github.com/example/plp/internal/app"
	"github.com/example/plp/internal/clock"
	"github.com/example/plp/internal/config"
	"github.com/example/plp/internal/db"
	"github.com/example/plp/internal/ports/primary"
	"github.com/example/plp/internal/ports/secondary"
)

var (
	configPath string

	cfg                 *config.Config
	logger              *slog.Logger
	conn                *sql.DB
	recorder            *metrics.Recorder
	sharedAWS           *aws.Config
	inductionService    primary.InductionScheduleService
	reviewService       primary.ReviewScheduleService
	learningPlanService primary.LearningPlanService
	eventService        primary.EventService
	messageService      primary.MessageService
	consumer            *sqs.Consumer

	once    sync.Once
	initErr error
)

// SetConfigPath sets the config file used on first initialization. An empty
// path falls back to PLP_CONFIG and then to the defaults.
func SetConfigPath(path string) {
	configPath = path
}

// Init builds every service. It is safe to call repeatedly; only the first
// call does any work.
func Init() error {
	once.Do(initServices)
	return initErr
}

// Close releases the database connection.
func Close() error {
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// Logger returns the configured logger.
func Logger() *slog.Logger {
	once.Do(initServices)
	return logger
}

// InductionScheduleService returns the singleton InductionScheduleService instance.
func InductionScheduleService() primary.InductionScheduleService {
	once.Do(initServices)
	return inductionService
}

// ReviewScheduleService returns the singleton ReviewScheduleService instance.
func ReviewScheduleService() primary.ReviewScheduleService {
	once.Do(initServices)
	return reviewService
}

// EventService returns the singleton EventService instance.
func EventService() primary.EventService {
	once.Do(initServices)
	return eventService
}

// MessageService returns the singleton MessageService instance.
func MessageService() primary.MessageService {
	once.Do(initServices)
	return messageService
}

// MetricsHandler returns the Prometheus scrape handler.
func MetricsHandler() http.Handler {
	once.Do(initServices)
	return recorder.Handler()
}

// Consumer returns the SQS consumer. It fails when no queue is configured.
func Consumer() (*sqs.Consumer, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	if consumer == nil {
		return nil, fmt.Errorf("queue.url is not configured")
	}
	return consumer, nil
}

// Migrate applies pending schema migrations and returns the resulting version.
func Migrate(ctx context.Context) (int, error) {
	if err := Init(); err != nil {
		return 0, err
	}
	if conn == nil {
		return 0, fmt.Errorf("database driver %q has no schema", cfg.Database.Driver)
	}
	dialect, err := db.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return 0, err
	}
	return db.Migrate(ctx, conn, dialect, logger)
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	initErr = buildServices(context.Background())
}

func buildServices(ctx context.Context) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger = newLogger(cfg.Logging, os.Stderr)
	recorder = metrics.NewRecorder()

	// Create repository adapters (secondary ports)
	schedules, learningPlans, err := openRepositories(ctx)
	if err != nil {
		return err
	}
	prisoners := prisonersearch.NewClient(cfg.PrisonerSearch.BaseURL, cfg.PrisonerSearch.Token, cfg.PrisonerSearch.Timeout)
	if cfg.PrisonerSearch.BaseURL == "" {
		logger.Warn("prisonerSearch.baseUrl is not set; prisoner lookups will fail")
	}
	directory := users.NewDirectory(cfg.Users)

	publisher, err := newPublisher(ctx)
	if err != nil {
		return err
	}
	parked, err := newParkedStore(ctx)
	if err != nil {
		return err
	}
	decoder, err := eventschema.NewDecoder()
	if err != nil {
		return err
	}

	// Create effect executor with injected repository and publisher
	executor := app.NewEffectExecutor(schedules, publisher, recorder, logger, cfg.Publisher.DetailBaseURL)
	table := cfg.Table()
	clk := clock.Real()

	// Create services (primary ports implementation)
	inductions := app.NewInductionScheduleService(schedules, learningPlans, directory, executor, table, clk, app.NewReference, logger)
	reviews := app.NewReviewScheduleService(schedules, learningPlans, prisoners, directory, executor, table, clk, app.NewReference, logger)
	inductionService = inductions
	reviewService = reviews
	learningPlanService = app.NewLearningPlanService(learningPlans, inductions, reviews, clk, app.NewReference, logger)
	eventService = app.NewEventService(inductions, reviews, prisoners, recorder, logger, cfg.Engine.MaxAttempts, cfg.PrisonerSearch.Timeout)
	messageService = app.NewMessageService(decoder, eventService, parked, recorder, clk, logger, cfg.Queue.MaxReceives)

	if cfg.Queue.URL != "" {
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return err
		}
		client := awssqs.NewFromConfig(awsCfg, func(o *awssqs.Options) {
			if cfg.AWS.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
			}
		})
		consumer = sqs.NewConsumer(client, cfg.Queue.URL, messageService, sqs.Options{
			Workers:    cfg.Queue.Workers,
			WaitTime:   cfg.Queue.WaitTime,
			RetryDelay: cfg.Queue.RetryDelay,
		}, logger)
	}
	return nil
}

func openRepositories(ctx context.Context) (secondary.ScheduleRepository, secondary.LearningPlanRepository, error) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("using the in-memory store; schedules are lost on exit")
		return memory.NewScheduleRepository(), memory.NewLearningPlanRepository(), nil
	}

	dialect, err := db.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, nil, err
	}
	if dialect == db.DialectSQLite {
		if err := ensureParentDir(cfg.Database.DSN); err != nil {
			return nil, nil, err
		}
	}
	conn, err = db.Open(ctx, dialect, cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	if _, err := db.Migrate(ctx, conn, dialect, logger); err != nil {
		return nil, nil, err
	}
	return sqldb.NewScheduleRepository(conn, dialect), sqldb.NewLearningPlanRepository(conn, dialect), nil
}

func newPublisher(ctx context.Context) (secondary.EventPublisher, error) {
	if cfg.Publisher.TopicARN == "" {
		return sns.NewLogPublisher(logger), nil
	}
	awsCfg, err := loadAWS(ctx)
	if err != nil {
		return nil, err
	}
	client := awssns.NewFromConfig(awsCfg, func(o *awssns.Options) {
		if cfg.AWS.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
		}
	})
	return sns.NewPublisher(client, cfg.Publisher.TopicARN), nil
}

func newParkedStore(ctx context.Context) (secondary.ParkedEventStore, error) {
	if cfg.Parking.Driver == "fs" {
		return parking.NewFileStore(cfg.Parking.Dir)
	}
	awsCfg, err := loadAWS(ctx)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.AWS.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
			o.UsePathStyle = true
		}
	})
	return parking.NewS3Store(client, cfg.Parking.Bucket, cfg.Parking.Prefix)
}

// loadAWS resolves credentials and region once for all AWS clients.
func loadAWS(ctx context.Context) (aws.Config, error) {
	if sharedAWS != nil {
		return *sharedAWS, nil
	}
	loaded, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	sharedAWS = &loaded
	return loaded, nil
}

func newLogger(c config.LoggingConfig, out io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

func ensureParentDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

// ScheduleAdapter returns a new ScheduleAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func ScheduleAdapter() *cliadapter.ScheduleAdapter {
	return ScheduleAdapterWithOutput(os.Stdout)
}

// ScheduleAdapterWithOutput returns a new ScheduleAdapter writing to the given output.
func ScheduleAdapterWithOutput(out io.Writer) *cliadapter.ScheduleAdapter {
	once.Do(initServices)
	return cliadapter.NewScheduleAdapter(inductionService, reviewService, out)
}

// EventAdapter returns a new EventAdapter writing to stdout.
func EventAdapter() *cliadapter.EventAdapter {
	return EventAdapterWithOutput(os.Stdout)
}

// EventAdapterWithOutput returns a new EventAdapter writing to the given output.
func EventAdapterWithOutput(out io.Writer) *cliadapter.EventAdapter {
	once.Do(initServices)
	return cliadapter.NewEventAdapter(messageService, out)
}

// LearningPlanAdapter returns a new LearningPlanAdapter writing to stdout.
func LearningPlanAdapter() *cliadapter.LearningPlanAdapter {
	return LearningPlanAdapterWithOutput(os.Stdout)
}

// LearningPlanAdapterWithOutput returns a new LearningPlanAdapter writing to the given output.
func LearningPlanAdapterWithOutput(out io.Writer) *cliadapter.LearningPlanAdapter {
	once.Do(initServices)
	return cliadapter.NewLearningPlanAdapter(learningPlanService, out)
}
