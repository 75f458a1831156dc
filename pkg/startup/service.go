package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Ramsey-B/yarrow/config"
	providerrepo "github.com/Ramsey-B/yarrow/internal/repositories/provider"
	verdictrepo "github.com/Ramsey-B/yarrow/internal/repositories/verdict"
	"github.com/Ramsey-B/yarrow/pkg/database"
	"github.com/Ramsey-B/yarrow/pkg/events"
	"github.com/Ramsey-B/yarrow/pkg/geocode"
	"github.com/Ramsey-B/yarrow/pkg/kafka"
	"github.com/Ramsey-B/yarrow/pkg/matching"
	"github.com/Ramsey-B/yarrow/pkg/processor"
	"github.com/Ramsey-B/yarrow/pkg/routes"
	"github.com/Ramsey-B/yarrow/pkg/routes/health"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
	"github.com/Ramsey-B/yarrow/pkg/tracing/exporters"
)

// Version is set at build time.
var Version = "dev"

// Service owns every long-lived dependency and starts them in order.
type Service struct {
	startup *Startup

	tracingDep  *tracingDependency
	databaseDep *databaseDependency
	kafkaDep    *kafkaDependency
	serverDep   *serverDependency
}

// NewService assembles the full dependency graph from config.
func NewService(logger ectologger.Logger, cfg *config.Config) *Service {
	s := &Service{startup: NewStartup(logger, cfg.StartupMaxAttempts)}

	s.tracingDep = &tracingDependency{logger: logger, config: cfg}
	s.databaseDep = &databaseDependency{logger: logger, config: cfg}
	s.kafkaDep = &kafkaDependency{logger: logger, config: cfg, db: s.databaseDep}
	s.serverDep = &serverDependency{logger: logger, config: cfg, db: s.databaseDep, kafka: s.kafkaDep}

	s.startup.AddDependency(s.tracingDep)
	s.startup.AddDependency(s.databaseDep)
	s.startup.AddDependency(s.kafkaDep)
	s.startup.AddDependency(s.serverDep)

	return s
}

// Start brings the service up; it blocks only for startup, not for serving.
func (s *Service) Start(ctx context.Context) error {
	return s.startup.Start(ctx)
}

// Stop shuts the service down in reverse dependency order.
func (s *Service) Stop(ctx context.Context) error {
	return s.startup.Stop(ctx)
}

type tracingDependency struct {
	logger   ectologger.Logger
	config   *config.Config
	provider *sdktrace.TracerProvider
}

func (d *tracingDependency) GetName() string     { return "tracing" }
func (d *tracingDependency) DependsOn() []string { return nil }

func (d *tracingDependency) Start(ctx context.Context) error {
	var exporter sdktrace.SpanExporter
	if d.config.TracingEnabled {
		otlp, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: d.config.TracingOTLPEndpoint,
			Protocol: d.config.TracingOTLPProtocol,
			Insecure: d.config.TracingInsecure,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			return err
		}
		exporter = otlp
	} else {
		exporter = &exporters.ConsoleExporter{}
	}

	d.provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", d.config.AppName),
		)),
	)
	otel.SetTracerProvider(d.provider)
	tracing.SetTracer(d.provider.Tracer(d.config.AppName))
	return nil
}

func (d *tracingDependency) Stop(ctx context.Context) error {
	if d.provider == nil {
		return nil
	}
	return d.provider.Shutdown(ctx)
}

type databaseDependency struct {
	logger ectologger.Logger
	config *config.Config
	raw    *sqlx.DB

	DB database.DB
}

func (d *databaseDependency) GetName() string     { return "database" }
func (d *databaseDependency) DependsOn() []string { return nil }

func (d *databaseDependency) Start(ctx context.Context) error {
	cfg := d.config
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)

	db, err := sqlx.Open(cfg.DatabaseDriver, dsn)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		return err
	}

	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	d.raw = db
	d.DB = database.NewDatabaseInstance(db, d.logger)

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return err
	}

	migrations := database.NewMigrationService(d.logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	return migrations.Migrate(cfg.DatabaseName, driver)
}

func (d *databaseDependency) Stop(ctx context.Context) error {
	if d.raw == nil {
		return nil
	}
	return d.raw.Close()
}

type kafkaDependency struct {
	logger ectologger.Logger
	config *config.Config
	db     *databaseDependency

	Producer *kafka.Producer
	Consumer *kafka.Consumer
}

func (d *kafkaDependency) GetName() string     { return "kafka" }
func (d *kafkaDependency) DependsOn() []string { return []string{"database"} }

func (d *kafkaDependency) Start(ctx context.Context) error {
	cfg := d.config

	d.Producer = kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaOutputTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, d.logger)

	if !cfg.KafkaConsumerEnabled {
		return nil
	}

	proc := buildProcessor(d.logger, cfg, d.db.DB, d.Producer)
	d.Consumer = kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:       cfg.KafkaBrokers,
		Topic:         cfg.KafkaInputTopic,
		ConsumerGroup: cfg.KafkaConsumerGroup,
	}, d.logger, proc.HandleMessage)

	return d.Consumer.Start(ctx)
}

func (d *kafkaDependency) Stop(ctx context.Context) error {
	if d.Consumer != nil {
		if err := d.Consumer.Stop(); err != nil {
			return err
		}
	}
	if d.Producer != nil {
		return d.Producer.Close()
	}
	return nil
}

type serverDependency struct {
	logger ectologger.Logger
	config *config.Config
	db     *databaseDependency
	kafka  *kafkaDependency

	echo    *echo.Echo
	checker *health.Checker
}

func (d *serverDependency) GetName() string     { return "server" }
func (d *serverDependency) DependsOn() []string { return []string{"database", "kafka"} }

func (d *serverDependency) Start(ctx context.Context) error {
	var consumerHealth interface{ Health() bool }
	if d.kafka.Consumer != nil {
		consumerHealth = d.kafka.Consumer
	}

	d.checker = health.NewChecker(d.db.DB, consumerHealth, Version)
	d.echo = routes.New(d.logger, d.config.AppName, d.checker)

	d.echo.Server.ReadTimeout = time.Duration(d.config.HttpServerReadTimeoutSeconds) * time.Second
	d.echo.Server.WriteTimeout = time.Duration(d.config.HttpServerWriteTimeoutSeconds) * time.Second
	d.echo.Server.IdleTimeout = time.Duration(d.config.HttpServerIdleTimeoutSeconds) * time.Second
	d.echo.Server.ReadHeaderTimeout = time.Duration(d.config.ReadHeaderTimeoutSeconds) * time.Second
	d.echo.Server.MaxHeaderBytes = d.config.MaxHeaderBytes

	go func() {
		if err := d.echo.Start(fmt.Sprintf(":%d", d.config.Port)); err != nil {
			d.logger.WithError(err).Info("HTTP server stopped")
		}
	}()

	d.checker.SetReady(true)
	return nil
}

func (d *serverDependency) Stop(ctx context.Context) error {
	if d.checker != nil {
		d.checker.SetReady(false)
	}
	if d.echo == nil {
		return nil
	}
	return d.echo.Shutdown(ctx)
}

// buildProcessor wires the matching pipeline from config.
func buildProcessor(logger ectologger.Logger, cfg *config.Config, db database.DB, producer *kafka.Producer) *processor.Processor {
	providerRepo := providerrepo.NewRepository(db, logger)
	verdictRepo := verdictrepo.NewRepository(db, logger)

	geocoder := geocode.NewService(logger, geocode.NewHTTPResolver(geocode.HTTPResolverConfig{
		BaseURL: cfg.GeocodeBaseURL,
		Timeout: cfg.GeocodeResolveTimeout,
	}), cfg.GeocodeConfig(), nil)

	classifier := matching.NewClassifier(logger, geocoder, cfg.MatchingConfig())
	reconciler := matching.NewReconciler(logger, classifier, cfg.ReconcilerConfig())
	emitter := events.NewEmitter(producer, logger)

	return processor.NewProcessor(logger, providerRepo, verdictRepo, classifier, reconciler, emitter, processor.Config{
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		AutoApply:           cfg.FeeAutoApplyEnabled,
	})
}
