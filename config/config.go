package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"yarrow-api"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE"`

	// PostgreSQL
	DatabaseDriver                string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                  string        `env:"DB_HOST" env-default:""`
	DatabasePort                  string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"yarrow"`
	DatabaseSSLMode               string        `env:"DB_SQL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int           `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Kafka Consumer (scraper output - ingestion)
	KafkaBrokers         []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaInputTopic      string   `env:"KAFKA_INPUT_TOPIC" env-default:"scraped-providers"`
	KafkaConsumerGroup   string   `env:"KAFKA_CONSUMER_GROUP" env-default:"yarrow-consumer"`
	KafkaConsumerEnabled bool     `env:"KAFKA_CONSUMER_ENABLED" env-default:"true"`

	// Kafka Producer settings
	KafkaOutputTopic  string `env:"KAFKA_OUTPUT_TOPIC" env-default:"provider-events"`
	KafkaBatchSize    int    `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int    `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int    `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Matching policy. Tier confidences and similarity floors are tunable
	// per deployment; defaults mirror matching.DefaultConfig.
	ExactWebsiteConfidence int     `env:"MATCH_EXACT_WEBSITE_CONFIDENCE" env-default:"100"`
	ExactAddressConfidence int     `env:"MATCH_EXACT_ADDRESS_CONFIDENCE" env-default:"95"`
	NameLocationConfidence int     `env:"MATCH_NAME_LOCATION_CONFIDENCE" env-default:"85"`
	FuzzyConfidence        int     `env:"MATCH_FUZZY_CONFIDENCE" env-default:"70"`
	NameLocationSimilarity float64 `env:"MATCH_NAME_LOCATION_SIMILARITY" env-default:"0.8"`
	FuzzySimilarity        float64 `env:"MATCH_FUZZY_SIMILARITY" env-default:"0.6"`
	FuzzyMaxDistanceMiles  float64 `env:"MATCH_FUZZY_MAX_DISTANCE_MILES" env-default:"10"`

	// Reconciliation
	ReconcileWorkerCount int  `env:"RECONCILE_WORKER_COUNT" env-default:"4"`
	ConfidenceThreshold  int  `env:"RECONCILE_CONFIDENCE_THRESHOLD" env-default:"85"`
	FeeAutoApplyEnabled  bool `env:"FEE_AUTO_APPLY_ENABLED" env-default:"true"`

	// Geocoding
	GeocodeBaseURL        string        `env:"GEOCODE_BASE_URL" env-default:"http://localhost:8085"`
	GeocodeForwardTTL     time.Duration `env:"GEOCODE_FORWARD_TTL" env-default:"2160h"`
	GeocodeReverseTTL     time.Duration `env:"GEOCODE_REVERSE_TTL" env-default:"24h"`
	GeocodeDailyLimit     int           `env:"GEOCODE_DAILY_LIMIT" env-default:"1000"`
	GeocodeResolveTimeout time.Duration `env:"GEOCODE_RESOLVE_TIMEOUT" env-default:"5s"`

	// Proximity search
	SearchDefaultRadiusMiles float64 `env:"SEARCH_DEFAULT_RADIUS_MILES" env-default:"25"`

	// Tracing
	TracingEnabled      bool   `env:"TRACING_ENABLED" env-default:"false"`
	TracingOTLPEndpoint string `env:"TRACING_OTLP_ENDPOINT" env-default:"localhost:4317"`
	TracingOTLPProtocol string `env:"TRACING_OTLP_PROTOCOL" env-default:"grpc"`
	TracingInsecure     bool   `env:"TRACING_INSECURE" env-default:"true"`

	StartupMaxAttempts int `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`
}
