package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	StoreMongo    = "mongo"
	StoreDynamo   = "dynamodb"
	StorePostgres = "postgres"

	EventsNone  = "none"
	EventsSNS   = "sns"
	EventsKafka = "kafka"
	EventsSQS   = "sqs"
)

// Config holds all environment settings for the store API.
type Config struct {
	Env  string
	Port string

	JWTSecret           string
	AccessTokenTTL      time.Duration
	TrustGatewayHeaders bool

	MongoURI     string
	MongoDB      string
	CatalogStore string
	UserStore    string
	PostgresDSN  string

	RedisURL       string
	CartLockTTL    time.Duration
	CartLockWait   time.Duration
	IdempotencyTTL time.Duration

	EventsBackend string
	SNSTopicARN   string
	KafkaBrokers  []string
	KafkaTopic    string
	SQSQueueURL   string

	AWSRegion          string
	AWSEndpoint        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSUseSecrets      bool
	SecretsPrefix      string

	DDBProductsTable   string
	DDBCategoriesTable string

	S3Bucket   string
	S3Prefix   string
	S3Endpoint string
	CDNDomain  string

	MetricsEnabled     bool
	MetricsNamespace   string
	CloudWatchLogGroup string

	AllowedOrigins     []string
	RateLimitPerMinute int
	RateLimitBurst     int
}

// LoadConfig reads .env (when present) and the environment. Secrets and
// validation are applied separately so Secrets Manager can fill gaps first.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var err error
	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		TrustGatewayHeaders: getEnvBool("TRUST_GATEWAY_HEADERS", false),
		MongoURI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:             getEnv("MONGO_DB", "store"),
		CatalogStore:        strings.ToLower(getEnv("CATALOG_STORE", StoreMongo)),
		UserStore:           strings.ToLower(getEnv("USER_STORE", StoreMongo)),
		PostgresDSN:         os.Getenv("POSTGRES_DSN"),
		RedisURL:            os.Getenv("REDIS_URL"),
		EventsBackend:       strings.ToLower(getEnv("EVENTS_BACKEND", EventsNone)),
		SNSTopicARN:         os.Getenv("SNS_TOPIC_ARN"),
		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "store-events"),
		SQSQueueURL:         os.Getenv("SQS_QUEUE_URL"),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSEndpoint:         os.Getenv("AWS_ENDPOINT"),
		AWSAccessKeyID:      os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey:  os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AWSUseSecrets:       getEnvBool("AWS_USE_SECRETS", false),
		SecretsPrefix:       getEnv("AWS_SECRETS_PREFIX", "store"),
		DDBProductsTable:    getEnv("DDB_TABLE_PRODUCTS", "Products"),
		DDBCategoriesTable:  getEnv("DDB_TABLE_CATEGORIES", "Categories"),
		S3Bucket:            getEnv("AWS_S3_BUCKET", "store"),
		S3Prefix:            getEnv("AWS_S3_PREFIX", "products/"),
		CDNDomain:           os.Getenv("AWS_CLOUDFRONT_DOMAIN"),
		MetricsEnabled:      getEnvBool("METRICS_ENABLED", false),
		MetricsNamespace:    getEnv("METRICS_NAMESPACE", "Store"),
		CloudWatchLogGroup:  os.Getenv("CLOUDWATCH_LOG_GROUP"),
		AllowedOrigins:      splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
	}
	cfg.S3Endpoint = getEnv("AWS_S3_ENDPOINT", cfg.AWSEndpoint)

	if cfg.AccessTokenTTL, err = getEnvDuration("ACCESS_TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CartLockTTL, err = getEnvDuration("CART_LOCK_TTL", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.CartLockWait, err = getEnvDuration("CART_LOCK_WAIT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.IdempotencyTTL, err = getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = getEnvInt("RATE_LIMIT_PER_MINUTE", 100); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getEnvInt("RATE_LIMIT_BURST", 50); err != nil {
		return nil, err
	}
	return cfg, nil
}

type secretOverrider interface {
	Override(ctx context.Context, name string, target *string) error
}

// ApplySecrets replaces credentials with their Secrets Manager values,
// keeping the environment value whenever a lookup fails.
func (c *Config) ApplySecrets(ctx context.Context, sm secretOverrider, logger *zap.Logger) {
	targets := map[string]*string{
		"JWT_SECRET":   &c.JWTSecret,
		"MONGO_URI":    &c.MongoURI,
		"POSTGRES_DSN": &c.PostgresDSN,
	}
	for name, target := range targets {
		if err := sm.Override(ctx, name, target); err != nil {
			logger.Warn("Secret not loaded, using environment value", zap.String("secret", name), zap.Error(err))
		}
	}
}

// Validate checks required values and backend selections.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.CatalogStore {
	case StoreMongo, StoreDynamo:
	default:
		return fmt.Errorf("CATALOG_STORE must be %q or %q, got %q", StoreMongo, StoreDynamo, c.CatalogStore)
	}
	switch c.UserStore {
	case StoreMongo:
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when USER_STORE=%s", StorePostgres)
		}
	default:
		return fmt.Errorf("USER_STORE must be %q or %q, got %q", StoreMongo, StorePostgres, c.UserStore)
	}
	switch c.EventsBackend {
	case EventsNone:
	case EventsSNS:
		if c.SNSTopicARN == "" {
			return fmt.Errorf("SNS_TOPIC_ARN is required when EVENTS_BACKEND=%s", EventsSNS)
		}
	case EventsKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when EVENTS_BACKEND=%s", EventsKafka)
		}
	case EventsSQS:
		if c.SQSQueueURL == "" {
			return fmt.Errorf("SQS_QUEUE_URL is required when EVENTS_BACKEND=%s", EventsSQS)
		}
	default:
		return fmt.Errorf("EVENTS_BACKEND must be one of none, sns, sqs, kafka, got %q", c.EventsBackend)
	}
	if c.RateLimitPerMinute <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit settings must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.TrimSuffix(p, "/"))
		}
	}
	return out
}
