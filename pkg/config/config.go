package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"villagestay/pkg/client"
	"villagestay/pkg/logger"

	"github.com/joho/godotenv"
)

var (
	mongoURIRegex   = regexp.MustCompile(`^mongodb(\+srv)?://`)
	credentialRegex = regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port        string
	Environment string

	JWTSecret   string
	FrontendURL string

	StripeSecretKey     string
	StripeWebhookSecret string
	MockWebhookSecret   string
	PaymentCurrency     string

	StrictBookingTransitions bool
	CaptureLockTTL           time.Duration

	RedisURL string

	NotificationsTopic    string
	NotificationsDLQTopic string
	NotifyQueueSize       int
	NotifyWorkers         int
	NotifyMaxAttempts     int

	MailjetAPIKey    string
	MailjetSecretKey string
	EmailFrom        string
	EmailFromName    string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

// Load reads .env (when present) and the process environment, validates the
// result and exits on failure.
func Load(serviceName string) *Config {
	_ = godotenv.Load()

	cfg := FromEnv(serviceName)
	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv builds a Config from the environment without validating it.
func FromEnv(serviceName string) *Config {
	environment := strings.ToLower(getEnvStr(EnvAppEnv, getEnvStr(EnvNodeEnv, DefaultEnvironment)))

	rateLimitDefault := DefaultDevRateLimitRequests
	if environment == EnvironmentProduction {
		rateLimitDefault = DefaultRateLimitRequests
	}

	return &Config{
		MongoURI:          getEnvStr(EnvMongoURI, getEnvStr(EnvMongoURILegacy, DefaultMongoURI)),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port:        getEnvStr(EnvPort, DefaultPort),
		Environment: environment,

		JWTSecret:   getEnvStr(EnvJWTSecret, ""),
		FrontendURL: strings.TrimRight(getEnvStr(EnvFrontendURL, DefaultFrontendURL), "/"),

		StripeSecretKey:     getEnvStr(EnvStripeSecretKey, ""),
		StripeWebhookSecret: getEnvStr(EnvStripeWebhookSecret, ""),
		MockWebhookSecret:   getEnvStr(EnvMockWebhookSecret, ""),
		PaymentCurrency:     strings.ToLower(getEnvStr(EnvPaymentCurrency, DefaultPaymentCurrency)),

		StrictBookingTransitions: getEnvBool(EnvStrictBookingTransitions, false),
		CaptureLockTTL:           getEnvDuration(EnvCaptureLockTTL, DefaultCaptureLockTTL),

		RedisURL: getEnvStr(EnvRedisURL, ""),

		NotificationsTopic:    getEnvStr(EnvNotificationsTopic, DefaultNotificationsTopic),
		NotificationsDLQTopic: getEnvStr(EnvNotificationsDLQTopic, DefaultNotificationsDLQTopic),
		NotifyQueueSize:       getEnvNum(EnvNotifyQueueSize, DefaultNotifyQueueSize),
		NotifyWorkers:         getEnvNum(EnvNotifyWorkers, DefaultNotifyWorkers),
		NotifyMaxAttempts:     getEnvNum(EnvNotifyMaxAttempts, DefaultNotifyMaxAttempts),

		MailjetAPIKey:    getEnvStr(EnvMailjetAPIKey, ""),
		MailjetSecretKey: getEnvStr(EnvMailjetSecretKey, ""),
		EmailFrom:        getEnvStr(EnvEmailFrom, DefaultEmailFrom),
		EmailFromName:    getEnvStr(EnvEmailFromName, DefaultEmailFromName),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, rateLimitDefault),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects the shared Redis client when REDIS_URL is configured.
func (cfg *Config) SetRedis() {
	if cfg.RedisURL == "" {
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisURL, cfg.MongoConnTimeout)
}

func (cfg *Config) IsProduction() bool {
	return cfg.Environment == EnvironmentProduction
}

// PaymentsLive reports whether a real payment provider key is configured.
func (cfg *Config) PaymentsLive() bool {
	return cfg.StripeSecretKey != ""
}

// MailerConfigured reports whether outbound email credentials are present.
func (cfg *Config) MailerConfigured() bool {
	return cfg.MailjetAPIKey != "" && cfg.MailjetSecretKey != ""
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.Environment {
	case EnvironmentDevelopment, EnvironmentProduction, EnvironmentTest:
	default:
		errors = append(errors, fmt.Sprintf("Environment must be one of development, production, test, got: %s", cfg.Environment))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !mongoURIRegex.MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.FrontendURL == "" {
		errors = append(errors, "FrontendURL cannot be empty")
	}
	if cfg.StripeWebhookSecret != "" && cfg.StripeSecretKey == "" {
		errors = append(errors, "StripeWebhookSecret is set but StripeSecretKey is empty")
	}
	if len(cfg.PaymentCurrency) != 3 {
		errors = append(errors, fmt.Sprintf("PaymentCurrency must be a 3 letter ISO code, got: %s", cfg.PaymentCurrency))
	}
	if cfg.MailjetAPIKey != "" && cfg.MailjetSecretKey == "" {
		errors = append(errors, "MailjetSecretKey is required when MailjetAPIKey is set")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.CaptureLockTTL <= 0 {
		errors = append(errors, fmt.Sprintf("CaptureLockTTL must be positive, got: %s", cfg.CaptureLockTTL))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.NotifyQueueSize <= 0 {
		errors = append(errors, fmt.Sprintf("NotifyQueueSize must be positive, got: %d", cfg.NotifyQueueSize))
	}
	if cfg.NotifyWorkers <= 0 {
		errors = append(errors, fmt.Sprintf("NotifyWorkers must be positive, got: %d", cfg.NotifyWorkers))
	}
	if cfg.NotifyMaxAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("NotifyMaxAttempts must be positive, got: %d", cfg.NotifyMaxAttempts))
	}

	return joinErrors(errors)
}

// ValidateAPI adds the checks only the HTTP API needs on top of Validate.
func (cfg *Config) ValidateAPI() error {
	var errors []string

	if cfg.JWTSecret == "" {
		errors = append(errors, "JWTSecret cannot be empty")
	} else if cfg.IsProduction() && len(cfg.JWTSecret) < MinJWTSecretLength {
		errors = append(errors, fmt.Sprintf("JWTSecret must be at least %d characters in production", MinJWTSecretLength))
	}

	return joinErrors(errors)
}

func joinErrors(errors []string) error {
	if len(errors) == 0 {
		return nil
	}
	errMsg := "Configuration validation failed:\n"
	for i, err := range errors {
		errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
	}
	return fmt.Errorf("%s", errMsg)
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"environment", cfg.Environment,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"frontend_url", cfg.FrontendURL,
		"jwt_secret_set", cfg.JWTSecret != "",
		"payments_live", cfg.PaymentsLive(),
		"stripe_webhook_secret_set", cfg.StripeWebhookSecret != "",
		"mock_webhook_secret_set", cfg.MockWebhookSecret != "",
		"payment_currency", cfg.PaymentCurrency,
		"strict_booking_transitions", cfg.StrictBookingTransitions,
		"redis_enabled", cfg.RedisURL != "",
		"mailer_configured", cfg.MailerConfigured(),
		"notify_queue_size", cfg.NotifyQueueSize,
		"notify_workers", cfg.NotifyWorkers,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func redactMongoURI(uri string) string {
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

// NormalizePaginationLimit returns 0 (no limit) for non-positive values and
// caps the rest.
func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		return 0
	}
	return min(limit, DefaultPaginationLimit)
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
