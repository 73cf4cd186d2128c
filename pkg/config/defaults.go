package config

import "time"

const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
	EnvironmentTest        = "test"
)

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "villagestay"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort        = "5000"
	DefaultLogLevel    = "info"
	DefaultEnvironment = EnvironmentDevelopment

	DefaultFrontendURL     = "http://localhost:3000"
	DefaultPaymentCurrency = "inr"
	DefaultCaptureLockTTL  = 30 * time.Second

	DefaultNotificationsTopic    = "villagestay.notifications"
	DefaultNotificationsDLQTopic = "villagestay.notifications.dlq"
	DefaultNotifyQueueSize       = 256
	DefaultNotifyWorkers         = 2
	DefaultNotifyMaxAttempts     = 3

	DefaultEmailFrom     = "no-reply@villagestay.in"
	DefaultEmailFromName = "VillageStay"

	// Production keeps the request budget tight, development is lenient.
	DefaultRateLimitRequests    = 100
	DefaultDevRateLimitRequests = 1000
	DefaultRateLimitWindow      = 15 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100
	MinJWTSecretLength     = 16
)
