package config

const (
	EnvMongoURI          = "MONGODB_URI"
	EnvMongoURILegacy    = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"
	EnvAppEnv   = "APP_ENV"
	EnvNodeEnv  = "NODE_ENV"

	EnvJWTSecret   = "JWT_SECRET"
	EnvFrontendURL = "FRONTEND_URL"

	EnvStripeSecretKey     = "STRIPE_SECRET_KEY"
	EnvStripeWebhookSecret = "STRIPE_WEBHOOK_SECRET"
	EnvMockWebhookSecret   = "MOCK_WEBHOOK_SECRET"
	EnvPaymentCurrency     = "PAYMENT_CURRENCY"

	EnvStrictBookingTransitions = "STRICT_BOOKING_TRANSITIONS"
	EnvCaptureLockTTL           = "CAPTURE_LOCK_TTL"

	EnvRedisURL = "REDIS_URL"

	EnvNotificationsTopic    = "NOTIFICATIONS_TOPIC"
	EnvNotificationsDLQTopic = "NOTIFICATIONS_DLQ_TOPIC"
	EnvNotifyQueueSize       = "NOTIFY_QUEUE_SIZE"
	EnvNotifyWorkers         = "NOTIFY_WORKERS"
	EnvNotifyMaxAttempts     = "NOTIFY_MAX_ATTEMPTS"

	EnvMailjetAPIKey    = "MAILJET_API_KEY"
	EnvMailjetSecretKey = "MAILJET_SECRET_KEY"
	EnvEmailFrom        = "EMAIL_FROM"
	EnvEmailFromName    = "EMAIL_FROM_NAME"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
