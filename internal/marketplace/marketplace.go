// Package marketplace assembles the HTTP API from the domain packages.
package marketplace

import (
	"context"
	"fmt"

	bookingshandler "villagestay/internal/bookings/handler"
	bookingsrepo "villagestay/internal/bookings/repository"
	bookingsservice "villagestay/internal/bookings/service"
	bookingsvalidator "villagestay/internal/bookings/validator"
	dashboardhandler "villagestay/internal/dashboard/handler"
	dashboardservice "villagestay/internal/dashboard/service"
	listingshandler "villagestay/internal/listings/handler"
	listingsrepo "villagestay/internal/listings/repository"
	listingsservice "villagestay/internal/listings/service"
	listingsvalidator "villagestay/internal/listings/validator"
	"villagestay/internal/notifications"
	paymentshandler "villagestay/internal/payments/handler"
	"villagestay/internal/payments/provider"
	paymentsservice "villagestay/internal/payments/service"
	reviewshandler "villagestay/internal/reviews/handler"
	reviewsrepo "villagestay/internal/reviews/repository"
	reviewsservice "villagestay/internal/reviews/service"
	reviewsvalidator "villagestay/internal/reviews/validator"
	usershandler "villagestay/internal/users/handler"
	usersrepo "villagestay/internal/users/repository"
	usersservice "villagestay/internal/users/service"
	usersvalidator "villagestay/internal/users/validator"
	"villagestay/pkg/config"
	"villagestay/pkg/contracts"
	"villagestay/pkg/jwt"
	"villagestay/pkg/kafka"
	kafka_config "villagestay/pkg/kafka/config"
	kafka_middleware "villagestay/pkg/kafka/middleware"
	"villagestay/pkg/middleware"
)

type Repositories struct {
	Users        usersrepo.UserRepository
	Listings     listingsrepo.ListingRepository
	Reviews      reviewsrepo.ReviewRepository
	Bookings     bookingsrepo.BookingRepository
	BookingLocks bookingsrepo.BookingLockRepository
}

// MongoRepositories requires cfg.SetMongo to have been called.
func MongoRepositories(cfg *config.Config) *Repositories {
	return &Repositories{
		Users:        usersrepo.NewMongoUserRepository(cfg),
		Listings:     listingsrepo.NewMongoListingRepository(cfg),
		Reviews:      reviewsrepo.NewMongoReviewRepository(cfg),
		Bookings:     bookingsrepo.NewMongoBookingRepository(cfg),
		BookingLocks: bookingsrepo.NewBookingLockRepository(cfg),
	}
}

type Dependencies struct {
	Repos    *Repositories
	Tokens   *jwt.Service
	Notifier bookingsservice.Notifier
	Payments provider.Provider
}

// NewHandlers builds every API handler. A nil Notifier or Payments falls
// back to notifications.Noop and provider.New(cfg).
func NewHandlers(cfg *config.Config, deps Dependencies) contracts.Handlers {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.Noop{}
	}
	payments := deps.Payments
	if payments == nil {
		payments = provider.New(cfg)
	}
	auth := middleware.NewAuthenticator(deps.Tokens, cfg.Log)

	userService := usersservice.NewUserService(
		deps.Repos.Users,
		usersvalidator.NewUserValidator(cfg.Log),
		deps.Tokens,
		cfg,
	)
	listingService := listingsservice.NewListingService(
		deps.Repos.Listings,
		userService,
		deps.Repos.Reviews,
		listingsvalidator.NewListingValidator(cfg.Log),
		cfg,
	)
	reviewService := reviewsservice.NewReviewService(
		deps.Repos.Reviews,
		deps.Repos.Listings,
		reviewsvalidator.NewReviewValidator(cfg.Log),
		cfg,
	)
	bookingService := bookingsservice.NewBookingService(
		deps.Repos.Bookings,
		deps.Repos.BookingLocks,
		listingService,
		userService,
		notifier,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		cfg,
	)
	dashboardService := dashboardservice.NewDashboardService(deps.Repos.Bookings, cfg)
	paymentService := paymentsservice.NewPaymentService(payments, bookingService, cfg)

	mockWebhookSecret := ""
	if payments.IsMock() {
		mockWebhookSecret = cfg.MockWebhookSecret
	}

	cfg.Log.Info("Marketplace services initialized",
		"database", cfg.MongoDatabaseName,
		"payment_provider", payments.Name(),
		"strict_transitions", cfg.StrictBookingTransitions,
	)

	return contracts.Handlers{
		usershandler.NewUserHandler(userService, auth, cfg.Log),
		listingshandler.NewListingHandler(listingService, auth, cfg.Log),
		reviewshandler.NewReviewHandler(reviewService, auth, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, auth, cfg.Log),
		dashboardhandler.NewDashboardHandler(dashboardService, auth, cfg.Log),
		paymentshandler.NewPaymentHandler(paymentService, auth, cfg.Log, mockWebhookSecret),
	}
}

// NewNotifier starts the notification dispatcher. With Kafka configured
// events go to the notifications topic for cmd/notifier; otherwise they are
// emailed from this process. The returned stop function drains the queue.
func NewNotifier(cfg *config.Config) (*notifications.Dispatcher, func(ctx context.Context), error) {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		return nil, nil, err
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	dispatcherCfg := notifications.DispatcherConfig{
		QueueSize:   cfg.NotifyQueueSize,
		Workers:     cfg.NotifyWorkers,
		MaxAttempts: cfg.NotifyMaxAttempts,
	}

	if !kafkaCfg.Enabled {
		dispatcher := notifications.NewDispatcher(
			dispatcherCfg,
			notifications.NewEmailDeliverer(notifications.NewSender(cfg, cfg.Log)),
			cfg.Log,
		)
		cfg.Log.Info("Notifications delivered in process")
		return dispatcher, stopDispatcher(cfg, dispatcher, nil), nil
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.NotificationsTopic, cfg.NotificationsDLQTopic, cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create notifications producer: %w", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	dispatcher := notifications.NewDispatcher(
		dispatcherCfg,
		notifications.NewKafkaDeliverer(producer, ServiceName),
		cfg.Log,
	)
	cfg.Log.Info("Notifications published to Kafka", "topic", producer.Topic())
	return dispatcher, stopDispatcher(cfg, dispatcher, producer), nil
}

func stopDispatcher(cfg *config.Config, dispatcher *notifications.Dispatcher, producer *kafka.Producer) func(ctx context.Context) {
	return func(ctx context.Context) {
		if err := dispatcher.Stop(ctx); err != nil {
			cfg.Log.Warn("Notification queue not drained before shutdown", "error", err)
		}
		if producer == nil {
			return
		}
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close notifications producer", "error", err)
		}
	}
}

const ServiceName = "marketplace"
