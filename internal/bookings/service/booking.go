package service

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingserrors "villagestay/internal/bookings/errors"
	"villagestay/internal/bookings/repository"
	"villagestay/internal/bookings/validator"
	"villagestay/internal/notifications"
	"villagestay/pkg/config"
	apperrors "villagestay/pkg/errors"
	"villagestay/pkg/logger"
	"villagestay/pkg/middleware"
	"villagestay/pkg/model"
	"villagestay/pkg/validation"
)

// ListingFinder resolves the listings referenced by bookings.
type ListingFinder interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.Listing, error)
}

// UserFinder resolves guests and hosts.
type UserFinder interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
}

// Notifier accepts events for delivery outside the request. It must not block.
type Notifier interface {
	Submit(ctx context.Context, events ...notifications.Event) int
}

type BookingService interface {
	Create(ctx context.Context, caller *middleware.Principal, input *validator.CreateInput) (*model.BookingView, error)
	GetByID(ctx context.Context, id string) (*model.BookingView, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.BookingView, int64, error)
	GetMine(ctx context.Context, caller *middleware.Principal) ([]*model.BookingView, error)
	Update(ctx context.Context, caller *middleware.Principal, id string, input *validator.UpdateInput) (*model.BookingView, error)
	Cancel(ctx context.Context, caller *middleware.Principal, id string) (*model.BookingView, error)
	Delete(ctx context.Context, caller *middleware.Principal, id string) error
	Capture(ctx context.Context, id, paymentID string, amount int64) (*model.CaptureResult, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	listings  ListingFinder
	users     UserFinder
	notifier  Notifier
	validator *validator.BookingValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	listings ListingFinder,
	users UserFinder,
	notifier Notifier,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		listings:  listings,
		users:     users,
		notifier:  notifier,
		validator: validator,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a pending booking for the caller. The caller is recorded as
// both guest and host; host attribution from the listing is not applied.
func (s *bookingService) Create(ctx context.Context, caller *middleware.Principal, input *validator.CreateInput) (*model.BookingView, error) {
	log := s.log(ctx)

	booking, err := s.validator.ParseCreate(input)
	if err != nil {
		log.Warn("Booking validation failed", "error", err)
		return nil, validation.AsAppError("Booking validation failed", err)
	}

	listings, err := s.listings.FindByIDs(ctx, []string{booking.Listing})
	if err != nil {
		log.Error("Failed to look up listing", "listing", booking.Listing, "error", err)
		return nil, apperrors.Internal("Failed to look up listing", err)
	}
	if _, ok := listings[booking.Listing]; !ok {
		return nil, apperrors.NotFoundWithID("Listing", booking.Listing)
	}

	booking.Guest = caller.UserID
	booking.Host = caller.UserID
	booking.Status = model.BookingPending
	if err := s.validate(ctx, booking); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		log.Error("Failed to create booking", "guest", caller.UserID, "listing", booking.Listing, "error", err)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	log.Info("Booking created successfully",
		"id", booking.ID,
		"listing", booking.Listing,
		"guest", booking.Guest,
		"check_in", booking.CheckIn,
		"check_out", booking.CheckOut,
	)

	view := s.viewOne(ctx, booking)
	s.notify(ctx, notifications.ForParties(notifications.EventBookingCreated, view, middleware.RequestIDFromContext(ctx)))
	return view, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.BookingView, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(ctx, err, apperrors.NotFoundWithID("Booking", id), "Failed to retrieve booking")
	}
	return s.viewOne(ctx, booking), nil
}

// GetAll lists every booking regardless of owner.
func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.BookingView, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, model.BookingFilter{})
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.Find(ctx, model.BookingFilter{}, limit, offset)
	}()

	wg.Wait()
	if errCount != nil {
		s.log(ctx).Error("Failed to count bookings", "error", errCount)
		return nil, 0, apperrors.Internal("Failed to count bookings", errCount)
	}
	if errFind != nil {
		s.log(ctx).Error("Failed to list bookings", "limit", limit, "offset", offset, "error", errFind)
		return nil, 0, apperrors.Internal("Failed to list bookings", errFind)
	}

	views, err := s.populate(ctx, bookings)
	if err != nil {
		return nil, 0, err
	}
	return views, count, nil
}

// GetMine lists the caller's bookings as guest, newest first.
func (s *bookingService) GetMine(ctx context.Context, caller *middleware.Principal) ([]*model.BookingView, error) {
	bookings, err := s.repo.Find(ctx, model.BookingFilter{Guest: caller.UserID}, 0, 0)
	if err != nil {
		s.log(ctx).Error("Failed to list guest bookings", "guest", caller.UserID, "error", err)
		return nil, apperrors.Internal("Failed to list bookings", err)
	}
	return s.populate(ctx, bookings)
}

func (s *bookingService) Update(ctx context.Context, caller *middleware.Principal, id string, input *validator.UpdateInput) (*model.BookingView, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	updates, err := s.validator.ParseUpdate(input)
	if err != nil {
		return nil, validation.AsAppError("Invalid update input", err)
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(ctx, err, apperrors.NotFoundOrUnauthorized("Booking"), "Failed to check booking existence")
	}
	if existing.Guest != caller.UserID {
		return nil, apperrors.NotFoundOrUnauthorized("Booking")
	}
	if updates.Empty() {
		return s.viewOne(ctx, existing), nil
	}

	merged := mergeBookingUpdates(existing, updates)
	if err := s.validate(ctx, merged); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, caller.UserID, merged); err != nil {
		return nil, s.mapRepoError(ctx, err, apperrors.NotFoundOrUnauthorized("Booking"), "Failed to update booking")
	}

	s.log(ctx).Info("Booking updated successfully", "id", id)
	return s.viewOne(ctx, merged), nil
}

// Cancel marks the caller's booking cancelled. Without strict transitions any
// current status is overwritten, so repeating the call is harmless.
func (s *bookingService) Cancel(ctx context.Context, caller *middleware.Principal, id string) (*model.BookingView, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	cond := repository.StatusCondition{Guest: caller.UserID}
	if s.cfg.StrictBookingTransitions {
		existing, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, s.mapRepoError(ctx, err, apperrors.NotFoundOrUnauthorized("Booking"), "Failed to check booking existence")
		}
		if existing.Guest != caller.UserID {
			return nil, apperrors.NotFoundOrUnauthorized("Booking")
		}
		if err := model.CheckTransition(existing.Status, model.BookingCancelled); err != nil {
			return nil, transitionError(err)
		}
		cond.From = []model.BookingStatus{existing.Status}
	}

	booking, err := s.repo.SetStatus(ctx, id, cond, model.BookingCancelled)
	if err != nil {
		if s.cfg.StrictBookingTransitions && errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.Conflict("Booking changed while it was being cancelled")
		}
		return nil, s.mapRepoError(ctx, err, apperrors.NotFoundOrUnauthorized("Booking"), "Failed to cancel booking")
	}

	s.log(ctx).Info("Booking cancelled", "id", id, "guest", caller.UserID)

	view := s.viewOne(ctx, booking)
	s.notify(ctx, notifications.ForParties(notifications.EventBookingCancelled, view, middleware.RequestIDFromContext(ctx)))
	return view, nil
}

func (s *bookingService) Delete(ctx context.Context, caller *middleware.Principal, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id, caller.UserID); err != nil {
		return s.mapRepoError(ctx, err, apperrors.NotFoundOrUnauthorized("Booking"), "Failed to delete booking")
	}

	s.log(ctx).Info("Booking deleted successfully", "id", id)
	return nil
}

// Capture confirms a booking after payment. It is not scoped to the caller.
// Concurrent captures of one booking are serialized by an advisory lock; the
// loser gets a conflict.
func (s *bookingService) Capture(ctx context.Context, id, paymentID string, amount int64) (*model.CaptureResult, error) {
	log := s.log(ctx)

	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if paymentID == "" {
		return nil, apperrors.ValidationFields("Capture validation failed", validation.Errors{}.Add("paymentId", "paymentId is required"))
	}
	if amount < 0 {
		return nil, apperrors.ValidationFields("Capture validation failed", validation.Errors{}.Add("amount", "amount must be at least 0"))
	}

	lockID := "capture_" + id
	if err := s.lockRepo.Acquire(ctx, lockID, s.cfg.CaptureLockTTL); err != nil {
		if errors.Is(err, bookingserrors.ErrLocked) {
			return nil, apperrors.Conflict("Payment for this booking is already being captured. Please try again.")
		}
		log.Error("Failed to acquire capture lock", "booking_id", id, "error", err)
		return nil, apperrors.Internal("Failed to acquire booking lock", err)
	}
	defer func() {
		if err := s.lockRepo.Release(ctx, lockID); err != nil {
			log.Warn("Failed to release capture lock", "lock_id", lockID, "error", err)
		}
	}()

	var cond repository.StatusCondition
	if s.cfg.StrictBookingTransitions {
		existing, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, s.mapRepoError(ctx, err, apperrors.NotFoundWithID("Booking", id), "Failed to check booking existence")
		}
		// Redelivery of the payment that already confirmed this booking.
		if existing.Status == model.BookingConfirmed && existing.PaymentID == paymentID {
			log.Info("Payment already captured", "booking_id", id, "payment_id", paymentID)
			return &model.CaptureResult{Booking: s.viewOne(ctx, existing), PaymentSplit: model.SplitPayment(existing.PaymentAmount)}, nil
		}
		if err := model.CheckTransition(existing.Status, model.BookingConfirmed); err != nil {
			return nil, transitionError(err)
		}
		cond.From = []model.BookingStatus{existing.Status}
	}

	booking, err := s.repo.Capture(ctx, id, cond, paymentID, amount)
	if err != nil {
		return nil, s.mapRepoError(ctx, err, apperrors.NotFoundWithID("Booking", id), "Failed to capture payment")
	}

	split := model.SplitPayment(amount)
	log.Info("Payment captured",
		"booking_id", id,
		"payment_id", paymentID,
		"amount", split.Amount,
		"host_share", split.HostShare,
		"platform_share", split.PlatformShare,
	)

	view := s.viewOne(ctx, booking)
	events := notifications.ForParties(notifications.EventPaymentCaptured, view, middleware.RequestIDFromContext(ctx))
	s.notify(ctx, notifications.WithPayment(events, paymentID, split))

	return &model.CaptureResult{Booking: view, PaymentSplit: split}, nil
}

// --- Helpers ---

func (s *bookingService) log(ctx context.Context) *logger.Logger {
	return logger.FromContext(ctx, s.cfg.Log)
}

func (s *bookingService) validate(ctx context.Context, b *model.Booking) error {
	if err := s.validator.Validate(b); err != nil {
		s.log(ctx).Warn("Booking validation failed", "error", err)
		return validation.AsAppError("Booking validation failed", err)
	}
	return nil
}

func (s *bookingService) notify(ctx context.Context, events []notifications.Event) {
	if len(events) == 0 {
		return
	}
	if accepted := s.notifier.Submit(ctx, events...); accepted < len(events) {
		s.log(ctx).Warn("Some notifications were not queued",
			"event_type", events[0].Type,
			"booking_id", events[0].Booking.ID,
			"submitted", len(events),
			"accepted", accepted,
		)
	}
}

func (s *bookingService) viewOne(ctx context.Context, b *model.Booking) *model.BookingView {
	views, err := s.populate(ctx, []*model.Booking{b})
	if err != nil || len(views) == 0 {
		return model.NewBookingView(b, nil, nil, nil, s.now())
	}
	return views[0]
}

// populate expands listing, guest and host references. A failed lookup is
// logged and the view falls back to bare ids rather than failing the read.
func (s *bookingService) populate(ctx context.Context, bookings []*model.Booking) ([]*model.BookingView, error) {
	views := make([]*model.BookingView, 0, len(bookings))
	if len(bookings) == 0 {
		return views, nil
	}

	listingIDs := make([]string, 0, len(bookings))
	userIDs := make([]string, 0, 2*len(bookings))
	for _, b := range bookings {
		listingIDs = append(listingIDs, b.Listing)
		userIDs = append(userIDs, b.Guest, b.Host)
	}

	var listings map[string]*model.Listing
	var users map[string]*model.User
	var errListings, errUsers error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		listings, errListings = s.listings.FindByIDs(ctx, listingIDs)
	}()

	go func() {
		defer wg.Done()
		users, errUsers = s.users.FindByIDs(ctx, userIDs)
	}()

	wg.Wait()
	if errListings != nil {
		s.log(ctx).Warn("Failed to populate booking listings", "error", errListings)
	}
	if errUsers != nil {
		s.log(ctx).Warn("Failed to populate booking users", "error", errUsers)
	}

	now := s.now()
	for _, b := range bookings {
		var listing *model.ListingSummary
		if l, ok := listings[b.Listing]; ok {
			listing = l.Summary()
		}
		views = append(views, model.NewBookingView(b, listing, userSummary(users, b.Guest), userSummary(users, b.Host), now))
	}
	return views, nil
}

func userSummary(users map[string]*model.User, id string) *model.UserSummary {
	if u, ok := users[id]; ok {
		return u.Summary()
	}
	return nil
}

func mergeBookingUpdates(existing *model.Booking, updates *model.BookingUpdate) *model.Booking {
	merged := *existing

	if updates.CheckIn != nil {
		merged.CheckIn = *updates.CheckIn
	}
	if updates.CheckOut != nil {
		merged.CheckOut = *updates.CheckOut
	}
	if updates.GuestsCount != nil {
		merged.GuestsCount = *updates.GuestsCount
	}
	if updates.TotalPrice != nil {
		merged.TotalPrice = *updates.TotalPrice
	}

	return &merged
}

func transitionError(err error) error {
	var te *model.TransitionError
	if errors.As(err, &te) {
		return apperrors.InvalidTransition(string(te.From), string(te.To))
	}
	return apperrors.Internal("Failed to check booking status", err)
}

func (s *bookingService) mapRepoError(ctx context.Context, err error, notFound *apperrors.AppError, internalMsg string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return notFound
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	case apperrors.IsAppError(err):
		return err
	default:
		s.log(ctx).Error(internalMsg, "error", err)
		return apperrors.Internal(internalMsg, err)
	}
}
