package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	bookingserrors "villagestay/internal/bookings/errors"
	"villagestay/internal/bookings/repository"
	"villagestay/internal/bookings/validator"
	"villagestay/internal/notifications"
	"villagestay/pkg/config"
	mongotx "villagestay/pkg/db/mongo"
	apperrors "villagestay/pkg/errors"
	"villagestay/pkg/logger"
	"villagestay/pkg/middleware"
	"villagestay/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memoryBookingRepo struct {
	mongotx.NoopTransactionManager
	mu       sync.Mutex
	bookings map[string]*model.Booking
	clock    time.Time

	createErr error
}

func newMemoryBookingRepo() *memoryBookingRepo {
	return &memoryBookingRepo{
		bookings: map[string]*model.Booking{},
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *memoryBookingRepo) Create(_ context.Context, b *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.clock = r.clock.Add(time.Second)
	b.ID = primitive.NewObjectID().Hex()
	b.CreatedAt, b.UpdatedAt = r.clock, r.clock
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *memoryBookingRepo) get(id string) (*model.Booking, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, bookingserrors.ErrInvalidID
	}
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return b, nil
}

func (r *memoryBookingRepo) FindByID(_ context.Context, id string) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := r.get(id)
	if err != nil {
		return nil, err
	}
	cp := *b
	return &cp, nil
}

func (r *memoryBookingRepo) matching(f model.BookingFilter) []*model.Booking {
	var out []*model.Booking
	for _, b := range r.bookings {
		if f.Guest != "" && b.Guest != f.Guest {
			continue
		}
		if f.Listing != "" && b.Listing != f.Listing {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.CheckInFrom != nil && b.CheckIn.Before(*f.CheckInFrom) {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memoryBookingRepo) Find(_ context.Context, f model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.matching(f)
	if int(offset) >= len(out) {
		return []*model.Booking{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryBookingRepo) Count(_ context.Context, f model.BookingFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(f))), nil
}

func (r *memoryBookingRepo) SumTotalPrice(_ context.Context, f model.BookingFilter) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total float64
	for _, b := range r.matching(f) {
		total += b.TotalPrice
	}
	return total, nil
}

func (r *memoryBookingRepo) Update(_ context.Context, id, guestID string, b *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, err := r.get(id)
	if err != nil {
		return err
	}
	if existing.Guest != guestID {
		return bookingserrors.ErrNotFound
	}
	existing.CheckIn, existing.CheckOut = b.CheckIn, b.CheckOut
	existing.GuestsCount, existing.TotalPrice = b.GuestsCount, b.TotalPrice
	return nil
}

func (r *memoryBookingRepo) matchCond(b *model.Booking, cond repository.StatusCondition) bool {
	if cond.Guest != "" && b.Guest != cond.Guest {
		return false
	}
	if len(cond.From) == 0 {
		return true
	}
	for _, s := range cond.From {
		if b.Status == s {
			return true
		}
	}
	return false
}

func (r *memoryBookingRepo) SetStatus(_ context.Context, id string, cond repository.StatusCondition, status model.BookingStatus) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if !r.matchCond(b, cond) {
		return nil, bookingserrors.ErrNotFound
	}
	b.Status = status
	cp := *b
	return &cp, nil
}

func (r *memoryBookingRepo) Capture(_ context.Context, id string, cond repository.StatusCondition, paymentID string, amount int64) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if !r.matchCond(b, cond) {
		return nil, bookingserrors.ErrNotFound
	}
	b.Status = model.BookingConfirmed
	b.PaymentID = paymentID
	b.PaymentAmount = amount
	cp := *b
	return &cp, nil
}

func (r *memoryBookingRepo) Delete(_ context.Context, id, guestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := r.get(id)
	if err != nil {
		return err
	}
	if b.Guest != guestID {
		return bookingserrors.ErrNotFound
	}
	delete(r.bookings, id)
	return nil
}

func (r *memoryBookingRepo) snapshot(id string) model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.bookings[id]
}

type memoryLockRepo struct {
	mu    sync.Mutex
	held  map[string]bool
	taken []string
}

func newMemoryLockRepo() *memoryLockRepo {
	return &memoryLockRepo{held: map[string]bool{}}
}

func (r *memoryLockRepo) Acquire(_ context.Context, id string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.held[id] {
		return bookingserrors.ErrLocked
	}
	r.held[id] = true
	r.taken = append(r.taken, id)
	return nil
}

func (r *memoryLockRepo) Release(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.held, id)
	return nil
}

type staticListings map[string]*model.Listing

func (s staticListings) FindByIDs(_ context.Context, ids []string) (map[string]*model.Listing, error) {
	out := map[string]*model.Listing{}
	for _, id := range ids {
		if l, ok := s[id]; ok {
			out[id] = l
		}
	}
	return out, nil
}

type staticUsers map[string]*model.User

func (s staticUsers) FindByIDs(_ context.Context, ids []string) (map[string]*model.User, error) {
	out := map[string]*model.User{}
	for _, id := range ids {
		if u, ok := s[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (n *recordingNotifier) Submit(_ context.Context, events ...notifications.Event) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, events...)
	return len(events)
}

func (n *recordingNotifier) types() []notifications.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notifications.EventType, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

var (
	guestID   = primitive.NewObjectID().Hex()
	otherID   = primitive.NewObjectID().Hex()
	listingID = primitive.NewObjectID().Hex()
)

type fixture struct {
	svc      BookingService
	repo     *memoryBookingRepo
	locks    *memoryLockRepo
	notifier *recordingNotifier
	cfg      *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{Log: logger.Discard(), CaptureLockTTL: 30 * time.Second}
	repo := newMemoryBookingRepo()
	locks := newMemoryLockRepo()
	notifier := &recordingNotifier{}

	listings := staticListings{listingID: {ID: listingID, Title: "Bamboo Cottage", Price: 2500, Host: otherID}}
	users := staticUsers{
		guestID: {ID: guestID, Name: "Meera", Email: "meera@example.com", Role: model.RoleGuest},
		otherID: {ID: otherID, Name: "Tashi", Email: "tashi@example.com", Role: model.RoleHost},
	}

	svc := NewBookingService(repo, locks, listings, users, notifier, validator.NewBookingValidator(cfg.Log), cfg)
	return &fixture{svc: svc, repo: repo, locks: locks, notifier: notifier, cfg: cfg}
}

func principal(id string) *middleware.Principal {
	return &middleware.Principal{UserID: id, Role: string(model.RoleGuest)}
}

func createInput() *validator.CreateInput {
	return &validator.CreateInput{
		Listing:     listingID,
		CheckIn:     "2024-03-15",
		CheckOut:    "2024-03-18",
		GuestsCount: json.RawMessage(`2`),
		TotalPrice:  json.RawMessage(`7500`),
	}
}

func (f *fixture) create(t *testing.T, caller string) *model.BookingView {
	t.Helper()
	view, err := f.svc.Create(context.Background(), principal(caller), createInput())
	require.NoError(t, err)
	return view
}

func statusOf(err error) int {
	return apperrors.AsAppError(err).StatusCode()
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	view := f.create(t, guestID)

	assert.Equal(t, model.BookingPending, view.Status)
	assert.Equal(t, guestID, view.Guest.ID)
	assert.Equal(t, guestID, view.Host.ID)
	assert.Equal(t, "Meera", view.Guest.Name)
	assert.Equal(t, "Bamboo Cottage", view.Listing.Title)
	assert.Equal(t, 7500.0, view.TotalPrice)

	stored := f.repo.snapshot(view.ID)
	assert.Equal(t, guestID, stored.Guest)
	assert.Equal(t, guestID, stored.Host)
	assert.Equal(t, model.BookingPending, stored.Status)

	assert.Equal(t, []notifications.EventType{notifications.EventBookingCreated, notifications.EventBookingCreated}, f.notifier.types())
}

func TestCreate_ValidationFailure(t *testing.T) {
	f := newFixture(t)
	input := createInput()
	input.GuestsCount = json.RawMessage(`0`)
	input.CheckOut = "yesterday"

	_, err := f.svc.Create(context.Background(), principal(guestID), input)
	require.Error(t, err)

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode())
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Len(t, appErr.Details["errors"], 2)
	assert.Empty(t, f.notifier.types())
}

func TestCreate_UnknownListing(t *testing.T) {
	f := newFixture(t)
	input := createInput()
	input.Listing = primitive.NewObjectID().Hex()

	_, err := f.svc.Create(context.Background(), principal(guestID), input)
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestCreate_PersistenceFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.createErr = errors.New("connection reset by peer")

	_, err := f.svc.Create(context.Background(), principal(guestID), createInput())
	require.Error(t, err)

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode())
	assert.Equal(t, apperrors.CodeInternal, appErr.Code)
	assert.Equal(t, "Failed to create booking", appErr.Message)
	assert.NotContains(t, appErr.Message, "connection reset")
	assert.Empty(t, f.notifier.types())
}

func TestCreate_LargeParty(t *testing.T) {
	f := newFixture(t)
	input := createInput()
	input.GuestsCount = json.RawMessage(`150`)

	view, err := f.svc.Create(context.Background(), principal(guestID), input)
	require.NoError(t, err)
	assert.Equal(t, 150, f.repo.snapshot(view.ID).GuestsCount)
}

func TestCancel_NotOwnedLeavesStorageUnchanged(t *testing.T) {
	f := newFixture(t)
	view := f.create(t, guestID)
	before := f.repo.snapshot(view.ID)

	_, err := f.svc.Cancel(context.Background(), principal(otherID), view.ID)
	require.Error(t, err)

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode())
	assert.Equal(t, "Booking not found or unauthorized", appErr.Message)
	assert.Equal(t, before, f.repo.snapshot(view.ID))
}

func TestCancel_MissingBooking(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Cancel(context.Background(), principal(guestID), primitive.NewObjectID().Hex())
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	_, err = f.svc.Cancel(context.Background(), principal(guestID), "bad-id")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestCancel_IsIdempotentFromAnyStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.create(t, guestID)

	_, err := f.svc.Capture(ctx, view.ID, "pay_1", 7500)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		cancelled, err := f.svc.Cancel(ctx, principal(guestID), view.ID)
		require.NoError(t, err)
		assert.Equal(t, model.BookingCancelled, cancelled.Status)
	}
	assert.Equal(t, model.BookingCancelled, f.repo.snapshot(view.ID).Status)
}

func TestCapture_Split(t *testing.T) {
	tests := []struct {
		amount   int64
		host     int64
		platform int64
	}{
		{10000, 8500, 1500},
		{10001, 8501, 1500},
		{0, 0, 0},
		{1, 1, 0},
		{99, 84, 15},
	}

	for _, tt := range tests {
		f := newFixture(t)
		view := f.create(t, guestID)

		result, err := f.svc.Capture(context.Background(), view.ID, "pi_123", tt.amount)
		require.NoError(t, err)

		assert.Equal(t, tt.host, result.HostShare, "amount %d", tt.amount)
		assert.Equal(t, tt.platform, result.PlatformShare, "amount %d", tt.amount)
		assert.Equal(t, tt.amount, result.HostShare+result.PlatformShare)
		assert.Equal(t, model.BookingConfirmed, result.Booking.Status)

		stored := f.repo.snapshot(view.ID)
		assert.Equal(t, model.BookingConfirmed, stored.Status)
		assert.Equal(t, "pi_123", stored.PaymentID)
		assert.Equal(t, tt.amount, stored.PaymentAmount)
	}
}

func TestCapture_NotifiesBothPartiesWithShares(t *testing.T) {
	f := newFixture(t)
	view := f.create(t, guestID)
	f.notifier.events = nil

	_, err := f.svc.Capture(context.Background(), view.ID, "pi_123", 10000)
	require.NoError(t, err)

	require.Len(t, f.notifier.events, 2)
	for _, e := range f.notifier.events {
		assert.Equal(t, notifications.EventPaymentCaptured, e.Type)
		require.NotNil(t, e.Payment)
		assert.Equal(t, int64(8500), e.Payment.HostShare)
		assert.Equal(t, "pi_123", e.PaymentID)
	}
}

func TestCapture_LockedAndReleased(t *testing.T) {
	f := newFixture(t)
	view := f.create(t, guestID)

	require.NoError(t, f.locks.Acquire(context.Background(), "capture_"+view.ID, time.Second))
	_, err := f.svc.Capture(context.Background(), view.ID, "pi_1", 100)
	assert.Equal(t, http.StatusConflict, statusOf(err))
	require.NoError(t, f.locks.Release(context.Background(), "capture_"+view.ID))

	_, err = f.svc.Capture(context.Background(), view.ID, "pi_1", 100)
	require.NoError(t, err)
	assert.Empty(t, f.locks.held)
}

func TestCapture_Errors(t *testing.T) {
	f := newFixture(t)
	view := f.create(t, guestID)

	_, err := f.svc.Capture(context.Background(), primitive.NewObjectID().Hex(), "pi_1", 100)
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	_, err = f.svc.Capture(context.Background(), view.ID, "", 100)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	_, err = f.svc.Capture(context.Background(), view.ID, "pi_1", -5)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestCapture_IgnoresCaller(t *testing.T) {
	f := newFixture(t)
	view := f.create(t, otherID)

	result, err := f.svc.Capture(context.Background(), view.ID, "pi_2", 500)
	require.NoError(t, err)
	assert.Equal(t, otherID, result.Booking.Guest.ID)
}

func TestStrictTransitions(t *testing.T) {
	f := newFixture(t)
	f.cfg.StrictBookingTransitions = true
	ctx := context.Background()

	view := f.create(t, guestID)
	_, err := f.svc.Capture(ctx, view.ID, "pi_1", 100)
	require.NoError(t, err)

	_, err = f.svc.Capture(ctx, view.ID, "pi_2", 100)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
	assert.Equal(t, "pi_1", f.repo.snapshot(view.ID).PaymentID)

	_, err = f.svc.Cancel(ctx, principal(guestID), view.ID)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, principal(guestID), view.ID)
	require.NoError(t, err, "repeated cancel stays allowed")

	_, err = f.svc.Capture(ctx, view.ID, "pi_3", 100)
	assert.Equal(t, http.StatusConflict, statusOf(err))

	_, err = f.svc.Cancel(ctx, principal(otherID), view.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestStrictTransitions_RepeatedCaptureOfSamePayment(t *testing.T) {
	f := newFixture(t)
	f.cfg.StrictBookingTransitions = true
	ctx := context.Background()

	view := f.create(t, guestID)
	_, err := f.svc.Capture(ctx, view.ID, "cs_mock_1", 10001)
	require.NoError(t, err)
	f.notifier.events = nil

	result, err := f.svc.Capture(ctx, view.ID, "cs_mock_1", 10001)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, result.Booking.Status)
	assert.Equal(t, int64(8501), result.HostShare)
	assert.Empty(t, f.notifier.types(), "a repeated capture does not notify again")
	assert.Empty(t, f.locks.held)
}

func TestGetMine_ScopedAndNewestFirst(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, guestID)
	f.create(t, otherID)
	second := f.create(t, guestID)

	mine, err := f.svc.GetMine(context.Background(), principal(guestID))
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)
}

func TestGetAll_ReturnsEveryone(t *testing.T) {
	f := newFixture(t)
	f.create(t, guestID)
	f.create(t, otherID)

	all, total, err := f.svc.GetAll(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, int64(2), total)

	page, total, err := f.svc.GetAll(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Len(t, page, 1)
	assert.Equal(t, int64(2), total)
}

func TestGetByID(t *testing.T) {
	f := newFixture(t)
	view := f.create(t, guestID)

	got, err := f.svc.GetByID(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bamboo Cottage", got.Listing.Title)

	_, err = f.svc.GetByID(context.Background(), primitive.NewObjectID().Hex())
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	_, err = f.svc.GetByID(context.Background(), "zzz")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.create(t, guestID)

	checkOut := "2024-03-20"
	updated, err := f.svc.Update(ctx, principal(guestID), view.ID, &validator.UpdateInput{
		CheckOut:   &checkOut,
		TotalPrice: json.RawMessage(`12500`),
	})
	require.NoError(t, err)
	assert.Equal(t, 20, updated.CheckOut.Day())
	assert.Equal(t, 12500.0, f.repo.snapshot(view.ID).TotalPrice)

	reversed := "2024-03-01"
	_, err = f.svc.Update(ctx, principal(guestID), view.ID, &validator.UpdateInput{CheckOut: &reversed})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	_, err = f.svc.Update(ctx, principal(otherID), view.ID, &validator.UpdateInput{CheckOut: &checkOut})
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.create(t, guestID)

	err := f.svc.Delete(ctx, principal(otherID), view.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	require.NoError(t, f.svc.Delete(ctx, principal(guestID), view.ID))
	_, err = f.svc.GetByID(ctx, view.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestEffectiveStatusReportsPastStaysCompleted(t *testing.T) {
	f := newFixture(t)
	view := f.create(t, guestID)

	assert.Equal(t, model.BookingPending, view.Status)
	assert.Equal(t, model.BookingCompleted, view.EffectiveStatus)
}
