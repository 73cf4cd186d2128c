package marketplace

import (
	"context"
	"sort"
	"sync"
	"time"

	bookingserrors "villagestay/internal/bookings/errors"
	bookingsrepo "villagestay/internal/bookings/repository"
	listingserrors "villagestay/internal/listings/errors"
	reviewserrors "villagestay/internal/reviews/errors"
	userserrors "villagestay/internal/users/errors"
	mongotx "villagestay/pkg/db/mongo"
	"villagestay/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func memoryRepositories() *Repositories {
	return &Repositories{
		Users:        &memoryUsers{users: map[string]*model.User{}},
		Listings:     &memoryListings{listings: map[string]*model.Listing{}},
		Reviews:      memoryReviews{},
		Bookings:     &memoryBookings{bookings: map[string]*model.Booking{}, clock: time.Now().UTC()},
		BookingLocks: &memoryLocks{held: map[string]bool{}},
	}
}

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func (r *memoryUsers) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return userserrors.ErrDuplicateEmail
		}
	}
	u.ID = primitive.NewObjectID().Hex()
	u.CreatedAt = time.Now().UTC()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memoryUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, userserrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memoryUsers) FindByIDs(_ context.Context, ids []string) (map[string]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]*model.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

func (r *memoryUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, userserrors.ErrNotFound
}

type memoryListings struct {
	mongotx.NoopTransactionManager
	mu       sync.Mutex
	listings map[string]*model.Listing
}

func (r *memoryListings) Create(_ context.Context, l *model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID = primitive.NewObjectID().Hex()
	l.CreatedAt = time.Now().UTC()
	l.UpdatedAt = l.CreatedAt
	cp := *l
	r.listings[l.ID] = &cp
	return nil
}

func (r *memoryListings) FindByID(_ context.Context, id string) (*model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !primitive.IsValidObjectID(id) {
		return nil, listingserrors.ErrInvalidID
	}
	l, ok := r.listings[id]
	if !ok {
		return nil, listingserrors.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *memoryListings) FindByIDs(_ context.Context, ids []string) (map[string]*model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]*model.Listing{}
	for _, id := range ids {
		if l, ok := r.listings[id]; ok {
			cp := *l
			out[id] = &cp
		}
	}
	return out, nil
}

func (r *memoryListings) Find(_ context.Context, _ model.ListingFilter, _ int, _ int64) ([]*model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memoryListings) Count(_ context.Context, _ model.ListingFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.listings)), nil
}

func (r *memoryListings) Update(_ context.Context, id, hostID string, l *model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.listings[id]
	if !ok || existing.Host != hostID {
		return listingserrors.ErrNotFound
	}
	cp := *l
	r.listings[id] = &cp
	return nil
}

func (r *memoryListings) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[id]; !ok {
		return listingserrors.ErrNotFound
	}
	delete(r.listings, id)
	return nil
}

func (r *memoryListings) UpdateRating(_ context.Context, id string, stats model.RatingStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[id]; !ok {
		return listingserrors.ErrNotFound
	}
	return nil
}

// memoryReviews holds no data; the booking scenario never reviews.
type memoryReviews struct {
	mongotx.NoopTransactionManager
}

func (memoryReviews) Create(context.Context, *model.Review) error { return nil }

func (memoryReviews) FindByID(context.Context, string) (*model.Review, error) {
	return nil, reviewserrors.ErrNotFound
}

func (memoryReviews) FindByListing(context.Context, string, int, int64) ([]*model.Review, error) {
	return []*model.Review{}, nil
}

func (memoryReviews) CountByListing(context.Context, string) (int64, error) { return 0, nil }

func (memoryReviews) Update(context.Context, string, string, *model.Review) error {
	return reviewserrors.ErrNotFound
}

func (memoryReviews) Delete(context.Context, string, string) error { return reviewserrors.ErrNotFound }

func (memoryReviews) DeleteByListing(context.Context, string) (int64, error) { return 0, nil }

func (memoryReviews) SetHelpful(context.Context, string, model.HelpfulMark, bool) error {
	return reviewserrors.ErrNotFound
}

func (memoryReviews) RatingStats(context.Context, string) (model.RatingStats, error) {
	return model.RatingStats{}, nil
}

type memoryBookings struct {
	mongotx.NoopTransactionManager
	mu       sync.Mutex
	bookings map[string]*model.Booking
	clock    time.Time
}

func (r *memoryBookings) Create(_ context.Context, b *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = r.clock.Add(time.Millisecond)
	b.ID = primitive.NewObjectID().Hex()
	b.CreatedAt, b.UpdatedAt = r.clock, r.clock
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *memoryBookings) get(id string) (*model.Booking, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, bookingserrors.ErrInvalidID
	}
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return b, nil
}

func (r *memoryBookings) FindByID(_ context.Context, id string) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := r.get(id)
	if err != nil {
		return nil, err
	}
	cp := *b
	return &cp, nil
}

func (r *memoryBookings) matching(f model.BookingFilter) []*model.Booking {
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

func (r *memoryBookings) Find(_ context.Context, f model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
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

func (r *memoryBookings) Count(_ context.Context, f model.BookingFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(f))), nil
}

func (r *memoryBookings) SumTotalPrice(_ context.Context, f model.BookingFilter) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total float64
	for _, b := range r.matching(f) {
		total += b.TotalPrice
	}
	return total, nil
}

func (r *memoryBookings) Update(_ context.Context, id, guestID string, b *model.Booking) error {
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

func (r *memoryBookings) matches(b *model.Booking, cond bookingsrepo.StatusCondition) bool {
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

func (r *memoryBookings) SetStatus(_ context.Context, id string, cond bookingsrepo.StatusCondition, status model.BookingStatus) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if !r.matches(b, cond) {
		return nil, bookingserrors.ErrNotFound
	}
	b.Status = status
	cp := *b
	return &cp, nil
}

func (r *memoryBookings) Capture(_ context.Context, id string, cond bookingsrepo.StatusCondition, paymentID string, amount int64) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if !r.matches(b, cond) {
		return nil, bookingserrors.ErrNotFound
	}
	b.Status = model.BookingConfirmed
	b.PaymentID = paymentID
	b.PaymentAmount = amount
	cp := *b
	return &cp, nil
}

func (r *memoryBookings) Delete(_ context.Context, id, guestID string) error {
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

type memoryLocks struct {
	mu   sync.Mutex
	held map[string]bool
}

func (r *memoryLocks) Acquire(_ context.Context, id string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.held[id] {
		return bookingserrors.ErrLocked
	}
	r.held[id] = true
	return nil
}

func (r *memoryLocks) Release(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.held, id)
	return nil
}
