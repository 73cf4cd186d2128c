package service

import (
	"bytes"
	"context"
	"net/http"
	"sort"
	"sync"
	"testing"

	listingserrors "villagestay/internal/listings/errors"
	"villagestay/internal/listings/validator"
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

type memoryListingRepo struct {
	mongotx.NoopTransactionManager
	mu        sync.Mutex
	listings  map[string]*model.Listing
	lastLimit int
}

func newMemoryListingRepo() *memoryListingRepo {
	return &memoryListingRepo{listings: map[string]*model.Listing{}}
}

func (r *memoryListingRepo) Create(_ context.Context, l *model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID = primitive.NewObjectID().Hex()
	cp := *l
	r.listings[l.ID] = &cp
	return nil
}

func (r *memoryListingRepo) FindByID(_ context.Context, id string) (*model.Listing, error) {
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

func (r *memoryListingRepo) FindByIDs(_ context.Context, ids []string) (map[string]*model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]*model.Listing{}
	for _, id := range ids {
		if l, ok := r.listings[id]; ok {
			out[id] = l
		}
	}
	return out, nil
}

func (r *memoryListingRepo) matching(f model.ListingFilter) []*model.Listing {
	var out []*model.Listing
	for _, l := range r.listings {
		if f.State != "" && l.Location.State != f.State {
			continue
		}
		if f.ExperienceType != "" && l.ExperienceType != f.ExperienceType {
			continue
		}
		if f.MinPrice != nil && l.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && l.Price > *f.MaxPrice {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memoryListingRepo) Find(_ context.Context, f model.ListingFilter, limit int, offset int64) ([]*model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastLimit = limit
	all := r.matching(f)
	if int(offset) >= len(all) {
		return []*model.Listing{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *memoryListingRepo) Count(_ context.Context, f model.ListingFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(f))), nil
}

func (r *memoryListingRepo) Update(_ context.Context, id, hostID string, l *model.Listing) error {
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

func (r *memoryListingRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[id]; !ok {
		return listingserrors.ErrNotFound
	}
	delete(r.listings, id)
	return nil
}

func (r *memoryListingRepo) UpdateRating(_ context.Context, id string, stats model.RatingStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return listingserrors.ErrNotFound
	}
	l.Rating = stats.Average
	l.ReviewsCount = stats.Count
	return nil
}

type usersByID map[string]*model.User

func (u usersByID) FindByIDs(_ context.Context, ids []string) (map[string]*model.User, error) {
	out := map[string]*model.User{}
	for _, id := range ids {
		if user, ok := u[id]; ok {
			out[id] = user
		}
	}
	return out, nil
}

type recordingReviewRemover struct {
	listings []string
}

func (r *recordingReviewRemover) DeleteByListing(_ context.Context, listingID string) (int64, error) {
	r.listings = append(r.listings, listingID)
	return 2, nil
}

type fixture struct {
	svc     ListingService
	repo    *memoryListingRepo
	reviews *recordingReviewRemover
	host    *middleware.Principal
	guest   *middleware.Principal
	admin   *middleware.Principal
}

func newFixture() *fixture {
	log := logger.Discard()
	host := &model.User{ID: primitive.NewObjectID().Hex(), Role: model.RoleHost}
	guest := &model.User{ID: primitive.NewObjectID().Hex(), Role: model.RoleGuest}
	admin := &model.User{ID: primitive.NewObjectID().Hex(), Role: model.RoleAdmin}

	repo := newMemoryListingRepo()
	reviews := &recordingReviewRemover{}
	svc := NewListingService(
		repo,
		usersByID{host.ID: host, guest.ID: guest, admin.ID: admin},
		reviews,
		validator.NewListingValidator(log),
		&config.Config{Log: log},
	)

	return &fixture{
		svc:     svc,
		repo:    repo,
		reviews: reviews,
		host:    &middleware.Principal{UserID: host.ID, Role: string(host.Role)},
		guest:   &middleware.Principal{UserID: guest.ID, Role: string(guest.Role)},
		admin:   &middleware.Principal{UserID: admin.ID, Role: string(admin.Role)},
	}
}

func sampleListing() *model.Listing {
	return &model.Listing{
		Title:          "  Riverside   Homestay ",
		Description:    "Quiet stay by the backwaters",
		Location:       model.Location{State: "Kerala", Village: "Kumarakom"},
		Price:          2500,
		Amenities:      []string{" WiFi ", "wifi", "Breakfast"},
		ExperienceType: " Homestay ",
	}
}

func TestCreate_SetsHostAndSanitizes(t *testing.T) {
	f := newFixture()
	listing := sampleListing()
	listing.Host = "someone-else"
	listing.Rating = 4.9

	require.NoError(t, f.svc.Create(context.Background(), f.host, listing))

	assert.NotEmpty(t, listing.ID)
	assert.Equal(t, f.host.UserID, listing.Host)
	assert.Equal(t, "Riverside Homestay", listing.Title)
	assert.Equal(t, "homestay", listing.ExperienceType)
	assert.Equal(t, []string{"wifi", "breakfast"}, listing.Amenities)
	assert.Zero(t, listing.Rating)
}

func TestCreate_LogsThroughRequestLogger(t *testing.T) {
	f := newFixture()
	var buf bytes.Buffer
	requestLog := logger.New(logger.Config{Output: &buf, Level: logger.INFO}).With("request_id", "req-42")
	ctx := logger.WithContext(context.Background(), requestLog)

	require.NoError(t, f.svc.Create(ctx, f.host, sampleListing()))
	assert.Contains(t, buf.String(), "Listing created successfully")
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
}

func TestCreate_GuestIsForbidden(t *testing.T) {
	f := newFixture()

	err := f.svc.Create(context.Background(), f.guest, sampleListing())

	assert.Equal(t, http.StatusForbidden, apperrors.AsAppError(err).StatusCode())
}

func TestCreate_NegativePriceRejected(t *testing.T) {
	f := newFixture()
	listing := sampleListing()
	listing.Price = -1

	err := f.svc.Create(context.Background(), f.host, listing)

	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestUpdate_OnlyOwner(t *testing.T) {
	f := newFixture()
	listing := sampleListing()
	require.NoError(t, f.svc.Create(context.Background(), f.host, listing))

	price := 3000.0
	_, err := f.svc.Update(context.Background(), f.admin, listing.ID, &model.ListingUpdate{Price: &price})
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode())
	assert.Equal(t, "Listing not found or unauthorized", appErr.Message)

	updated, err := f.svc.Update(context.Background(), f.host, listing.ID, &model.ListingUpdate{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 3000.0, updated.Price)
	assert.Equal(t, "Riverside Homestay", updated.Title)
}

func TestDelete_RemovesReviewsAndAllowsAdmin(t *testing.T) {
	f := newFixture()
	listing := sampleListing()
	require.NoError(t, f.svc.Create(context.Background(), f.host, listing))

	err := f.svc.Delete(context.Background(), f.guest, listing.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	require.NoError(t, f.svc.Delete(context.Background(), f.admin, listing.ID))
	assert.Equal(t, []string{listing.ID}, f.reviews.listings)

	_, err = f.svc.GetByID(context.Background(), listing.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestSearch_DefaultLimitAndFilters(t *testing.T) {
	f := newFixture()
	for _, price := range []float64{1000, 2500, 4000} {
		l := sampleListing()
		l.Price = price
		require.NoError(t, f.svc.Create(context.Background(), f.host, l))
	}

	minPrice := 2000.0
	listings, total, err := f.svc.Search(context.Background(), model.ListingFilter{MinPrice: &minPrice, ExperienceType: "HOMESTAY"}, 0, 0)

	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, listings, 2)
	assert.Equal(t, DefaultPageSize, f.repo.lastLimit)
}

func TestSearch_InvertedPriceRange(t *testing.T) {
	f := newFixture()
	minPrice, maxPrice := 5000.0, 1000.0

	_, _, err := f.svc.Search(context.Background(), model.ListingFilter{MinPrice: &minPrice, MaxPrice: &maxPrice}, 10, 0)

	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}
