package service

import (
	"context"
	"errors"
	"sync"

	listingserrors "villagestay/internal/listings/errors"
	"villagestay/internal/listings/repository"
	"villagestay/internal/listings/validator"
	"villagestay/pkg/config"
	apperrors "villagestay/pkg/errors"
	"villagestay/pkg/logger"
	"villagestay/pkg/middleware"
	"villagestay/pkg/model"
	"villagestay/pkg/sanitizer"
	"villagestay/pkg/validation"

	"go.mongodb.org/mongo-driver/mongo"
)

// DefaultPageSize applies when a search does not ask for a limit.
const DefaultPageSize = 20

// UserFinder resolves listing hosts.
type UserFinder interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
}

// ReviewRemover deletes a listing's reviews together with the listing.
type ReviewRemover interface {
	DeleteByListing(ctx context.Context, listingID string) (int64, error)
}

type ListingService interface {
	Create(ctx context.Context, caller *middleware.Principal, listing *model.Listing) error
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.Listing, error)
	Search(ctx context.Context, filter model.ListingFilter, limit int, offset int64) ([]*model.Listing, int64, error)
	Update(ctx context.Context, caller *middleware.Principal, id string, updates *model.ListingUpdate) (*model.Listing, error)
	Delete(ctx context.Context, caller *middleware.Principal, id string) error
}

type listingService struct {
	repo      repository.ListingRepository
	users     UserFinder
	reviews   ReviewRemover
	validator *validator.ListingValidator
	cfg       *config.Config
}

func NewListingService(
	repo repository.ListingRepository,
	users UserFinder,
	reviews ReviewRemover,
	validator *validator.ListingValidator,
	cfg *config.Config,
) ListingService {
	return &listingService{
		repo:      repo,
		users:     users,
		reviews:   reviews,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *listingService) Create(ctx context.Context, caller *middleware.Principal, listing *model.Listing) error {
	if err := s.requireHost(ctx, caller.UserID); err != nil {
		return err
	}

	listing.ID = ""
	listing.Host = caller.UserID
	listing.Rating = 0
	listing.ReviewsCount = 0
	s.sanitize(listing)
	if err := s.validate(ctx, listing); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		s.log(ctx).Error("Failed to create listing", "host", caller.UserID, "error", err)
		return apperrors.Internal("Failed to create listing", err)
	}

	s.log(ctx).Info("Listing created successfully",
		"id", listing.ID,
		"host", listing.Host,
		"state", listing.Location.State,
		"experience_type", listing.ExperienceType,
	)
	return nil
}

func (s *listingService) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Listing ID cannot be empty")
	}

	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, apperrors.NotFoundWithID("Listing", id), "Failed to retrieve listing")
	}
	return listing, nil
}

func (s *listingService) FindByIDs(ctx context.Context, ids []string) (map[string]*model.Listing, error) {
	return s.repo.FindByIDs(ctx, ids)
}

func (s *listingService) Search(ctx context.Context, filter model.ListingFilter, limit int, offset int64) ([]*model.Listing, int64, error) {
	if err := s.validator.ValidateFilter(&filter); err != nil {
		return nil, 0, validation.AsAppError("Invalid listing filter", err)
	}
	filter.ExperienceType = sanitizer.NormalizeTag(filter.ExperienceType)
	filter.State = sanitizer.TrimAndNormalize(filter.State)
	if limit <= 0 {
		limit = DefaultPageSize
	}

	var count int64
	var listings []*model.Listing
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.log(ctx).Error("Failed to count listings", "error", errCount)
			errCount = apperrors.Internal("Failed to count listings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		listings, errFind = s.repo.Find(ctx, filter, limit, offset)
		if errFind != nil {
			s.log(ctx).Error("Failed to search listings", "limit", limit, "offset", offset, "error", errFind)
			errFind = apperrors.Internal("Failed to search listings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return listings, count, nil
}

func (s *listingService) Update(ctx context.Context, caller *middleware.Principal, id string, updates *model.ListingUpdate) (*model.Listing, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Listing ID cannot be empty")
	}
	if err := s.validator.ValidateUpdate(updates); err != nil {
		return nil, validation.AsAppError("Invalid update input", err)
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, apperrors.NotFoundOrUnauthorized("Listing"), "Failed to check listing existence")
	}
	if existing.Host != caller.UserID {
		return nil, apperrors.NotFoundOrUnauthorized("Listing")
	}

	merged := mergeListingUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(ctx, merged); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, caller.UserID, merged); err != nil {
		return nil, mapRepoError(err, apperrors.NotFoundOrUnauthorized("Listing"), "Failed to update listing")
	}

	s.log(ctx).Info("Listing updated successfully", "id", id)
	return merged, nil
}

// Delete removes the listing and its reviews. Hosts may delete their own
// listings, admins any listing.
func (s *listingService) Delete(ctx context.Context, caller *middleware.Principal, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Listing ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapRepoError(err, apperrors.NotFoundOrUnauthorized("Listing"), "Failed to check listing existence")
	}
	if existing.Host != caller.UserID && model.UserRole(caller.Role) != model.RoleAdmin {
		return apperrors.NotFoundOrUnauthorized("Listing")
	}

	var removed int64
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			return mapRepoError(err, apperrors.NotFoundOrUnauthorized("Listing"), "Failed to delete listing")
		}
		n, err := s.reviews.DeleteByListing(sessCtx, id)
		if err != nil {
			return apperrors.Internal("Failed to delete listing reviews", err)
		}
		removed = n
		return nil
	})
	if err != nil {
		s.log(ctx).Error("Failed to delete listing", "id", id, "error", err)
		return err
	}

	s.log(ctx).Info("Listing deleted successfully", "id", id, "reviews_removed", removed)
	return nil
}

// --- Helpers ---

func (s *listingService) log(ctx context.Context) *logger.Logger {
	return logger.FromContext(ctx, s.cfg.Log)
}

func (s *listingService) requireHost(ctx context.Context, userID string) error {
	users, err := s.users.FindByIDs(ctx, []string{userID})
	if err != nil {
		return apperrors.Internal("Failed to look up host", err)
	}
	user, ok := users[userID]
	if !ok {
		return apperrors.Unauthorized("Account no longer exists")
	}
	if !user.Role.CanHost() {
		return apperrors.Forbidden("Only hosts can create listings")
	}
	return nil
}

func (s *listingService) sanitize(l *model.Listing) {
	l.Title = sanitizer.TrimAndNormalize(l.Title)
	l.Description = sanitizer.NormalizeText(l.Description)
	l.Location.State = sanitizer.TrimAndNormalize(l.Location.State)
	l.Location.Village = sanitizer.TrimAndNormalize(l.Location.Village)
	l.ExperienceType = sanitizer.NormalizeTag(l.ExperienceType)
	l.Images = sanitizer.NormalizeURLs(l.Images)
	l.Amenities = sanitizer.NormalizeTags(l.Amenities)
}

func (s *listingService) validate(ctx context.Context, l *model.Listing) error {
	if err := s.validator.Validate(l); err != nil {
		s.log(ctx).Warn("Listing validation failed", "error", err)
		return validation.AsAppError("Listing validation failed", err)
	}
	return nil
}

func mergeListingUpdates(existing *model.Listing, updates *model.ListingUpdate) *model.Listing {
	merged := *existing

	if updates.Title != nil {
		merged.Title = *updates.Title
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.Location != nil {
		merged.Location = *updates.Location
	}
	if updates.Images != nil {
		merged.Images = updates.Images
	}
	if updates.Price != nil {
		merged.Price = *updates.Price
	}
	if updates.Amenities != nil {
		merged.Amenities = updates.Amenities
	}
	if updates.ExperienceType != nil {
		merged.ExperienceType = *updates.ExperienceType
	}

	return &merged
}

func mapRepoError(err error, notFound *apperrors.AppError, internalMsg string) error {
	switch {
	case errors.Is(err, listingserrors.ErrNotFound):
		return notFound
	case errors.Is(err, listingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid listing ID format")
	case apperrors.IsAppError(err):
		return err
	default:
		return apperrors.Internal(internalMsg, err)
	}
}
