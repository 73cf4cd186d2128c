package service

import (
	"context"
	"errors"
	"sync"
	"time"

	listingserrors "villagestay/internal/listings/errors"
	reviewserrors "villagestay/internal/reviews/errors"
	"villagestay/internal/reviews/repository"
	"villagestay/internal/reviews/validator"
	"villagestay/pkg/config"
	apperrors "villagestay/pkg/errors"
	"villagestay/pkg/logger"
	"villagestay/pkg/middleware"
	"villagestay/pkg/model"
	"villagestay/pkg/sanitizer"
	"villagestay/pkg/validation"

	"go.mongodb.org/mongo-driver/mongo"
)

// ListingStore is the slice of the listings repository reviews depend on.
type ListingStore interface {
	FindByID(ctx context.Context, id string) (*model.Listing, error)
	UpdateRating(ctx context.Context, id string, stats model.RatingStats) error
}

type ReviewService interface {
	Create(ctx context.Context, caller *middleware.Principal, review *model.Review) error
	ListByListing(ctx context.Context, listingID string, limit int, offset int64) ([]*model.Review, int64, error)
	Update(ctx context.Context, caller *middleware.Principal, id string, updates *model.ReviewUpdate) (*model.Review, error)
	Delete(ctx context.Context, caller *middleware.Principal, id string) error
	ToggleHelpful(ctx context.Context, caller *middleware.Principal, id string) (*model.Review, error)
}

type reviewService struct {
	repo      repository.ReviewRepository
	listings  ListingStore
	validator *validator.ReviewValidator
	cfg       *config.Config
}

func NewReviewService(
	repo repository.ReviewRepository,
	listings ListingStore,
	validator *validator.ReviewValidator,
	cfg *config.Config,
) ReviewService {
	return &reviewService{
		repo:      repo,
		listings:  listings,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *reviewService) Create(ctx context.Context, caller *middleware.Principal, review *model.Review) error {
	review.ID = ""
	review.User = caller.UserID
	review.Helpful = nil
	s.sanitize(review)
	if err := s.validator.Validate(review); err != nil {
		s.log(ctx).Warn("Review validation failed", "error", err)
		return validation.AsAppError("Review validation failed", err)
	}

	if _, err := s.listings.FindByID(ctx, review.Listing); err != nil {
		if errors.Is(err, listingserrors.ErrNotFound) || errors.Is(err, listingserrors.ErrInvalidID) {
			return apperrors.NotFoundWithID("Listing", review.Listing)
		}
		return apperrors.Internal("Failed to look up listing", err)
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Create(sessCtx, review); err != nil {
			if errors.Is(err, reviewserrors.ErrDuplicate) {
				return apperrors.Conflict("You have already reviewed this listing")
			}
			return apperrors.Internal("Failed to create review", err)
		}
		return s.recomputeRating(sessCtx, review.Listing)
	})
	if err != nil {
		s.log(ctx).Error("Failed to create review", "listing", review.Listing, "error", err)
		return err
	}

	s.log(ctx).Info("Review created successfully", "id", review.ID, "listing", review.Listing, "rating", review.Rating)
	return nil
}

func (s *reviewService) ListByListing(ctx context.Context, listingID string, limit int, offset int64) ([]*model.Review, int64, error) {
	if listingID == "" {
		return nil, 0, apperrors.InvalidInput("Listing ID cannot be empty")
	}

	var count int64
	var reviews []*model.Review
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByListing(ctx, listingID)
		if errCount != nil {
			s.log(ctx).Error("Failed to count reviews", "listing", listingID, "error", errCount)
			errCount = apperrors.Internal("Failed to count reviews", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reviews, errFind = s.repo.FindByListing(ctx, listingID, limit, offset)
		if errFind != nil {
			s.log(ctx).Error("Failed to list reviews", "listing", listingID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reviews", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return reviews, count, nil
}

func (s *reviewService) Update(ctx context.Context, caller *middleware.Principal, id string, updates *model.ReviewUpdate) (*model.Review, error) {
	if err := s.validator.ValidateUpdate(updates); err != nil {
		return nil, validation.AsAppError("Invalid update input", err)
	}

	existing, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	merged := *existing
	if updates.Rating != nil {
		merged.Rating = *updates.Rating
	}
	if updates.Content != nil {
		merged.Content = *updates.Content
	}
	if updates.Categories != nil {
		merged.Categories = updates.Categories
	}
	s.sanitize(&merged)
	if err := s.validator.Validate(&merged); err != nil {
		return nil, validation.AsAppError("Review validation failed", err)
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Update(sessCtx, id, caller.UserID, &merged); err != nil {
			return mapRepoError(err, "Failed to update review")
		}
		return s.recomputeRating(sessCtx, merged.Listing)
	})
	if err != nil {
		s.log(ctx).Error("Failed to update review", "id", id, "error", err)
		return nil, err
	}

	s.log(ctx).Info("Review updated successfully", "id", id)
	return &merged, nil
}

func (s *reviewService) Delete(ctx context.Context, caller *middleware.Principal, id string) error {
	existing, err := s.owned(ctx, caller, id)
	if err != nil {
		return err
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id, caller.UserID); err != nil {
			return mapRepoError(err, "Failed to delete review")
		}
		return s.recomputeRating(sessCtx, existing.Listing)
	})
	if err != nil {
		s.log(ctx).Error("Failed to delete review", "id", id, "error", err)
		return err
	}

	s.log(ctx).Info("Review deleted successfully", "id", id)
	return nil
}

// ToggleHelpful flips the caller's helpful mark on any review.
func (s *reviewService) ToggleHelpful(ctx context.Context, caller *middleware.Principal, id string) (*model.Review, error) {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "Failed to retrieve review")
	}

	helpful := !review.MarkedHelpfulBy(caller.UserID)
	mark := model.HelpfulMark{User: caller.UserID, CreatedAt: time.Now().UTC().Truncate(time.Millisecond)}
	if err := s.repo.SetHelpful(ctx, id, mark, helpful); err != nil {
		return nil, apperrors.Internal("Failed to update review", err)
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "Failed to retrieve review")
	}
	return updated, nil
}

// --- Helpers ---

func (s *reviewService) log(ctx context.Context) *logger.Logger {
	return logger.FromContext(ctx, s.cfg.Log)
}

func (s *reviewService) owned(ctx context.Context, caller *middleware.Principal, id string) (*model.Review, error) {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "Failed to retrieve review")
	}
	if review.User != caller.UserID {
		return nil, apperrors.NotFoundOrUnauthorized("Review")
	}
	return review, nil
}

func (s *reviewService) recomputeRating(ctx context.Context, listingID string) error {
	stats, err := s.repo.RatingStats(ctx, listingID)
	if err != nil {
		return apperrors.Internal("Failed to compute listing rating", err)
	}
	if err := s.listings.UpdateRating(ctx, listingID, stats); err != nil {
		if errors.Is(err, listingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Listing", listingID)
		}
		return apperrors.Internal("Failed to update listing rating", err)
	}
	return nil
}

func (s *reviewService) sanitize(r *model.Review) {
	r.Content = sanitizer.NormalizeText(r.Content)
	r.Categories = sanitizer.NormalizeTags(r.Categories)
}

func mapRepoError(err error, internalMsg string) error {
	switch {
	case errors.Is(err, reviewserrors.ErrNotFound):
		return apperrors.NotFoundOrUnauthorized("Review")
	case errors.Is(err, reviewserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid review ID format")
	case apperrors.IsAppError(err):
		return err
	default:
		return apperrors.Internal(internalMsg, err)
	}
}
