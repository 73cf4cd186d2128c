package validator

import (
	"villagestay/pkg/logger"
	"villagestay/pkg/model"
	"villagestay/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type ListingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewListingValidator(log *logger.Logger) *ListingValidator {
	return &ListingValidator{
		validate: validation.New(),
		logger:   log,
	}
}

func (v *ListingValidator) Validate(listing *model.Listing) error {
	return validation.Struct(v.validate, listing)
}

func (v *ListingValidator) ValidateUpdate(update *model.ListingUpdate) error {
	return validation.Struct(v.validate, update)
}

// ValidateFilter rejects inverted price ranges.
func (v *ListingValidator) ValidateFilter(filter *model.ListingFilter) error {
	var errs validation.Errors
	if filter.MinPrice != nil && *filter.MinPrice < 0 {
		errs = errs.Add("minPrice", "minPrice must be at least 0")
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MaxPrice < *filter.MinPrice {
		errs = errs.Add("maxPrice", "maxPrice must be greater than or equal to minPrice")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
