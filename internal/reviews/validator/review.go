package validator

import (
	"villagestay/pkg/logger"
	"villagestay/pkg/model"
	"villagestay/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type ReviewValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReviewValidator(log *logger.Logger) *ReviewValidator {
	return &ReviewValidator{
		validate: validation.New(),
		logger:   log,
	}
}

func (v *ReviewValidator) Validate(review *model.Review) error {
	return validation.Struct(v.validate, review)
}

func (v *ReviewValidator) ValidateUpdate(update *model.ReviewUpdate) error {
	return validation.Struct(v.validate, update)
}
