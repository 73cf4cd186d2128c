package validator

import (
	"villagestay/pkg/logger"
	"villagestay/pkg/model"
	"villagestay/pkg/validation"

	"github.com/go-playground/validator/v10"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt ignores anything longer
)

type RegisterInput struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Phone    string         `json:"phone,omitempty"`
	Role     model.UserRole `json:"role"`
	Password string         `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewUserValidator(log *logger.Logger) *UserValidator {
	return &UserValidator{
		validate: validation.New(),
		logger:   log,
	}
}

func (v *UserValidator) Validate(user *model.User) error {
	return validation.Struct(v.validate, user)
}

func (v *UserValidator) ValidatePassword(password string) error {
	var errs validation.Errors
	switch {
	case password == "":
		errs = errs.Add("password", "password is required")
	case len(password) < MinPasswordLength:
		errs = errs.Add("password", "password must be at least 8 characters")
	case len(password) > MaxPasswordLength:
		errs = errs.Add("password", "password must be at most 72 characters")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
