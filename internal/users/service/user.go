package service

import (
	"context"
	"errors"
	"strings"

	userserrors "villagestay/internal/users/errors"
	"villagestay/internal/users/repository"
	"villagestay/internal/users/validator"
	"villagestay/pkg/config"
	apperrors "villagestay/pkg/errors"
	"villagestay/pkg/logger"
	"villagestay/pkg/model"
	"villagestay/pkg/sanitizer"
	"villagestay/pkg/validation"

	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer is satisfied by *jwt.Service.
type TokenIssuer interface {
	GenerateToken(userID, role string) (string, error)
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

type UserService interface {
	Register(ctx context.Context, input *validator.RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input *validator.LoginInput) (*AuthResult, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
}

type userService struct {
	repo       repository.UserRepository
	validator  *validator.UserValidator
	tokens     TokenIssuer
	cfg        *config.Config
	bcryptCost int
}

func NewUserService(
	repo repository.UserRepository,
	validator *validator.UserValidator,
	tokens TokenIssuer,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:       repo,
		validator:  validator,
		tokens:     tokens,
		cfg:        cfg,
		bcryptCost: bcrypt.DefaultCost,
	}
}

func (s *userService) Register(ctx context.Context, input *validator.RegisterInput) (*AuthResult, error) {
	user := &model.User{
		Name:  sanitizer.NormalizeName(input.Name),
		Email: sanitizer.NormalizeEmail(input.Email),
		Role:  input.Role,
	}
	if user.Role == "" {
		user.Role = model.RoleGuest
	}

	var errs validation.Errors
	if raw := strings.TrimSpace(input.Phone); raw != "" {
		user.Phone = sanitizer.NormalizePhone(raw)
		if user.Phone == "" {
			errs = errs.Add("phone", "phone must be a valid phone number")
		}
	}
	if err := s.validator.Validate(user); err != nil {
		var fields validation.Errors
		if !errors.As(err, &fields) {
			return nil, apperrors.Internal("Failed to validate user", err)
		}
		errs = append(errs, fields...)
	}
	if err := s.validator.ValidatePassword(input.Password); err != nil {
		var fields validation.Errors
		if errors.As(err, &fields) {
			errs = append(errs, fields...)
		}
	}
	if len(errs) > 0 {
		s.log(ctx).Warn("User validation failed", "error", errs)
		return nil, validation.AsAppError("User validation failed", errs)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}
	user.PasswordHash = string(hash)

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userserrors.ErrDuplicateEmail) {
			return nil, apperrors.Conflict("A user with this email already exists")
		}
		s.log(ctx).Error("Failed to create user", "error", err)
		return nil, apperrors.Internal("Failed to create user", err)
	}

	s.log(ctx).Info("User registered successfully", "id", user.ID, "role", user.Role)
	return s.issue(user)
}

func (s *userService) Login(ctx context.Context, input *validator.LoginInput) (*AuthResult, error) {
	invalid := apperrors.Unauthorized("Invalid email or password")

	user, err := s.repo.FindByEmail(ctx, sanitizer.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, invalid
		}
		return nil, apperrors.Internal("Failed to look up user", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		return nil, invalid
	}

	return s.issue(user)
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", id)
		}
		if errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid user ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}
	return user, nil
}

func (s *userService) FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	return s.repo.FindByIDs(ctx, ids)
}

func (s *userService) log(ctx context.Context) *logger.Logger {
	return logger.FromContext(ctx, s.cfg.Log)
}

func (s *userService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
