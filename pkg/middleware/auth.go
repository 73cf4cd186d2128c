package middleware

import (
	"context"
	"net/http"
	"strings"

	apperrors "villagestay/pkg/errors"
	httputil "villagestay/pkg/http"
	"villagestay/pkg/jwt"
	"villagestay/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type principalKey struct{}

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Role   string
}

// TokenValidator is satisfied by *jwt.Service.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

type Authenticator struct {
	tokens TokenValidator
	log    *logger.Logger
}

func NewAuthenticator(tokens TokenValidator, log *logger.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, log: log}
}

// Required rejects requests without a valid bearer token.
func (a *Authenticator) Required(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		principal, err := a.authenticate(r)
		if err != nil {
			a.log.Debug("Authentication rejected",
				"request_id", RequestIDFromContext(r.Context()),
				"path", r.URL.Path,
				"error", err,
			)
			_ = httputil.WriteError(w, err)
			return
		}
		next(w, r.WithContext(WithPrincipal(r.Context(), principal)), ps)
	}
}

func (a *Authenticator) authenticate(r *http.Request) (*Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return nil, apperrors.Unauthorized("Authorization header must be a Bearer token")
	}

	claims, err := a.tokens.ValidateToken(strings.TrimSpace(token))
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid or expired token")
	}

	return &Principal{UserID: claims.UserID, Role: claims.Role}, nil
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller set by Authenticator.Required.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
