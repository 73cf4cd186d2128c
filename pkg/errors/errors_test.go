package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "booking not found"},
			expected: "NOT_FOUND: booking not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("connection reset"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: connection reset)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	appErr := Wrap(cause, CodeInternal, "wrapped", http.StatusInternalServerError)
	assert.Same(t, cause, errors.Unwrap(appErr))
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFound("Booking"), CodeNotFound, http.StatusNotFound},
		{"not found or unauthorized", NotFoundOrUnauthorized("Booking"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusBadRequest},
		{"invalid input", InvalidInput("bad id"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("hosts only"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("duplicate"), CodeConflict, http.StatusConflict},
		{"invalid transition", InvalidTransition("cancelled", "confirmed"), CodeInvalidTransition, http.StatusConflict},
		{"payment provider", PaymentProvider(errors.New("card declined")), CodePaymentProvider, http.StatusInternalServerError},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("Stripe"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.StatusCode())
		})
	}
}

func TestNotFoundOrUnauthorized_Message(t *testing.T) {
	assert.Equal(t, "Booking not found or unauthorized", NotFoundOrUnauthorized("Booking").Message)
}

func TestPaymentProvider_KeepsMessage(t *testing.T) {
	err := PaymentProvider(errors.New("Your card was declined."))
	assert.Equal(t, "Your card was declined.", err.Message)
}

func TestValidationFields(t *testing.T) {
	err := ValidationFields("invalid booking", []FieldError{
		{Field: "checkOut", Message: "must be after checkIn"},
	})

	require.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	fields, ok := err.Details["errors"].([]FieldError)
	require.True(t, ok)
	assert.Equal(t, "checkOut", fields[0].Field)
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Listing")
	assert.Same(t, appErr, AsAppError(appErr))

	wrapped := fmt.Errorf("service: %w", appErr)
	assert.Same(t, appErr, AsAppError(wrapped))
	assert.True(t, IsAppError(wrapped))

	plain := errors.New("plain")
	result := AsAppError(plain)
	assert.Equal(t, CodeInternal, result.Code)
	assert.Same(t, plain, result.Err)
	assert.False(t, IsAppError(plain))
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(Conflict("x"), CodeConflict))
	assert.False(t, HasCode(Conflict("x"), CodeNotFound))
	assert.False(t, HasCode(errors.New("x"), CodeConflict))
}

func TestAppError_ToJSON(t *testing.T) {
	raw := NotFoundWithID("Booking", "abc").ToJSON()

	var decoded ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, CodeNotFound, decoded.Code)
	assert.Equal(t, "abc", decoded.Details["id"])
}
