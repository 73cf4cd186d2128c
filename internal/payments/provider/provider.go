// Package provider hides the payment gateway behind one capability interface.
// The mock variant is selected when no Stripe secret key is configured.
package provider

import (
	"context"
	"errors"
	"net/http"

	"villagestay/pkg/config"
	"villagestay/pkg/model"
)

const (
	// EventCheckoutCompleted is the only webhook event that captures a booking.
	EventCheckoutCompleted = "checkout.session.completed"

	MetadataBookingID = "bookingId"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

type CheckoutRequest struct {
	Amount    int64
	Currency  string
	BookingID string
	Metadata  map[string]string
}

type OrderRequest struct {
	Amount    int64
	Currency  string
	BookingID string
	Metadata  map[string]string
}

// WebhookEvent is the part of a provider notification the marketplace acts on.
type WebhookEvent struct {
	ID          string
	Type        string
	SessionID   string
	BookingID   string
	AmountTotal int64
}

type Provider interface {
	Name() string
	IsMock() bool
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*model.CheckoutSession, error)
	CreateOrder(ctx context.Context, req OrderRequest) (*model.PaymentOrder, error)
	// ParseWebhook authenticates and decodes a webhook delivery.
	ParseWebhook(payload []byte, header http.Header) (*WebhookEvent, error)
}

// New picks the provider for cfg.
func New(cfg *config.Config) Provider {
	if cfg.PaymentsLive() {
		return NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.FrontendURL)
	}
	return NewMockProvider(cfg.FrontendURL)
}

func bookingMetadata(bookingID string, metadata map[string]string) map[string]string {
	out := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	if bookingID != "" {
		out[MetadataBookingID] = bookingID
	}
	return out
}
