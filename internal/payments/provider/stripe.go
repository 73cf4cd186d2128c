package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"villagestay/pkg/model"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	StripeSignatureHeader = "Stripe-Signature"

	checkoutProductName = "VillageStay booking"
)

// StripeProvider creates Stripe Checkout Sessions and PaymentIntents.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
	frontendURL   string
}

func NewStripeProvider(secretKey, webhookSecret, frontendURL string) *StripeProvider {
	return &StripeProvider{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
		frontendURL:   strings.TrimRight(frontendURL, "/"),
	}
}

func (p *StripeProvider) Name() string { return "stripe" }

func (p *StripeProvider) IsMock() bool { return false }

func (p *StripeProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*model.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.frontendURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(p.frontendURL + "/payment/cancel"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(checkoutProductName),
					},
					UnitAmount: stripe.Int64(req.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if req.BookingID != "" {
		params.ClientReferenceID = stripe.String(req.BookingID)
	}
	for k, v := range bookingMetadata(req.BookingID, req.Metadata) {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, providerError(err)
	}

	return &model.CheckoutSession{
		ID:     session.ID,
		URL:    session.URL,
		IsMock: false,
	}, nil
}

func (p *StripeProvider) CreateOrder(ctx context.Context, req OrderRequest) (*model.PaymentOrder, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
	}
	for k, v := range bookingMetadata(req.BookingID, req.Metadata) {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	intent, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, providerError(err)
	}

	return &model.PaymentOrder{
		OrderID:  intent.ID,
		Amount:   intent.Amount,
		Currency: string(intent.Currency),
		IsMock:   false,
	}, nil
}

func (p *StripeProvider) ParseWebhook(payload []byte, header http.Header) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, header.Get(StripeSignatureHeader), p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if out.Type != EventCheckoutCompleted {
		return out, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	out.SessionID = session.ID
	out.AmountTotal = session.AmountTotal
	out.BookingID = session.Metadata[MetadataBookingID]
	if out.BookingID == "" {
		out.BookingID = session.ClientReferenceID
	}
	return out, nil
}

// providerError keeps Stripe's own message, which is what callers see.
func providerError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return errors.New(stripeErr.Msg)
	}
	return err
}
