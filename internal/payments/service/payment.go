package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"villagestay/internal/payments/provider"
	"villagestay/pkg/config"
	apperrors "villagestay/pkg/errors"
	"villagestay/pkg/logger"
	"villagestay/pkg/middleware"
	"villagestay/pkg/model"
	"villagestay/pkg/validation"
)

// BookingCapturer confirms a booking once its payment is captured.
type BookingCapturer interface {
	Capture(ctx context.Context, id, paymentID string, amount int64) (*model.CaptureResult, error)
}

// PaymentInput is the body of create-order and stripe/checkout. Amounts are
// in the currency's minor unit.
type PaymentInput struct {
	Amount    json.Number    `json:"amount"`
	Currency  string         `json:"currency"`
	BookingID string         `json:"bookingId"`
	Metadata  map[string]any `json:"metadata"`
}

type CaptureInput struct {
	BookingID string      `json:"bookingId"`
	PaymentID string      `json:"paymentId"`
	Amount    json.Number `json:"amount"`
}

// WebhookResult acknowledges a webhook delivery.
type WebhookResult struct {
	Received  bool   `json:"received"`
	EventType string `json:"eventType,omitempty"`
	Captured  bool   `json:"captured"`
	BookingID string `json:"bookingId,omitempty"`
}

type PaymentService interface {
	CreateOrder(ctx context.Context, caller *middleware.Principal, input *PaymentInput) (*model.PaymentOrder, error)
	CreateCheckout(ctx context.Context, caller *middleware.Principal, input *PaymentInput) (*model.CheckoutSession, error)
	Capture(ctx context.Context, caller *middleware.Principal, input *CaptureInput) (*model.CaptureResult, error)
	HandleWebhook(ctx context.Context, payload []byte, header http.Header) (*WebhookResult, error)
}

type paymentService struct {
	provider provider.Provider
	bookings BookingCapturer
	cfg      *config.Config
}

func NewPaymentService(provider provider.Provider, bookings BookingCapturer, cfg *config.Config) PaymentService {
	return &paymentService{
		provider: provider,
		bookings: bookings,
		cfg:      cfg,
	}
}

func (s *paymentService) CreateOrder(ctx context.Context, caller *middleware.Principal, input *PaymentInput) (*model.PaymentOrder, error) {
	amount, currency, err := s.parsePayment(input)
	if err != nil {
		return nil, err
	}

	order, err := s.provider.CreateOrder(ctx, provider.OrderRequest{
		Amount:    amount,
		Currency:  currency,
		BookingID: input.BookingID,
		Metadata:  s.metadata(caller, input.Metadata),
	})
	if err != nil {
		s.log(ctx).Error("Payment provider rejected order", "provider", s.provider.Name(), "error", err)
		return nil, apperrors.PaymentProvider(err)
	}

	s.log(ctx).Info("Payment order created",
		"provider", s.provider.Name(),
		"order_id", order.OrderID,
		"amount", order.Amount,
		"booking_id", input.BookingID,
	)
	return order, nil
}

func (s *paymentService) CreateCheckout(ctx context.Context, caller *middleware.Principal, input *PaymentInput) (*model.CheckoutSession, error) {
	amount, currency, err := s.parsePayment(input)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.CreateCheckout(ctx, provider.CheckoutRequest{
		Amount:    amount,
		Currency:  currency,
		BookingID: input.BookingID,
		Metadata:  s.metadata(caller, input.Metadata),
	})
	if err != nil {
		s.log(ctx).Error("Payment provider rejected checkout", "provider", s.provider.Name(), "error", err)
		return nil, apperrors.PaymentProvider(err)
	}

	s.log(ctx).Info("Checkout session created",
		"provider", s.provider.Name(),
		"session_id", session.ID,
		"amount", amount,
		"booking_id", input.BookingID,
		"is_mock", session.IsMock,
	)
	return session, nil
}

// Capture is reachable by any authenticated caller who knows the booking id.
func (s *paymentService) Capture(ctx context.Context, caller *middleware.Principal, input *CaptureInput) (*model.CaptureResult, error) {
	var errs validation.Errors
	if strings.TrimSpace(input.BookingID) == "" {
		errs = errs.Add("bookingId", "bookingId is required")
	}
	if strings.TrimSpace(input.PaymentID) == "" {
		errs = errs.Add("paymentId", "paymentId is required")
	}
	amount, ok := parseMinorUnits(input.Amount)
	if !ok || amount < 0 {
		errs = errs.Add("amount", "amount must be a non-negative whole number")
	}
	if len(errs) > 0 {
		return nil, validation.AsAppError("Capture validation failed", errs)
	}

	s.log(ctx).Info("Capturing payment", "booking_id", input.BookingID, "payment_id", input.PaymentID, "caller", caller.UserID)
	return s.bookings.Capture(ctx, strings.TrimSpace(input.BookingID), strings.TrimSpace(input.PaymentID), amount)
}

// HandleWebhook captures the booking named by a completed checkout. Deliveries
// that can never succeed are acknowledged so the provider stops retrying;
// server side failures are returned so it retries.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, header http.Header) (*WebhookResult, error) {
	log := s.log(ctx)

	event, err := s.provider.ParseWebhook(payload, header)
	if err != nil {
		if errors.Is(err, provider.ErrInvalidSignature) {
			log.Warn("Webhook signature rejected", "provider", s.provider.Name(), "error", err)
			return nil, apperrors.Unauthorized("Invalid webhook signature")
		}
		log.Warn("Webhook payload rejected", "provider", s.provider.Name(), "error", err)
		return nil, apperrors.InvalidInput("Invalid webhook payload")
	}

	result := &WebhookResult{Received: true, EventType: event.Type, BookingID: event.BookingID}
	if event.Type != provider.EventCheckoutCompleted {
		log.Debug("Webhook event ignored", "event_id", event.ID, "event_type", event.Type)
		return result, nil
	}
	if event.BookingID == "" {
		log.Warn("Checkout completed without a booking id", "event_id", event.ID, "session_id", event.SessionID)
		return result, nil
	}

	if _, err := s.bookings.Capture(ctx, event.BookingID, event.SessionID, event.AmountTotal); err != nil {
		if apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
			log.Warn("Webhook capture skipped, booking cannot be confirmed", "event_id", event.ID, "booking_id", event.BookingID, "error", err)
			return result, nil
		}
		appErr := apperrors.AsAppError(err)
		if appErr.StatusCode() < http.StatusInternalServerError && appErr.StatusCode() != http.StatusConflict {
			log.Warn("Webhook capture rejected", "event_id", event.ID, "booking_id", event.BookingID, "error", err)
			return result, nil
		}
		return nil, err
	}

	result.Captured = true
	log.Info("Webhook captured booking", "event_id", event.ID, "booking_id", event.BookingID, "amount", event.AmountTotal)
	return result, nil
}

// --- Helpers ---

func (s *paymentService) log(ctx context.Context) *logger.Logger {
	return logger.FromContext(ctx, s.cfg.Log)
}

func (s *paymentService) parsePayment(input *PaymentInput) (int64, string, error) {
	var errs validation.Errors

	amount, ok := parseMinorUnits(input.Amount)
	if !ok || amount <= 0 {
		errs = errs.Add("amount", "amount must be a positive whole number")
	}

	currency := strings.ToLower(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = s.cfg.PaymentCurrency
	}
	if len(currency) != 3 {
		errs = errs.Add("currency", "currency must be a 3 letter ISO code")
	}

	if len(errs) > 0 {
		return 0, "", validation.AsAppError("Payment validation failed", errs)
	}
	return amount, currency, nil
}

func (s *paymentService) metadata(caller *middleware.Principal, in map[string]any) map[string]string {
	out := make(map[string]string, len(in)+1)
	for k, v := range in {
		out[k] = fmt.Sprint(v)
	}
	if caller != nil {
		out["userId"] = caller.UserID
	}
	return out
}

func parseMinorUnits(n json.Number) (int64, bool) {
	if n == "" {
		return 0, false
	}
	if v, err := n.Int64(); err == nil {
		return v, true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64/2 {
		return 0, false
	}
	return int64(f), true
}
