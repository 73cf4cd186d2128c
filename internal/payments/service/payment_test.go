package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"villagestay/internal/payments/provider"
	"villagestay/pkg/config"
	apperrors "villagestay/pkg/errors"
	"villagestay/pkg/logger"
	"villagestay/pkg/middleware"
	"villagestay/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureCall struct {
	id, paymentID string
	amount        int64
}

type fakeCapturer struct {
	calls []captureCall
	err   error
}

func (f *fakeCapturer) Capture(_ context.Context, id, paymentID string, amount int64) (*model.CaptureResult, error) {
	f.calls = append(f.calls, captureCall{id, paymentID, amount})
	if f.err != nil {
		return nil, f.err
	}
	return &model.CaptureResult{
		Booking:      &model.BookingView{ID: id, Status: model.BookingConfirmed},
		PaymentSplit: model.SplitPayment(amount),
	}, nil
}

type failingProvider struct {
	*provider.MockProvider
}

func (failingProvider) CreateCheckout(context.Context, provider.CheckoutRequest) (*model.CheckoutSession, error) {
	return nil, errors.New("Invalid API Key provided")
}

func newService(p provider.Provider, c BookingCapturer) PaymentService {
	return NewPaymentService(p, c, &config.Config{Log: logger.Discard(), PaymentCurrency: "inr"})
}

var caller = &middleware.Principal{UserID: "u1", Role: "guest"}

func TestCreateCheckout_Mock(t *testing.T) {
	svc := newService(provider.NewMockProvider("http://localhost:3000"), &fakeCapturer{})

	session, err := svc.CreateCheckout(context.Background(), caller, &PaymentInput{Amount: "7500", BookingID: "b1"})
	require.NoError(t, err)
	assert.True(t, session.IsMock)
	assert.Contains(t, session.URL, "amount=7500")
	assert.Contains(t, session.URL, "booking=b1")
}

func TestCreateCheckout_Validation(t *testing.T) {
	svc := newService(provider.NewMockProvider("http://x"), &fakeCapturer{})

	for _, in := range []*PaymentInput{
		{Amount: ""},
		{Amount: "0"},
		{Amount: "12.5"},
		{Amount: "100", Currency: "rupees"},
	} {
		_, err := svc.CreateCheckout(context.Background(), caller, in)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "input %+v", in)
	}
}

func TestCreateCheckout_ProviderErrorKeepsMessage(t *testing.T) {
	svc := newService(failingProvider{provider.NewMockProvider("http://x")}, &fakeCapturer{})

	_, err := svc.CreateCheckout(context.Background(), caller, &PaymentInput{Amount: "100"})
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode())
	assert.Equal(t, "Invalid API Key provided", appErr.Message)
}

func TestCreateOrder(t *testing.T) {
	svc := newService(provider.NewMockProvider("http://x"), &fakeCapturer{})

	order, err := svc.CreateOrder(context.Background(), caller, &PaymentInput{Amount: "2500", Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, int64(2500), order.Amount)
	assert.Equal(t, "usd", order.Currency)
	assert.True(t, order.IsMock)
}

func TestCapture(t *testing.T) {
	capturer := &fakeCapturer{}
	svc := newService(provider.NewMockProvider("http://x"), capturer)

	result, err := svc.Capture(context.Background(), caller, &CaptureInput{BookingID: "b1", PaymentID: "pi_1", Amount: "10000"})
	require.NoError(t, err)
	assert.Equal(t, int64(8500), result.HostShare)
	assert.Equal(t, int64(1500), result.PlatformShare)
	assert.Equal(t, []captureCall{{"b1", "pi_1", 10000}}, capturer.calls)

	_, err = svc.Capture(context.Background(), caller, &CaptureInput{Amount: "-1"})
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode())
	assert.Len(t, appErr.Details["errors"], 3)
}

const completed = `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_mock_1","amount_total":10001,"metadata":{"bookingId":"b42"}}}}`

func TestHandleWebhook_CapturesCompletedCheckout(t *testing.T) {
	capturer := &fakeCapturer{}
	svc := newService(provider.NewMockProvider("http://x"), capturer)

	result, err := svc.HandleWebhook(context.Background(), []byte(completed), http.Header{})
	require.NoError(t, err)
	assert.True(t, result.Captured)
	assert.Equal(t, []captureCall{{"b42", "cs_mock_1", 10001}}, capturer.calls)
}

func TestHandleWebhook_IgnoresOtherEvents(t *testing.T) {
	capturer := &fakeCapturer{}
	svc := newService(provider.NewMockProvider("http://x"), capturer)

	result, err := svc.HandleWebhook(context.Background(), []byte(`{"id":"evt_2","type":"payment_intent.created"}`), http.Header{})
	require.NoError(t, err)
	assert.True(t, result.Received)
	assert.False(t, result.Captured)
	assert.Empty(t, capturer.calls)

	result, err = svc.HandleWebhook(context.Background(), []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`), http.Header{})
	require.NoError(t, err)
	assert.False(t, result.Captured)
	assert.Empty(t, capturer.calls)
}

func TestHandleWebhook_Failures(t *testing.T) {
	svc := newService(provider.NewMockProvider("http://x"), &fakeCapturer{})
	_, err := svc.HandleWebhook(context.Background(), []byte("not json"), http.Header{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	missing := newService(provider.NewMockProvider("http://x"), &fakeCapturer{err: apperrors.NotFound("Booking")})
	result, err := missing.HandleWebhook(context.Background(), []byte(completed), http.Header{})
	require.NoError(t, err, "unknown bookings are acknowledged")
	assert.False(t, result.Captured)

	locked := newService(provider.NewMockProvider("http://x"), &fakeCapturer{err: apperrors.Conflict("busy")})
	_, err = locked.HandleWebhook(context.Background(), []byte(completed), http.Header{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	cancelled := newService(provider.NewMockProvider("http://x"), &fakeCapturer{err: apperrors.InvalidTransition("cancelled", "confirmed")})
	result, err = cancelled.HandleWebhook(context.Background(), []byte(completed), http.Header{})
	require.NoError(t, err, "transitions that can never succeed are acknowledged")
	assert.True(t, result.Received)
	assert.False(t, result.Captured)

	stripe := newService(provider.NewStripeProvider("sk_test", "whsec", "http://x"), &fakeCapturer{})
	_, err = stripe.HandleWebhook(context.Background(), []byte(completed), http.Header{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}
