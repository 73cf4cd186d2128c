package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"villagestay/pkg/model"

	"github.com/google/uuid"
)

// MockProvider fabricates sessions that redirect to the frontend's mock
// payment page. Its webhooks use the Stripe event shape; their signature is
// checked by the webhook route, not here.
type MockProvider struct {
	frontendURL string
}

func NewMockProvider(frontendURL string) *MockProvider {
	return &MockProvider{frontendURL: strings.TrimRight(frontendURL, "/")}
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) IsMock() bool { return true }

func (p *MockProvider) CreateCheckout(_ context.Context, req CheckoutRequest) (*model.CheckoutSession, error) {
	id := "cs_mock_" + uuid.NewString()

	query := url.Values{}
	query.Set("session_id", id)
	query.Set("amount", strconv.FormatInt(req.Amount, 10))
	if req.BookingID != "" {
		query.Set("booking", req.BookingID)
	}

	return &model.CheckoutSession{
		ID:     id,
		URL:    p.frontendURL + "/mock-payment?" + query.Encode(),
		IsMock: true,
	}, nil
}

func (p *MockProvider) CreateOrder(_ context.Context, req OrderRequest) (*model.PaymentOrder, error) {
	return &model.PaymentOrder{
		OrderID:  "order_mock_" + uuid.NewString(),
		Amount:   req.Amount,
		Currency: req.Currency,
		IsMock:   true,
	}, nil
}

type mockEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID          string            `json:"id"`
			AmountTotal int64             `json:"amount_total"`
			Metadata    map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

func (p *MockProvider) ParseWebhook(payload []byte, _ http.Header) (*WebhookEvent, error) {
	var event mockEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to decode webhook payload: %w", err)
	}

	return &WebhookEvent{
		ID:          event.ID,
		Type:        event.Type,
		SessionID:   event.Data.Object.ID,
		BookingID:   event.Data.Object.Metadata[MetadataBookingID],
		AmountTotal: event.Data.Object.AmountTotal,
	}, nil
}
