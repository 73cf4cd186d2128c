package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"villagestay/pkg/model"
)

// MarketplaceClient is a typed client for the marketplace HTTP API.
type MarketplaceClient struct {
	httpClient *HttpClient
}

func NewMarketplaceClient(baseURL string) *MarketplaceClient {
	return &MarketplaceClient{httpClient: NewHttpClient(baseURL)}
}

// WithHTTPClient replaces the underlying transport, e.g. with an httptest client.
func (c *MarketplaceClient) WithHTTPClient(hc *http.Client) *MarketplaceClient {
	c.httpClient.HTTPClient = hc
	return c
}

// SetToken authenticates subsequent requests.
func (c *MarketplaceClient) SetToken(token string) {
	c.httpClient.Token = token
}

func (c *MarketplaceClient) HTTP() *HttpClient {
	return c.httpClient
}

type RegisterRequest struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Phone    string         `json:"phone,omitempty"`
	Role     model.UserRole `json:"role"`
	Password string         `json:"password"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

type CreateBookingRequest struct {
	Listing     string  `json:"listing"`
	CheckIn     string  `json:"checkIn"`
	CheckOut    string  `json:"checkOut"`
	GuestsCount int     `json:"guestsCount"`
	TotalPrice  float64 `json:"totalPrice"`
}

type Page[T any] struct {
	Data       []T   `json:"data"`
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int64 `json:"offset"`
}

// Register creates an account and keeps its token for later calls.
func (c *MarketplaceClient) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.call(ctx, http.MethodPost, "/api/users", req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *MarketplaceClient) CreateListing(ctx context.Context, listing *model.Listing) (*model.Listing, error) {
	var out model.Listing
	if err := c.call(ctx, http.MethodPost, "/api/listings", listing, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *MarketplaceClient) CreateBooking(ctx context.Context, req CreateBookingRequest) (*model.BookingView, error) {
	var out model.BookingView
	if err := c.call(ctx, http.MethodPost, "/api/bookings", req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *MarketplaceClient) ListBookings(ctx context.Context, limit int, offset int64) (*Page[model.BookingView], error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.FormatInt(offset, 10))

	resp, err := c.httpClient.GET(ctx, "/api/bookings?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	var page Page[model.BookingView]
	if err := resp.DecodeJSON(&page); err != nil {
		return nil, fmt.Errorf("could not decode bookings page: %w", err)
	}
	return &page, nil
}

func (c *MarketplaceClient) MyBookings(ctx context.Context) ([]model.BookingView, error) {
	var out []model.BookingView
	if err := c.call(ctx, http.MethodGet, "/api/bookings/my-bookings", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MarketplaceClient) GetBooking(ctx context.Context, id string) (*model.BookingView, error) {
	var out model.BookingView
	if err := c.call(ctx, http.MethodGet, "/api/bookings/"+url.PathEscape(id), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *MarketplaceClient) CancelBooking(ctx context.Context, id string) (*model.BookingView, error) {
	var out model.BookingView
	path := "/api/bookings/" + url.PathEscape(id) + "/cancel"
	if err := c.call(ctx, http.MethodPatch, path, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *MarketplaceClient) DashboardSummary(ctx context.Context) (*model.BookingSummary, error) {
	var out model.BookingSummary
	if err := c.call(ctx, http.MethodGet, "/api/dashboard/summary", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *MarketplaceClient) Checkout(ctx context.Context, amount int64, bookingID string) (*model.CheckoutSession, error) {
	body := map[string]any{"amount": amount, "bookingId": bookingID}
	var out model.CheckoutSession
	if err := c.call(ctx, http.MethodPost, "/api/payments/stripe/checkout", body, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *MarketplaceClient) Capture(ctx context.Context, bookingID, paymentID string, amount int64) (*model.CaptureResult, error) {
	body := map[string]any{"bookingId": bookingID, "paymentId": paymentID, "amount": amount}
	var out model.CaptureResult
	if err := c.call(ctx, http.MethodPost, "/api/payments/capture", body, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// call sends body and decodes the {"data": ...} envelope into out.
func (c *MarketplaceClient) call(ctx context.Context, method, path string, body any, want int, out any) error {
	resp, err := c.httpClient.request(ctx, method, path, body, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != want {
		return apiError(resp)
	}

	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := resp.DecodeJSON(&wrapper); err != nil {
		return fmt.Errorf("could not decode response wrapper %s: %w", resp, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(wrapper.Data, out); err != nil {
		return fmt.Errorf("could not decode response data: %w", err)
	}
	return nil
}

func apiError(resp *Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	_ = resp.DecodeJSON(apiErr)
	return apiErr
}
