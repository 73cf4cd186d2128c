package model

// HostSharePercent is the host's cut of every captured payment.
const HostSharePercent = 85

// PaymentSplit is the revenue split of one captured amount, in minor units.
type PaymentSplit struct {
	Amount        int64 `json:"amount"`
	HostShare     int64 `json:"hostShare"`
	PlatformShare int64 `json:"platformShare"`
}

// SplitPayment rounds the host share half up so the two shares always sum to amount.
func SplitPayment(amount int64) PaymentSplit {
	host := (amount*HostSharePercent + 50) / 100
	return PaymentSplit{
		Amount:        amount,
		HostShare:     host,
		PlatformShare: amount - host,
	}
}

// CaptureResult is returned to the caller after a booking's payment is captured.
type CaptureResult struct {
	Booking *BookingView `json:"booking"`
	PaymentSplit
}

type CheckoutSession struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	IsMock bool   `json:"isMock"`
}

type PaymentOrder struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	IsMock   bool   `json:"isMock"`
}
