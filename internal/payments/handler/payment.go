package handler

import (
	"io"
	"net/http"

	"villagestay/internal/payments/service"
	apperrors "villagestay/pkg/errors"
	httputil "villagestay/pkg/http"
	"villagestay/pkg/logger"
	"villagestay/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

// maxWebhookBody bounds webhook payloads independently of the global limit.
const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	service service.PaymentService
	auth    *middleware.Authenticator
	log     *logger.Logger

	// mockWebhookSecret enables X-Mock-Signature checks on the webhook route.
	mockWebhookSecret string
}

func NewPaymentHandler(service service.PaymentService, auth *middleware.Authenticator, log *logger.Logger, mockWebhookSecret string) *PaymentHandler {
	return &PaymentHandler{
		service:           service,
		auth:              auth,
		log:               log,
		mockWebhookSecret: mockWebhookSecret,
	}
}

func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, _ := middleware.PrincipalFromContext(r.Context())

	var input service.PaymentInput
	if err := httputil.DecodeJSON(r, &input, false); err != nil {
		h.writeError(w, "CreateOrder", err)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), caller, &input)
	if err != nil {
		h.writeError(w, "CreateOrder", err)
		return
	}

	if err := httputil.WriteCreated(w, order); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateOrder", "operation", "WriteCreated", "error", err)
	}
}

func (h *PaymentHandler) CreateCheckout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, _ := middleware.PrincipalFromContext(r.Context())

	var input service.PaymentInput
	if err := httputil.DecodeJSON(r, &input, false); err != nil {
		h.writeError(w, "CreateCheckout", err)
		return
	}

	session, err := h.service.CreateCheckout(r.Context(), caller, &input)
	if err != nil {
		h.writeError(w, "CreateCheckout", err)
		return
	}

	if err := httputil.WriteSuccess(w, session); err != nil {
		h.log.Error("failed to write success response", "handler", "CreateCheckout", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) Capture(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, _ := middleware.PrincipalFromContext(r.Context())

	var input service.CaptureInput
	if err := httputil.DecodeJSON(r, &input, false); err != nil {
		h.writeError(w, "Capture", err)
		return
	}

	result, err := h.service.Capture(r.Context(), caller, &input)
	if err != nil {
		h.writeError(w, "Capture", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Capture", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.writeError(w, "Webhook", apperrors.InvalidInput("Failed to read webhook body"))
		return
	}

	result, err := h.service.HandleWebhook(r.Context(), payload, r.Header)
	if err != nil {
		h.writeError(w, "Webhook", err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, result); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Webhook", "operation", "WriteJSON", "error", err)
	}
}

func (h *PaymentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *PaymentHandler) RegisterRoutes(router *httprouter.Router) {
	webhook := h.Webhook
	if h.mockWebhookSecret != "" {
		webhook = wrap(middleware.SignatureVerification(h.mockWebhookSecret, middleware.MockSignatureHeader, h.log), webhook)
	}

	router.POST("/api/payments/create-order", h.auth.Required(h.CreateOrder))
	router.POST("/api/payments/capture", h.auth.Required(h.Capture))
	router.POST("/api/payments/webhook", webhook)
	router.POST("/api/payments/stripe/checkout", h.auth.Required(h.CreateCheckout))
}

// wrap applies net/http middleware to a single route.
func wrap(mw func(http.Handler) http.Handler, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next(w, r, ps)
		})).ServeHTTP(w, r)
	}
}
