package handler

import (
	"net/http"

	"villagestay/internal/dashboard/service"
	httputil "villagestay/pkg/http"
	"villagestay/pkg/logger"
	"villagestay/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type DashboardHandler struct {
	service service.DashboardService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewDashboardHandler(service service.DashboardService, auth *middleware.Authenticator, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Summary", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, summary); err != nil {
		h.log.Error("failed to write success response", "handler", "Summary", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DashboardHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/dashboard/summary", h.auth.Required(h.Summary))
}
