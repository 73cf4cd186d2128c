package handler

import (
	"net/http"
	"strconv"

	"villagestay/internal/listings/service"
	apperrors "villagestay/pkg/errors"
	httputil "villagestay/pkg/http"
	"villagestay/pkg/logger"
	"villagestay/pkg/middleware"
	"villagestay/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ListingHandler struct {
	service service.ListingService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewListingHandler(service service.ListingService, auth *middleware.Authenticator, log *logger.Logger) *ListingHandler {
	return &ListingHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, _ := middleware.PrincipalFromContext(r.Context())

	var listing model.Listing
	if err := httputil.DecodeJSON(r, &listing, false); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), caller, &listing); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, listing); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ListingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listing, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, listing); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ListingHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	listings, total, err := h.service.Search(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if limit <= 0 {
		limit = service.DefaultPageSize
	}
	if err := httputil.WritePaginated(w, listings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Search", "operation", "WritePaginated", "error", err)
	}
}

func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, _ := middleware.PrincipalFromContext(r.Context())

	var updates model.ListingUpdate
	if err := httputil.DecodeJSON(r, &updates, false); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	listing, err := h.service.Update(r.Context(), caller, ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, listing); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, _ := middleware.PrincipalFromContext(r.Context())

	if err := h.service.Delete(r.Context(), caller, ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ListingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func parseFilter(r *http.Request) (model.ListingFilter, error) {
	query := r.URL.Query()
	filter := model.ListingFilter{
		State:          query.Get("state"),
		ExperienceType: query.Get("experienceType"),
		Host:           query.Get("host"),
	}

	for name, dst := range map[string]**float64{"minPrice": &filter.MinPrice, "maxPrice": &filter.MaxPrice} {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, apperrors.InvalidInput("invalid " + name + " parameter: " + raw)
		}
		*dst = &v
	}
	return filter, nil
}

func (h *ListingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/listings", h.auth.Required(h.Create))
	router.GET("/api/listings", h.Search)
	router.GET("/api/listings/:id", h.GetByID)
	router.PUT("/api/listings/:id", h.auth.Required(h.Update))
	router.DELETE("/api/listings/:id", h.auth.Required(h.Delete))
}
