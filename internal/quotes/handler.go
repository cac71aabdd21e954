package quotes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bissquit/quotedesk/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrTooManyPhotos, Status: http.StatusBadRequest},
	{Error: ErrPhotoUploading, Status: http.StatusBadGateway, Message: "upload failed"},
}

// Handler handles HTTP requests for the quotes module.
type Handler struct {
	service *Service
}

// NewHandler creates a new quotes handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes registers routes open to customers.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/quotes", h.Create)
}

// RegisterRoutes registers routes for staff (admin only).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/quotes", h.List)
}

// Create handles POST /quotes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	quote, err := h.service.Create(r.Context(), input)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			httputil.ValidationError(w, err)
			return
		}
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, quote)
}

// List handles GET /quotes.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.service.List(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, quotes)
}
