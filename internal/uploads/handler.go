package uploads

import (
	"errors"
	"net/http"

	"github.com/bissquit/quotedesk/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead leaves room for boundaries and headers around the file.
const multipartOverhead = 1 << 20

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrNoFile, Status: http.StatusBadRequest},
	{Error: ErrFileTooLarge, Status: http.StatusRequestEntityTooLarge},
	{Error: ErrUnsupportedType, Status: http.StatusUnsupportedMediaType, Message: "only jpeg, png, gif and webp images are accepted"},
	{Error: ErrUploadFailed, Status: http.StatusBadGateway, Message: "upload failed"},
}

// Handler handles HTTP requests for the upload relay.
type Handler struct {
	relay       *Relay
	maxFileSize int64
}

// NewHandler creates a new uploads handler.
func NewHandler(relay *Relay, maxFileSize int64) *Handler {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Handler{relay: relay, maxFileSize: maxFileSize}
}

// RegisterRoutes registers upload routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/uploads", h.Upload)
}

// UploadResponse is the body of a successful upload.
type UploadResponse struct {
	URL string `json:"url"`
}

// Upload handles POST /uploads with a single multipart field "file".
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)

	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			httputil.HandleError(r.Context(), w, ErrFileTooLarge, errorMappings)
			return
		}
		httputil.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, header, err := r.FormFile("file")
	if err != nil {
		httputil.HandleError(r.Context(), w, ErrNoFile, errorMappings)
		return
	}
	_ = f.Close()

	file, err := ReadFile(header, h.maxFileSize)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	url, err := h.relay.Upload(r.Context(), file)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, UploadResponse{URL: url})
}
