package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"marketplace/internal/domain"
	"marketplace/internal/middleware"
	"marketplace/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImageStore is the blob store behind uploads
type ImageStore interface {
	Upload(ctx context.Context, ownerID uuid.UUID, filename string, body io.Reader, size int64) (*storage.Image, error)
	Delete(ctx context.Context, path string) error
}

// UploadHandler handles listing image uploads
type UploadHandler struct {
	images ImageStore
	logger *zap.Logger
}

// NewUploadHandler creates a new UploadHandler. A nil images store makes
// every upload route answer 503.
func NewUploadHandler(images ImageStore, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		images: images,
		logger: logger,
	}
}

// RegisterRoutes registers the upload routes
func (h *UploadHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/uploads", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Upload)
		r.Delete("/", h.Delete)
	})
}

// Upload handles a multipart upload of the "image" field
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	// room for the multipart envelope around a maximum-size image
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageSize+1<<20)
	if err := r.ParseMultipartForm(storage.MaxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.RespondWithDomainError(w, domain.NewValidationError("image", "Image must be between 1 byte and 5 MiB"), h.logger)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		middleware.RespondWithDomainError(w, domain.NewValidationError("image", "This field is required"), h.logger)
		return
	}
	defer file.Close()

	image, err := h.images.Upload(r.Context(), userID, header.Filename, file, header.Size)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	h.logger.Info("Image uploaded", zap.String("path", image.Path), zap.String("owner_id", userID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, image)
}

// Delete handles removing one of the caller's images by its path
func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	path := strings.TrimLeft(r.URL.Query().Get("path"), "/")
	if path == "" {
		middleware.RespondWithDomainError(w, domain.NewValidationError("path", "This field is required"), h.logger)
		return
	}
	if !strings.HasPrefix(path, "products/"+userID.String()+"/") {
		middleware.RespondWithDomainError(w, domain.ErrForbidden, h.logger)
		return
	}

	if err := h.images.Delete(r.Context(), path); err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UploadHandler) available(w http.ResponseWriter) bool {
	if h.images == nil {
		middleware.RespondWithError(w, http.StatusServiceUnavailable, "image storage is not configured")
		return false
	}
	return true
}
