package transport

import (
	"net/http"

	"marketplace/internal/domain"
	"marketplace/internal/middleware"
	"marketplace/internal/service"
	"marketplace/internal/view"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateReviewRequest represents the review payload
type CreateReviewRequest struct {
	Rating int    `json:"rating" validate:"required,gte=1,lte=5"`
	Text   string `json:"text" validate:"max=2000"`
}

// ReplyRequest represents the seller reply payload
type ReplyRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

// ReviewListResponse represents a product's reviews and their mean rating
type ReviewListResponse struct {
	Reviews       []*domain.Review `json:"reviews"`
	AverageRating float64          `json:"average_rating"`
	Count         int              `json:"count"`
}

// ReviewHandler handles HTTP requests for reviews
type ReviewHandler struct {
	reviewService service.ReviewService
	logger        *zap.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviewService service.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger,
	}
}

// RegisterRoutes registers all review routes
func (h *ReviewHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/api/products/{id}/reviews", h.List)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/api/products/{id}/reviews", h.Create)
		r.Put("/api/reviews/{id}/reply", h.Reply)
	})
}

// List handles fetching a product's reviews, newest first
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "id", "product ID")
	if !ok {
		return
	}

	reviews, err := h.reviewService.ListByProduct(r.Context(), productID)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	reviews = nonNil(reviews)
	middleware.RespondWithJSON(w, http.StatusOK, ReviewListResponse{
		Reviews:       reviews,
		AverageRating: view.AverageRating(reviews),
		Count:         len(reviews),
	})
}

// Create handles posting a review as the caller
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "id", "product ID")
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Review validation failed", zap.Error(err))
		middleware.RespondWithRequestError(w, err)
		return
	}

	review, err := h.reviewService.Create(r.Context(), userID, productID, req.Rating, req.Text)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, review)
}

// Reply handles the product seller answering a review
func (h *ReviewHandler) Reply(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	reviewID, ok := pathID(w, r, "id", "review ID")
	if !ok {
		return
	}

	var req ReplyRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Reply validation failed", zap.Error(err))
		middleware.RespondWithRequestError(w, err)
		return
	}

	review, err := h.reviewService.Reply(r.Context(), userID, reviewID, req.Text)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, review)
}
