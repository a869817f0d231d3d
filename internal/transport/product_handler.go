package transport

import (
	"net/http"
	"strings"

	"marketplace/internal/domain"
	"marketplace/internal/middleware"
	"marketplace/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// VisibilityRequest represents the visibility toggle payload
type VisibilityRequest struct {
	Visibility string `json:"visibility" validate:"required,oneof=public private"`
}

// ProductListResponse represents a page of catalog listings
type ProductListResponse struct {
	Products []*domain.Product `json:"products"`
	Count    int               `json:"count"`
}

// ProductHandler handles HTTP requests for listings
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	// Public catalog
	r.Get("/api/products", h.ListPublic)
	r.Get("/api/products/{id}", h.Get)
	r.Post("/api/products/{id}/share", h.Share)

	// Seller routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/api/products", h.Create)
		r.Patch("/api/products/{id}", h.Update)
		r.Delete("/api/products/{id}", h.Delete)
		r.Put("/api/products/{id}/visibility", h.SetVisibility)
	})
}

// ListPublic handles the public catalog query
func (h *ProductHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.PublicFilter{
		Query:     q.Get("q"),
		Category:  q.Get("category"),
		Condition: q.Get("condition"),
		Brand:     q.Get("brand"),
	}

	bounds := &domain.ValidationError{}
	filter.MinPrice = parseBound(q.Get("min_price"), "min_price", bounds)
	filter.MaxPrice = parseBound(q.Get("max_price"), "max_price", bounds)
	if err := bounds.OrNil(); err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	products, err := h.productService.ListPublic(r.Context(), filter)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	products = nonNil(products)
	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{Products: products, Count: len(products)})
}

func parseBound(raw, field string, errs *domain.ValidationError) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		errs.Add(field, "Must be a number")
		return nil
	}
	return &d
}

// Get handles fetching one listing with its seller and bumps its view counter
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "product ID")
	if !ok {
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		h.logger.Debug("Failed to get product", zap.Error(err))
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	h.productService.RecordView(r.Context(), id)
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Share handles recording a share of a listing
func (h *ProductHandler) Share(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "product ID")
	if !ok {
		return
	}

	if err := h.productService.RecordShare(r.Context(), id); err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Create handles publishing a new listing for the caller
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	var input domain.ProductInput
	if !decodeJSON(w, r, &input, h.logger) {
		return
	}

	product, err := h.productService.Create(r.Context(), userID, input)
	if err != nil {
		h.logger.Debug("Product creation failed", zap.Error(err))
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("owner_id", userID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update handles a partial update of the caller's listing
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "product ID")
	if !ok {
		return
	}

	var patch domain.ProductPatch
	if !decodeJSON(w, r, &patch, h.logger) {
		return
	}

	product, err := h.productService.Update(r.Context(), userID, id, patch)
	if err != nil {
		h.logger.Debug("Product update failed", zap.Error(err))
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// SetVisibility handles the public/private toggle
func (h *ProductHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "product ID")
	if !ok {
		return
	}

	var req VisibilityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Visibility validation failed", zap.Error(err))
		middleware.RespondWithRequestError(w, err)
		return
	}

	product, err := h.productService.SetVisibility(r.Context(), userID, id, domain.Visibility(req.Visibility))
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete handles removing the caller's listing. Favourites and reviews
// pointing at it are left for prune-orphans.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "product ID")
	if !ok {
		return
	}

	if err := h.productService.Delete(r.Context(), userID, id); err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}
