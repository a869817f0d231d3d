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

// DashboardResponse represents a seller's filtered listings and their stats.
// Stats cover every listing the seller owns, not just the filtered ones.
type DashboardResponse struct {
	Products []*domain.Product   `json:"products"`
	Stats    view.DashboardStats `json:"stats"`
}

// DashboardHandler serves the seller dashboard
type DashboardHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(productService service.ProductService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers the dashboard routes
func (h *DashboardHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/api/dashboard/products", h.Products)
	})
}

// Products handles listing the caller's own products with search, category
// and visibility filters
func (h *DashboardHandler) Products(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	products, err := h.productService.List(r.Context(), &userID)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	q := r.URL.Query()
	filtered := view.FilterDashboard(products, view.DashboardFilter{
		Search:     q.Get("search"),
		Category:   q.Get("category"),
		Visibility: q.Get("visibility"),
	})

	middleware.RespondWithJSON(w, http.StatusOK, DashboardResponse{
		Products: filtered,
		Stats:    view.ComputeDashboardStats(products),
	})
}
