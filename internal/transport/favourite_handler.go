package transport

import (
	"net/http"
	"strconv"
	"strings"

	"marketplace/internal/domain"
	"marketplace/internal/middleware"
	"marketplace/internal/service"
	"marketplace/internal/view"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddFavouriteRequest represents the add-to-wishlist payload
type AddFavouriteRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

// FavouriteListResponse represents a buyer's filtered, sorted wishlist.
// Stats cover the whole wishlist.
type FavouriteListResponse struct {
	Favourites []*domain.FavouriteEntry `json:"favourites"`
	Stats      view.FavouriteStats      `json:"stats"`
}

// FavouriteHandler handles HTTP requests for the wishlist
type FavouriteHandler struct {
	favouriteService service.FavouriteService
	logger           *zap.Logger
}

// NewFavouriteHandler creates a new FavouriteHandler
func NewFavouriteHandler(favouriteService service.FavouriteService, logger *zap.Logger) *FavouriteHandler {
	return &FavouriteHandler{
		favouriteService: favouriteService,
		logger:           logger,
	}
}

// RegisterRoutes registers all favourite routes
func (h *FavouriteHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/favourites", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.List)
		r.Post("/", h.Add)
		// DELETE takes a product id, PATCH a favourite id
		r.Delete("/{id}", h.Remove)
		r.Patch("/{id}", h.Update)
	})
}

// List handles fetching the caller's wishlist. Query parameters: search,
// category, priority, notify and sort.
func (h *FavouriteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := view.FavouriteFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Priority: q.Get("priority"),
	}

	invalid := &domain.ValidationError{}
	if raw := q.Get("notify"); raw != "" {
		notify, err := strconv.ParseBool(raw)
		if err != nil {
			invalid.Add("notify", "Must be true or false")
		}
		filter.NotifyOnly = notify
	}
	mode, ok := view.ParseSortMode(q.Get("sort"))
	if !ok {
		invalid.Add("sort", "Must be one of: "+sortModeNames())
	}
	if err := invalid.OrNil(); err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	entries, err := h.favouriteService.List(r.Context(), userID)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, FavouriteListResponse{
		Favourites: view.SortFavourites(view.FilterFavourites(entries, filter), mode),
		Stats:      view.ComputeFavouriteStats(entries),
	})
}

func sortModeNames() string {
	names := make([]string, len(view.SortModes))
	for i, m := range view.SortModes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// Add handles saving a product to the caller's wishlist
func (h *FavouriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	var req AddFavouriteRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Favourite validation failed", zap.Error(err))
		middleware.RespondWithRequestError(w, err)
		return
	}

	entry, err := h.favouriteService.Add(r.Context(), userID, uuid.MustParse(req.ProductID))
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, entry)
}

// Remove handles dropping a product from the caller's wishlist.
// Removing something that is not there still succeeds.
func (h *FavouriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "id", "product ID")
	if !ok {
		return
	}

	if err := h.favouriteService.Remove(r.Context(), userID, productID); err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Update handles changing note, priority or price-drop alert of a favourite
func (h *FavouriteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "favourite ID")
	if !ok {
		return
	}

	var patch domain.FavouritePatch
	if !decodeJSON(w, r, &patch, h.logger) {
		return
	}

	if err := h.favouriteService.Update(r.Context(), userID, id, patch); err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
