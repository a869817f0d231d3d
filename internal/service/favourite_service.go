package service

import (
	"context"
	"fmt"
	"time"

	"marketplace/internal/domain"
	"marketplace/internal/repository"

	"github.com/google/uuid"
)

// FavouriteService defines the interface for wishlist business logic
type FavouriteService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*domain.FavouriteEntry, error)
	Add(ctx context.Context, userID, productID uuid.UUID) (*domain.FavouriteEntry, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Update(ctx context.Context, userID, id uuid.UUID, patch domain.FavouritePatch) error
	PruneOrphans(ctx context.Context) (favourites, reviews int64, err error)
}

type favouriteService struct {
	favouriteRepo repository.FavouriteRepository
	productRepo   repository.ProductRepository
	profileRepo   repository.ProfileRepository
	reviewRepo    repository.ReviewRepository
	now           func() time.Time
}

// NewFavouriteService creates a new instance of FavouriteService
func NewFavouriteService(
	favouriteRepo repository.FavouriteRepository,
	productRepo repository.ProductRepository,
	profileRepo repository.ProfileRepository,
	reviewRepo repository.ReviewRepository,
) FavouriteService {
	return &favouriteService{
		favouriteRepo: favouriteRepo,
		productRepo:   productRepo,
		profileRepo:   profileRepo,
		reviewRepo:    reviewRepo,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// List returns the user's favourites newest first, each resolved against its
// product and seller. Products and sellers are fetched in one batch each.
func (s *favouriteService) List(ctx context.Context, userID uuid.UUID) ([]*domain.FavouriteEntry, error) {
	favourites, err := s.favouriteRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favourites: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := s.resolve(ctx, favourites)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Add saves productID for the user. A second add of the same pair fails with
// a conflict and leaves the wishlist unchanged.
func (s *favouriteService) Add(ctx context.Context, userID, productID uuid.UUID) (*domain.FavouriteEntry, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	favourite := &domain.Favourite{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Priority:  domain.PriorityLow,
		CreatedAt: s.now(),
	}

	if err := s.favouriteRepo.Create(ctx, favourite); err != nil {
		return nil, fmt.Errorf("failed to add favourite: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := s.resolve(ctx, []*domain.Favourite{favourite})
	if err != nil {
		return nil, err
	}
	return entries[0], nil
}

// Remove unfavourites productID. Removing a missing favourite is not an error.
func (s *favouriteService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.favouriteRepo.Delete(ctx, userID, productID); err != nil {
		return fmt.Errorf("failed to remove favourite: %w", err)
	}
	return ctx.Err()
}

// Update patches note, priority and price-drop alert of the user's own favourite
func (s *favouriteService) Update(ctx context.Context, userID, id uuid.UUID, patch domain.FavouritePatch) error {
	changes, err := validateFavouritePatch(patch)
	if err != nil {
		return err
	}

	if err := s.favouriteRepo.Update(ctx, userID, id, changes); err != nil {
		return fmt.Errorf("failed to update favourite: %w", err)
	}
	return ctx.Err()
}

// PruneOrphans deletes favourites and reviews whose product was deleted
func (s *favouriteService) PruneOrphans(ctx context.Context) (int64, int64, error) {
	favourites, err := s.favouriteRepo.DeleteOrphans(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prune favourites: %w", err)
	}

	reviews, err := s.reviewRepo.DeleteOrphans(ctx)
	if err != nil {
		return favourites, 0, fmt.Errorf("failed to prune reviews: %w", err)
	}

	return favourites, reviews, ctx.Err()
}

// resolve attaches products and sellers, tagging entries whose product is gone
func (s *favouriteService) resolve(ctx context.Context, favourites []*domain.Favourite) ([]*domain.FavouriteEntry, error) {
	entries := make([]*domain.FavouriteEntry, 0, len(favourites))
	if len(favourites) == 0 {
		return entries, nil
	}

	productIDs := distinct(len(favourites), func(i int) uuid.UUID { return favourites[i].ProductID })
	products, err := s.productRepo.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve favourite products: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found := make([]*domain.Product, 0, len(products))
	for _, p := range products {
		found = append(found, p)
	}

	sellers := map[uuid.UUID]*domain.Profile{}
	if len(found) > 0 {
		sellerIDs := distinct(len(found), func(i int) uuid.UUID { return found[i].OwnerID })
		sellers, err = s.profileRepo.FindByIDs(ctx, sellerIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve favourite sellers: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	for _, f := range favourites {
		entry := &domain.FavouriteEntry{Favourite: *f, Resolution: domain.Orphaned}
		if p, ok := products[f.ProductID]; ok {
			entry.Resolution = domain.Resolved
			entry.Product = p
			entry.Seller = sellers[p.OwnerID]
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func distinct(n int, id func(i int) uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, n)
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		v := id(i)
		if !seen[v] {
			seen[v] = true
			ids = append(ids, v)
		}
	}
	return ids
}
