package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"marketplace/internal/domain"
	"marketplace/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductService defines the interface for listing business logic
type ProductService interface {
	Create(ctx context.Context, ownerID uuid.UUID, input domain.ProductInput) (*domain.Product, error)
	Update(ctx context.Context, sellerID, id uuid.UUID, patch domain.ProductPatch) (*domain.Product, error)
	SetVisibility(ctx context.Context, sellerID, id uuid.UUID, visibility domain.Visibility) (*domain.Product, error)
	Delete(ctx context.Context, sellerID, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.ProductDetail, error)
	List(ctx context.Context, ownerID *uuid.UUID) ([]*domain.Product, error)
	ListPublic(ctx context.Context, filter domain.PublicFilter) ([]*domain.Product, error)
	RecordView(ctx context.Context, id uuid.UUID)
	RecordShare(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	productRepo repository.ProductRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository, logger *zap.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create validates a new listing and stores it with fresh counters
func (s *productService) Create(ctx context.Context, ownerID uuid.UUID, input domain.ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	now := s.now()
	product := &domain.Product{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		Name:            strings.TrimSpace(input.Name),
		Description:     strings.TrimSpace(input.Description),
		Price:           parsePrice(input.Price),
		Category:        input.Category,
		Condition:       input.Condition,
		Brand:           input.Brand,
		ReturnPolicy:    input.ReturnPolicy,
		Tags:            pq.StringArray(normalizeTags(input.Tags)),
		ThumbnailURL:    input.ThumbnailURL,
		ReferenceImages: pq.StringArray(append([]string{}, input.ReferenceImages...)),
		ContactEmail:    input.ContactEmail,
		ContactPhone:    input.ContactPhone,
		Country:         strings.TrimSpace(input.Country),
		State:           strings.TrimSpace(input.State),
		City:            input.City,
		Visibility:      domain.VisibilityPublic,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if input.OriginalPrice != "" {
		product.OriginalPrice = decimal.NewNullDecimal(parsePrice(input.OriginalPrice))
	}
	if input.Visibility != "" {
		product.Visibility = domain.Visibility(input.Visibility)
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return product, nil
}

// Update re-validates the supplied fields, checks ownership and applies the patch
func (s *productService) Update(ctx context.Context, sellerID, id uuid.UUID, patch domain.ProductPatch) (*domain.Product, error) {
	changes, err := validateProductPatch(patch)
	if err != nil {
		return nil, err
	}
	return s.applyChanges(ctx, sellerID, id, changes)
}

// SetVisibility toggles whether the listing appears in the public catalog
func (s *productService) SetVisibility(ctx context.Context, sellerID, id uuid.UUID, visibility domain.Visibility) (*domain.Product, error) {
	if !visibility.Valid() {
		return nil, domain.NewValidationError("visibility", "Unknown visibility")
	}
	return s.applyChanges(ctx, sellerID, id, domain.ProductChanges{Visibility: &visibility})
}

func (s *productService) applyChanges(ctx context.Context, sellerID, id uuid.UUID, changes domain.ProductChanges) (*domain.Product, error) {
	detail, err := s.owned(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, id, changes); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	product := detail.Product
	changes.Apply(&product)
	product.UpdatedAt = s.now()
	return &product, nil
}

// Delete removes the listing permanently. Favourites and reviews that
// reference it are left in place.
func (s *productService) Delete(ctx context.Context, sellerID, id uuid.UUID) error {
	if _, err := s.owned(ctx, sellerID, id); err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return ctx.Err()
}

// owned loads the product and rejects callers who are not its seller
func (s *productService) owned(ctx context.Context, sellerID, id uuid.UUID) (*domain.ProductDetail, error) {
	detail, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if detail.OwnerID != sellerID {
		return nil, fmt.Errorf("product belongs to another seller: %w", domain.ErrForbidden)
	}
	return detail, nil
}

// Get retrieves a product with its seller profile
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.ProductDetail, error) {
	detail, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return detail, nil
}

// List returns every product, or only the owner's when ownerID is set
func (s *productService) List(ctx context.Context, ownerID *uuid.UUID) ([]*domain.Product, error) {
	products, err := s.productRepo.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// ListPublic returns the public catalog narrowed by filter
func (s *productService) ListPublic(ctx context.Context, filter domain.PublicFilter) ([]*domain.Product, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, domain.NewValidationError("min_price", "Must not exceed max_price")
	}

	products, err := s.productRepo.ListPublic(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list public products: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// RecordView bumps the view counter. Failures are logged and dropped.
func (s *productService) RecordView(ctx context.Context, id uuid.UUID) {
	if err := s.productRepo.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("failed to record product view",
			zap.String("product_id", id.String()),
			zap.Error(err),
		)
	}
}

// RecordShare bumps the share counter
func (s *productService) RecordShare(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.IncrementShares(ctx, id); err != nil {
		return fmt.Errorf("failed to record share: %w", err)
	}
	return ctx.Err()
}
