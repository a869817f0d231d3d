package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"marketplace/internal/domain"
	"marketplace/internal/repository"

	"github.com/google/uuid"
)

// ReviewService defines the interface for reviews and seller replies
type ReviewService interface {
	Create(ctx context.Context, authorID, productID uuid.UUID, rating int, text string) (*domain.Review, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error)
	Reply(ctx context.Context, sellerID, reviewID uuid.UUID, text string) (*domain.Review, error)
}

type reviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	now         func() time.Time
}

// NewReviewService creates a new instance of ReviewService
func NewReviewService(reviewRepo repository.ReviewRepository, productRepo repository.ProductRepository) ReviewService {
	return &reviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a buyer review on an existing product
func (s *reviewService) Create(ctx context.Context, authorID, productID uuid.UUID, rating int, text string) (*domain.Review, error) {
	c := &checker{}
	c.check("rating", rating, fmt.Sprintf("gte=%d,lte=%d", domain.MinRating, domain.MaxRating))
	c.check("text", strings.TrimSpace(text), ruleReviewText)
	if err := c.err(); err != nil {
		return nil, err
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	review := &domain.Review{
		ID:        uuid.New(),
		ProductID: productID,
		AuthorID:  authorID,
		Rating:    rating,
		Text:      strings.TrimSpace(text),
		CreatedAt: s.now(),
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return review, nil
}

// Get retrieves a review by ID
func (s *reviewService) Get(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	review, err := s.reviewRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return review, nil
}

// ListByProduct returns a product's reviews, newest first
func (s *reviewService) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	reviews, err := s.reviewRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

// Reply sets the seller's reply, replacing any earlier one. Text and
// timestamp are written together.
func (s *reviewService) Reply(ctx context.Context, sellerID, reviewID uuid.UUID, text string) (*domain.Review, error) {
	text = strings.TrimSpace(text)
	c := &checker{}
	c.check("reply_text", text, ruleReplyText)
	if err := c.err(); err != nil {
		return nil, err
	}

	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to find review: %w", err)
	}

	product, err := s.productRepo.FindByID(ctx, review.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to find reviewed product: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if product.OwnerID != sellerID {
		return nil, fmt.Errorf("only the product's seller may reply: %w", domain.ErrForbidden)
	}

	repliedAt := s.now()
	if err := s.reviewRepo.SetReply(ctx, reviewID, text, repliedAt); err != nil {
		return nil, fmt.Errorf("failed to reply to review: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	review.ReplyText = &text
	review.RepliedAt = &repliedAt
	return review, nil
}
