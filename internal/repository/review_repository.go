package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"marketplace/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrReviewNotFound = fmt.Errorf("review %w", domain.ErrNotFound)
)

// ReviewRepository defines the interface for review data access
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error)
	SetReply(ctx context.Context, id uuid.UUID, text string, repliedAt time.Time) error
	DeleteOrphans(ctx context.Context) (int64, error)
}

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new instance of ReviewRepository
func NewReviewRepository(db *sql.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create inserts a review without a reply
func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, product_id, author_id, rating, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		review.ID,
		review.ProductID,
		review.AuthorID,
		review.Rating,
		review.Text,
		review.CreatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProfileNotFound
		}
		return storeError("create review", err)
	}

	return nil
}

// FindByID retrieves a review by ID
func (r *reviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	query := `
		SELECT id, product_id, author_id, rating, text, reply_text, replied_at, created_at
		FROM reviews
		WHERE id = $1
	`

	review, err := scanReview(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrReviewNotFound
		}
		return nil, storeError("find review", err)
	}

	return review, nil
}

// ListByProduct returns a product's reviews, newest first
func (r *reviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	query := `
		SELECT id, product_id, author_id, rating, text, reply_text, replied_at, created_at
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, storeError("list reviews", err)
	}
	defer rows.Close()

	reviews := []*domain.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, storeError("scan review", err)
		}
		reviews = append(reviews, review)
	}

	if err = rows.Err(); err != nil {
		return nil, storeError("iterate reviews", err)
	}

	return reviews, nil
}

// SetReply stores reply_text and replied_at in one statement, replacing any
// earlier reply
func (r *reviewRepository) SetReply(ctx context.Context, id uuid.UUID, text string, repliedAt time.Time) error {
	query := `
		UPDATE reviews
		SET reply_text = $2, replied_at = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, text, repliedAt)
	if err != nil {
		return storeError("reply to review", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeError("reply to review", err)
	}

	if rowsAffected == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// DeleteOrphans removes reviews whose product no longer exists
func (r *reviewRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM reviews v
		WHERE NOT EXISTS (SELECT 1 FROM products p WHERE p.id = v.product_id)
	`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, storeError("delete orphaned reviews", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, storeError("delete orphaned reviews", err)
	}

	return deleted, nil
}

func scanReview(row scanner) (*domain.Review, error) {
	review := &domain.Review{}
	var (
		replyText sql.NullString
		repliedAt sql.NullTime
	)

	err := row.Scan(
		&review.ID,
		&review.ProductID,
		&review.AuthorID,
		&review.Rating,
		&review.Text,
		&replyText,
		&repliedAt,
		&review.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if replyText.Valid && repliedAt.Valid {
		review.ReplyText = &replyText.String
		review.RepliedAt = &repliedAt.Time
	}

	return review, nil
}
