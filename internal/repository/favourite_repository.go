package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"marketplace/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrFavouriteNotFound = fmt.Errorf("favourite %w", domain.ErrNotFound)
	ErrFavouriteExists   = fmt.Errorf("favourite for this product %w", domain.ErrConflict)
)

// FavouriteRepository defines the interface for favourite data access
type FavouriteRepository interface {
	Create(ctx context.Context, favourite *domain.Favourite) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Favourite, error)
	FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*domain.Favourite, error)
	Update(ctx context.Context, userID, id uuid.UUID, changes domain.FavouriteChanges) error
	Delete(ctx context.Context, userID, productID uuid.UUID) error
	DeleteOrphans(ctx context.Context) (int64, error)
}

type favouriteRepository struct {
	db *sql.DB
}

// NewFavouriteRepository creates a new instance of FavouriteRepository
func NewFavouriteRepository(db *sql.DB) FavouriteRepository {
	return &favouriteRepository{db: db}
}

// Create inserts a favourite. The (user_id, product_id) unique constraint
// turns a duplicate into ErrFavouriteExists.
func (r *favouriteRepository) Create(ctx context.Context, favourite *domain.Favourite) error {
	query := `
		INSERT INTO favourites (id, user_id, product_id, note, priority, notify_price_drop, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		favourite.ID,
		favourite.UserID,
		favourite.ProductID,
		favourite.Note,
		string(favourite.Priority),
		favourite.NotifyPriceDrop,
		favourite.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrFavouriteExists
		}
		if isForeignKeyViolation(err) {
			return ErrProfileNotFound
		}
		return storeError("create favourite", err)
	}

	return nil
}

// ListByUser returns a user's favourites, newest first
func (r *favouriteRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Favourite, error) {
	query := `
		SELECT id, user_id, product_id, note, priority, notify_price_drop, created_at
		FROM favourites
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, storeError("list favourites", err)
	}
	defer rows.Close()

	favourites := []*domain.Favourite{}
	for rows.Next() {
		favourite, err := scanFavourite(rows)
		if err != nil {
			return nil, storeError("scan favourite", err)
		}
		favourites = append(favourites, favourite)
	}

	if err = rows.Err(); err != nil {
		return nil, storeError("iterate favourites", err)
	}

	return favourites, nil
}

// FindByUserAndProduct retrieves the favourite for one (user, product) pair
func (r *favouriteRepository) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*domain.Favourite, error) {
	query := `
		SELECT id, user_id, product_id, note, priority, notify_price_drop, created_at
		FROM favourites
		WHERE user_id = $1 AND product_id = $2
	`

	favourite, err := scanFavourite(r.db.QueryRowContext(ctx, query, userID, productID))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrFavouriteNotFound
		}
		return nil, storeError("find favourite", err)
	}

	return favourite, nil
}

// Update patches note, priority and the price-drop flag of a favourite owned by userID
func (r *favouriteRepository) Update(ctx context.Context, userID, id uuid.UUID, changes domain.FavouriteChanges) error {
	sets := []string{}
	args := []interface{}{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if changes.Note != nil {
		set("note", *changes.Note)
	}
	if changes.Priority != nil {
		set("priority", string(*changes.Priority))
	}
	if changes.NotifyPriceDrop != nil {
		set("notify_price_drop", *changes.NotifyPriceDrop)
	}

	// An empty patch still has to report a missing row
	if len(sets) == 0 {
		sets = append(sets, "note = note")
	}

	args = append(args, id, userID)
	query := fmt.Sprintf(
		"UPDATE favourites SET %s WHERE id = $%d AND user_id = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args),
	)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return storeError("update favourite", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeError("update favourite", err)
	}

	if rowsAffected == 0 {
		return ErrFavouriteNotFound
	}

	return nil
}

// Delete removes the (user, product) favourite; a missing row is not an error
func (r *favouriteRepository) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	query := `DELETE FROM favourites WHERE user_id = $1 AND product_id = $2`

	if _, err := r.db.ExecContext(ctx, query, userID, productID); err != nil {
		return storeError("delete favourite", err)
	}

	return nil
}

// DeleteOrphans removes favourites whose product no longer exists
func (r *favouriteRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM favourites f
		WHERE NOT EXISTS (SELECT 1 FROM products p WHERE p.id = f.product_id)
	`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, storeError("delete orphaned favourites", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, storeError("delete orphaned favourites", err)
	}

	return deleted, nil
}

func scanFavourite(row scanner) (*domain.Favourite, error) {
	favourite := &domain.Favourite{}
	var priority string
	err := row.Scan(
		&favourite.ID,
		&favourite.UserID,
		&favourite.ProductID,
		&favourite.Note,
		&priority,
		&favourite.NotifyPriceDrop,
		&favourite.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	favourite.Priority = domain.Priority(priority)
	return favourite, nil
}
