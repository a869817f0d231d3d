package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"marketplace/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrProductNotFound = fmt.Errorf("product %w", domain.ErrNotFound)
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, id uuid.UUID, changes domain.ProductChanges) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.ProductDetail, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error)
	List(ctx context.Context, ownerID *uuid.UUID) ([]*domain.Product, error)
	ListPublic(ctx context.Context, filter domain.PublicFilter) ([]*domain.Product, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
	IncrementShares(ctx context.Context, id uuid.UUID) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// rating and review_count are derived from reviews; products without
// reviews report 0 for both.
const productColumns = `
	p.id, p.owner_id, p.name, p.description, p.price, p.original_price, p.category,
	p.condition, p.brand, p.return_policy, p.tags, p.thumbnail_url, p.reference_images,
	p.contact_email, p.contact_phone, p.country, p.state, p.city, p.visibility,
	p.shares, p.views, COALESCE(r.rating, 0), COALESCE(r.review_count, 0),
	p.created_at, p.updated_at`

const productFrom = `
	FROM products p
	LEFT JOIN (
		SELECT product_id, AVG(rating)::float8 AS rating, COUNT(*) AS review_count
		FROM reviews
		GROUP BY product_id
	) r ON r.product_id = p.id`

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (
			id, owner_id, name, description, price, original_price, category, condition,
			brand, return_policy, tags, thumbnail_url, reference_images, contact_email,
			contact_phone, country, state, city, visibility, shares, views, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.OwnerID,
		product.Name,
		product.Description,
		product.Price,
		product.OriginalPrice,
		product.Category,
		product.Condition,
		product.Brand,
		product.ReturnPolicy,
		nonNilArray(product.Tags),
		product.ThumbnailURL,
		nonNilArray(product.ReferenceImages),
		product.ContactEmail,
		product.ContactPhone,
		product.Country,
		product.State,
		product.City,
		string(product.Visibility),
		product.Shares,
		product.Views,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProfileNotFound
		}
		return storeError("create product", err)
	}

	return nil
}

// Update writes only the fields present in changes
func (r *productRepository) Update(ctx context.Context, id uuid.UUID, changes domain.ProductChanges) error {
	query, args := buildUpdateQuery(id, changes)
	if query == "" {
		return nil
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return storeError("update product", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeError("update product", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

func buildUpdateQuery(id uuid.UUID, c domain.ProductChanges) (string, []interface{}) {
	sets := []string{}
	args := []interface{}{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if c.Name != nil {
		set("name", *c.Name)
	}
	if c.Description != nil {
		set("description", *c.Description)
	}
	if c.Price != nil {
		set("price", *c.Price)
	}
	if c.OriginalPrice != nil {
		set("original_price", *c.OriginalPrice)
	}
	if c.Category != nil {
		set("category", *c.Category)
	}
	if c.Condition != nil {
		set("condition", *c.Condition)
	}
	if c.Brand != nil {
		set("brand", *c.Brand)
	}
	if c.ReturnPolicy != nil {
		set("return_policy", *c.ReturnPolicy)
	}
	if c.Tags != nil {
		set("tags", nonNilArray(*c.Tags))
	}
	if c.ThumbnailURL != nil {
		set("thumbnail_url", *c.ThumbnailURL)
	}
	if c.ReferenceImages != nil {
		set("reference_images", nonNilArray(*c.ReferenceImages))
	}
	if c.ContactEmail != nil {
		set("contact_email", *c.ContactEmail)
	}
	if c.ContactPhone != nil {
		set("contact_phone", *c.ContactPhone)
	}
	if c.Country != nil {
		set("country", *c.Country)
	}
	if c.State != nil {
		set("state", *c.State)
	}
	if c.City != nil {
		set("city", *c.City)
	}
	if c.Visibility != nil {
		set("visibility", string(*c.Visibility))
	}

	if len(sets) == 0 {
		return "", nil
	}

	set("updated_at", time.Now().UTC())
	args = append(args, id)
	query := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	return query, args
}

// Delete removes a product permanently. Favourites and reviews pointing at it
// are left in place. Deleting a missing product is not an error.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return storeError("delete product", err)
	}

	return nil
}

// FindByID retrieves a product and its owner's profile
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ProductDetail, error) {
	query := `SELECT ` + productColumns + `,
		o.id, o.username, o.full_name, o.avatar_url, o.created_at
	` + productFrom + `
	LEFT JOIN profiles o ON o.id = p.owner_id
	WHERE p.id = $1`

	var (
		ownerID        uuid.NullUUID
		ownerUsername  sql.NullString
		ownerFullName  sql.NullString
		ownerAvatarURL sql.NullString
		ownerCreatedAt sql.NullTime
	)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id),
		&ownerID, &ownerUsername, &ownerFullName, &ownerAvatarURL, &ownerCreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrProductNotFound
		}
		return nil, storeError("find product", err)
	}

	detail := &domain.ProductDetail{Product: *product}
	if ownerID.Valid {
		detail.Owner = &domain.Profile{
			ID:        ownerID.UUID,
			Username:  ownerUsername.String,
			FullName:  ownerFullName.String,
			AvatarURL: ownerAvatarURL.String,
			CreatedAt: ownerCreatedAt.Time,
		}
	}

	return detail, nil
}

// FindByIDs fetches every listed product in one round trip
func (r *productRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	result := make(map[uuid.UUID]*domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + productColumns + productFrom + `
	WHERE p.id = ANY($1::uuid[])`

	products, err := r.query(ctx, "find products", query, pq.Array(uuidStrings(ids)))
	if err != nil {
		return nil, err
	}

	for _, product := range products {
		result[product.ID] = product
	}
	return result, nil
}

// List returns every product, or only ownerID's when given, newest first.
// Visibility is not filtered.
func (r *productRepository) List(ctx context.Context, ownerID *uuid.UUID) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + productFrom
	args := []interface{}{}

	if ownerID != nil {
		query += ` WHERE p.owner_id = $1`
		args = append(args, *ownerID)
	}
	query += ` ORDER BY p.created_at DESC`

	return r.query(ctx, "list products", query, args...)
}

// ListPublic queries the public catalog with conjunctive optional filters
func (r *productRepository) ListPublic(ctx context.Context, filter domain.PublicFilter) ([]*domain.Product, error) {
	query, args := buildPublicQuery(filter)
	return r.query(ctx, "list public products", query, args...)
}

func buildPublicQuery(filter domain.PublicFilter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	where := func(format string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}

	where("p.visibility = $%d", string(domain.VisibilityPublic))

	if q := strings.TrimSpace(filter.Query); q != "" {
		where(`(p.name ILIKE $%[1]d ESCAPE '\' OR p.description ILIKE $%[1]d ESCAPE '\')`, containsPattern(q))
	}
	if filter.Category != "" {
		where("p.category = $%d", filter.Category)
	}
	if filter.MinPrice != nil {
		where("p.price >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		where("p.price <= $%d", *filter.MaxPrice)
	}
	if filter.Condition != "" {
		where("p.condition = $%d", filter.Condition)
	}
	if b := strings.TrimSpace(filter.Brand); b != "" {
		where(`p.brand ILIKE $%d ESCAPE '\'`, containsPattern(b))
	}

	query := `SELECT ` + productColumns + productFrom + `
	WHERE ` + strings.Join(conditions, " AND ") + `
	ORDER BY p.created_at DESC`

	return query, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s literally anywhere
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// IncrementViews bumps the view counter through the increment_product_views function
func (r *productRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `SELECT increment_product_views($1)`, id); err != nil {
		return storeError("increment views", err)
	}
	return nil
}

// IncrementShares bumps the share counter
func (r *productRepository) IncrementShares(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE products SET shares = shares + 1 WHERE id = $1`, id)
	if err != nil {
		return storeError("increment shares", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeError("increment shares", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) query(ctx context.Context, op, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(op, err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, storeError(op, err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, storeError(op, err)
	}

	return products, nil
}

func scanProduct(row scanner, extra ...interface{}) (*domain.Product, error) {
	product := &domain.Product{}
	var visibility string
	dest := []interface{}{
		&product.ID,
		&product.OwnerID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.OriginalPrice,
		&product.Category,
		&product.Condition,
		&product.Brand,
		&product.ReturnPolicy,
		&product.Tags,
		&product.ThumbnailURL,
		&product.ReferenceImages,
		&product.ContactEmail,
		&product.ContactPhone,
		&product.Country,
		&product.State,
		&product.City,
		&visibility,
		&product.Shares,
		&product.Views,
		&product.Rating,
		&product.ReviewCount,
		&product.CreatedAt,
		&product.UpdatedAt,
	}

	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	product.Visibility = domain.Visibility(visibility)

	return product, nil
}

func nonNilArray(values []string) pq.StringArray {
	if values == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(values)
}
