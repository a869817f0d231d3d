package repository

import (
	"context"
	"database/sql"
	"fmt"

	"marketplace/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrProfileNotFound      = fmt.Errorf("profile %w", domain.ErrNotFound)
	ErrProfileAlreadyExists = fmt.Errorf("profile with this username %w", domain.ErrConflict)
)

// ProfileRepository reads the user profiles maintained by the auth service
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Profile, error)
}

type profileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new instance of ProfileRepository
func NewProfileRepository(db *sql.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// Create inserts a profile row
func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (id, username, full_name, avatar_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		profile.ID,
		profile.Username,
		profile.FullName,
		profile.AvatarURL,
		profile.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrProfileAlreadyExists
		}
		return storeError("create profile", err)
	}

	return nil
}

// FindByID retrieves a profile by ID
func (r *profileRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	query := `
		SELECT id, username, full_name, avatar_url, created_at
		FROM profiles
		WHERE id = $1
	`

	profile, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrProfileNotFound
		}
		return nil, storeError("find profile", err)
	}

	return profile, nil
}

// FindByIDs fetches every listed profile in one round trip. Missing ids are
// simply absent from the result.
func (r *profileRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Profile, error) {
	result := make(map[uuid.UUID]*domain.Profile, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `
		SELECT id, username, full_name, avatar_url, created_at
		FROM profiles
		WHERE id = ANY($1::uuid[])
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(uuidStrings(ids)))
	if err != nil {
		return nil, storeError("find profiles", err)
	}
	defer rows.Close()

	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, storeError("scan profile", err)
		}
		result[profile.ID] = profile
	}

	if err = rows.Err(); err != nil {
		return nil, storeError("iterate profiles", err)
	}

	return result, nil
}

func scanProfile(row scanner) (*domain.Profile, error) {
	profile := &domain.Profile{}
	err := row.Scan(
		&profile.ID,
		&profile.Username,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
