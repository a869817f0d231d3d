// Package memstore is an in-memory stand-in for the PostgreSQL repositories.
// It mirrors their observable behaviour (ordering, uniqueness, not-found
// errors, derived rating) and can inject transport failures.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"marketplace/internal/domain"
	"marketplace/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Store holds every table behind one lock
type Store struct {
	mu         sync.Mutex
	profiles   map[uuid.UUID]domain.Profile
	products   map[uuid.UUID]domain.Product
	favourites map[uuid.UUID]domain.Favourite
	reviews    map[uuid.UUID]domain.Review

	// FailWith, when set, is returned by every operation
	FailWith error
	// Calls counts operations that reached the store
	Calls int
}

// New returns an empty store
func New() *Store {
	return &Store{
		profiles:   make(map[uuid.UUID]domain.Profile),
		products:   make(map[uuid.UUID]domain.Product),
		favourites: make(map[uuid.UUID]domain.Favourite),
		reviews:    make(map[uuid.UUID]domain.Review),
	}
}

func (s *Store) enter() (func(), error) {
	s.mu.Lock()
	s.Calls++
	if s.FailWith != nil {
		err := s.FailWith
		s.mu.Unlock()
		return func() {}, err
	}
	return s.mu.Unlock, nil
}

// Products exposes the store as a repository.ProductRepository
func (s *Store) Products() repository.ProductRepository { return productRepo{s} }

// Favourites exposes the store as a repository.FavouriteRepository
func (s *Store) Favourites() repository.FavouriteRepository { return favouriteRepo{s} }

// Reviews exposes the store as a repository.ReviewRepository
func (s *Store) Reviews() repository.ReviewRepository { return reviewRepo{s} }

// Profiles exposes the store as a repository.ProfileRepository
func (s *Store) Profiles() repository.ProfileRepository { return profileRepo{s} }

type productRepo struct{ s *Store }

func (r productRepo) Create(ctx context.Context, product *domain.Product) error {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return err
	}
	p := *product
	p.Tags = cloneArray(p.Tags)
	p.ReferenceImages = cloneArray(p.ReferenceImages)
	r.s.products[p.ID] = p
	return nil
}

func (r productRepo) Update(ctx context.Context, id uuid.UUID, changes domain.ProductChanges) error {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return err
	}
	p, ok := r.s.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	changes.Apply(&p)
	p.UpdatedAt = time.Now().UTC()
	r.s.products[id] = p
	return nil
}

func (r productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return err
	}
	delete(r.s.products, id)
	return nil
}

func (r productRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.ProductDetail, error) {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return nil, err
	}
	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	detail := &domain.ProductDetail{Product: *r.s.withRating(p)}
	if owner, ok := r.s.profiles[p.OwnerID]; ok {
		detail.Owner = &owner
	}
	return detail, nil
}

func (r productRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out[id] = r.s.withRating(p)
		}
	}
	return out, nil
}

func (r productRepo) List(ctx context.Context, ownerID *uuid.UUID) ([]*domain.Product, error) {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return nil, err
	}
	return r.s.selectProducts(func(p domain.Product) bool {
		return ownerID == nil || p.OwnerID == *ownerID
	}), nil
}

func (r productRepo) ListPublic(ctx context.Context, f domain.PublicFilter) ([]*domain.Product, error) {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	brand := strings.ToLower(strings.TrimSpace(f.Brand))
	return r.s.selectProducts(func(p domain.Product) bool {
		if p.Visibility != domain.VisibilityPublic {
			return false
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
		if f.Category != "" && p.Category != f.Category {
			return false
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			return false
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			return false
		}
		if f.Condition != "" && p.Condition != f.Condition {
			return false
		}
		if brand != "" && !strings.Contains(strings.ToLower(p.Brand), brand) {
			return false
		}
		return true
	}), nil
}

func (r productRepo) IncrementViews(ctx context.Context, id uuid.UUID) error {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return err
	}
	if p, ok := r.s.products[id]; ok {
		p.Views++
		r.s.products[id] = p
	}
	return nil
}

func (r productRepo) IncrementShares(ctx context.Context, id uuid.UUID) error {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return err
	}
	p, ok := r.s.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Shares++
	r.s.products[id] = p
	return nil
}

// selectProducts returns matching products newest first; caller holds the lock
func (s *Store) selectProducts(keep func(domain.Product) bool) []*domain.Product {
	out := []*domain.Product{}
	for _, p := range s.products {
		if keep(p) {
			out = append(out, s.withRating(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// withRating copies p and fills the derived review aggregate; caller holds the lock
func (s *Store) withRating(p domain.Product) *domain.Product {
	sum, count := 0, 0
	for _, r := range s.reviews {
		if r.ProductID == p.ID {
			sum += r.Rating
			count++
		}
	}
	p.ReviewCount = count
	p.Rating = 0
	if count > 0 {
		p.Rating = float64(sum) / float64(count)
	}
	p.Tags = cloneArray(p.Tags)
	p.ReferenceImages = cloneArray(p.ReferenceImages)
	return &p
}

type favouriteRepo struct{ s *Store }

func (r favouriteRepo) Create(ctx context.Context, favourite *domain.Favourite) error {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return err
	}
	for _, f := range r.s.favourites {
		if f.UserID == favourite.UserID && f.ProductID == favourite.ProductID {
			return repository.ErrFavouriteExists
		}
	}
	r.s.favourites[favourite.ID] = *favourite
	return nil
}

func (r favouriteRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Favourite, error) {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := []*domain.Favourite{}
	for _, f := range r.s.favourites {
		if f.UserID == userID {
			f := f
			out = append(out, &f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r favouriteRepo) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*domain.Favourite, error) {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return nil, err
	}
	for _, f := range r.s.favourites {
		if f.UserID == userID && f.ProductID == productID {
			return &f, nil
		}
	}
	return nil, repository.ErrFavouriteNotFound
}

func (r favouriteRepo) Update(ctx context.Context, userID, id uuid.UUID, changes domain.FavouriteChanges) error {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return err
	}
	f, ok := r.s.favourites[id]
	if !ok || f.UserID != userID {
		return repository.ErrFavouriteNotFound
	}
	changes.Apply(&f)
	r.s.favourites[id] = f
	return nil
}

func (r favouriteRepo) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return err
	}
	for id, f := range r.s.favourites {
		if f.UserID == userID && f.ProductID == productID {
			delete(r.s.favourites, id)
		}
	}
	return nil
}

func (r favouriteRepo) DeleteOrphans(ctx context.Context) (int64, error) {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return 0, err
	}
	var deleted int64
	for id, f := range r.s.favourites {
		if _, ok := r.s.products[f.ProductID]; !ok {
			delete(r.s.favourites, id)
			deleted++
		}
	}
	return deleted, nil
}

type reviewRepo struct{ s *Store }

func (r reviewRepo) Create(ctx context.Context, review *domain.Review) error {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return err
	}
	v := *review
	v.ReplyText, v.RepliedAt = nil, nil
	r.s.reviews[v.ID] = v
	return nil
}

func (r reviewRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return nil, err
	}
	v, ok := r.s.reviews[id]
	if !ok {
		return nil, repository.ErrReviewNotFound
	}
	return &v, nil
}

func (r reviewRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := []*domain.Review{}
	for _, v := range r.s.reviews {
		if v.ProductID == productID {
			v := v
			out = append(out, &v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r reviewRepo) SetReply(ctx context.Context, id uuid.UUID, text string, repliedAt time.Time) error {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return err
	}
	v, ok := r.s.reviews[id]
	if !ok {
		return repository.ErrReviewNotFound
	}
	v.ReplyText, v.RepliedAt = &text, &repliedAt
	r.s.reviews[id] = v
	return nil
}

func (r reviewRepo) DeleteOrphans(ctx context.Context) (int64, error) {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return 0, err
	}
	var deleted int64
	for id, v := range r.s.reviews {
		if _, ok := r.s.products[v.ProductID]; !ok {
			delete(r.s.reviews, id)
			deleted++
		}
	}
	return deleted, nil
}

type profileRepo struct{ s *Store }

func (r profileRepo) Create(ctx context.Context, profile *domain.Profile) error {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return err
	}
	for _, p := range r.s.profiles {
		if p.Username == profile.Username {
			return repository.ErrProfileAlreadyExists
		}
	}
	r.s.profiles[profile.ID] = *profile
	return nil
}

func (r profileRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return nil, err
	}
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	return &p, nil
}

func (r profileRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Profile, error) {
	unlock, err := r.s.enter()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*domain.Profile, len(ids))
	for _, id := range ids {
		if p, ok := r.s.profiles[id]; ok {
			p := p
			out[id] = &p
		}
	}
	return out, nil
}

func cloneArray(in pq.StringArray) pq.StringArray {
	if in == nil {
		return nil
	}
	out := make(pq.StringArray, len(in))
	copy(out, in)
	return out
}
