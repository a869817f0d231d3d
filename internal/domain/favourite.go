package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxNoteLength caps the free-text note a buyer keeps on a favourite
const MaxNoteLength = 300

// Priority is a buyer-assigned urgency tag
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is a known priority
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Rank orders priorities high < medium < low. Unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Favourite is a buyer's saved reference to a product
type Favourite struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	ProductID       uuid.UUID `json:"product_id" db:"product_id"`
	Note            string    `json:"note" db:"note"`
	Priority        Priority  `json:"priority" db:"priority"`
	NotifyPriceDrop bool      `json:"notify_price_drop" db:"notify_price_drop"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Resolution tells whether a favourite's product still exists
type Resolution string

const (
	Resolved Resolution = "resolved"
	Orphaned Resolution = "orphaned"
)

// FavouriteEntry is a favourite joined with its product and the product's seller.
// Product and Seller are nil when Resolution is Orphaned.
type FavouriteEntry struct {
	Favourite
	Resolution Resolution `json:"resolution"`
	Product    *Product   `json:"product"`
	Seller     *Profile   `json:"seller"`
}

// Orphaned reports whether the referenced product no longer resolves
func (e *FavouriteEntry) Orphaned() bool {
	return e.Resolution == Orphaned
}

// FavouritePatch updates buyer-private metadata only
type FavouritePatch struct {
	Note            *string `json:"note,omitempty"`
	Priority        *string `json:"priority,omitempty"`
	NotifyPriceDrop *bool   `json:"notify_price_drop,omitempty"`
}

// FavouriteChanges is a validated FavouritePatch
type FavouriteChanges struct {
	Note            *string
	Priority        *Priority
	NotifyPriceDrop *bool
}

// Apply copies the set fields onto f
func (c FavouriteChanges) Apply(f *Favourite) {
	if c.Note != nil {
		f.Note = *c.Note
	}
	if c.Priority != nil {
		f.Priority = *c.Priority
	}
	if c.NotifyPriceDrop != nil {
		f.NotifyPriceDrop = *c.NotifyPriceDrop
	}
}

// Empty reports whether nothing would change
func (c FavouriteChanges) Empty() bool {
	return c.Note == nil && c.Priority == nil && c.NotifyPriceDrop == nil
}
