package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Amounts go over the wire as JSON numbers. Two decimals within ten whole
// digits stay exact as a float64.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Field ceilings for product listings
const (
	MaxNameLength        = 40
	MaxDescriptionLength = 1000
	MaxBrandLength       = 60
	MaxCountryLength     = 56
	MaxStateLength       = 56
	MaxCityLength        = 85
	MaxTags              = 15
	MaxTagLength         = 30
	MaxReferenceImages   = 8
)

// Visibility controls whether a product appears in the public catalog
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is a known visibility
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Categories accepted for a listing
var Categories = []string{
	"Tech",
	"Fashion",
	"Home",
	"Books",
	"Sports",
	"Toys",
	"Beauty",
	"Vehicles",
	"Collectibles",
	"Other",
}

// Conditions accepted for a listing
var Conditions = []string{
	"New",
	"Like New",
	"Good",
	"Fair",
	"Poor",
}

// ReturnPolicies accepted for a listing
var ReturnPolicies = []string{
	"No Returns",
	"7 Days",
	"14 Days",
	"30 Days",
}

// IsCategory reports whether c is one of Categories
func IsCategory(c string) bool { return contains(Categories, c) }

// IsCondition reports whether c is one of Conditions
func IsCondition(c string) bool { return contains(Conditions, c) }

// IsReturnPolicy reports whether p is one of ReturnPolicies
func IsReturnPolicy(p string) bool { return contains(ReturnPolicies, p) }

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Product represents a listing owned by a seller
type Product struct {
	ID              uuid.UUID           `json:"id" db:"id"`
	OwnerID         uuid.UUID           `json:"owner_id" db:"owner_id"`
	Name            string              `json:"name" db:"name"`
	Description     string              `json:"description" db:"description"`
	Price           decimal.Decimal     `json:"price" db:"price"`
	OriginalPrice   decimal.NullDecimal `json:"original_price" db:"original_price"`
	Category        string              `json:"category" db:"category"`
	Condition       string              `json:"condition" db:"condition"`
	Brand           string              `json:"brand" db:"brand"`
	ReturnPolicy    string              `json:"return_policy" db:"return_policy"`
	Tags            pq.StringArray      `json:"tags" db:"tags"`
	ThumbnailURL    string              `json:"thumbnail_url" db:"thumbnail_url"`
	ReferenceImages pq.StringArray      `json:"reference_images" db:"reference_images"`
	ContactEmail    string              `json:"contact_email" db:"contact_email"`
	ContactPhone    string              `json:"contact_phone" db:"contact_phone"`
	Country         string              `json:"country" db:"country"`
	State           string              `json:"state" db:"state"`
	City            string              `json:"city" db:"city"`
	Visibility      Visibility          `json:"visibility" db:"visibility"`
	Shares          int                 `json:"shares" db:"shares"`
	Views           int                 `json:"views" db:"views"`
	Rating          float64             `json:"rating" db:"rating"`
	ReviewCount     int                 `json:"review_count" db:"review_count"`
	CreatedAt       time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at" db:"updated_at"`
}

// Savings is OriginalPrice - Price, floored at zero
func (p *Product) Savings() decimal.Decimal {
	if !p.OriginalPrice.Valid {
		return decimal.Zero
	}
	diff := p.OriginalPrice.Decimal.Sub(p.Price)
	if diff.IsNegative() {
		return decimal.Zero
	}
	return diff
}

// ProductDetail is a product together with its seller's profile
type ProductDetail struct {
	Product
	Owner *Profile `json:"owner"`
}

// ProductInput carries the seller-submitted fields of a new listing.
// Price stays a string until validation parses it.
type ProductInput struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Price           string   `json:"price"`
	OriginalPrice   string   `json:"original_price,omitempty"`
	Category        string   `json:"category"`
	Condition       string   `json:"condition"`
	Brand           string   `json:"brand"`
	ReturnPolicy    string   `json:"return_policy"`
	Tags            []string `json:"tags"`
	ThumbnailURL    string   `json:"thumbnail_url"`
	ReferenceImages []string `json:"reference_images"`
	ContactEmail    string   `json:"contact_email"`
	ContactPhone    string   `json:"contact_phone"`
	Country         string   `json:"country"`
	State           string   `json:"state"`
	City            string   `json:"city"`
	Visibility      string   `json:"visibility"`
}

// ProductPatch is a partial update; nil fields are left untouched
type ProductPatch struct {
	Name            *string   `json:"name,omitempty"`
	Description     *string   `json:"description,omitempty"`
	Price           *string   `json:"price,omitempty"`
	OriginalPrice   *string   `json:"original_price,omitempty"`
	Category        *string   `json:"category,omitempty"`
	Condition       *string   `json:"condition,omitempty"`
	Brand           *string   `json:"brand,omitempty"`
	ReturnPolicy    *string   `json:"return_policy,omitempty"`
	Tags            *[]string `json:"tags,omitempty"`
	ThumbnailURL    *string   `json:"thumbnail_url,omitempty"`
	ReferenceImages *[]string `json:"reference_images,omitempty"`
	ContactEmail    *string   `json:"contact_email,omitempty"`
	ContactPhone    *string   `json:"contact_phone,omitempty"`
	Country         *string   `json:"country,omitempty"`
	State           *string   `json:"state,omitempty"`
	City            *string   `json:"city,omitempty"`
	Visibility      *string   `json:"visibility,omitempty"`
}

// Empty reports whether the patch sets no field
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.OriginalPrice == nil &&
		p.Category == nil && p.Condition == nil && p.Brand == nil && p.ReturnPolicy == nil &&
		p.Tags == nil && p.ThumbnailURL == nil && p.ReferenceImages == nil &&
		p.ContactEmail == nil && p.ContactPhone == nil && p.Country == nil &&
		p.State == nil && p.City == nil && p.Visibility == nil
}

// PublicFilter narrows the public catalog. Zero values mean "no constraint".
type PublicFilter struct {
	Query     string
	Category  string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	Condition string
	Brand     string
}

// ProductChanges is a validated ProductPatch ready to be written
type ProductChanges struct {
	Name            *string
	Description     *string
	Price           *decimal.Decimal
	OriginalPrice   *decimal.NullDecimal
	Category        *string
	Condition       *string
	Brand           *string
	ReturnPolicy    *string
	Tags            *[]string
	ThumbnailURL    *string
	ReferenceImages *[]string
	ContactEmail    *string
	ContactPhone    *string
	Country         *string
	State           *string
	City            *string
	Visibility      *Visibility
}

// Apply copies the set fields onto p
func (c ProductChanges) Apply(p *Product) {
	if c.Name != nil {
		p.Name = *c.Name
	}
	if c.Description != nil {
		p.Description = *c.Description
	}
	if c.Price != nil {
		p.Price = *c.Price
	}
	if c.OriginalPrice != nil {
		p.OriginalPrice = *c.OriginalPrice
	}
	if c.Category != nil {
		p.Category = *c.Category
	}
	if c.Condition != nil {
		p.Condition = *c.Condition
	}
	if c.Brand != nil {
		p.Brand = *c.Brand
	}
	if c.ReturnPolicy != nil {
		p.ReturnPolicy = *c.ReturnPolicy
	}
	if c.Tags != nil {
		p.Tags = pq.StringArray(*c.Tags)
	}
	if c.ThumbnailURL != nil {
		p.ThumbnailURL = *c.ThumbnailURL
	}
	if c.ReferenceImages != nil {
		p.ReferenceImages = pq.StringArray(*c.ReferenceImages)
	}
	if c.ContactEmail != nil {
		p.ContactEmail = *c.ContactEmail
	}
	if c.ContactPhone != nil {
		p.ContactPhone = *c.ContactPhone
	}
	if c.Country != nil {
		p.Country = *c.Country
	}
	if c.State != nil {
		p.State = *c.State
	}
	if c.City != nil {
		p.City = *c.City
	}
	if c.Visibility != nil {
		p.Visibility = *c.Visibility
	}
}
