// Package view derives filtered, sorted and aggregated projections over
// product and favourite collections that are already in memory. Every
// function is pure and leaves its input slice untouched.
package view

import (
	"sort"
	"strings"

	"marketplace/internal/domain"

	"github.com/shopspring/decimal"
)

// Sentinel filter values meaning "no constraint"
const (
	AllCategories = "All"
	AllVisibility = "all"
	AllPriorities = "all"
)

// DashboardFilter narrows a seller's listings
type DashboardFilter struct {
	Search     string
	Category   string
	Visibility string
}

// FilterDashboard keeps products matching every predicate, preserving fetch order
func FilterDashboard(products []*domain.Product, f DashboardFilter) []*domain.Product {
	query := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]*domain.Product, 0, len(products))
	for _, p := range products {
		if !matchesProduct(p, query, false) {
			continue
		}
		if !anyOr(f.Category, AllCategories) && p.Category != f.Category {
			continue
		}
		if !anyOr(f.Visibility, AllVisibility) && string(p.Visibility) != f.Visibility {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FavouriteFilter narrows a buyer's wishlist
type FavouriteFilter struct {
	Search     string
	Category   string
	Priority   string
	NotifyOnly bool
}

// FilterFavourites keeps entries matching every predicate. Orphaned entries
// survive only when no product-derived predicate is active.
func FilterFavourites(entries []*domain.FavouriteEntry, f FavouriteFilter) []*domain.FavouriteEntry {
	query := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]*domain.FavouriteEntry, 0, len(entries))
	for _, e := range entries {
		if query != "" && (e.Orphaned() || !matchesProduct(e.Product, query, true)) {
			continue
		}
		if !anyOr(f.Category, AllCategories) && (e.Orphaned() || e.Product.Category != f.Category) {
			continue
		}
		if !anyOr(f.Priority, AllPriorities) && string(e.Priority) != f.Priority {
			continue
		}
		if f.NotifyOnly && !e.NotifyPriceDrop {
			continue
		}
		out = append(out, e)
	}
	return out
}

func anyOr(value, all string) bool {
	return value == "" || value == all
}

// matchesProduct reports whether query occurs in name, description, category,
// any tag, and optionally brand. query must already be lower-cased.
func matchesProduct(p *domain.Product, query string, withBrand bool) bool {
	if query == "" {
		return true
	}
	fields := []string{p.Name, p.Description, p.Category}
	if withBrand {
		fields = append(fields, p.Brand)
	}
	fields = append(fields, p.Tags...)
	for _, v := range fields {
		if strings.Contains(strings.ToLower(v), query) {
			return true
		}
	}
	return false
}

// SortMode selects a favourites ordering
type SortMode string

const (
	SortDateSaved  SortMode = "Date Saved"
	SortPriceLow   SortMode = "Price: Low"
	SortPriceHigh  SortMode = "Price: High"
	SortRating     SortMode = "Rating"
	SortMostViewed SortMode = "Most Viewed"
	SortPriority   SortMode = "Priority"
)

// SortModes lists every supported mode
var SortModes = []SortMode{SortDateSaved, SortPriceLow, SortPriceHigh, SortRating, SortMostViewed, SortPriority}

// ParseSortMode maps a user-supplied mode to a SortMode; unknown and empty
// values fall back to SortDateSaved
func ParseSortMode(s string) (SortMode, bool) {
	if s == "" {
		return SortDateSaved, true
	}
	for _, m := range SortModes {
		if strings.EqualFold(string(m), s) {
			return m, true
		}
	}
	return SortDateSaved, false
}

// SortFavourites returns a sorted copy of entries. The sort is stable, and
// for product-derived keys orphaned entries go last.
func SortFavourites(entries []*domain.FavouriteEntry, mode SortMode) []*domain.FavouriteEntry {
	out := make([]*domain.FavouriteEntry, len(entries))
	copy(out, entries)

	var less func(a, b *domain.FavouriteEntry) bool
	switch mode {
	case SortPriceLow:
		less = byProduct(func(a, b *domain.Product) bool { return a.Price.LessThan(b.Price) })
	case SortPriceHigh:
		less = byProduct(func(a, b *domain.Product) bool { return a.Price.GreaterThan(b.Price) })
	case SortRating:
		less = byProduct(func(a, b *domain.Product) bool { return a.Rating > b.Rating })
	case SortMostViewed:
		less = byProduct(func(a, b *domain.Product) bool { return a.Views > b.Views })
	case SortPriority:
		less = func(a, b *domain.FavouriteEntry) bool { return a.Priority.Rank() < b.Priority.Rank() }
	default:
		less = func(a, b *domain.FavouriteEntry) bool { return a.CreatedAt.After(b.CreatedAt) }
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byProduct(less func(a, b *domain.Product) bool) func(a, b *domain.FavouriteEntry) bool {
	return func(a, b *domain.FavouriteEntry) bool {
		switch {
		case a.Orphaned():
			return false
		case b.Orphaned():
			return true
		default:
			return less(a.Product, b.Product)
		}
	}
}

// DashboardStats summarises a seller's listings
type DashboardStats struct {
	Total       int `json:"total"`
	Public      int `json:"public"`
	Private     int `json:"private"`
	TotalShares int `json:"total_shares"`
	TotalViews  int `json:"total_views"`
}

// ComputeDashboardStats aggregates counts and counters over products
func ComputeDashboardStats(products []*domain.Product) DashboardStats {
	stats := DashboardStats{Total: len(products)}
	for _, p := range products {
		switch p.Visibility {
		case domain.VisibilityPublic:
			stats.Public++
		case domain.VisibilityPrivate:
			stats.Private++
		}
		stats.TotalShares += p.Shares
		stats.TotalViews += p.Views
	}
	return stats
}

// FavouriteStats summarises a buyer's wishlist
type FavouriteStats struct {
	Total        int             `json:"total"`
	High         int             `json:"high"`
	Medium       int             `json:"medium"`
	Low          int             `json:"low"`
	PriceAlerts  int             `json:"price_alerts"`
	Orphaned     int             `json:"orphaned"`
	TotalValue   decimal.Decimal `json:"total_value"`
	TotalSavings decimal.Decimal `json:"total_savings"`
}

// ComputeFavouriteStats aggregates priority tiers, alerts, value and savings.
// Orphaned entries count toward Total but add no value.
func ComputeFavouriteStats(entries []*domain.FavouriteEntry) FavouriteStats {
	stats := FavouriteStats{
		Total:        len(entries),
		TotalValue:   decimal.Zero,
		TotalSavings: decimal.Zero,
	}
	for _, e := range entries {
		switch e.Priority {
		case domain.PriorityHigh:
			stats.High++
		case domain.PriorityMedium:
			stats.Medium++
		case domain.PriorityLow:
			stats.Low++
		}
		if e.NotifyPriceDrop {
			stats.PriceAlerts++
		}
		if e.Orphaned() {
			stats.Orphaned++
			continue
		}
		stats.TotalValue = stats.TotalValue.Add(e.Product.Price)
		stats.TotalSavings = stats.TotalSavings.Add(e.Product.Savings())
	}
	return stats
}

// AverageRating is the mean review rating, or 0 when there are no reviews
func AverageRating(reviews []*domain.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}
