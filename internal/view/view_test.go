package view

import (
	"math"
	"testing"
	"time"

	"marketplace/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func entry(price int64, priority domain.Priority, savedAgo time.Duration) *domain.FavouriteEntry {
	product := &domain.Product{
		ID:       uuid.New(),
		Name:     "Item",
		Price:    decimal.NewFromInt(price),
		Category: "Tech",
	}
	return &domain.FavouriteEntry{
		Favourite: domain.Favourite{
			ID:        uuid.New(),
			ProductID: product.ID,
			Priority:  priority,
			CreatedAt: base.Add(-savedAgo),
		},
		Resolution: domain.Resolved,
		Product:    product,
	}
}

func orphan(priority domain.Priority) *domain.FavouriteEntry {
	return &domain.FavouriteEntry{
		Favourite:  domain.Favourite{ID: uuid.New(), ProductID: uuid.New(), Priority: priority, CreatedAt: base},
		Resolution: domain.Orphaned,
	}
}

func ids(entries []*domain.FavouriteEntry) []uuid.UUID {
	out := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

// Feature: marketplace, Property 5: Price Low and Price High are mirror orders
func TestProperty_PriceSortsAreReversed(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("distinct prices sort low-to-high exactly opposite high-to-low", prop.ForAll(
		func(prices []int64) bool {
			seen := map[int64]bool{}
			entries := []*domain.FavouriteEntry{}
			for i, p := range prices {
				if seen[p] {
					continue
				}
				seen[p] = true
				entries = append(entries, entry(p, domain.PriorityLow, time.Duration(i)*time.Minute))
			}

			low := ids(SortFavourites(entries, SortPriceLow))
			high := ids(SortFavourites(entries, SortPriceHigh))
			for i := range low {
				if low[i] != high[len(high)-1-i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Int64Range(0, 10_000)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_SortIsStable(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("entries with equal keys keep their input order", prop.ForAll(
		func(ranks []int) bool {
			priorities := []domain.Priority{domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow}
			entries := make([]*domain.FavouriteEntry, len(ranks))
			for i, r := range ranks {
				// one save timestamp for all: ties on Date Saved too
				entries[i] = entry(100, priorities[r], 0)
			}

			for _, mode := range []SortMode{SortDateSaved, SortPriceLow, SortPriority} {
				sorted := SortFavourites(entries, mode)
				position := map[uuid.UUID]int{}
				for i, e := range entries {
					position[e.ID] = i
				}
				for i := 1; i < len(sorted); i++ {
					a, b := sorted[i-1], sorted[i]
					if mode == SortPriority && a.Priority != b.Priority {
						continue
					}
					if position[a.ID] > position[b.ID] {
						t.Logf("FAIL: %s reordered equal keys", mode)
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 2)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: marketplace, Property 6: Average of no reviews is zero
func TestAverageRating(t *testing.T) {
	if got := AverageRating(nil); got != 0 || math.IsNaN(got) {
		t.Errorf("AverageRating(nil) = %v, want 0", got)
	}
	if got := AverageRating([]*domain.Review{}); got != 0 {
		t.Errorf("AverageRating(empty) = %v, want 0", got)
	}

	reviews := []*domain.Review{{Rating: 5}, {Rating: 4}, {Rating: 3}}
	if got := AverageRating(reviews); got != 4 {
		t.Errorf("AverageRating = %v, want 4", got)
	}
}

// Feature: marketplace, Property 10: Priority filter keeps only that tier
func TestFilterFavouritesByPriority(t *testing.T) {
	entries := []*domain.FavouriteEntry{
		entry(10, domain.PriorityHigh, 0),
		entry(20, domain.PriorityMedium, 0),
		entry(30, domain.PriorityHigh, 0),
		entry(40, domain.PriorityLow, 0),
	}

	got := FilterFavourites(entries, FavouriteFilter{Priority: "high"})

	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	for _, e := range got {
		if e.Priority != domain.PriorityHigh {
			t.Errorf("unexpected priority %q", e.Priority)
		}
	}
	if all := FilterFavourites(entries, FavouriteFilter{Priority: AllPriorities}); len(all) != 4 {
		t.Errorf("\"all\" should keep every entry, got %d", len(all))
	}
}

func TestFilterFavouritesSearchAndFlags(t *testing.T) {
	camera := entry(100, domain.PriorityLow, 0)
	camera.Product.Brand = "Leica"
	camera.NotifyPriceDrop = true
	lamp := entry(50, domain.PriorityLow, 0)
	lamp.Product.Name = "Desk Lamp"
	lamp.Product.Category = "Home"
	gone := orphan(domain.PriorityLow)
	entries := []*domain.FavouriteEntry{camera, lamp, gone}

	if got := FilterFavourites(entries, FavouriteFilter{Search: "LEICA"}); len(got) != 1 || got[0] != camera {
		t.Errorf("brand search should match the camera only, got %d", len(got))
	}
	if got := FilterFavourites(entries, FavouriteFilter{Category: "Home"}); len(got) != 1 || got[0] != lamp {
		t.Errorf("category filter should match the lamp only, got %d", len(got))
	}
	if got := FilterFavourites(entries, FavouriteFilter{NotifyOnly: true}); len(got) != 1 || got[0] != camera {
		t.Errorf("notify filter should match the camera only, got %d", len(got))
	}
	if got := FilterFavourites(entries, FavouriteFilter{Category: AllCategories}); len(got) != 3 {
		t.Errorf("no product predicate should keep orphans, got %d", len(got))
	}
}

func TestFilterDashboard(t *testing.T) {
	products := []*domain.Product{
		{Name: "Road Bike", Category: "Sports", Visibility: domain.VisibilityPublic, Tags: pq.StringArray{"cycling"}},
		{Name: "Sofa", Description: "Three seater", Category: "Home", Visibility: domain.VisibilityPrivate},
		{Name: "Tent", Category: "Sports", Visibility: domain.VisibilityPrivate, Brand: "Cycling Co"},
	}

	tests := []struct {
		name   string
		filter DashboardFilter
		want   []string
	}{
		{"no filter keeps fetch order", DashboardFilter{Category: AllCategories, Visibility: AllVisibility}, []string{"Road Bike", "Sofa", "Tent"}},
		{"search matches tags", DashboardFilter{Search: "CYCL"}, []string{"Road Bike"}},
		{"search matches description", DashboardFilter{Search: "seater"}, []string{"Sofa"}},
		{"search matches category", DashboardFilter{Search: "sports"}, []string{"Road Bike", "Tent"}},
		{"predicates are conjunctive", DashboardFilter{Category: "Sports", Visibility: "private"}, []string{"Tent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterDashboard(products, tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d products, want %d", len(got), len(tt.want))
			}
			for i, p := range got {
				if p.Name != tt.want[i] {
					t.Errorf("position %d = %q, want %q", i, p.Name, tt.want[i])
				}
			}
		})
	}
}

func TestSortFavouritesModes(t *testing.T) {
	older := entry(300, domain.PriorityLow, time.Hour)
	older.Product.Views, older.Product.Rating = 50, 3.5
	newer := entry(100, domain.PriorityHigh, 0)
	newer.Product.Views, newer.Product.Rating = 5, 4.8
	middle := entry(200, domain.PriorityMedium, 30*time.Minute)
	gone := orphan(domain.PriorityHigh)
	entries := []*domain.FavouriteEntry{older, gone, newer, middle}

	tests := []struct {
		mode SortMode
		want []*domain.FavouriteEntry
	}{
		{SortDateSaved, []*domain.FavouriteEntry{gone, newer, middle, older}},
		{SortPriceLow, []*domain.FavouriteEntry{newer, middle, older, gone}},
		{SortPriceHigh, []*domain.FavouriteEntry{older, middle, newer, gone}},
		{SortRating, []*domain.FavouriteEntry{newer, older, middle, gone}},
		{SortMostViewed, []*domain.FavouriteEntry{older, newer, middle, gone}},
		{SortPriority, []*domain.FavouriteEntry{gone, newer, middle, older}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got := SortFavourites(entries, tt.mode)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("position %d = %s, want %s", i, got[i].ID, tt.want[i].ID)
				}
			}
		})
	}

	if entries[0] != older || entries[1] != gone {
		t.Error("SortFavourites must not reorder its input")
	}
}

func TestParseSortMode(t *testing.T) {
	if m, ok := ParseSortMode(""); !ok || m != SortDateSaved {
		t.Errorf("empty mode = %q, %v", m, ok)
	}
	if m, ok := ParseSortMode("price: high"); !ok || m != SortPriceHigh {
		t.Errorf("case-insensitive match failed: %q, %v", m, ok)
	}
	if _, ok := ParseSortMode("cheapest"); ok {
		t.Error("unknown mode should not parse")
	}
}

func TestComputeStats(t *testing.T) {
	products := []*domain.Product{
		{Visibility: domain.VisibilityPublic, Shares: 3, Views: 10},
		{Visibility: domain.VisibilityPrivate, Shares: 1, Views: 2},
		{Visibility: domain.VisibilityPublic},
	}
	dash := ComputeDashboardStats(products)
	if dash != (DashboardStats{Total: 3, Public: 2, Private: 1, TotalShares: 4, TotalViews: 12}) {
		t.Errorf("unexpected dashboard stats %+v", dash)
	}

	discounted := entry(80, domain.PriorityHigh, 0)
	discounted.Product.OriginalPrice = decimal.NewNullDecimal(decimal.NewFromInt(100))
	discounted.NotifyPriceDrop = true
	// original below price must not produce negative savings
	markedUp := entry(120, domain.PriorityMedium, 0)
	markedUp.Product.OriginalPrice = decimal.NewNullDecimal(decimal.NewFromInt(90))
	plain := entry(15, domain.PriorityLow, 0)

	fav := ComputeFavouriteStats([]*domain.FavouriteEntry{discounted, markedUp, plain, orphan(domain.PriorityLow)})
	if fav.Total != 4 || fav.High != 1 || fav.Medium != 1 || fav.Low != 2 || fav.PriceAlerts != 1 || fav.Orphaned != 1 {
		t.Errorf("unexpected counts %+v", fav)
	}
	if !fav.TotalValue.Equal(decimal.NewFromInt(215)) {
		t.Errorf("total value = %s, want 215", fav.TotalValue)
	}
	if !fav.TotalSavings.Equal(decimal.NewFromInt(20)) {
		t.Errorf("total savings = %s, want 20", fav.TotalSavings)
	}

	empty := ComputeFavouriteStats(nil)
	if empty.Total != 0 || !empty.TotalValue.IsZero() || !empty.TotalSavings.IsZero() {
		t.Errorf("empty stats = %+v", empty)
	}
}
