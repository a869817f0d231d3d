package transport

import (
	"net/http"
	"net/url"
	"testing"

	"marketplace/internal/domain"

	"github.com/google/uuid"
)

func (a *testAPI) addFavourite(buyer, productID uuid.UUID) *domain.FavouriteEntry {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/favourites", AddFavouriteRequest{ProductID: productID.String()}, buyer)
	if w.Code != http.StatusCreated {
		a.t.Fatalf("add favourite: status = %d, body = %s", w.Code, w.Body.String())
	}
	var entry domain.FavouriteEntry
	decode(a.t, w, &entry)
	return &entry
}

func (a *testAPI) listFavourites(buyer uuid.UUID, query url.Values) FavouriteListResponse {
	a.t.Helper()
	w := a.do(http.MethodGet, "/api/favourites?"+query.Encode(), nil, buyer)
	if w.Code != http.StatusOK {
		a.t.Fatalf("list favourites: status = %d, body = %s", w.Code, w.Body.String())
	}
	var list FavouriteListResponse
	decode(a.t, w, &list)
	return list
}

func TestAddFavourite(t *testing.T) {
	api := newTestAPI(t)
	product := api.createProduct(validProduct())
	buyer := uuid.New()

	entry := api.addFavourite(buyer, product.ID)
	if entry.Resolution != domain.Resolved || entry.Product == nil || entry.Seller == nil {
		t.Fatalf("expected a resolved entry, got %+v", entry)
	}
	if entry.Priority != domain.PriorityLow || entry.NotifyPriceDrop {
		t.Errorf("unexpected defaults %+v", entry.Favourite)
	}

	w := api.do(http.MethodPost, "/api/favourites", AddFavouriteRequest{ProductID: product.ID.String()}, buyer)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate add: status = %d, want 409", w.Code)
	}

	w = api.do(http.MethodPost, "/api/favourites", AddFavouriteRequest{ProductID: uuid.NewString()}, buyer)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing product: status = %d, want 404", w.Code)
	}

	w = api.do(http.MethodPost, "/api/favourites", AddFavouriteRequest{ProductID: "camera"}, buyer)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed id: status = %d, want 400", w.Code)
	}
	if _, ok := fieldErrors(t, w)["product_id"]; !ok {
		t.Errorf("expected a product_id error")
	}
}

func TestFavouritesAreScopedToTheCaller(t *testing.T) {
	api := newTestAPI(t)
	product := api.createProduct(validProduct())
	alice, bob := uuid.New(), uuid.New()

	entry := api.addFavourite(alice, product.ID)

	if list := api.listFavourites(bob, url.Values{}); len(list.Favourites) != 0 {
		t.Errorf("bob sees alice's favourites: %+v", list.Favourites)
	}

	w := api.do(http.MethodPatch, "/api/favourites/"+entry.ID.String(), map[string]string{"note": "mine now"}, bob)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign patch: status = %d, want 404", w.Code)
	}
}

func TestUpdateFavouriteMetadata(t *testing.T) {
	api := newTestAPI(t)
	product := api.createProduct(validProduct())
	buyer := uuid.New()
	entry := api.addFavourite(buyer, product.ID)
	path := "/api/favourites/" + entry.ID.String()

	w := api.do(http.MethodPatch, path, map[string]interface{}{"priority": "high", "note": "birthday", "notify_price_drop": true}, buyer)
	if w.Code != http.StatusNoContent {
		t.Fatalf("patch: status = %d, body = %s", w.Code, w.Body.String())
	}

	list := api.listFavourites(buyer, url.Values{})
	got := list.Favourites[0]
	if got.Priority != domain.PriorityHigh || got.Note != "birthday" || !got.NotifyPriceDrop {
		t.Errorf("metadata not applied: %+v", got.Favourite)
	}
	if list.Stats.High != 1 || list.Stats.PriceAlerts != 1 {
		t.Errorf("unexpected stats %+v", list.Stats)
	}

	if w := api.do(http.MethodPatch, path, map[string]string{"priority": "urgent"}, buyer); w.Code != http.StatusBadRequest {
		t.Errorf("unknown priority: status = %d, want 400", w.Code)
	}
}

func TestRemoveFavouriteIsIdempotent(t *testing.T) {
	api := newTestAPI(t)
	product := api.createProduct(validProduct())
	buyer := uuid.New()
	api.addFavourite(buyer, product.ID)

	for i := 0; i < 2; i++ {
		if w := api.do(http.MethodDelete, "/api/favourites/"+product.ID.String(), nil, buyer); w.Code != http.StatusNoContent {
			t.Fatalf("remove %d: status = %d", i, w.Code)
		}
	}
	if list := api.listFavourites(buyer, url.Values{}); len(list.Favourites) != 0 {
		t.Errorf("favourite survived removal: %+v", list.Favourites)
	}
}

func TestDeletedProductLeavesAnOrphan(t *testing.T) {
	api := newTestAPI(t)
	kept := api.createProduct(validProduct())
	gone := api.createProduct(validProduct())
	buyer := uuid.New()
	api.addFavourite(buyer, kept.ID)
	api.addFavourite(buyer, gone.ID)

	if w := api.do(http.MethodDelete, "/api/products/"+gone.ID.String(), nil, api.seller.ID); w.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", w.Code)
	}

	list := api.listFavourites(buyer, url.Values{})
	if len(list.Favourites) != 2 || list.Stats.Orphaned != 1 {
		t.Fatalf("expected two entries with one orphan, got %+v", list.Stats)
	}
	for _, e := range list.Favourites {
		if e.ProductID == gone.ID && (e.Resolution != domain.Orphaned || e.Product != nil) {
			t.Errorf("deleted product should be orphaned: %+v", e)
		}
	}

	// product-derived filters drop orphans
	if list := api.listFavourites(buyer, url.Values{"category": {"Tech"}}); len(list.Favourites) != 1 {
		t.Errorf("category filter kept %d entries, want 1", len(list.Favourites))
	}
}

func TestListFavouritesFilterAndSort(t *testing.T) {
	api := newTestAPI(t)
	buyer := uuid.New()

	prices := []string{"30", "10", "20", "40"}
	priorities := []string{"high", "medium", "high", "low"}
	for i, price := range prices {
		input := validProduct()
		input.Price = price
		entry := api.addFavourite(buyer, api.createProduct(input).ID)
		w := api.do(http.MethodPatch, "/api/favourites/"+entry.ID.String(), map[string]string{"priority": priorities[i]}, buyer)
		if w.Code != http.StatusNoContent {
			t.Fatalf("patch: status = %d", w.Code)
		}
	}

	high := api.listFavourites(buyer, url.Values{"priority": {"high"}})
	if len(high.Favourites) != 2 {
		t.Fatalf("priority filter returned %d entries, want 2", len(high.Favourites))
	}
	for _, e := range high.Favourites {
		if e.Priority != domain.PriorityHigh {
			t.Errorf("unexpected priority %q", e.Priority)
		}
	}
	if high.Stats.Total != 4 {
		t.Errorf("stats should cover the whole wishlist, got %+v", high.Stats)
	}

	sorted := api.listFavourites(buyer, url.Values{"sort": {"Price: Low"}})
	var got []string
	for _, e := range sorted.Favourites {
		got = append(got, e.Product.Price.String())
	}
	want := []string{"10", "20", "30", "40"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("price order = %v, want %v", got, want)
		}
	}
	if !sorted.Stats.TotalValue.Equal(mustDecimal(t, "100")) {
		t.Errorf("total value = %s, want 100", sorted.Stats.TotalValue)
	}

	tests := []struct {
		name  string
		query url.Values
	}{
		{"unknown sort", url.Values{"sort": {"Cheapest"}}},
		{"bad notify flag", url.Values{"notify": {"sometimes"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := api.do(http.MethodGet, "/api/favourites?"+tt.query.Encode(), nil, buyer); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}
