package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/domain"
	"marketplace/internal/middleware"
	"marketplace/internal/repository/memstore"
	"marketplace/internal/service"
	"marketplace/internal/storage"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type fakeObjects struct {
	puts    []string
	deletes []string
}

func (f *fakeObjects) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	io.Copy(io.Discard, params.Body)
	f.puts = append(f.puts, *params.Key)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type testAPI struct {
	t       *testing.T
	router  http.Handler
	store   *memstore.Store
	objects *fakeObjects
	seller  *domain.Profile
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memstore.New()
	seller := &domain.Profile{ID: uuid.New(), Username: "seller-" + uuid.NewString()[:8], FullName: "Ada Seller", CreatedAt: time.Now()}
	if err := store.Profiles().Create(context.Background(), seller); err != nil {
		t.Fatalf("failed to seed seller: %v", err)
	}
	store.Calls = 0

	logger := zap.NewNop()
	products := service.NewProductService(store.Products(), logger)
	favourites := service.NewFavouriteService(store.Favourites(), store.Products(), store.Profiles(), store.Reviews())
	reviews := service.NewReviewService(store.Reviews(), store.Products())

	objects := &fakeObjects{}
	images := storage.NewImageStore(objects, config.StorageConfig{Bucket: "listings", PublicURL: "https://cdn.test"}, logger)

	auth := middleware.AuthMiddleware(testSecret, logger)
	router := chi.NewRouter()
	NewProductHandler(products, logger).RegisterRoutes(router, auth)
	NewDashboardHandler(products, logger).RegisterRoutes(router, auth)
	NewFavouriteHandler(favourites, logger).RegisterRoutes(router, auth)
	NewReviewHandler(reviews, logger).RegisterRoutes(router, auth)
	NewUploadHandler(images, logger).RegisterRoutes(router, auth)

	return &testAPI{t: t, router: router, store: store, objects: objects, seller: seller}
}

func bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return "Bearer " + token
}

// do sends body as JSON. A nil user sends no token.
func (a *testAPI) do(method, path string, body interface{}, user uuid.UUID) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		req.Header.Set("Authorization", bearer(a.t, user))
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Could not decode response %q: %v", w.Body.String(), err)
	}
}

func validProduct() domain.ProductInput {
	return domain.ProductInput{
		Name:         "Vintage Camera",
		Description:  "35mm rangefinder in working order",
		Price:        "450",
		Category:     "Tech",
		ThumbnailURL: "https://cdn.example.com/camera.jpg",
		Country:      "Germany",
		State:        "Berlin",
	}
}

// createProduct publishes input as the seeded seller
func (a *testAPI) createProduct(input domain.ProductInput) *domain.Product {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/products", input, a.seller.ID)
	if w.Code != http.StatusCreated {
		a.t.Fatalf("create product: status = %d, body = %s", w.Code, w.Body.String())
	}
	var product domain.Product
	decode(a.t, w, &product)
	return &product
}

func fieldErrors(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var response struct {
		Error struct {
			Details struct {
				ValidationErrors []middleware.ValidationError `json:"validation_errors"`
			} `json:"details"`
		} `json:"error"`
	}
	decode(t, w, &response)
	out := make(map[string]string)
	for _, f := range response.Error.Details.ValidationErrors {
		out[f.Field] = f.Message
	}
	return out
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}
