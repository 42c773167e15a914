package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type stubStore struct {
	values map[string]string
}

func newStubStore() *stubStore {
	return &stubStore{values: map[string]string{}}
}

func (s *stubStore) Get(ctx context.Context, key string) (string, error) {
	return s.values[key], nil
}

func (s *stubStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	switch v := value.(type) {
	case string:
		s.values[key] = v
	case []byte:
		s.values[key] = string(v)
	}
	return true, nil
}

func (s *stubStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (s *stubStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func (s *stubStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return 1, nil
}

func (s *stubStore) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	return true, 1, nil
}

func (s *stubStore) Ping(ctx context.Context) error {
	return nil
}

type stubSessions struct{}

func (stubSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubProducts struct {
	lastList product.ListProductsInput
}

func (s *stubProducts) CreateProduct(ctx context.Context, input product.ProductInput) (*product.ProductDTO, error) {
	return &product.ProductDTO{ID: uuid.New(), Title: input.Title}, nil
}

func (s *stubProducts) UpdateProduct(ctx context.Context, productID uuid.UUID, input product.ProductInput) (*product.ProductDTO, error) {
	return &product.ProductDTO{ID: productID, Title: input.Title}, nil
}

func (s *stubProducts) GetProduct(ctx context.Context, idOrSlug string) (*product.ProductDTO, error) {
	return &product.ProductDTO{ID: uuid.New(), Slug: idOrSlug, IsActive: true}, nil
}

func (s *stubProducts) ListProducts(ctx context.Context, input product.ListProductsInput) (*product.ProductListResult, error) {
	s.lastList = input
	return &product.ProductListResult{}, nil
}

func (s *stubProducts) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	return nil
}

type testRouter struct {
	handler  http.Handler
	cfg      *config.Config
	products *stubProducts
}

func newTestRouter(t *testing.T) *testRouter {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: "*"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 10},
		AuthRateLimit: config.AuthRateLimitConfig{
			APILimit:  100,
			APIWindow: time.Minute,
		},
	}
	reg := prometheus.NewRegistry()
	products := &stubProducts{}
	handler := NewRouter(Dependencies{
		Config:          cfg,
		Redis:           newStubStore(),
		Sessions:        stubSessions{},
		Products:        products,
		Gatherer:        reg,
		HTTPMetrics:     metrics.NewHTTPMetrics(reg),
		CheckoutMetrics: metrics.NewCheckoutMetrics(reg),
	})
	return &testRouter{handler: handler, cfg: cfg, products: products}
}

func (tr *testRouter) token(t *testing.T, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(tr.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: uuid.New(), Role: role})
	require.NoError(t, err)
	return token
}

func (tr *testRouter) do(method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp := httptest.NewRecorder()
	tr.handler.ServeHTTP(resp, req)
	return resp
}

func TestHealthLive(t *testing.T) {
	tr := newTestRouter(t)
	resp := tr.do(http.MethodGet, "/health/live", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NotEmpty(t, resp.Header().Get("X-Request-Id"))
}

func TestHealthReadyPingsRedis(t *testing.T) {
	tr := newTestRouter(t)
	resp := tr.do(http.MethodGet, "/health/ready", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestCatalogIsPublic(t *testing.T) {
	tr := newTestRouter(t)

	resp := tr.do(http.MethodGet, "/api/v1/products?category=men", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.True(t, tr.products.lastList.Filters.ActiveOnly)
	require.Equal(t, "men", tr.products.lastList.Filters.Category)

	resp = tr.do(http.MethodGet, "/api/v1/products/basic-tee", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestCartRequiresToken(t *testing.T) {
	tr := newTestRouter(t)
	resp := tr.do(http.MethodGet, "/api/v1/cart", "", "")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAdminRoutesRequireStaff(t *testing.T) {
	tr := newTestRouter(t)

	resp := tr.do(http.MethodGet, "/api/v1/admin/products", tr.token(t, enums.UserRoleUser), "")
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = tr.do(http.MethodGet, "/api/v1/admin/products?include_inactive=true", tr.token(t, enums.UserRoleAdmin), "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.False(t, tr.products.lastList.Filters.ActiveOnly)
}

func TestPromoteIsOwnerOnly(t *testing.T) {
	tr := newTestRouter(t)
	path := "/api/v1/admin/users/" + uuid.NewString() + "/promote"

	resp := tr.do(http.MethodPost, path, tr.token(t, enums.UserRoleAdmin), "", "Idempotency-Key", uuid.NewString())
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestPlaceOrderRequiresIdempotencyKey(t *testing.T) {
	tr := newTestRouter(t)
	body := `{"address_id":"` + uuid.NewString() + `","payment_method":"cod"}`

	resp := tr.do(http.MethodPost, "/api/v1/orders", tr.token(t, enums.UserRoleUser), body)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "Idempotency-Key")
}

func TestMetricsEndpointExposesRequests(t *testing.T) {
	tr := newTestRouter(t)
	tr.do(http.MethodGet, "/health/live", "", "")

	resp := tr.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "http_requests_total")
}
