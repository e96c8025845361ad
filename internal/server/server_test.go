package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/service"
)

type okPinger struct{}

func (okPinger) Ping(ctx context.Context) error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{Port: 0},
		Auth:   config.AuthConfig{APIKey: "secret"},
	}
	m := metrics.New()
	store := repository.NewMemoryStore()
	h := handlers.NewHandlers(
		service.NewProductService(store, nil),
		service.NewOrderService(store, nil, nil, m),
		okPinger{},
	)
	return NewServer(cfg, h, m)
}

func serve(srv *Server, method, path, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(middleware.HeaderAPIKey, key)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestServer_ProbesSkipAuth(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health", "/ready", "/live", "/metrics"} {
		w := serve(srv, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestServer_APIRoutesRequireKey(t *testing.T) {
	srv := newTestServer(t)

	w := serve(srv, http.MethodGet, "/products", "", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(srv, http.MethodGet, "/orders", "wrong", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(srv, http.MethodGet, "/products", "secret", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_RequestIDEchoed(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.HeaderRequestID, "req-123")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(middleware.HeaderRequestID))
}

func TestServer_MetricsReflectPlacedOrders(t *testing.T) {
	srv := newTestServer(t)

	w := serve(srv, http.MethodPost, "/products", "secret", `{"name":"Widget","price":"2.50","stock":5}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(srv, http.MethodPost, "/orders", "secret", `{"items":[{"product_id":1,"amount":2}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(srv, http.MethodPost, "/orders", "secret", `{"items":[{"product_id":1,"amount":9}]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(srv, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "warehouse_orders_placed_total 1")
	assert.Contains(t, text, "warehouse_stock_units_reserved_total 2")
	assert.Contains(t, text, `warehouse_order_placement_failures_total{reason="insufficient_stock"} 1`)
	assert.Contains(t, text, `route="/orders"`)
}
