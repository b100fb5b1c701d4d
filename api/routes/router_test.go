package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/rattanstore-backend/internal/cart"
	"github.com/angelmondragon/rattanstore-backend/internal/catalog"
	"github.com/angelmondragon/rattanstore-backend/internal/checkout"
	"github.com/angelmondragon/rattanstore-backend/internal/delivery"
	"github.com/angelmondragon/rattanstore-backend/internal/notifications"
	"github.com/angelmondragon/rattanstore-backend/internal/orders"
	"github.com/angelmondragon/rattanstore-backend/internal/pricing"
	"github.com/angelmondragon/rattanstore-backend/internal/wizard"
	"github.com/angelmondragon/rattanstore-backend/pkg/config"
	"github.com/angelmondragon/rattanstore-backend/pkg/logger"
	"github.com/angelmondragon/rattanstore-backend/pkg/metrics"
)

const (
	adminToken = "operator-secret"
	sessionID  = "0f8fad5b-d9cb-469f-a165-70867728950e"
)

type memoryRedis struct {
	mu   sync.Mutex
	data map[string]string
	incr map[string]int64
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: map[string]string{}, incr: map[string]int64{}}
}

func (m *memoryRedis) Ping(context.Context) error { return nil }

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryRedis) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryRedis) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryRedis) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incr[key]++
	return m.incr[key], nil
}

func (m *memoryRedis) CartKey(id string) string             { return "rs:cart:" + id }
func (m *memoryRedis) IdempotencyKey(scope, id string) string { return "rs:idempotency:" + scope + ":" + id }
func (m *memoryRedis) RateLimitKey(scope string) string       { return "rs:rate_limit:" + scope }

type stubChannel struct {
	mu     sync.Mutex
	result delivery.Result
	sent   int
}

func (s *stubChannel) Send(context.Context, *orders.Order) delivery.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent++
	return s.result
}

func (s *stubChannel) SendTest(context.Context, string) delivery.Result {
	return delivery.Delivered("test")
}

func (s *stubChannel) Discover(context.Context) ([]delivery.DiscoveredChat, error) {
	return []delivery.DiscoveredChat{{ID: "-100200", Title: "Orders", Type: delivery.ChatTypeGroup}}, nil
}

type harness struct {
	handler http.Handler
	channel *stubChannel
	inbox   *notifications.Inbox
}

func newHarness(t *testing.T, result delivery.Result) *harness {
	t.Helper()
	logg := logger.Nop()
	reg := prometheus.NewRegistry()
	orderMetrics := metrics.NewOrderMetrics(reg)
	kv := newMemoryRedis()

	products, err := catalog.Load("")
	require.NoError(t, err)
	engine := pricing.NewEngine(pricing.DefaultSchedule())

	carts, err := cart.NewService(cart.NewRedisRepository(kv, time.Hour), products, engine)
	require.NoError(t, err)

	inbox := notifications.NewInbox(0)
	notices, err := notifications.NewService(inbox)
	require.NoError(t, err)

	store, err := orders.NewStore(orders.StoreParams{
		Primary: orders.NewMemoryRepository(),
		Sink:    inbox,
		Metrics: orderMetrics,
		Logger:  logg,
	})
	require.NoError(t, err)

	channel := &stubChannel{result: result}
	mgr, err := wizard.NewManager(wizard.ManagerParams{
		Discoverer: channel,
		TestSender: channel,
		TTL:        time.Hour,
		Metrics:    orderMetrics,
		Logger:     logg,
	})
	require.NoError(t, err)

	submit, err := checkout.NewService(checkout.ServiceParams{
		Builder: orders.NewBuilder(engine),
		Channel: channel,
		Store:   store,
		Wizard:  mgr,
		Carts:   carts,
		Sink:    inbox,
		Metrics: orderMetrics,
		Logger:  logg,
	})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.Admin.Token = adminToken
	cfg.Checkout.IdempotencyTTL = time.Hour
	cfg.Checkout.RateLimitWindow = time.Minute
	cfg.Checkout.RateLimitIPLimit = 100
	cfg.Checkout.RateLimitPhoneMax = 100

	handler := NewRouter(RouterParams{
		Config:        cfg,
		Logger:        logg,
		Redis:         kv,
		Catalog:       products,
		Carts:         carts,
		Checkout:      submit,
		Orders:        store,
		Channel:       channel,
		Wizard:        mgr,
		Notifications: notices,
		Metrics:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	return &harness{handler: handler, channel: channel, inbox: inbox}
}

func (h *harness) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func admin() map[string]string {
	return map[string]string{"Authorization": "Bearer " + adminToken}
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return envelope.Data
}

const submitBody = `{"sessionId":"` + sessionID + `","customerInfo":{"name":"Dilnoza","phone":"+998901234567"},"consent":true,"language":"ru"}`

func fillCart(t *testing.T, h *harness) {
	t.Helper()
	cartPath := "/api/v1/cart/" + sessionID
	rec := h.do(t, http.MethodPost, cartPath+"/items", `{"productId":"planter-classic","variantId":"walnut","imageIndex":0}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = h.do(t, http.MethodPut, cartPath+"/items/planter-classic:walnut:0", `{"quantity":2}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealthLiveAndMetrics(t *testing.T) {
	h := newHarness(t, delivery.Delivered("1"))

	rec := h.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, "degraded", data["status"], "no database pinger configured")

	rec = h.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "order_store_memory_mode")
}

func TestProductsRoutes(t *testing.T) {
	h := newHarness(t, delivery.Delivered("1"))

	rec := h.do(t, http.MethodGet, "/api/v1/products?category=materials", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	products := decodeData(t, rec)["products"].([]any)
	require.NotEmpty(t, products)
	for _, p := range products {
		assert.Equal(t, "materials", p.(map[string]any)["category"])
	}

	rec = h.do(t, http.MethodGet, "/api/v1/products/planter-classic", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/v1/products/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitFlowEndToEnd(t *testing.T) {
	h := newHarness(t, delivery.Delivered("777"))
	fillCart(t, h)

	rec := h.do(t, http.MethodPost, "/api/v1/orders/submit", submitBody, map[string]string{"Idempotency-Key": "order-1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := decodeData(t, rec)
	assert.Equal(t, "received", data["status"])
	assert.Equal(t, "374000", data["total"])
	orderID, _ := data["orderId"].(string)
	require.NotEmpty(t, orderID)

	replay := h.do(t, http.MethodPost, "/api/v1/orders/submit", submitBody, map[string]string{"Idempotency-Key": "order-1"})
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, rec.Body.String(), replay.Body.String())
	assert.Equal(t, 1, h.channel.sent, "replay must not resend")

	rec = h.do(t, http.MethodGet, "/api/v1/cart/"+sessionID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeData(t, rec)["lines"], "cart is cleared after submit")

	rec = h.do(t, http.MethodGet, "/api/admin/v1/orders/"+orderID, "", admin())
	require.Equal(t, http.StatusOK, rec.Code)
	order := decodeData(t, rec)
	assert.Equal(t, "777", order["deliveryReference"])
	assert.Equal(t, "pending", order["status"])
}

func TestSubmitRequiresIdempotencyKey(t *testing.T) {
	h := newHarness(t, delivery.Delivered("1"))
	fillCart(t, h)

	rec := h.do(t, http.MethodPost, "/api/v1/orders/submit", submitBody, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, h.channel.sent)
}

func TestSubmitChatNotFoundOpensWizardWithoutLeakingProviderText(t *testing.T) {
	h := newHarness(t, delivery.Failed(400, "Bad Request: chat not found"))
	fillCart(t, h)

	rec := h.do(t, http.MethodPost, "/api/v1/orders/submit", submitBody, map[string]string{"Idempotency-Key": "order-2"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "chat not found")
	assert.Equal(t, "pending_confirmation", decodeData(t, rec)["status"])

	rec = h.do(t, http.MethodGet, "/api/admin/v1/notifications?unread=true", "", admin())
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	items := data["items"].([]any)
	require.Len(t, items, 1)
	assert.Contains(t, items[0].(map[string]any)["message"], "chat not found")

	rec = h.do(t, http.MethodPost, "/api/admin/v1/notifications/read-all", "", admin())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeData(t, rec)["updated"])
}

func TestAdminRoutesRequireToken(t *testing.T) {
	h := newHarness(t, delivery.Delivered("1"))

	rec := h.do(t, http.MethodGet, "/api/admin/v1/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/admin/v1/orders", "", map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminOrderLifecycle(t *testing.T) {
	h := newHarness(t, delivery.Delivered("1"))
	headers := admin()
	headers["Idempotency-Key"] = "admin-1"

	body := `{"items":[{"productId":"rattan-thread-natural","productName":"Thread","category":"materials","quantity":5,"unitPrice":"36000","lineTotal":"1"}],"customerInfo":{"name":"Aziz","phone":"+998900000000"},"language":"uz"}`
	rec := h.do(t, http.MethodPost, "/api/admin/v1/orders", body, headers)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	orderID := decodeData(t, rec)["orderId"].(string)

	rec = h.do(t, http.MethodGet, "/api/admin/v1/orders?status=pending&limit=10", "", admin())
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeData(t, rec)
	assert.Len(t, list["orders"], 1)
	assert.Equal(t, "database", list["storageMode"])

	rec = h.do(t, http.MethodPut, "/api/admin/v1/orders/"+orderID+"/status", `{"status":"processing"}`, admin())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodPut, "/api/admin/v1/orders/"+orderID+"/status", `{"status":"completed"}`, admin())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodPut, "/api/admin/v1/orders/"+orderID+"/status", `{"status":"pending"}`, admin())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/admin/v1/stats", "", admin())
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeData(t, rec)
	assert.EqualValues(t, 1, stats["total"])
	assert.EqualValues(t, 1, stats["counts"].(map[string]any)["completed"])

	rec = h.do(t, http.MethodDelete, "/api/admin/v1/orders/"+orderID, "", admin())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/admin/v1/orders/"+orderID, "", admin())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChannelWizardRoutes(t *testing.T) {
	h := newHarness(t, delivery.Delivered("1"))

	rec := h.do(t, http.MethodGet, "/api/admin/v1/channels/discover", "", admin())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeData(t, rec)["success"])

	rec = h.do(t, http.MethodPost, "/api/admin/v1/channel-wizard", "", admin())
	require.Equal(t, http.StatusCreated, rec.Code)
	view := decodeData(t, rec)
	assert.Equal(t, "search", view["state"])
	base := "/api/admin/v1/channel-wizard/" + view["id"].(string)

	rec = h.do(t, http.MethodPost, base+"/search", "", admin())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "select_channel", decodeData(t, rec)["state"])

	rec = h.do(t, http.MethodPost, base+"/proceed", "", admin())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "proceed needs a selection")

	rec = h.do(t, http.MethodPost, base+"/test", `{"channelId":"-100200"}`, admin())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodPost, base+"/select", `{"channelId":"-100200"}`, admin())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodPost, base+"/proceed", "", admin())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "finalize", decodeData(t, rec)["state"])

	rec = h.do(t, http.MethodPost, base+"/done", "", admin())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeData(t, rec)["done"])

	rec = h.do(t, http.MethodGet, base, "", admin())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
