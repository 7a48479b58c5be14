package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/payment"
	"storefront-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// stubStore is an in-memory OrderStore for handler tests. Both stores are
// plain maps so tests can assert on their contents independently.
type stubStore struct {
	customerOrders map[string]*models.Order
	globalOrders   map[string]*models.Order
	reconcileQueue map[string]string

	failGlobalWrite bool
}

func newStubStore() *stubStore {
	return &stubStore{
		customerOrders: map[string]*models.Order{},
		globalOrders:   map[string]*models.Order{},
		reconcileQueue: map[string]string{},
	}
}

func (s *stubStore) AppendCustomerOrder(ctx context.Context, order *models.Order) error {
	cp := *order
	s.customerOrders[order.OrderID] = &cp
	return nil
}

func (s *stubStore) GetCustomerOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.customerOrders[orderID], nil
}

func (s *stubStore) UpdateCustomerOrderStatus(ctx context.Context, orderID, status string) (int64, error) {
	if o, ok := s.customerOrders[orderID]; ok {
		o.Status = status
		return 1, nil
	}
	return 0, nil
}

func (s *stubStore) InsertOrder(ctx context.Context, order *models.Order) error {
	if s.failGlobalWrite {
		return fmt.Errorf("global table unavailable")
	}
	cp := *order
	s.globalOrders[order.OrderID] = &cp
	return nil
}

func (s *stubStore) GetOrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	return s.globalOrders[orderID], nil
}

func (s *stubStore) GetOrderByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	for _, o := range s.globalOrders {
		if o.GatewayPaymentID == paymentID {
			return o, nil
		}
	}
	return nil, nil
}

func (s *stubStore) GetCustomerOrderByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	for _, o := range s.customerOrders {
		if o.GatewayPaymentID == paymentID {
			return o, nil
		}
	}
	return nil, nil
}

func (s *stubStore) UpdateOrderStatus(ctx context.Context, orderID, status string) (int64, error) {
	if o, ok := s.globalOrders[orderID]; ok {
		o.Status = status
		return 1, nil
	}
	return 0, nil
}

func (s *stubStore) GetOrdersByPhone(ctx context.Context, phone string) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.globalOrders {
		if o.CustomerPhone == phone {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *stubStore) GetAllOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.globalOrders {
		out = append(out, *o)
	}
	return out, nil
}

func (s *stubStore) EnqueueReconciliation(ctx context.Context, orderID, reason string) error {
	s.reconcileQueue[orderID] = reason
	return nil
}

func (s *stubStore) ResolveReconciliation(ctx context.Context, orderID string) error {
	delete(s.reconcileQueue, orderID)
	return nil
}

func (s *stubStore) PendingReconciliations(ctx context.Context) ([]models.Reconciliation, error) {
	var pending []models.Reconciliation
	for orderID, reason := range s.reconcileQueue {
		pending = append(pending, models.Reconciliation{OrderID: orderID, Reason: reason})
	}
	return pending, nil
}

func (s *stubStore) SaveAddress(ctx context.Context, addr *models.Address) error {
	addr.ID = 1
	addr.IsDefault = true
	return nil
}

func (s *stubStore) GetAddressesByPhone(ctx context.Context, phone string) ([]models.Address, error) {
	return []models.Address{}, nil
}

func (s *stubStore) ListCustomerSummaries(ctx context.Context) ([]models.CustomerSummary, error) {
	return []models.CustomerSummary{}, nil
}

// stubPublisher drops events; handler tests assert on store state, not the bus.
type stubPublisher struct{}

func (stubPublisher) PublishOrderPlaced(context.Context, *models.OrderPlacedEvent) error     { return nil }
func (stubPublisher) PublishPartialCommit(context.Context, *models.PartialCommitEvent) error { return nil }
func (stubPublisher) PublishStatusChanged(context.Context, *models.StatusChangedEvent) error { return nil }
func (stubPublisher) PublishPaymentRejected(context.Context, *models.PaymentRejectedEvent) error {
	return nil
}

func newTestRouter(t *testing.T, store *stubStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	verifier, err := payment.NewSignatureVerifier(testSecret)
	require.NoError(t, err)

	pub := stubPublisher{}
	builder := service.NewBuilder()
	writer := service.NewDualWriter(store, pub, time.Second)
	commits := service.NewCommitService(store, builder, writer, verifier, nil, 10*time.Minute, pub)
	statuses := service.NewStatusService(store, pub)
	queries := service.NewQueryService(store)
	reconciler := service.NewReconciler(store)
	gateway := payment.NewGatewayClient("http://localhost:0", "key_test", "secret_test")

	router := gin.New()
	handler := NewHandler(commits, statuses, queries, reconciler, gateway)
	handler.SetupRoutes(router)
	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func gatewaySign(gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func codOrderBody() map[string]interface{} {
	return map[string]interface{}{
		"customerName":  "Asha",
		"customerPhone": "9876543210",
		"customerEmail": "asha@example.com",
		"lineItems": []map[string]interface{}{
			{"id": 1, "name": "A", "unitPrice": 100, "quantity": 2},
		},
		"total":         200,
		"address":       map[string]string{"name": "Asha", "phone": "9876543210", "address1": "12 MG Road", "city": "Pune"},
		"paymentMethod": "cod",
	}
}

func TestPlaceOrderEndToEnd(t *testing.T) {
	store := newStubStore()
	router := newTestRouter(t, store)

	w := doJSON(router, http.MethodPost, "/api/place-order", codOrderBody())
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool   `json:"success"`
		OrderID string `json:"orderId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.OrderID, "ORD"))

	// the order is retrievable from both stores with identical content
	require.Contains(t, store.customerOrders, resp.OrderID)
	require.Contains(t, store.globalOrders, resp.OrderID)
	assert.Equal(t, store.customerOrders[resp.OrderID].Total, store.globalOrders[resp.OrderID].Total)
	assert.Equal(t, store.customerOrders[resp.OrderID].Items, store.globalOrders[resp.OrderID].Items)

	// and via the customer history lookup
	w = doJSON(router, http.MethodGet, "/api/myorders?phone=9876543210", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listing struct {
		Orders []models.Order `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing.Orders, 1)
	assert.Equal(t, int64(200), listing.Orders[0].Total)
	assert.Equal(t, 2, listing.Orders[0].Items[0].Quantity)
}

func TestPlaceOrderValidationFailure(t *testing.T) {
	store := newStubStore()
	router := newTestRouter(t, store)

	body := codOrderBody()
	body["total"] = 999

	w := doJSON(router, http.MethodPost, "/api/place-order", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.customerOrders)
	assert.Empty(t, store.globalOrders)
}

func TestPlaceOrderPartialCommitStillSucceeds(t *testing.T) {
	store := newStubStore()
	store.failGlobalWrite = true
	router := newTestRouter(t, store)

	w := doJSON(router, http.MethodPost, "/api/place-order", codOrderBody())
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool   `json:"success"`
		OrderID string `json:"orderId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.OrderID)

	// present in the customer history, absent from the global table, queued
	assert.Contains(t, store.customerOrders, resp.OrderID)
	assert.NotContains(t, store.globalOrders, resp.OrderID)
	assert.Contains(t, store.reconcileQueue, resp.OrderID)
}

func TestVerifyPaymentRejectsForgedSignature(t *testing.T) {
	store := newStubStore()
	router := newTestRouter(t, store)

	body := map[string]interface{}{
		"gatewayOrderId":   "order_abc",
		"gatewayPaymentId": "pay_123",
		"gatewaySignature": "deadbeef",
		"orderDetails": map[string]interface{}{
			"customerName":  "Asha",
			"customerPhone": "9876543210",
			"lineItems": []map[string]interface{}{
				{"id": 1, "name": "A", "unitPrice": 100, "quantity": 2},
			},
			"total":   200,
			"address": map[string]string{"name": "Asha", "phone": "9876543210", "address1": "12 MG Road", "city": "Pune"},
		},
	}

	w := doJSON(router, http.MethodPost, "/api/payment/verify", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)

	// neither store gains an order
	assert.Empty(t, store.customerOrders)
	assert.Empty(t, store.globalOrders)
}

func TestVerifyPaymentCommitsAndDeduplicates(t *testing.T) {
	store := newStubStore()
	router := newTestRouter(t, store)

	body := map[string]interface{}{
		"gatewayOrderId":   "order_abc",
		"gatewayPaymentId": "pay_123",
		"gatewaySignature": gatewaySign("order_abc", "pay_123"),
		"orderDetails": map[string]interface{}{
			"customerName":  "Asha",
			"customerPhone": "9876543210",
			"lineItems": []map[string]interface{}{
				{"id": 1, "name": "A", "unitPrice": 100, "quantity": 2},
			},
			"total":   200,
			"address": map[string]string{"name": "Asha", "phone": "9876543210", "address1": "12 MG Road", "city": "Pune"},
		},
	}

	w := doJSON(router, http.MethodPost, "/api/payment/verify", body)
	require.Equal(t, http.StatusOK, w.Code)

	var first struct {
		Success   bool   `json:"success"`
		OrderID   string `json:"orderId"`
		PaymentID string `json:"paymentId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.True(t, first.Success)
	assert.Equal(t, "pay_123", first.PaymentID)

	// the second call with the same payment ID is a no-op success
	w = doJSON(router, http.MethodPost, "/api/payment/verify", body)
	require.Equal(t, http.StatusOK, w.Code)

	var second struct {
		Success bool   `json:"success"`
		OrderID string `json:"orderId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.True(t, second.Success)
	assert.Equal(t, first.OrderID, second.OrderID)

	assert.Len(t, store.globalOrders, 1)
	assert.Len(t, store.customerOrders, 1)
}

func TestVerifyPaymentRetryAfterPartialCommit(t *testing.T) {
	store := newStubStore()
	store.failGlobalWrite = true
	router := newTestRouter(t, store)

	body := map[string]interface{}{
		"gatewayOrderId":   "order_abc",
		"gatewayPaymentId": "pay_123",
		"gatewaySignature": gatewaySign("order_abc", "pay_123"),
		"orderDetails": map[string]interface{}{
			"customerName":  "Asha",
			"customerPhone": "9876543210",
			"lineItems": []map[string]interface{}{
				{"id": 1, "name": "A", "unitPrice": 100, "quantity": 2},
			},
			"total":   200,
			"address": map[string]string{"name": "Asha", "phone": "9876543210", "address1": "12 MG Road", "city": "Pune"},
		},
	}

	// first verify lands only in the customer history
	w := doJSON(router, http.MethodPost, "/api/payment/verify", body)
	require.Equal(t, http.StatusOK, w.Code)
	var first struct {
		OrderID string `json:"orderId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	require.Len(t, store.customerOrders, 1)
	require.Empty(t, store.globalOrders)

	// a retry before reconciliation, with no claim guard available, must find
	// the customer-side copy and return the original ID instead of committing
	// a second order for the same payment
	w = doJSON(router, http.MethodPost, "/api/payment/verify", body)
	require.Equal(t, http.StatusOK, w.Code)
	var second struct {
		Success bool   `json:"success"`
		OrderID string `json:"orderId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.True(t, second.Success)
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Len(t, store.customerOrders, 1)

	// reconciliation then repairs the single order's global copy
	store.failGlobalWrite = false
	w = doJSON(router, http.MethodPost, "/api/admin/reconcile", map[string]string{
		"orderId": first.OrderID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, store.globalOrders, 1)
	assert.Len(t, store.customerOrders, 1)
}

func TestUpdateOrderStatus(t *testing.T) {
	store := newStubStore()
	router := newTestRouter(t, store)

	w := doJSON(router, http.MethodPost, "/api/place-order", codOrderBody())
	require.Equal(t, http.StatusOK, w.Code)
	var placed struct {
		OrderID string `json:"orderId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))

	w = doJSON(router, http.MethodPost, "/api/update-order-status", map[string]string{
		"orderId": placed.OrderID,
		"status":  "out",
	})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "out", store.globalOrders[placed.OrderID].Status)
	assert.Equal(t, "out", store.customerOrders[placed.OrderID].Status)
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	store := newStubStore()
	router := newTestRouter(t, store)

	w := doJSON(router, http.MethodPost, "/api/place-order", codOrderBody())
	require.Equal(t, http.StatusOK, w.Code)
	var placed struct {
		OrderID string `json:"orderId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))

	w = doJSON(router, http.MethodPost, "/api/update-order-status", map[string]string{
		"orderId": placed.OrderID,
		"status":  "lost",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// neither copy moved
	assert.Equal(t, "confirmed", store.globalOrders[placed.OrderID].Status)
	assert.Equal(t, "confirmed", store.customerOrders[placed.OrderID].Status)
}

func TestReconcileEndpointRepairsPartialCommit(t *testing.T) {
	store := newStubStore()
	store.failGlobalWrite = true
	router := newTestRouter(t, store)

	w := doJSON(router, http.MethodPost, "/api/place-order", codOrderBody())
	require.Equal(t, http.StatusOK, w.Code)
	var placed struct {
		OrderID string `json:"orderId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))
	require.NotContains(t, store.globalOrders, placed.OrderID)

	w = doJSON(router, http.MethodGet, "/api/admin/reconciliations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var queue struct {
		Reconciliations []models.Reconciliation `json:"reconciliations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &queue))
	require.Len(t, queue.Reconciliations, 1)
	assert.Equal(t, placed.OrderID, queue.Reconciliations[0].OrderID)

	store.failGlobalWrite = false
	w = doJSON(router, http.MethodPost, "/api/admin/reconcile", map[string]string{
		"orderId": placed.OrderID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Contains(t, store.globalOrders, placed.OrderID)
	assert.NotContains(t, store.reconcileQueue, placed.OrderID)
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, newStubStore())

	w := doJSON(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
