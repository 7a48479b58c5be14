package service

import (
	"context"
	"time"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) AppendCustomerOrder(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockStore) GetCustomerOrder(ctx context.Context, orderID string) (*models.Order, error) {
	args := m.Called(ctx, orderID)
	return orderArg(args.Get(0)), args.Error(1)
}

func (m *mockStore) GetCustomerOrderByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	args := m.Called(ctx, paymentID)
	return orderArg(args.Get(0)), args.Error(1)
}

func (m *mockStore) UpdateCustomerOrderStatus(ctx context.Context, orderID, status string) (int64, error) {
	args := m.Called(ctx, orderID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) InsertOrder(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockStore) GetOrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	args := m.Called(ctx, orderID)
	return orderArg(args.Get(0)), args.Error(1)
}

func (m *mockStore) GetOrderByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	args := m.Called(ctx, paymentID)
	return orderArg(args.Get(0)), args.Error(1)
}

func (m *mockStore) UpdateOrderStatus(ctx context.Context, orderID, status string) (int64, error) {
	args := m.Called(ctx, orderID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) GetOrdersByPhone(ctx context.Context, phone string) ([]models.Order, error) {
	args := m.Called(ctx, phone)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockStore) GetAllOrders(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockStore) EnqueueReconciliation(ctx context.Context, orderID, reason string) error {
	args := m.Called(ctx, orderID, reason)
	return args.Error(0)
}

func (m *mockStore) ResolveReconciliation(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *mockStore) PendingReconciliations(ctx context.Context) ([]models.Reconciliation, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Reconciliation), args.Error(1)
}

func (m *mockStore) SaveAddress(ctx context.Context, addr *models.Address) error {
	args := m.Called(ctx, addr)
	return args.Error(0)
}

func (m *mockStore) GetAddressesByPhone(ctx context.Context, phone string) ([]models.Address, error) {
	args := m.Called(ctx, phone)
	return args.Get(0).([]models.Address), args.Error(1)
}

func (m *mockStore) ListCustomerSummaries(ctx context.Context) ([]models.CustomerSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.CustomerSummary), args.Error(1)
}

func orderArg(v interface{}) *models.Order {
	if v == nil {
		return nil
	}
	return v.(*models.Order)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockPublisher) PublishPartialCommit(ctx context.Context, event *models.PartialCommitEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockPublisher) PublishStatusChanged(ctx context.Context, event *models.StatusChangedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockPublisher) PublishPaymentRejected(ctx context.Context, event *models.PaymentRejectedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type mockClaimer struct {
	mock.Mock
}

func (m *mockClaimer) ClaimPayment(ctx context.Context, paymentID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, paymentID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockClaimer) ReleasePayment(ctx context.Context, paymentID string) error {
	args := m.Called(ctx, paymentID)
	return args.Error(0)
}
