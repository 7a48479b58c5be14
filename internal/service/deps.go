package service

import (
	"context"
	"time"

	"storefront-service/internal/models"
)

// OrderStore is the persistence surface the services need. *store.Store
// satisfies it; tests substitute a mock.
type OrderStore interface {
	// customer-side store (a)
	AppendCustomerOrder(ctx context.Context, order *models.Order) error
	GetCustomerOrder(ctx context.Context, orderID string) (*models.Order, error)
	GetCustomerOrderByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Order, error)
	UpdateCustomerOrderStatus(ctx context.Context, orderID, status string) (int64, error)

	// global order table (b)
	InsertOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, orderID string) (*models.Order, error)
	GetOrderByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) (int64, error)
	GetOrdersByPhone(ctx context.Context, phone string) ([]models.Order, error)
	GetAllOrders(ctx context.Context) ([]models.Order, error)

	// reconciliation queue
	EnqueueReconciliation(ctx context.Context, orderID, reason string) error
	ResolveReconciliation(ctx context.Context, orderID string) error
	PendingReconciliations(ctx context.Context) ([]models.Reconciliation, error)

	// address book / operator views
	SaveAddress(ctx context.Context, addr *models.Address) error
	GetAddressesByPhone(ctx context.Context, phone string) ([]models.Address, error)
	ListCustomerSummaries(ctx context.Context) ([]models.CustomerSummary, error)
}

// EventPublisher publishes domain events. broker.EventPublisher satisfies it.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishPartialCommit(ctx context.Context, event *models.PartialCommitEvent) error
	PublishStatusChanged(ctx context.Context, event *models.StatusChangedEvent) error
	PublishPaymentRejected(ctx context.Context, event *models.PaymentRejectedEvent) error
}

// PaymentClaimer is the fast-path duplicate guard for gateway payments.
// redisclient.Client satisfies it.
type PaymentClaimer interface {
	ClaimPayment(ctx context.Context, paymentID string, ttl time.Duration) (bool, error)
	ReleasePayment(ctx context.Context, paymentID string) error
}
