package models

import "time"

// Event types
const (
	EventTypeOrderPlaced     = "ORDER_PLACED"
	EventTypePartialCommit   = "ORDER_PARTIAL_COMMIT"
	EventTypeStatusChanged   = "ORDER_STATUS_CHANGED"
	EventTypePaymentRejected = "PAYMENT_REJECTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published when an order has been committed to both stores
type OrderPlacedEvent struct {
	BaseEvent
	OrderID       string `json:"order_id"`
	CustomerPhone string `json:"customer_phone"`
	Total         int64  `json:"total"`
	PaymentMethod string `json:"payment_method"`
}

// PartialCommitEvent published when the customer-side write succeeded but
// the global-table write failed; consumed by the reconciliation worker
type PartialCommitEvent struct {
	BaseEvent
	OrderID       string `json:"order_id"`
	CustomerPhone string `json:"customer_phone"`
	Reason        string `json:"reason"`
}

// StatusChangedEvent published when an operator updates an order status
type StatusChangedEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// PaymentRejectedEvent published when a payment signature check fails;
// security relevant, kept on the bus for audit
type PaymentRejectedEvent struct {
	BaseEvent
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
}
