package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// LineItem is one cart position, snapshotted at commit time.
type LineItem struct {
	ProductID int64  `json:"id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

// LineItems is stored as a JSONB column in both order tables.
type LineItems []LineItem

// Value implements driver.Valuer.
func (li LineItems) Value() (driver.Value, error) {
	return json.Marshal(li)
}

// Scan implements sql.Scanner.
func (li *LineItems) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, li)
	case string:
		return json.Unmarshal([]byte(v), li)
	case nil:
		*li = nil
		return nil
	default:
		return fmt.Errorf("unsupported type for LineItems: %T", src)
	}
}

// Total returns the sum of unitPrice * quantity over all items.
func (li LineItems) Total() int64 {
	var total int64
	for _, item := range li {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

// DeliveryAddress is the address snapshot embedded in an order.
type DeliveryAddress struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Line1 string `json:"address1"`
	Line2 string `json:"address2"`
	City  string `json:"city"`
}

// IsZero reports whether no address was supplied.
func (a DeliveryAddress) IsZero() bool {
	return a == DeliveryAddress{}
}

// Value implements driver.Valuer.
func (a DeliveryAddress) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *DeliveryAddress) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	case nil:
		*a = DeliveryAddress{}
		return nil
	default:
		return fmt.Errorf("unsupported type for DeliveryAddress: %T", src)
	}
}

// Order is the canonical order record. The same shape is written to the
// customer history log and to the global order table; the order ID is the
// join key between the two copies.
type Order struct {
	OrderID          string          `db:"order_id" json:"orderId"`
	CustomerName     string          `db:"customer_name" json:"customerName"`
	CustomerPhone    string          `db:"customer_phone" json:"customerPhone"`
	CustomerEmail    string          `db:"customer_email" json:"customerEmail"`
	Items            LineItems       `db:"items" json:"items"`
	Total            int64           `db:"total" json:"total"`
	Address          DeliveryAddress `db:"address" json:"address"`
	PaymentMethod    string          `db:"payment_method" json:"paymentMethod"`
	GatewayOrderID   string          `db:"gateway_order_id" json:"gatewayOrderId,omitempty"`
	GatewayPaymentID string          `db:"gateway_payment_id" json:"gatewayPaymentId,omitempty"`
	Status           string          `db:"status" json:"status"`
	CreatedAt        time.Time       `db:"created_at" json:"createdAt"`
}

// Customer is the identity record keyed by phone number. Profile edits never
// touch committed orders; those carry their own snapshot.
type Customer struct {
	Phone      string    `db:"phone" json:"phone"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	IsVerified bool      `db:"is_verified" json:"isVerified"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// CustomerSummary is the operator-dashboard view of a customer.
type CustomerSummary struct {
	Phone        string    `db:"phone" json:"phone"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	IsVerified   bool      `db:"is_verified" json:"isVerified"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
	OrderCount   int       `db:"order_count" json:"orderCount"`
	AddressCount int       `db:"address_count" json:"addressCount"`
}

// Address is a saved delivery address. The first address saved for a
// customer becomes the default.
type Address struct {
	ID            int64     `db:"id" json:"id"`
	CustomerPhone string    `db:"customer_phone" json:"-"`
	Name          string    `db:"name" json:"name"`
	Phone         string    `db:"phone" json:"phone"`
	Line1         string    `db:"line1" json:"address1"`
	Line2         string    `db:"line2" json:"address2"`
	City          string    `db:"city" json:"city"`
	IsDefault     bool      `db:"is_default" json:"isDefault"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// Reconciliation is a pending repair of an order missing from the global table.
type Reconciliation struct {
	OrderID    string       `db:"order_id" json:"orderId"`
	Reason     string       `db:"reason" json:"reason"`
	CreatedAt  time.Time    `db:"created_at" json:"createdAt"`
	ResolvedAt sql.NullTime `db:"resolved_at" json:"-"`
}

// Payment methods
const (
	PaymentMethodCOD     = "cod"
	PaymentMethodGateway = "gateway"
)

// Order statuses. Any status may follow any other; there is no terminal lock.
const (
	OrderStatusConfirmed = "confirmed"
	OrderStatusPreparing = "preparing"
	OrderStatusOut       = "out"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	switch s {
	case OrderStatusConfirmed, OrderStatusPreparing, OrderStatusOut,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}
