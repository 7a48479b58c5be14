package service

import (
	"fmt"
	"strings"
	"time"

	"storefront-service/internal/models"

	"github.com/google/uuid"
)

// BuildInput is everything the builder needs to assemble an order record.
type BuildInput struct {
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Items         models.LineItems
	Total         int64
	Address       models.DeliveryAddress
	PaymentMethod string
	// set only for gateway payments
	GatewayOrderID   string
	GatewayPaymentID string
}

// Builder assembles canonical order records. It is pure: no I/O, safe for
// concurrent use.
type Builder struct {
	nowFunc func() time.Time
}

// NewBuilder creates a new order record builder.
func NewBuilder() *Builder {
	return &Builder{nowFunc: time.Now}
}

// Build validates the input and returns a fully populated order with a fresh
// order ID and status confirmed. Violations return a *models.ValidationError
// naming the offending field; no write is ever attempted on invalid input.
func (b *Builder) Build(in BuildInput) (*models.Order, error) {
	if in.CustomerPhone == "" {
		return nil, &models.ValidationError{Field: "customerPhone", Reason: "required"}
	}
	if len(in.Items) == 0 {
		return nil, &models.ValidationError{Field: "lineItems", Reason: "must not be empty"}
	}
	for i, item := range in.Items {
		if item.Quantity < 1 {
			return nil, &models.ValidationError{
				Field:  fmt.Sprintf("lineItems[%d].quantity", i),
				Reason: "must be at least 1",
			}
		}
		if item.UnitPrice < 0 {
			return nil, &models.ValidationError{
				Field:  fmt.Sprintf("lineItems[%d].unitPrice", i),
				Reason: "must not be negative",
			}
		}
	}

	if sum := in.Items.Total(); in.Total != sum {
		return nil, &models.ValidationError{
			Field:  "total",
			Reason: fmt.Sprintf("does not match line items: got %d, want %d", in.Total, sum),
		}
	}

	switch in.PaymentMethod {
	case models.PaymentMethodCOD:
		// empty address tolerated on the legacy COD path
	case models.PaymentMethodGateway:
		if in.GatewayOrderID == "" || in.GatewayPaymentID == "" {
			return nil, &models.ValidationError{Field: "paymentReference", Reason: "required for gateway payments"}
		}
		if in.Address.IsZero() {
			return nil, &models.ValidationError{Field: "address", Reason: "required for gateway payments"}
		}
	default:
		return nil, &models.ValidationError{Field: "paymentMethod", Reason: "must be cod or gateway"}
	}

	now := b.nowFunc()
	return &models.Order{
		OrderID:          newOrderID(now),
		CustomerName:     in.CustomerName,
		CustomerPhone:    in.CustomerPhone,
		CustomerEmail:    in.CustomerEmail,
		Items:            in.Items,
		Total:            in.Total,
		Address:          in.Address,
		PaymentMethod:    in.PaymentMethod,
		GatewayOrderID:   in.GatewayOrderID,
		GatewayPaymentID: in.GatewayPaymentID,
		Status:           models.OrderStatusConfirmed,
		CreatedAt:        now,
	}, nil
}

// newOrderID generates a customer-facing order ID. The millisecond prefix
// keeps IDs roughly sortable; the suffix disambiguates commits landing in
// the same millisecond.
func newOrderID(now time.Time) string {
	suffix := strings.ToUpper(uuid.New().String()[:4])
	return fmt.Sprintf("ORD%d%s", now.UnixMilli(), suffix)
}
