package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-service/internal/models"
)

// AppendCustomerOrder writes the customer-side copy of an order: it upserts
// a minimal customer record keyed by phone and appends the full order to the
// customer's history log. First-order placement must not require
// pre-registration, so the customer row is created on the fly.
func (s *Store) AppendCustomerOrder(ctx context.Context, order *models.Order) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO customers (phone, name, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), customers.name),
			email = COALESCE(NULLIF(EXCLUDED.email, ''), customers.email),
			updated_at = NOW()`,
		order.CustomerPhone, order.CustomerName, order.CustomerEmail)
	if err != nil {
		return fmt.Errorf("failed to upsert customer: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO customer_orders (order_id, customer_name, customer_phone, customer_email,
			items, total, address, payment_method, gateway_order_id, gateway_payment_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		order.OrderID, order.CustomerName, order.CustomerPhone, order.CustomerEmail,
		order.Items, order.Total, order.Address, order.PaymentMethod,
		order.GatewayOrderID, order.GatewayPaymentID, order.Status, order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append customer order: %w", err)
	}

	return tx.Commit()
}

// GetCustomerOrder retrieves the customer-side copy of an order.
func (s *Store) GetCustomerOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM customer_orders WHERE order_id = $1", orderID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateCustomerOrderStatus updates the status of the customer-side copy,
// matched by order ID. Returns the number of rows matched so the caller can
// detect a diverged copy.
func (s *Store) UpdateCustomerOrderStatus(ctx context.Context, orderID, status string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE customer_orders SET status = $1 WHERE order_id = $2",
		status, orderID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetCustomerOrderByGatewayPaymentID retrieves the customer-side copy of an
// order by its gateway payment ID. Consulted by the verify dedupe so a
// partially committed order, still missing from the global table, blocks a
// second commit for the same payment.
func (s *Store) GetCustomerOrderByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT * FROM customer_orders WHERE gateway_payment_id = $1", paymentID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// InsertOrder inserts an order into the global order table.
func (s *Store) InsertOrder(ctx context.Context, order *models.Order) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (order_id, customer_name, customer_phone, customer_email,
			items, total, address, payment_method, gateway_order_id, gateway_payment_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		order.OrderID, order.CustomerName, order.CustomerPhone, order.CustomerEmail,
		order.Items, order.Total, order.Address, order.PaymentMethod,
		order.GatewayOrderID, order.GatewayPaymentID, order.Status, order.CreatedAt)
	return err
}

// GetOrderByID retrieves an order from the global table.
func (s *Store) GetOrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE order_id = $1", orderID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByGatewayPaymentID retrieves an order by its gateway payment ID.
// Used as the durable idempotency lookup on the verify path.
func (s *Store) GetOrderByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE gateway_payment_id = $1", paymentID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus updates the status in the global table. Returns the
// number of rows matched.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID, status string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1 WHERE order_id = $2",
		status, orderID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetOrdersByPhone retrieves a customer's orders from the global table,
// newest first.
func (s *Store) GetOrdersByPhone(ctx context.Context, phone string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE customer_phone = $1 ORDER BY created_at DESC", phone)
	return orders, err
}

// GetAllOrders retrieves every order in the global table, newest first.
func (s *Store) GetAllOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, "SELECT * FROM orders ORDER BY created_at DESC")
	return orders, err
}

// EnqueueReconciliation records an order whose global-table copy is missing.
func (s *Store) EnqueueReconciliation(ctx context.Context, orderID, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO order_reconciliations (order_id, reason)
		VALUES ($1, $2)
		ON CONFLICT (order_id) DO NOTHING`,
		orderID, reason)
	return err
}

// ResolveReconciliation marks a pending reconciliation as repaired.
func (s *Store) ResolveReconciliation(ctx context.Context, orderID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE order_reconciliations SET resolved_at = NOW() WHERE order_id = $1 AND resolved_at IS NULL",
		orderID)
	return err
}

// PendingReconciliations lists orders still waiting for repair.
func (s *Store) PendingReconciliations(ctx context.Context) ([]models.Reconciliation, error) {
	var pending []models.Reconciliation
	err := s.db.SelectContext(ctx, &pending,
		"SELECT * FROM order_reconciliations WHERE resolved_at IS NULL ORDER BY created_at")
	return pending, err
}
