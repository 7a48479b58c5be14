package store

import (
	"context"
	"fmt"
	"time"

	"storefront-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// ListCustomerSummaries returns every customer with order and address counts
// for the operator dashboard, most recently active first.
func (s *Store) ListCustomerSummaries(ctx context.Context) ([]models.CustomerSummary, error) {
	var summaries []models.CustomerSummary
	err := s.db.SelectContext(ctx, &summaries, `
		SELECT c.phone, c.name, c.email, c.is_verified, c.updated_at,
		       (SELECT COUNT(*) FROM orders o WHERE o.customer_phone = c.phone) AS order_count,
		       (SELECT COUNT(*) FROM addresses a WHERE a.customer_phone = c.phone) AS address_count
		FROM customers c
		ORDER BY c.updated_at DESC`)
	return summaries, err
}

// SaveAddress appends an address to a customer's address book, implicitly
// creating the customer when missing. The first saved address becomes the
// default.
func (s *Store) SaveAddress(ctx context.Context, addr *models.Address) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO customers (phone, name)
		VALUES ($1, $2)
		ON CONFLICT (phone) DO UPDATE SET updated_at = NOW()`,
		addr.CustomerPhone, addr.Name)
	if err != nil {
		return fmt.Errorf("failed to upsert customer for address: %w", err)
	}

	var existing int
	if err := tx.GetContext(ctx, &existing,
		"SELECT COUNT(*) FROM addresses WHERE customer_phone = $1", addr.CustomerPhone); err != nil {
		return err
	}
	addr.IsDefault = existing == 0

	err = tx.GetContext(ctx, addr, `
		INSERT INTO addresses (customer_phone, name, phone, line1, line2, city, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		addr.CustomerPhone, addr.Name, addr.Phone, addr.Line1, addr.Line2, addr.City, addr.IsDefault)
	if err != nil {
		return fmt.Errorf("failed to insert address: %w", err)
	}

	return tx.Commit()
}

// GetAddressesByPhone retrieves a customer's saved addresses, default first.
func (s *Store) GetAddressesByPhone(ctx context.Context, phone string) ([]models.Address, error) {
	var addresses []models.Address
	err := s.db.SelectContext(ctx, &addresses,
		"SELECT * FROM addresses WHERE customer_phone = $1 ORDER BY is_default DESC, created_at", phone)
	return addresses, err
}
