package service

import (
	"context"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// QueryService serves the read side: customer order history, operator
// listings, and the saved address book. All order reads come from the global
// table, the single source of truth for status.
type QueryService struct {
	store  OrderStore
	logger *zap.Logger
}

// NewQueryService creates a new query service.
func NewQueryService(store OrderStore) *QueryService {
	return &QueryService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// OrdersByPhone returns a customer's orders, newest first.
func (q *QueryService) OrdersByPhone(ctx context.Context, phone string) ([]models.Order, error) {
	if phone == "" {
		return nil, &models.ValidationError{Field: "phone", Reason: "required"}
	}
	return q.store.GetOrdersByPhone(ctx, phone)
}

// AllOrders returns every order, newest first.
func (q *QueryService) AllOrders(ctx context.Context) ([]models.Order, error) {
	return q.store.GetAllOrders(ctx)
}

// AdminData is the operator dashboard payload.
type AdminData struct {
	Orders    []models.Order           `json:"orders"`
	Customers []models.CustomerSummary `json:"logins"`
}

// AdminView assembles orders plus customer summaries for the operator panel.
func (q *QueryService) AdminView(ctx context.Context) (*AdminData, error) {
	orders, err := q.store.GetAllOrders(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := q.store.ListCustomerSummaries(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminData{Orders: orders, Customers: customers}, nil
}

// SaveAddressRequest is the address-book write request.
type SaveAddressRequest struct {
	Phone string `json:"phone" binding:"required"`
	Name  string `json:"name"`
	Line1 string `json:"address1"`
	Line2 string `json:"address2"`
	City  string `json:"city"`
}

// SaveAddress appends an address to a customer's book, creating the
// customer implicitly when missing.
func (q *QueryService) SaveAddress(ctx context.Context, req *SaveAddressRequest) (*models.Address, error) {
	if req.Phone == "" {
		return nil, &models.ValidationError{Field: "phone", Reason: "required"}
	}

	addr := &models.Address{
		CustomerPhone: req.Phone,
		Name:          req.Name,
		Phone:         req.Phone,
		Line1:         req.Line1,
		Line2:         req.Line2,
		City:          req.City,
	}
	if err := q.store.SaveAddress(ctx, addr); err != nil {
		return nil, err
	}

	q.logger.Info("Address saved",
		zap.String("phone", req.Phone),
		zap.Bool("is_default", addr.IsDefault))
	return addr, nil
}

// AddressesByPhone returns a customer's saved addresses, default first.
func (q *QueryService) AddressesByPhone(ctx context.Context, phone string) ([]models.Address, error) {
	if phone == "" {
		return nil, &models.ValidationError{Field: "phone", Reason: "required"}
	}
	return q.store.GetAddressesByPhone(ctx, phone)
}
