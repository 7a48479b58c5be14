package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/payment"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommitService sequences an order commit: validate, verify payment when the
// order came through the gateway, build the record, dual-write, respond. It
// owns idempotency on the gateway path and failure classification.
type CommitService struct {
	store    OrderStore
	builder  *Builder
	writer   *DualWriter
	verifier *payment.SignatureVerifier
	claims   PaymentClaimer
	claimTTL time.Duration

	publisher EventPublisher
	logger    *zap.Logger
}

// NewCommitService creates a new order commit orchestrator.
func NewCommitService(
	store OrderStore,
	builder *Builder,
	writer *DualWriter,
	verifier *payment.SignatureVerifier,
	claims PaymentClaimer,
	claimTTL time.Duration,
	publisher EventPublisher,
) *CommitService {
	return &CommitService{
		store:     store,
		builder:   builder,
		writer:    writer,
		verifier:  verifier,
		claims:    claims,
		claimTTL:  claimTTL,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// LineItemRequest is one cart position as submitted by the client.
type LineItemRequest struct {
	ProductID int64  `json:"id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrderRequest is the cash-on-delivery commit request.
type PlaceOrderRequest struct {
	CustomerName  string                 `json:"customerName"`
	CustomerPhone string                 `json:"customerPhone" binding:"required"`
	CustomerEmail string                 `json:"customerEmail"`
	Items         []LineItemRequest      `json:"lineItems" binding:"required"`
	Total         int64                  `json:"total"`
	Address       models.DeliveryAddress `json:"address"`
	PaymentMethod string                 `json:"paymentMethod" binding:"required"`
}

// OrderDetails is the cart+customer payload carried alongside a payment
// confirmation.
type OrderDetails struct {
	CustomerName  string                 `json:"customerName"`
	CustomerPhone string                 `json:"customerPhone" binding:"required"`
	CustomerEmail string                 `json:"customerEmail"`
	Items         []LineItemRequest      `json:"lineItems" binding:"required"`
	Total         int64                  `json:"total"`
	Address       models.DeliveryAddress `json:"address"`
}

// VerifyPaymentRequest is the gateway confirmation callback body.
type VerifyPaymentRequest struct {
	GatewayOrderID   string       `json:"gatewayOrderId" binding:"required"`
	GatewayPaymentID string       `json:"gatewayPaymentId" binding:"required"`
	GatewaySignature string       `json:"gatewaySignature" binding:"required"`
	OrderDetails     OrderDetails `json:"orderDetails" binding:"required"`
}

// CommitResult is the outcome of a successful (or partially successful)
// commit.
type CommitResult struct {
	OrderID   string
	PaymentID string
	// Duplicate means the gateway payment had already produced an order and
	// this call was a no-op returning the original ID.
	Duplicate bool
	// Partial means the customer-side copy exists but the global-table copy
	// is pending reconciliation. Customer-facing callers still treat this as
	// success.
	Partial bool
}

// PlaceOrder commits a cash-on-delivery order. There is no client-supplied
// idempotency key on this path, so retries can create duplicate orders.
func (s *CommitService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*CommitResult, error) {
	ctx, span := util.StartSpan(ctx, "CommitService.PlaceOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CommitLatency.Observe(time.Since(start).Seconds())
	}()

	order, err := s.builder.Build(BuildInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Items:         toLineItems(req.Items),
		Total:         req.Total,
		Address:       req.Address,
		PaymentMethod: strings.ToLower(req.PaymentMethod),
	})
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	return s.commit(ctx, order)
}

// VerifyPayment verifies a gateway payment proof and, on success, commits
// the order with payment method gateway. A repeated call carrying a gateway
// payment ID that already produced an order is a no-op returning the
// original order ID.
func (s *CommitService) VerifyPayment(ctx context.Context, req *VerifyPaymentRequest) (*CommitResult, error) {
	ctx, span := util.StartSpan(ctx, "CommitService.VerifyPayment")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CommitLatency.Observe(time.Since(start).Seconds())
	}()

	// The signature check gates everything: a forged callback must leave no
	// trace beyond the audit event.
	if !s.verifier.Verify(req.GatewayOrderID, req.GatewayPaymentID, req.GatewaySignature) {
		util.PaymentVerificationsTotal.WithLabelValues("rejected").Inc()
		s.logger.Warn("Payment signature mismatch",
			zap.String("gateway_order_id", req.GatewayOrderID),
			zap.String("gateway_payment_id", req.GatewayPaymentID))
		s.publishPaymentRejected(ctx, req)
		return nil, &models.PaymentRejectedError{
			GatewayOrderID:   req.GatewayOrderID,
			GatewayPaymentID: req.GatewayPaymentID,
		}
	}
	util.PaymentVerificationsTotal.WithLabelValues("verified").Inc()

	// Durable dedupe: the gateway payment ID is the natural idempotency key.
	if existing, err := s.findCommittedOrder(ctx, req.GatewayPaymentID); err != nil {
		util.StageError("IDEMPOTENCY_LOOKUP", "", err)
		return nil, err
	} else if existing != nil {
		util.DuplicatePaymentsTotal.Inc()
		s.logger.Info("Duplicate payment verification, returning original order",
			zap.String("gateway_payment_id", req.GatewayPaymentID),
			zap.String("order_id", existing.OrderID))
		return &CommitResult{
			OrderID:   existing.OrderID,
			PaymentID: req.GatewayPaymentID,
			Duplicate: true,
		}, nil
	}

	// Fast-path claim guards two verify calls racing before either commits.
	// Redis being down must not block commits; the durable lookup above
	// remains the authority.
	claimed := true
	if s.claims != nil {
		ok, err := s.claims.ClaimPayment(ctx, req.GatewayPaymentID, s.claimTTL)
		if err != nil {
			s.logger.Warn("Payment claim check failed, proceeding on DB lookup only",
				zap.Error(err))
		} else {
			claimed = ok
		}
	}
	if !claimed {
		if existing, err := s.findCommittedOrder(ctx, req.GatewayPaymentID); err == nil && existing != nil {
			util.DuplicatePaymentsTotal.Inc()
			return &CommitResult{OrderID: existing.OrderID, PaymentID: req.GatewayPaymentID, Duplicate: true}, nil
		}
		return nil, fmt.Errorf("payment %s is already being processed", req.GatewayPaymentID)
	}

	order, err := s.builder.Build(BuildInput{
		CustomerName:     req.OrderDetails.CustomerName,
		CustomerPhone:    req.OrderDetails.CustomerPhone,
		CustomerEmail:    req.OrderDetails.CustomerEmail,
		Items:            toLineItems(req.OrderDetails.Items),
		Total:            req.OrderDetails.Total,
		Address:          req.OrderDetails.Address,
		PaymentMethod:    models.PaymentMethodGateway,
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
	})
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_input").Inc()
		s.releaseClaim(ctx, req.GatewayPaymentID)
		return nil, err
	}

	result, err := s.commit(ctx, order)
	if result == nil {
		// nothing durable was written on the customer side; let a retry in
		s.releaseClaim(ctx, req.GatewayPaymentID)
		return nil, err
	}
	result.PaymentID = req.GatewayPaymentID
	return result, err
}

// findCommittedOrder looks up an order by gateway payment ID in the global
// table first, then in the customer history log. The customer-side check
// closes the partial-commit window: until reconciliation replays the order
// into the global table it exists only on the customer side, and a verify
// retry arriving in that window must find it there, not commit a second
// order.
func (s *CommitService) findCommittedOrder(ctx context.Context, paymentID string) (*models.Order, error) {
	order, err := s.store.GetOrderByGatewayPaymentID(ctx, paymentID)
	if err != nil {
		return nil, &models.StoreWriteError{Store: "global", Err: err}
	}
	if order != nil {
		return order, nil
	}
	order, err = s.store.GetCustomerOrderByGatewayPaymentID(ctx, paymentID)
	if err != nil {
		return nil, &models.StoreWriteError{Store: "customer", Err: err}
	}
	return order, nil
}

// commit runs the dual write and classifies the outcome. On a partial
// commit the result carries the usable order ID alongside the error so the
// HTTP layer can report success while operator tooling sees the flag.
func (s *CommitService) commit(ctx context.Context, order *models.Order) (*CommitResult, error) {
	err := s.writer.Write(ctx, order)
	if err == nil {
		util.OrdersPlacedTotal.WithLabelValues(order.PaymentMethod).Inc()
		s.logger.Info("Order committed",
			zap.String("order_id", order.OrderID),
			zap.String("payment_method", order.PaymentMethod),
			zap.Int64("total", order.Total))
		s.publishOrderPlaced(ctx, order)
		return &CommitResult{OrderID: order.OrderID}, nil
	}

	var partial *models.PartialCommitError
	if errors.As(err, &partial) {
		s.logger.Warn("Order committed to customer history only, flagged for reconciliation",
			zap.String("order_id", order.OrderID))
		return &CommitResult{OrderID: order.OrderID, Partial: true}, err
	}

	var timeout *models.StoreTimeoutError
	if errors.As(err, &timeout) {
		util.OrdersFailedTotal.WithLabelValues("store_timeout").Inc()
	} else {
		util.OrdersFailedTotal.WithLabelValues("store_write").Inc()
	}
	return nil, err
}

func (s *CommitService) publishOrderPlaced(ctx context.Context, order *models.Order) {
	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:       order.OrderID,
		CustomerPhone: order.CustomerPhone,
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
	}
	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}
}

func (s *CommitService) publishPaymentRejected(ctx context.Context, req *VerifyPaymentRequest) {
	event := &models.PaymentRejectedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentRejected,
			Timestamp: time.Now(),
		},
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
	}
	if err := s.publisher.PublishPaymentRejected(ctx, event); err != nil {
		s.logger.Error("Failed to publish PaymentRejected event", zap.Error(err))
	}
}

func (s *CommitService) releaseClaim(ctx context.Context, paymentID string) {
	if s.claims == nil {
		return
	}
	if err := s.claims.ReleasePayment(ctx, paymentID); err != nil {
		s.logger.Warn("Failed to release payment claim",
			zap.String("gateway_payment_id", paymentID),
			zap.Error(err))
	}
}

func toLineItems(items []LineItemRequest) models.LineItems {
	out := make(models.LineItems, 0, len(items))
	for _, item := range items {
		out = append(out, models.LineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	return out
}
