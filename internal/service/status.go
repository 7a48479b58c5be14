package service

import (
	"context"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatusService applies operator status transitions to both copies of an
// order. The global table is the source of truth; the customer-side copy is
// a cache refreshed here.
type StatusService struct {
	store     OrderStore
	publisher EventPublisher
	logger    *zap.Logger
}

// NewStatusService creates a new status propagator.
func NewStatusService(store OrderStore, publisher EventPublisher) *StatusService {
	return &StatusService{
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// UpdateStatus applies newStatus to the order in the global table and then
// to the matching entry in the owning customer's history, matched by order
// ID. An unknown status touches neither store; an order ID matching nothing
// in the global table fails without publishing an event. A customer-side
// miss (for example an order never reconciled after a partial commit) is
// logged as a divergence, not retried.
func (s *StatusService) UpdateStatus(ctx context.Context, orderID, newStatus string) error {
	ctx, span := util.StartSpan(ctx, "StatusService.UpdateStatus")
	defer span.End()

	if orderID == "" {
		return &models.ValidationError{Field: "orderId", Reason: "required"}
	}
	if !models.ValidStatus(newStatus) {
		return &models.ValidationError{Field: "status", Reason: "unknown status value"}
	}

	matched, err := s.store.UpdateOrderStatus(ctx, orderID, newStatus)
	if err != nil {
		util.StageError("STATUS_GLOBAL_WRITE", orderID, err)
		return &models.StoreWriteError{Store: "global", Err: err}
	}
	if matched == 0 {
		// unknown order: nothing was updated and no event may be published
		return &models.ValidationError{Field: "orderId", Reason: "order not found"}
	}

	matched, err = s.store.UpdateCustomerOrderStatus(ctx, orderID, newStatus)
	if err != nil {
		// global copy already moved; log and keep the divergence visible
		util.StageError("STATUS_CUSTOMER_WRITE", orderID, err)
		util.StatusDivergencesTotal.Inc()
	} else if matched == 0 {
		s.logger.Warn("Status update missed the customer-side copy",
			zap.String("order_id", orderID),
			zap.String("status", newStatus))
		util.StatusDivergencesTotal.Inc()
	}

	util.StatusUpdatesTotal.WithLabelValues(newStatus).Inc()
	s.logger.Info("Order status updated",
		zap.String("order_id", orderID),
		zap.String("status", newStatus))

	event := &models.StatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeStatusChanged,
			Timestamp: time.Now(),
		},
		OrderID: orderID,
		Status:  newStatus,
	}
	if err := s.publisher.PublishStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish StatusChanged event", zap.Error(err))
	}

	return nil
}
