package service

import (
	"context"
	"errors"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DualWriter commits one order into the two persistence targets: the
// customer's own history log first, then the global order table. The two
// writes are independent; there is no cross-store transaction and
// reconciliation is eventual.
type DualWriter struct {
	store        OrderStore
	publisher    EventPublisher
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewDualWriter creates a new dual-store writer.
func NewDualWriter(store OrderStore, publisher EventPublisher, writeTimeout time.Duration) *DualWriter {
	return &DualWriter{
		store:        store,
		publisher:    publisher,
		writeTimeout: writeTimeout,
		logger:       util.GetLogger(),
	}
}

// Write persists the order into both stores.
//
// Failure policy:
//   - customer write fails: the whole commit fails, no order ID reaches the
//     client. Returns StoreWriteError or StoreTimeoutError for store "customer".
//   - customer write succeeds, global write fails: the order is placed from
//     the customer's standpoint. The order ID is enqueued for reconciliation,
//     a partial-commit event is published, and PartialCommitError is returned
//     so the orchestrator can flag the order while still reporting success.
func (w *DualWriter) Write(ctx context.Context, order *models.Order) error {
	ctx, span := util.StartSpan(ctx, "DualWriter.Write")
	defer span.End()

	if err := w.timedWrite(ctx, "customer", func(wctx context.Context) error {
		return w.store.AppendCustomerOrder(wctx, order)
	}); err != nil {
		util.StageError("CUSTOMER_WRITE", order.OrderID, err)
		return err
	}

	if err := w.timedWrite(ctx, "global", func(wctx context.Context) error {
		return w.store.InsertOrder(wctx, order)
	}); err != nil {
		util.StageError("GLOBAL_WRITE", order.OrderID, err)
		w.flagPartialCommit(ctx, order, err)
		return &models.PartialCommitError{OrderID: order.OrderID, Err: err}
	}

	return nil
}

// timedWrite runs one store write under a bounded timeout and classifies the
// failure. A deadline hit means the outcome is unknown and must not be
// blindly retried; any other failure is a definite, retryable write error.
func (w *DualWriter) timedWrite(ctx context.Context, store string, write func(context.Context) error) error {
	wctx, cancel := context.WithTimeout(ctx, w.writeTimeout)
	defer cancel()

	start := time.Now()
	err := write(wctx)
	util.StoreWriteLatency.WithLabelValues(store).Observe(time.Since(start).Seconds())

	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || wctx.Err() == context.DeadlineExceeded {
		return &models.StoreTimeoutError{Store: store}
	}
	return &models.StoreWriteError{Store: store, Err: err}
}

// flagPartialCommit records the inconsistent order for operator repair. Both
// actions are best effort: the customer-side copy already exists, so the
// commit is reported as placed regardless.
func (w *DualWriter) flagPartialCommit(ctx context.Context, order *models.Order, cause error) {
	util.PartialCommitsTotal.Inc()

	if err := w.store.EnqueueReconciliation(ctx, order.OrderID, cause.Error()); err != nil {
		w.logger.Error("Failed to enqueue reconciliation",
			zap.String("order_id", order.OrderID),
			zap.Error(err))
	}

	event := &models.PartialCommitEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePartialCommit,
			Timestamp: time.Now(),
		},
		OrderID:       order.OrderID,
		CustomerPhone: order.CustomerPhone,
		Reason:        cause.Error(),
	}
	if err := w.publisher.PublishPartialCommit(ctx, event); err != nil {
		w.logger.Error("Failed to publish PartialCommit event",
			zap.String("order_id", order.OrderID),
			zap.Error(err))
	}
}
