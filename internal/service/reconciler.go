package service

import (
	"context"
	"fmt"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// Reconciler repairs partial commits by replaying the customer-side copy of
// an order into the global table.
type Reconciler struct {
	store  OrderStore
	logger *zap.Logger
}

// NewReconciler creates a new reconciler.
func NewReconciler(store OrderStore) *Reconciler {
	return &Reconciler{
		store:  store,
		logger: util.GetLogger(),
	}
}

// Reconcile copies the customer-side order identified by orderID into the
// global table if it is missing there, then resolves the queue entry. Safe
// to call for an order that was already repaired.
func (r *Reconciler) Reconcile(ctx context.Context, orderID string) error {
	ctx, span := util.StartSpan(ctx, "Reconciler.Reconcile")
	defer span.End()

	source, err := r.store.GetCustomerOrder(ctx, orderID)
	if err != nil {
		util.ReconciliationsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to load customer-side order %s: %w", orderID, err)
	}
	if source == nil {
		util.ReconciliationsTotal.WithLabelValues("missing_source").Inc()
		return fmt.Errorf("no customer-side copy of order %s to replay", orderID)
	}

	existing, err := r.store.GetOrderByID(ctx, orderID)
	if err != nil {
		util.ReconciliationsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to check global table for order %s: %w", orderID, err)
	}

	if existing == nil {
		if err := r.store.InsertOrder(ctx, source); err != nil {
			util.ReconciliationsTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("failed to replay order %s into global table: %w", orderID, err)
		}
		r.logger.Info("Replayed order into global table",
			zap.String("order_id", orderID))
	}

	if err := r.store.ResolveReconciliation(ctx, orderID); err != nil {
		r.logger.Error("Failed to resolve reconciliation entry",
			zap.String("order_id", orderID),
			zap.Error(err))
	}

	util.ReconciliationsTotal.WithLabelValues("repaired").Inc()
	return nil
}

// Pending lists orders still flagged for repair, oldest first.
func (r *Reconciler) Pending(ctx context.Context) ([]models.Reconciliation, error) {
	return r.store.PendingReconciliations(ctx)
}
