package worker

import (
	"context"
	"log"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/service"
)

// ReconcileWorker repairs partial commits in the background: it consumes
// partial-commit events and replays the customer-side copy into the global
// table.
type ReconcileWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	reconciler   *service.Reconciler
}

// NewReconcileWorker creates a new reconciliation worker.
func NewReconcileWorker(consumer *broker.Consumer, reconciler *service.Reconciler) *ReconcileWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnPartialCommit(func(ctx context.Context, event *models.PartialCommitEvent) error {
		return reconciler.Reconcile(ctx, event.OrderID)
	})

	return &ReconcileWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		reconciler:   reconciler,
	}
}

// Start starts the worker
func (w *ReconcileWorker) Start(ctx context.Context) error {
	log.Println("Starting reconciliation worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ReconcileWorker) Stop() error {
	log.Println("Stopping reconciliation worker...")
	return w.consumer.Close()
}
