package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"storefront-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderPlaced publishes an OrderPlaced event
func (ep *EventPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	return ep.producer.PublishEvent(ctx, event.OrderID, event)
}

// PublishPartialCommit publishes a PartialCommit event
func (ep *EventPublisher) PublishPartialCommit(ctx context.Context, event *models.PartialCommitEvent) error {
	return ep.producer.PublishEvent(ctx, event.OrderID, event)
}

// PublishStatusChanged publishes a StatusChanged event
func (ep *EventPublisher) PublishStatusChanged(ctx context.Context, event *models.StatusChangedEvent) error {
	return ep.producer.PublishEvent(ctx, event.OrderID, event)
}

// PublishPaymentRejected publishes a PaymentRejected event
func (ep *EventPublisher) PublishPaymentRejected(ctx context.Context, event *models.PaymentRejectedEvent) error {
	key := fmt.Sprintf("payment-%s", event.GatewayPaymentID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming events to registered handlers
type EventHandler struct {
	onPartialCommit func(context.Context, *models.PartialCommitEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnPartialCommit registers a handler for PartialCommit events
func (eh *EventHandler) OnPartialCommit(handler func(context.Context, *models.PartialCommitEvent) error) {
	eh.onPartialCommit = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypePartialCommit:
		if eh.onPartialCommit != nil {
			var event models.PartialCommitEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PartialCommit event: %w", err)
			}
			return eh.onPartialCommit(ctx, &event)
		}

	default:
		// ORDER_PLACED, ORDER_STATUS_CHANGED and PAYMENT_REJECTED are for
		// downstream consumers; this service only acts on partial commits.
	}

	return nil
}
