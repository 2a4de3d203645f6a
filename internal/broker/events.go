package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"duck-storefront/internal/models"
	"duck-storefront/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// publisher is the producer side the event publisher needs
type publisher interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing storefront events
type EventPublisher struct {
	producer publisher
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer publisher) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func accountKey(accountID int64) string {
	return fmt.Sprintf("account-%d", accountID)
}

// PublishReceiptIssued publishes ReceiptIssued event
func (ep *EventPublisher) PublishReceiptIssued(ctx context.Context, event *models.ReceiptIssuedEvent) error {
	return ep.producer.PublishEvent(ctx, accountKey(event.Receipt.AccountID), event)
}

// PublishCartAdjusted publishes CartAdjusted event
func (ep *EventPublisher) PublishCartAdjusted(ctx context.Context, event *models.CartAdjustedEvent) error {
	return ep.producer.PublishEvent(ctx, accountKey(event.AccountID), event)
}

// EventHandler routes incoming events
type EventHandler struct {
	onReceiptIssued func(context.Context, *models.ReceiptIssuedEvent) error
	onCartAdjusted  func(context.Context, *models.CartAdjustedEvent) error
	logger          *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnReceiptIssued registers a handler for ReceiptIssued events
func (eh *EventHandler) OnReceiptIssued(handler func(context.Context, *models.ReceiptIssuedEvent) error) {
	eh.onReceiptIssued = handler
}

// OnCartAdjusted registers a handler for CartAdjusted events
func (eh *EventHandler) OnCartAdjusted(handler func(context.Context, *models.CartAdjustedEvent) error) {
	eh.onCartAdjusted = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeReceiptIssued:
		if eh.onReceiptIssued != nil {
			var event models.ReceiptIssuedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ReceiptIssued event: %w", err)
			}
			return eh.onReceiptIssued(ctx, &event)
		}

	case models.EventTypeCartAdjusted:
		if eh.onCartAdjusted != nil {
			var event models.CartAdjustedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal CartAdjusted event: %w", err)
			}
			return eh.onCartAdjusted(ctx, &event)
		}

	default:
		eh.logger.Debug("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
