package worker

import (
	"context"

	"duck-storefront/internal/broker"
	"duck-storefront/internal/models"
	"duck-storefront/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ReceiptHandler is what the worker feeds storefront events into
type ReceiptHandler interface {
	HandleReceiptIssued(ctx context.Context, event *models.ReceiptIssuedEvent) error
	HandleCartAdjusted(ctx context.Context, event *models.CartAdjustedEvent) error
}

// messageSource is the consumer side the worker reads from
type messageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// ReceiptWorker records issued receipts into the history store
type ReceiptWorker struct {
	consumer     messageSource
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewReceiptWorker creates a new receipt worker
func NewReceiptWorker(consumer messageSource, handler ReceiptHandler) *ReceiptWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnReceiptIssued(handler.HandleReceiptIssued)
	eventHandler.OnCartAdjusted(handler.HandleCartAdjusted)

	return &ReceiptWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start consumes until ctx is cancelled
func (w *ReceiptWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting receipt worker...")
	return w.consumer.StartConsuming(ctx, w.handle)
}

func (w *ReceiptWorker) handle(ctx context.Context, msg kafka.Message) error {
	if err := w.eventHandler.HandleMessage(ctx, msg); err != nil {
		w.logger.Error("Failed to handle event",
			zap.String("key", string(msg.Key)),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return err
	}
	return nil
}

// Stop stops the worker
func (w *ReceiptWorker) Stop() error {
	w.logger.Info("Stopping receipt worker...")
	return w.consumer.Close()
}
