package service

import (
	"context"
	"fmt"

	"duck-storefront/internal/models"
	"duck-storefront/internal/notify"
	"duck-storefront/internal/session"
	"duck-storefront/internal/util"

	"github.com/samber/mo"
	"go.uber.org/zap"
)

const receiptHistoryLimit = 50

// ReceiptStore is the receipt history the service writes and reads
type ReceiptStore interface {
	SaveReceipt(ctx context.Context, eventID string, receipt *models.Receipt) (bool, error)
	GetReceiptsByAccountID(ctx context.Context, accountID int64, limit int) ([]models.Receipt, error)
}

// ReceiptService records issued receipts and serves a buyer's history
type ReceiptService struct {
	store  ReceiptStore
	logger *zap.Logger
}

// NewReceiptService creates a new receipt service
func NewReceiptService(store ReceiptStore) *ReceiptService {
	return &ReceiptService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// HandleReceiptIssued records the receipt once per event
func (rs *ReceiptService) HandleReceiptIssued(ctx context.Context, event *models.ReceiptIssuedEvent) error {
	ctx, span := util.StartSpan(ctx, "ReceiptService.HandleReceiptIssued")
	defer span.End()

	recorded, err := rs.store.SaveReceipt(ctx, event.EventID, &event.Receipt)
	if err != nil {
		util.FailSpan(span, err)
		return fmt.Errorf("failed to record receipt: %w", err)
	}
	if !recorded {
		rs.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	util.ReceiptsRecordedTotal.Inc()
	rs.logger.Info("Receipt recorded",
		zap.String("receipt_id", event.Receipt.ID.String()),
		zap.Int64("account_id", event.Receipt.AccountID),
		zap.String("total", event.Receipt.Total.StringFixed(2)))
	return nil
}

// HandleCartAdjusted logs the correction for audit
func (rs *ReceiptService) HandleCartAdjusted(_ context.Context, event *models.CartAdjustedEvent) error {
	rs.logger.Info("Cart adjusted by stock validation",
		zap.String("event_id", event.EventID),
		zap.Int64("account_id", event.AccountID),
		zap.Any("before", event.Before),
		zap.Any("after", event.After))
	return nil
}

// History lists the buyer's receipts, newest first
func (rs *ReceiptService) History(ctx context.Context, current mo.Option[session.Session], sink notify.Sink) ([]models.Receipt, error) {
	ctx, span := util.StartSpan(ctx, "ReceiptService.History")
	defer span.End()

	s, err := session.Require(current, session.RoleBuyer)
	if err != nil {
		sink.Error(fmt.Sprintf(msgNotAuthorized, "/receipts"))
		return nil, err
	}

	receipts, err := rs.store.GetReceiptsByAccountID(ctx, s.AccountID(), receiptHistoryLimit)
	if err != nil {
		util.FailSpan(span, err)
		rs.logger.Error("Failed to load receipts", zap.Int64("account_id", s.AccountID()), zap.Error(err))
		sink.Error(msgGenericFailure)
		return nil, err
	}
	return receipts, nil
}
