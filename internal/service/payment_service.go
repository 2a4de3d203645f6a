package service

import (
	"context"
	"fmt"
	"sync"

	"duck-storefront/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentCapturer captures and voids payment for a checkout
type PaymentCapturer interface {
	Capture(ctx context.Context, accountID int64, card string, amount decimal.Decimal) (string, error)
	Void(ctx context.Context, ref string) error
}

// PaymentService is a stand-in capture step. No processor is contacted; every capture is
// approved with a generated reference. The card number was already checked by the form.
type PaymentService struct {
	mu       sync.Mutex
	captured map[string]decimal.Decimal
	logger   *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService() *PaymentService {
	return &PaymentService{
		captured: make(map[string]decimal.Decimal),
		logger:   util.GetLogger(),
	}
}

// Capture approves the amount against the card
func (ps *PaymentService) Capture(ctx context.Context, accountID int64, card string, amount decimal.Decimal) (string, error) {
	_, span := util.StartSpan(ctx, "PaymentService.Capture")
	defer span.End()

	if amount.IsZero() {
		return "", nil
	}

	ref := fmt.Sprintf("TXN-%s", uuid.New().String()[:8])
	ps.mu.Lock()
	ps.captured[ref] = amount
	ps.mu.Unlock()

	ps.logger.Info("Payment captured",
		zap.Int64("account_id", accountID),
		zap.String("tx_id", ref),
		zap.String("card_last4", lastFour(card)),
		zap.String("amount", amount.StringFixed(2)))
	return ref, nil
}

// Void releases a capture whose settlement did not go through
func (ps *PaymentService) Void(ctx context.Context, ref string) error {
	_, span := util.StartSpan(ctx, "PaymentService.Void")
	defer span.End()

	if ref == "" {
		return nil
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	if _, ok := ps.captured[ref]; !ok {
		return fmt.Errorf("failed to void %s: unknown capture", ref)
	}
	delete(ps.captured, ref)
	ps.logger.Info("Payment voided", zap.String("tx_id", ref))
	return nil
}

func lastFour(card string) string {
	if len(card) < 4 {
		return card
	}
	return card[len(card)-4:]
}
