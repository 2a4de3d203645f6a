package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"duck-storefront/internal/models"
	"duck-storefront/internal/notify"
	"duck-storefront/internal/session"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReceiptStore struct {
	seen     map[string]bool
	receipts []models.Receipt
	err      error
}

func (s *stubReceiptStore) SaveReceipt(_ context.Context, eventID string, receipt *models.Receipt) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.seen[eventID] {
		return false, nil
	}
	s.seen[eventID] = true
	s.receipts = append(s.receipts, *receipt)
	return true, nil
}

func (s *stubReceiptStore) GetReceiptsByAccountID(_ context.Context, accountID int64, limit int) ([]models.Receipt, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Receipt
	for _, r := range s.receipts {
		if r.AccountID == accountID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func receiptEvent(eventID string) *models.ReceiptIssuedEvent {
	return &models.ReceiptIssuedEvent{
		BaseEvent: models.BaseEvent{EventID: eventID, EventType: models.EventTypeReceiptIssued, Timestamp: time.Now()},
		Receipt: models.Receipt{
			ID:        uuid.New(),
			AccountID: buyer.ID,
			Cart:      &models.Cart{ID: buyer.ID, Items: map[int64]int{5: 2}},
			Total:     decimal.RequireFromString("9.00"),
			IssuedAt:  time.Now(),
		},
	}
}

func TestReceiptRecordedOncePerEvent(t *testing.T) {
	store := &stubReceiptStore{seen: map[string]bool{}}
	rs := NewReceiptService(store)
	ctx := context.Background()

	event := receiptEvent("evt-1")
	require.NoError(t, rs.HandleReceiptIssued(ctx, event))
	require.NoError(t, rs.HandleReceiptIssued(ctx, event))
	assert.Len(t, store.receipts, 1)

	store.err = errors.New("db down")
	assert.Error(t, rs.HandleReceiptIssued(ctx, receiptEvent("evt-2")))
}

func TestReceiptHistory(t *testing.T) {
	store := &stubReceiptStore{seen: map[string]bool{}}
	rs := NewReceiptService(store)
	ctx := context.Background()
	require.NoError(t, rs.HandleReceiptIssued(ctx, receiptEvent("evt-1")))

	sink := notify.NewRecorder()
	receipts, err := rs.History(ctx, sessionFor(buyer), sink)
	require.NoError(t, err)
	assert.Len(t, receipts, 1)

	_, err = rs.History(ctx, mo.None[session.Session](), sink)
	assert.ErrorIs(t, err, session.ErrUnauthenticated)
	assert.Len(t, sink.Messages(notify.LevelError), 1)
}
