package store

import (
	"context"
	"encoding/json"
	"fmt"

	"duck-storefront/internal/models"
)

// SaveReceipt records a receipt and marks its event processed in one transaction.
// Replaying the same event is a no-op.
func (s *Store) SaveReceipt(ctx context.Context, eventID string, receipt *models.Receipt) (bool, error) {
	body, err := json.Marshal(receipt)
	if err != nil {
		return false, fmt.Errorf("failed to marshal receipt: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, models.EventTypeReceiptIssued)
	if err != nil {
		return false, fmt.Errorf("failed to mark event processed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO receipts (id, account_id, body, total, issued_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		receipt.ID, receipt.AccountID, body, receipt.Total, receipt.IssuedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert receipt: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// GetReceiptsByAccountID lists an account's receipts, newest first
func (s *Store) GetReceiptsByAccountID(ctx context.Context, accountID int64, limit int) ([]models.Receipt, error) {
	var rows []models.StoredReceipt
	err := s.db.SelectContext(ctx, &rows,
		"SELECT id, account_id, body, total, issued_at FROM receipts WHERE account_id = $1 ORDER BY issued_at DESC LIMIT $2",
		accountID, limit)
	if err != nil {
		return nil, err
	}

	receipts := make([]models.Receipt, 0, len(rows))
	for _, row := range rows {
		var r models.Receipt
		if err := json.Unmarshal(row.Body, &r); err != nil {
			return nil, fmt.Errorf("failed to decode receipt %s: %w", row.ID, err)
		}
		receipts = append(receipts, r)
	}
	return receipts, nil
}
