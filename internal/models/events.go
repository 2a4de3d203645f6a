package models

import "time"

// Event types
const (
	EventTypeReceiptIssued = "RECEIPT_ISSUED"
	EventTypeCartAdjusted  = "CART_ADJUSTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ReceiptIssuedEvent published when a checkout reaches its receipt
type ReceiptIssuedEvent struct {
	BaseEvent
	Receipt Receipt `json:"receipt"`
}

// CartAdjustedEvent published when validation replaced the buyer's cart
type CartAdjustedEvent struct {
	BaseEvent
	AccountID int64         `json:"account_id"`
	Before    map[int64]int `json:"before"`
	After     map[int64]int `json:"after"`
}
