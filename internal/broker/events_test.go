package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"duck-storefront/internal/models"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedEvent struct {
	key   string
	event interface{}
}

type fakeProducer struct {
	published []capturedEvent
}

func (f *fakeProducer) PublishEvent(_ context.Context, key string, event interface{}) error {
	f.published = append(f.published, capturedEvent{key: key, event: event})
	return nil
}

func TestPublishKeysByAccount(t *testing.T) {
	producer := &fakeProducer{}
	publisher := NewEventPublisher(producer)

	err := publisher.PublishReceiptIssued(context.Background(), &models.ReceiptIssuedEvent{
		Receipt: models.Receipt{AccountID: 4},
	})
	require.NoError(t, err)
	err = publisher.PublishCartAdjusted(context.Background(), &models.CartAdjustedEvent{AccountID: 4})
	require.NoError(t, err)

	require.Len(t, producer.published, 2)
	assert.Equal(t, "account-4", producer.published[0].key)
	assert.Equal(t, "account-4", producer.published[1].key)
}

func TestHandleMessageRoutesReceipts(t *testing.T) {
	receiptID := uuid.New()
	event := models.ReceiptIssuedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeReceiptIssued,
			Timestamp: time.Now(),
		},
		Receipt: models.Receipt{ID: receiptID, AccountID: 1},
	}
	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var got *models.ReceiptIssuedEvent
	handler := NewEventHandler()
	handler.OnReceiptIssued(func(_ context.Context, e *models.ReceiptIssuedEvent) error {
		got = e
		return nil
	})

	require.NoError(t, handler.HandleMessage(context.Background(), kafka.Message{Value: raw}))
	require.NotNil(t, got)
	assert.Equal(t, receiptID, got.Receipt.ID)

	assert.NoError(t, handler.HandleMessage(context.Background(), kafka.Message{Value: []byte(`{"event_type":"SOMETHING_ELSE"}`)}))
	assert.Error(t, handler.HandleMessage(context.Background(), kafka.Message{Value: []byte(`not json`)}))
}
