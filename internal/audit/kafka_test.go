package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaPublisherSendsKeyedEvent(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "ORD1A2B3C4D", string(key))
		assert.Equal(t, "order-events", msg.Topic)

		raw, err := msg.Value.Encode()
		require.NoError(t, err)
		var decoded Event
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, EventOrderCreated, decoded.EventType)
		assert.NotEmpty(t, decoded.EventID)
		return nil
	})

	pub := NewKafkaPublisherWithProducer(producer, "order-events")
	pub.Record(context.Background(), NewEvent(EventOrderCreated, "ORD1A2B3C4D", map[string]interface{}{"type": "sales"}))
	require.NoError(t, pub.Close())
}

func TestKafkaPublisherSwallowsSendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(errors.New("broker down"))

	pub := NewKafkaPublisherWithProducer(producer, "order-events")
	assert.NotPanics(t, func() {
		pub.Record(context.Background(), NewEvent(EventStockAdjusted, "42", nil))
	})
	require.NoError(t, pub.Close())
}

type stalledProducer struct {
	sarama.SyncProducer
	release chan struct{}
	sent    atomic.Int32
}

func (p *stalledProducer) SendMessage(*sarama.ProducerMessage) (int32, int64, error) {
	<-p.release
	p.sent.Add(1)
	return 0, 0, nil
}

func (p *stalledProducer) Close() error { return nil }

func TestKafkaPublisherDoesNotBlockOnStalledBroker(t *testing.T) {
	producer := &stalledProducer{release: make(chan struct{})}
	pub := newKafkaPublisher(producer, "order-events", 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			pub.Record(context.Background(), NewEvent(EventOrderCreated, "ORD0000000"+string(rune('1'+i)), nil))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record waited on the producer")
	}

	close(producer.release)
	require.NoError(t, pub.Close())
	// One event in flight and one queued at most; the rest are dropped.
	assert.GreaterOrEqual(t, pub.Dropped(), uint64(3))
	assert.Equal(t, int32(5-pub.Dropped()), producer.sent.Load())

	pub.Record(context.Background(), NewEvent(EventOrderDeleted, "ORD00000009", nil))
	assert.Equal(t, int32(5-pub.Dropped()), producer.sent.Load())
}
