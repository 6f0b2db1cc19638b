package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"
)

const (
	defaultQueueSize = 256
	sendTimeout      = 2 * time.Second
)

// KafkaPublisher ships audit events to a single topic, keyed by entity so
// events for one order stay on one partition. Record only enqueues; a single
// worker does the sends, and events are dropped while the queue is full.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string

	mu      sync.RWMutex
	closed  bool
	queue   chan Event
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

// NewKafkaPublisher dials the brokers with a synchronous producer whose sends
// are bounded by short network and broker timeouts.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 1
	config.Producer.Retry.Backoff = 100 * time.Millisecond
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Timeout = sendTimeout
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1000000
	config.Net.DialTimeout = sendTimeout
	config.Net.ReadTimeout = sendTimeout
	config.Net.WriteTimeout = sendTimeout
	config.Metadata.Retry.Max = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Info().
		Strs("brokers", brokers).
		Str("topic", topic).
		Msg("Kafka audit publisher initialized")

	return NewKafkaPublisherWithProducer(producer, topic), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return newKafkaPublisher(producer, topic, defaultQueueSize)
}

func newKafkaPublisher(producer sarama.SyncProducer, topic string, queueSize int) *KafkaPublisher {
	p := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		queue:    make(chan Event, queueSize),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *KafkaPublisher) run() {
	defer p.wg.Done()
	for event := range p.queue {
		if err := p.publish(event); err != nil {
			log.Error().
				Err(err).
				Str("topic", p.topic).
				Str("event_id", event.EventID).
				Str("event_type", event.EventType).
				Msg("Failed to publish audit event")
		}
	}
}

func (p *KafkaPublisher) Record(_ context.Context, event Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- event:
	default:
		p.dropped.Add(1)
		log.Warn().
			Str("event_id", event.EventID).
			Str("event_type", event.EventType).
			Msg("Audit queue full, event dropped")
	}
}

// Dropped reports how many events were discarded because the queue was full.
func (p *KafkaPublisher) Dropped() uint64 {
	return p.dropped.Load()
}

func (p *KafkaPublisher) publish(event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.EntityKey),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.EventType)},
			{Key: []byte("event_id"), Value: []byte(event.EventID)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	log.Debug().
		Str("event_id", event.EventID).
		Str("event_type", event.EventType).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Audit event published")
	return nil
}

// Close stops accepting events, flushes the queue and closes the producer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
