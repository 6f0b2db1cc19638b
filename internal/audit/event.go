package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderDeleted       = "order.deleted"
	EventStockAdjusted      = "stock.adjusted"
	EventCustomerRegistered = "customer.registered"
)

// Event is a domain fact emitted after its transaction commits.
type Event struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	EntityKey string                 `json:"entity_key"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewEvent stamps an id and time onto a fresh event.
func NewEvent(eventType, entityKey string, payload map[string]interface{}) Event {
	return Event{
		EventID:   uuid.NewString(),
		EventType: eventType,
		EntityKey: entityKey,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Recorder never fails the caller; delivery problems are logged.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// LogRecorder writes events to the structured log only.
type LogRecorder struct{}

func NewLogRecorder() *LogRecorder {
	return &LogRecorder{}
}

func (LogRecorder) Record(_ context.Context, event Event) {
	log.Info().
		Str("event_id", event.EventID).
		Str("event_type", event.EventType).
		Str("entity_key", event.EntityKey).
		Fields(event.Payload).
		Msg("Audit event")
}

// NopRecorder discards events.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Event) {}
