package telemetry

import (
	"context"
	"log"
	"time"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// PresenceEmitter publishes participant lifecycle events to the event bus.
type PresenceEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
}

type PresenceEnvelope struct {
	SchemaVersion int             `json:"schema_version"`
	EventType     string          `json:"event_type"`
	OccurredAt    string          `json:"occurred_at"`
	Service       string          `json:"service"`
	Environment   string          `json:"environment"`
	RequestID     string          `json:"request_id,omitempty"`
	Payload       PresencePayload `json:"payload"`
}

type PresencePayload struct {
	Action      string `json:"action"`
	Participant string `json:"participant"`
}

func NewPresenceEmitter(publisher Publisher, routingKey, service, environment string) *PresenceEmitter {
	return &PresenceEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

// EmitJoined records a successful registration.
func (e *PresenceEmitter) EmitJoined(ctx context.Context, name, requestID string) {
	e.emit(ctx, "participant_joined", name, requestID)
}

// EmitEvicted records a sweep eviction. Evictions are not request-scoped.
func (e *PresenceEmitter) EmitEvicted(ctx context.Context, name string) {
	e.emit(ctx, "participant_evicted", name, "")
}

func (e *PresenceEmitter) emit(ctx context.Context, action, name, requestID string) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := PresenceEnvelope{
		SchemaVersion: 1,
		EventType:     "presence",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		Payload: PresencePayload{
			Action:      action,
			Participant: name,
		},
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		log.Printf("presence event publish failed: %v", err)
	}
}
