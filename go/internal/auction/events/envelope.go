package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope is the wire format every auction event travels in, both over NATS
// and down websocket connections.
type Envelope struct {
	EventID   string          `json:"event_id"`
	EventType EventType       `json:"event_type"`
	LotID     string          `json:"lot_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEnvelope wraps a payload struct into an Envelope for the given lot.
func NewEnvelope(eventType EventType, lotID uuid.UUID, ts time.Time, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:   uuid.New().String(),
		EventType: eventType,
		LotID:     lotID.String(),
		Timestamp: ts,
		Payload:   raw,
	}, nil
}
