package gateway

import (
	"context"

	"github.com/zigaf/car-auction/go/internal/auction/events"
)

// LoopbackPublisher hands envelopes straight to the connection manager,
// bypassing NATS. Used when the engine and gateway run in one process and no
// broker is configured. Deliver only enqueues, so it never blocks the
// engine's lot section.
type LoopbackPublisher struct {
	cm *ConnectionManager
}

// NewLoopbackPublisher creates a publisher that delivers into cm.
func NewLoopbackPublisher(cm *ConnectionManager) *LoopbackPublisher {
	return &LoopbackPublisher{cm: cm}
}

// Publish implements the engine's publisher contract.
func (p *LoopbackPublisher) Publish(ctx context.Context, env events.Envelope) error {
	p.cm.Deliver(env)
	return nil
}
