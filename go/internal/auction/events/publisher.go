package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

const (
	// StreamName is the JetStream stream carrying all auction events.
	StreamName = "AUCTION_EVENTS"

	// SubjectPrefix is the subject namespace for auction events; the full
	// subject is SubjectPrefix + "." + event type.
	SubjectPrefix = "auction.events"

	natsMaxReconnects = -1 // infinite
	natsReconnectWait = 2 * time.Second
)

// Subject returns the NATS subject for an event type.
func Subject(eventType EventType) string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, eventType)
}

// ConnectNATS creates a NATS connection with JetStream and reconnect handlers.
func ConnectNATS(natsURL string) (*nats.Conn, jetstream.JetStream, error) {
	opts := []nats.Option{
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create JetStream context: %w", err)
	}

	return nc, js, nil
}

// NATSPublisher publishes auction event envelopes to JetStream. Publishing
// happens inside each lot's exclusive section, so per-lot event order on the
// stream matches acceptance order.
type NATSPublisher struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// NewNATSPublisher connects to NATS and ensures the auction event stream exists.
func NewNATSPublisher(ctx context.Context, natsURL string) (*NATSPublisher, error) {
	nc, js, err := ConnectNATS(natsURL)
	if err != nil {
		return nil, err
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{SubjectPrefix + ".>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream %s: %w", StreamName, err)
	}

	return &NATSPublisher{nc: nc, js: js}, nil
}

// Publish sends one envelope to the stream.
func (p *NATSPublisher) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	if _, err := p.js.Publish(ctx, Subject(env.EventType), data); err != nil {
		return fmt.Errorf("publish %s: %w", env.EventType, err)
	}

	log.Debug().
		Str("event_id", env.EventID).
		Str("event_type", string(env.EventType)).
		Str("lot_id", env.LotID).
		Msg("published auction event")
	return nil
}

// Close closes the underlying NATS connection.
func (p *NATSPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}
