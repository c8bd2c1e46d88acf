package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/zigaf/car-auction/go/internal/auction/botconfig"
	"github.com/zigaf/car-auction/go/internal/auction/bots"
	"github.com/zigaf/car-auction/go/internal/auction/engine"
	"github.com/zigaf/car-auction/go/internal/auction/events"
	"github.com/zigaf/car-auction/go/internal/auction/gateway"
	"github.com/zigaf/car-auction/go/internal/auction/store"
)

// Services holds the wired service graph.
type Services struct {
	Engine      *engine.Engine
	Bots        *bots.Registry
	BotConfig   *botconfig.App
	Connections *gateway.ConnectionManager
	WSHandler   *gateway.WebSocketHandler

	// consumer is set when events flow through NATS; nil in loopback mode.
	consumer *gateway.EventConsumer
	// closePublisher releases the NATS publisher connection, if any.
	closePublisher func()
}

// setupServices wires store → publisher → engine → bots → gateway.
func setupServices(ctx context.Context, cfg *Config, st store.Store) (*Services, error) {
	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())

	var (
		pub            engine.Publisher
		consumer       *gateway.EventConsumer
		closePublisher = func() {}
	)
	if cfg.NATS.URL != "" {
		natsPub, err := events.NewNATSPublisher(ctx, cfg.NATS.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
		}
		consumerCfg := gateway.DefaultJetStreamConsumerConfig()
		consumerCfg.URL = cfg.NATS.URL
		consumer, err = gateway.NewEventConsumer(cm, consumerCfg)
		if err != nil {
			natsPub.Close()
			return nil, fmt.Errorf("failed to create event consumer: %w", err)
		}
		pub = natsPub
		closePublisher = func() { natsPub.Close() }
		log.Info().Str("nats_url", cfg.NATS.URL).Msg("events flow through NATS JetStream")
	} else {
		pub = gateway.NewLoopbackPublisher(cm)
		log.Info().Msg("no NATS configured, events delivered in-process")
	}

	eng := engine.New(st, pub, engine.WithSweepInterval(cfg.sweepInterval()))
	if err := restoreLots(ctx, eng, st); err != nil {
		closePublisher()
		return nil, err
	}

	registry := bots.NewRegistry(eng, st, bots.WithPollInterval(cfg.botPollInterval()))

	return &Services{
		Engine:         eng,
		Bots:           registry,
		BotConfig:      botconfig.NewApp(st),
		Connections:    cm,
		WSHandler:      gateway.NewWebSocketHandler(cm),
		consumer:       consumer,
		closePublisher: closePublisher,
	}, nil
}

// restoreLots rebuilds engine state from persisted lots and their bid
// ledgers.
func restoreLots(ctx context.Context, eng *engine.Engine, st store.Store) error {
	lots, err := st.ListLots(ctx)
	if err != nil {
		return fmt.Errorf("failed to list lots: %w", err)
	}

	restored := 0
	for _, lot := range lots {
		bids, err := st.ListBidsForLot(ctx, lot.ID)
		if err != nil {
			return fmt.Errorf("failed to list bids for lot %s: %w", lot.ID, err)
		}
		eng.RestoreLot(lot, bids)
		restored++
	}

	if restored > 0 {
		log.Info().Int("lots", restored).Msg("restored lots from store")
	}
	return nil
}

// Start launches the background loops: lifecycle sweeper, bot poller,
// broadcast pump and, when configured, the NATS consumer.
func (s *Services) Start(ctx context.Context) {
	go func() {
		if err := s.Engine.RunSweeper(ctx); err != nil {
			log.Error().Err(err).Msg("lifecycle sweeper stopped")
		}
	}()
	go func() {
		if err := s.Bots.Run(ctx); err != nil {
			log.Error().Err(err).Msg("bot registry stopped")
		}
	}()
	go s.Connections.Start(ctx)
	if s.consumer != nil {
		go func() {
			if err := s.consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer stopped")
			}
		}()
	}
}

// Close releases external connections.
func (s *Services) Close() {
	if s.consumer != nil {
		if err := s.consumer.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop event consumer")
		}
	}
	s.closePublisher()
}
