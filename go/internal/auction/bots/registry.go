package bots

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/zigaf/car-auction/go/internal/models"
)

// ConfigSource is where the registry reads bot configurations from.
// Administration happens elsewhere; the scheduler only ever reads.
type ConfigSource interface {
	ListActiveBotConfigs(ctx context.Context) ([]*models.BotConfig, error)
}

// Registry owns one Runner per active bot configuration. It re-reads the
// source on a bounded poll interval and converges: newly activated configs
// get runners, deactivated or terminal-lot configs are cancelled, edited
// configs are swapped in place. The registry is passed explicitly to
// whatever needs to enumerate or stop bots; there is no ambient state.
type Registry struct {
	mu      sync.Mutex
	runners map[uuid.UUID]*Runner

	control      Control
	source       ConfigSource
	clock        clockwork.Clock
	pollInterval time.Duration
	seed         int64
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithClock swaps the registry's clock, used with fake clocks in tests.
func WithClock(c clockwork.Clock) RegistryOption {
	return func(g *Registry) { g.clock = c }
}

// WithPollInterval sets how often the registry re-reads the config source.
func WithPollInterval(d time.Duration) RegistryOption {
	return func(g *Registry) { g.pollInterval = d }
}

// WithSeed fixes the base RNG seed handed to runners, for deterministic tests.
func WithSeed(seed int64) RegistryOption {
	return func(g *Registry) { g.seed = seed }
}

// NewRegistry creates a registry over the given control plane and config
// source.
func NewRegistry(control Control, source ConfigSource, opts ...RegistryOption) *Registry {
	g := &Registry{
		runners:      make(map[uuid.UUID]*Runner),
		control:      control,
		source:       source,
		clock:        clockwork.NewRealClock(),
		pollInterval: 2 * time.Second,
		seed:         time.Now().UnixNano(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run polls the config source until the context is cancelled, then stops
// every runner.
func (g *Registry) Run(ctx context.Context) error {
	log.Info().Dur("poll_interval", g.pollInterval).Msg("bot registry started")

	ticker := g.clock.NewTicker(g.pollInterval)
	defer ticker.Stop()

	if err := g.Sync(ctx); err != nil {
		log.Error().Err(err).Msg("initial bot config sync failed")
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("bot registry shutting down")
			g.StopAll()
			return nil
		case <-ticker.Chan():
			if err := g.Sync(ctx); err != nil {
				log.Error().Err(err).Msg("bot config sync failed")
			}
		}
	}
}

// Sync reconciles running bots against the config source once.
func (g *Registry) Sync(ctx context.Context) error {
	cfgs, err := g.source.ListActiveBotConfigs(ctx)
	if err != nil {
		return err
	}

	want := make(map[uuid.UUID]models.BotConfig, len(cfgs))
	for _, cfg := range cfgs {
		want[cfg.ID] = *cfg
	}

	// Collect runners to stop outside the lock: stop() blocks until the
	// runner's loop exits.
	var stale []*Runner

	g.mu.Lock()
	for id, rn := range g.runners {
		cfg, keep := want[id]
		if keep {
			if lot, ok := g.control.LotSnapshot(cfg.LotID); ok && !lot.Terminal() {
				continue
			}
		}
		stale = append(stale, rn)
		delete(g.runners, id)
	}

	for id, cfg := range want {
		lot, ok := g.control.LotSnapshot(cfg.LotID)
		if !ok || lot.Terminal() {
			continue
		}
		if rn, exists := g.runners[id]; exists {
			if !rn.config().Equal(cfg) {
				rn.update(cfg)
				log.Info().Str("config_id", id.String()).Msg("bot config updated")
			}
			continue
		}
		rn := newRunner(cfg, g.control, g.clock, g.seed+int64(len(g.runners))+g.clock.Now().UnixNano())
		g.runners[id] = rn
		rn.start(ctx)
	}
	g.mu.Unlock()

	for _, rn := range stale {
		rn.stop()
		log.Info().Str("config_id", rn.config().ID.String()).Msg("bot runner stopped")
	}
	return nil
}

// StopAll cancels every runner and waits for them to exit.
func (g *Registry) StopAll() {
	g.mu.Lock()
	runners := make([]*Runner, 0, len(g.runners))
	for id, rn := range g.runners {
		runners = append(runners, rn)
		delete(g.runners, id)
	}
	g.mu.Unlock()

	for _, rn := range runners {
		rn.stop()
	}
}

// Len reports how many runners are currently live.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.runners)
}
