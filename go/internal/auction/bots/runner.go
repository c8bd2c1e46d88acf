package bots

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/zigaf/car-auction/go/internal/models"
)

// Control is the slice of auction control a bot runner is allowed to touch.
// Bots never mutate lot state directly; every bid goes through SubmitBid and
// is re-validated inside the lot's exclusive section.
type Control interface {
	SubmitBid(ctx context.Context, lotID, bidderID uuid.UUID, amount int64, isAutoBid bool) (int64, error)
	LotSnapshot(lotID uuid.UUID) (models.Lot, bool)
	CurrentPrice(lotID uuid.UUID) (int64, error)
	LeaderBidder(lotID uuid.UUID) (uuid.UUID, bool)
	Remaining(lotID uuid.UUID) (int64, error)
}

const (
	// leaderRecheckDelay is how soon a leadership-driven bot looks again
	// while its own bid leads.
	leaderRecheckDelay = time.Second

	// idleRecheckDelay is the cadence for waiting states: window not open
	// yet, lot paused, or ceiling reached (until an admin edit clears it).
	idleRecheckDelay = 5 * time.Second
)

// Runner is one bot's independent timing process on one lot. It sleeps
// according to its pattern, wakes, reads the lot, and possibly submits a
// bid. Failures are isolated: a rejected bid only schedules the next cycle.
type Runner struct {
	mu       sync.Mutex
	cfg      models.BotConfig
	maxedOut bool

	control Control
	clock   clockwork.Clock
	rng     *rand.Rand

	cancel context.CancelFunc
	done   chan struct{}
}

func newRunner(cfg models.BotConfig, control Control, clock clockwork.Clock, seed int64) *Runner {
	return &Runner{
		cfg:     cfg,
		control: control,
		clock:   clock,
		rng:     rand.New(rand.NewSource(seed)),
		done:    make(chan struct{}),
	}
}

// start launches the runner's scheduling loop.
func (r *Runner) start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	go r.run(runCtx)
}

// stop cancels any pending fire and waits for the loop to exit. A fire
// already in flight has its submission rejected by auction control's status
// re-check rather than being silently accepted.
func (r *Runner) stop() {
	if r.cancel != nil {
		r.cancel()
	}
	<-r.done
}

// update swaps in edited config parameters and clears a reached ceiling so
// the bot participates again.
func (r *Runner) update(cfg models.BotConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg
	r.maxedOut = false
}

func (r *Runner) config() models.BotConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

func (r *Runner) isMaxedOut() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxedOut
}

func (r *Runner) setMaxedOut() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maxedOut = true
}

func (r *Runner) run(ctx context.Context) {
	defer close(r.done)

	cfg := r.config()
	log.Info().
		Str("config_id", cfg.ID.String()).
		Str("lot_id", cfg.LotID.String()).
		Str("pattern", string(cfg.Pattern)).
		Msg("bot runner started")

	timer := r.clock.NewTimer(r.nextDelay())
	defer stopAndDrainTimer(timer)

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("config_id", cfg.ID.String()).Msg("bot runner cancelled")
			return
		case <-timer.Chan():
			if done := r.fire(ctx); done {
				log.Info().
					Str("config_id", cfg.ID.String()).
					Str("lot_id", cfg.LotID.String()).
					Msg("bot runner finished: lot closed")
				return
			}
			timer.Reset(r.nextDelay())
		}
	}
}

// fire runs one scheduled cycle. It returns true when the runner should
// exit because the lot reached a terminal status.
func (r *Runner) fire(ctx context.Context) bool {
	cfg := r.config()

	lot, ok := r.control.LotSnapshot(cfg.LotID)
	if !ok || lot.Terminal() {
		return true
	}
	if lot.Status != models.LotStatusTrading || lot.IsPaused {
		return false
	}
	if r.isMaxedOut() {
		// No-op cycle until an admin edit reactivates the bot.
		return false
	}

	remaining, err := r.control.Remaining(cfg.LotID)
	if err != nil {
		log.Warn().Err(err).Str("config_id", cfg.ID.String()).Msg("bot failed to read remaining time")
		return false
	}
	if cfg.Pattern == models.BotPatternSniper && remaining > SniperWindowMs(cfg) {
		// Still dormant.
		return false
	}

	if leader, has := r.control.LeaderBidder(cfg.LotID); has && leader == cfg.BotUserID {
		// Never bid against our own leading bid.
		return false
	}

	price, err := r.control.CurrentPrice(cfg.LotID)
	if err != nil {
		log.Warn().Err(err).Str("config_id", cfg.ID.String()).Msg("bot failed to read current price")
		return false
	}

	amount := NextAmount(cfg, price)
	if amount > cfg.MaxPrice {
		r.setMaxedOut()
		log.Info().
			Str("config_id", cfg.ID.String()).
			Str("lot_id", cfg.LotID.String()).
			Int64("max_price", cfg.MaxPrice).
			Int64("candidate", amount).
			Msg("bot reached price ceiling; standing down")
		return false
	}

	if _, err := r.control.SubmitBid(ctx, cfg.LotID, cfg.BotUserID, amount, true); err != nil {
		// Expected under contention (another bidder beat us to it) and
		// around pauses/closures. The error stays inside this bot.
		log.Debug().
			Err(err).
			Str("config_id", cfg.ID.String()).
			Int64("amount", amount).
			Msg("bot bid rejected")
		return false
	}
	return false
}

// nextDelay picks the wait before the next cycle based on the pattern and
// the bot's current standing.
func (r *Runner) nextDelay() time.Duration {
	cfg := r.config()

	lot, ok := r.control.LotSnapshot(cfg.LotID)
	if !ok {
		return idleRecheckDelay
	}
	if lot.Status != models.LotStatusTrading || lot.IsPaused || r.isMaxedOut() {
		return idleRecheckDelay
	}

	remaining, err := r.control.Remaining(cfg.LotID)
	if err != nil {
		return idleRecheckDelay
	}

	// Leadership-driven patterns poll quickly while leading so they react
	// right after being outbid; cadence-driven patterns keep their rhythm
	// regardless of who leads.
	if cfg.Pattern == models.BotPatternAggressive || cfg.Pattern == models.BotPatternSniper {
		if leader, has := r.control.LeaderBidder(cfg.LotID); has && leader == cfg.BotUserID {
			if cfg.Pattern == models.BotPatternSniper && remaining > SniperWindowMs(cfg) {
				return time.Duration(remaining-SniperWindowMs(cfg)) * time.Millisecond
			}
			return leaderRecheckDelay
		}
	}

	return NextDelay(cfg, remaining, r.rng)
}

// stopAndDrainTimer stops a timer and drains its channel so a fire racing
// the stop cannot leak into the next use.
func stopAndDrainTimer(t clockwork.Timer) {
	if !t.Stop() {
		select {
		case <-t.Chan():
		default:
		}
	}
}
