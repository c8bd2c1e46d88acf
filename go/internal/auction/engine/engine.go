// Package engine implements auction control: the single authoritative
// mutation path per lot. Every write to a lot's timer state or bid ledger
// happens inside that lot's exclusive section, so bids, pauses and rollbacks
// on one lot are totally ordered while different lots proceed concurrently.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/zigaf/car-auction/go/internal/auction/events"
	"github.com/zigaf/car-auction/go/internal/auction/ledger"
	"github.com/zigaf/car-auction/go/internal/auction/timer"
	"github.com/zigaf/car-auction/go/internal/models"
)

var (
	// ErrLotNotFound is returned for operations on an unknown lot.
	ErrLotNotFound = errors.New("lot not found")

	// ErrLotNotTrading is returned when a bid targets a lot outside its
	// bidding window, including paused lots.
	ErrLotNotTrading = errors.New("lot is not accepting bids")

	// ErrAlreadyScheduled is returned when scheduling a lot whose window
	// has already been set.
	ErrAlreadyScheduled = errors.New("lot is already scheduled")
)

// Publisher receives an envelope for every accepted mutation. Publish is
// called inside the lot's exclusive section so per-lot event order matches
// acceptance order; implementations must not block on slow consumers.
type Publisher interface {
	Publish(ctx context.Context, env events.Envelope) error
}

// Store is the write-through persistence the engine needs. Failures are
// logged, not fatal: the in-memory state stays authoritative.
type Store interface {
	UpsertLot(ctx context.Context, lot *models.Lot) error
	InsertBid(ctx context.Context, bid *models.Bid) error
	MarkBidRolledBack(ctx context.Context, bidID uuid.UUID) error
}

// lotState is one lot's exclusive section: the lot record plus its ledger,
// guarded by mu.
type lotState struct {
	mu     sync.Mutex
	lot    *models.Lot
	ledger *ledger.Ledger
}

// Engine owns countdown state and the bid ledger for every registered lot.
type Engine struct {
	mu   sync.RWMutex
	lots map[uuid.UUID]*lotState

	store         Store
	pub           Publisher
	clock         clockwork.Clock
	sweepInterval time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock swaps the wall clock, used with fake clocks in tests.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithSweepInterval sets the lifecycle sweep tick. It bounds how late an
// expired window is detected.
func WithSweepInterval(d time.Duration) Option {
	return func(e *Engine) { e.sweepInterval = d }
}

// New creates an engine over the given store and publisher.
func New(store Store, pub Publisher, opts ...Option) *Engine {
	e := &Engine{
		lots:          make(map[uuid.UUID]*lotState),
		store:         store,
		pub:           pub,
		clock:         clockwork.NewRealClock(),
		sweepInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ImportLot registers a new lot with status IMPORTED.
func (e *Engine) ImportLot(ctx context.Context, lot *models.Lot) error {
	if lot.ID == uuid.Nil {
		lot.ID = uuid.New()
	}
	now := e.clock.Now()
	lot.Status = models.LotStatusImported
	lot.CreatedAt = now
	lot.UpdatedAt = now

	st := &lotState{lot: lot, ledger: ledger.New(lot.ID, lot.StartingBid)}

	e.mu.Lock()
	if _, exists := e.lots[lot.ID]; exists {
		e.mu.Unlock()
		return errors.New("lot already registered")
	}
	e.lots[lot.ID] = st
	e.mu.Unlock()

	e.persistLot(ctx, lot)
	log.Info().Str("lot_id", lot.ID.String()).Str("title", lot.Title).Msg("lot imported")
	return nil
}

// RestoreLot re-registers a persisted lot and its bid history at startup.
// No events are emitted and nothing is written back.
func (e *Engine) RestoreLot(lot *models.Lot, bids []*models.Bid) {
	st := &lotState{lot: lot, ledger: ledger.Restore(lot.ID, lot.StartingBid, bids)}
	price := st.ledger.CurrentPrice()
	if st.ledger.Leader() != nil {
		lot.CurrentPrice = &price
	}

	e.mu.Lock()
	e.lots[lot.ID] = st
	e.mu.Unlock()

	log.Info().
		Str("lot_id", lot.ID.String()).
		Str("status", string(lot.Status)).
		Int("bids", st.ledger.Len()).
		Msg("lot restored")
}

// ScheduleLot sets the bidding window once and moves the lot to ACTIVE. The
// sweeper opens the window when auctionStartAt passes.
func (e *Engine) ScheduleLot(ctx context.Context, lotID uuid.UUID, startAt, endAt time.Time) error {
	st, err := e.state(lotID)
	if err != nil {
		return err
	}
	if !endAt.After(startAt) {
		return errors.New("auction end must be after start")
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.lot.AuctionStartAt != nil || st.lot.Status != models.LotStatusImported {
		return ErrAlreadyScheduled
	}
	st.lot.AuctionStartAt = &startAt
	st.lot.AuctionEndAt = &endAt
	st.lot.Status = models.LotStatusActive
	st.lot.UpdatedAt = e.clock.Now()

	e.persistLot(ctx, st.lot)
	log.Info().
		Str("lot_id", lotID.String()).
		Time("start_at", startAt).
		Time("end_at", endAt).
		Msg("lot scheduled")
	return nil
}

// state looks up a lot's exclusive section.
func (e *Engine) state(lotID uuid.UUID) (*lotState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st, ok := e.lots[lotID]
	if !ok {
		return nil, ErrLotNotFound
	}
	return st, nil
}

// states snapshots the registry for sweep iteration.
func (e *Engine) states() []*lotState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*lotState, 0, len(e.lots))
	for _, st := range e.lots {
		out = append(out, st)
	}
	return out
}

// LotSnapshot returns a copy of the lot for display. The copy is taken under
// the lot lock but callers never hold it; values may be slightly stale by
// the time they are read, which is fine for observers.
func (e *Engine) LotSnapshot(lotID uuid.UUID) (models.Lot, bool) {
	st, err := e.state(lotID)
	if err != nil {
		return models.Lot{}, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lot.Clone(), true
}

// Lots returns display snapshots of every registered lot.
func (e *Engine) Lots() []models.Lot {
	states := e.states()
	out := make([]models.Lot, 0, len(states))
	for _, st := range states {
		st.mu.Lock()
		out = append(out, st.lot.Clone())
		st.mu.Unlock()
	}
	return out
}

// CurrentPrice returns the lot's derived price: the leading surviving bid,
// or the starting bid.
func (e *Engine) CurrentPrice(lotID uuid.UUID) (int64, error) {
	st, err := e.state(lotID)
	if err != nil {
		return 0, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.ledger.CurrentPrice(), nil
}

// LeaderBidder returns the bidder currently leading the lot, if any.
func (e *Engine) LeaderBidder(lotID uuid.UUID) (uuid.UUID, bool) {
	st, err := e.state(lotID)
	if err != nil {
		return uuid.Nil, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	leader := st.ledger.Leader()
	if leader == nil {
		return uuid.Nil, false
	}
	return leader.BidderID, true
}

// Remaining returns the lot's remaining window in milliseconds.
func (e *Engine) Remaining(lotID uuid.UUID) (int64, error) {
	st, err := e.state(lotID)
	if err != nil {
		return 0, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return timer.Remaining(st.lot, e.clock.Now()), nil
}

// Bids returns the lot's full ledger in acceptance order, rolled back
// entries included.
func (e *Engine) Bids(lotID uuid.UUID) ([]models.Bid, error) {
	st, err := e.state(lotID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.ledger.Bids(), nil
}

// persistLot writes a lot through to the store, logging failures.
func (e *Engine) persistLot(ctx context.Context, lot *models.Lot) {
	if e.store == nil {
		return
	}
	if err := e.store.UpsertLot(ctx, lot); err != nil {
		log.Error().Err(err).Str("lot_id", lot.ID.String()).Msg("failed to persist lot")
	}
}

// publish wraps a payload and hands it to the publisher, logging failures.
// Called inside the lot's exclusive section to preserve event order.
func (e *Engine) publish(ctx context.Context, eventType events.EventType, lotID uuid.UUID, payload any) {
	if e.pub == nil {
		return
	}
	env, err := events.NewEnvelope(eventType, lotID, e.clock.Now(), payload)
	if err != nil {
		log.Error().Err(err).Str("lot_id", lotID.String()).Msg("failed to build event envelope")
		return
	}
	if err := e.pub.Publish(ctx, env); err != nil {
		log.Error().
			Err(err).
			Str("event_type", string(eventType)).
			Str("lot_id", lotID.String()).
			Msg("failed to publish event")
	}
}
