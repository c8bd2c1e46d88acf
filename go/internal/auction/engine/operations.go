package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/zigaf/car-auction/go/internal/auction/events"
	"github.com/zigaf/car-auction/go/internal/auction/timer"
	"github.com/zigaf/car-auction/go/internal/models"
)

// ExtendResult reports the adjusted window after an extend: the new deadline
// for a running lot, or the new frozen remaining time for a paused one.
type ExtendResult struct {
	NewEndAt             *time.Time
	NewPausedRemainingMs *int64
}

// SubmitBid validates and records a bid, returning the new current price.
// Status and pause state are re-checked inside the lot's exclusive section,
// so a bot firing against a lot that was paused or closed a moment ago is
// rejected here rather than silently accepted.
func (e *Engine) SubmitBid(ctx context.Context, lotID, bidderID uuid.UUID, amount int64, isAutoBid bool) (int64, error) {
	st, err := e.state(lotID)
	if err != nil {
		return 0, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	now := e.clock.Now()
	if st.lot.Status != models.LotStatusTrading || st.lot.IsPaused {
		return 0, ErrLotNotTrading
	}
	// The window may have expired ahead of the sweep tick.
	if timer.Remaining(st.lot, now) == 0 {
		return 0, ErrLotNotTrading
	}

	bid, err := st.ledger.Append(bidderID, amount, isAutoBid, now)
	if err != nil {
		return 0, err
	}

	price := st.ledger.CurrentPrice()
	st.lot.CurrentPrice = &price
	st.lot.UpdatedAt = now

	if e.store != nil {
		if err := e.store.InsertBid(ctx, bid); err != nil {
			log.Error().Err(err).Str("bid_id", bid.ID.String()).Msg("failed to persist bid")
		}
	}
	e.persistLot(ctx, st.lot)

	e.publish(ctx, events.EventTypeFeedUpdate, lotID, events.FeedUpdatePayload{
		LotID:     lotID.String(),
		BidID:     bid.ID.String(),
		BidderID:  bidderID.String(),
		Amount:    bid.Amount,
		IsAutoBid: isAutoBid,
		PlacedAt:  now,
	})

	log.Info().
		Str("lot_id", lotID.String()).
		Str("bidder_id", bidderID.String()).
		Int64("amount", amount).
		Bool("is_auto_bid", isAutoBid).
		Int64("sequence", bid.Sequence).
		Msg("bid accepted")
	return price, nil
}

// Pause freezes the lot's countdown and returns the frozen remaining time.
func (e *Engine) Pause(ctx context.Context, lotID uuid.UUID) (int64, error) {
	st, err := e.state(lotID)
	if err != nil {
		return 0, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	now := e.clock.Now()
	if err := timer.Pause(st.lot, now); err != nil {
		return 0, err
	}
	st.lot.UpdatedAt = now
	e.persistLot(ctx, st.lot)

	remaining := *st.lot.PausedRemainingMs
	e.publish(ctx, events.EventTypeAuctionPaused, lotID, events.AuctionPausedPayload{
		LotID:             lotID.String(),
		PausedRemainingMs: remaining,
		PausedAt:          now,
	})

	log.Info().Str("lot_id", lotID.String()).Int64("remaining_ms", remaining).Msg("auction paused")
	return remaining, nil
}

// Resume rebases the deadline from the frozen remaining time and returns the
// new auctionEndAt observers should resync against.
func (e *Engine) Resume(ctx context.Context, lotID uuid.UUID) (time.Time, error) {
	st, err := e.state(lotID)
	if err != nil {
		return time.Time{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	now := e.clock.Now()
	if err := timer.Resume(st.lot, now); err != nil {
		return time.Time{}, err
	}
	st.lot.UpdatedAt = now
	e.persistLot(ctx, st.lot)

	newEndAt := *st.lot.AuctionEndAt
	e.publish(ctx, events.EventTypeAuctionResumed, lotID, events.AuctionResumedPayload{
		LotID:    lotID.String(),
		NewEndAt: newEndAt,
	})

	log.Info().Str("lot_id", lotID.String()).Time("new_end_at", newEndAt).Msg("auction resumed")
	return newEndAt, nil
}

// Extend moves the deadline (or the frozen remaining time) by deltaMinutes,
// which may be negative to shorten the window.
func (e *Engine) Extend(ctx context.Context, lotID uuid.UUID, deltaMinutes int) (ExtendResult, error) {
	st, err := e.state(lotID)
	if err != nil {
		return ExtendResult{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	now := e.clock.Now()
	if err := timer.Extend(st.lot, deltaMinutes, now); err != nil {
		return ExtendResult{}, err
	}
	st.lot.UpdatedAt = now
	e.persistLot(ctx, st.lot)

	var result ExtendResult
	payload := events.AuctionExtendedPayload{LotID: lotID.String()}
	if st.lot.IsPaused {
		v := *st.lot.PausedRemainingMs
		result.NewPausedRemainingMs = &v
		payload.NewPausedRemainingMs = &v
	} else {
		t := *st.lot.AuctionEndAt
		result.NewEndAt = &t
		payload.NewEndAt = &t
	}
	e.publish(ctx, events.EventTypeAuctionExtended, lotID, payload)

	log.Info().
		Str("lot_id", lotID.String()).
		Int("delta_minutes", deltaMinutes).
		Msg("auction window adjusted")
	return result, nil
}

// Rollback voids a bid and returns the recomputed current price.
func (e *Engine) Rollback(ctx context.Context, lotID, bidID uuid.UUID) (int64, error) {
	st, err := e.state(lotID)
	if err != nil {
		return 0, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	price, err := st.ledger.Rollback(bidID)
	if err != nil {
		return 0, err
	}

	now := e.clock.Now()
	if st.ledger.Leader() != nil {
		st.lot.CurrentPrice = &price
	} else {
		st.lot.CurrentPrice = nil
	}
	st.lot.UpdatedAt = now

	if e.store != nil {
		if err := e.store.MarkBidRolledBack(ctx, bidID); err != nil {
			log.Error().Err(err).Str("bid_id", bidID.String()).Msg("failed to persist bid rollback")
		}
	}
	e.persistLot(ctx, st.lot)

	e.publish(ctx, events.EventTypeBidRolledBack, lotID, events.BidRolledBackPayload{
		LotID:        lotID.String(),
		BidID:        bidID.String(),
		CurrentPrice: price,
	})

	log.Info().
		Str("lot_id", lotID.String()).
		Str("bid_id", bidID.String()).
		Int64("current_price", price).
		Msg("bid rolled back")
	return price, nil
}
