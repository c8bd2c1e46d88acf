package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zigaf/car-auction/go/internal/auction/events"
	"github.com/zigaf/car-auction/go/internal/auction/timer"
	"github.com/zigaf/car-auction/go/internal/models"
)

// RunSweeper drives lot lifecycle transitions on a fixed tick until the
// context is cancelled: ACTIVE lots whose start time has passed open for
// bidding, and TRADING lots whose window has run out are finalized. The tick
// interval bounds how late either transition is detected.
func (e *Engine) RunSweeper(ctx context.Context) error {
	log.Info().Dur("interval", e.sweepInterval).Msg("lifecycle sweeper started")

	ticker := e.clock.NewTicker(e.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("lifecycle sweeper shutting down")
			return nil
		case <-ticker.Chan():
			e.Sweep(ctx)
		}
	}
}

// Sweep runs a single lifecycle pass. Exported so tests and the scheduler
// can force a scan without waiting for the tick.
func (e *Engine) Sweep(ctx context.Context) {
	now := e.clock.Now()
	for _, st := range e.states() {
		st.mu.Lock()
		switch {
		case st.lot.Status == models.LotStatusActive && st.lot.AuctionStartAt != nil &&
			!now.Before(*st.lot.AuctionStartAt):
			e.openWindowLocked(ctx, st, now)

		case st.lot.Status == models.LotStatusTrading && !st.lot.IsPaused &&
			timer.Remaining(st.lot, now) == 0:
			e.finalizeLocked(ctx, st, now)
		}
		st.mu.Unlock()
	}
}

// openWindowLocked moves an ACTIVE lot into TRADING. Caller holds st.mu.
func (e *Engine) openWindowLocked(ctx context.Context, st *lotState, now time.Time) {
	if st.lot.AuctionEndAt == nil {
		// Scheduled without a deadline is unrecoverable; never leave the
		// lot in limbo.
		st.lot.Status = models.LotStatusCancelled
		st.lot.UpdatedAt = now
		e.persistLot(ctx, st.lot)
		log.Warn().Str("lot_id", st.lot.ID.String()).Msg("lot scheduled without end time; cancelled")
		return
	}

	st.lot.Status = models.LotStatusTrading
	st.lot.UpdatedAt = now
	e.persistLot(ctx, st.lot)

	e.publish(ctx, events.EventTypeAuctionStarted, st.lot.ID, events.AuctionStartedPayload{
		LotID:       st.lot.ID.String(),
		StartingBid: st.lot.StartingBid,
		EndsAt:      *st.lot.AuctionEndAt,
		StartedAt:   now,
	})

	log.Info().
		Str("lot_id", st.lot.ID.String()).
		Time("ends_at", *st.lot.AuctionEndAt).
		Msg("bidding window opened")
}

// finalizeLocked performs the terminal transition out of TRADING: SOLD when
// a surviving leader meets any reserve, otherwise CANCELLED. Any ambiguity
// resolves to CANCELLED; a lot is never left trading indefinitely. Caller
// holds st.mu.
func (e *Engine) finalizeLocked(ctx context.Context, st *lotState, now time.Time) {
	leader := st.ledger.Leader()
	sold := leader != nil &&
		(st.lot.ReservePrice == nil || leader.Amount >= *st.lot.ReservePrice)

	finalPrice := st.ledger.CurrentPrice()
	var winnerID *string
	if sold {
		st.lot.Status = models.LotStatusSold
		id := leader.BidderID.String()
		winnerID = &id
		st.lot.CurrentPrice = &finalPrice
	} else {
		st.lot.Status = models.LotStatusCancelled
	}
	st.lot.UpdatedAt = now
	e.persistLot(ctx, st.lot)

	e.publish(ctx, events.EventTypeAuctionEnded, st.lot.ID, events.AuctionEndedPayload{
		LotID:      st.lot.ID.String(),
		WinnerID:   winnerID,
		FinalPrice: finalPrice,
		Sold:       sold,
		EndedAt:    now,
	})

	evt := log.Info().
		Str("lot_id", st.lot.ID.String()).
		Str("status", string(st.lot.Status)).
		Int64("final_price", finalPrice)
	if winnerID != nil {
		evt = evt.Str("winner_id", *winnerID)
	}
	evt.Msg("auction ended")
}
