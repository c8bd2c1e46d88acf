package timer

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/zigaf/car-auction/go/internal/models"
)

func tradingLot(endAt time.Time) *models.Lot {
	return &models.Lot{
		ID:           uuid.New(),
		Status:       models.LotStatusTrading,
		StartingBid:  5000,
		AuctionEndAt: &endAt,
	}
}

func TestPauseCapturesRemaining(t *testing.T) {
	// trading lot ends at T+600000ms; pause at T+100000 freezes 500000ms.
	base := time.Now()
	lot := tradingLot(base.Add(600 * time.Second))

	if err := Pause(lot, base.Add(100*time.Second)); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !lot.IsPaused || lot.PausedRemainingMs == nil {
		t.Fatalf("expected paused lot with remaining set")
	}
	if *lot.PausedRemainingMs != 500_000 {
		t.Fatalf("expected 500000ms remaining, got %d", *lot.PausedRemainingMs)
	}
}

func TestResumeRebasesDeadline(t *testing.T) {
	base := time.Now()
	lot := tradingLot(base.Add(600 * time.Second))

	if err := Pause(lot, base.Add(100*time.Second)); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := Resume(lot, base.Add(300*time.Second)); err != nil {
		t.Fatalf("resume: %v", err)
	}

	want := base.Add(800 * time.Second)
	if lot.IsPaused || lot.PausedRemainingMs != nil {
		t.Fatalf("expected resumed lot to clear pause state")
	}
	if !lot.AuctionEndAt.Equal(want) {
		t.Fatalf("expected end at %v, got %v", want, lot.AuctionEndAt)
	}
}

func TestPauseResumePreservesRemaining(t *testing.T) {
	base := time.Now()
	lot := tradingLot(base.Add(10 * time.Minute))
	now := base.Add(time.Minute)

	before := Remaining(lot, now)
	if err := Pause(lot, now); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := Resume(lot, now); err != nil {
		t.Fatalf("resume: %v", err)
	}
	after := Remaining(lot, now)

	if before != after {
		t.Fatalf("pause+resume at the same instant changed remaining: %d != %d", before, after)
	}
}

func TestPauseRejections(t *testing.T) {
	base := time.Now()
	lot := tradingLot(base.Add(time.Minute))
	lot.Status = models.LotStatusActive
	if err := Pause(lot, base); !errors.Is(err, ErrNotTrading) {
		t.Fatalf("expected ErrNotTrading, got %v", err)
	}

	lot.Status = models.LotStatusTrading
	if err := Pause(lot, base); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := Pause(lot, base); !errors.Is(err, ErrAlreadyPaused) {
		t.Fatalf("expected ErrAlreadyPaused, got %v", err)
	}

	fresh := tradingLot(base.Add(time.Minute))
	if err := Resume(fresh, base); !errors.Is(err, ErrNotPaused) {
		t.Fatalf("expected ErrNotPaused, got %v", err)
	}
}

func TestExtendRunningLot(t *testing.T) {
	base := time.Now()
	end := base.Add(10 * time.Minute)
	lot := tradingLot(end)

	if err := Extend(lot, 5, base); err != nil {
		t.Fatalf("extend +5: %v", err)
	}
	want := end.Add(5 * time.Minute)
	if !lot.AuctionEndAt.Equal(want) {
		t.Fatalf("expected deadline %v, got %v", want, lot.AuctionEndAt)
	}
}

func TestExtendPausedLot(t *testing.T) {
	base := time.Now()
	lot := tradingLot(base.Add(10 * time.Minute))
	if err := Pause(lot, base); err != nil {
		t.Fatalf("pause: %v", err)
	}

	if err := Extend(lot, 5, base); err != nil {
		t.Fatalf("extend +5 paused: %v", err)
	}
	if *lot.PausedRemainingMs != 600_000+300_000 {
		t.Fatalf("expected 900000ms remaining, got %d", *lot.PausedRemainingMs)
	}
}

func TestExtendRejectsDeltaPastNow(t *testing.T) {
	base := time.Now()
	lot := tradingLot(base.Add(3 * time.Minute))

	if err := Extend(lot, -5, base); !errors.Is(err, ErrInvalidDelta) {
		t.Fatalf("expected ErrInvalidDelta shortening past now, got %v", err)
	}

	paused := tradingLot(base.Add(3 * time.Minute))
	if err := Pause(paused, base); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := Extend(paused, -5, base); !errors.Is(err, ErrInvalidDelta) {
		t.Fatalf("expected ErrInvalidDelta for negative remaining, got %v", err)
	}
	if *paused.PausedRemainingMs != 180_000 {
		t.Fatalf("rejected extend must not mutate remaining, got %d", *paused.PausedRemainingMs)
	}
}

func TestRemaining(t *testing.T) {
	base := time.Now()
	lot := tradingLot(base.Add(90 * time.Second))

	if got := Remaining(lot, base); got != 90_000 {
		t.Fatalf("expected 90000ms, got %d", got)
	}
	if got := Remaining(lot, base.Add(2*time.Minute)); got != 0 {
		t.Fatalf("expected remaining floored at 0, got %d", got)
	}
}
