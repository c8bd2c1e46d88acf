// Package timer implements the countdown arithmetic for a single lot:
// pause, resume, extend and remaining-time reads. Functions here mutate the
// lot struct directly and carry no locking; the auction engine only calls
// them inside the lot's exclusive section.
package timer

import (
	"errors"
	"time"

	"github.com/zigaf/car-auction/go/internal/models"
)

var (
	// ErrNotTrading is returned for timer operations on a lot outside its
	// bidding window.
	ErrNotTrading = errors.New("lot is not trading")

	// ErrAlreadyPaused is returned when pausing a paused lot.
	ErrAlreadyPaused = errors.New("lot is already paused")

	// ErrNotPaused is returned when resuming a lot that is not paused.
	ErrNotPaused = errors.New("lot is not paused")

	// ErrInvalidDelta is returned when an extend would move the deadline
	// before now or the remaining time below zero.
	ErrInvalidDelta = errors.New("invalid extend delta")
)

// Pause freezes the countdown, capturing the remaining window so Resume can
// rebase the deadline later. Pausing an already paused lot is an error.
func Pause(lot *models.Lot, now time.Time) error {
	if lot.Status != models.LotStatusTrading {
		return ErrNotTrading
	}
	if lot.IsPaused {
		return ErrAlreadyPaused
	}

	remaining := int64(0)
	if lot.AuctionEndAt != nil {
		remaining = max64(0, lot.AuctionEndAt.Sub(now).Milliseconds())
	}
	lot.PausedRemainingMs = &remaining
	lot.IsPaused = true
	return nil
}

// Resume rebases the deadline to now plus the frozen remaining time.
func Resume(lot *models.Lot, now time.Time) error {
	if !lot.IsPaused || lot.PausedRemainingMs == nil {
		return ErrNotPaused
	}

	endAt := now.Add(time.Duration(*lot.PausedRemainingMs) * time.Millisecond)
	lot.AuctionEndAt = &endAt
	lot.PausedRemainingMs = nil
	lot.IsPaused = false
	return nil
}

// Extend moves the deadline (or, when paused, the frozen remaining time) by
// deltaMinutes. Negative deltas shorten the window but may not push the
// deadline before now or the remaining time below zero.
func Extend(lot *models.Lot, deltaMinutes int, now time.Time) error {
	if lot.Status != models.LotStatusTrading {
		return ErrNotTrading
	}

	deltaMs := int64(deltaMinutes) * 60_000

	if lot.IsPaused {
		if lot.PausedRemainingMs == nil {
			return ErrInvalidDelta
		}
		next := *lot.PausedRemainingMs + deltaMs
		if next < 0 {
			return ErrInvalidDelta
		}
		lot.PausedRemainingMs = &next
		return nil
	}

	if lot.AuctionEndAt == nil {
		return ErrInvalidDelta
	}
	next := lot.AuctionEndAt.Add(time.Duration(deltaMs) * time.Millisecond)
	if next.Before(now) {
		return ErrInvalidDelta
	}
	lot.AuctionEndAt = &next
	return nil
}

// Remaining returns the lot's remaining window in milliseconds: the frozen
// value when paused, otherwise the distance to the deadline floored at zero.
func Remaining(lot *models.Lot, now time.Time) int64 {
	if lot.IsPaused {
		if lot.PausedRemainingMs == nil {
			return 0
		}
		return *lot.PausedRemainingMs
	}
	if lot.AuctionEndAt == nil {
		return 0
	}
	return max64(0, lot.AuctionEndAt.Sub(now).Milliseconds())
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
