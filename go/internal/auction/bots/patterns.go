package bots

import (
	"math/rand"
	"time"

	"github.com/zigaf/car-auction/go/internal/models"
)

// MinIncrement is the minimal step a synthetic bid adds on top of the
// current price.
const MinIncrement int64 = 100

const (
	aggressiveMinDelay = 2 * time.Second
	aggressiveMaxDelay = 5 * time.Second

	// sniperFinalWindowMs is the stretch before the deadline where a sniper
	// fires on a rapid cadence instead of closing distance.
	sniperFinalWindowMs int64 = 30_000

	sniperFinalMinDelay = 500 * time.Millisecond
	sniperFinalMaxDelay = 3 * time.Second

	// defaultSniperWindowMs applies when a sniper config carries no
	// startMinutesBeforeEnd.
	defaultSniperWindowMs int64 = 60_000
)

// NextDelay computes how long a bot waits before its next action. Pure
// policy: all randomness comes from the supplied rng, all timing state from
// the arguments, so every pattern is testable without a scheduler.
func NextDelay(cfg models.BotConfig, remainingMs int64, rng *rand.Rand) time.Duration {
	intensity := cfg.Intensity
	if intensity <= 0 {
		intensity = 1.0
	}

	switch cfg.Pattern {
	case models.BotPatternAggressive:
		return scale(randBetween(rng, aggressiveMinDelay, aggressiveMaxDelay), intensity)

	case models.BotPatternSniper:
		window := SniperWindowMs(cfg)
		if remainingMs > window {
			// Dormant: wake exactly when the strike window opens.
			return time.Duration(remainingMs-window) * time.Millisecond
		}
		if remainingMs > sniperFinalWindowMs {
			// Close half the distance to the final stretch each cycle.
			return time.Duration((remainingMs-sniperFinalWindowMs)/2) * time.Millisecond
		}
		d := scale(randBetween(rng, sniperFinalMinDelay, sniperFinalMaxDelay), intensity)
		return clampToRemaining(d, remainingMs)

	case models.BotPatternSteady, models.BotPatternRandom:
		fallthrough
	default:
		lo := time.Duration(cfg.MinDelaySec) * time.Second
		hi := time.Duration(cfg.MaxDelaySec) * time.Second
		if lo <= 0 {
			lo = time.Second
		}
		if hi < lo {
			hi = lo
		}
		return scale(randBetween(rng, lo, hi), intensity)
	}
}

// NextAmount computes the candidate amount for the bot's next bid: the
// minimal strictly-greater step over the current price. The ceiling check
// against maxPrice belongs to the runner.
func NextAmount(cfg models.BotConfig, currentPrice int64) int64 {
	return currentPrice + MinIncrement
}

// SniperWindowMs returns the strike window for a sniper config in
// milliseconds.
func SniperWindowMs(cfg models.BotConfig) int64 {
	if cfg.StartMinutesBeforeEnd == nil || *cfg.StartMinutesBeforeEnd <= 0 {
		return defaultSniperWindowMs
	}
	return int64(*cfg.StartMinutesBeforeEnd) * 60_000
}

func randBetween(rng *rand.Rand, lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rng.Int63n(int64(hi-lo)+1))
}

func scale(d time.Duration, intensity float64) time.Duration {
	scaled := time.Duration(float64(d) * intensity)
	if scaled < 100*time.Millisecond {
		scaled = 100 * time.Millisecond
	}
	return scaled
}

func clampToRemaining(d time.Duration, remainingMs int64) time.Duration {
	limit := time.Duration(remainingMs) * time.Millisecond
	if limit <= 0 {
		return 100 * time.Millisecond
	}
	if d > limit {
		return limit
	}
	return d
}
