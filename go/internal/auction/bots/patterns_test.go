package bots

import (
	"math/rand"
	"testing"
	"time"

	"github.com/zigaf/car-auction/go/internal/models"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestNextDelayAggressiveRange(t *testing.T) {
	cfg := models.BotConfig{Pattern: models.BotPatternAggressive, Intensity: 1.0}
	rng := testRNG()

	for i := 0; i < 200; i++ {
		d := NextDelay(cfg, 300_000, rng)
		if d < 2*time.Second || d > 5*time.Second {
			t.Fatalf("aggressive delay %v outside [2s,5s]", d)
		}
	}
}

func TestNextDelayIntensityScales(t *testing.T) {
	cfg := models.BotConfig{Pattern: models.BotPatternAggressive, Intensity: 0.5}
	rng := testRNG()

	for i := 0; i < 200; i++ {
		d := NextDelay(cfg, 300_000, rng)
		if d < time.Second || d > 2500*time.Millisecond {
			t.Fatalf("intensity 0.5 delay %v outside [1s,2.5s]", d)
		}
	}
}

func TestNextDelaySteadyHonorsBounds(t *testing.T) {
	cfg := models.BotConfig{
		Pattern:     models.BotPatternSteady,
		Intensity:   1.0,
		MinDelaySec: 10,
		MaxDelaySec: 20,
	}
	rng := testRNG()

	for i := 0; i < 200; i++ {
		d := NextDelay(cfg, 300_000, rng)
		if d < 10*time.Second || d > 20*time.Second {
			t.Fatalf("steady delay %v outside [10s,20s]", d)
		}
	}
}

func TestNextDelayRandomHonorsBounds(t *testing.T) {
	cfg := models.BotConfig{
		Pattern:     models.BotPatternRandom,
		Intensity:   1.0,
		MinDelaySec: 3,
		MaxDelaySec: 7,
	}
	rng := testRNG()

	for i := 0; i < 200; i++ {
		d := NextDelay(cfg, 300_000, rng)
		if d < 3*time.Second || d > 7*time.Second {
			t.Fatalf("random delay %v outside [3s,7s]", d)
		}
	}
}

func TestNextDelaySniperDormantWakesAtWindow(t *testing.T) {
	window := 1
	cfg := models.BotConfig{
		Pattern:               models.BotPatternSniper,
		Intensity:             1.0,
		StartMinutesBeforeEnd: &window,
	}

	// 10 minutes remaining, 1 minute strike window: sleep exactly 9 minutes.
	d := NextDelay(cfg, 600_000, testRNG())
	if d != 9*time.Minute {
		t.Fatalf("expected dormant sniper to sleep 9m, got %v", d)
	}
}

func TestNextDelaySniperClosesDistance(t *testing.T) {
	window := 5
	cfg := models.BotConfig{
		Pattern:               models.BotPatternSniper,
		Intensity:             1.0,
		StartMinutesBeforeEnd: &window,
	}

	// Inside the window but before the final stretch: half the distance to
	// the final 30 seconds.
	d := NextDelay(cfg, 120_000, testRNG())
	if d != 45*time.Second {
		t.Fatalf("expected 45s, got %v", d)
	}
}

func TestNextDelaySniperFinalStretch(t *testing.T) {
	window := 1
	cfg := models.BotConfig{
		Pattern:               models.BotPatternSniper,
		Intensity:             1.0,
		StartMinutesBeforeEnd: &window,
	}
	rng := testRNG()

	for i := 0; i < 200; i++ {
		d := NextDelay(cfg, 20_000, rng)
		if d < 500*time.Millisecond || d > 3*time.Second {
			t.Fatalf("final stretch delay %v outside [500ms,3s]", d)
		}
	}

	// Never sleeps past the deadline.
	for i := 0; i < 200; i++ {
		d := NextDelay(cfg, 1_000, rng)
		if d > time.Second {
			t.Fatalf("delay %v overshoots 1s remaining", d)
		}
	}
}

func TestNextAmountMinimalIncrement(t *testing.T) {
	cfg := models.BotConfig{Pattern: models.BotPatternSteady}
	if got := NextAmount(cfg, 5200); got != 5200+MinIncrement {
		t.Fatalf("expected %d, got %d", 5200+MinIncrement, got)
	}
}

func TestSniperWindowDefaults(t *testing.T) {
	cfg := models.BotConfig{Pattern: models.BotPatternSniper}
	if got := SniperWindowMs(cfg); got != 60_000 {
		t.Fatalf("expected default 60000ms window, got %d", got)
	}

	three := 3
	cfg.StartMinutesBeforeEnd = &three
	if got := SniperWindowMs(cfg); got != 180_000 {
		t.Fatalf("expected 180000ms window, got %d", got)
	}
}
