package models

import (
	"time"

	"github.com/google/uuid"
)

// BotPattern defines the timing/amount policy driving one automated bidder.
type BotPattern string

const (
	BotPatternAggressive BotPattern = "AGGRESSIVE"
	BotPatternSteady     BotPattern = "STEADY"
	BotPatternSniper     BotPattern = "SNIPER"
	BotPatternRandom     BotPattern = "RANDOM"
)

// BotConfig drives one automated bidder's behavior on one lot.
type BotConfig struct {
	ID                    uuid.UUID  `json:"id"`
	LotID                 uuid.UUID  `json:"lot_id"`
	BotUserID             uuid.UUID  `json:"bot_user_id"`
	MaxPrice              int64      `json:"max_price"` // inclusive ceiling
	Pattern               BotPattern `json:"pattern"`
	IsActive              bool       `json:"is_active"`
	MinDelaySec           int        `json:"min_delay_sec"`
	MaxDelaySec           int        `json:"max_delay_sec"`
	Intensity             float64    `json:"intensity"` // delay multiplier, default 1.0
	StartMinutesBeforeEnd *int       `json:"start_minutes_before_end,omitempty"` // SNIPER only
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// Equal reports whether two configs carry the same behavioral parameters.
// Used by the scheduler to detect admin edits between polls.
func (c BotConfig) Equal(o BotConfig) bool {
	if c.ID != o.ID || c.LotID != o.LotID || c.BotUserID != o.BotUserID ||
		c.MaxPrice != o.MaxPrice || c.Pattern != o.Pattern || c.IsActive != o.IsActive ||
		c.MinDelaySec != o.MinDelaySec || c.MaxDelaySec != o.MaxDelaySec ||
		c.Intensity != o.Intensity {
		return false
	}
	if (c.StartMinutesBeforeEnd == nil) != (o.StartMinutesBeforeEnd == nil) {
		return false
	}
	if c.StartMinutesBeforeEnd != nil && *c.StartMinutesBeforeEnd != *o.StartMinutesBeforeEnd {
		return false
	}
	return true
}
