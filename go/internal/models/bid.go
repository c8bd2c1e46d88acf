package models

import (
	"time"

	"github.com/google/uuid"
)

// Bid represents a single accepted bid against a lot.
//
// Sequence is assigned at acceptance time inside the lot's exclusive section
// and is strictly increasing per lot; it breaks ties between bids carrying
// identical timestamps. A bid is never mutated after acceptance except to
// set RolledBack.
type Bid struct {
	ID         uuid.UUID `json:"id"`
	LotID      uuid.UUID `json:"lot_id"`
	BidderID   uuid.UUID `json:"bidder_id"`
	Amount     int64     `json:"amount"`
	IsAutoBid  bool      `json:"is_auto_bid"`
	Sequence   int64     `json:"sequence"`
	RolledBack bool      `json:"rolled_back"`
	CreatedAt  time.Time `json:"created_at"`
}
