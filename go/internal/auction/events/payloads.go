package events

import (
	"time"
)

// Event payload types shared between the auction engine and the gateway.

// EventType identifies the kind of auction event carried by an envelope.
type EventType string

const (
	EventTypeAuctionStarted  EventType = "auction_started"
	EventTypeFeedUpdate      EventType = "feed_update"
	EventTypeBidRolledBack   EventType = "bid_rolled_back"
	EventTypeAuctionPaused   EventType = "auction_paused"
	EventTypeAuctionExtended EventType = "auction_extended"
	EventTypeAuctionResumed  EventType = "auction_resumed"
	EventTypeAuctionEnded    EventType = "auction_ended"
)

// AuctionStartedPayload is emitted when a lot's bidding window opens.
type AuctionStartedPayload struct {
	LotID       string    `json:"lot_id"`
	StartingBid int64     `json:"starting_bid"`
	EndsAt      time.Time `json:"ends_at"`
	StartedAt   time.Time `json:"started_at"`
}

// FeedUpdatePayload is emitted for every accepted bid.
type FeedUpdatePayload struct {
	LotID     string    `json:"lot_id"`
	BidID     string    `json:"bid_id"`
	BidderID  string    `json:"bidder_id"`
	Amount    int64     `json:"amount"`
	IsAutoBid bool      `json:"is_auto_bid"`
	PlacedAt  time.Time `json:"placed_at"`
}

// BidRolledBackPayload is emitted after a bid rollback with the recomputed price.
type BidRolledBackPayload struct {
	LotID        string `json:"lot_id"`
	BidID        string `json:"bid_id"`
	CurrentPrice int64  `json:"current_price"`
}

// AuctionPausedPayload is emitted when an admin freezes a lot's countdown.
type AuctionPausedPayload struct {
	LotID             string    `json:"lot_id"`
	PausedRemainingMs int64     `json:"paused_remaining_ms"`
	PausedAt          time.Time `json:"paused_at"`
}

// AuctionResumedPayload carries the rebased deadline observers resync against.
type AuctionResumedPayload struct {
	LotID    string    `json:"lot_id"`
	NewEndAt time.Time `json:"new_end_at"`
}

// AuctionExtendedPayload carries the adjusted deadline (or remaining time,
// when the lot is paused) after an admin extend/shorten.
type AuctionExtendedPayload struct {
	LotID                string     `json:"lot_id"`
	NewEndAt             *time.Time `json:"new_end_at,omitempty"`
	NewPausedRemainingMs *int64     `json:"new_paused_remaining_ms,omitempty"`
}

// AuctionEndedPayload is emitted on the terminal transition out of trading.
type AuctionEndedPayload struct {
	LotID      string    `json:"lot_id"`
	WinnerID   *string   `json:"winner_id"` // nil when the lot closed without a qualifying bid
	FinalPrice int64     `json:"final_price"`
	Sold       bool      `json:"sold"`
	EndedAt    time.Time `json:"ended_at"`
}
