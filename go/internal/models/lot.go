package models

import (
	"time"

	"github.com/google/uuid"
)

// LotStatus defines the lifecycle status of an auction lot.
type LotStatus string

const (
	LotStatusImported  LotStatus = "IMPORTED"
	LotStatusActive    LotStatus = "ACTIVE"
	LotStatusTrading   LotStatus = "TRADING"
	LotStatusSold      LotStatus = "SOLD"
	LotStatusCancelled LotStatus = "CANCELLED"
)

// Lot represents a single auctionable vehicle lot.
//
// PausedRemainingMs is set if and only if IsPaused is true. AuctionEndAt is
// only meaningful while the lot is TRADING and not paused.
type Lot struct {
	ID                uuid.UUID  `json:"id"`
	Title             string     `json:"title"`
	VIN               string     `json:"vin,omitempty"`
	Status            LotStatus  `json:"status"`
	StartingBid       int64      `json:"starting_bid"`
	ReservePrice      *int64     `json:"reserve_price,omitempty"`
	CurrentPrice      *int64     `json:"current_price,omitempty"` // derived from the bid ledger
	AuctionStartAt    *time.Time `json:"auction_start_at,omitempty"`
	AuctionEndAt      *time.Time `json:"auction_end_at,omitempty"`
	IsPaused          bool       `json:"is_paused"`
	PausedRemainingMs *int64     `json:"paused_remaining_ms,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Terminal reports whether the lot has reached a final status.
func (l *Lot) Terminal() bool {
	return l.Status == LotStatusSold || l.Status == LotStatusCancelled
}

// Clone returns a copy of the lot safe to hand out to readers.
func (l *Lot) Clone() Lot {
	out := *l
	if l.ReservePrice != nil {
		v := *l.ReservePrice
		out.ReservePrice = &v
	}
	if l.CurrentPrice != nil {
		v := *l.CurrentPrice
		out.CurrentPrice = &v
	}
	if l.AuctionStartAt != nil {
		t := *l.AuctionStartAt
		out.AuctionStartAt = &t
	}
	if l.AuctionEndAt != nil {
		t := *l.AuctionEndAt
		out.AuctionEndAt = &t
	}
	if l.PausedRemainingMs != nil {
		v := *l.PausedRemainingMs
		out.PausedRemainingMs = &v
	}
	return out
}
