// Package store defines the persistence surface the auction service writes
// through. The engine is authoritative in memory; stores exist so lots, bids
// and bot configs survive restarts and so administrators have a CRUD surface.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/zigaf/car-auction/go/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// LotStore persists lots.
type LotStore interface {
	UpsertLot(ctx context.Context, lot *models.Lot) error
	GetLot(ctx context.Context, id uuid.UUID) (*models.Lot, error)
	ListLots(ctx context.Context) ([]*models.Lot, error)
}

// BidStore persists the append-only bid ledger. Bids are never updated
// except to flag a rollback.
type BidStore interface {
	InsertBid(ctx context.Context, bid *models.Bid) error
	MarkBidRolledBack(ctx context.Context, bidID uuid.UUID) error
	ListBidsForLot(ctx context.Context, lotID uuid.UUID) ([]*models.Bid, error)
}

// BotConfigStore persists bot configurations.
type BotConfigStore interface {
	CreateBotConfig(ctx context.Context, cfg *models.BotConfig) error
	UpdateBotConfig(ctx context.Context, cfg *models.BotConfig) error
	GetBotConfig(ctx context.Context, id uuid.UUID) (*models.BotConfig, error)
	ListBotConfigsForLot(ctx context.Context, lotID uuid.UUID) ([]*models.BotConfig, error)
	ListActiveBotConfigs(ctx context.Context) ([]*models.BotConfig, error)
}

// Store is the full persistence surface.
type Store interface {
	LotStore
	BidStore
	BotConfigStore
}
