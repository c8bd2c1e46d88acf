package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/zigaf/car-auction/go/internal/auction/store"
	"github.com/zigaf/car-auction/go/internal/models"
)

// InsertBid appends one accepted bid. Bids are immutable after insertion
// except for the rollback flag.
func (s *Store) InsertBid(ctx context.Context, bid *models.Bid) error {
	const query = `
		INSERT INTO bids (
			id, lot_id, bidder_id, amount, is_auto_bid,
			sequence, rolled_back, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.pool.Exec(ctx, query,
		bid.ID, bid.LotID, bid.BidderID, bid.Amount,
		bid.IsAutoBid, bid.Sequence, bid.RolledBack, bid.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert bid %s: %w", bid.ID, err)
	}
	return nil
}

// MarkBidRolledBack flags a bid as excluded from price computation.
func (s *Store) MarkBidRolledBack(ctx context.Context, bidID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE bids SET rolled_back = TRUE WHERE id = $1`, bidID)
	if err != nil {
		return fmt.Errorf("postgres: mark bid %s rolled back: %w", bidID, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListBidsForLot returns a lot's full bid history in acceptance order,
// rolled-back bids included.
func (s *Store) ListBidsForLot(ctx context.Context, lotID uuid.UUID) ([]*models.Bid, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, lot_id, bidder_id, amount, is_auto_bid,
		       sequence, rolled_back, created_at
		FROM bids
		WHERE lot_id = $1
		ORDER BY sequence`, lotID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bids for lot %s: %w", lotID, err)
	}
	defer rows.Close()

	var bids []*models.Bid
	for rows.Next() {
		var b models.Bid
		if err := rows.Scan(
			&b.ID, &b.LotID, &b.BidderID, &b.Amount,
			&b.IsAutoBid, &b.Sequence, &b.RolledBack, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan bid: %w", err)
		}
		bids = append(bids, &b)
	}
	return bids, rows.Err()
}
