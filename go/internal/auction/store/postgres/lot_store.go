package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zigaf/car-auction/go/internal/auction/store"
	"github.com/zigaf/car-auction/go/internal/models"
)

const lotSelectCols = `id, title, vin, status, starting_bid, reserve_price,
	current_price, auction_start_at, auction_end_at, is_paused,
	paused_remaining_ms, created_at, updated_at`

// UpsertLot writes the lot's full state, inserting it on first sight.
func (s *Store) UpsertLot(ctx context.Context, lot *models.Lot) error {
	const query = `
		INSERT INTO lots (
			id, title, vin, status, starting_bid, reserve_price,
			current_price, auction_start_at, auction_end_at, is_paused,
			paused_remaining_ms, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			vin = EXCLUDED.vin,
			status = EXCLUDED.status,
			starting_bid = EXCLUDED.starting_bid,
			reserve_price = EXCLUDED.reserve_price,
			current_price = EXCLUDED.current_price,
			auction_start_at = EXCLUDED.auction_start_at,
			auction_end_at = EXCLUDED.auction_end_at,
			is_paused = EXCLUDED.is_paused,
			paused_remaining_ms = EXCLUDED.paused_remaining_ms,
			updated_at = NOW()`

	_, err := s.pool.Exec(ctx, query,
		lot.ID, lot.Title, lot.VIN, string(lot.Status),
		lot.StartingBid, lot.ReservePrice, lot.CurrentPrice,
		lot.AuctionStartAt, lot.AuctionEndAt,
		lot.IsPaused, lot.PausedRemainingMs,
		lot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert lot %s: %w", lot.ID, err)
	}
	return nil
}

func scanLotFromRow(scanner interface{ Scan(dest ...any) error }) (*models.Lot, error) {
	var l models.Lot
	var status string

	err := scanner.Scan(
		&l.ID, &l.Title, &l.VIN, &status,
		&l.StartingBid, &l.ReservePrice, &l.CurrentPrice,
		&l.AuctionStartAt, &l.AuctionEndAt,
		&l.IsPaused, &l.PausedRemainingMs,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Status = models.LotStatus(status)
	return &l, nil
}

// GetLot retrieves a single lot by ID.
func (s *Store) GetLot(ctx context.Context, id uuid.UUID) (*models.Lot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+lotSelectCols+` FROM lots WHERE id = $1`, id)

	lot, err := scanLotFromRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get lot %s: %w", id, err)
	}
	return lot, nil
}

// ListLots returns every lot, oldest first.
func (s *Store) ListLots(ctx context.Context) ([]*models.Lot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+lotSelectCols+` FROM lots ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list lots: %w", err)
	}
	defer rows.Close()

	var lots []*models.Lot
	for rows.Next() {
		lot, err := scanLotFromRow(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan lot: %w", err)
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}
