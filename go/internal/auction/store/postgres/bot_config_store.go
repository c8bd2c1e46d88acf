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

const botConfigSelectCols = `id, lot_id, bot_user_id, max_price, pattern,
	is_active, min_delay_sec, max_delay_sec, intensity,
	start_minutes_before_end, created_at, updated_at`

// CreateBotConfig inserts a new bot configuration.
func (s *Store) CreateBotConfig(ctx context.Context, cfg *models.BotConfig) error {
	const query = `
		INSERT INTO bot_configs (
			id, lot_id, bot_user_id, max_price, pattern,
			is_active, min_delay_sec, max_delay_sec, intensity,
			start_minutes_before_end, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())`

	_, err := s.pool.Exec(ctx, query,
		cfg.ID, cfg.LotID, cfg.BotUserID, cfg.MaxPrice, string(cfg.Pattern),
		cfg.IsActive, cfg.MinDelaySec, cfg.MaxDelaySec, cfg.Intensity,
		cfg.StartMinutesBeforeEnd, cfg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create bot config %s: %w", cfg.ID, err)
	}
	return nil
}

// UpdateBotConfig rewrites an existing bot configuration.
func (s *Store) UpdateBotConfig(ctx context.Context, cfg *models.BotConfig) error {
	const query = `
		UPDATE bot_configs SET
			max_price = $2,
			pattern = $3,
			is_active = $4,
			min_delay_sec = $5,
			max_delay_sec = $6,
			intensity = $7,
			start_minutes_before_end = $8,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query,
		cfg.ID, cfg.MaxPrice, string(cfg.Pattern), cfg.IsActive,
		cfg.MinDelaySec, cfg.MaxDelaySec, cfg.Intensity,
		cfg.StartMinutesBeforeEnd,
	)
	if err != nil {
		return fmt.Errorf("postgres: update bot config %s: %w", cfg.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanBotConfigFromRow(scanner interface{ Scan(dest ...any) error }) (*models.BotConfig, error) {
	var c models.BotConfig
	var pattern string

	err := scanner.Scan(
		&c.ID, &c.LotID, &c.BotUserID, &c.MaxPrice, &pattern,
		&c.IsActive, &c.MinDelaySec, &c.MaxDelaySec, &c.Intensity,
		&c.StartMinutesBeforeEnd, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Pattern = models.BotPattern(pattern)
	return &c, nil
}

// GetBotConfig retrieves a single bot configuration by ID.
func (s *Store) GetBotConfig(ctx context.Context, id uuid.UUID) (*models.BotConfig, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+botConfigSelectCols+` FROM bot_configs WHERE id = $1`, id)

	cfg, err := scanBotConfigFromRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get bot config %s: %w", id, err)
	}
	return cfg, nil
}

func (s *Store) listBotConfigs(ctx context.Context, query string, args ...any) ([]*models.BotConfig, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bot configs: %w", err)
	}
	defer rows.Close()

	var cfgs []*models.BotConfig
	for rows.Next() {
		cfg, err := scanBotConfigFromRow(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan bot config: %w", err)
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, rows.Err()
}

// ListBotConfigsForLot returns every bot configuration targeting one lot.
func (s *Store) ListBotConfigsForLot(ctx context.Context, lotID uuid.UUID) ([]*models.BotConfig, error) {
	return s.listBotConfigs(ctx,
		`SELECT `+botConfigSelectCols+` FROM bot_configs WHERE lot_id = $1 ORDER BY created_at`,
		lotID)
}

// ListActiveBotConfigs returns every active bot configuration across lots.
func (s *Store) ListActiveBotConfigs(ctx context.Context) ([]*models.BotConfig, error) {
	return s.listBotConfigs(ctx,
		`SELECT `+botConfigSelectCols+` FROM bot_configs WHERE is_active ORDER BY created_at`)
}
