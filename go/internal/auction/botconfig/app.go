// Package botconfig is the administrative surface for automated bidders.
// Configs are persisted here; the bot scheduler picks changes up on its next
// poll.
package botconfig

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zigaf/car-auction/go/internal/models"
)

// Repository defines what the app layer needs from persistence.
type Repository interface {
	CreateBotConfig(ctx context.Context, cfg *models.BotConfig) error
	UpdateBotConfig(ctx context.Context, cfg *models.BotConfig) error
	GetBotConfig(ctx context.Context, id uuid.UUID) (*models.BotConfig, error)
	ListBotConfigsForLot(ctx context.Context, lotID uuid.UUID) ([]*models.BotConfig, error)
	ListActiveBotConfigs(ctx context.Context) ([]*models.BotConfig, error)
}

// CreateBotConfigRequest carries the parameters for a new bot.
type CreateBotConfigRequest struct {
	LotID                 uuid.UUID         `json:"lot_id"`
	BotUserID             uuid.UUID         `json:"bot_user_id"`
	MaxPrice              int64             `json:"max_price"`
	Pattern               models.BotPattern `json:"pattern"`
	IsActive              bool              `json:"is_active"`
	MinDelaySec           int               `json:"min_delay_sec"`
	MaxDelaySec           int               `json:"max_delay_sec"`
	Intensity             float64           `json:"intensity"`
	StartMinutesBeforeEnd *int              `json:"start_minutes_before_end,omitempty"`
}

// UpdateBotConfigRequest carries edits to an existing bot. Nil fields are
// left unchanged.
type UpdateBotConfigRequest struct {
	MaxPrice              *int64             `json:"max_price,omitempty"`
	Pattern               *models.BotPattern `json:"pattern,omitempty"`
	MinDelaySec           *int               `json:"min_delay_sec,omitempty"`
	MaxDelaySec           *int               `json:"max_delay_sec,omitempty"`
	Intensity             *float64           `json:"intensity,omitempty"`
	StartMinutesBeforeEnd *int               `json:"start_minutes_before_end,omitempty"`
}

// App handles bot configuration business logic.
type App struct {
	repo Repository
}

// NewApp creates a new botconfig App.
func NewApp(repo Repository) *App {
	return &App{repo: repo}
}

// Create validates and persists a new bot configuration.
func (a *App) Create(ctx context.Context, req CreateBotConfigRequest) (*models.BotConfig, error) {
	if req.Intensity == 0 {
		req.Intensity = 1.0
	}

	cfg := &models.BotConfig{
		ID:                    uuid.New(),
		LotID:                 req.LotID,
		BotUserID:             req.BotUserID,
		MaxPrice:              req.MaxPrice,
		Pattern:               req.Pattern,
		IsActive:              req.IsActive,
		MinDelaySec:           req.MinDelaySec,
		MaxDelaySec:           req.MaxDelaySec,
		Intensity:             req.Intensity,
		StartMinutesBeforeEnd: req.StartMinutesBeforeEnd,
		CreatedAt:             time.Now().UTC(),
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := a.repo.CreateBotConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to create bot config: %w", err)
	}

	log.Info().
		Str("config_id", cfg.ID.String()).
		Str("lot_id", cfg.LotID.String()).
		Str("pattern", string(cfg.Pattern)).
		Int64("max_price", cfg.MaxPrice).
		Msg("created bot config")
	return cfg, nil
}

// Update applies edits to an existing bot configuration.
func (a *App) Update(ctx context.Context, id uuid.UUID, req UpdateBotConfigRequest) (*models.BotConfig, error) {
	cfg, err := a.repo.GetBotConfig(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("bot config not found: %w", err)
	}

	if req.MaxPrice != nil {
		cfg.MaxPrice = *req.MaxPrice
	}
	if req.Pattern != nil {
		cfg.Pattern = *req.Pattern
	}
	if req.MinDelaySec != nil {
		cfg.MinDelaySec = *req.MinDelaySec
	}
	if req.MaxDelaySec != nil {
		cfg.MaxDelaySec = *req.MaxDelaySec
	}
	if req.Intensity != nil {
		cfg.Intensity = *req.Intensity
	}
	if req.StartMinutesBeforeEnd != nil {
		cfg.StartMinutesBeforeEnd = req.StartMinutesBeforeEnd
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := a.repo.UpdateBotConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to update bot config: %w", err)
	}

	log.Info().Str("config_id", id.String()).Msg("updated bot config")
	return cfg, nil
}

// SetActive activates or deactivates a bot. A deactivated bot is stopped by
// the scheduler on its next poll.
func (a *App) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.BotConfig, error) {
	cfg, err := a.repo.GetBotConfig(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("bot config not found: %w", err)
	}

	if cfg.IsActive == active {
		return cfg, nil
	}

	cfg.IsActive = active
	if err := a.repo.UpdateBotConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to update bot config: %w", err)
	}

	log.Info().
		Str("config_id", id.String()).
		Bool("active", active).
		Msg("toggled bot config")
	return cfg, nil
}

// Get retrieves a bot configuration by ID.
func (a *App) Get(ctx context.Context, id uuid.UUID) (*models.BotConfig, error) {
	cfg, err := a.repo.GetBotConfig(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get bot config: %w", err)
	}
	return cfg, nil
}

// ListForLot retrieves every bot configuration targeting a lot.
func (a *App) ListForLot(ctx context.Context, lotID uuid.UUID) ([]*models.BotConfig, error) {
	cfgs, err := a.repo.ListBotConfigsForLot(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bot configs: %w", err)
	}
	return cfgs, nil
}

// ListActive retrieves every active bot configuration across lots.
func (a *App) ListActive(ctx context.Context) ([]*models.BotConfig, error) {
	cfgs, err := a.repo.ListActiveBotConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active bot configs: %w", err)
	}
	return cfgs, nil
}

func validate(cfg *models.BotConfig) error {
	if cfg.LotID == uuid.Nil {
		return fmt.Errorf("lot_id is required")
	}
	if cfg.BotUserID == uuid.Nil {
		return fmt.Errorf("bot_user_id is required")
	}
	if cfg.MaxPrice <= 0 {
		return fmt.Errorf("max_price must be positive")
	}
	if cfg.Intensity <= 0 {
		return fmt.Errorf("intensity must be positive")
	}

	switch cfg.Pattern {
	case models.BotPatternAggressive:
	case models.BotPatternSniper:
		if cfg.StartMinutesBeforeEnd == nil || *cfg.StartMinutesBeforeEnd <= 0 {
			return fmt.Errorf("sniper pattern requires a positive start_minutes_before_end")
		}
	case models.BotPatternSteady, models.BotPatternRandom:
		if cfg.MinDelaySec < 0 {
			return fmt.Errorf("min_delay_sec cannot be negative")
		}
		if cfg.MaxDelaySec < cfg.MinDelaySec {
			return fmt.Errorf("max_delay_sec cannot be less than min_delay_sec")
		}
	default:
		return fmt.Errorf("unknown pattern %q", cfg.Pattern)
	}

	return nil
}
