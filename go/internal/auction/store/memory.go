package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/zigaf/car-auction/go/internal/models"
)

// Memory is an in-memory Store used in tests and single-process dev runs.
type Memory struct {
	mu         sync.RWMutex
	lots       map[uuid.UUID]models.Lot
	bids       map[uuid.UUID]models.Bid
	botConfigs map[uuid.UUID]models.BotConfig
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		lots:       make(map[uuid.UUID]models.Lot),
		bids:       make(map[uuid.UUID]models.Bid),
		botConfigs: make(map[uuid.UUID]models.BotConfig),
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) UpsertLot(ctx context.Context, lot *models.Lot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lots[lot.ID] = lot.Clone()
	return nil
}

func (m *Memory) GetLot(ctx context.Context, id uuid.UUID) (*models.Lot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lot, ok := m.lots[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := lot.Clone()
	return &out, nil
}

func (m *Memory) ListLots(ctx context.Context) ([]*models.Lot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Lot, 0, len(m.lots))
	for _, lot := range m.lots {
		c := lot.Clone()
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) InsertBid(ctx context.Context, bid *models.Bid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bids[bid.ID] = *bid
	return nil
}

func (m *Memory) MarkBidRolledBack(ctx context.Context, bidID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bid, ok := m.bids[bidID]
	if !ok {
		return ErrNotFound
	}
	bid.RolledBack = true
	m.bids[bidID] = bid
	return nil
}

func (m *Memory) ListBidsForLot(ctx context.Context, lotID uuid.UUID) ([]*models.Bid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Bid
	for _, bid := range m.bids {
		if bid.LotID != lotID {
			continue
		}
		b := bid
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (m *Memory) CreateBotConfig(ctx context.Context, cfg *models.BotConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.botConfigs[cfg.ID] = *cfg
	return nil
}

func (m *Memory) UpdateBotConfig(ctx context.Context, cfg *models.BotConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.botConfigs[cfg.ID]; !ok {
		return ErrNotFound
	}
	m.botConfigs[cfg.ID] = *cfg
	return nil
}

func (m *Memory) GetBotConfig(ctx context.Context, id uuid.UUID) (*models.BotConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.botConfigs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cfg
	return &out, nil
}

func (m *Memory) ListBotConfigsForLot(ctx context.Context, lotID uuid.UUID) ([]*models.BotConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.BotConfig
	for _, cfg := range m.botConfigs {
		if cfg.LotID != lotID {
			continue
		}
		c := cfg
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListActiveBotConfigs(ctx context.Context) ([]*models.BotConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.BotConfig
	for _, cfg := range m.botConfigs {
		if !cfg.IsActive {
			continue
		}
		c := cfg
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
