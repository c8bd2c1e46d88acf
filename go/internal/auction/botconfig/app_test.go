package botconfig

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/zigaf/car-auction/go/internal/auction/store"
	"github.com/zigaf/car-auction/go/internal/models"
)

func newApp() (*App, *store.Memory) {
	mem := store.NewMemory()
	return NewApp(mem), mem
}

func validCreateRequest() CreateBotConfigRequest {
	return CreateBotConfigRequest{
		LotID:       uuid.New(),
		BotUserID:   uuid.New(),
		MaxPrice:    10_000,
		Pattern:     models.BotPatternSteady,
		IsActive:    true,
		MinDelaySec: 5,
		MaxDelaySec: 15,
		Intensity:   1.0,
	}
}

func TestCreateBotConfig(t *testing.T) {
	app, mem := newApp()
	ctx := context.Background()

	cfg, err := app.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if cfg.ID == uuid.Nil {
		t.Fatal("expected assigned config ID")
	}

	stored, err := mem.GetBotConfig(ctx, cfg.ID)
	if err != nil {
		t.Fatalf("get stored config: %v", err)
	}
	if !stored.IsActive {
		t.Fatal("expected stored config to be active")
	}
}

func TestCreateDefaultsIntensity(t *testing.T) {
	app, _ := newApp()

	req := validCreateRequest()
	req.Intensity = 0
	cfg, err := app.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if cfg.Intensity != 1.0 {
		t.Fatalf("expected default intensity 1.0, got %v", cfg.Intensity)
	}
}

func TestCreateValidation(t *testing.T) {
	app, _ := newApp()
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateBotConfigRequest)
	}{
		{"zero max price", func(r *CreateBotConfigRequest) { r.MaxPrice = 0 }},
		{"negative max price", func(r *CreateBotConfigRequest) { r.MaxPrice = -5 }},
		{"missing lot", func(r *CreateBotConfigRequest) { r.LotID = uuid.Nil }},
		{"missing bot user", func(r *CreateBotConfigRequest) { r.BotUserID = uuid.Nil }},
		{"negative intensity", func(r *CreateBotConfigRequest) { r.Intensity = -1 }},
		{"unknown pattern", func(r *CreateBotConfigRequest) { r.Pattern = "BERSERK" }},
		{"inverted delays", func(r *CreateBotConfigRequest) { r.MinDelaySec = 20; r.MaxDelaySec = 10 }},
		{"negative min delay", func(r *CreateBotConfigRequest) { r.MinDelaySec = -1 }},
		{"sniper without window", func(r *CreateBotConfigRequest) {
			r.Pattern = models.BotPatternSniper
			r.StartMinutesBeforeEnd = nil
		}},
		{"sniper with zero window", func(r *CreateBotConfigRequest) {
			r.Pattern = models.BotPatternSniper
			zero := 0
			r.StartMinutesBeforeEnd = &zero
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreateRequest()
			tc.mutate(&req)
			if _, err := app.Create(ctx, req); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestUpdateBotConfig(t *testing.T) {
	app, _ := newApp()
	ctx := context.Background()

	cfg, err := app.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newMax := int64(25_000)
	updated, err := app.Update(ctx, cfg.ID, UpdateBotConfigRequest{MaxPrice: &newMax})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.MaxPrice != 25_000 {
		t.Fatalf("expected max price 25000, got %d", updated.MaxPrice)
	}
	if updated.Pattern != models.BotPatternSteady {
		t.Fatalf("unchanged field was modified: %s", updated.Pattern)
	}

	// Edits are validated against the merged config.
	bad := int64(-1)
	if _, err := app.Update(ctx, cfg.ID, UpdateBotConfigRequest{MaxPrice: &bad}); err == nil {
		t.Fatal("expected validation error on negative max price")
	}

	if _, err := app.Update(ctx, uuid.New(), UpdateBotConfigRequest{MaxPrice: &newMax}); err == nil {
		t.Fatal("expected error for unknown config")
	}
}

func TestSetActive(t *testing.T) {
	app, mem := newApp()
	ctx := context.Background()

	cfg, err := app.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := app.SetActive(ctx, cfg.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	active, err := mem.ListActiveBotConfigs(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active configs, got %d", len(active))
	}

	if _, err := app.SetActive(ctx, cfg.ID, true); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	active, _ = mem.ListActiveBotConfigs(ctx)
	if len(active) != 1 {
		t.Fatalf("expected 1 active config, got %d", len(active))
	}
}

func TestListForLot(t *testing.T) {
	app, _ := newApp()
	ctx := context.Background()

	lotID := uuid.New()
	for i := 0; i < 3; i++ {
		req := validCreateRequest()
		req.LotID = lotID
		if _, err := app.Create(ctx, req); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if _, err := app.Create(ctx, validCreateRequest()); err != nil {
		t.Fatalf("create: %v", err)
	}

	cfgs, err := app.ListForLot(ctx, lotID)
	if err != nil {
		t.Fatalf("list for lot: %v", err)
	}
	if len(cfgs) != 3 {
		t.Fatalf("expected 3 configs for lot, got %d", len(cfgs))
	}
}
