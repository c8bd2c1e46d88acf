package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/zigaf/car-auction/go/internal/auction/store"
	"github.com/zigaf/car-auction/go/internal/auction/store/postgres"
)

// setupStore opens the configured persistence backend. Without database
// settings the service runs purely in memory, which is fine for development
// since the engine is memory-authoritative anyway.
func setupStore(ctx context.Context, cfg *Config) (store.Store, func(), error) {
	if !cfg.databaseConfigured() {
		log.Info().Msg("no database configured, using in-memory store")
		return store.NewMemory(), func() {}, nil
	}

	client, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := client.RunMigrations(ctx); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().
		Str("host", cfg.Database.Host).
		Str("database", cfg.Database.Database).
		Msg("connected to database")
	return postgres.NewStore(client.Pool()), client.Close, nil
}
