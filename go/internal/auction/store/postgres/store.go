package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zigaf/car-auction/go/internal/auction/store"
)

// Store implements store.Store on a PostgreSQL connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// NewStore creates a Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}
