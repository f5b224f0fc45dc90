package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tableside/internal/config"
	"tableside/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PostgresStore keeps each collection as one JSONB document row, preserving
// the single-document read/write contract while living in a shared database.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zerolog.Logger
}

func NewPostgresPool(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, logger *zerolog.Logger) (*PostgresStore, error) {
	s := &PostgresStore{pool: pool, logger: logger}
	if err := s.ensureTable(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS collections (
			key TEXT PRIMARY KEY,
			payload JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("create collections table: %w", err)
	}
	return nil
}

// read returns the raw payload for one key, nil when no row exists.
func (s *PostgresStore) read(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM collections WHERE key = $1`, key,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return payload, nil
}

func (s *PostgresStore) save(ctx context.Context, key string, src interface{}) error {
	payload, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO collections (key, payload, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
	`, key, payload)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Orders returns the OrderStore view of this postgres store.
func (s *PostgresStore) Orders() *PostgresOrderStore {
	return &PostgresOrderStore{store: s}
}

// MenuItems returns the MenuItemStore view of this postgres store.
func (s *PostgresStore) MenuItems() *PostgresMenuItemStore {
	return &PostgresMenuItemStore{store: s}
}

type PostgresOrderStore struct {
	store *PostgresStore
}

func (s *PostgresOrderStore) LoadAll(ctx context.Context) ([]models.Order, error) {
	data, err := s.store.read(ctx, models.KeyOrders)
	if err != nil || data == nil {
		return nil, err
	}

	var orders []models.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		s.store.logger.Warn().Err(err).Str("key", models.KeyOrders).Msg("corrupt persisted payload, treating as empty")
		return nil, nil
	}
	return orders, nil
}

func (s *PostgresOrderStore) SaveAll(ctx context.Context, orders []models.Order) error {
	if orders == nil {
		orders = []models.Order{}
	}
	return s.store.save(ctx, models.KeyOrders, orders)
}

type PostgresMenuItemStore struct {
	store *PostgresStore
}

func (s *PostgresMenuItemStore) LoadAll(ctx context.Context) ([]models.MenuItem, error) {
	data, err := s.store.read(ctx, models.KeyCustomItems)
	if err != nil || data == nil {
		return nil, err
	}

	var items []models.MenuItem
	if err := json.Unmarshal(data, &items); err != nil {
		s.store.logger.Warn().Err(err).Str("key", models.KeyCustomItems).Msg("corrupt persisted payload, treating as empty")
		return nil, nil
	}
	return items, nil
}

func (s *PostgresMenuItemStore) SaveAll(ctx context.Context, items []models.MenuItem) error {
	if items == nil {
		items = []models.MenuItem{}
	}
	return s.store.save(ctx, models.KeyCustomItems, items)
}
