package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"tableside/internal/config"
	"tableside/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// RedisOrderStore keeps the whole order collection under a single key as one
// JSON document, matching the whole-collection read/write contract.
type RedisOrderStore struct {
	client *redis.Client
	logger *zerolog.Logger
}

func NewRedisOrderStore(client *redis.Client, logger *zerolog.Logger) *RedisOrderStore {
	return &RedisOrderStore{client: client, logger: logger}
}

func (s *RedisOrderStore) LoadAll(ctx context.Context) ([]models.Order, error) {
	if s.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := s.client.Get(ctx, models.KeyOrders).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get orders from redis: %w", err)
	}

	var orders []models.Order
	if err := json.Unmarshal([]byte(val), &orders); err != nil {
		s.logger.Warn().Err(err).Msg("corrupt orders payload in redis, treating as empty")
		return nil, nil
	}
	return orders, nil
}

func (s *RedisOrderStore) SaveAll(ctx context.Context, orders []models.Order) error {
	if s.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if orders == nil {
		orders = []models.Order{}
	}
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("failed to marshal orders: %w", err)
	}
	if err := s.client.Set(ctx, models.KeyOrders, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set orders in redis: %w", err)
	}
	return nil
}

// RedisMenuItemStore persists custom menu items under their own key.
type RedisMenuItemStore struct {
	client *redis.Client
	logger *zerolog.Logger
}

func NewRedisMenuItemStore(client *redis.Client, logger *zerolog.Logger) *RedisMenuItemStore {
	return &RedisMenuItemStore{client: client, logger: logger}
}

func (s *RedisMenuItemStore) LoadAll(ctx context.Context) ([]models.MenuItem, error) {
	if s.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := s.client.Get(ctx, models.KeyCustomItems).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get custom items from redis: %w", err)
	}

	var items []models.MenuItem
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		s.logger.Warn().Err(err).Msg("corrupt custom items payload in redis, treating as empty")
		return nil, nil
	}
	return items, nil
}

func (s *RedisMenuItemStore) SaveAll(ctx context.Context, items []models.MenuItem) error {
	if s.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal custom items: %w", err)
	}
	if err := s.client.Set(ctx, models.KeyCustomItems, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set custom items in redis: %w", err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}
