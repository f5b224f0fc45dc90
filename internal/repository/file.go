package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"tableside/internal/models"

	"github.com/rs/zerolog"
)

// FileStore persists both collections as JSON files under one directory.
// This is the default backend: durable per deployment the way browser local
// storage is durable per origin. Writes go through a temp file and rename so
// a crash mid-write never leaves a truncated payload.
type FileStore struct {
	dir    string
	logger *zerolog.Logger
	mu     sync.Mutex
}

func NewFileStore(dir string, logger *zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Orders returns the OrderStore view of this file store.
func (s *FileStore) Orders() *FileOrderStore {
	return &FileOrderStore{store: s}
}

// MenuItems returns the MenuItemStore view of this file store.
func (s *FileStore) MenuItems() *FileMenuItemStore {
	return &FileMenuItemStore{store: s}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// read returns the raw payload for one key, nil when the file is missing.
// Only I/O errors other than not-exist surface.
func (s *FileStore) read(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (s *FileStore) save(key string, src interface{}) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

type FileOrderStore struct {
	store *FileStore
}

func (s *FileOrderStore) LoadAll(ctx context.Context) ([]models.Order, error) {
	data, err := s.store.read(models.KeyOrders)
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

func (s *FileOrderStore) SaveAll(ctx context.Context, orders []models.Order) error {
	if orders == nil {
		orders = []models.Order{}
	}
	return s.store.save(models.KeyOrders, orders)
}

type FileMenuItemStore struct {
	store *FileStore
}

func (s *FileMenuItemStore) LoadAll(ctx context.Context) ([]models.MenuItem, error) {
	data, err := s.store.read(models.KeyCustomItems)
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

func (s *FileMenuItemStore) SaveAll(ctx context.Context, items []models.MenuItem) error {
	if items == nil {
		items = []models.MenuItem{}
	}
	return s.store.save(models.KeyCustomItems, items)
}
