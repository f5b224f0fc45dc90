package repository

import (
	"context"
	"sync"

	"tableside/internal/models"
)

// MemoryOrderStore keeps the order collection in process memory. Used as the
// failover fallback and in tests.
type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders []models.Order
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{}
}

func (s *MemoryOrderStore) LoadAll(ctx context.Context) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOrders(s.orders), nil
}

func (s *MemoryOrderStore) SaveAll(ctx context.Context, orders []models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = cloneOrders(orders)
	return nil
}

// MemoryMenuItemStore keeps custom menu items in process memory.
type MemoryMenuItemStore struct {
	mu    sync.RWMutex
	items []models.MenuItem
}

func NewMemoryMenuItemStore() *MemoryMenuItemStore {
	return &MemoryMenuItemStore{}
}

func (s *MemoryMenuItemStore) LoadAll(ctx context.Context) ([]models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.MenuItem(nil), s.items...), nil
}

func (s *MemoryMenuItemStore) SaveAll(ctx context.Context, items []models.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]models.MenuItem(nil), items...)
	return nil
}

// cloneOrders deep-copies the collection so callers cannot mutate stored state.
func cloneOrders(orders []models.Order) []models.Order {
	out := make([]models.Order, len(orders))
	for i := range orders {
		out[i] = *orders[i].Clone()
	}
	return out
}
