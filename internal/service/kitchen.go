package service

import (
	"context"
	"fmt"
	"sync"

	"tableside/internal/domain"
	"tableside/internal/events"
	"tableside/internal/models"

	"github.com/rs/zerolog"
)

// AggregateLine is one row of a batch summary: total quantity for an item
// name across the selected orders. Rows keep first-seen order.
type AggregateLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// KitchenDisplay holds the kitchen's in-memory copy of the order store. The
// copy goes stale until Refresh; the persisted store is the only source of
// truth between refreshes.
type KitchenDisplay struct {
	store   domain.OrderStore
	archive domain.OrderArchiver
	events  domain.EventPublisher
	logger  *zerolog.Logger

	mu     sync.Mutex
	orders []models.Order
}

func NewKitchenDisplay(store domain.OrderStore, archive domain.OrderArchiver, events domain.EventPublisher, logger *zerolog.Logger) *KitchenDisplay {
	return &KitchenDisplay{
		store:   store,
		archive: archive,
		events:  events,
		logger:  logger,
	}
}

// Refresh replaces the in-memory copy with the persisted collection.
func (k *KitchenDisplay) Refresh(ctx context.Context) error {
	orders, err := k.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("reload order store: %w", err)
	}
	k.mu.Lock()
	k.orders = orders
	k.mu.Unlock()
	return nil
}

// Orders returns the current in-memory copy.
func (k *KitchenDisplay) Orders() []models.Order {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]models.Order(nil), k.orders...)
}

// Complete removes the order at index and persists the shrunk collection
// immediately. An out-of-range index changes nothing; the first return
// value reports whether an order was removed.
func (k *KitchenDisplay) Complete(ctx context.Context, index int) (bool, error) {
	k.mu.Lock()
	if index < 0 || index >= len(k.orders) {
		k.mu.Unlock()
		k.logger.Debug().Int("index", index).Msg("complete ignored, index out of range")
		return false, nil
	}

	done := k.orders[index]
	k.orders = append(k.orders[:index], k.orders[index+1:]...)
	remaining := append([]models.Order(nil), k.orders...)
	k.mu.Unlock()

	if err := k.store.SaveAll(ctx, remaining); err != nil {
		return false, fmt.Errorf("persist order store: %w", err)
	}

	k.logger.Info().Str("reservation", done.ID).Msg("order completed")

	if k.archive != nil {
		if err := k.archive.RecordCompleted(ctx, done); err != nil {
			k.logger.Warn().Err(err).Str("reservation", done.ID).Msg("archive completed order failed")
		}
	}
	if k.events != nil {
		if err := k.events.PublishJSON(events.EventOrderCompleted, done); err != nil {
			k.logger.Warn().Err(err).Msg("publish order_completed failed")
		}
	}
	return true, nil
}

// Aggregate sums quantities per item name across the selected orders.
// Invalid indices are skipped. Nothing is mutated, so calling it twice on an
// unchanged copy yields identical output.
func (k *KitchenDisplay) Aggregate(indices []int) []AggregateLine {
	k.mu.Lock()
	defer k.mu.Unlock()

	totals := make(map[string]int)
	var order []string

	for _, idx := range indices {
		if idx < 0 || idx >= len(k.orders) {
			continue
		}
		for _, line := range k.orders[idx].Lines {
			if _, seen := totals[line.Name]; !seen {
				order = append(order, line.Name)
			}
			totals[line.Name] += line.Quantity
		}
	}

	out := make([]AggregateLine, 0, len(order))
	for _, name := range order {
		out = append(out, AggregateLine{Name: name, Quantity: totals[name]})
	}
	return out
}
