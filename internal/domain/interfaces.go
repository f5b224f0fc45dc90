package domain

import (
	"context"

	"tableside/internal/models"
)

// OrderStore persists the full order collection. Implementations read and
// write the whole sequence on every call; there is no partial update. A
// missing or corrupt persisted payload loads as an empty sequence, never as
// an error. Only transport failures (backend down, file unreadable) surface,
// so a failover wrapper can switch backends.
type OrderStore interface {
	LoadAll(ctx context.Context) ([]models.Order, error)
	SaveAll(ctx context.Context, orders []models.Order) error
}

// MenuItemStore persists user-added menu items with the same whole-collection
// contract as OrderStore.
type MenuItemStore interface {
	LoadAll(ctx context.Context) ([]models.MenuItem, error)
	SaveAll(ctx context.Context, items []models.MenuItem) error
}

// EventPublisher fans an event payload out to interested consumers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// OrderNotifier pushes a human-readable notification about a submitted order.
type OrderNotifier interface {
	OrderSubmitted(order models.Order) error
}

// SheetsWriter mirrors submitted orders into an external spreadsheet.
type SheetsWriter interface {
	AppendOrder(ctx context.Context, order models.Order) error
	ReplaceOrdersSheet(ctx context.Context, orders []models.Order) error
}

// OrderArchiver records completed orders for audit purposes.
type OrderArchiver interface {
	RecordCompleted(ctx context.Context, order models.Order) error
}
