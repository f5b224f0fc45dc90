package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tableside/internal/domain"
	"tableside/internal/events"
	"tableside/internal/models"

	"github.com/rs/zerolog"
)

var (
	// ErrNoActiveOrder is returned by Submit when no reservation was started.
	ErrNoActiveOrder = errors.New("no active order")

	// ErrEmptyOrder is returned by Submit when the active order has no items.
	ErrEmptyOrder = errors.New("order has no items")
)

// OrderSession governs exactly one in-progress order at a time. Mutations on
// a missing order or missing line are silent no-ops; only Submit reports
// failure, because that is the one action the user must see rejected.
type OrderSession struct {
	orders  domain.OrderStore
	customs domain.MenuItemStore
	events  domain.EventPublisher
	logger  *zerolog.Logger

	menu    []models.MenuItem
	current *models.Order
}

func NewOrderSession(orders domain.OrderStore, customs domain.MenuItemStore, events domain.EventPublisher, logger *zerolog.Logger) *OrderSession {
	return &OrderSession{
		orders:  orders,
		customs: customs,
		events:  events,
		logger:  logger,
	}
}

// SetMenu installs the working item list produced by the menu loader.
func (s *OrderSession) SetMenu(items []models.MenuItem) {
	s.menu = append([]models.MenuItem(nil), items...)
}

// Menu returns the working item list, parsed menu plus custom additions.
func (s *OrderSession) Menu() []models.MenuItem {
	return append([]models.MenuItem(nil), s.menu...)
}

// Start opens a new order for the given reservation id, discarding any
// in-progress order. A blank id is ignored.
func (s *OrderSession) Start(reservationID string) {
	reservationID = strings.TrimSpace(reservationID)
	if reservationID == "" {
		return
	}
	s.current = models.NewOrder(reservationID)
	s.logger.Debug().Str("reservation", reservationID).Msg("order session started")
}

// Active reports whether an order is in progress.
func (s *OrderSession) Active() bool {
	return s.current != nil
}

// Current returns a copy of the in-progress order, or nil.
func (s *OrderSession) Current() *models.Order {
	if s.current == nil {
		return nil
	}
	return s.current.Clone()
}

func (s *OrderSession) AddItem(name, category string) {
	if s.current == nil {
		return
	}
	s.current.AddItem(name, category)
}

func (s *OrderSession) AdjustQuantity(name string, delta int) {
	if s.current == nil {
		return
	}
	s.current.AdjustQuantity(name, delta)
}

func (s *OrderSession) RemoveItem(name string) {
	if s.current == nil {
		return
	}
	s.current.RemoveItem(name)
}

// Clear empties the item lines but keeps the reservation id and timestamp.
func (s *OrderSession) Clear() {
	if s.current == nil {
		return
	}
	s.current.Lines = nil
}

// Submit appends the current order to the store and closes the session.
// The store is re-read immediately before the write so a submit does not
// clobber orders persisted by other views since this session loaded. Two
// concurrent submitters can still race; last write wins.
func (s *OrderSession) Submit(ctx context.Context) error {
	if s.current == nil {
		return ErrNoActiveOrder
	}
	if s.current.Empty() {
		return ErrEmptyOrder
	}

	fresh, err := s.orders.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("reload order store: %w", err)
	}

	order := *s.current.Clone()
	fresh = append(fresh, order)
	if err := s.orders.SaveAll(ctx, fresh); err != nil {
		return fmt.Errorf("persist order store: %w", err)
	}

	s.current = nil
	s.logger.Info().
		Str("reservation", order.ID).
		Int("lines", len(order.Lines)).
		Int("quantity", order.TotalQuantity()).
		Msg("order submitted")

	if s.events != nil {
		if err := s.events.PublishJSON(events.EventOrderSubmitted, order); err != nil {
			s.logger.Warn().Err(err).Msg("publish order_submitted failed")
		}
	}
	return nil
}

// AddCustomMenuItem appends a user-defined item to the working list and to
// the persisted custom item set. Blank arguments are ignored.
func (s *OrderSession) AddCustomMenuItem(ctx context.Context, category, name string) error {
	category = strings.TrimSpace(category)
	name = strings.TrimSpace(name)
	if category == "" || name == "" {
		return nil
	}

	item := models.MenuItem{Category: category, Name: name}
	s.menu = append(s.menu, item)

	existing, err := s.customs.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("reload custom items: %w", err)
	}
	existing = append(existing, item)
	if err := s.customs.SaveAll(ctx, existing); err != nil {
		return fmt.Errorf("persist custom items: %w", err)
	}
	return nil
}
