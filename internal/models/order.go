package models

import "time"

// OrderLine is one item entry within an order. Quantity is always positive;
// mutations that would drop it to zero or below remove the line instead.
type OrderLine struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
}

// Order is one reservation's submitted (or in-progress) set of lines.
// ID is the user-supplied reservation identifier and is not unique across
// the store. Lines keep insertion order; names are unique within an order.
type Order struct {
	ID        string      `json:"id"`
	Lines     []OrderLine `json:"lines"`
	CreatedAt time.Time   `json:"created_at"`
}

func NewOrder(id string) *Order {
	return &Order{ID: id, CreatedAt: time.Now()}
}

// Line returns the index of the named line, or -1.
func (o *Order) Line(name string) int {
	for i := range o.Lines {
		if o.Lines[i].Name == name {
			return i
		}
	}
	return -1
}

// AddItem inserts a new line with quantity 1 or increments an existing one.
// The category of an existing line is never overwritten.
func (o *Order) AddItem(name, category string) {
	if i := o.Line(name); i >= 0 {
		o.Lines[i].Quantity++
		return
	}
	o.Lines = append(o.Lines, OrderLine{Name: name, Category: category, Quantity: 1})
}

// AdjustQuantity adds delta to the named line's quantity. The line is removed
// when the result is zero or negative. Unknown names are ignored.
func (o *Order) AdjustQuantity(name string, delta int) {
	i := o.Line(name)
	if i < 0 {
		return
	}
	o.Lines[i].Quantity += delta
	if o.Lines[i].Quantity <= 0 {
		o.RemoveItem(name)
	}
}

// RemoveItem deletes the named line if present.
func (o *Order) RemoveItem(name string) {
	i := o.Line(name)
	if i < 0 {
		return
	}
	o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
}

// TotalQuantity sums quantities over all lines.
func (o *Order) TotalQuantity() int {
	total := 0
	for _, l := range o.Lines {
		total += l.Quantity
	}
	return total
}

func (o *Order) Empty() bool {
	return len(o.Lines) == 0
}

// Clone returns a deep copy so a stored order cannot be mutated through a
// session that already submitted it.
func (o *Order) Clone() *Order {
	c := *o
	c.Lines = append([]OrderLine(nil), o.Lines...)
	return &c
}
