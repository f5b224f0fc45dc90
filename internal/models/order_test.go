package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderAddItem(t *testing.T) {
	o := NewOrder("R1")

	o.AddItem("Burger", "dishes")
	o.AddItem("Burger", "dishes")
	o.AddItem("Soda", "drinks")

	require.Len(t, o.Lines, 2)
	assert.Equal(t, OrderLine{Name: "Burger", Category: "dishes", Quantity: 2}, o.Lines[0])
	assert.Equal(t, OrderLine{Name: "Soda", Category: "drinks", Quantity: 1}, o.Lines[1])
}

func TestOrderAddItemKeepsOriginalCategory(t *testing.T) {
	o := NewOrder("R1")
	o.AddItem("Burger", "dishes")
	o.AddItem("Burger", "specials")

	require.Len(t, o.Lines, 1)
	assert.Equal(t, "dishes", o.Lines[0].Category)
	assert.Equal(t, 2, o.Lines[0].Quantity)
}

func TestOrderAdjustQuantity(t *testing.T) {
	t.Run("IncrementAndDecrement", func(t *testing.T) {
		o := NewOrder("R1")
		o.AddItem("Burger", "dishes")
		o.AdjustQuantity("Burger", 2)
		assert.Equal(t, 3, o.Lines[0].Quantity)

		o.AdjustQuantity("Burger", -1)
		assert.Equal(t, 2, o.Lines[0].Quantity)
	})

	t.Run("DropToZeroRemovesLine", func(t *testing.T) {
		o := NewOrder("R1")
		o.AddItem("Burger", "dishes")
		o.AdjustQuantity("Burger", -1)
		assert.True(t, o.Empty())
	})

	t.Run("DropBelowZeroRemovesLine", func(t *testing.T) {
		o := NewOrder("R1")
		o.AddItem("Burger", "dishes")
		o.AdjustQuantity("Burger", -5)
		assert.True(t, o.Empty())
	})

	t.Run("UnknownNameIgnored", func(t *testing.T) {
		o := NewOrder("R1")
		o.AdjustQuantity("Nothing", 3)
		assert.True(t, o.Empty())
	})
}

func TestOrderQuantityNeverNonPositive(t *testing.T) {
	o := NewOrder("R1")
	ops := []func(){
		func() { o.AddItem("A", "x") },
		func() { o.AdjustQuantity("A", -2) },
		func() { o.AddItem("B", "y") },
		func() { o.AdjustQuantity("B", 5) },
		func() { o.AdjustQuantity("B", -10) },
		func() { o.AddItem("A", "x") },
		func() { o.AdjustQuantity("A", 1) },
		func() { o.RemoveItem("C") },
	}
	for _, op := range ops {
		op()
		for _, line := range o.Lines {
			assert.Greater(t, line.Quantity, 0)
		}
	}
}

func TestOrderRemoveItem(t *testing.T) {
	o := NewOrder("R1")
	o.AddItem("A", "x")
	o.AddItem("B", "y")
	o.RemoveItem("A")

	require.Len(t, o.Lines, 1)
	assert.Equal(t, "B", o.Lines[0].Name)
}

func TestOrderClone(t *testing.T) {
	o := NewOrder("R1")
	o.AddItem("A", "x")

	c := o.Clone()
	c.AddItem("A", "x")
	c.AddItem("B", "y")

	assert.Equal(t, 1, o.Lines[0].Quantity)
	assert.Len(t, o.Lines, 1)
	assert.Len(t, c.Lines, 2)
}

func TestOrderTotalQuantity(t *testing.T) {
	o := NewOrder("R1")
	o.AddItem("A", "x")
	o.AddItem("A", "x")
	o.AddItem("B", "y")
	assert.Equal(t, 3, o.TotalQuantity())
}
