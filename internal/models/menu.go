package models

// CategoryUncategorized is assigned to menu entries that carry no usable category.
const CategoryUncategorized = "uncategorized"

type MenuItem struct {
	Category string `json:"category" yaml:"category"`
	Name     string `json:"name" yaml:"name"`
}

// FallbackMenu is served when the menu resource cannot be fetched and no
// custom items exist, so the ordering page is never left without buttons.
func FallbackMenu() []MenuItem {
	return []MenuItem{
		{Category: "drinks", Name: "Water"},
		{Category: "drinks", Name: "Soda"},
		{Category: "drinks", Name: "Coffee"},
		{Category: "dishes", Name: "Burger"},
		{Category: "dishes", Name: "Pizza"},
		{Category: "dishes", Name: "Salad"},
		{Category: "desserts", Name: "Ice Cream"},
		{Category: "desserts", Name: "Cake"},
	}
}
