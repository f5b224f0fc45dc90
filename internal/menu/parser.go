package menu

import (
	"regexp"
	"strings"

	"tableside/internal/models"
)

// separators splits a menu line into category/name segments. Any run of
// these characters counts as one separator.
var separators = regexp.MustCompile(`[|,;-]+`)

// ParseLine turns one line of the menu resource into a MenuItem. It returns
// nil for blank lines and comments and never fails: malformed lines degrade
// to the uncategorized category instead.
func ParseLine(line string) *models.MenuItem {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	parts := separators.Split(line, -1)
	category := strings.TrimSpace(parts[0])

	if len(parts) == 1 {
		// No separator: the whole line is the item name.
		return &models.MenuItem{Category: models.CategoryUncategorized, Name: line}
	}

	name := strings.Join(strings.Fields(strings.Join(parts[1:], " ")), " ")
	if name == "" {
		// "cat-" style lines: the category doubles as the name.
		name = category
		category = models.CategoryUncategorized
	}
	if name == "" {
		// Lines made of separators only carry nothing usable.
		return nil
	}
	if category == "" {
		category = models.CategoryUncategorized
	}

	return &models.MenuItem{Category: category, Name: name}
}

// Parse applies ParseLine to every line of a menu document.
func Parse(text string) []models.MenuItem {
	var items []models.MenuItem
	for _, line := range strings.Split(text, "\n") {
		if item := ParseLine(line); item != nil {
			items = append(items, *item)
		}
	}
	return items
}
