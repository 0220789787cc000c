// Package ingredient implements the editable ingredient list shown after an
// image has been analyzed. A List has no network access; its owner applies
// the rename, requantify and delete intents to it and renders the result.
package ingredient

import (
	"fmt"
	"strconv"

	"github.com/fridgesaver/fridgesaver/internal/models"
)

// Placeholder is shown instead of the rows when the list is empty.
const Placeholder = "目前沒有識別到的食材。請上傳圖片並點擊「開始分析食材」。"

// List is an ordered ingredient sequence keyed by ID. Order is insertion
// order and only matters for display.
type List struct {
	items []models.Ingredient
}

// FromAnalysis builds a list from an analysis response, keeping the response
// order. Entries without an ID get a positional "mock-<index>" ID; IDs that
// repeat within the batch get a numeric suffix so every row stays addressable.
func FromAnalysis(entries []models.Ingredient) *List {
	l := &List{items: make([]models.Ingredient, 0, len(entries))}
	seen := make(map[string]bool, len(entries))

	for i, e := range entries {
		id := e.ID
		if id == "" {
			id = "mock-" + strconv.Itoa(i)
		}
		base := id
		for n := 1; seen[id]; n++ {
			id = fmt.Sprintf("%s-%d", base, n)
		}
		seen[id] = true

		l.items = append(l.items, models.Ingredient{
			ID:       id,
			Name:     e.Name,
			Quantity: e.Quantity,
		})
	}

	return l
}

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

func (l *List) Empty() bool {
	return l.Len() == 0
}

// Items returns a copy of the rows in display order.
func (l *List) Items() []models.Ingredient {
	if l == nil {
		return nil
	}
	out := make([]models.Ingredient, len(l.items))
	copy(out, l.items)
	return out
}

// Get returns the row with the given ID.
func (l *List) Get(id string) (models.Ingredient, bool) {
	if i := l.index(id); i >= 0 {
		return l.items[i], true
	}
	return models.Ingredient{}, false
}

// Rename replaces the name of the row with the given ID. Unknown IDs are
// ignored. The name is not validated here.
func (l *List) Rename(id, name string) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.items[i].Name = name
	return true
}

// Requantify replaces the quantity of the row with the given ID.
func (l *List) Requantify(id, quantity string) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.items[i].Quantity = quantity
	return true
}

// Delete removes the row with the given ID and returns it.
func (l *List) Delete(id string) (models.Ingredient, bool) {
	i := l.index(id)
	if i < 0 {
		return models.Ingredient{}, false
	}
	removed := l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	return removed, true
}

// Names returns the ingredient names in display order.
func (l *List) Names() []string {
	if l == nil {
		return []string{}
	}
	names := make([]string, 0, len(l.items))
	for _, it := range l.items {
		names = append(names, it.Name)
	}
	return names
}

func (l *List) index(id string) int {
	if l == nil {
		return -1
	}
	for i := range l.items {
		if l.items[i].ID == id {
			return i
		}
	}
	return -1
}
