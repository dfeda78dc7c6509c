package menu

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("menu item not found")

type Category string

const (
	CategoryAppetizer Category = "appetizer"
	CategoryMain      Category = "main"
	CategoryDessert   Category = "dessert"
	CategoryDrink     Category = "drink"
)

// Item is one dish on the menu. Loaded once at startup and never mutated.
type Item struct {
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Category        Category        `json:"category"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	Ingredients     []string        `json:"ingredients,omitempty"`
	DietaryLabels   []string        `json:"dietary_labels,omitempty"`
	Available       bool            `json:"available"`
	PrepTimeMinutes int             `json:"prep_time_minutes,omitempty"`
	Popularity      int             `json:"popularity,omitempty"`
}

//go:embed data/menu.json
var menuRaw []byte

// Catalog is a read-only lookup over the menu. All methods are safe for
// concurrent use since the catalog is never mutated after construction.
type Catalog struct {
	byCode map[string]Item
	order  []string
}

// Load builds the catalog from the embedded menu data.
func Load() (*Catalog, error) {
	var items []Item
	if err := json.Unmarshal(menuRaw, &items); err != nil {
		return nil, fmt.Errorf("decode embedded menu: %w", err)
	}
	return New(items)
}

// New builds a catalog from an explicit item list.
func New(items []Item) (*Catalog, error) {
	c := &Catalog{
		byCode: make(map[string]Item, len(items)),
		order:  make([]string, 0, len(items)),
	}
	for _, item := range items {
		code := NormalizeCode(item.Code)
		if code == "" {
			return nil, fmt.Errorf("menu item %q has empty code", item.Name)
		}
		if _, dup := c.byCode[code]; dup {
			return nil, fmt.Errorf("duplicate menu item code %s", code)
		}
		if item.Price.IsNegative() {
			return nil, fmt.Errorf("menu item %s has negative price", code)
		}
		item.Code = code
		c.byCode[code] = item
		c.order = append(c.order, code)
	}
	return c, nil
}

// NormalizeCode canonicalizes an item code the way customers type them.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Lookup returns the item for a code, or ErrNotFound.
func (c *Catalog) Lookup(code string) (Item, error) {
	item, ok := c.byCode[NormalizeCode(code)]
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSpace(code))
	}
	return item, nil
}

// Has reports whether a code is on the menu.
func (c *Catalog) Has(code string) bool {
	_, ok := c.byCode[NormalizeCode(code)]
	return ok
}

// Items returns all items in menu order.
func (c *Catalog) Items() []Item {
	out := make([]Item, 0, len(c.order))
	for _, code := range c.order {
		out = append(out, c.byCode[code])
	}
	return out
}

// Search filters the menu by category name or name substring,
// case-insensitively. "all" and the empty string return the full menu;
// an unmatched filter returns an empty slice, never an error.
func (c *Catalog) Search(filter string) []Item {
	q := strings.ToLower(strings.TrimSpace(filter))
	if q == "" || q == "all" {
		return c.Items()
	}

	out := make([]Item, 0, 4)
	for _, code := range c.order {
		item := c.byCode[code]
		if string(item.Category) == q || strings.Contains(strings.ToLower(item.Name), q) {
			out = append(out, item)
		}
	}
	return out
}
