package cart

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	menux "github.com/tamersaada/Sofra-Conversational-Ordering/agent/menu"
)

var (
	ErrUnknownItem     = errors.New("unknown menu item")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrItemNotInCart   = errors.New("item is not in the cart")
)

// LineItem is one distinct (item, customizations) entry in a cart.
type LineItem struct {
	ItemCode       string          `json:"item_code"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Quantity       int             `json:"quantity"`
	Customizations []string        `json:"customizations,omitempty"`
}

// LineTotal is unit price times quantity.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is an immutable deep copy of a cart, safe to hand to the
// submission pipeline while the live cart keeps mutating.
type Snapshot struct {
	SessionID string          `json:"session_id"`
	Lines     []LineItem      `json:"lines"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func (s Snapshot) Empty() bool {
	return len(s.Lines) == 0
}

// Cart is the mutable per-session order. Insertion order of lines is
// preserved so summaries are reproducible. A cart is owned by exactly one
// session and is mutated only by translated intents; it is not safe for
// concurrent use on its own.
type Cart struct {
	sessionID string
	catalog   *menux.Catalog
	lines     []LineItem
}

func New(sessionID string, catalog *menux.Catalog) *Cart {
	return &Cart{
		sessionID: sessionID,
		catalog:   catalog,
	}
}

// Restore rebuilds a cart from persisted lines, e.g. when a session store
// rehydrates a session.
func Restore(sessionID string, catalog *menux.Catalog, lines []LineItem) *Cart {
	return &Cart{
		sessionID: sessionID,
		catalog:   catalog,
		lines:     copyLines(lines),
	}
}

func (c *Cart) SessionID() string {
	return c.sessionID
}

func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// AddItem merges into an existing line with the same item and customization
// set by summing quantities, otherwise appends a new line. Unit price and
// display name are captured from the catalog at add time.
func (c *Cart) AddItem(code string, qty int, customizations []string) error {
	if qty < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}
	item, err := c.catalog.Lookup(code)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownItem, strings.TrimSpace(code))
	}

	customs := normalizeCustomizations(customizations)
	key := lineKey(item.Code, customs)
	for i := range c.lines {
		if lineKey(c.lines[i].ItemCode, c.lines[i].Customizations) == key {
			c.lines[i].Quantity += qty
			return nil
		}
	}

	c.lines = append(c.lines, LineItem{
		ItemCode:       item.Code,
		Name:           item.Name,
		UnitPrice:      item.Price,
		Quantity:       qty,
		Customizations: customs,
	})
	return nil
}

// RemoveItem removes whole lines, never partial quantities. With
// customizations it removes the single matching line; without, every line
// for the code goes.
func (c *Cart) RemoveItem(code string, customizations []string) error {
	code = menux.NormalizeCode(code)
	matched := false
	kept := c.lines[:0]
	for _, line := range c.lines {
		if matchLine(line, code, customizations) {
			matched = true
			continue
		}
		kept = append(kept, line)
	}
	c.lines = kept
	if !matched {
		return fmt.Errorf("%w: %s", ErrItemNotInCart, code)
	}
	return nil
}

// UpdateQuantity sets the quantity of the first matching line. Use RemoveItem
// to drop a line; qty 0 is rejected here on purpose.
func (c *Cart) UpdateQuantity(code string, customizations []string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}
	code = menux.NormalizeCode(code)
	for i := range c.lines {
		if matchLine(c.lines[i], code, customizations) {
			c.lines[i].Quantity = qty
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrItemNotInCart, code)
}

// Clear empties the cart (session close or explicit cancel).
func (c *Cart) Clear() {
	c.lines = nil
}

// Total is the pre-tax subtotal, recomputed on every call so it can never go
// stale against the lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

// Lines returns a copy of the current lines in insertion order.
func (c *Cart) Lines() []LineItem {
	return copyLines(c.lines)
}

// Snapshot returns an immutable deep copy for hand-off to submission.
func (c *Cart) Snapshot() Snapshot {
	return Snapshot{
		SessionID: c.sessionID,
		Lines:     copyLines(c.lines),
		Subtotal:  c.Total(),
	}
}

func copyLines(lines []LineItem) []LineItem {
	out := make([]LineItem, len(lines))
	copy(out, lines)
	for i := range out {
		out[i].Customizations = append([]string(nil), out[i].Customizations...)
	}
	return out
}

func matchLine(line LineItem, code string, customizations []string) bool {
	if line.ItemCode != code {
		return false
	}
	if customizations == nil {
		return true
	}
	return lineKey(code, normalizeCustomizations(customizations)) == lineKey(code, line.Customizations)
}

// lineKey identifies a line by item code plus customization set; ordering of
// the modifiers does not create distinct lines.
func lineKey(code string, customs []string) string {
	sorted := append([]string(nil), customs...)
	sort.Strings(sorted)
	return code + "|" + strings.Join(sorted, "|")
}

func normalizeCustomizations(customizations []string) []string {
	out := make([]string, 0, len(customizations))
	for _, c := range customizations {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
