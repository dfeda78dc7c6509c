package cart

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	menux "github.com/tamersaada/Sofra-Conversational-Ordering/agent/menu"
)

func testCatalog(t *testing.T) *menux.Catalog {
	t.Helper()
	catalog, err := menux.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return catalog
}

func TestAddItemMergesIdenticalLines(t *testing.T) {
	t.Parallel()

	c := New("s1", testCatalog(t))

	if err := c.AddItem("APP_001", 1, []string{"extra tahini"}); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	if err := c.AddItem("app_001", 2, []string{" Extra Tahini "}); err != nil {
		t.Fatalf("AddItem() second error = %v", err)
	}

	lines := c.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected merged single line, got %d", len(lines))
	}
	if lines[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", lines[0].Quantity)
	}
}

func TestAddItemDistinctCustomizationsKeepSeparateLines(t *testing.T) {
	t.Parallel()

	c := New("s1", testCatalog(t))

	if err := c.AddItem("APP_001", 1, nil); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	if err := c.AddItem("APP_001", 1, []string{"no garlic"}); err != nil {
		t.Fatalf("AddItem() customized error = %v", err)
	}

	if len(c.Lines()) != 2 {
		t.Fatalf("expected two lines, got %d", len(c.Lines()))
	}
}

func TestAddItemErrors(t *testing.T) {
	t.Parallel()

	c := New("s1", testCatalog(t))

	if err := c.AddItem("APP_001", 0, nil); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if err := c.AddItem("PIZZA_42", 1, nil); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}
	if !c.Empty() {
		t.Fatal("failed adds must not mutate the cart")
	}
}

func TestTotal(t *testing.T) {
	t.Parallel()

	c := New("s1", testCatalog(t))

	// 2x Falafel (9.99) + 1x Basbousa (9.99) = 29.97
	if err := c.AddItem("APP_001", 2, nil); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	if err := c.AddItem("DESS_001", 1, nil); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	want := decimal.NewFromFloat(29.97)
	if !c.Total().Equal(want) {
		t.Fatalf("Total() = %s, want %s", c.Total(), want)
	}
}

func TestRemoveItem(t *testing.T) {
	t.Parallel()

	c := New("s1", testCatalog(t))
	if err := c.AddItem("APP_001", 2, nil); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	if err := c.AddItem("APP_001", 1, []string{"no garlic"}); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	// Targeted removal takes only the matching customization line.
	if err := c.RemoveItem("APP_001", []string{"no garlic"}); err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	if len(c.Lines()) != 1 {
		t.Fatalf("expected one line left, got %d", len(c.Lines()))
	}

	// Nil customizations remove every remaining line for the code.
	if err := c.RemoveItem("app_001", nil); err != nil {
		t.Fatalf("RemoveItem() all error = %v", err)
	}
	if !c.Empty() {
		t.Fatal("expected empty cart")
	}

	if err := c.RemoveItem("APP_001", nil); !errors.Is(err, ErrItemNotInCart) {
		t.Fatalf("expected ErrItemNotInCart, got %v", err)
	}
}

func TestUpdateQuantity(t *testing.T) {
	t.Parallel()

	c := New("s1", testCatalog(t))
	if err := c.AddItem("MAIN_001", 1, nil); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	if err := c.UpdateQuantity("MAIN_001", nil, 4); err != nil {
		t.Fatalf("UpdateQuantity() error = %v", err)
	}
	if got := c.Lines()[0].Quantity; got != 4 {
		t.Fatalf("expected quantity 4, got %d", got)
	}

	if err := c.UpdateQuantity("MAIN_001", nil, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if err := c.UpdateQuantity("DRINK_001", nil, 2); !errors.Is(err, ErrItemNotInCart) {
		t.Fatalf("expected ErrItemNotInCart, got %v", err)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	t.Parallel()

	c := New("s1", testCatalog(t))
	if err := c.AddItem("DRINK_002", 1, []string{"less ice"}); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	snap := c.Snapshot()
	if err := c.UpdateQuantity("DRINK_002", nil, 5); err != nil {
		t.Fatalf("UpdateQuantity() error = %v", err)
	}
	c.Clear()

	if snap.Empty() {
		t.Fatal("snapshot must survive later cart mutations")
	}
	if snap.Lines[0].Quantity != 1 {
		t.Fatalf("snapshot quantity changed to %d", snap.Lines[0].Quantity)
	}
	if !snap.Subtotal.Equal(decimal.NewFromFloat(15.00)) {
		t.Fatalf("snapshot subtotal = %s", snap.Subtotal)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t)
	c := New("s1", catalog)
	if err := c.AddItem("DESS_002", 3, nil); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	restored := Restore("s1", catalog, c.Lines())
	if !restored.Total().Equal(c.Total()) {
		t.Fatalf("restored total = %s, want %s", restored.Total(), c.Total())
	}
}
