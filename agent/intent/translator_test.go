package intent

import (
	"errors"
	"testing"

	cartx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/cart"
	contractx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/contract"
	menux "github.com/tamersaada/Sofra-Conversational-Ordering/agent/menu"
)

func TestTranslate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   contractx.Intent
		want Translation
	}{
		{
			name: "add maps to cart op",
			in:   contractx.Intent{Kind: contractx.IntentAddItem, ItemCode: "APP_001", Quantity: 2},
			want: Translation{Kind: KindCartOp, Op: OpAdd, ItemCode: "APP_001", Quantity: 2},
		},
		{
			name: "remove maps to cart op",
			in:   contractx.Intent{Kind: contractx.IntentRemoveItem, ItemCode: "APP_001"},
			want: Translation{Kind: KindCartOp, Op: OpRemove, ItemCode: "APP_001"},
		},
		{
			name: "menu query keeps filter",
			in:   contractx.Intent{Kind: contractx.IntentQueryMenu, MenuFilter: "drink"},
			want: Translation{Kind: KindMenuQuery, MenuFilter: "drink"},
		},
		{
			name: "confirm is a command",
			in:   contractx.Intent{Kind: contractx.IntentConfirmOrder},
			want: Translation{Kind: KindCommand, Command: CommandConfirm},
		},
		{
			name: "cancel is a command",
			in:   contractx.Intent{Kind: contractx.IntentCancelOrder},
			want: Translation{Kind: KindCommand, Command: CommandCancel},
		},
		{
			name: "unrecognized asks for clarification",
			in:   contractx.Intent{Kind: contractx.IntentUnrecognized},
			want: Translation{Kind: KindClarify},
		},
		{
			name: "unknown kind asks for clarification",
			in:   contractx.Intent{Kind: "order_pizza"},
			want: Translation{Kind: KindClarify},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Translate(tc.in)
			if got.Kind != tc.want.Kind || got.Op != tc.want.Op ||
				got.ItemCode != tc.want.ItemCode || got.Quantity != tc.want.Quantity ||
				got.MenuFilter != tc.want.MenuFilter || got.Command != tc.want.Command {
				t.Fatalf("Translate() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestApplyTo(t *testing.T) {
	t.Parallel()

	catalog, err := menux.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	c := cartx.New("s1", catalog)

	add := Translate(contractx.Intent{Kind: contractx.IntentAddItem, ItemCode: "MAIN_002", Quantity: 1})
	if err := add.ApplyTo(c); err != nil {
		t.Fatalf("ApplyTo(add) error = %v", err)
	}
	if c.Empty() {
		t.Fatal("expected cart line after add")
	}

	update := Translate(contractx.Intent{Kind: contractx.IntentUpdateQuantity, ItemCode: "MAIN_002", Quantity: 3})
	if err := update.ApplyTo(c); err != nil {
		t.Fatalf("ApplyTo(update) error = %v", err)
	}
	if got := c.Lines()[0].Quantity; got != 3 {
		t.Fatalf("expected quantity 3, got %d", got)
	}

	// User-input failures surface as the cart's own sentinels.
	badAdd := Translate(contractx.Intent{Kind: contractx.IntentAddItem, ItemCode: "NOPE", Quantity: 1})
	if err := badAdd.ApplyTo(c); !errors.Is(err, cartx.ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}

	menuQuery := Translate(contractx.Intent{Kind: contractx.IntentQueryMenu})
	if err := menuQuery.ApplyTo(c); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for non cart op, got %v", err)
	}
}
