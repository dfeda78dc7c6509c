package nlu

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/contract"
	menux "github.com/tamersaada/Sofra-Conversational-Ordering/agent/menu"
)

func TestToIntent(t *testing.T) {
	t.Parallel()

	got, err := toIntent(extractorLLMOutput{
		Kind:     "add_item",
		ItemCode: " app_001 ",
		Quantity: 2,
	})
	if err != nil {
		t.Fatalf("toIntent() error = %v", err)
	}
	if got.Kind != contractx.IntentAddItem || got.ItemCode != "app_001" || got.Quantity != 2 {
		t.Fatalf("unexpected intent: %+v", got)
	}

	// Empty and explicit unrecognized both fold to the unrecognized intent.
	for _, kind := range []string{"", "unrecognized"} {
		got, err := toIntent(extractorLLMOutput{Kind: kind})
		if err != nil {
			t.Fatalf("toIntent(%q) error = %v", kind, err)
		}
		if got.Kind != contractx.IntentUnrecognized {
			t.Fatalf("toIntent(%q) = %s", kind, got.Kind)
		}
	}

	// Anything outside the closed set is a schema violation.
	if _, err := toIntent(extractorLLMOutput{Kind: "order_pizza"}); !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestMenuListing(t *testing.T) {
	t.Parallel()

	catalog, err := menux.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	listing := menuListing(catalog)
	if !strings.Contains(listing, "APP_001: Falafel (appetizer) $9.99") {
		t.Fatalf("listing missing falafel line:\n%s", listing)
	}
	if got := strings.Count(listing, "\n") + 1; got != 10 {
		t.Fatalf("expected 10 listing lines, got %d", got)
	}
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	catalog, err := menux.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	if _, err := New(context.Background(), nil, catalog); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for nil model, got %v", err)
	}
}

func TestExtractRejectsEmptyText(t *testing.T) {
	t.Parallel()

	e := &Extractor{}
	if _, err := e.Extract(context.Background(), "   "); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
