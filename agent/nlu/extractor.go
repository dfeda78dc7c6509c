// Package nlu turns free-form customer text into structured intents using a
// chat model. The extractor is the only component that talks to the model;
// everything downstream consumes typed intents.
package nlu

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/contract"
	menux "github.com/tamersaada/Sofra-Conversational-Ordering/agent/menu"
	promptx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/prompt"
)

type Extractor struct {
	runner compose.Runnable[map[string]any, extractorLLMOutput]
	system string
}

var _ contractx.Extractor = (*Extractor)(nil)

type extractorLLMOutput struct {
	Kind           string   `json:"kind"`
	ItemCode       string   `json:"item_code,omitempty"`
	Quantity       int      `json:"quantity,omitempty"`
	Customizations []string `json:"customizations,omitempty"`
	MenuFilter     string   `json:"menu_filter,omitempty"`
}

// New compiles the extraction graph. The menu is folded into the system
// prompt so the model maps dish names to item codes itself.
func New(ctx context.Context, chatModel einomodel.BaseChatModel, catalog *menux.Catalog) (*Extractor, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if catalog == nil {
		return nil, fmt.Errorf("%w: menu catalog is required", contractx.ErrValidation)
	}

	system := strings.ReplaceAll(
		promptx.LoadPromptSet().IntentExtractor,
		"{menu}",
		menuListing(catalog),
	)

	runner, err := compileExtractorGraph(ctx, chatModel)
	if err != nil {
		return nil, fmt.Errorf("%w: compile extractor graph: %v", contractx.ErrIntentExtract, err)
	}

	return &Extractor{runner: runner, system: system}, nil
}

// Extract maps one customer message to a structured intent. Model transport
// failures are returned as errors; messages the model cannot map arrive as
// IntentUnrecognized, never as an error.
func (e *Extractor) Extract(ctx context.Context, text string) (contractx.Intent, error) {
	if strings.TrimSpace(text) == "" {
		return contractx.Intent{}, fmt.Errorf("%w: message text is required", contractx.ErrValidation)
	}

	out, err := e.runner.Invoke(ctx, map[string]any{
		"system": e.system,
		"input":  text,
	})
	if err != nil {
		return contractx.Intent{}, fmt.Errorf("%w: %v", contractx.ErrIntentExtract, err)
	}

	return toIntent(out)
}

func toIntent(out extractorLLMOutput) (contractx.Intent, error) {
	kind := contractx.IntentKind(strings.TrimSpace(out.Kind))
	switch kind {
	case contractx.IntentAddItem, contractx.IntentRemoveItem, contractx.IntentUpdateQuantity,
		contractx.IntentQueryMenu, contractx.IntentConfirmOrder, contractx.IntentCancelOrder:
	case contractx.IntentUnrecognized, "":
		return contractx.Intent{Kind: contractx.IntentUnrecognized}, nil
	default:
		return contractx.Intent{}, fmt.Errorf("%w: unsupported intent kind %q", contractx.ErrSchemaViolation, out.Kind)
	}

	return contractx.Intent{
		Kind:           kind,
		ItemCode:       strings.TrimSpace(out.ItemCode),
		Quantity:       out.Quantity,
		Customizations: out.Customizations,
		MenuFilter:     strings.TrimSpace(out.MenuFilter),
	}, nil
}

func menuListing(catalog *menux.Catalog) string {
	var sb strings.Builder
	for _, item := range catalog.Items() {
		fmt.Fprintf(&sb, "- %s: %s (%s) $%s\n", item.Code, item.Name, item.Category, item.Price.StringFixed(2))
	}
	return strings.TrimRight(sb.String(), "\n")
}
