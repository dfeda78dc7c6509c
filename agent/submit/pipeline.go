// Package submit finalizes a cart: validate, log the order (the durability
// record), notify the kitchen, and persist one immutable SubmissionRecord.
package submit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	cartx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/cart"
	contractx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/contract"
	menux "github.com/tamersaada/Sofra-Conversational-Ordering/agent/menu"
)

type Config struct {
	TaxRate   float64 `envconfig:"TAX_RATE" split_words:"true" default:"0.14"`
	ChefEmail string  `envconfig:"CHEF_EMAIL" split_words:"true" default:"chef@restaurant.com"`
}

// Pipeline runs the finalize-and-submit sequence for one cart snapshot.
type Pipeline struct {
	catalog    *menux.Catalog
	dispatcher contractx.Dispatcher
	records    contractx.SubmissionStore
	taxRate    decimal.Decimal
	chefEmail  string
	now        func() time.Time
}

func NewPipeline(
	catalog *menux.Catalog,
	dispatcher contractx.Dispatcher,
	records contractx.SubmissionStore,
	cfg Config,
) (*Pipeline, error) {
	if catalog == nil {
		return nil, fmt.Errorf("menu catalog is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("tool dispatcher is required")
	}
	if records == nil {
		return nil, fmt.Errorf("submission store is required")
	}
	if cfg.TaxRate < 0 || cfg.TaxRate >= 1 {
		return nil, fmt.Errorf("tax rate %v out of range", cfg.TaxRate)
	}
	chefEmail := strings.TrimSpace(cfg.ChefEmail)
	if chefEmail == "" {
		chefEmail = "chef@restaurant.com"
	}
	return &Pipeline{
		catalog:    catalog,
		dispatcher: dispatcher,
		records:    records,
		taxRate:    decimal.NewFromFloat(cfg.TaxRate),
		chefEmail:  chefEmail,
		now:        time.Now,
	}, nil
}

// Submit validates the snapshot, dispatches LogOrder then EmailNotify under
// one correlation id, aggregates the outcomes, and persists the record unless
// logging failed. Pass a non-empty correlationID to re-submit idempotently.
func (p *Pipeline) Submit(
	ctx context.Context,
	sessionID string,
	snap cartx.Snapshot,
	correlationID string,
) (*contractx.SubmissionRecord, error) {
	if err := p.validate(snap); err != nil {
		return nil, err
	}

	if correlationID == "" {
		correlationID = uuid.NewString()
	} else if prior, err := p.records.ByCorrelationID(ctx, correlationID); err == nil && prior != nil {
		// The order was already placed under this correlation id.
		return prior, nil
	}

	orderID, err := p.nextOrderID(ctx)
	if err != nil {
		return nil, err
	}

	subtotal := snap.Subtotal
	tax := subtotal.Mul(p.taxRate).Round(2)
	grandTotal := subtotal.Add(tax)

	rec := &contractx.SubmissionRecord{
		OrderID:       orderID,
		SessionID:     sessionID,
		CorrelationID: correlationID,
		Cart:          snap,
		Subtotal:      subtotal,
		Tax:           tax,
		GrandTotal:    grandTotal,
		ToolOutcomes:  make(map[contractx.ToolName]contractx.ToolResult, 2),
		CreatedAt:     p.now().UTC(),
	}

	// LogOrder first: the order exists only once it is logged. The email is
	// attempted after the log attempt either way, but can never upgrade a
	// failed log.
	logRes := p.dispatcher.Invoke(ctx, contractx.ToolRequest{
		Tool:          contractx.ToolLogOrder,
		CorrelationID: correlationID,
		Payload:       p.orderRow(rec),
	})
	rec.ToolOutcomes[contractx.ToolLogOrder] = logRes

	emailRes := p.dispatcher.Invoke(ctx, contractx.ToolRequest{
		Tool:          contractx.ToolEmailNotify,
		CorrelationID: correlationID,
		Payload: map[string]any{
			"to":      p.chefEmail,
			"subject": fmt.Sprintf("NEW ORDER - %s", orderID),
			"body":    KitchenSummary(rec),
		},
	})
	rec.ToolOutcomes[contractx.ToolEmailNotify] = emailRes

	switch {
	case logRes.Succeeded() && emailRes.Succeeded():
		rec.FinalStatus = contractx.SubmissionSubmitted
	case logRes.Succeeded():
		rec.FinalStatus = contractx.SubmissionPartiallySubmitted
	default:
		rec.FinalStatus = contractx.SubmissionFailed
	}

	log.Info().
		Str("session_id", sessionID).
		Str("correlation_id", correlationID).
		Str("order_id", orderID).
		Str("final_status", string(rec.FinalStatus)).
		Msg("order submission completed")

	if rec.FinalStatus == contractx.SubmissionFailed {
		// Without the log the kitchen has no record; nothing is persisted and
		// the customer is told to retry.
		return rec, nil
	}

	if err := p.records.Append(ctx, rec); err != nil {
		return rec, fmt.Errorf("persist submission record: %w", err)
	}
	return rec, nil
}

func (p *Pipeline) validate(snap cartx.Snapshot) error {
	if snap.Empty() {
		return fmt.Errorf("%w: cart is empty", contractx.ErrInvalidCartAtSubmission)
	}
	for _, line := range snap.Lines {
		if !p.catalog.Has(line.ItemCode) {
			return fmt.Errorf("%w: item %s is no longer on the menu",
				contractx.ErrInvalidCartAtSubmission, line.ItemCode)
		}
		if line.Quantity < 1 {
			return fmt.Errorf("%w: item %s has quantity %d",
				contractx.ErrInvalidCartAtSubmission, line.ItemCode, line.Quantity)
		}
	}
	return nil
}

// nextOrderID reserves the next order number from the store, formatted in the
// ORD-00001 style of the kitchen's records. Reservation is atomic in the
// store, so concurrent submissions from distinct sessions get distinct ids.
func (p *Pipeline) nextOrderID(ctx context.Context) (string, error) {
	n, err := p.records.NextSequence(ctx)
	if err != nil {
		return "", fmt.Errorf("reserve order number: %w", err)
	}
	return fmt.Sprintf("ORD-%05d", n), nil
}

func (p *Pipeline) orderRow(rec *contractx.SubmissionRecord) map[string]any {
	items := make([]map[string]any, 0, len(rec.Cart.Lines))
	for _, line := range rec.Cart.Lines {
		items = append(items, map[string]any{
			"item_code":      line.ItemCode,
			"name":           line.Name,
			"quantity":       line.Quantity,
			"unit_price":     line.UnitPrice.StringFixed(2),
			"customizations": line.Customizations,
		})
	}
	return map[string]any{
		"order_id":       rec.OrderID,
		"session_id":     rec.SessionID,
		"correlation_id": rec.CorrelationID,
		"timestamp":      rec.CreatedAt.Format(time.RFC3339),
		"items":          items,
		"subtotal":       rec.Subtotal.StringFixed(2),
		"tax":            rec.Tax.StringFixed(2),
		"grand_total":    rec.GrandTotal.StringFixed(2),
	}
}
