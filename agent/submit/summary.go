package submit

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	cartx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/cart"
	contractx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/contract"
)

// OrderSummary renders the repeat-back shown to the customer before the
// final confirmation.
func OrderSummary(snap cartx.Snapshot, taxRate decimal.Decimal) string {
	var b strings.Builder
	b.WriteString("Your order:\n")
	for _, line := range snap.Lines {
		fmt.Fprintf(&b, "  %dx %s (%s) - $%s\n",
			line.Quantity, line.Name, line.ItemCode, line.LineTotal().StringFixed(2))
		for _, c := range line.Customizations {
			fmt.Fprintf(&b, "     - %s\n", c)
		}
	}
	tax := snap.Subtotal.Mul(taxRate).Round(2)
	fmt.Fprintf(&b, "Subtotal: $%s\n", snap.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Tax: $%s\n", tax.StringFixed(2))
	fmt.Fprintf(&b, "Total: $%s", snap.Subtotal.Add(tax).StringFixed(2))
	return b.String()
}

// KitchenSummary renders the body for the chef notification email.
func KitchenSummary(rec *contractx.SubmissionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "NEW ORDER %s\n", rec.OrderID)
	fmt.Fprintf(&b, "Session: %s\n", rec.SessionID)
	fmt.Fprintf(&b, "Placed: %s\n\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
	for _, line := range rec.Cart.Lines {
		fmt.Fprintf(&b, "  %dx %s (%s)\n", line.Quantity, line.Name, line.ItemCode)
		for _, c := range line.Customizations {
			fmt.Fprintf(&b, "     - %s\n", c)
		}
	}
	fmt.Fprintf(&b, "\nSubtotal: $%s\n", rec.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Tax: $%s\n", rec.Tax.StringFixed(2))
	fmt.Fprintf(&b, "GRAND TOTAL: $%s\n", rec.GrandTotal.StringFixed(2))
	return b.String()
}

// TaxRate exposes the pipeline's configured rate so the conversation layer
// can render consistent totals in the confirm prompt.
func (p *Pipeline) TaxRate() decimal.Decimal {
	return p.taxRate
}
