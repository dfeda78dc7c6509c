package contract

import (
	"time"

	"github.com/shopspring/decimal"
	cartx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/cart"
	menux "github.com/tamersaada/Sofra-Conversational-Ordering/agent/menu"
)

// IntentKind is the closed set of conversational goals the NLU collaborator
// may emit. Anything it cannot map arrives as IntentUnrecognized and is
// surfaced back as a clarification; the core never guesses.
type IntentKind string

const (
	IntentAddItem        IntentKind = "add_item"
	IntentRemoveItem     IntentKind = "remove_item"
	IntentUpdateQuantity IntentKind = "update_quantity"
	IntentQueryMenu      IntentKind = "query_menu"
	IntentConfirmOrder   IntentKind = "confirm_order"
	IntentCancelOrder    IntentKind = "cancel_order"
	IntentUnrecognized   IntentKind = "unrecognized"
)

// Intent is the structured form of one customer turn, immutable once received.
type Intent struct {
	Kind           IntentKind `json:"kind"`
	ItemCode       string     `json:"item_code,omitempty"`
	Quantity       int        `json:"quantity,omitempty"`
	Customizations []string   `json:"customizations,omitempty"`
	MenuFilter     string     `json:"menu_filter,omitempty"`
}

type ToolName string

const (
	ToolLogOrder    ToolName = "order.log"
	ToolEmailNotify ToolName = "kitchen.email_notify"
	ToolMenuQuery   ToolName = "menu.query"
)

// Effectful reports whether a tool has an externally visible side effect and
// therefore falls under the at-most-once-per-correlation-id guarantee.
func (t ToolName) Effectful() bool {
	return t == ToolLogOrder || t == ToolEmailNotify
}

// ToolRequest is one invocation of a backend tool. CorrelationID is shared
// across retries (and across the tools of one submission) so the backend can
// deduplicate.
type ToolRequest struct {
	Tool          ToolName       `json:"tool"`
	CorrelationID string         `json:"correlation_id"`
	Payload       map[string]any `json:"payload,omitempty"`
}

// ToolResult is the definitive outcome of a tool invocation. Reason is empty
// on success; Retryable distinguishes transient failures from permanent ones.
type ToolResult struct {
	Tool      ToolName `json:"tool"`
	Data      any      `json:"data,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Retryable bool     `json:"retryable,omitempty"`
}

func (r ToolResult) Succeeded() bool {
	return r.Reason == ""
}

type SubmissionStatus string

const (
	SubmissionSubmitted          SubmissionStatus = "submitted"
	SubmissionPartiallySubmitted SubmissionStatus = "partially_submitted"
	SubmissionFailed             SubmissionStatus = "failed"
)

// SubmissionRecord is produced once per finalized order and never mutated.
type SubmissionRecord struct {
	OrderID       string                  `json:"order_id"`
	SessionID     string                  `json:"session_id"`
	CorrelationID string                  `json:"correlation_id"`
	Cart          cartx.Snapshot          `json:"cart"`
	Subtotal      decimal.Decimal         `json:"subtotal"`
	Tax           decimal.Decimal         `json:"tax"`
	GrandTotal    decimal.Decimal         `json:"grand_total"`
	ToolOutcomes  map[ToolName]ToolResult `json:"tool_outcomes"`
	FinalStatus   SubmissionStatus        `json:"final_status"`
	CreatedAt     time.Time               `json:"created_at"`
}

// Phase is the conversation-level state of an order session.
type Phase string

const (
	PhaseGreeting   Phase = "greeting"
	PhaseBrowsing   Phase = "browsing"
	PhaseOrdering   Phase = "ordering"
	PhaseConfirming Phase = "confirming"
	PhaseSubmitted  Phase = "submitted"
	PhaseCancelled  Phase = "cancelled"
)

// OutcomeKind classifies the typed result of one handled intent. Every turn,
// including every user-input error, produces exactly one of these; nothing
// terminates the session implicitly.
type OutcomeKind string

const (
	OutcomeMenu           OutcomeKind = "menu"
	OutcomeCartUpdated    OutcomeKind = "cart_updated"
	OutcomeClarification  OutcomeKind = "clarification"
	OutcomeConfirmPending OutcomeKind = "confirm_pending"
	OutcomeSubmitted      OutcomeKind = "submitted"
	OutcomeRetryLater     OutcomeKind = "retry_later"
	OutcomeCancelled      OutcomeKind = "cancelled"
	OutcomeSessionClosed  OutcomeKind = "session_closed"
)

// TurnOutcome is what the conversation layer renders after each intent.
type TurnOutcome struct {
	Kind       OutcomeKind       `json:"kind"`
	Reply      string            `json:"reply"`
	Phase      Phase             `json:"phase"`
	Cart       cartx.Snapshot    `json:"cart"`
	MenuItems  []menux.Item      `json:"menu_items,omitempty"`
	Submission *SubmissionRecord `json:"submission,omitempty"`
}
