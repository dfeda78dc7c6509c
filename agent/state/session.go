package state

import (
	"errors"
	"fmt"
	"time"

	cartx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/cart"
	contractx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/contract"
	menux "github.com/tamersaada/Sofra-Conversational-Ordering/agent/menu"
)

var (
	ErrInvalidSession    = errors.New("session id is empty")
	ErrSessionClosed     = errors.New("session is cancelled")
	ErrInvalidTransition = errors.New("invalid phase transition")
)

// HistoryEntry is one audit line: the intent that arrived and what the system
// did with it. History is append-only and never truncated during the
// session's lifetime.
type HistoryEntry struct {
	At          time.Time             `json:"at"`
	Intent      contractx.Intent      `json:"intent"`
	Outcome     contractx.OutcomeKind `json:"outcome"`
	Reply       string                `json:"reply"`
	PhaseBefore contractx.Phase       `json:"phase_before"`
	PhaseAfter  contractx.Phase       `json:"phase_after"`
}

// Session owns one conversation: the current order cycle's cart, the phase
// machine, and the audit history. Intents for one session are handled
// strictly one at a time; the orchestrator serializes them.
type Session struct {
	SessionID string          `json:"session_id"`
	Phase     contractx.Phase `json:"phase"`
	Cart      *cartx.Cart     `json:"-"`

	// History spans order cycles; it is the sole audit trail.
	History []HistoryEntry `json:"history,omitempty"`

	// Cycle counts completed order cycles under this session id.
	Cycle int `json:"cycle"`

	// CorrelationID is assigned when the session enters Confirming and kept
	// until a submission succeeds, so a retried confirm (or a re-submission
	// after a crash) reuses the same id and cannot double-place the order.
	CorrelationID string `json:"correlation_id,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewSession(sessionID string, catalog *menux.Catalog, now time.Time) *Session {
	return &Session{
		SessionID: sessionID,
		Phase:     contractx.PhaseGreeting,
		Cart:      cartx.New(sessionID, catalog),
		UpdatedAt: now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

func (s *Session) Closed() bool {
	return s != nil && s.Phase == contractx.PhaseCancelled
}

// BeginTurn moves the session out of its resting phases before an intent is
// applied: any first intent leaves Greeting, and a new intent after a
// completed order opens the next cycle with a fresh cart.
func (s *Session) BeginTurn(now time.Time) error {
	if s.Closed() {
		return fmt.Errorf("%w: %s", ErrSessionClosed, s.SessionID)
	}
	switch s.Phase {
	case contractx.PhaseGreeting:
		s.Phase = contractx.PhaseBrowsing
	case contractx.PhaseSubmitted:
		s.Phase = contractx.PhaseBrowsing
		s.Cart.Clear()
		s.Cycle++
	}
	s.Touch(now)
	return nil
}

// MarkOrdering records that a cart mutation happened. A mutation while
// Confirming is an implicit cancel-and-resume back to Ordering.
func (s *Session) MarkOrdering(now time.Time) {
	switch s.Phase {
	case contractx.PhaseBrowsing, contractx.PhaseOrdering:
		s.Phase = contractx.PhaseOrdering
	case contractx.PhaseConfirming:
		s.Phase = contractx.PhaseOrdering
		s.CorrelationID = ""
	}
	s.Touch(now)
}

// BeginConfirm moves Ordering -> Confirming, assigning the submission
// correlation id exactly once. An empty cart fails without a transition.
// Returns true when the session was already Confirming, i.e. this confirm
// should trigger the submission itself.
func (s *Session) BeginConfirm(correlationID string, now time.Time) (alreadyConfirming bool, err error) {
	if s.Phase == contractx.PhaseConfirming {
		return true, nil
	}
	if s.Cart.Empty() {
		return false, contractx.ErrEmptyCartOnConfirm
	}
	if s.Phase != contractx.PhaseOrdering {
		return false, fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, s.Phase)
	}
	s.Phase = contractx.PhaseConfirming
	s.CorrelationID = correlationID
	s.Touch(now)
	return false, nil
}

// CompleteSubmission applies the pipeline's final status: a non-failed
// submission closes the order (terminal for this cycle), a failed one keeps
// the session in Confirming so the customer can retry with the same
// correlation id.
func (s *Session) CompleteSubmission(status contractx.SubmissionStatus, now time.Time) error {
	if s.Phase != contractx.PhaseConfirming {
		return fmt.Errorf("%w: submission completed while %s", ErrInvalidTransition, s.Phase)
	}
	if status != contractx.SubmissionFailed {
		s.Phase = contractx.PhaseSubmitted
		s.CorrelationID = ""
	}
	s.Touch(now)
	return nil
}

// Cancel is allowed from any phase and is terminal: the cart is cleared and
// the session is archived.
func (s *Session) Cancel(now time.Time) {
	s.Phase = contractx.PhaseCancelled
	s.Cart.Clear()
	s.CorrelationID = ""
	s.Touch(now)
}

// Record appends one history entry. Every handled intent records exactly one.
func (s *Session) Record(e HistoryEntry) {
	s.History = append(s.History, e)
}

func (s *Session) Validate() error {
	if s.SessionID == "" {
		return ErrInvalidSession
	}
	switch s.Phase {
	case contractx.PhaseGreeting, contractx.PhaseBrowsing, contractx.PhaseOrdering,
		contractx.PhaseConfirming, contractx.PhaseSubmitted, contractx.PhaseCancelled:
	default:
		return fmt.Errorf("%w: unknown phase %q", contractx.ErrValidation, s.Phase)
	}
	if s.Phase == contractx.PhaseConfirming && s.CorrelationID == "" {
		return fmt.Errorf("%w: confirming session has no correlation id", contractx.ErrValidation)
	}
	if s.Phase == contractx.PhaseCancelled && !s.Cart.Empty() {
		return fmt.Errorf("%w: cancelled session still has cart lines", contractx.ErrValidation)
	}
	return nil
}
