package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	cartx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/cart"
	contractx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/contract"
	intentx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/intent"
	menux "github.com/tamersaada/Sofra-Conversational-Ordering/agent/menu"
	statex "github.com/tamersaada/Sofra-Conversational-Ordering/agent/state"
	submitx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/submit"
)

// TranslateIntent resolves the structured intent into a single operation.
func TranslateIntent(st *GraphState) (*GraphState, error) {
	st.Translation = intentx.Translate(st.Intent)
	return st, nil
}

// ApplyIntent runs the translated operation against the session: cart
// mutations, menu queries, and the confirm/cancel commands. Every path fills
// st.Outcome; user-input errors become clarifications, never Go errors.
func ApplyIntent(ctx context.Context, st *GraphState, catalog *menux.Catalog, pipeline *submitx.Pipeline) (*GraphState, error) {
	s := st.Session

	if s.Closed() {
		st.Outcome = contractx.TurnOutcome{
			Kind:  contractx.OutcomeSessionClosed,
			Reply: "This order session was cancelled. Please start a new session to order.",
		}
		finishTurn(st)
		return st, nil
	}

	if err := s.BeginTurn(st.Now); err != nil {
		return nil, err
	}

	switch st.Translation.Kind {
	case intentx.KindMenuQuery:
		applyMenuQuery(st, catalog)
	case intentx.KindCartOp:
		applyCartOp(st)
	case intentx.KindCommand:
		if err := applyCommand(ctx, st, pipeline); err != nil {
			return nil, err
		}
	default:
		st.Outcome = contractx.TurnOutcome{
			Kind:  contractx.OutcomeClarification,
			Reply: "Sorry, I didn't catch that. You can browse the menu, add or remove items, or confirm your order.",
		}
	}

	finishTurn(st)
	return st, nil
}

func applyMenuQuery(st *GraphState, catalog *menux.Catalog) {
	items := catalog.Search(st.Translation.MenuFilter)

	reply := fmt.Sprintf("We have %d items for you.", len(items))
	if len(items) == 0 {
		reply = fmt.Sprintf("Nothing on the menu matches %q. Try a category like appetizers or mains.", st.Translation.MenuFilter)
	}

	st.Outcome = contractx.TurnOutcome{
		Kind:      contractx.OutcomeMenu,
		Reply:     reply,
		MenuItems: items,
	}
}

func applyCartOp(st *GraphState) {
	s := st.Session

	if err := st.Translation.ApplyTo(s.Cart); err != nil {
		st.Outcome = contractx.TurnOutcome{
			Kind:  contractx.OutcomeClarification,
			Reply: clarifyCartError(st.Translation, err),
		}
		return
	}

	s.MarkOrdering(st.Now)
	st.Outcome = contractx.TurnOutcome{
		Kind:  contractx.OutcomeCartUpdated,
		Reply: fmt.Sprintf("Got it. Your order total is $%s before tax.", s.Cart.Total().StringFixed(2)),
	}
}

func applyCommand(ctx context.Context, st *GraphState, pipeline *submitx.Pipeline) error {
	s := st.Session

	switch st.Translation.Command {
	case intentx.CommandCancel:
		s.Cancel(st.Now)
		st.Outcome = contractx.TurnOutcome{
			Kind:  contractx.OutcomeCancelled,
			Reply: "Your order has been cancelled. We hope to see you again.",
		}
		return nil

	case intentx.CommandConfirm:
		alreadyConfirming, err := s.BeginConfirm(uuid.NewString(), st.Now)
		switch {
		case errors.Is(err, contractx.ErrEmptyCartOnConfirm):
			st.Outcome = contractx.TurnOutcome{
				Kind:  contractx.OutcomeClarification,
				Reply: "Your cart is empty. Add something from the menu before confirming.",
			}
			return nil
		case err != nil:
			return err
		}

		if !alreadyConfirming {
			st.Outcome = contractx.TurnOutcome{
				Kind:  contractx.OutcomeConfirmPending,
				Reply: submitx.OrderSummary(s.Cart.Snapshot(), pipeline.TaxRate()) + "\nSay confirm again to place the order, or keep editing.",
			}
			return nil
		}

		return submitOrder(ctx, st, pipeline)

	default:
		return fmt.Errorf("%w: unknown command %q", contractx.ErrValidation, st.Translation.Command)
	}
}

// submitOrder runs the pipeline for a session that confirmed twice. The
// session's stored correlation id makes a retried confirm idempotent.
func submitOrder(ctx context.Context, st *GraphState, pipeline *submitx.Pipeline) error {
	s := st.Session

	rec, err := pipeline.Submit(ctx, s.SessionID, s.Cart.Snapshot(), s.CorrelationID)
	switch {
	case errors.Is(err, contractx.ErrInvalidCartAtSubmission):
		// The cart can no longer be submitted as-is; hand it back for editing.
		s.MarkOrdering(st.Now)
		st.Outcome = contractx.TurnOutcome{
			Kind:  contractx.OutcomeClarification,
			Reply: "Some items in your order can't be submitted anymore. Please review your cart and confirm again.",
		}
		return nil
	case err != nil:
		return err
	}

	if rec.FinalStatus == contractx.SubmissionFailed {
		log.Warn().
			Str("session_id", s.SessionID).
			Str("correlation_id", rec.CorrelationID).
			Msg("submission failed, session stays in confirming")
		st.Outcome = contractx.TurnOutcome{
			Kind:       contractx.OutcomeRetryLater,
			Reply:      "We couldn't send your order to the kitchen just now. Nothing was placed; please confirm again in a moment.",
			Submission: rec,
		}
		return nil
	}

	if err := s.CompleteSubmission(rec.FinalStatus, st.Now); err != nil {
		return err
	}

	reply := fmt.Sprintf("Order %s placed! Your total is $%s including tax.", rec.OrderID, rec.GrandTotal.StringFixed(2))
	if rec.FinalStatus == contractx.SubmissionPartiallySubmitted {
		reply += " The kitchen notification is delayed, but your order is recorded."
	}
	st.Outcome = contractx.TurnOutcome{
		Kind:       contractx.OutcomeSubmitted,
		Reply:      reply,
		Submission: rec,
	}
	return nil
}

// finishTurn stamps the outcome with the session's final phase and cart view
// and appends the audit entry.
func finishTurn(st *GraphState) {
	s := st.Session

	st.Outcome.Phase = s.Phase
	st.Outcome.Cart = s.Cart.Snapshot()

	s.Record(statex.HistoryEntry{
		At:          st.Now,
		Intent:      st.Intent,
		Outcome:     st.Outcome.Kind,
		Reply:       st.Outcome.Reply,
		PhaseBefore: st.PhaseBefore,
		PhaseAfter:  s.Phase,
	})
}

func clarifyCartError(tr intentx.Translation, err error) string {
	switch {
	case errors.Is(err, cartx.ErrUnknownItem):
		return fmt.Sprintf("I couldn't find %q on the menu. Want to see what we have?", tr.ItemCode)
	case errors.Is(err, cartx.ErrInvalidQuantity):
		return "Quantities need to be at least 1. How many would you like?"
	case errors.Is(err, cartx.ErrItemNotInCart):
		return fmt.Sprintf("There's no %q in your order yet.", tr.ItemCode)
	default:
		return "I couldn't apply that change to your order. Could you rephrase?"
	}
}
