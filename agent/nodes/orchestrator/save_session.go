package orchestratornode

import (
	"context"
	"fmt"

	statex "github.com/tamersaada/Sofra-Conversational-Ordering/agent/state"
)

// ValidateAndSaveSession checks the session's invariants after the turn and
// persists it. Cancelled sessions are saved too; they remain readable as an
// archive until the store expires them.
func ValidateAndSaveSession(ctx context.Context, st *GraphState, store statex.Store) (*GraphState, error) {
	if err := st.Session.Validate(); err != nil {
		return nil, fmt.Errorf("session %s after turn: %w", st.SessionID, err)
	}
	if err := store.Save(ctx, st.Session); err != nil {
		return nil, fmt.Errorf("save session %s: %w", st.SessionID, err)
	}
	return st, nil
}

// FinalizeOutcome is the graph's terminal node: it hands the turn outcome
// back to the caller.
func FinalizeOutcome(st *GraphState) (GraphOutput, error) {
	return GraphOutput{Outcome: st.Outcome}, nil
}
