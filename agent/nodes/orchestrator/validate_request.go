package orchestratornode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/contract"
	intentx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/intent"
	statex "github.com/tamersaada/Sofra-Conversational-Ordering/agent/state"
)

var (
	ErrInvalidSession = errors.New("session id is empty")
	ErrInvalidIntent  = errors.New("intent kind is empty")
)

type GraphInput struct {
	SessionID string
	Intent    contractx.Intent
}

type GraphOutput struct {
	Outcome contractx.TurnOutcome
}

// GraphState is threaded through the handle-intent graph, accumulating the
// loaded session, the translation, and finally the turn outcome.
type GraphState struct {
	SessionID string
	Intent    contractx.Intent
	Now       time.Time

	Session     *statex.Session
	PhaseBefore contractx.Phase
	Translation intentx.Translation

	Outcome contractx.TurnOutcome
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	if strings.TrimSpace(string(in.Intent.Kind)) == "" {
		return nil, ErrInvalidIntent
	}

	return &GraphState{
		SessionID: sessionID,
		Intent:    in.Intent,
		Now:       nowFn().UTC(),
	}, nil
}
