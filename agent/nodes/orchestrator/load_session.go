package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	menux "github.com/tamersaada/Sofra-Conversational-Ordering/agent/menu"
	statex "github.com/tamersaada/Sofra-Conversational-Ordering/agent/state"
)

// LoadOrCreateSession fetches the session from the store, or starts a fresh
// one in the greeting phase when the id has never been seen.
func LoadOrCreateSession(ctx context.Context, st *GraphState, store statex.Store, catalog *menux.Catalog) (*GraphState, error) {
	sess, err := store.Load(ctx, st.SessionID)
	switch {
	case err == nil:
		st.Session = sess
	case errors.Is(err, statex.ErrSessionNotFound):
		st.Session = statex.NewSession(st.SessionID, catalog, st.Now)
	default:
		return nil, fmt.Errorf("load session %s: %w", st.SessionID, err)
	}

	st.PhaseBefore = st.Session.Phase
	return st, nil
}
