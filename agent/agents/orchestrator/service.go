// Package orchestrator coordinates one customer turn end to end: it loads the
// session, applies the intent through the handle-intent graph, and hands back
// a typed TurnOutcome. Intents for the same session are handled strictly one
// at a time.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/contract"
	menux "github.com/tamersaada/Sofra-Conversational-Ordering/agent/menu"
	nodex "github.com/tamersaada/Sofra-Conversational-Ordering/agent/nodes/orchestrator"
	statex "github.com/tamersaada/Sofra-Conversational-Ordering/agent/state"
	submitx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/submit"
)

var (
	ErrInvalidSession = nodex.ErrInvalidSession
	ErrInvalidIntent  = nodex.ErrInvalidIntent
)

type Orchestrator struct {
	store     statex.Store
	catalog   *menux.Catalog
	pipeline  *submitx.Pipeline
	extractor contractx.Extractor

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	// sessionLocks serializes turns per session id; concurrent intents for
	// the same session are applied one after another.
	mu           sync.Mutex
	sessionLocks map[string]*sync.Mutex

	now func() time.Time
}

// New wires the orchestrator. extractor may be nil when callers only submit
// structured intents via HandleIntent.
func New(
	store statex.Store,
	catalog *menux.Catalog,
	pipeline *submitx.Pipeline,
	extractor contractx.Extractor,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if catalog == nil {
		return nil, errors.New("menu catalog is required")
	}
	if pipeline == nil {
		return nil, errors.New("submission pipeline is required")
	}

	o := &Orchestrator{
		store:        store,
		catalog:      catalog,
		pipeline:     pipeline,
		extractor:    extractor,
		sessionLocks: make(map[string]*sync.Mutex),
		now:          time.Now,
	}

	graphRunner, err := o.compileHandleIntentGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleIntent applies one structured intent to the session and returns the
// turn's outcome. Errors are infrastructure failures only; user-input
// problems surface inside the outcome as clarifications.
func (o *Orchestrator) HandleIntent(ctx context.Context, sessionID string, intent contractx.Intent) (contractx.TurnOutcome, error) {
	lock := o.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Intent:    intent,
	})
	if err != nil {
		return contractx.TurnOutcome{}, err
	}
	return out.Outcome, nil
}

// HandleMessage extracts a structured intent from free text and applies it.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID string, text string) (contractx.TurnOutcome, error) {
	if o.extractor == nil {
		return contractx.TurnOutcome{}, errors.New("no intent extractor configured")
	}
	intent, err := o.extractor.Extract(ctx, text)
	if err != nil {
		return contractx.TurnOutcome{}, fmt.Errorf("%w: %v", contractx.ErrIntentExtract, err)
	}
	return o.HandleIntent(ctx, sessionID, intent)
}

// CloseSession removes the session from the store. Cancelled sessions are
// kept around as an archive until closed explicitly.
func (o *Orchestrator) CloseSession(ctx context.Context, sessionID string) error {
	lock := o.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	return o.store.Delete(ctx, sessionID)
}

func (o *Orchestrator) lockFor(sessionID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()

	lock, ok := o.sessionLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		o.sessionLocks[sessionID] = lock
	}
	return lock
}
