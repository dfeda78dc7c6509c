// Package tool resolves tool requests into definitive results: bounded
// retries with exponential backoff for transient failures, and an effect
// ledger that makes retried effectful calls at-most-once.
package tool

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/contract"
)

type Config struct {
	Timeout     time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
	MaxAttempts int           `envconfig:"MAX_ATTEMPTS" split_words:"true" default:"3"`
	BackoffBase time.Duration `envconfig:"BACKOFF_BASE" split_words:"true" default:"200ms"`
}

// Dispatcher wraps a ToolBackend with retries, timeouts, and at-most-once
// execution of effectful tools. Callers block until a definitive result;
// the dispatcher never returns an error.
type Dispatcher struct {
	backend contractx.ToolBackend
	cfg     Config

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	effects map[string]contractx.ToolResult

	sleep func(ctx context.Context, d time.Duration) error
}

var _ contractx.Dispatcher = (*Dispatcher)(nil)

func NewDispatcher(backend contractx.ToolBackend, cfg Config) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 200 * time.Millisecond
	}
	return &Dispatcher{
		backend: backend,
		cfg:     cfg,
		locks:   make(map[string]*sync.Mutex),
		effects: make(map[string]contractx.ToolResult),
		sleep:   sleepCtx,
	}
}

// Invoke resolves one tool request. Effectful tools are serialized per
// correlation id, and a prior success under the same (correlation id, tool)
// is replayed from the ledger instead of re-executing the effect.
func (d *Dispatcher) Invoke(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	if strings.TrimSpace(string(req.Tool)) == "" {
		return failure(req.Tool, "tool name is empty", false)
	}
	if req.Tool.Effectful() {
		if strings.TrimSpace(req.CorrelationID) == "" {
			return failure(req.Tool, "correlation id is required for effectful tools", false)
		}
		lock := d.correlationLock(req.CorrelationID)
		lock.Lock()
		defer lock.Unlock()

		if res, ok := d.recordedEffect(req); ok {
			log.Debug().
				Str("tool", string(req.Tool)).
				Str("correlation_id", req.CorrelationID).
				Msg("replaying recorded tool effect")
			return res
		}
	}

	res := d.invokeWithRetries(ctx, req)
	if res.Succeeded() && req.Tool.Effectful() {
		d.recordEffect(req, res)
	}
	return res
}

func (d *Dispatcher) invokeWithRetries(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	var last contractx.ToolResult
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		res, err := d.callOnce(ctx, req)
		switch {
		case err != nil:
			// Transport errors (timeout, connection refused) are transient.
			last = failure(req.Tool, err.Error(), true)
		case !res.Succeeded() && !res.Retryable:
			// Permanent rejection from the backend is not retried.
			return res
		case !res.Succeeded():
			last = res
		default:
			return res
		}

		log.Warn().
			Str("tool", string(req.Tool)).
			Str("correlation_id", req.CorrelationID).
			Int("attempt", attempt).
			Str("reason", last.Reason).
			Msg("tool invocation failed")

		if attempt == d.cfg.MaxAttempts {
			break
		}
		if err := d.sleep(ctx, d.cfg.BackoffBase<<(attempt-1)); err != nil {
			return failure(req.Tool, "cancelled while backing off: "+err.Error(), false)
		}
	}

	// Retry budget exhausted: the outcome is final even though the underlying
	// cause was transient.
	return failure(req.Tool, last.Reason, false)
}

func (d *Dispatcher) callOnce(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()
	return d.backend.Call(attemptCtx, req)
}

func (d *Dispatcher) correlationLock(correlationID string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	lock, ok := d.locks[correlationID]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[correlationID] = lock
	}
	return lock
}

func (d *Dispatcher) recordedEffect(req contractx.ToolRequest) (contractx.ToolResult, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	res, ok := d.effects[effectKey(req)]
	return res, ok
}

func (d *Dispatcher) recordEffect(req contractx.ToolRequest, res contractx.ToolResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.effects[effectKey(req)] = res
}

func effectKey(req contractx.ToolRequest) string {
	return req.CorrelationID + "|" + string(req.Tool)
}

func failure(tool contractx.ToolName, reason string, retryable bool) contractx.ToolResult {
	return contractx.ToolResult{
		Tool:      tool,
		Reason:    reason,
		Retryable: retryable,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
