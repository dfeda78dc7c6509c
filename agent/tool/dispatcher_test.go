package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/contract"
	menux "github.com/tamersaada/Sofra-Conversational-Ordering/agent/menu"
)

type fakeBackend struct {
	results []contractx.ToolResult
	errs    []error
	calls   int
	reqs    []contractx.ToolRequest
}

func (f *fakeBackend) Call(_ context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	idx := f.calls
	f.calls++
	f.reqs = append(f.reqs, req)

	var err error
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	var res contractx.ToolResult
	if idx < len(f.results) {
		res = f.results[idx]
	}
	return res, err
}

func newTestDispatcher(backend contractx.ToolBackend) *Dispatcher {
	d := NewDispatcher(backend, Config{
		Timeout:     time.Second,
		MaxAttempts: 3,
		BackoffBase: time.Millisecond,
	})
	d.sleep = func(context.Context, time.Duration) error { return nil }
	return d
}

func TestInvokeSuccessFirstAttempt(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		results: []contractx.ToolResult{{Tool: contractx.ToolMenuQuery, Data: "ok"}},
	}
	d := newTestDispatcher(backend)

	res := d.Invoke(context.Background(), contractx.ToolRequest{Tool: contractx.ToolMenuQuery})
	if !res.Succeeded() {
		t.Fatalf("expected success, got %+v", res)
	}
	if backend.calls != 1 {
		t.Fatalf("expected 1 call, got %d", backend.calls)
	}
}

func TestInvokeRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		errs: []error{errors.New("connection refused"), nil},
		results: []contractx.ToolResult{
			{},
			{Tool: contractx.ToolLogOrder, Data: "logged"},
		},
	}
	d := newTestDispatcher(backend)

	res := d.Invoke(context.Background(), contractx.ToolRequest{
		Tool:          contractx.ToolLogOrder,
		CorrelationID: "corr-1",
	})
	if !res.Succeeded() {
		t.Fatalf("expected success after retry, got %+v", res)
	}
	if backend.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", backend.calls)
	}
}

func TestInvokeExhaustsRetryBudget(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		errs: []error{
			errors.New("timeout"),
			errors.New("timeout"),
			errors.New("timeout"),
		},
	}
	d := newTestDispatcher(backend)

	res := d.Invoke(context.Background(), contractx.ToolRequest{
		Tool:          contractx.ToolLogOrder,
		CorrelationID: "corr-1",
	})
	if res.Succeeded() {
		t.Fatalf("expected failure, got %+v", res)
	}
	if res.Retryable {
		t.Fatal("exhausted result must be final, not retryable")
	}
	if backend.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", backend.calls)
	}
}

func TestInvokePermanentFailureNotRetried(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		results: []contractx.ToolResult{
			{Tool: contractx.ToolEmailNotify, Reason: "recipient rejected", Retryable: false},
		},
	}
	d := newTestDispatcher(backend)

	res := d.Invoke(context.Background(), contractx.ToolRequest{
		Tool:          contractx.ToolEmailNotify,
		CorrelationID: "corr-1",
	})
	if res.Succeeded() {
		t.Fatalf("expected failure, got %+v", res)
	}
	if backend.calls != 1 {
		t.Fatalf("permanent failures must not retry, got %d calls", backend.calls)
	}
}

func TestInvokeReplaysRecordedEffect(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		results: []contractx.ToolResult{
			{Tool: contractx.ToolLogOrder, Data: "row-1"},
			{Tool: contractx.ToolLogOrder, Data: "row-2"},
		},
	}
	d := newTestDispatcher(backend)
	req := contractx.ToolRequest{Tool: contractx.ToolLogOrder, CorrelationID: "corr-1"}

	first := d.Invoke(context.Background(), req)
	second := d.Invoke(context.Background(), req)

	if backend.calls != 1 {
		t.Fatalf("effect must execute once, backend called %d times", backend.calls)
	}
	if first.Data != "row-1" || second.Data != "row-1" {
		t.Fatalf("replay must return the recorded result: %v / %v", first.Data, second.Data)
	}
}

func TestInvokeFailedEffectMayRunAgain(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		errs: []error{
			errors.New("down"), errors.New("down"), errors.New("down"),
			nil,
		},
		results: []contractx.ToolResult{
			{}, {}, {},
			{Tool: contractx.ToolLogOrder, Data: "logged"},
		},
	}
	d := newTestDispatcher(backend)
	req := contractx.ToolRequest{Tool: contractx.ToolLogOrder, CorrelationID: "corr-1"}

	if res := d.Invoke(context.Background(), req); res.Succeeded() {
		t.Fatalf("expected first invoke to fail, got %+v", res)
	}
	// Only successes enter the ledger; a later submission retry re-executes.
	if res := d.Invoke(context.Background(), req); !res.Succeeded() {
		t.Fatalf("expected second invoke to succeed, got %+v", res)
	}
	if backend.calls != 4 {
		t.Fatalf("expected 4 backend calls, got %d", backend.calls)
	}
}

func TestInvokeEffectfulRequiresCorrelationID(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	d := newTestDispatcher(backend)

	res := d.Invoke(context.Background(), contractx.ToolRequest{Tool: contractx.ToolLogOrder})
	if res.Succeeded() || res.Retryable {
		t.Fatalf("expected permanent failure, got %+v", res)
	}
	if backend.calls != 0 {
		t.Fatal("backend must not be called without a correlation id")
	}
}

func TestInvokeEmptyToolName(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher(&fakeBackend{})
	res := d.Invoke(context.Background(), contractx.ToolRequest{})
	if res.Succeeded() || res.Retryable {
		t.Fatalf("expected permanent failure, got %+v", res)
	}
}

func TestLocalBackendUnknownTool(t *testing.T) {
	t.Parallel()

	backend := NewLocalBackend()
	res, err := backend.Call(context.Background(), contractx.ToolRequest{Tool: "warehouse.restock"})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if res.Succeeded() || res.Retryable {
		t.Fatalf("unregistered tool must fail permanently, got %+v", res)
	}
}

func TestMenuQueryHandler(t *testing.T) {
	t.Parallel()

	catalog, err := menux.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	backend := NewLocalBackend()
	backend.Register(contractx.ToolMenuQuery, MenuQueryHandler(catalog))

	res, err := backend.Call(context.Background(), contractx.ToolRequest{
		Tool:    contractx.ToolMenuQuery,
		Payload: map[string]any{"filter": "dessert"},
	})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	items, ok := res.Data.([]menux.Item)
	if !ok {
		t.Fatalf("unexpected data type %T", res.Data)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 desserts, got %d", len(items))
	}
}
