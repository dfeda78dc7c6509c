package contract

import "context"

// Extractor is the external language-understanding collaborator: it turns one
// free-text customer message into a structured Intent. All non-determinism
// lives behind this boundary.
type Extractor interface {
	Extract(ctx context.Context, text string) (Intent, error)
}

// ToolBackend carries a single tool request to whatever serves it (in-process
// handlers, an HTTP tool server). A returned error is a transport failure and
// is treated as transient; permanent rejections come back inside ToolResult.
type ToolBackend interface {
	Call(ctx context.Context, req ToolRequest) (ToolResult, error)
}

// Dispatcher resolves tool requests into definitive results. It never returns
// an error: retries, timeouts and idempotency are handled inside, and every
// outcome is an explicit ToolResult.
type Dispatcher interface {
	Invoke(ctx context.Context, req ToolRequest) ToolResult
}

// SubmissionStore is the append-only order log. Records are never rewritten;
// ByCorrelationID exists so a re-submission after a crash can detect the
// already-persisted record. NextSequence atomically reserves the next order
// number: concurrent submissions must never observe the same value, so a
// reserved number may go unused when its submission fails.
type SubmissionStore interface {
	Append(ctx context.Context, rec *SubmissionRecord) error
	ByCorrelationID(ctx context.Context, correlationID string) (*SubmissionRecord, error)
	NextSequence(ctx context.Context) (int64, error)
}
