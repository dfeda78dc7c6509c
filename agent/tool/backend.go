package tool

import (
	"context"
	"fmt"

	contractx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/contract"
	menux "github.com/tamersaada/Sofra-Conversational-Ordering/agent/menu"
)

// Handler serves one tool in process. A returned error is treated as a
// transport failure (transient); permanent rejections go inside the result.
type Handler func(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error)

// LocalBackend routes requests to registered in-process handlers. An
// unregistered tool is a permanent failure, mirroring a backend that does not
// expose it.
type LocalBackend struct {
	handlers map[contractx.ToolName]Handler
}

var _ contractx.ToolBackend = (*LocalBackend)(nil)

func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		handlers: make(map[contractx.ToolName]Handler),
	}
}

func (b *LocalBackend) Register(tool contractx.ToolName, h Handler) {
	b.handlers[tool] = h
}

func (b *LocalBackend) Call(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	h, ok := b.handlers[req.Tool]
	if !ok {
		return contractx.ToolResult{
			Tool:   req.Tool,
			Reason: fmt.Sprintf("tool=%s is unavailable", req.Tool),
		}, nil
	}
	return h(ctx, req)
}

// MenuQueryHandler serves menu.query from the static catalog. Read-only, so
// it carries no idempotency constraint.
func MenuQueryHandler(catalog *menux.Catalog) Handler {
	return func(_ context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
		filter, _ := req.Payload["filter"].(string)
		return contractx.ToolResult{
			Tool: req.Tool,
			Data: catalog.Search(filter),
		}, nil
	}
}
