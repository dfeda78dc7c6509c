package tool

import (
	"context"

	contractx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/contract"
)

// Appender is the order-log sink behind the order.log tool.
type Appender interface {
	Append(ctx context.Context, row map[string]any) error
}

// Sender delivers the kitchen notification; the transport behind it (SMTP,
// webhook, ...) is not the core's concern.
type Sender func(ctx context.Context, to, subject, body string) error

// LogOrderHandler appends the request payload as one order row. Append
// failures surface as transient so the dispatcher retries them.
func LogOrderHandler(log Appender) Handler {
	return func(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
		if err := log.Append(ctx, req.Payload); err != nil {
			return contractx.ToolResult{}, err
		}
		return contractx.ToolResult{
			Tool: req.Tool,
			Data: map[string]any{"logged": true},
		}, nil
	}
}

// EmailNotifyHandler forwards the notification fields to a Sender. A payload
// with no recipient is a permanent failure; the backend cannot fix it by
// retrying.
func EmailNotifyHandler(send Sender) Handler {
	return func(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
		to, _ := req.Payload["to"].(string)
		subject, _ := req.Payload["subject"].(string)
		body, _ := req.Payload["body"].(string)
		if to == "" {
			return contractx.ToolResult{
				Tool:   req.Tool,
				Reason: "notification recipient is missing",
			}, nil
		}
		if err := send(ctx, to, subject, body); err != nil {
			return contractx.ToolResult{}, err
		}
		return contractx.ToolResult{
			Tool: req.Tool,
			Data: map[string]any{"notified": to},
		}, nil
	}
}
