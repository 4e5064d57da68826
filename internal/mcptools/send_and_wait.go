package mcptools

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/quailyquaily/tgrelay/internal/bridge"
	"github.com/quailyquaily/tgrelay/internal/relay"
)

type SendAndWaitTool struct {
	svc    *bridge.Service
	logger *slog.Logger
}

type sendAndWaitArgs struct {
	Message      string   `json:"message" validate:"required"`
	WaitForReply bool     `json:"waitForReply"`
	Timeout      *float64 `json:"timeout" validate:"omitnil,gt=0"`
	PollInterval *float64 `json:"pollInterval" validate:"omitnil,gt=0"`
}

func (t *SendAndWaitTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolSendAndWait,
		mcp.WithDescription("Send a Telegram message and optionally wait for a reply with polling. Use for interactive workflows requiring user input."),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The message to send to Telegram"),
		),
		mcp.WithBoolean("waitForReply",
			mcp.Description("Whether to poll for replies (default: false)"),
		),
		mcp.WithNumber("timeout",
			mcp.Description("Maximum seconds to wait for reply (default: 300)"),
		),
		mcp.WithNumber("pollInterval",
			mcp.Description("Seconds between polls (default: 5)"),
		),
		mcp.WithTitleAnnotation("Send and Wait"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func (t *SendAndWaitTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args sendAndWaitArgs
	if err := bindArgs(ToolSendAndWait, req.GetArguments(), &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cfg := t.svc.Config()
	timeout, interval := cfg.ReplyTimeout, cfg.PollInterval
	if args.Timeout != nil {
		timeout = seconds(*args.Timeout)
	}
	if args.PollInterval != nil {
		interval = seconds(*args.PollInterval)
	}

	t.logger.Debug("send_and_wait_called",
		"wait_for_reply", args.WaitForReply,
		"timeout", timeout.String(),
		"poll_interval", interval.String(),
	)
	res, err := t.svc.SendAndWait(ctx, bridge.SendAndWaitRequest{
		Message:      args.Message,
		WaitForReply: args.WaitForReply,
		Timeout:      timeout,
		PollInterval: interval,
		OnProgress:   t.progressFunc(req),
	})
	if err != nil {
		if res.MessageID == 0 {
			return mcp.NewToolResultError(bridge.FormatSendFailed(err)), nil
		}
		return mcp.NewToolResultError(bridge.DescribeError(err)), nil
	}
	return mcp.NewToolResultText(bridge.FormatSendAndWait(res, timeout)), nil
}

// progressFunc forwards wait ticks as notifications/progress when the
// client supplied a progress token.
func (t *SendAndWaitTool) progressFunc(req mcp.CallToolRequest) relay.ProgressFunc {
	if req.Params.Meta == nil || req.Params.Meta.ProgressToken == nil {
		return nil
	}
	token := req.Params.Meta.ProgressToken
	return func(ctx context.Context, message string, progress, total float64) error {
		srv := server.ServerFromContext(ctx)
		if srv == nil {
			return nil
		}
		return srv.SendNotificationToClient(ctx, "notifications/progress", map[string]any{
			"progressToken": token,
			"progress":      progress,
			"total":         total,
			"message":       message,
		})
	}
}
