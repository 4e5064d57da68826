package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/quailyquaily/tgrelay/internal/bridge"
)

type SendTelegramTool struct {
	svc *bridge.Service
}

type sendTelegramArgs struct {
	Header string `json:"header" validate:"required"`
	Body   string `json:"body"`
}

func (t *SendTelegramTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolSendTelegram,
		mcp.WithDescription("Send a Telegram notification. Use for alerts, completion notices, or when blocked awaiting input."),
		mcp.WithString("header",
			mcp.Required(),
			mcp.Description("Message header/title. Use emoji + status like: ✅ DONE, 🚫 BLOCKED, ❌ ERROR"),
		),
		mcp.WithString("body",
			mcp.Description("Optional message body with details. Can be multiline. Supports basic context like PWD, branch, host."),
		),
		mcp.WithTitleAnnotation("Send Telegram"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func (t *SendTelegramTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args sendTelegramArgs
	if err := bindArgs(ToolSendTelegram, req.GetArguments(), &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := t.svc.Notify(ctx, args.Header, args.Body)
	if err != nil {
		return mcp.NewToolResultError(bridge.FormatNotifyFailed(err)), nil
	}
	return mcp.NewToolResultText(bridge.FormatNotifySent(id)), nil
}
