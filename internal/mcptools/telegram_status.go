package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/quailyquaily/tgrelay/internal/bridge"
)

type TelegramStatusTool struct {
	svc *bridge.Service
}

func (t *TelegramStatusTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolTelegramStatus,
		mcp.WithDescription("Check if Telegram credentials are configured"),
		mcp.WithTitleAnnotation("Telegram Status"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

func (t *TelegramStatusTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(bridge.FormatStatus(t.svc.Status(ctx, false))), nil
}
