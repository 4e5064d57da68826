// Package mcptools exposes the bridge as MCP tools.
package mcptools

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/quailyquaily/tgrelay/internal/bridge"
	"github.com/quailyquaily/tgrelay/internal/logutil"
)

const (
	ToolSendTelegram   = "send_telegram"
	ToolTelegramStatus = "telegram_status"
	ToolSendAndWait    = "send_and_wait"
	ToolCheckReplies   = "check_replies"
)

// Tool pairs an MCP definition with its handler.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// NewServer builds the MCP server with every relay tool registered.
func NewServer(name, version string, svc *bridge.Service, logger *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, t := range Tools(svc, logger) {
		s.AddTool(t.Definition(), t.Handle)
	}
	return s
}

func Tools(svc *bridge.Service, logger *slog.Logger) []Tool {
	logger = logutil.OrDiscard(logger)
	return []Tool{
		&SendTelegramTool{svc: svc},
		&TelegramStatusTool{svc: svc},
		&SendAndWaitTool{svc: svc, logger: logger},
		&CheckRepliesTool{svc: svc},
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
