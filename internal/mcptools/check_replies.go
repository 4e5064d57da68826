package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/quailyquaily/tgrelay/internal/bridge"
)

type CheckRepliesTool struct {
	svc *bridge.Service
}

type checkRepliesArgs struct {
	MessageID *int64 `json:"messageId" validate:"omitnil,gt=0"`
}

func (t *CheckRepliesTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolCheckReplies,
		mcp.WithDescription("Check for pending replies from Telegram (non-blocking). Returns all pending replies or a specific message reply."),
		mcp.WithNumber("messageId",
			mcp.Description("Specific message ID to check, or return all pending"),
		),
		mcp.WithTitleAnnotation("Check Replies"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

func (t *CheckRepliesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args checkRepliesArgs
	if err := bindArgs(ToolCheckReplies, req.GetArguments(), &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if args.MessageID != nil {
		id := *args.MessageID
		reply, ok, err := t.svc.CheckReply(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(bridge.DescribeError(err)), nil
		}
		if !ok {
			return mcp.NewToolResultText(bridge.FormatNoReply(id)), nil
		}
		return mcp.NewToolResultText(bridge.FormatReply(id, reply)), nil
	}

	replies, err := t.svc.CheckAllReplies(ctx)
	if err != nil {
		if len(replies) > 0 {
			// These were already removed from the store.
			return mcp.NewToolResultError(bridge.FormatPendingReplies(replies) + "\n\n" + bridge.DescribeError(err)), nil
		}
		return mcp.NewToolResultError(bridge.DescribeError(err)), nil
	}
	return mcp.NewToolResultText(bridge.FormatPendingReplies(replies)), nil
}
