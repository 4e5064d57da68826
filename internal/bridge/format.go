package bridge

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quailyquaily/tgrelay/internal/outputfmt"
	"github.com/quailyquaily/tgrelay/internal/relay"
	"github.com/quailyquaily/tgrelay/internal/telegram"
)

const missingConfigText = "Missing TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID environment variables"

// ComposeNotification builds the HTML text for a header/body notification.
// Both parts are escaped; a bare header is sent without bold markup.
func ComposeNotification(header, body string) string {
	h := telegram.EscapeHTML(header)
	if body == "" {
		return h
	}
	return "<b>" + h + "</b>\n\n" + telegram.EscapeHTML(body)
}

// DescribeError renders err the way tool results show it.
func DescribeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, relay.ErrMissingConfig):
		return missingConfigText
	default:
		return outputfmt.FormatErrorForDisplay(err)
	}
}

func FormatNotifySent(id int64) string {
	return fmt.Sprintf("✓ Telegram sent (ID: %d)", id)
}

func FormatNotifyFailed(err error) string {
	return "✗ Failed: " + DescribeError(err)
}

func FormatSendFailed(err error) string {
	return "✗ Failed to send message: " + DescribeError(err)
}

func FormatSentNoWait(id int64) string {
	return fmt.Sprintf("✓ Message sent (ID: %d). Use check_replies tool to poll for responses.", id)
}

func FormatReplyReceived(text string) string {
	return "✓ Reply received:\n\n" + text
}

func FormatWaitTimeout(timeout time.Duration) string {
	return fmt.Sprintf("⏱ Timeout: No reply received within %ds. Use check_replies tool to check later.", int64(timeout/time.Second))
}

// FormatSendAndWait renders a completed SendAndWait call.
func FormatSendAndWait(res SendAndWaitResult, timeout time.Duration) string {
	switch {
	case !res.Waited:
		return FormatSentNoWait(res.MessageID)
	case res.Wait.Found:
		return FormatReplyReceived(res.Wait.Reply.Text)
	default:
		return FormatWaitTimeout(timeout)
	}
}

func FormatReply(id int64, r relay.InboundReply) string {
	return fmt.Sprintf("Reply for message %d:\n\n%s\n\nTimestamp: %s", id, r.Text, formatTimestamp(r.ReceivedAt))
}

func FormatNoReply(id int64) string {
	return fmt.Sprintf("No reply found for message ID %d", id)
}

func FormatPendingReplies(replies []relay.InboundReply) string {
	if len(replies) == 0 {
		return "No pending replies found"
	}
	entries := make([]string, 0, len(replies))
	for _, r := range replies {
		entries = append(entries, fmt.Sprintf("Message %d:\n%s\nTimestamp: %s\n", r.TargetMessageID, r.Text, formatTimestamp(r.ReceivedAt)))
	}
	return fmt.Sprintf("Found %d pending reply(ies):\n\n%s", len(replies), strings.Join(entries, "\n"))
}

func FormatStatus(rep StatusReport) string {
	var b strings.Builder
	b.WriteString("Telegram Config:\n")
	fmt.Fprintf(&b, "  BOT_TOKEN: %s\n", setOrMissing(rep.TokenSet))
	fmt.Fprintf(&b, "  CHAT_ID: %s", setOrMissing(rep.ChatIDSet))
	if rep.Backend != "" {
		fmt.Fprintf(&b, "\n  STORE: %s", rep.Backend)
	}
	switch {
	case rep.ProbeErr != nil:
		fmt.Fprintf(&b, "\n  API: ✗ %s", rep.ProbeErr.Error())
	case rep.Bot != nil:
		name := rep.Bot.Username
		if name != "" {
			name = "@" + name
		} else {
			name = telegram.DisplayName(rep.Bot)
		}
		fmt.Fprintf(&b, "\n  API: ✓ %s", name)
	}
	return b.String()
}

func setOrMissing(ok bool) string {
	if ok {
		return "✓ Set"
	}
	return "✗ Missing"
}

// formatTimestamp renders UTC with millisecond precision.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
