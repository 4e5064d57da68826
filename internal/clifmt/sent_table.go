package clifmt

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/term"
)

const (
	sentTableWidth   = 100
	minBodyWidth     = 24
	sentTimeLayout   = "2006-01-02 15:04:05Z07:00"
	sentColumnGutter = "  "
)

// SentRow is one ledger entry as listed by `replies --sent`.
type SentRow struct {
	ID     int64
	Status string
	SentAt time.Time
	Body   string
}

// PrintSentTable writes rows as ID / STATUS / SENT / BODY columns. Bodies
// wrap to the terminal width when out is a terminal.
func PrintSentTable(out io.Writer, rows []SentRow) {
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintln(out, Headerf("Sent messages (%d)", len(rows)))
	if len(rows) == 0 {
		fmt.Fprintln(out, Warn("No sent messages."))
		return
	}

	ids := make([]string, len(rows))
	sent := make([]string, len(rows))
	idWidth, statusWidth, sentWidth := len("ID"), len("STATUS"), len("SENT")
	for i, row := range rows {
		ids[i] = strconv.FormatInt(row.ID, 10)
		sent[i] = "-"
		if !row.SentAt.IsZero() {
			sent[i] = row.SentAt.Format(sentTimeLayout)
		}
		idWidth = max(idWidth, len(ids[i]))
		statusWidth = max(statusWidth, utf8.RuneCountInString(row.Status))
		sentWidth = max(sentWidth, len(sent[i]))
	}
	lead := idWidth + statusWidth + sentWidth + 3*len(sentColumnGutter)
	bodyWidth := max(outputWidth(out)-lead, minBodyWidth)

	fmt.Fprintln(out, strings.Join([]string{
		Key(padRightRunes("ID", idWidth)),
		Key(padRightRunes("STATUS", statusWidth)),
		Key(padRightRunes("SENT", sentWidth)),
		Key("BODY"),
	}, sentColumnGutter))
	fmt.Fprintln(out, Dim(strings.Repeat("-", lead+bodyWidth)))

	indent := strings.Repeat(" ", lead)
	for i, row := range rows {
		lines := wrapTextRunes(row.Body, bodyWidth)
		fmt.Fprintln(out, strings.Join([]string{
			padRightRunes(ids[i], idWidth),
			statusColor(row.Status)(padRightRunes(row.Status, statusWidth)),
			Dim(padRightRunes(sent[i], sentWidth)),
			lines[0],
		}, sentColumnGutter))
		for _, line := range lines[1:] {
			fmt.Fprintln(out, indent+line)
		}
	}
}

func statusColor(status string) func(string) string {
	switch status {
	case "replied":
		return Success
	case "timeout":
		return Warn
	default:
		return func(s string) string { return s }
	}
}

func outputWidth(out io.Writer) int {
	if file, ok := out.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		if w, _, err := term.GetSize(int(file.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return sentTableWidth
}

func padRightRunes(s string, width int) string {
	missing := width - utf8.RuneCountInString(s)
	if missing <= 0 {
		return s
	}
	return s + strings.Repeat(" ", missing)
}

// wrapTextRunes greedily wraps on whitespace. Words longer than width are
// split.
func wrapTextRunes(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	current := ""
	for _, word := range words {
		for utf8.RuneCountInString(word) > width {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			runes := []rune(word)
			lines = append(lines, string(runes[:width]))
			word = string(runes[width:])
		}
		switch {
		case word == "":
		case current == "":
			current = word
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
