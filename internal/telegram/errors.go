package telegram

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingMessageID  = errors.New("telegram: message sent but no message_id returned")
	ErrMalformedResponse = errors.New("telegram: malformed response")
)

type RequestError struct {
	StatusCode  int
	ErrorCode   int
	Description string
	Body        string
}

func (e *RequestError) Error() string {
	if e == nil {
		return "telegram request failed"
	}
	desc := strings.TrimSpace(e.Description)
	if desc != "" {
		if e.StatusCode > 0 {
			return fmt.Sprintf("HTTP %d: %s", e.StatusCode, desc)
		}
		return "telegram: " + desc
	}
	body := strings.TrimSpace(e.Body)
	if len(body) > maxErrorPreview {
		body = body[:maxErrorPreview]
	}
	if e.StatusCode > 0 {
		if body != "" {
			return fmt.Sprintf("HTTP %d: %s", e.StatusCode, body)
		}
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	if body != "" {
		return "telegram: " + body
	}
	return "telegram request failed"
}

const maxErrorPreview = 200
