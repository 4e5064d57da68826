package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.telegram.org"

	ParseModeHTML = "HTML"

	// Slack added on top of the long-poll window before the HTTP request is
	// abandoned client side.
	pollRequestSlack = 5 * time.Second
)

type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

func NewClient(httpClient *http.Client, baseURL, token string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   strings.TrimSpace(token),
	}
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var out getMeResponse
	if err := c.do(ctx, http.MethodGet, c.methodURL("getMe"), nil, &out.envelope, &out); err != nil {
		return nil, err
	}
	return &out.Result, nil
}

// GetUpdates fetches updates with update_id >= offset. A zero timeout is a
// short poll; otherwise Telegram holds the request open for up to timeout.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	secs := int64(timeout / time.Second)
	if secs < 0 {
		secs = 0
	}
	q := url.Values{}
	q.Set("timeout", strconv.FormatInt(secs, 10))
	if offset > 0 {
		q.Set("offset", strconv.FormatInt(offset, 10))
	}

	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(secs)*time.Second+pollRequestSlack)
	defer cancel()

	var out getUpdatesResponse
	if err := c.do(reqCtx, http.MethodGet, c.methodURL("getUpdates")+"?"+q.Encode(), nil, &out.envelope, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*Message, error) {
	if strings.TrimSpace(req.ChatID) == "" {
		return nil, fmt.Errorf("missing chat_id")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var out sendMessageResponse
	if err := c.do(ctx, http.MethodPost, c.methodURL("sendMessage"), body, &out.envelope, &out); err != nil {
		return nil, err
	}
	if out.Result == nil || out.Result.MessageID == 0 {
		return nil, ErrMissingMessageID
	}
	return out.Result, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, env *envelope, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return c.redact(err)
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	decodeErr := json.Unmarshal(raw, out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.OK {
		return &RequestError{
			StatusCode:  resp.StatusCode,
			ErrorCode:   env.ErrorCode,
			Description: env.Description,
			Body:        strings.TrimSpace(string(raw)),
		}
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, decodeErr)
	}
	return nil
}

// redact strips the bot token from transport errors, which embed the URL.
func (c *Client) redact(err error) error {
	if err == nil || c.token == "" {
		return err
	}
	msg := err.Error()
	if !strings.Contains(msg, c.token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(msg, c.token, "<redacted>"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

// IsTimeout reports whether err came from a client-side deadline rather
// than an upstream rejection.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "client.timeout exceeded")
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML escapes the three characters Telegram's HTML parse mode treats
// as markup.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}
