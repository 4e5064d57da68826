package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSendMessage_ReturnsAssignedMessageID(t *testing.T) {
	var got SendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/botTOKEN/sendMessage" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":123,"date":1700000000,"chat":{"id":42,"type":"private"}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "TOKEN")
	msg, err := c.SendMessage(context.Background(), SendMessageRequest{
		ChatID:                "42",
		Text:                  "<b>hi</b>",
		ParseMode:             ParseModeHTML,
		DisableWebPagePreview: true,
	})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if msg.MessageID != 123 {
		t.Fatalf("message_id = %d, want 123", msg.MessageID)
	}
	if got.ChatID != "42" || got.ParseMode != "HTML" || !got.DisableWebPagePreview {
		t.Fatalf("unexpected request body: %+v", got)
	}
}

func TestSendMessage_SurfacesDescriptionOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "TOKEN")
	_, err := c.SendMessage(context.Background(), SendMessageRequest{ChatID: "42", Text: "x"})
	if err == nil {
		t.Fatalf("expected error")
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error type = %T, want *RequestError", err)
	}
	if reqErr.ErrorCode != 400 {
		t.Fatalf("error_code = %d, want 400", reqErr.ErrorCode)
	}
	if err.Error() != "HTTP 400: Bad Request: chat not found" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestSendMessage_MissingMessageID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "TOKEN")
	_, err := c.SendMessage(context.Background(), SendMessageRequest{ChatID: "42", Text: "x"})
	if !errors.Is(err, ErrMissingMessageID) {
		t.Fatalf("error = %v, want ErrMissingMessageID", err)
	}
}

func TestGetUpdates_SendsOffsetAndTimeout(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/getUpdates" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"ok":true,"result":[
			{"update_id":7,"message":{"message_id":9,"date":1700000000,"chat":{"id":42},"text":"User reply","reply_to_message":{"message_id":123}}},
			{"update_id":8,"message":{"message_id":10,"chat":{"id":42},"text":"no reply"}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "TOKEN")
	updates, err := c.GetUpdates(context.Background(), 5, 3*time.Second)
	if err != nil {
		t.Fatalf("GetUpdates() error = %v", err)
	}
	if gotQuery != "offset=5&timeout=3" {
		t.Fatalf("query = %q", gotQuery)
	}
	if len(updates) != 2 {
		t.Fatalf("len(updates) = %d, want 2", len(updates))
	}
	if got := updates[0].InboundMessage().ReplyTargetID(); got != 123 {
		t.Fatalf("reply target = %d, want 123", got)
	}
	if got := updates[1].InboundMessage().ReplyTargetID(); got != 0 {
		t.Fatalf("reply target = %d, want 0", got)
	}
}

func TestGetUpdates_ShortPollOmitsOffsetWhenZero(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "TOKEN")
	if _, err := c.GetUpdates(context.Background(), 0, 0); err != nil {
		t.Fatalf("GetUpdates() error = %v", err)
	}
	if gotQuery != "timeout=0" {
		t.Fatalf("query = %q, want timeout=0", gotQuery)
	}
}

func TestGetUpdates_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "TOKEN")
	_, err := c.GetUpdates(context.Background(), 0, 0)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "gateway") {
		t.Fatalf("error = %q, want body preview", err.Error())
	}
}

func TestEscapeHTML(t *testing.T) {
	got := EscapeHTML(`a < b && c > "d"`)
	want := `a &lt; b &amp;&amp; c &gt; "d"`
	if got != want {
		t.Fatalf("EscapeHTML() = %q, want %q", got, want)
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		user *User
		want string
	}{
		{nil, ""},
		{&User{FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{&User{Username: "ada"}, "@ada"},
	}
	for _, tc := range cases {
		if got := DisplayName(tc.user); got != tc.want {
			t.Fatalf("DisplayName(%+v) = %q, want %q", tc.user, got, tc.want)
		}
	}
}
