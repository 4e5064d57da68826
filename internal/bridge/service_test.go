package bridge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/quailyquaily/tgrelay/internal/kv"
	"github.com/quailyquaily/tgrelay/internal/relay"
	"github.com/quailyquaily/tgrelay/internal/telegram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu      sync.Mutex
	nextID  int64
	sent    []telegram.SendMessageRequest
	sendErr error
	updates []telegram.Update
	me      *telegram.User
}

func (f *fakeTransport) SendMessage(_ context.Context, req telegram.SendMessageRequest) (*telegram.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.nextID++
	f.sent = append(f.sent, req)
	return &telegram.Message{MessageID: f.nextID}, nil
}

func (f *fakeTransport) GetUpdates(_ context.Context, offset int64, _ time.Duration) ([]telegram.Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []telegram.Update
	for _, u := range f.updates {
		if u.UpdateID >= offset {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeTransport) GetMe(context.Context) (*telegram.User, error) {
	return f.me, nil
}

func (f *fakeTransport) reply(updateID, target int64, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, telegram.Update{
		UpdateID: updateID,
		Message: &telegram.Message{
			MessageID: updateID + 500,
			Date:      1700000000,
			Chat:      &telegram.Chat{ID: 42},
			ReplyTo:   &telegram.Message{MessageID: target},
			Text:      text,
		},
	})
}

func newTestService(t *testing.T, cfg Config) (*Service, *fakeTransport) {
	t.Helper()
	store := kv.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	tr := &fakeTransport{nextID: 122}
	return New(cfg, store, tr, nil), tr
}

var configured = Config{BotToken: "TOKEN", ChatID: "42"}

func TestNotifyComposesAndRecords(t *testing.T) {
	ctx := context.Background()
	svc, tr := newTestService(t, configured)

	id, err := svc.Notify(ctx, "✅ DONE <build>", "a & b")
	require.NoError(t, err)
	assert.EqualValues(t, 123, id)
	require.Len(t, tr.sent, 1)
	assert.Equal(t, "<b>✅ DONE &lt;build&gt;</b>\n\na &amp; b", tr.sent[0].Text)
	assert.Equal(t, "42", tr.sent[0].ChatID)
	assert.Equal(t, telegram.ParseModeHTML, tr.sent[0].ParseMode)
	assert.True(t, tr.sent[0].DisableWebPagePreview)

	rec, ok, err := svc.Ledger().Get(ctx, 123)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, relay.StatusSent, rec.Status)
}

func TestSendAndWaitMissingConfig(t *testing.T) {
	ctx := context.Background()
	svc, tr := newTestService(t, Config{ChatID: "42"})

	_, err := svc.SendAndWait(ctx, SendAndWaitRequest{Message: "hi"})
	require.ErrorIs(t, err, relay.ErrMissingConfig)
	assert.Contains(t, FormatSendFailed(err), "Missing")
	assert.Empty(t, tr.sent)

	list, err := svc.Ledger().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSendAndWaitWithoutWait(t *testing.T) {
	svc, _ := newTestService(t, configured)
	res, err := svc.SendAndWait(context.Background(), SendAndWaitRequest{Message: "hi"})
	require.NoError(t, err)
	assert.False(t, res.Waited)
	assert.Equal(t, "✓ Message sent (ID: 123). Use check_replies tool to poll for responses.", FormatSendAndWait(res, time.Second))
}

func TestSendAndWaitReceivesReply(t *testing.T) {
	ctx := context.Background()
	svc, tr := newTestService(t, configured)
	tr.reply(1, 123, "User reply")

	res, err := svc.SendAndWait(ctx, SendAndWaitRequest{
		Message:      "deploy?",
		WaitForReply: true,
		Timeout:      time.Second,
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, "✓ Reply received:\n\nUser reply", FormatSendAndWait(res, time.Second))

	rec, _, err := svc.Ledger().Get(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, relay.StatusReplied, rec.Status)
}

func TestSendAndWaitTimesOut(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, configured)

	res, err := svc.SendAndWait(ctx, SendAndWaitRequest{
		Message:      "anyone?",
		WaitForReply: true,
		Timeout:      30 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.False(t, res.Wait.Found)
	assert.Equal(t, "⏱ Timeout: No reply received within 1s. Use check_replies tool to check later.", FormatSendAndWait(res, time.Second))

	rec, _, err := svc.Ledger().Get(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, relay.StatusTimeout, rec.Status)
}

func TestSendAndWaitSurvivesCallerCancel(t *testing.T) {
	svc, _ := newTestService(t, configured)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := svc.SendAndWait(ctx, SendAndWaitRequest{
			Message:      "hi",
			WaitForReply: true,
			Timeout:      50 * time.Millisecond,
			PollInterval: 10 * time.Millisecond,
		})
		done <- err
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	rec, _, err := svc.Ledger().Get(context.Background(), 123)
	require.NoError(t, err)
	assert.Equal(t, relay.StatusTimeout, rec.Status)
}

func TestSendAndWaitRejectsInvalidWaitBeforeSending(t *testing.T) {
	svc, tr := newTestService(t, configured)
	_, err := svc.SendAndWait(context.Background(), SendAndWaitRequest{Message: "hi", WaitForReply: true})
	assert.ErrorIs(t, err, relay.ErrInvalidWait)
	assert.Empty(t, tr.sent)
}

func TestSendFailureIsNotRecorded(t *testing.T) {
	ctx := context.Background()
	svc, tr := newTestService(t, configured)
	tr.sendErr = &telegram.RequestError{StatusCode: 400, Description: "Bad Request: chat not found"}

	_, err := svc.Notify(ctx, "x", "")
	require.Error(t, err)
	assert.Equal(t, "✗ Failed: HTTP 400: Bad Request: chat not found", FormatNotifyFailed(err))

	list, err := svc.Ledger().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSendTimeoutMessage(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()
	// Runs before srv.Close so the blocked handler can return.
	defer close(release)

	store := kv.NewMemoryStore()
	cfg := configured
	cfg.BaseURL = srv.URL
	cfg.RequestTimeout = 20 * time.Millisecond
	svc := New(cfg, store, telegram.NewClient(srv.Client(), srv.URL, cfg.BotToken), nil)

	_, err := svc.Notify(context.Background(), "x", "")
	var te *TimeoutError
	require.True(t, errors.As(err, &te), "error = %v", err)
	assert.Equal(t, "✗ Failed: Request timeout (0s)", FormatNotifyFailed(err))
}

func TestCheckReplyTargetedAndBulk(t *testing.T) {
	ctx := context.Background()
	svc, tr := newTestService(t, configured)
	_, err := svc.Notify(ctx, "one", "")
	require.NoError(t, err)
	_, err = svc.Notify(ctx, "two", "")
	require.NoError(t, err)

	_, ok, err := svc.CheckReply(ctx, 123)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "No reply found for message ID 123", FormatNoReply(123))

	tr.reply(1, 123, "first")
	tr.reply(2, 124, "second")

	r, ok, err := svc.CheckReply(ctx, 123)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Reply for message 123:\n\nfirst\n\nTimestamp: 2023-11-14T22:13:20.000Z", FormatReply(123, r))

	all, err := svc.CheckAllReplies(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Found 1 pending reply(ies):\n\nMessage 124:\nsecond\nTimestamp: 2023-11-14T22:13:20.000Z\n", FormatPendingReplies(all))

	all, err = svc.CheckAllReplies(ctx)
	require.NoError(t, err)
	assert.Equal(t, "No pending replies found", FormatPendingReplies(all))
}

func TestStatus(t *testing.T) {
	svc, tr := newTestService(t, Config{BotToken: "TOKEN", StoreBackend: "memory"})
	tr.me = &telegram.User{Username: "relay_bot"}

	rep := svc.Status(context.Background(), true)
	assert.Equal(t, "Telegram Config:\n  BOT_TOKEN: ✓ Set\n  CHAT_ID: ✗ Missing\n  STORE: memory\n  API: ✓ @relay_bot", FormatStatus(rep))

	rep = svc.Status(context.Background(), false)
	assert.Nil(t, rep.Bot)
}

func TestComposeNotificationHeaderOnly(t *testing.T) {
	assert.Equal(t, "a &lt; b", ComposeNotification("a < b", ""))
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{PollTimeout: time.Minute}.withDefaults()
	assert.Equal(t, relay.MaxPollWindow, cfg.PollTimeout)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, DefaultReplyTimeout, cfg.ReplyTimeout)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, telegram.DefaultBaseURL, cfg.BaseURL)
}
