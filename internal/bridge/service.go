// Package bridge is the dispatch facade over the Telegram client and the
// relay core. Each operation maps to one MCP tool or CLI command.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/quailyquaily/tgrelay/internal/kv"
	"github.com/quailyquaily/tgrelay/internal/logutil"
	"github.com/quailyquaily/tgrelay/internal/relay"
	"github.com/quailyquaily/tgrelay/internal/telegram"
)

// Transport is the subset of the Bot API the bridge needs.
type Transport interface {
	relay.UpdateSource
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) (*telegram.Message, error)
	GetMe(ctx context.Context) (*telegram.User, error)
}

type Service struct {
	cfg        Config
	transport  Transport
	ledger     *relay.Ledger
	correlator *relay.Correlator
	poller     *relay.Poller
	logger     *slog.Logger
	now        func() time.Time
}

// New wires the relay core over store. A nil transport gets a Bot API client
// built from cfg.
func New(cfg Config, store kv.Store, transport Transport, logger *slog.Logger) *Service {
	cfg = cfg.withDefaults()
	logger = logutil.OrDiscard(logger)
	if transport == nil {
		transport = telegram.NewClient(&http.Client{Timeout: relay.MaxPollWindow + time.Minute}, cfg.BaseURL, cfg.BotToken)
	}
	ledger := relay.NewLedger(store)
	correlator := relay.NewCorrelator(
		transport,
		relay.NewCursorStore(store),
		ledger,
		relay.NewReplyStore(store),
		relay.CorrelatorOptions{PollWindow: cfg.PollTimeout, Logger: logger},
	)
	return &Service{
		cfg:        cfg,
		transport:  transport,
		ledger:     ledger,
		correlator: correlator,
		poller:     relay.NewPoller(correlator, logger),
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Service) Config() Config { return s.cfg }

func (s *Service) Ledger() *relay.Ledger { return s.ledger }

// Notify sends a notification with a bold header and an optional body.
func (s *Service) Notify(ctx context.Context, header, body string) (int64, error) {
	return s.send(ctx, ComposeNotification(header, body))
}

type SendAndWaitRequest struct {
	Message      string
	WaitForReply bool
	Timeout      time.Duration
	PollInterval time.Duration
	OnProgress   relay.ProgressFunc
}

type SendAndWaitResult struct {
	MessageID int64
	Waited    bool
	Wait      relay.WaitResult
}

// SendAndWait sends Message and, if asked, blocks until a reply arrives or
// Timeout passes. The wait ignores cancellation of ctx so the ledger entry
// always reaches a terminal status.
func (s *Service) SendAndWait(ctx context.Context, req SendAndWaitRequest) (SendAndWaitResult, error) {
	if req.WaitForReply && (req.Timeout <= 0 || req.PollInterval <= 0) {
		return SendAndWaitResult{}, relay.ErrInvalidWait
	}
	id, err := s.send(ctx, req.Message)
	if err != nil {
		return SendAndWaitResult{MessageID: id}, err
	}
	out := SendAndWaitResult{MessageID: id}
	if !req.WaitForReply {
		return out, nil
	}
	out.Waited = true
	out.Wait, err = s.poller.WaitForReply(context.WithoutCancel(ctx), id, relay.WaitOptions{
		Timeout:      req.Timeout,
		PollInterval: req.PollInterval,
		OnProgress:   req.OnProgress,
	})
	return out, err
}

// CheckReply is the non-blocking targeted lookup. A found reply is marked
// consumed.
func (s *Service) CheckReply(ctx context.Context, id int64) (relay.InboundReply, bool, error) {
	if !s.cfg.Configured() {
		return relay.InboundReply{}, false, relay.ErrMissingConfig
	}
	return s.correlator.Lookup(ctx, id)
}

// CheckAllReplies returns and clears every pending reply.
func (s *Service) CheckAllReplies(ctx context.Context) ([]relay.InboundReply, error) {
	if !s.cfg.Configured() {
		return nil, relay.ErrMissingConfig
	}
	return s.correlator.TakeAllPendingReplies(ctx)
}

// PeekReplies lists pending replies without consuming them.
func (s *Service) PeekReplies(ctx context.Context) ([]relay.InboundReply, error) {
	if !s.cfg.Configured() {
		return nil, relay.ErrMissingConfig
	}
	return s.correlator.FindAllPendingReplies(ctx)
}

type StatusReport struct {
	TokenSet  bool
	ChatIDSet bool
	Backend   string
	// Bot and ProbeErr are only filled when a probe was requested.
	Bot      *telegram.User
	ProbeErr error
}

// Status reports which credentials are present. With probe it also calls
// getMe to check the token against the API.
func (s *Service) Status(ctx context.Context, probe bool) StatusReport {
	rep := StatusReport{
		TokenSet:  s.cfg.BotToken != "",
		ChatIDSet: s.cfg.ChatID != "",
		Backend:   s.cfg.StoreBackend,
	}
	if !probe || !rep.TokenSet {
		return rep
	}
	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	rep.Bot, rep.ProbeErr = s.transport.GetMe(reqCtx)
	return rep
}

func (s *Service) send(ctx context.Context, text string) (int64, error) {
	if !s.cfg.Configured() {
		relay.MessagesSent.WithLabelValues("unconfigured").Inc()
		return 0, relay.ErrMissingConfig
	}
	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	msg, err := s.transport.SendMessage(reqCtx, telegram.SendMessageRequest{
		ChatID:                s.cfg.ChatID,
		Text:                  text,
		ParseMode:             telegram.ParseModeHTML,
		DisableWebPagePreview: true,
	})
	if err != nil {
		relay.MessagesSent.WithLabelValues("error").Inc()
		if telegram.IsTimeout(err) && ctx.Err() == nil {
			err = &TimeoutError{After: s.cfg.RequestTimeout, Err: err}
		}
		s.logger.Warn("telegram_send_failed", "error", err.Error())
		return 0, err
	}
	relay.MessagesSent.WithLabelValues("ok").Inc()

	// The message is out; record it even if the caller has gone away.
	if err := s.ledger.Record(context.WithoutCancel(ctx), relay.OutboundMessage{
		ID:     msg.MessageID,
		ChatID: s.cfg.ChatID,
		Body:   text,
		SentAt: s.now(),
	}); err != nil {
		return msg.MessageID, fmt.Errorf("record sent message %d: %w", msg.MessageID, err)
	}
	s.logger.Info("telegram_message_sent", "message_id", msg.MessageID)
	return msg.MessageID, nil
}

// TimeoutError is a sendMessage call abandoned at the request deadline.
type TimeoutError struct {
	After time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Request timeout (%ds)", int64(e.After/time.Second))
}

func (e *TimeoutError) Unwrap() error { return e.Err }
