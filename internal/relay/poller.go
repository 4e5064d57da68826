package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/quailyquaily/tgrelay/internal/logutil"
)

// ProgressFunc receives a human readable status plus elapsed and total
// seconds. Errors are logged and otherwise ignored.
type ProgressFunc func(ctx context.Context, message string, progress, total float64) error

type WaitOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	OnProgress   ProgressFunc
}

type WaitResult struct {
	WaitID    string
	MessageID int64
	Found     bool
	Reply     InboundReply
	Elapsed   time.Duration
	Ticks     int
}

// Poller drives a Correlator until a reply for one message shows up or the
// wait runs out.
type Poller struct {
	correlator *Correlator
	logger     *slog.Logger
	now        func() time.Time
}

func NewPoller(c *Correlator, logger *slog.Logger) *Poller {
	return &Poller{
		correlator: c,
		logger:     logutil.OrDiscard(logger),
		now:        time.Now,
	}
}

// WaitForReply blocks until a reply to id is stored (Found) or Timeout has
// elapsed (Expired). The ledger entry is moved to replied or timeout
// accordingly. Ticks never overlap.
func (p *Poller) WaitForReply(ctx context.Context, id int64, opts WaitOptions) (WaitResult, error) {
	if opts.Timeout <= 0 || opts.PollInterval <= 0 {
		return WaitResult{}, ErrInvalidWait
	}
	res := WaitResult{WaitID: uuid.NewString(), MessageID: id}
	logger := p.logger.With("wait_id", res.WaitID, "message_id", id)
	logger.Debug("reply_wait_start", "timeout", opts.Timeout.String(), "poll_interval", opts.PollInterval.String())

	start := p.now()
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		res.Ticks++
		tickStart := p.now()
		elapsed := tickStart.Sub(start)
		p.progress(ctx, logger, opts, elapsed)

		reply, ok, err := p.correlator.FindReply(ctx, id, min(opts.PollInterval, opts.Timeout-elapsed))
		if err != nil {
			res.Elapsed = p.now().Sub(start)
			return res, p.fail(ctx, logger, err)
		}
		if ok {
			if _, err := p.correlator.ledger.SetStatus(ctx, id, StatusReplied); err != nil {
				return res, p.fail(ctx, logger, err)
			}
			if consumed, found, err := p.correlator.replies.MarkConsumed(ctx, id); err != nil {
				return res, p.fail(ctx, logger, err)
			} else if found {
				reply = consumed
			}
			res.Found = true
			res.Reply = reply
			res.Elapsed = p.now().Sub(start)
			replyWaits.WithLabelValues(outcomeFound).Inc()
			logger.Info("reply_wait_found", "elapsed", res.Elapsed.String(), "ticks", res.Ticks)
			return res, nil
		}

		now := p.now()
		elapsed = now.Sub(start)
		if elapsed >= opts.Timeout {
			if _, err := p.correlator.ledger.SetStatus(ctx, id, StatusTimeout); err != nil {
				return res, p.fail(ctx, logger, err)
			}
			res.Elapsed = elapsed
			replyWaits.WithLabelValues(outcomeExpired).Inc()
			logger.Info("reply_wait_expired", "elapsed", elapsed.String(), "ticks", res.Ticks)
			return res, nil
		}

		sleep := min(opts.PollInterval-now.Sub(tickStart), opts.Timeout-elapsed)
		if sleep <= 0 {
			continue
		}
		timer.Reset(sleep)
		select {
		case <-ctx.Done():
			res.Elapsed = p.now().Sub(start)
			return res, p.fail(ctx, logger, ctx.Err())
		case <-timer.C:
		}
	}
}

func (p *Poller) fail(ctx context.Context, logger *slog.Logger, err error) error {
	outcome := outcomeFailed
	if ctx.Err() != nil {
		outcome = outcomeCancelled
	}
	replyWaits.WithLabelValues(outcome).Inc()
	logger.Warn("reply_wait_aborted", "outcome", outcome, "error", err.Error())
	return err
}

func (p *Poller) progress(ctx context.Context, logger *slog.Logger, opts WaitOptions, elapsed time.Duration) {
	if opts.OnProgress == nil {
		return
	}
	secs := int64(elapsed / time.Second)
	total := int64(opts.Timeout / time.Second)
	msg := fmt.Sprintf("Waiting for reply... (%ds / %ds)", secs, total)
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("reply_wait_progress_panic", "panic", fmt.Sprint(r))
		}
	}()
	if err := opts.OnProgress(ctx, msg, float64(secs), float64(total)); err != nil {
		logger.Warn("reply_wait_progress_failed", "error", err.Error())
	}
}
