package relay

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/quailyquaily/tgrelay/internal/logutil"
	"github.com/quailyquaily/tgrelay/internal/telegram"
)

// MaxPollWindow caps how long a single getUpdates call may be held open.
const MaxPollWindow = 10 * time.Second

// UpdateSource is the upstream update feed. *telegram.Client satisfies it.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
}

type CorrelatorOptions struct {
	// PollWindow caps the long-poll window of a waiting tick. Zero means
	// MaxPollWindow.
	PollWindow time.Duration
	Logger     *slog.Logger
}

// Correlator pulls updates after the stored cursor and files every reply
// that answers a ledger entry, whoever asked for it.
type Correlator struct {
	source     UpdateSource
	cursor     *CursorStore
	ledger     *Ledger
	replies    *ReplyStore
	pollWindow time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func NewCorrelator(source UpdateSource, cursor *CursorStore, ledger *Ledger, replies *ReplyStore, opts CorrelatorOptions) *Correlator {
	if opts.PollWindow <= 0 {
		opts.PollWindow = MaxPollWindow
	}
	return &Correlator{
		source:     source,
		cursor:     cursor,
		ledger:     ledger,
		replies:    replies,
		pollWindow: clampWindow(opts.PollWindow),
		logger:     logutil.OrDiscard(opts.Logger),
		now:        time.Now,
	}
}

// Sync performs one getUpdates call strictly after the cursor, stores any
// matched replies and then advances the cursor past everything fetched.
// A failed fetch is logged and reported as no updates. It returns the
// number of replies stored.
func (c *Correlator) Sync(ctx context.Context, wait time.Duration) (int, error) {
	offset, err := c.cursor.Read(ctx)
	if err != nil {
		return 0, err
	}
	updates, err := c.source.GetUpdates(ctx, offset, clampWindow(wait))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		updateFetchErrors.Inc()
		c.logger.Warn("telegram_get_updates_failed",
			"offset", offset,
			"timeout", telegram.IsTimeout(err),
			"error", err.Error(),
		)
		return 0, nil
	}
	if len(updates) == 0 {
		return 0, nil
	}
	updatesFetched.Add(float64(len(updates)))

	sent, err := c.ledger.index(ctx)
	if err != nil {
		return 0, err
	}

	matched := 0
	next := offset
	for _, u := range updates {
		if u.UpdateID+1 > next {
			next = u.UpdateID + 1
		}
		reply, ok := c.match(u, sent)
		if !ok {
			continue
		}
		stored, err := c.replies.Save(ctx, reply)
		if err != nil {
			return matched, err
		}
		if stored {
			matched++
			repliesMatched.Inc()
			c.logger.Debug("reply_matched",
				"message_id", reply.TargetMessageID,
				"update_id", reply.UpdateID,
			)
		}
	}
	if err := c.cursor.Advance(ctx, next); err != nil {
		return matched, err
	}
	return matched, nil
}

// FindReply syncs, holding the long poll for at most maxWait and never
// longer than the configured window, then returns the stored reply for id,
// whichever call happened to fetch it.
func (c *Correlator) FindReply(ctx context.Context, id int64, maxWait time.Duration) (InboundReply, bool, error) {
	if _, err := c.Sync(ctx, min(maxWait, c.pollWindow)); err != nil {
		return InboundReply{}, false, err
	}
	return c.replies.Get(ctx, id)
}

// FindAllPendingReplies short-polls and lists pending replies without
// consuming them.
func (c *Correlator) FindAllPendingReplies(ctx context.Context) ([]InboundReply, error) {
	if _, err := c.Sync(ctx, 0); err != nil {
		return nil, err
	}
	return c.replies.Pending(ctx)
}

// TakeAllPendingReplies short-polls, then removes and returns every pending
// reply.
func (c *Correlator) TakeAllPendingReplies(ctx context.Context) ([]InboundReply, error) {
	if _, err := c.Sync(ctx, 0); err != nil {
		return nil, err
	}
	return c.replies.TakePending(ctx)
}

// Lookup short-polls and returns the reply for id, marking it consumed.
func (c *Correlator) Lookup(ctx context.Context, id int64) (InboundReply, bool, error) {
	if _, err := c.Sync(ctx, 0); err != nil {
		return InboundReply{}, false, err
	}
	return c.replies.MarkConsumed(ctx, id)
}

func (c *Correlator) match(u telegram.Update, sent map[int64]OutboundMessage) (InboundReply, bool) {
	msg := u.InboundMessage()
	target := msg.ReplyTargetID()
	if target == 0 {
		return InboundReply{}, false
	}
	rec, ok := sent[target]
	if !ok {
		return InboundReply{}, false
	}
	chatID := ""
	if msg.Chat != nil {
		chatID = strconv.FormatInt(msg.Chat.ID, 10)
		// @channel destinations cannot be compared to a numeric chat id.
		if want, err := strconv.ParseInt(strings.TrimSpace(rec.ChatID), 10, 64); err == nil && want != msg.Chat.ID {
			return InboundReply{}, false
		}
	}
	received := c.now().UTC()
	if msg.Date > 0 {
		received = time.Unix(msg.Date, 0).UTC()
	}
	return InboundReply{
		TargetMessageID: target,
		ChatID:          chatID,
		Text:            msg.Content(),
		ReceivedAt:      received,
		State:           ReplyPending,
		UpdateID:        u.UpdateID,
		From:            telegram.DisplayName(msg.From),
	}, true
}

func clampWindow(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > MaxPollWindow {
		return MaxPollWindow
	}
	return d
}
