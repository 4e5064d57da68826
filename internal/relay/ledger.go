package relay

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/quailyquaily/tgrelay/internal/kv"
)

const (
	ledgerKey     = "ledger/messages"
	ledgerVersion = 1
)

type ledgerDoc struct {
	Version  int                        `json:"version"`
	Messages map[string]OutboundMessage `json:"messages"`
}

// Ledger records every message this process sent. The whole mapping is a
// single kv entry so each change is one locked read-modify-write.
type Ledger struct {
	store kv.Store
	now   func() time.Time
}

func NewLedger(store kv.Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

func (l *Ledger) Record(ctx context.Context, msg OutboundMessage) error {
	if msg.ID <= 0 {
		return ErrInvalidID
	}
	msg.Status = StatusSent
	if msg.SentAt.IsZero() {
		msg.SentAt = l.now()
	}
	msg.SentAt = msg.SentAt.UTC()
	return updateJSON(ctx, l.store, ledgerKey, func(doc *ledgerDoc, _ bool) (*ledgerDoc, error) {
		if doc.Messages == nil {
			doc.Messages = map[string]OutboundMessage{}
		}
		doc.Version = ledgerVersion
		doc.Messages[strconv.FormatInt(msg.ID, 10)] = msg
		return doc, nil
	})
}

// SetStatus moves a sent record to a terminal status. Unknown ids and
// records that are already terminal are left alone; the bool reports
// whether anything changed.
func (l *Ledger) SetStatus(ctx context.Context, id int64, status Status) (bool, error) {
	if !status.Terminal() {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	changed := false
	err := updateJSON(ctx, l.store, ledgerKey, func(doc *ledgerDoc, exists bool) (*ledgerDoc, error) {
		changed = false
		if !exists {
			return nil, errUnchanged
		}
		k := strconv.FormatInt(id, 10)
		rec, ok := doc.Messages[k]
		if !ok || rec.Status.Terminal() {
			return nil, errUnchanged
		}
		rec.Status = status
		doc.Messages[k] = rec
		changed = true
		return doc, nil
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

func (l *Ledger) Get(ctx context.Context, id int64) (OutboundMessage, bool, error) {
	doc, err := l.load(ctx)
	if err != nil {
		return OutboundMessage{}, false, err
	}
	rec, ok := doc.Messages[strconv.FormatInt(id, 10)]
	return rec, ok, nil
}

// List returns every record ordered by id.
func (l *Ledger) List(ctx context.Context) ([]OutboundMessage, error) {
	doc, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]OutboundMessage, 0, len(doc.Messages))
	for _, rec := range doc.Messages {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (l *Ledger) index(ctx context.Context) (map[int64]OutboundMessage, error) {
	doc, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]OutboundMessage, len(doc.Messages))
	for _, rec := range doc.Messages {
		out[rec.ID] = rec
	}
	return out, nil
}

func (l *Ledger) load(ctx context.Context) (ledgerDoc, error) {
	var doc ledgerDoc
	if _, err := getJSON(ctx, l.store, ledgerKey, &doc); err != nil {
		return ledgerDoc{}, err
	}
	return doc, nil
}
