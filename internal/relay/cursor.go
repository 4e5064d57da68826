package relay

import (
	"context"
	"time"

	"github.com/quailyquaily/tgrelay/internal/kv"
)

const cursorKey = "state/offset"

type cursorRecord struct {
	Offset    int64     `json:"offset"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CursorStore persists the next update id to request from Telegram.
type CursorStore struct {
	store kv.Store
	now   func() time.Time
}

func NewCursorStore(store kv.Store) *CursorStore {
	return &CursorStore{store: store, now: time.Now}
}

// Read returns the stored offset, or 0 when none has been written.
func (c *CursorStore) Read(ctx context.Context) (int64, error) {
	var rec cursorRecord
	if _, err := getJSON(ctx, c.store, cursorKey, &rec); err != nil {
		return 0, err
	}
	return rec.Offset, nil
}

// Advance moves the offset forward to v. Values at or below the stored
// offset are ignored.
func (c *CursorStore) Advance(ctx context.Context, v int64) error {
	return updateJSON(ctx, c.store, cursorKey, func(cur *cursorRecord, exists bool) (*cursorRecord, error) {
		if exists && v <= cur.Offset {
			return nil, errUnchanged
		}
		if v <= 0 {
			return nil, errUnchanged
		}
		cursorOffset.Set(float64(v))
		return &cursorRecord{Offset: v, UpdatedAt: c.now().UTC()}, nil
	})
}
