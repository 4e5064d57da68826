package relay

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/quailyquaily/tgrelay/internal/kv"
)

const replyKeyPrefix = "replies/"

func replyKey(id int64) string {
	return replyKeyPrefix + strconv.FormatInt(id, 10)
}

// ReplyStore holds at most one reply per outbound message id.
type ReplyStore struct {
	store kv.Store
}

func NewReplyStore(store kv.Store) *ReplyStore {
	return &ReplyStore{store: store}
}

// Save stores r as pending unless the stored reply came from the same or a
// later update. It reports whether r was written.
func (s *ReplyStore) Save(ctx context.Context, r InboundReply) (bool, error) {
	if r.TargetMessageID <= 0 {
		return false, ErrInvalidID
	}
	saved := false
	err := updateJSON(ctx, s.store, replyKey(r.TargetMessageID), func(cur *InboundReply, exists bool) (*InboundReply, error) {
		saved = false
		if exists && cur.UpdateID >= r.UpdateID {
			return nil, errUnchanged
		}
		next := r
		next.State = ReplyPending
		saved = true
		return &next, nil
	})
	if err != nil {
		return false, err
	}
	return saved, nil
}

func (s *ReplyStore) Get(ctx context.Context, id int64) (InboundReply, bool, error) {
	var r InboundReply
	ok, err := getJSON(ctx, s.store, replyKey(id), &r)
	if err != nil || !ok {
		return InboundReply{}, false, err
	}
	return r, true, nil
}

// MarkConsumed flags the reply for id as read and returns it.
func (s *ReplyStore) MarkConsumed(ctx context.Context, id int64) (InboundReply, bool, error) {
	var (
		out   InboundReply
		found bool
	)
	err := updateJSON(ctx, s.store, replyKey(id), func(cur *InboundReply, exists bool) (*InboundReply, error) {
		found = false
		if !exists {
			return nil, errUnchanged
		}
		found = true
		out = *cur
		if cur.State == ReplyConsumed {
			return nil, errUnchanged
		}
		out.State = ReplyConsumed
		return &out, nil
	})
	if err != nil {
		return InboundReply{}, false, err
	}
	return out, found, nil
}

// Pending lists pending replies ordered by target id.
func (s *ReplyStore) Pending(ctx context.Context) ([]InboundReply, error) {
	keys, err := s.store.Keys(ctx, replyKeyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]InboundReply, 0, len(keys))
	for _, key := range keys {
		id, ok := parseReplyKey(key)
		if !ok {
			continue
		}
		r, found, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if found && r.State == ReplyPending {
			out = append(out, r)
		}
	}
	sortReplies(out)
	return out, nil
}

// TakePending removes and returns every pending reply. Each entry is taken
// inside its own Update, so two concurrent callers never both receive it.
// On error the replies already removed are returned with it.
func (s *ReplyStore) TakePending(ctx context.Context) ([]InboundReply, error) {
	keys, err := s.store.Keys(ctx, replyKeyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]InboundReply, 0, len(keys))
	for _, key := range keys {
		if _, ok := parseReplyKey(key); !ok {
			continue
		}
		var (
			taken InboundReply
			ok    bool
		)
		err := updateJSON(ctx, s.store, key, func(cur *InboundReply, exists bool) (*InboundReply, error) {
			ok = false
			if !exists || cur.State != ReplyPending {
				return nil, errUnchanged
			}
			taken, ok = *cur, true
			return nil, nil
		})
		if err != nil {
			sortReplies(out)
			return out, err
		}
		if ok {
			out = append(out, taken)
		}
	}
	sortReplies(out)
	return out, nil
}

func parseReplyKey(key string) (int64, bool) {
	raw := strings.TrimPrefix(key, replyKeyPrefix)
	if raw == key || strings.Contains(raw, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func sortReplies(rs []InboundReply) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].TargetMessageID < rs[j].TargetMessageID })
}
