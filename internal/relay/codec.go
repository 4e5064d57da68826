package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/quailyquaily/tgrelay/internal/kv"
)

func getJSON(ctx context.Context, store kv.Store, key string, out any) (bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// updateJSON runs a typed read-modify-write on key. fn returning
// errUnchanged leaves the key as it was and is not reported as an error.
func updateJSON[T any](ctx context.Context, store kv.Store, key string, fn func(cur *T, exists bool) (*T, error)) error {
	err := store.Update(ctx, key, func(raw []byte, exists bool) ([]byte, error) {
		var cur T
		if exists && len(raw) > 0 {
			if err := json.Unmarshal(raw, &cur); err != nil {
				return nil, fmt.Errorf("decode %s: %w", key, err)
			}
		}
		next, err := fn(&cur, exists)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, nil
		}
		return json.MarshalIndent(next, "", "  ")
	})
	if errors.Is(err, errUnchanged) {
		return nil
	}
	return err
}
