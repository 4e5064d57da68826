// Package kv is the persistence seam behind the relay state: the sent
// message ledger, the update cursor and pending replies all live behind
// Store, so the backing medium can be swapped without touching the core.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quailyquaily/tgrelay/internal/fsstore"
)

var (
	ErrClosed         = errors.New("kv: store closed")
	ErrUnknownBackend = errors.New("kv: unknown backend")
	// ErrConflict means Update kept losing to concurrent writers.
	ErrConflict = errors.New("kv: too many concurrent writers")
)

// UpdateFunc receives the current value (exists=false when the key is
// absent) and returns the replacement. Returning nil deletes the key.
type UpdateFunc func(current []byte, exists bool) ([]byte, error)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists keys starting with prefix, in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Update is an atomic read-modify-write of a single key. Backends hold
	// their per-key lock (or transaction) only for the span of fn.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Close() error
}

// ValidateKey applies the same key grammar to every backend so state can
// be moved between them.
func ValidateKey(key string) (string, error) {
	return fsstore.ValidateKey(key)
}

func normalizePrefix(prefix string) string {
	return strings.TrimSpace(prefix)
}

func validateUpdate(key string, fn UpdateFunc) (string, error) {
	if fn == nil {
		return "", fmt.Errorf("kv update %s: nil update func", key)
	}
	return ValidateKey(key)
}
