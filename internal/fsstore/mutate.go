package fsstore

import (
	"context"
	"fmt"
)

// Mutator receives the current file content (exists=false when absent) and
// returns the replacement. Returning nil removes the file.
type Mutator func(current []byte, exists bool) ([]byte, error)

// MutateFile runs a read-modify-write of path while holding lockPath. The
// lock is released as soon as the replacement is renamed into place.
func MutateFile(ctx context.Context, path, lockPath string, opts FileOptions, fn Mutator) error {
	if fn == nil {
		return fmt.Errorf("mutate %s: nil mutator", path)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return WithLock(ctx, lockPath, func() error {
		current, exists, err := ReadFile(path)
		if err != nil {
			return err
		}
		next, err := fn(current, exists)
		if err != nil {
			return err
		}
		if next == nil {
			return RemoveFile(path)
		}
		return WriteFileAtomic(path, next, opts)
	})
}
