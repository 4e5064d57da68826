package fsstore

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestWithLockRunsCriticalSection(t *testing.T) {
	t.Parallel()

	lockPath, err := BuildLockPath(t.TempDir(), "state/offset")
	if err != nil {
		t.Fatalf("BuildLockPath() error = %v", err)
	}

	called := false
	err = WithLock(context.Background(), lockPath, func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("WithLock() error = %v", err)
	}
	if !called {
		t.Fatalf("WithLock() did not run critical section")
	}
}

func TestWithLockTimesOutWhileHeld(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), lockDirName, "busy.lck")
	held := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = WithLock(context.Background(), lockPath, func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := WithLock(ctx, lockPath, func() error { return nil })
	close(release)
	wg.Wait()

	if !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("WithLock() error = %v, want ErrLockTimeout", err)
	}
}
