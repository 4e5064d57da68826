package kv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quailyquaily/tgrelay/internal/fsstore"
	"github.com/quailyquaily/tgrelay/internal/pathutil"
)

// FileStore maps each key to <root>/<key>.json. Mutations are atomic
// (temp file + rename) and serialised across processes with flock.
type FileStore struct {
	root string
	opts fsstore.FileOptions
}

func NewFileStore(root string) (*FileStore, error) {
	root = pathutil.ExpandHomePath(strings.TrimSpace(root))
	if root == "" {
		return nil, fmt.Errorf("file store root is required")
	}
	if err := fsstore.EnsureDir(root, 0); err != nil {
		return nil, err
	}
	return &FileStore{root: filepath.Clean(root)}, nil
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	path, err := fsstore.KeyPath(s.root, key)
	if err != nil {
		return nil, false, err
	}
	return fsstore.ReadFile(path)
}

func (s *FileStore) Put(ctx context.Context, key string, value []byte) error {
	return s.Update(ctx, key, func([]byte, bool) ([]byte, error) {
		if value == nil {
			return []byte{}, nil
		}
		return value, nil
	})
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	return s.Update(ctx, key, func([]byte, bool) ([]byte, error) {
		return nil, nil
	})
}

func (s *FileStore) Keys(_ context.Context, prefix string) ([]string, error) {
	prefix = normalizePrefix(prefix)
	var out []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if path != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		key, ok := fsstore.KeyFromPath(s.root, path)
		if ok && strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list keys under %s: %w", s.root, err)
	}
	sort.Strings(out)
	return out, nil
}

func (s *FileStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	key, err := validateUpdate(key, fn)
	if err != nil {
		return err
	}
	path, err := fsstore.KeyPath(s.root, key)
	if err != nil {
		return err
	}
	lockPath, err := fsstore.BuildLockPath(s.root, key)
	if err != nil {
		return err
	}
	return fsstore.MutateFile(ctx, path, lockPath, s.opts, fsstore.Mutator(fn))
}

func (s *FileStore) Close() error { return nil }
