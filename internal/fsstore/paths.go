package fsstore

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	keyMaxLen   = 120
	fileExt     = ".json"
	lockDirName = ".fslocks"
)

func normalizePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	return filepath.Clean(path), nil
}

// ValidateKey checks a slash separated store key such as "replies/123".
// Segments are lowercase [a-z0-9._-] and may not start or end with a dot.
func ValidateKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if len(key) > keyMaxLen {
		return "", fmt.Errorf("%w: key too long", ErrInvalidKey)
	}
	for _, seg := range strings.Split(key, "/") {
		if err := validateSegment(seg); err != nil {
			return "", fmt.Errorf("%w: %q: %v", ErrInvalidKey, key, err)
		}
	}
	return key, nil
}

func validateSegment(seg string) error {
	if seg == "" {
		return fmt.Errorf("empty segment")
	}
	if strings.HasPrefix(seg, ".") || strings.HasSuffix(seg, ".") {
		return fmt.Errorf("segment cannot start or end with dot")
	}
	for _, r := range seg {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '_' || r == '-' {
			continue
		}
		return fmt.Errorf("invalid character %q", r)
	}
	return nil
}

// KeyPath maps a key to its JSON file under root.
func KeyPath(root, key string) (string, error) {
	root, err := normalizePath(root)
	if err != nil {
		return "", err
	}
	key, err = ValidateKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, filepath.FromSlash(key)+fileExt), nil
}

// KeyFromPath is the inverse of KeyPath. ok is false for files that are not
// store entries (locks, temp files, foreign files).
func KeyFromPath(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || !strings.HasSuffix(rel, fileExt) {
		return "", false
	}
	key := filepath.ToSlash(strings.TrimSuffix(rel, fileExt))
	if _, err := ValidateKey(key); err != nil {
		return "", false
	}
	return key, true
}

// BuildLockPath returns the lock file guarding key. Locks live in a hidden
// directory under root so they never show up as keys.
func BuildLockPath(root, key string) (string, error) {
	root, err := normalizePath(root)
	if err != nil {
		return "", err
	}
	key, err = ValidateKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, lockDirName, strings.ReplaceAll(key, "/", ".")+".lck"), nil
}
