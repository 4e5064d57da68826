package fsstore

import "errors"

var (
	ErrInvalidPath       = errors.New("fsstore: invalid path")
	ErrInvalidKey        = errors.New("fsstore: invalid key")
	ErrLockTimeout       = errors.New("fsstore: lock timeout")
	ErrLockUnavailable   = errors.New("fsstore: lock unavailable")
	ErrAtomicWriteFailed = errors.New("fsstore: atomic write failed")
)
