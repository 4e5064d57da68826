package relay

import "errors"

var (
	ErrMissingConfig = errors.New("missing TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID")
	ErrInvalidWait   = errors.New("relay: timeout and poll interval must be positive")
	ErrInvalidStatus = errors.New("relay: invalid status transition")
	ErrInvalidID     = errors.New("relay: message id must be positive")

	// errUnchanged aborts a kv.Store.Update without writing.
	errUnchanged = errors.New("relay: unchanged")
)
