package bridge

import (
	"strings"
	"time"

	"github.com/quailyquaily/tgrelay/internal/relay"
	"github.com/quailyquaily/tgrelay/internal/telegram"
)

const (
	DefaultRequestTimeout = 10 * time.Second
	DefaultPollTimeout    = 10 * time.Second
	DefaultReplyTimeout   = 300 * time.Second
	DefaultPollInterval   = 5 * time.Second
)

// Config is resolved once at startup. Nothing below the command layer reads
// the environment.
type Config struct {
	BotToken string
	ChatID   string
	BaseURL  string

	// RequestTimeout bounds a single sendMessage call.
	RequestTimeout time.Duration
	// PollTimeout is the getUpdates long-poll window, at most 10s.
	PollTimeout time.Duration

	ReplyTimeout time.Duration
	PollInterval time.Duration

	// StoreBackend is only reported by Status.
	StoreBackend string
}

func (c Config) Configured() bool {
	return strings.TrimSpace(c.BotToken) != "" && strings.TrimSpace(c.ChatID) != ""
}

func (c Config) withDefaults() Config {
	c.BotToken = strings.TrimSpace(c.BotToken)
	c.ChatID = strings.TrimSpace(c.ChatID)
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = telegram.DefaultBaseURL
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = DefaultPollTimeout
	}
	if c.PollTimeout > relay.MaxPollWindow {
		c.PollTimeout = relay.MaxPollWindow
	}
	if c.ReplyTimeout <= 0 {
		c.ReplyTimeout = DefaultReplyTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}
