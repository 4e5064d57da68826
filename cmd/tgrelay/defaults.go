package main

import (
	"github.com/quailyquaily/tgrelay/internal/bridge"
	"github.com/quailyquaily/tgrelay/internal/telegram"
	"github.com/spf13/viper"
)

func initViperDefaults() {
	// Global
	viper.SetDefault("file_state_dir", "~/.tgrelay")

	// Telegram
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.chat_id", "")
	viper.SetDefault("telegram.base_url", telegram.DefaultBaseURL)
	viper.SetDefault("telegram.request_timeout", bridge.DefaultRequestTimeout)
	viper.SetDefault("telegram.poll_timeout", bridge.DefaultPollTimeout)

	// Reply waits
	viper.SetDefault("reply.timeout", bridge.DefaultReplyTimeout)
	viper.SetDefault("reply.poll_interval", bridge.DefaultPollInterval)

	// State store
	viper.SetDefault("store.backend", "file")
	viper.SetDefault("store.dir_name", "store")
	viper.SetDefault("store.redis.addr", "")
	viper.SetDefault("store.redis.password", "")
	viper.SetDefault("store.redis.db", 0)
	viper.SetDefault("store.redis.prefix", "tgrelay")
	viper.SetDefault("store.postgres.dsn", "")

	// Metrics
	viper.SetDefault("metrics.listen", "")
}
