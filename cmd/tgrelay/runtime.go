package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/quailyquaily/tgrelay/internal/bridge"
	"github.com/quailyquaily/tgrelay/internal/kv"
	"github.com/quailyquaily/tgrelay/internal/logutil"
	"github.com/quailyquaily/tgrelay/internal/statepaths"
	"github.com/spf13/viper"
)

func loggerFromViper() (*slog.Logger, error) {
	return logutil.LoggerFromViper()
}

func bridgeConfigFromViper() bridge.Config {
	return bridge.Config{
		BotToken:       strings.TrimSpace(viper.GetString("telegram.bot_token")),
		ChatID:         strings.TrimSpace(viper.GetString("telegram.chat_id")),
		BaseURL:        strings.TrimSpace(viper.GetString("telegram.base_url")),
		RequestTimeout: viper.GetDuration("telegram.request_timeout"),
		PollTimeout:    viper.GetDuration("telegram.poll_timeout"),
		ReplyTimeout:   viper.GetDuration("reply.timeout"),
		PollInterval:   viper.GetDuration("reply.poll_interval"),
		StoreBackend:   storeBackendFromViper(),
	}
}

func storeBackendFromViper() string {
	b := strings.ToLower(strings.TrimSpace(viper.GetString("store.backend")))
	if b == "" {
		return kv.BackendFile
	}
	return b
}

func storeConfigFromViper() kv.Config {
	return kv.Config{
		Backend: storeBackendFromViper(),
		Dir:     statepaths.StoreDir(),
		Redis: kv.RedisConfig{
			Addr:     viper.GetString("store.redis.addr"),
			Password: viper.GetString("store.redis.password"),
			DB:       viper.GetInt("store.redis.db"),
			Prefix:   viper.GetString("store.redis.prefix"),
		},
		Postgres: kv.PostgresConfig{
			DSN: viper.GetString("store.postgres.dsn"),
		},
	}
}

// runtimeDeps is everything a command needs to talk to Telegram.
type runtimeDeps struct {
	logger  *slog.Logger
	store   kv.Store
	service *bridge.Service
}

func (d *runtimeDeps) Close() {
	if d == nil || d.store == nil {
		return
	}
	if err := d.store.Close(); err != nil {
		d.logger.Warn("store_close_failed", "error", err.Error())
	}
}

func newRuntime(ctx context.Context) (*runtimeDeps, error) {
	logger, err := loggerFromViper()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	storeCfg := storeConfigFromViper()
	store, err := kv.Open(ctx, storeCfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("store_open", "backend", storeCfg.Backend)

	return &runtimeDeps{
		logger:  logger,
		store:   store,
		service: bridge.New(bridgeConfigFromViper(), store, nil, logger),
	}, nil
}
