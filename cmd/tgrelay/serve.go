package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/quailyquaily/tgrelay/internal/httpserver"
	"github.com/quailyquaily/tgrelay/internal/mcptools"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the relay tools to an MCP client over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			cfg := rt.service.Config()
			if !cfg.Configured() {
				// Tools still answer; send calls report the missing credentials.
				rt.logger.Warn("telegram_not_configured",
					"bot_token_set", cfg.BotToken != "",
					"chat_id_set", cfg.ChatID != "",
				)
			}

			mcpServer := mcptools.NewServer("tgrelay", strings.TrimSpace(version), rt.service, rt.logger)
			stdio := server.NewStdioServer(mcpServer)
			stdio.SetErrorLogger(slog.NewLogLogger(rt.logger.Handler(), slog.LevelError))

			listen := flagOrViperString(cmd, "metrics-listen", "metrics.listen")
			rt.logger.Info("mcp_server_start",
				"store", cfg.StoreBackend,
				"metrics_listen", listen,
			)
			return runServe(ctx, rt, func(ctx context.Context) error {
				return stdio.Listen(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			}, listen)
		},
	}

	cmd.Flags().String("metrics-listen", "", "Address for /metrics and /healthz (e.g. 127.0.0.1:9464). Empty disables.")

	return cmd
}

// runServe runs the stdio loop and, when listen is set, the metrics server.
// Either one stopping stops the other.
func runServe(ctx context.Context, rt *runtimeDeps, serveStdio func(context.Context) error, listen string) error {
	g, gctx := errgroup.WithContext(ctx)
	gctx, cancel := context.WithCancel(gctx)
	defer cancel()

	g.Go(func() error {
		defer cancel()
		err := serveStdio(gctx)
		if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			rt.logger.Info("mcp_server_stopped")
			return nil
		}
		return err
	})

	if listen = strings.TrimSpace(listen); listen != "" {
		router := httpserver.NewRouter(func(ctx context.Context) (map[string]any, error) {
			cfg := rt.service.Config()
			return map[string]any{
				"store":      cfg.StoreBackend,
				"configured": cfg.Configured(),
			}, nil
		})
		g.Go(func() error {
			return httpserver.Run(gctx, listen, router, rt.logger)
		})
	}

	return g.Wait()
}
