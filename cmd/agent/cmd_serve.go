package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	webhookimpl "github.com/Houssemalou/lingua-hub/external/webhook"
	"github.com/Houssemalou/lingua-hub/internal/session"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Join configured rooms and follow LiveKit room webhooks",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, injector, manager, err := startup()
	if err != nil {
		return err
	}

	var httpServer *http.Server
	if cfg.WebhookListenAddr != "" {
		receiver, err := do.Invoke[*webhookimpl.Receiver](injector)
		if err != nil {
			slog.Error("failed to resolve webhook receiver", "error", err)
			return err
		}
		httpServer = &http.Server{
			Addr:              cfg.WebhookListenAddr,
			Handler:           receiver,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("webhook server started", "listen", cfg.WebhookListenAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("webhook server error", "error", err)
			}
		}()
	}

	for _, roomID := range cfg.LiveKitRooms {
		if err := manager.StartSession(cmd.Context(), roomID); err != nil {
			slog.Error("failed to start configured room", "error", err, "room_id", roomID)
		}
	}
	slog.Info("agent ready", "rooms", cfg.LiveKitRooms, "webhook", cfg.WebhookListenAddr != "")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
	defer cancel()
	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			slog.Warn("webhook server shutdown failed", "error", err)
		}
	}
	manager.StopAllSessions(ctx, session.StopReasonShutdown)
	closeTranscriber(injector)
	return nil
}
