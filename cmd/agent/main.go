package main

import (
	"log/slog"
	"os"
	"time"

	audioimpl "github.com/Houssemalou/lingua-hub/external/audio"
	backendimpl "github.com/Houssemalou/lingua-hub/external/backend"
	configloader "github.com/Houssemalou/lingua-hub/external/config"
	"github.com/Houssemalou/lingua-hub/external/gemini"
	"github.com/Houssemalou/lingua-hub/external/livekit"
	repositoryimpl "github.com/Houssemalou/lingua-hub/external/repository"
	transcriberimpl "github.com/Houssemalou/lingua-hub/external/transcriber"
	webhookimpl "github.com/Houssemalou/lingua-hub/external/webhook"
	"github.com/Houssemalou/lingua-hub/internal/config"
	"github.com/Houssemalou/lingua-hub/internal/session"
	"github.com/Houssemalou/lingua-hub/internal/transcriber"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "agent",
	Short:        "LiveKit session agent that transcribes rooms and posts session summaries",
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	audioimpl.RegisterDI(injector)
	backendimpl.RegisterDI(injector)
	gemini.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	livekit.RegisterDI(injector)
	session.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)

	return injector
}

// startup loads configuration, installs the logger and resolves the manager.
func startup() (*config.Config, do.Injector, *session.Manager, error) {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "transcriber", cfg.Transcriber, "journal", cfg.JournalEnabled())

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)
	manager, err := do.Invoke[*session.Manager](injector)
	if err != nil {
		slog.Error("failed to resolve session manager", "error", err)
		return nil, nil, nil, err
	}
	return cfg, injector, manager, nil
}

func closeTranscriber(injector do.Injector) {
	stt, err := do.Invoke[transcriber.Transcriber](injector)
	if err != nil {
		return
	}
	if err := stt.Close(); err != nil {
		slog.Error("transcriber close failed", "error", err)
	}
}

// shutdownTimeout leaves room for flushing audio, one model summary and the
// backend save.
func shutdownTimeout(cfg *config.Config) time.Duration {
	return cfg.SummaryFlushTimeout + cfg.ModelTimeout + 2*cfg.BackendTimeout
}
