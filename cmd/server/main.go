package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacesedan/sentinel-review/config"
	"github.com/spacesedan/sentinel-review/internal/clients"
	"github.com/spacesedan/sentinel-review/internal/logging"
	"github.com/spacesedan/sentinel-review/internal/review"
	"github.com/spacesedan/sentinel-review/internal/server"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("[Main] Invalid configuration",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := clients.NewEngineClient(cfg.Engine)
	session := review.NewSession()
	outcomeLog := review.NewOutcomeLog()
	orchestrator := review.NewOrchestrator(engine, session, outcomeLog, cfg.BatchDelay)

	srv := server.NewServer(orchestrator, session, outcomeLog)
	if err := srv.Run(ctx, cfg.Addr); err != nil {
		slog.Error("[Main] Server exited with error",
			slog.String("error", err.Error()))
		os.Exit(1)
	}
}
