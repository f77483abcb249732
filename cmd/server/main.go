package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/basit/forumfiles-backend/internal/app"
	"github.com/basit/forumfiles-backend/internal/config"
	"github.com/basit/forumfiles-backend/internal/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		logger.Fatal("startup failed", "error", err)
	}

	if err := a.Run(ctx); err != nil {
		logger.Fatal("server stopped", "error", err)
	}
}
