package main

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/flaboy/aira-pay/pkg/commence"
	"github.com/flaboy/aira-pay/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := commence.Start(cfg); err != nil {
		slog.Error("failed to start payment plugin", "error", err)
		os.Exit(1)
	}

	r := gin.Default()
	commence.RegisterRoutes(r)

	slog.Info("aira-pay listening", "addr", cfg.Listen)
	if err := r.Run(cfg.Listen); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
