package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Tyrowin/roomchat/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server terminated with error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg, err := server.LoadConfig()
	if err != nil {
		return err
	}
	logger := server.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hub := server.NewHub(cfg, logger)
	httpServer := server.CreateServer(cfg.Port, server.SetupRoutes(hub))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.StartServer(httpServer, logger)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.Port, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	// Hijacked websocket connections are not tracked by http.Server, so the
	// hub closes them itself.
	if err := server.ShutdownServer(httpServer, cfg.ShutdownTimeout, logger); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	return hub.Shutdown(cfg.ShutdownTimeout)
}
