package main

// Standalone abandoned-session sweeper:
//   go run ./cmd/sweeper

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tat-backend/internal/bootstrap"
	"tat-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	if app.DB == nil {
		log.Fatal("sweeper requires DATABASE_URL; in-memory sessions vanish with the process")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("sweeper running every %s, abandoning sessions idle for %s", cfg.SweepInterval, cfg.SessionTimeout)
	app.Sweeper.Run(ctx)
}
