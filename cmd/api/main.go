package main

import (
	"context"
	"log"

	"tat-backend/internal/bootstrap"
	"tat-backend/internal/shared/config"
	"tat-backend/internal/shared/server"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	// The sweeper runs in-process so a single binary covers the common
	// deployment; cmd/sweeper exists for running it separately.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go app.Sweeper.Run(ctx)

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
