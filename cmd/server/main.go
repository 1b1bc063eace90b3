package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/clipforge/clipforge/internal/analyzer"
	"github.com/clipforge/clipforge/internal/api"
	"github.com/clipforge/clipforge/internal/auth"
	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/pipeline"
	"github.com/clipforge/clipforge/internal/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}
	st := postgres.NewStore(pool)

	verifier, err := auth.NewOIDCVerifier(ctx, cfg.AuthIssuer, cfg.AuthClientID)
	if err != nil {
		log.Fatalf("init token verifier: %v", err)
	}

	pl := pipeline.New(st, &analyzer.Fixed{}, cfg.AnalyzerTimeout)
	go pipeline.NewReaper(st, cfg.ReaperInterval, cfg.ProcessingTTL).Run(ctx)

	srv := api.New(cfg.Address, st, pl, verifier)
	if err := srv.Run(ctx); err != nil {
		log.Printf("server stopped: %v", err)
		os.Exit(1)
	}
}
