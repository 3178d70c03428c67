package main

import (
	"context"
	"log"
	"time"

	"researchhub/internal/activities"
	"researchhub/internal/config"
	"researchhub/internal/storage"
	"researchhub/internal/workflows"

	"github.com/go-logr/logr/funcr"
	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	logger := funcr.New(func(prefix, args string) {
		log.Println(prefix, args)
	}, funcr.Options{})

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := storage.Migrate(ctx, db); err != nil {
		log.Fatal(err)
	}
	a, err := activities.New(cfg, db, logger)
	if err != nil {
		log.Fatal(err)
	}
	activities.Register(w, a)

	log.Printf("researchhub worker listening on %s queue=%s llm_providers=%q embed_providers=%q", cfg.TemporalAddress, cfg.TemporalTaskQueue, cfg.LLMProviders, cfg.EmbedProviders)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal(err)
	}
}
