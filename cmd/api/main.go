package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"researchhub/internal/api"
	"researchhub/internal/config"
	"researchhub/internal/storage"

	"github.com/go-logr/logr/funcr"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	logger := funcr.New(func(prefix, args string) {
		log.Println(prefix, args)
	}, funcr.Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		cancel()
		log.Fatal(err)
	}
	if err := storage.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatal(err)
	}
	cancel()
	db.Close()

	h := api.NewServer(cfg, logger)
	log.Printf("researchhub api listening on %s llm_providers=%q embed_providers=%q", cfg.APIAddr, cfg.LLMProviders, cfg.EmbedProviders)
	if err := http.ListenAndServe(cfg.APIAddr, h.Routes()); err != nil {
		log.Fatal(err)
	}
}
