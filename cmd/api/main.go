package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"finknow/internal/answer"
	"finknow/internal/api"
	"finknow/internal/config"
	"finknow/internal/ingest"
	"finknow/internal/providers"
	"finknow/internal/tracker"
	"finknow/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	manager, err := providers.NewManager(cfg.LLMProviders, cfg.EmbedProviders, cfg.EmbedDim)
	if err != nil {
		logger.Fatal("configure providers", zap.Error(err))
	}

	store := qdrant.New(qdrant.Config{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := store.EnsureCollection(ctx, cfg.EmbedDim); err != nil {
		cancel()
		logger.Fatal("ensure vector collection", zap.Error(err))
	}
	cancel()

	tr, err := tracker.NewSQLite(cfg.TrackerPath)
	if err != nil {
		logger.Fatal("open ingestion tracker", zap.Error(err))
	}
	defer tr.Close()

	ing := ingest.NewService(logger, tr, store, manager, ingest.Options{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		EmbedDim:     cfg.EmbedDim,
		BatchSize:    cfg.EmbedBatchSize,
	})
	ans := answer.NewService(logger, store, manager, manager, answer.Options{
		TopK:     cfg.TopK,
		EmbedDim: cfg.EmbedDim,
	})

	srv := api.NewServer(cfg, logger, ing, ans, store, tr)
	logger.Info("finknow api listening",
		zap.String("addr", cfg.APIAddr),
		zap.String("collection", cfg.QdrantCollection),
		zap.String("llm_providers", cfg.LLMProviders),
		zap.String("embed_providers", cfg.EmbedProviders))
	if err := http.ListenAndServe(cfg.APIAddr, srv.Routes()); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
