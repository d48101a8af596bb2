package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIAddr          string
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	TrackerPath      string
	ChunkSize        int
	ChunkOverlap     int
	EmbedDim         int
	EmbedBatchSize   int
	TopK             int
	UploadMaxBytes   int64
	LLMProviders     string
	EmbedProviders   string
}

func Load() Config {
	return Config{
		APIAddr:          getenv("FINKNOW_API_ADDR", ":8080"),
		QdrantURL:        getenv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:     getenv("QDRANT_API_KEY", ""),
		QdrantCollection: getenv("QDRANT_COLLECTION", "finknow"),
		TrackerPath:      getenv("FINKNOW_TRACKER_PATH", "./data/tracker.db"),
		ChunkSize:        getenvInt("FINKNOW_CHUNK_SIZE", 1000),
		ChunkOverlap:     getenvInt("FINKNOW_CHUNK_OVERLAP", 150),
		EmbedDim:         getenvInt("FINKNOW_EMBED_DIM", 1536),
		EmbedBatchSize:   getenvInt("FINKNOW_EMBED_BATCH_SIZE", 128),
		TopK:             getenvInt("FINKNOW_TOP_K", 5),
		UploadMaxBytes:   int64(getenvInt("FINKNOW_UPLOAD_MAX_MB", 64)) << 20,
		LLMProviders:     getenv("FINKNOW_LLM_PROVIDERS", "mock"),
		EmbedProviders:   getenv("FINKNOW_EMBED_PROVIDERS", "mock"),
	}
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
