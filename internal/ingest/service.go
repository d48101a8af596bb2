// Package ingest runs the document pipeline: extract text, chunk it,
// embed the chunks in batches, upsert the vectors, then mark the
// document processed. The pipeline is strictly sequential; a failure at
// any step leaves the tracker untouched so the document is retried from
// scratch on the next upload. Point ids are derived from the content
// hash, so chunks upserted by a failed attempt are overwritten
// record-for-record when the retry succeeds.
package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"finknow/internal/extract"
	"finknow/internal/models"
	"finknow/internal/providers"
	"finknow/internal/tracker"
	"finknow/internal/util"
	"finknow/internal/vectorstore"
)

// Embedder is the slice of the provider layer the pipeline needs.
type Embedder interface {
	Embed(ctx context.Context, req providers.EmbedRequest) ([][]float32, providers.ProviderInfo, error)
}

type Options struct {
	ChunkSize    int
	ChunkOverlap int
	EmbedDim     int
	BatchSize    int
}

// extractFunc converts document bytes to plain text.
type extractFunc func(filename string, data []byte) (string, error)

type Service struct {
	log         *zap.Logger
	tracker     tracker.Tracker
	store       vectorstore.Store
	embedder    Embedder
	extractText extractFunc
	opts        Options

	// Guards the IsProcessed check through MarkProcessed so two
	// concurrent uploads of the same document do not both run the
	// pipeline. Processing is single-document-at-a-time by design.
	mu sync.Mutex
}

type Result struct {
	DocID    string                `json:"document_id"`
	Filename string                `json:"filename"`
	Hash     string                `json:"hash"`
	Chunks   int                   `json:"chunks"`
	Skipped  bool                  `json:"skipped"`
	Status   models.DocumentStatus `json:"status"`
}

func NewService(log *zap.Logger, tr tracker.Tracker, store vectorstore.Store, embedder Embedder, opts Options) *Service {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1000
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = 0
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 128
	}
	return &Service{
		log:         log,
		tracker:     tr,
		store:       store,
		embedder:    embedder,
		extractText: extract.Text,
		opts:        opts,
	}
}

// Ingest runs the full pipeline for one uploaded document.
func (s *Service) Ingest(ctx context.Context, filename string, data []byte) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := util.SHA256Hex(data)
	res := Result{Filename: filename, Hash: hash, Status: models.StatusUnprocessed}
	log := s.log.With(zap.String("filename", filename), zap.String("hash", hash))

	if entry, ok, err := s.tracker.Lookup(ctx, hash); err != nil {
		return res, fmt.Errorf("tracker lookup: %w", err)
	} else if ok {
		log.Info("document already processed, skipping ingestion", zap.String("doc_id", entry.DocID))
		res.DocID = entry.DocID
		res.Skipped = true
		res.Status = models.StatusProcessed
		return res, nil
	}

	// Same bytes always map to the same document id, keeping upserts
	// idempotent across retries.
	docID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(hash)).String()
	res.DocID = docID
	log = log.With(zap.String("doc_id", docID))

	res.Status = models.StatusExtracting
	text, err := s.extractText(filename, data)
	if err != nil {
		res.Status = models.StatusFailed
		log.Warn("text extraction failed", zap.Error(err))
		return res, err
	}

	res.Status = models.StatusChunking
	parts := util.ChunkText(text, s.opts.ChunkSize, s.opts.ChunkOverlap)
	if len(parts) == 0 {
		res.Status = models.StatusFailed
		return res, extract.ErrNoExtractableText
	}
	chunks := make([]models.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, models.Chunk{
			ChunkID:    fmt.Sprintf("%s_%d", docID, i),
			DocID:      docID,
			Filename:   filename,
			ChunkIndex: i,
			Text:       part,
		})
	}
	log.Info("document chunked", zap.Int("chunks", len(chunks)))

	for start := 0; start < len(chunks); start += s.opts.BatchSize {
		end := start + s.opts.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		res.Status = models.StatusEmbedding
		inputs := make([]string, 0, len(batch))
		for _, c := range batch {
			inputs = append(inputs, c.Text)
		}
		vectors, info, err := s.embedder.Embed(ctx, providers.EmbedRequest{
			Operation: "ingest_chunk_embed",
			Inputs:    inputs,
			Dimension: s.opts.EmbedDim,
		})
		if err != nil {
			res.Status = models.StatusFailed
			log.Warn("chunk embedding failed", zap.Int("batch_start", start), zap.Error(err))
			return res, err
		}

		res.Status = models.StatusStoring
		points := make([]vectorstore.Point, 0, len(batch))
		for i, c := range batch {
			points = append(points, vectorstore.Point{
				ID:     vectorstore.PointID(docID, c.ChunkIndex),
				Vector: vectors[i],
				Chunk:  c,
			})
		}
		if err := s.store.Upsert(ctx, points); err != nil {
			res.Status = models.StatusFailed
			log.Warn("vector upsert failed", zap.Int("batch_start", start), zap.Error(err))
			return res, err
		}
		log.Debug("batch stored",
			zap.Int("batch_start", start),
			zap.Int("batch_size", len(batch)),
			zap.String("embed_provider", info.Name))
	}

	if err := s.tracker.MarkProcessed(ctx, tracker.Entry{Hash: hash, DocID: docID, Filename: filename}); err != nil {
		// Chunks are stored but the marker write failed; the document
		// stays eligible for re-ingestion and the idempotent point ids
		// make the retry harmless.
		res.Status = models.StatusFailed
		return res, fmt.Errorf("mark processed: %w", err)
	}

	res.Chunks = len(chunks)
	res.Status = models.StatusProcessed
	log.Info("document processed", zap.Int("chunks", len(chunks)))
	return res, nil
}
