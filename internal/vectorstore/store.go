// Package vectorstore defines the similarity-search storage contract.
// The production implementation delegates to a hosted Qdrant
// collection; an in-memory implementation backs tests.
package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"finknow/internal/models"
)

var ErrVectorStore = errors.New("vector store error")

// Point is one embedded chunk ready for upsert.
type Point struct {
	ID     string
	Vector []float32
	Chunk  models.Chunk
}

// SearchResult is a stored chunk with its similarity score.
type SearchResult struct {
	Chunk models.Chunk
	Score float64
}

// DocumentRef identifies a document with at least one stored chunk.
type DocumentRef struct {
	DocID    string `json:"doc_id"`
	Filename string `json:"filename"`
}

type Store interface {
	// EnsureCollection creates the backing collection if it does not
	// exist. Safe to call on every startup.
	EnsureCollection(ctx context.Context, dim int) error
	// Upsert writes or replaces records keyed by point id.
	Upsert(ctx context.Context, points []Point) error
	// Search returns at most topK records ordered by descending score.
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
	// ListDocuments returns the distinct documents present in the store.
	ListDocuments(ctx context.Context) ([]DocumentRef, error)
	// DeleteDocument removes every record belonging to docID.
	DeleteDocument(ctx context.Context, docID string) error
	// Reset drops and recreates the collection.
	Reset(ctx context.Context, dim int) error
}

// PointID derives a stable UUID for a chunk so re-ingesting the same
// document replaces its records instead of duplicating them.
func PointID(docID string, chunkIndex int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%s:%d", docID, chunkIndex)).String()
}
