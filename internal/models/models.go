package models

import "time"

// DocumentStatus tracks a document through the ingestion pipeline.
// A document only ever reaches the tracker in the processed state;
// any failure returns it to unprocessed on the next attempt.
type DocumentStatus string

const (
	StatusUnprocessed DocumentStatus = "unprocessed"
	StatusExtracting  DocumentStatus = "extracting"
	StatusChunking    DocumentStatus = "chunking"
	StatusEmbedding   DocumentStatus = "embedding"
	StatusStoring     DocumentStatus = "storing"
	StatusProcessed   DocumentStatus = "processed"
	StatusFailed      DocumentStatus = "failed"
)

type Document struct {
	DocID     string         `json:"doc_id"`
	Filename  string         `json:"filename"`
	Hash      string         `json:"hash"`
	Status    DocumentStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at,omitempty"`
}

// Chunk is one contiguous span of extracted text. Chunks exist only
// during ingestion; afterwards their text survives as vector payload.
type Chunk struct {
	ChunkID    string `json:"chunk_id"`
	DocID      string `json:"doc_id"`
	Filename   string `json:"filename,omitempty"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}

// RetrievedChunk is a search hit returned to the ask endpoint.
type RetrievedChunk struct {
	ChunkID  string  `json:"chunk_id"`
	DocID    string  `json:"doc_id"`
	Filename string  `json:"filename,omitempty"`
	Snippet  string  `json:"snippet"`
	Score    float64 `json:"score"`
}
