// Package tracker records which documents have completed ingestion so
// duplicate uploads are skipped. An entry exists if and only if every
// chunk of the document was embedded and stored; a crash before
// MarkProcessed leaves the document eligible for re-ingestion.
package tracker

import (
	"context"
	"sync"
	"time"
)

type Entry struct {
	Hash        string    `json:"hash"`
	DocID       string    `json:"doc_id"`
	Filename    string    `json:"filename"`
	ProcessedAt time.Time `json:"processed_at"`
}

type Tracker interface {
	IsProcessed(ctx context.Context, hash string) (bool, error)
	// Lookup returns the entry for a content hash, if present.
	Lookup(ctx context.Context, hash string) (Entry, bool, error)
	// MarkProcessed is called only after the document's final upsert
	// succeeded.
	MarkProcessed(ctx context.Context, e Entry) error
	DeleteByDocID(ctx context.Context, docID string) error
	List(ctx context.Context) ([]Entry, error)
	Clear(ctx context.Context) error
}

// Memory is a mutex-guarded in-memory Tracker for tests and ephemeral
// deployments.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

func (m *Memory) IsProcessed(ctx context.Context, hash string) (bool, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[hash]
	return ok, nil
}

func (m *Memory) Lookup(ctx context.Context, hash string) (Entry, bool, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[hash]
	return e, ok, nil
}

func (m *Memory) MarkProcessed(ctx context.Context, e Entry) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ProcessedAt.IsZero() {
		e.ProcessedAt = time.Now().UTC()
	}
	m.entries[e.Hash] = e
	return nil
}

func (m *Memory) DeleteByDocID(ctx context.Context, docID string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	for hash, e := range m.entries {
		if e.DocID == docID {
			delete(m.entries, hash)
		}
	}
	return nil
}

func (m *Memory) List(ctx context.Context) ([]Entry, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out, nil
}

func (m *Memory) Clear(ctx context.Context) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]Entry)
	return nil
}
