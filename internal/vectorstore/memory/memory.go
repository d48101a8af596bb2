// Package memory is an in-memory vectorstore.Store used by tests and
// offline development.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"finknow/internal/vectorstore"
)

type Store struct {
	mu     sync.RWMutex
	points map[string]vectorstore.Point
}

func New() *Store {
	return &Store{points: make(map[string]vectorstore.Point)}
}

func (s *Store) EnsureCollection(ctx context.Context, dim int) error {
	_ = ctx
	_ = dim
	return nil
}

func (s *Store) Upsert(ctx context.Context, points []vectorstore.Point) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		s.points[p.ID] = p
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]vectorstore.SearchResult, error) {
	_ = ctx
	if topK <= 0 {
		topK = 5
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]vectorstore.SearchResult, 0, len(s.points))
	for _, p := range s.points {
		results = append(results, vectorstore.SearchResult{
			Chunk: p.Chunk,
			Score: cosine(vector, p.Vector),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (s *Store) ListDocuments(ctx context.Context) ([]vectorstore.DocumentRef, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	out := make([]vectorstore.DocumentRef, 0)
	for _, p := range s.points {
		if _, ok := seen[p.Chunk.DocID]; ok {
			continue
		}
		seen[p.Chunk.DocID] = struct{}{}
		out = append(out, vectorstore.DocumentRef{DocID: p.Chunk.DocID, Filename: p.Chunk.Filename})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocID < out[j].DocID })
	return out, nil
}

func (s *Store) DeleteDocument(ctx context.Context, docID string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.points {
		if p.Chunk.DocID == docID {
			delete(s.points, id)
		}
	}
	return nil
}

func (s *Store) Reset(ctx context.Context, dim int) error {
	_ = ctx
	_ = dim
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = make(map[string]vectorstore.Point)
	return nil
}

// Len reports the number of stored points.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
