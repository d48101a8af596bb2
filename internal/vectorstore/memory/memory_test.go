package memory

import (
	"context"
	"testing"

	"finknow/internal/models"
	"finknow/internal/vectorstore"
)

func point(id, docID string, index int, vec []float32) vectorstore.Point {
	return vectorstore.Point{
		ID:     id,
		Vector: vec,
		Chunk:  models.Chunk{ChunkID: id, DocID: docID, ChunkIndex: index, Text: "t"},
	}
}

func TestSearchOrderingAndBound(t *testing.T) {
	ctx := context.Background()
	s := New()
	err := s.Upsert(ctx, []vectorstore.Point{
		point("a", "d1", 0, []float32{1, 0, 0}),
		point("b", "d1", 1, []float32{0.9, 0.1, 0}),
		point("c", "d2", 0, []float32{0, 1, 0}),
		point("d", "d2", 1, []float32{0, 0, 1}),
	})
	if err != nil {
		t.Fatal(err)
	}

	results, err := s.Search(ctx, []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) > 3 {
		t.Fatalf("got %d results for k=3", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("scores not non-increasing at %d: %f > %f", i, results[i].Score, results[i-1].Score)
		}
	}
	if results[0].Chunk.ChunkID != "a" {
		t.Fatalf("expected exact match first, got %s", results[0].Chunk.ChunkID)
	}
}

func TestUpsertIdempotentByID(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := point("a", "d1", 0, []float32{1, 0})
	if err := s.Upsert(ctx, []vectorstore.Point{p}); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, []vectorstore.Point{p}); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 point after duplicate upsert, got %d", s.Len())
	}
}

func TestDeleteDocument(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.Upsert(ctx, []vectorstore.Point{
		point("a", "d1", 0, []float32{1, 0}),
		point("b", "d2", 0, []float32{0, 1}),
	})
	if err := s.DeleteDocument(ctx, "d1"); err != nil {
		t.Fatal(err)
	}
	docs, err := s.ListDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].DocID != "d2" {
		t.Fatalf("unexpected documents after delete: %+v", docs)
	}
}
