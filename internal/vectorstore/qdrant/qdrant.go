// Package qdrant is a minimal REST client for a hosted Qdrant
// collection. It assumes cosine distance and stores chunk text and
// identity in the point payload.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finknow/internal/models"
	"finknow/internal/vectorstore"
)

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

type Store struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

func New(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Store{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *Store) EnsureCollection(ctx context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("%w: invalid vector dimension %d", vectorstore.ErrVectorStore, dim)
	}
	status, err := s.do(ctx, http.MethodGet, s.collectionPath(""), nil, nil)
	if err == nil && status < 300 {
		return nil
	}
	if err != nil && status != http.StatusNotFound {
		return err
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": "Cosine",
		},
	}
	if _, err := s.do(ctx, http.MethodPut, s.collectionPath(""), body, nil); err != nil {
		return err
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, points []vectorstore.Point) error {
	if len(points) == 0 {
		return nil
	}
	payload := make([]map[string]any, 0, len(points))
	for _, p := range points {
		payload = append(payload, map[string]any{
			"id":     p.ID,
			"vector": p.Vector,
			"payload": map[string]any{
				"doc_id":      p.Chunk.DocID,
				"chunk_id":    p.Chunk.ChunkID,
				"chunk_index": p.Chunk.ChunkIndex,
				"filename":    p.Chunk.Filename,
				"text":        p.Chunk.Text,
			},
		})
	}
	body := map[string]any{"points": payload}
	_, err := s.do(ctx, http.MethodPut, s.collectionPath("/points?wait=true"), body, nil)
	return err
}

func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]vectorstore.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if _, err := s.do(ctx, http.MethodPost, s.collectionPath("/points/search"), body, &resp); err != nil {
		return nil, err
	}
	results := make([]vectorstore.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, vectorstore.SearchResult{
			Chunk: chunkFromPayload(r.Payload),
			Score: r.Score,
		})
	}
	return results, nil
}

func (s *Store) ListDocuments(ctx context.Context) ([]vectorstore.DocumentRef, error) {
	seen := make(map[string]vectorstore.DocumentRef)
	order := make([]string, 0)
	var offset any
	for {
		body := map[string]any{
			"limit":        250,
			"with_payload": []string{"doc_id", "filename"},
			"with_vector":  false,
		}
		if offset != nil {
			body["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if _, err := s.do(ctx, http.MethodPost, s.collectionPath("/points/scroll"), body, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Result.Points {
			docID, _ := p.Payload["doc_id"].(string)
			if docID == "" {
				continue
			}
			if _, ok := seen[docID]; ok {
				continue
			}
			filename, _ := p.Payload["filename"].(string)
			seen[docID] = vectorstore.DocumentRef{DocID: docID, Filename: filename}
			order = append(order, docID)
		}
		if resp.Result.NextPageOffset == nil {
			break
		}
		offset = resp.Result.NextPageOffset
	}
	out := make([]vectorstore.DocumentRef, 0, len(order))
	for _, id := range order {
		out = append(out, seen[id])
	}
	return out, nil
}

func (s *Store) DeleteDocument(ctx context.Context, docID string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "doc_id", "match": map[string]any{"value": docID}},
			},
		},
	}
	_, err := s.do(ctx, http.MethodPost, s.collectionPath("/points/delete?wait=true"), body, nil)
	return err
}

func (s *Store) Reset(ctx context.Context, dim int) error {
	if status, err := s.do(ctx, http.MethodDelete, s.collectionPath(""), nil, nil); err != nil && status != http.StatusNotFound {
		return err
	}
	return s.EnsureCollection(ctx, dim)
}

func (s *Store) collectionPath(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

func (s *Store) do(ctx context.Context, method, url string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("%w: encode request: %v", vectorstore.ErrVectorStore, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, fmt.Errorf("%w: build request: %v", vectorstore.ErrVectorStore, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: qdrant %s %s: %v", vectorstore.ErrVectorStore, method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return resp.StatusCode, fmt.Errorf("%w: qdrant %s %s: %s: %s", vectorstore.ErrVectorStore, method, url, resp.Status, strings.TrimSpace(string(raw)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: decode qdrant response: %v", vectorstore.ErrVectorStore, err)
		}
	}
	return resp.StatusCode, nil
}

func chunkFromPayload(payload map[string]any) models.Chunk {
	c := models.Chunk{}
	if v, ok := payload["doc_id"].(string); ok {
		c.DocID = v
	}
	if v, ok := payload["chunk_id"].(string); ok {
		c.ChunkID = v
	}
	if v, ok := payload["chunk_index"].(float64); ok {
		c.ChunkIndex = int(v)
	}
	if v, ok := payload["filename"].(string); ok {
		c.Filename = v
	}
	if v, ok := payload["text"].(string); ok {
		c.Text = v
	}
	return c
}
