package answer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"finknow/internal/models"
	"finknow/internal/providers"
	"finknow/internal/vectorstore"
	"finknow/internal/vectorstore/memory"
)

type fakeEmbedder struct{ calls int }

func (e *fakeEmbedder) Embed(ctx context.Context, req providers.EmbedRequest) ([][]float32, providers.ProviderInfo, error) {
	e.calls++
	out := make([][]float32, 0, len(req.Inputs))
	for range req.Inputs {
		out = append(out, []float32{1, 0, 0})
	}
	return out, providers.ProviderInfo{Name: "fake-embed"}, nil
}

type promptRecorder struct {
	prompts []string
}

func (g *promptRecorder) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	g.prompts = append(g.prompts, req.Prompt)
	return providers.GenerateResponse{Text: "generated answer"}, providers.ProviderInfo{Name: "fake-llm"}, nil
}

// spyStore fails the test if any method is reached.
type spyStore struct {
	t *testing.T
}

func (s *spyStore) EnsureCollection(ctx context.Context, dim int) error {
	s.t.Fatal("store touched")
	return nil
}
func (s *spyStore) Upsert(ctx context.Context, points []vectorstore.Point) error {
	s.t.Fatal("store touched")
	return nil
}
func (s *spyStore) Search(ctx context.Context, vector []float32, topK int) ([]vectorstore.SearchResult, error) {
	s.t.Fatal("store touched")
	return nil, nil
}
func (s *spyStore) ListDocuments(ctx context.Context) ([]vectorstore.DocumentRef, error) {
	s.t.Fatal("store touched")
	return nil, nil
}
func (s *spyStore) DeleteDocument(ctx context.Context, docID string) error {
	s.t.Fatal("store touched")
	return nil
}
func (s *spyStore) Reset(ctx context.Context, dim int) error {
	s.t.Fatal("store touched")
	return nil
}

func TestDirectModeNeverCallsStore(t *testing.T) {
	embedder := &fakeEmbedder{}
	gen := &promptRecorder{}
	svc := NewService(zap.NewNop(), &spyStore{t: t}, embedder, gen, Options{TopK: 5, EmbedDim: 3})

	ans, err := svc.Ask(context.Background(), "tell me about yourself", ModeDirect, 0)
	require.NoError(t, err)
	require.Equal(t, "generated answer", ans.Text)
	require.Zero(t, embedder.calls, "direct mode must not embed the question")
	require.Equal(t, "tell me about yourself", gen.prompts[0], "direct prompt is the bare question")
	require.Empty(t, ans.Retrieved)
}

func TestRAGModeWithEmptyStoreDegradesGracefully(t *testing.T) {
	gen := &promptRecorder{}
	svc := NewService(zap.NewNop(), memory.New(), &fakeEmbedder{}, gen, Options{TopK: 5, EmbedDim: 3})

	ans, err := svc.Ask(context.Background(), "what was net income?", ModeRAG, 0)
	require.NoError(t, err)
	require.Equal(t, "generated answer", ans.Text)
	require.Empty(t, ans.Retrieved)
	require.Equal(t, "what was net income?", gen.prompts[0], "no context block when nothing was retrieved")
}

func TestRAGModeIncludesRetrievedContextInStoreOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Upsert(ctx, []vectorstore.Point{
		{ID: "p1", Vector: []float32{1, 0, 0}, Chunk: models.Chunk{ChunkID: "c1", DocID: "d1", Text: "revenue was 10M"}},
		{ID: "p2", Vector: []float32{0.5, 0.5, 0}, Chunk: models.Chunk{ChunkID: "c2", DocID: "d1", Text: "expenses were 4M"}},
		{ID: "p3", Vector: []float32{0, 0, 1}, Chunk: models.Chunk{ChunkID: "c3", DocID: "d2", Text: "headcount grew"}},
	}))

	gen := &promptRecorder{}
	svc := NewService(zap.NewNop(), store, &fakeEmbedder{}, gen, Options{TopK: 2, EmbedDim: 3})

	ans, err := svc.Ask(ctx, "what was revenue?", ModeRAG, 2)
	require.NoError(t, err)
	require.Len(t, ans.Retrieved, 2)
	require.Equal(t, "c1", ans.Retrieved[0].ChunkID, "best match first")
	require.GreaterOrEqual(t, ans.Retrieved[0].Score, ans.Retrieved[1].Score)

	prompt := gen.prompts[0]
	require.Contains(t, prompt, "revenue was 10M")
	require.Contains(t, prompt, "Question: what was revenue?")
	require.Less(t,
		strings.Index(prompt, "revenue was 10M"),
		strings.Index(prompt, "expenses were 4M"),
		"context must keep store order")
	require.Equal(t, "fake-embed", ans.EmbedProvider)
	require.Equal(t, "fake-llm", ans.LLMProvider)
}
