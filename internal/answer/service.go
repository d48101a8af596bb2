// Package answer assembles prompts and calls the language model. RAG
// mode embeds the question, retrieves top-k chunks, and includes their
// text as context in store order; direct mode sends the question alone
// and never touches the vector store.
package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"finknow/internal/models"
	"finknow/internal/providers"
	"finknow/internal/util"
	"finknow/internal/vectorstore"
)

type Mode string

const (
	ModeRAG    Mode = "rag"
	ModeDirect Mode = "direct"
)

const contextSeparator = "\n\n---\n\n"

// Embedder and Generator are the slices of the provider layer this
// service needs.
type Embedder interface {
	Embed(ctx context.Context, req providers.EmbedRequest) ([][]float32, providers.ProviderInfo, error)
}

type Generator interface {
	Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error)
}

type Options struct {
	TopK     int
	EmbedDim int
}

type Service struct {
	log       *zap.Logger
	store     vectorstore.Store
	embedder  Embedder
	generator Generator
	opts      Options
}

type Answer struct {
	Text          string                  `json:"answer"`
	Mode          Mode                    `json:"mode"`
	Retrieved     []models.RetrievedChunk `json:"retrieved,omitempty"`
	EmbedProvider string                  `json:"embed_provider,omitempty"`
	LLMProvider   string                  `json:"llm_provider"`
}

func NewService(log *zap.Logger, store vectorstore.Store, embedder Embedder, generator Generator, opts Options) *Service {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	return &Service{
		log:       log,
		store:     store,
		embedder:  embedder,
		generator: generator,
		opts:      opts,
	}
}

// Ask answers a question. topK overrides the configured retrieval depth
// when positive; it is ignored in direct mode.
func (s *Service) Ask(ctx context.Context, question string, mode Mode, topK int) (Answer, error) {
	if mode == "" {
		mode = ModeRAG
	}
	out := Answer{Mode: mode}
	log := s.log.With(zap.String("mode", string(mode)))

	var contexts []string
	if mode == ModeRAG {
		if topK <= 0 {
			topK = s.opts.TopK
		}
		vectors, embedInfo, err := s.embedder.Embed(ctx, providers.EmbedRequest{
			Operation: "ask_query_embed",
			Inputs:    []string{question},
			Dimension: s.opts.EmbedDim,
		})
		if err != nil {
			return out, err
		}
		out.EmbedProvider = embedInfo.Name

		results, err := s.store.Search(ctx, vectors[0], topK)
		if err != nil {
			return out, err
		}
		// Chunks stay in store order, highest similarity first.
		contexts = make([]string, 0, len(results))
		out.Retrieved = make([]models.RetrievedChunk, 0, len(results))
		for _, r := range results {
			contexts = append(contexts, r.Chunk.Text)
			out.Retrieved = append(out.Retrieved, models.RetrievedChunk{
				ChunkID:  r.Chunk.ChunkID,
				DocID:    r.Chunk.DocID,
				Filename: r.Chunk.Filename,
				Snippet:  util.DisplaySnippet(r.Chunk.Text, 420),
				Score:    r.Score,
			})
		}
		log.Debug("context retrieved", zap.Int("chunks", len(results)))
	}

	resp, llmInfo, err := s.generator.Generate(ctx, providers.GenerateRequest{
		Operation: operationFor(mode),
		Prompt:    buildPrompt(question, contexts),
		Context:   contexts,
	})
	if err != nil {
		return out, err
	}
	out.Text = strings.TrimSpace(resp.Text)
	out.LLMProvider = llmInfo.Name
	return out, nil
}

func operationFor(mode Mode) string {
	if mode == ModeDirect {
		return "direct_chat"
	}
	return "rag_answer"
}

// buildPrompt embeds the retrieved chunk texts ahead of the question.
// With no context (direct mode, or an empty store) the prompt is the
// question alone.
func buildPrompt(question string, contexts []string) string {
	if len(contexts) == 0 {
		return question
	}
	return fmt.Sprintf("Use the context below to answer the user's question.\n"+
		"If the answer is not in the context, say \"The answer is not found in the document.\"\n\n"+
		"Context:\n%s\n\nQuestion: %s\nAnswer:",
		strings.Join(contexts, contextSeparator), question)
}
