package providers

import (
	"context"
	"fmt"
	"strings"
)

type NamedLLMProvider struct {
	Ref      ProviderRef
	Provider LLMProvider
}

type NamedEmbedProvider struct {
	Ref      ProviderRef
	Provider EmbeddingProvider
}

// Manager holds the configured providers and tries them in preference
// order (configured order, mock always last) on each call. No retries
// within a provider; a later provider is only a fallback for a failed
// earlier one.
type Manager struct {
	llmProviders   []NamedLLMProvider
	embedProviders []NamedEmbedProvider
}

func NewManager(llmList, embedList string, embedDim int) (*Manager, error) {
	m := &Manager{}
	for _, ref := range ParseProviderList(llmList) {
		p, err := buildProvider(ref, embedDim)
		if err != nil {
			return nil, err
		}
		llm, ok := p.(LLMProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support llm generation", ref.Raw)
		}
		m.llmProviders = append(m.llmProviders, NamedLLMProvider{Ref: ref, Provider: llm})
	}
	for _, ref := range ParseProviderList(embedList) {
		p, err := buildProvider(ref, embedDim)
		if err != nil {
			return nil, err
		}
		embed, ok := p.(EmbeddingProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support embeddings", ref.Raw)
		}
		m.embedProviders = append(m.embedProviders, NamedEmbedProvider{Ref: ref, Provider: embed})
	}
	return m, nil
}

// Embed calls embedding providers in preference order and returns the
// first successful result.
func (m *Manager) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	var (
		info ProviderInfo
		err  error
	)
	for _, i := range preferredOrder(len(m.embedProviders), func(i int) string { return m.embedProviders[i].Ref.Name }) {
		var vectors [][]float32
		vectors, info, err = m.embedProviders[i].Provider.Embed(ctx, req)
		if err == nil && len(vectors) == len(req.Inputs) {
			return vectors, info, nil
		}
		if err == nil {
			err = fmt.Errorf("%w: provider %s returned %d vectors for %d inputs",
				ErrEmbeddingService, m.embedProviders[i].Ref.Raw, len(vectors), len(req.Inputs))
		}
	}
	if len(m.embedProviders) == 0 {
		err = fmt.Errorf("%w: no embedding providers configured", ErrEmbeddingService)
	}
	return nil, info, err
}

// Generate calls LLM providers in preference order and returns the
// first non-empty answer.
func (m *Manager) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	var (
		resp GenerateResponse
		info ProviderInfo
		err  error
	)
	for _, i := range preferredOrder(len(m.llmProviders), func(i int) string { return m.llmProviders[i].Ref.Name }) {
		resp, info, err = m.llmProviders[i].Provider.Generate(ctx, req)
		if err == nil && strings.TrimSpace(resp.Text) != "" {
			return resp, info, nil
		}
	}
	if len(m.llmProviders) == 0 {
		err = fmt.Errorf("%w: no llm providers configured", ErrLLMService)
	}
	if err == nil {
		err = fmt.Errorf("%w: all llm providers returned empty answers", ErrLLMService)
	}
	return GenerateResponse{}, info, err
}

func (m *Manager) EmbedProviderRefs() []ProviderRef {
	out := make([]ProviderRef, 0, len(m.embedProviders))
	for i := range m.embedProviders {
		out = append(out, m.embedProviders[i].Ref)
	}
	return out
}

func (m *Manager) LLMProviderRefs() []ProviderRef {
	out := make([]ProviderRef, 0, len(m.llmProviders))
	for i := range m.llmProviders {
		out = append(out, m.llmProviders[i].Ref)
	}
	return out
}

func preferredOrder(n int, nameAt func(i int) string) []int {
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if strings.ToLower(nameAt(i)) != "mock" {
			out = append(out, i)
		}
	}
	for i := 0; i < n; i++ {
		if strings.ToLower(nameAt(i)) == "mock" {
			out = append(out, i)
		}
	}
	return out
}

func buildProvider(ref ProviderRef, dim int) (any, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(dim), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "ollama":
		return NewOllamaEmbeddingProvider(ref.KeyAlias), nil
	case "groq":
		return NewGroqProvider(ref.KeyAlias), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
