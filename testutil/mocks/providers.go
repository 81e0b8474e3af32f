package mocks

import (
	"context"
	"sync"
)

// LLMClient is a scripted llm.Client.
type LLMClient struct {
	mu       sync.Mutex
	Response string
	Err      error
	Prompts  []string
}

func (c *LLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Prompts = append(c.Prompts, prompt)
	if c.Err != nil {
		return "", c.Err
	}
	return c.Response, nil
}

func (c *LLMClient) Model() string { return "mock" }

// StaticProvider is an embedding.Provider serving canned vectors by
// exact text, so tests control similarity geometry precisely. Unknown
// text embeds to the first unit axis.
type StaticProvider struct {
	Dim     int
	Vectors map[string][]float64
}

func (p *StaticProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if v, ok := p.Vectors[text]; ok {
		return v, nil
	}
	v := make([]float64, p.Dim)
	v[0] = 1
	return v, nil
}

func (p *StaticProvider) Dimensions() int { return p.Dim }
func (p *StaticProvider) Model() string   { return "static" }

// BlockingProvider is an embedding.Provider whose Embed blocks until its
// context is canceled, for deadline tests.
type BlockingProvider struct {
	Dim int
}

func (p *BlockingProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (p *BlockingProvider) Dimensions() int { return p.Dim }
func (p *BlockingProvider) Model() string   { return "blocking" }
