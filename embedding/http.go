package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/akfldk1028/ARR-sub002/internal/tlsutil"
	"github.com/akfldk1028/ARR-sub002/korerr"
	"github.com/akfldk1028/ARR-sub002/llm/retry"
)

// HTTPConfig configures the OpenAI-compatible embeddings client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

// HTTPProvider talks to any OpenAI-compatible /embeddings endpoint.
type HTTPProvider struct {
	config  HTTPConfig
	client  *http.Client
	retryer retry.Retryer
	logger  *zap.Logger
}

// NewHTTPProvider builds a retrying embeddings client. Exhausted retries
// surface as embedding_unavailable, or rate_limited when the provider
// answered 429.
func NewHTTPProvider(config HTTPConfig, policy *retry.Policy, logger *zap.Logger) *HTTPProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		config:  config,
		client:  &http.Client{Timeout: timeout, Transport: tlsutil.SecureTransport()},
		retryer: retry.NewBackoffRetryer(policy, logger),
		logger:  logger.With(zap.String("component", "embedding_provider")),
	}
}

func (p *HTTPProvider) Dimensions() int { return p.config.Dimensions }
func (p *HTTPProvider) Model() string   { return p.config.Model }

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (p *HTTPProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	return retry.DoWithResultTyped(p.retryer, ctx, func() ([]float64, error) {
		return p.embedOnce(ctx, text)
	})
}

func (p *HTTPProvider) embedOnce(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embedRequest{Model: p.config.Model, Input: []string{text}})
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(p.config.BaseURL, "/") + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, korerr.Wrap(korerr.KindEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, korerr.Wrap(korerr.KindRateLimited, fmt.Errorf("embedding provider returned %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, korerr.Wrap(korerr.KindEmbeddingUnavailable,
			fmt.Errorf("embedding provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, korerr.Wrap(korerr.KindEmbeddingUnavailable, err)
	}
	if len(parsed.Data) == 0 {
		return nil, korerr.Wrap(korerr.KindEmbeddingUnavailable, fmt.Errorf("embedding provider returned no vectors"))
	}
	vec := parsed.Data[0].Embedding
	if err := CheckDimension(vec, p.config.Dimensions); err != nil {
		return nil, err
	}
	return vec, nil
}

var _ Provider = (*HTTPProvider)(nil)
