package llm

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
	"golang.org/x/time/rate"

	"github.com/akfldk1028/ARR-sub002/internal/tlsutil"
	"github.com/akfldk1028/ARR-sub002/korerr"
	"github.com/akfldk1028/ARR-sub002/llm/circuitbreaker"
	"github.com/akfldk1028/ARR-sub002/llm/retry"
)

// Client is the minimal chat-completion contract the core consumes.
// Implementations must be safe for concurrent use.
type Client interface {
	// Complete sends a single user prompt and returns the assistant text.
	Complete(ctx context.Context, prompt string) (string, error)

	// Model reports the configured model identifier, for logging.
	Model() string
}

// HTTPConfig configures the OpenAI-compatible HTTP client.
type HTTPConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	RateRPS float64
}

// httpClient talks to any OpenAI-compatible /chat/completions endpoint.
type httpClient struct {
	config  HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
	retryer retry.Retryer
	breaker circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewHTTPClient builds a rate-limited, retrying, circuit-broken client.
// Rate-limit waits are bounded by ctx; exhausted retries surface as a
// rate_limited or llm_unreachable error kind depending on the provider's
// response.
func NewHTTPClient(config HTTPConfig, policy *retry.Policy, logger *zap.Logger) Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	rps := config.RateRPS
	if rps <= 0 {
		rps = 5
	}
	return &httpClient{
		config:  config,
		client:  &http.Client{Timeout: timeout, Transport: tlsutil.SecureTransport()},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		retryer: retry.NewBackoffRetryer(policy, logger),
		breaker: circuitbreaker.New(nil, logger),
		logger:  logger.With(zap.String("component", "llm_client")),
	}
}

func (c *httpClient) Model() string { return c.config.Model }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *httpClient) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", korerr.Wrap(korerr.KindRateLimited, err)
	}
	return retry.DoWithResultTyped(c.retryer, ctx, func() (string, error) {
		result, err := c.breaker.CallWithResult(ctx, func() (any, error) {
			return c.completeOnce(ctx, prompt)
		})
		if err != nil {
			return "", err
		}
		return result.(string), nil
	})
}

func (c *httpClient) completeOnce(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.config.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", korerr.Wrap(korerr.KindLLMUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", korerr.Wrap(korerr.KindRateLimited, fmt.Errorf("llm returned %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", korerr.Wrap(korerr.KindLLMUnreachable,
			fmt.Errorf("llm returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", korerr.Wrap(korerr.KindLLMUnreachable, err)
	}
	if len(parsed.Choices) == 0 {
		return "", korerr.Wrap(korerr.KindLLMUnreachable, fmt.Errorf("llm returned no choices"))
	}
	return parsed.Choices[0].Message.Content, nil
}

// Unavailable is a Client whose every call fails with llm_unreachable.
// Used when no LLM is configured: naming and self-assessment fall back
// locally and the query path never depends on it.
type Unavailable struct{}

func (Unavailable) Complete(ctx context.Context, prompt string) (string, error) {
	return "", korerr.Wrap(korerr.KindLLMUnreachable, fmt.Errorf("no llm provider configured"))
}

func (Unavailable) Model() string { return "none" }
