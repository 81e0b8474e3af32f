package llmassess

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/akfldk1028/ARR-sub002/korerr"
	"github.com/akfldk1028/ARR-sub002/llm"
	"github.com/akfldk1028/ARR-sub002/llm/tokenizer"
)

// Namer produces short human-readable Korean names for domains from a
// sample of their paragraphs' text. Names are display-only; domain_id is
// always the key, so any failure here degrades to a fallback name.
type Namer struct {
	client      llm.Client
	maxChars    int
	tokenBudget int
	logger      *zap.Logger
}

// NewNamer builds a Namer. maxChars caps the returned name length in
// runes (longer LLM output is truncated, per the naming contract).
func NewNamer(client llm.Client, maxChars int, logger *zap.Logger) *Namer {
	if maxChars <= 0 {
		maxChars = 15
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Namer{
		client:      client,
		maxChars:    maxChars,
		tokenBudget: 3000,
		logger:      logger.With(zap.String("component", "domain_namer")),
	}
}

const namingPromptHeader = "다음은 한국 법령 조문 발췌입니다. 이 조문들의 공통 주제를 %d자 이내의 한국어 명사구 하나로 요약하세요. 명사구만 출력하세요.\n\n"

// Name asks the LLM for a noun phrase summarizing samples. On any LLM
// failure it returns FallbackName(domainID) and logs; it never returns an
// error because callers (initial partition, split) must proceed
// regardless.
func (n *Namer) Name(ctx context.Context, domainID string, samples []string) string {
	if len(samples) == 0 {
		return FallbackName(domainID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, namingPromptHeader, n.maxChars)
	for i, s := range samples {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	prompt := tokenizer.Truncate(b.String(), n.tokenBudget)

	raw, err := n.client.Complete(ctx, prompt)
	if err != nil {
		kind, _ := korerr.KindOf(err)
		n.logger.Warn("domain naming fell back",
			zap.String("domain_id", domainID),
			zap.String("error_kind", string(kind)),
			zap.Error(err),
		)
		return FallbackName(domainID)
	}

	name := strings.TrimSpace(raw)
	name = strings.Trim(name, "\"'“”‘’")
	if name == "" {
		return FallbackName(domainID)
	}
	runes := []rune(name)
	if len(runes) > n.maxChars {
		name = string(runes[:n.maxChars])
	}
	return name
}

// FallbackName is the deterministic name used when the LLM is unreachable
// or returns nothing usable.
func FallbackName(domainID string) string {
	short := domainID
	if len(short) > 8 {
		short = short[:8]
	}
	return "domain-" + short
}
