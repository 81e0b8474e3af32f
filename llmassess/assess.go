package llmassess

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/akfldk1028/ARR-sub002/llm"
	"github.com/akfldk1028/ARR-sub002/llm/tokenizer"
)

// Assessment is the LLM's judgment on whether an expert on a given domain
// could answer a query.
type Assessment struct {
	CanAnswer  bool    `json:"can_answer"`
	Confidence float64 `json:"confidence"`
}

// Assessor asks the routing question "can an expert on this domain answer
// this query". Like Namer it is best-effort: failures return ok=false and
// the coordinator falls back to centroid-similarity-only routing.
type Assessor struct {
	client      llm.Client
	tokenBudget int
	logger      *zap.Logger
}

// NewAssessor builds an Assessor over client.
func NewAssessor(client llm.Client, logger *zap.Logger) *Assessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assessor{
		client:      client,
		tokenBudget: 2000,
		logger:      logger.With(zap.String("component", "domain_assessor")),
	}
}

const assessPromptFormat = `당신은 "%s" 분야의 한국 법령 전문가입니다. 이 분야의 대표 조문은 다음과 같습니다.

%s

질문: %s

이 분야의 전문가가 위 질문에 답할 수 있습니까? 다음 JSON만 출력하세요:
{"can_answer": true|false, "confidence": 0.0~1.0}`

// Assess asks whether a domain named domainName, represented by up to
// three sample paragraphs, can answer query. ok=false means the LLM was
// unreachable or its output unparseable; the caller must not treat that
// as "cannot answer".
func (a *Assessor) Assess(ctx context.Context, domainName string, samples []string, query string) (Assessment, bool) {
	var b strings.Builder
	for i, s := range samples {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	prompt := tokenizer.Truncate(fmt.Sprintf(assessPromptFormat, domainName, b.String(), query), a.tokenBudget)

	raw, err := a.client.Complete(ctx, prompt)
	if err != nil {
		a.logger.Debug("self-assessment unavailable, centroid-only routing",
			zap.String("domain_name", domainName),
			zap.Error(err),
		)
		return Assessment{}, false
	}

	assessment, err := parseAssessment(raw)
	if err != nil {
		a.logger.Warn("self-assessment output unparseable",
			zap.String("domain_name", domainName),
			zap.String("raw", raw),
			zap.Error(err),
		)
		return Assessment{}, false
	}
	return assessment, true
}

// parseAssessment extracts the first JSON object from raw. Providers wrap
// JSON in prose or code fences often enough that a strict Unmarshal of
// the whole response is not workable.
func parseAssessment(raw string) (Assessment, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Assessment{}, fmt.Errorf("no JSON object in response")
	}
	var out Assessment
	if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err != nil {
		return Assessment{}, err
	}
	if out.Confidence < 0 {
		out.Confidence = 0
	}
	if out.Confidence > 1 {
		out.Confidence = 1
	}
	return out, nil
}
