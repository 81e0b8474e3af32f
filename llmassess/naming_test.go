package llmassess

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/akfldk1028/ARR-sub002/testutil/mocks"
)

func TestNamer_UsesLLMAnswer(t *testing.T) {
	n := NewNamer(&mocks.LLMClient{Response: "  \"도시계획 및 용도지역\"  "}, 15, zap.NewNop())
	name := n.Name(context.Background(), "abc123", []string{"용도지역의 지정", "용도지구의 지정"})
	assert.Equal(t, "도시계획 및 용도지역", name)
}

func TestNamer_TruncatesOverlongNames(t *testing.T) {
	long := strings.Repeat("가", 40)
	n := NewNamer(&mocks.LLMClient{Response: long}, 15, zap.NewNop())
	name := n.Name(context.Background(), "abc123", []string{"본문"})
	assert.Equal(t, 15, len([]rune(name)))
}

func TestNamer_FallsBackWhenUnreachable(t *testing.T) {
	n := NewNamer(&mocks.LLMClient{Err: errors.New("connection refused")}, 15, zap.NewNop())
	name := n.Name(context.Background(), "abc12345xyz", []string{"본문"})
	assert.Equal(t, "domain-abc12345", name)
}

func TestNamer_FallsBackOnEmptySamples(t *testing.T) {
	n := NewNamer(&mocks.LLMClient{Response: "무의미"}, 15, zap.NewNop())
	assert.Equal(t, FallbackName("short"), n.Name(context.Background(), "short", nil))
}

func TestNamer_AcceptsNonKoreanOutput(t *testing.T) {
	n := NewNamer(&mocks.LLMClient{Response: "zoning law"}, 15, zap.NewNop())
	assert.Equal(t, "zoning law", n.Name(context.Background(), "abc", []string{"본문"}))
}
