package korean

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectReferencesSimple(t *testing.T) {
	refs := DetectReferences("제36조는 무엇을 규정하는가?")
	require.Len(t, refs, 1)
	assert.Equal(t, "36", refs[0].ArticleNumber)
	assert.Equal(t, "", refs[0].ParagraphNumber)
}

func TestDetectReferencesSubArticle(t *testing.T) {
	refs := DetectReferences("제36조의2를 참고하라")
	require.Len(t, refs, 1)
	assert.Equal(t, "36의2", refs[0].ArticleNumber)
}

func TestDetectReferencesWithParagraph(t *testing.T) {
	refs := DetectReferences("제36조제1항에 따르면")
	require.Len(t, refs, 1)
	assert.Equal(t, "36", refs[0].ArticleNumber)
	assert.Equal(t, "1", refs[0].ParagraphNumber)
}

func TestDetectReferencesSubArticleWithParagraph(t *testing.T) {
	refs := DetectReferences("제36조의2제1항")
	require.Len(t, refs, 1)
	assert.Equal(t, "36의2", refs[0].ArticleNumber)
	assert.Equal(t, "1", refs[0].ParagraphNumber)
}

func TestDetectReferencesToleratesInternalWhitespace(t *testing.T) {
	refs := DetectReferences("제 36 조 의 2")
	require.Len(t, refs, 1)
	assert.Equal(t, "36의2", refs[0].ArticleNumber)
}

func TestDetectReferencesMultiple(t *testing.T) {
	refs := DetectReferences("제36조와 제12조를 비교하라")
	require.Len(t, refs, 2)
	assert.Equal(t, "36", refs[0].ArticleNumber)
	assert.Equal(t, "12", refs[1].ArticleNumber)
}

func TestDetectReferencesNone(t *testing.T) {
	refs := DetectReferences("용도지역이란 무엇인가요?")
	assert.Empty(t, refs)
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "제36조", Normalize("제36조"))
	assert.Equal(t, "제 36 조", Normalize("제   36    조"))
}
