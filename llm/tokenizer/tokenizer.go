// Package tokenizer wraps tiktoken for prompt budgeting. Domain naming
// samples up to twenty paragraph snippets per cluster; Korean statutory
// paragraphs run long, so the assembled prompt is truncated to a token
// budget before it reaches the provider.
package tokenizer

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

var (
	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
)

func encoding() (*tiktoken.Tiktoken, error) {
	once.Do(func() {
		enc, err = tiktoken.GetEncoding(defaultEncoding)
	})
	return enc, err
}

// CountTokens returns the token count of text, or a rune-based estimate
// when the encoding cannot be loaded (offline BPE file missing).
func CountTokens(text string) int {
	e, loadErr := encoding()
	if loadErr != nil {
		// Roughly one token per 2 runes for Korean text.
		return (len([]rune(text)) + 1) / 2
	}
	return len(e.Encode(text, nil, nil))
}

// Truncate cuts text to at most maxTokens tokens, preserving a prefix.
func Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	e, loadErr := encoding()
	if loadErr != nil {
		runes := []rune(text)
		if len(runes) <= maxTokens*2 {
			return text
		}
		return string(runes[:maxTokens*2])
	}
	tokens := e.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return e.Decode(tokens[:maxTokens])
}
