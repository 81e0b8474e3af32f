package korean

import (
	"regexp"
	"strings"
)

// ArticleReference is a parsed Korean statutory citation such as
// "제36조의2제1항" -> ArticleNumber "36의2", ParagraphNumber "1".
type ArticleReference struct {
	ArticleNumber   string
	ParagraphNumber string // empty when the reference names no paragraph
}

// referencePattern matches 제N조[의M][제K항] tolerating internal whitespace
// between the digit groups and their particles, e.g. "제 36 조의 2".
var referencePattern = regexp.MustCompile(
	`제\s*(\d+)\s*조(?:\s*의\s*(\d+))?(?:\s*제\s*(\d+)\s*항)?`,
)

// DetectReferences scans query text for every article reference it
// contains and returns them in order of appearance. Overlapping or
// duplicate references are returned once each occurrence in the text.
func DetectReferences(query string) []ArticleReference {
	normalized := Normalize(query)
	matches := referencePattern.FindAllStringSubmatch(normalized, -1)
	refs := make([]ArticleReference, 0, len(matches))
	for _, m := range matches {
		articleNumber := m[1]
		if m[2] != "" {
			articleNumber += "의" + m[2]
		}
		refs = append(refs, ArticleReference{
			ArticleNumber:   articleNumber,
			ParagraphNumber: m[3],
		})
	}
	return refs
}

// Normalize collapses whitespace variants so the regex above matches
// consistently regardless of spacing the user typed. It does not alter
// the semantic content of the text otherwise.
func Normalize(query string) string {
	fields := strings.Fields(query)
	return strings.Join(fields, " ")
}
