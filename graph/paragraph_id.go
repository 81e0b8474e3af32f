package graph

import (
	"fmt"
	"strings"
)

// paragraphIDSeparator joins the three components of a paragraph_id. It is
// chosen to never collide with a Korean article number, which never
// contains ':'.
const paragraphIDSeparator = ":"

// EncodeParagraphID builds the globally unique, decodable paragraph_id:
// it encodes statute kind, article number, and paragraph number so that two paragraphs with
// identical article/paragraph numbers but different statute kinds are
// distinct entities.
func EncodeParagraphID(kind StatuteKind, articleNumber, paragraphNumber string) string {
	return strings.Join([]string{string(kind), articleNumber, paragraphNumber}, paragraphIDSeparator)
}

// DecodedParagraphID is the result of decoding a paragraph_id back into
// its display components for result records.
type DecodedParagraphID struct {
	StatuteKind     StatuteKind
	ArticleNumber   string
	ParagraphNumber string
}

// DecodeParagraphID reverses EncodeParagraphID. It returns an error if id
// was not produced by EncodeParagraphID (or equivalently shaped), which
// callers should treat as a dimension/format mismatch rather than silently
// guessing.
func DecodeParagraphID(id string) (DecodedParagraphID, error) {
	parts := strings.SplitN(id, paragraphIDSeparator, 3)
	if len(parts) != 3 {
		return DecodedParagraphID{}, fmt.Errorf("paragraph_id %q is not in kind:article:paragraph form", id)
	}
	return DecodedParagraphID{
		StatuteKind:     StatuteKind(parts[0]),
		ArticleNumber:   parts[1],
		ParagraphNumber: parts[2],
	}, nil
}

// IsAppendix reports whether a decoded paragraph identifier names an
// appendix/transitional-provisions article, which the search pipeline
// penalizes after fusion. Appendix articles carry "부칙"
// somewhere in their article number (e.g. "부칙2" or "부칙"), mirroring the
// ingester's own encoding of transitional provisions.
func (d DecodedParagraphID) IsAppendix() bool {
	return strings.Contains(d.ArticleNumber, "부칙")
}

// MatchesArticleNumber reports whether this decoded id names the same
// article as articleNumber; exact-match lookup accepts a paragraph when
// the normalized article reference found in the query appears in its
// decoded paragraph_id.
func (d DecodedParagraphID) MatchesArticleNumber(articleNumber string) bool {
	return d.ArticleNumber == articleNumber
}
