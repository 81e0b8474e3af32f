package graph

import "context"

// ParagraphCursor streams (paragraph_id, embedding) pairs for every
// embedded paragraph in the corpus. It is restartable: calling
// Repository.ListParagraphsWithEmbeddings again opens an independent
// cursor from the start.
type ParagraphCursor interface {
	Next(ctx context.Context) bool
	Value() ParagraphEmbedding
	Err() error
	Close() error
}

// Repository is the sole interface through which the rest of the core
// reads and writes the graph. No other component may issue queries to
// the backing store directly. Every read is idempotent and safe to retry
// on transient transport failure; implementations apply retry/backoff
// themselves (graphstore uses llm/retry) rather than push that policy
// onto callers.
type Repository interface {
	// ListParagraphsWithEmbeddings returns a restartable cursor over every
	// paragraph that has an embedding. Used at startup by the partition
	// store.
	ListParagraphsWithEmbeddings(ctx context.Context) (ParagraphCursor, error)

	// ParagraphsInDomain returns the current membership of domainID as
	// persisted (not an in-memory view).
	ParagraphsInDomain(ctx context.Context, domainID string) ([]string, error)

	// ParagraphVectorSearch returns the top-k paragraphs by cosine
	// similarity to queryVector. domainFilter, when non-empty, restricts
	// the search to that domain's membership; an empty domainFilter
	// searches the whole corpus.
	ParagraphVectorSearch(ctx context.Context, queryVector []float64, k int, domainFilter string) ([]ScoredParagraph, error)

	// ArticleVectorSearch mirrors ParagraphVectorSearch over the subset of
	// articles that carry an embedding; coverage is partial and callers
	// must tolerate zero hits.
	ArticleVectorSearch(ctx context.Context, queryVector []float64, k int, domainFilter string) ([]ScoredArticle, error)

	// RelationshipVectorSearch returns the top-k containment edges by
	// edge-embedding similarity to queryVector.
	RelationshipVectorSearch(ctx context.Context, queryVector []float64, k int) ([]ScoredRelationship, error)

	// NeighborsOf returns containment parents, sibling paragraphs under the
	// same article, containment children, and citation targets of id.
	NeighborsOf(ctx context.Context, id string, kind NodeKind) ([]Neighbor, error)

	// ExactMatch returns every paragraph_id whose decoded identifier names
	// articleNumber, an article number the caller has taken from a
	// reference detected by korean.DetectReferences.
	ExactMatch(ctx context.Context, articleNumber string) ([]string, error)

	// GetParagraph fetches a single paragraph's content and embedding.
	GetParagraph(ctx context.Context, paragraphID string) (Paragraph, error)

	// GetArticle fetches a single article, including its embedding when
	// present (Article.HasEmbedding reports which).
	GetArticle(ctx context.Context, articleID string) (Article, error)

	// ChildParagraphsOf returns every paragraph directly contained by
	// articleID, used to fold an article hit back into paragraph
	// candidates.
	ChildParagraphsOf(ctx context.Context, articleID string) ([]string, error)

	// UpsertDomain creates or replaces domainID's metadata, including the
	// cached member count. It is the only way domain metadata is written.
	UpsertDomain(ctx context.Context, domainID, name string, centroid []float64, size int, neighbors []string) error

	// DeleteDomain removes a domain node. Callers must have already moved
	// its membership edges elsewhere.
	DeleteDomain(ctx context.Context, domainID string) error

	// SetMembership writes (or overwrites) paragraphID's single membership
	// edge to domainID.
	SetMembership(ctx context.Context, paragraphID, domainID string) error

	// ListDomains returns every currently persisted domain's metadata.
	ListDomains(ctx context.Context) ([]Domain, error)

	// GetDomain fetches one domain's metadata, ok=false if it does not
	// exist; callers must treat a vanished id as "re-route the query".
	GetDomain(ctx context.Context, domainID string) (domain Domain, ok bool, err error)

	// WithinTransaction runs fn against a Repository scoped to a single
	// domain-write transaction; fn's writes are visible atomically to
	// subsequent snapshots only if fn returns nil.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error
}
