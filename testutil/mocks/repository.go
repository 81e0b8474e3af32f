// Package mocks provides in-memory test doubles for the core's external
// boundaries, chiefly an in-memory graph.Repository with the same
// semantics as the GORM-backed store: flat cosine vector probes, domain
// membership filters, and transactional rollback on error.
package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/akfldk1028/ARR-sub002/graph"
	"github.com/akfldk1028/ARR-sub002/vectormath"
)

// GraphRepo is an in-memory graph.Repository.
type GraphRepo struct {
	mu          sync.Mutex
	Paragraphs  map[string]graph.Paragraph
	Articles    map[string]graph.Article
	Domains     map[string]graph.Domain
	Membership  map[string]string // paragraph_id -> domain_id
	Containment []graph.ContainmentEdge
	Citations   []graph.CitationEdge

	// FailWith, when set, makes every operation return this error,
	// simulating an unreachable store.
	FailWith error
}

// NewGraphRepo returns an empty repository.
func NewGraphRepo() *GraphRepo {
	return &GraphRepo{
		Paragraphs: map[string]graph.Paragraph{},
		Articles:   map[string]graph.Article{},
		Domains:    map[string]graph.Domain{},
		Membership: map[string]string{},
	}
}

// AddParagraph inserts a paragraph (and its owning article row if absent)
// and returns the encoded paragraph_id.
func (r *GraphRepo) AddParagraph(kind graph.StatuteKind, articleNumber, paragraphNumber, content string, embedding []float64) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	articleID := string(kind) + ":" + articleNumber
	if _, ok := r.Articles[articleID]; !ok {
		r.Articles[articleID] = graph.Article{
			ArticleID: articleID,
			StatuteID: string(kind),
			Number:    articleNumber,
		}
	}
	id := graph.EncodeParagraphID(kind, articleNumber, paragraphNumber)
	r.Paragraphs[id] = graph.Paragraph{
		ParagraphID: id,
		ArticleID:   articleID,
		Content:     content,
		Embedding:   embedding,
	}
	return id
}

// SetArticleEmbedding attaches an embedding to an existing article.
func (r *GraphRepo) SetArticleEmbedding(articleID string, embedding []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.Articles[articleID]
	a.Embedding = embedding
	a.HasEmbedding = true
	r.Articles[articleID] = a
}

// AddContainment records a parent -> child edge, optionally embedded.
func (r *GraphRepo) AddContainment(parentID string, parentKind graph.NodeKind, childID string, childKind graph.NodeKind, embedding []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Containment = append(r.Containment, graph.ContainmentEdge{
		ParentID:     parentID,
		ParentKind:   parentKind,
		ChildID:      childID,
		ChildKind:    childKind,
		Embedding:    embedding,
		HasEmbedding: len(embedding) > 0,
	})
}

// AddCitation records a paragraph -> node citation edge.
func (r *GraphRepo) AddCitation(fromParagraphID, toID string, toKind graph.NodeKind, kind graph.CitationKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Citations = append(r.Citations, graph.CitationEdge{
		FromParagraphID: fromParagraphID,
		ToID:            toID,
		ToKind:          toKind,
		CitationKind:    kind,
	})
}

type memCursor struct {
	items []graph.ParagraphEmbedding
	pos   int
}

func (c *memCursor) Next(ctx context.Context) bool {
	if c.pos >= len(c.items) {
		return false
	}
	c.pos++
	return true
}
func (c *memCursor) Value() graph.ParagraphEmbedding { return c.items[c.pos-1] }
func (c *memCursor) Err() error                      { return nil }
func (c *memCursor) Close() error                    { return nil }

func (r *GraphRepo) ListParagraphsWithEmbeddings(ctx context.Context) (graph.ParagraphCursor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	var items []graph.ParagraphEmbedding
	for _, p := range r.Paragraphs {
		if len(p.Embedding) > 0 {
			items = append(items, graph.ParagraphEmbedding{ParagraphID: p.ParagraphID, Embedding: p.Embedding})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ParagraphID < items[j].ParagraphID })
	return &memCursor{items: items}, nil
}

func (r *GraphRepo) ParagraphsInDomain(ctx context.Context, domainID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	var out []string
	for pid, did := range r.Membership {
		if did == domainID {
			out = append(out, pid)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *GraphRepo) ParagraphVectorSearch(ctx context.Context, queryVector []float64, k int, domainFilter string) ([]graph.ScoredParagraph, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	var hits []graph.ScoredParagraph
	for id, p := range r.Paragraphs {
		if len(p.Embedding) == 0 {
			continue
		}
		if domainFilter != "" && r.Membership[id] != domainFilter {
			continue
		}
		hits = append(hits, graph.ScoredParagraph{ParagraphID: id, Similarity: vectormath.Cosine(queryVector, p.Embedding)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ParagraphID < hits[j].ParagraphID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (r *GraphRepo) ArticleVectorSearch(ctx context.Context, queryVector []float64, k int, domainFilter string) ([]graph.ScoredArticle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	inDomain := map[string]bool{}
	if domainFilter != "" {
		for pid, did := range r.Membership {
			if did == domainFilter {
				inDomain[r.Paragraphs[pid].ArticleID] = true
			}
		}
	}
	var hits []graph.ScoredArticle
	for id, a := range r.Articles {
		if !a.HasEmbedding {
			continue
		}
		if domainFilter != "" && !inDomain[id] {
			continue
		}
		hits = append(hits, graph.ScoredArticle{ArticleID: id, Similarity: vectormath.Cosine(queryVector, a.Embedding)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ArticleID < hits[j].ArticleID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (r *GraphRepo) RelationshipVectorSearch(ctx context.Context, queryVector []float64, k int) ([]graph.ScoredRelationship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	var hits []graph.ScoredRelationship
	for _, e := range r.Containment {
		if !e.HasEmbedding {
			continue
		}
		hits = append(hits, graph.ScoredRelationship{
			ParentID:   e.ParentID,
			ChildID:    e.ChildID,
			ChildKind:  e.ChildKind,
			Similarity: vectormath.Cosine(queryVector, e.Embedding),
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChildID < hits[j].ChildID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (r *GraphRepo) NeighborsOf(ctx context.Context, id string, kind graph.NodeKind) ([]graph.Neighbor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	var out []graph.Neighbor
	for _, e := range r.Containment {
		if e.ChildID == id {
			out = append(out, graph.Neighbor{NeighborID: e.ParentID, NeighborKind: e.ParentKind, Relation: graph.RelationContainmentParent})
		}
		if e.ParentID == id {
			out = append(out, graph.Neighbor{NeighborID: e.ChildID, NeighborKind: e.ChildKind, Relation: graph.RelationContainmentChild})
		}
	}
	if kind == graph.NodeParagraph {
		if self, ok := r.Paragraphs[id]; ok {
			for pid, p := range r.Paragraphs {
				if pid != id && p.ArticleID == self.ArticleID {
					out = append(out, graph.Neighbor{NeighborID: pid, NeighborKind: graph.NodeParagraph, Relation: graph.RelationSibling})
				}
			}
		}
		for _, c := range r.Citations {
			if c.FromParagraphID == id {
				out = append(out, graph.Neighbor{NeighborID: c.ToID, NeighborKind: c.ToKind, Relation: graph.RelationCitation})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NeighborID < out[j].NeighborID })
	return out, nil
}

func (r *GraphRepo) ExactMatch(ctx context.Context, articleNumber string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	var out []string
	for id := range r.Paragraphs {
		decoded, err := graph.DecodeParagraphID(id)
		if err != nil {
			continue
		}
		if decoded.MatchesArticleNumber(articleNumber) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *GraphRepo) GetParagraph(ctx context.Context, paragraphID string) (graph.Paragraph, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return graph.Paragraph{}, r.FailWith
	}
	p, ok := r.Paragraphs[paragraphID]
	if !ok {
		return graph.Paragraph{}, errNotFound(paragraphID)
	}
	return p, nil
}

func (r *GraphRepo) GetArticle(ctx context.Context, articleID string) (graph.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return graph.Article{}, r.FailWith
	}
	a, ok := r.Articles[articleID]
	if !ok {
		return graph.Article{}, errNotFound(articleID)
	}
	return a, nil
}

func (r *GraphRepo) ChildParagraphsOf(ctx context.Context, articleID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	var out []string
	for id, p := range r.Paragraphs {
		if p.ArticleID == articleID {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *GraphRepo) UpsertDomain(ctx context.Context, domainID, name string, centroid []float64, size int, neighbors []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return r.FailWith
	}
	r.Domains[domainID] = graph.Domain{
		DomainID:  domainID,
		Name:      name,
		Centroid:  append([]float64(nil), centroid...),
		Size:      size,
		Neighbors: append([]string(nil), neighbors...),
	}
	return nil
}

func (r *GraphRepo) DeleteDomain(ctx context.Context, domainID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return r.FailWith
	}
	delete(r.Domains, domainID)
	return nil
}

func (r *GraphRepo) SetMembership(ctx context.Context, paragraphID, domainID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return r.FailWith
	}
	r.Membership[paragraphID] = domainID
	return nil
}

func (r *GraphRepo) ListDomains(ctx context.Context) ([]graph.Domain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	var out []graph.Domain
	for _, d := range r.Domains {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DomainID < out[j].DomainID })
	return out, nil
}

func (r *GraphRepo) GetDomain(ctx context.Context, domainID string) (graph.Domain, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return graph.Domain{}, false, r.FailWith
	}
	d, ok := r.Domains[domainID]
	return d, ok, nil
}

// WithinTransaction snapshots domain and membership state and restores it
// when fn fails, mirroring the SQL store's rollback.
func (r *GraphRepo) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx graph.Repository) error) error {
	r.mu.Lock()
	if r.FailWith != nil {
		r.mu.Unlock()
		return r.FailWith
	}
	savedDomains := make(map[string]graph.Domain, len(r.Domains))
	for k, v := range r.Domains {
		savedDomains[k] = v
	}
	savedMembership := make(map[string]string, len(r.Membership))
	for k, v := range r.Membership {
		savedMembership[k] = v
	}
	r.mu.Unlock()

	if err := fn(ctx, r); err != nil {
		r.mu.Lock()
		r.Domains = savedDomains
		r.Membership = savedMembership
		r.mu.Unlock()
		return err
	}
	return nil
}

type errNotFound string

func (e errNotFound) Error() string { return "not found: " + string(e) }

var _ graph.Repository = (*GraphRepo)(nil)
