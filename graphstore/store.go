package graphstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/akfldk1028/ARR-sub002/graph"
	"github.com/akfldk1028/ARR-sub002/korerr"
	"github.com/akfldk1028/ARR-sub002/llm/retry"
)

// Store is the GORM-backed graph.Repository implementation. It keeps
// three in-process flat vector indices (paragraph, article,
// relationship/containment-edge) rebuilt from the relational tables,
// since neither the postgres nor sqlite driver this module depends on
// ships a vector extension by default.
//
// Reads are idempotent, and those routed through read() are retried on
// transient transport failure with a short exponential backoff before the
// failure surfaces as repository_unavailable. GetParagraph, GetArticle and
// GetDomain make a single attempt.
type Store struct {
	db      *gorm.DB
	retryer retry.Retryer
	logger  *zap.Logger

	mu           sync.RWMutex
	paragraphIdx *flatIndex
	articleIdx   *flatIndex
	relationIdx  *relationIndex
}

// relationIndex mirrors flatIndex but keyed by a synthetic parent|child id
// since relationship search reports both endpoints.
type relationIndex struct {
	inner *flatIndex
	edges map[string]graph.ScoredRelationship
}

func newRelationIndex() *relationIndex {
	return &relationIndex{inner: newFlatIndex(), edges: make(map[string]graph.ScoredRelationship)}
}

func relationKey(parentID, childID string) string { return parentID + "->" + childID }

// readRetryPolicy caps read retries well below any caller deadline.
func readRetryPolicy() *retry.Policy {
	return &retry.Policy{
		MaxRetries:   2,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     500 * time.Millisecond,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// New opens a Store over db (already connected and migrated by the caller
// via internal/migration) and performs an initial index warm-up.
func New(ctx context.Context, db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "graph_store"))
	s := &Store{
		db:           db,
		retryer:      retry.NewBackoffRetryer(readRetryPolicy(), logger),
		logger:       logger,
		paragraphIdx: newFlatIndex(),
		articleIdx:   newFlatIndex(),
		relationIdx:  newRelationIndex(),
	}
	if err := s.RefreshIndices(ctx); err != nil {
		return nil, fmt.Errorf("graphstore: initial index warm-up: %w", err)
	}
	return s, nil
}

// read runs an idempotent query under the retry policy and classifies the
// terminal failure as repository_unavailable.
func (s *Store) read(ctx context.Context, op func() error) error {
	if err := s.retryer.Do(ctx, op); err != nil {
		return korerr.Wrap(korerr.KindRepositoryUnavailable, err)
	}
	return nil
}

// RefreshIndices reloads the in-memory vector indices from the relational
// tables. Operators should call this after the ingester admits a batch of
// embeddings; the domain manager's admission path (domain.Manager) updates
// membership online and does not require a full refresh for correctness:
// a search observing a newer embedding snapshot than membership snapshot
// at worst fails to find a just-admitted paragraph.
func (s *Store) RefreshIndices(ctx context.Context) error {
	var paragraphs []ParagraphModel
	if err := s.read(ctx, func() error {
		paragraphs = nil
		return s.db.WithContext(ctx).Find(&paragraphs).Error
	}); err != nil {
		return err
	}
	paragraphIdx := newFlatIndex()
	for _, p := range paragraphs {
		if len(p.Embedding) > 0 {
			paragraphIdx.Add(p.ParagraphID, p.Embedding)
		}
	}

	var articles []ArticleModel
	if err := s.read(ctx, func() error {
		articles = nil
		return s.db.WithContext(ctx).Where("has_embedding = ?", true).Find(&articles).Error
	}); err != nil {
		return err
	}
	articleIdx := newFlatIndex()
	for _, a := range articles {
		articleIdx.Add(a.ArticleID, a.Embedding)
	}

	var edges []ContainmentEdgeModel
	if err := s.read(ctx, func() error {
		edges = nil
		return s.db.WithContext(ctx).Where("has_embedding = ?", true).Find(&edges).Error
	}); err != nil {
		return err
	}
	relationIdx := newRelationIndex()
	for _, e := range edges {
		key := relationKey(e.ParentID, e.ChildID)
		relationIdx.inner.Add(key, e.Embedding)
		relationIdx.edges[key] = graph.ScoredRelationship{
			ParentID:  e.ParentID,
			ChildID:   e.ChildID,
			ChildKind: graph.NodeKind(e.ChildKind),
		}
	}

	s.mu.Lock()
	s.paragraphIdx = paragraphIdx
	s.articleIdx = articleIdx
	s.relationIdx = relationIdx
	s.mu.Unlock()

	s.logger.Info("graph store indices refreshed",
		zap.Int("paragraphs", paragraphIdx.Size()),
		zap.Int("articles", articleIdx.Size()),
		zap.Int("relationships", relationIdx.inner.Size()),
	)
	return nil
}

func (s *Store) ListParagraphsWithEmbeddings(ctx context.Context) (graph.ParagraphCursor, error) {
	rows, err := s.db.WithContext(ctx).Model(&ParagraphModel{}).Where("embedding IS NOT NULL").Rows()
	if err != nil {
		return nil, korerr.Wrap(korerr.KindRepositoryUnavailable, err)
	}
	return &paragraphCursor{rows: rows, db: s.db}, nil
}

func (s *Store) ParagraphsInDomain(ctx context.Context, domainID string) ([]string, error) {
	var ids []string
	err := s.read(ctx, func() error {
		ids = nil
		return s.db.WithContext(ctx).Model(&MembershipModel{}).
			Where("domain_id = ?", domainID).Pluck("paragraph_id", &ids).Error
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) domainMembershipFilter(ctx context.Context, domainID string) (map[string]struct{}, error) {
	if domainID == "" {
		return nil, nil
	}
	var ids []string
	err := s.read(ctx, func() error {
		ids = nil
		return s.db.WithContext(ctx).Model(&MembershipModel{}).
			Where("domain_id = ?", domainID).Pluck("paragraph_id", &ids).Error
	})
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (s *Store) ParagraphVectorSearch(ctx context.Context, queryVector []float64, k int, domainFilter string) ([]graph.ScoredParagraph, error) {
	filter, err := s.domainMembershipFilter(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	idx := s.paragraphIdx
	s.mu.RUnlock()

	hits := idx.Search(queryVector, k, filter)
	out := make([]graph.ScoredParagraph, len(hits))
	for i, h := range hits {
		out[i] = graph.ScoredParagraph{ParagraphID: h.id, Similarity: h.score}
	}
	return out, nil
}

func (s *Store) ArticleVectorSearch(ctx context.Context, queryVector []float64, k int, domainFilter string) ([]graph.ScoredArticle, error) {
	var filter map[string]struct{}
	if domainFilter != "" {
		// Articles don't carry membership edges directly; restrict to
		// articles whose child paragraphs are in the domain.
		var articleIDs []string
		err := s.read(ctx, func() error {
			articleIDs = nil
			return s.db.WithContext(ctx).Model(&ParagraphModel{}).
				Joins("JOIN memberships ON memberships.paragraph_id = paragraphs.paragraph_id").
				Where("memberships.domain_id = ?", domainFilter).
				Distinct().Pluck("article_id", &articleIDs).Error
		})
		if err != nil {
			return nil, err
		}
		filter = make(map[string]struct{}, len(articleIDs))
		for _, id := range articleIDs {
			filter[id] = struct{}{}
		}
	}

	s.mu.RLock()
	idx := s.articleIdx
	s.mu.RUnlock()

	hits := idx.Search(queryVector, k, filter)
	out := make([]graph.ScoredArticle, len(hits))
	for i, h := range hits {
		out[i] = graph.ScoredArticle{ArticleID: h.id, Similarity: h.score}
	}
	return out, nil
}

func (s *Store) RelationshipVectorSearch(ctx context.Context, queryVector []float64, k int) ([]graph.ScoredRelationship, error) {
	s.mu.RLock()
	idx := s.relationIdx
	s.mu.RUnlock()

	hits := idx.inner.Search(queryVector, k, nil)
	out := make([]graph.ScoredRelationship, 0, len(hits))
	for _, h := range hits {
		edge := idx.edges[h.id]
		edge.Similarity = h.score
		out = append(out, edge)
	}
	return out, nil
}

func (s *Store) NeighborsOf(ctx context.Context, id string, kind graph.NodeKind) ([]graph.Neighbor, error) {
	var neighbors []graph.Neighbor

	var parentEdges []ContainmentEdgeModel
	if err := s.read(ctx, func() error {
		parentEdges = nil
		return s.db.WithContext(ctx).Where("child_id = ?", id).Find(&parentEdges).Error
	}); err != nil {
		return nil, err
	}
	for _, e := range parentEdges {
		neighbors = append(neighbors, graph.Neighbor{
			NeighborID: e.ParentID, NeighborKind: graph.NodeKind(e.ParentKind), Relation: graph.RelationContainmentParent,
		})
	}

	var childEdges []ContainmentEdgeModel
	if err := s.read(ctx, func() error {
		childEdges = nil
		return s.db.WithContext(ctx).Where("parent_id = ?", id).Find(&childEdges).Error
	}); err != nil {
		return nil, err
	}
	for _, e := range childEdges {
		neighbors = append(neighbors, graph.Neighbor{
			NeighborID: e.ChildID, NeighborKind: graph.NodeKind(e.ChildKind), Relation: graph.RelationContainmentChild,
		})
	}

	if kind == graph.NodeParagraph {
		var self ParagraphModel
		if err := s.db.WithContext(ctx).Where("paragraph_id = ?", id).First(&self).Error; err == nil {
			var siblings []ParagraphModel
			if err := s.db.WithContext(ctx).Where("article_id = ? AND paragraph_id <> ?", self.ArticleID, id).
				Find(&siblings).Error; err == nil {
				for _, sib := range siblings {
					neighbors = append(neighbors, graph.Neighbor{
						NeighborID: sib.ParagraphID, NeighborKind: graph.NodeParagraph, Relation: graph.RelationSibling,
					})
				}
			}
		}

		var citations []CitationEdgeModel
		if err := s.read(ctx, func() error {
			citations = nil
			return s.db.WithContext(ctx).Where("from_paragraph_id = ?", id).Find(&citations).Error
		}); err != nil {
			return nil, err
		}
		for _, c := range citations {
			neighbors = append(neighbors, graph.Neighbor{
				NeighborID: c.ToID, NeighborKind: graph.NodeKind(c.ToKind), Relation: graph.RelationCitation,
			})
		}
	}

	return neighbors, nil
}

func (s *Store) ExactMatch(ctx context.Context, articleNumber string) ([]string, error) {
	var ids []string
	err := s.read(ctx, func() error {
		ids = nil
		return s.db.WithContext(ctx).Model(&ParagraphModel{}).
			Joins("JOIN articles ON articles.article_id = paragraphs.article_id").
			Where("articles.number = ?", articleNumber).
			Pluck("paragraphs.paragraph_id", &ids).Error
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) GetParagraph(ctx context.Context, paragraphID string) (graph.Paragraph, error) {
	var m ParagraphModel
	if err := s.db.WithContext(ctx).Where("paragraph_id = ?", paragraphID).First(&m).Error; err != nil {
		return graph.Paragraph{}, korerr.Wrap(korerr.KindRepositoryUnavailable, err)
	}
	return graph.Paragraph{ParagraphID: m.ParagraphID, ArticleID: m.ArticleID, Content: m.Content, Embedding: m.Embedding}, nil
}

func (s *Store) GetArticle(ctx context.Context, articleID string) (graph.Article, error) {
	var m ArticleModel
	if err := s.db.WithContext(ctx).Where("article_id = ?", articleID).First(&m).Error; err != nil {
		return graph.Article{}, korerr.Wrap(korerr.KindRepositoryUnavailable, err)
	}
	return graph.Article{
		ArticleID: m.ArticleID, StatuteID: m.StatuteID, Number: m.Number, Title: m.Title,
		ParentArticleID: m.ParentArticleID, Embedding: m.Embedding, HasEmbedding: m.HasEmbedding,
	}, nil
}

func (s *Store) ChildParagraphsOf(ctx context.Context, articleID string) ([]string, error) {
	var ids []string
	err := s.read(ctx, func() error {
		ids = nil
		return s.db.WithContext(ctx).Model(&ParagraphModel{}).Where("article_id = ?", articleID).
			Pluck("paragraph_id", &ids).Error
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) UpsertDomain(ctx context.Context, domainID, name string, centroid []float64, size int, neighbors []string) error {
	m := DomainModel{DomainID: domainID, Name: name, Centroid: centroid, Size: size, Neighbors: neighbors}
	err := s.db.WithContext(ctx).Save(&m).Error
	if err != nil {
		return korerr.Wrap(korerr.KindRepositoryUnavailable, err)
	}
	return nil
}

func (s *Store) DeleteDomain(ctx context.Context, domainID string) error {
	err := s.db.WithContext(ctx).Where("domain_id = ?", domainID).Delete(&DomainModel{}).Error
	if err != nil {
		return korerr.Wrap(korerr.KindRepositoryUnavailable, err)
	}
	return nil
}

func (s *Store) SetMembership(ctx context.Context, paragraphID, domainID string) error {
	m := MembershipModel{ParagraphID: paragraphID, DomainID: domainID}
	err := s.db.WithContext(ctx).Save(&m).Error
	if err != nil {
		return korerr.Wrap(korerr.KindRepositoryUnavailable, err)
	}
	return nil
}

func (s *Store) ListDomains(ctx context.Context) ([]graph.Domain, error) {
	var models []DomainModel
	err := s.read(ctx, func() error {
		models = nil
		return s.db.WithContext(ctx).Find(&models).Error
	})
	if err != nil {
		return nil, err
	}
	out := make([]graph.Domain, len(models))
	for i, m := range models {
		out[i] = modelToDomain(m)
	}
	return out, nil
}

func (s *Store) GetDomain(ctx context.Context, domainID string) (graph.Domain, bool, error) {
	var m DomainModel
	err := s.db.WithContext(ctx).Where("domain_id = ?", domainID).First(&m).Error
	if err == gorm.ErrRecordNotFound {
		return graph.Domain{}, false, nil
	}
	if err != nil {
		return graph.Domain{}, false, korerr.Wrap(korerr.KindRepositoryUnavailable, err)
	}
	return modelToDomain(m), true, nil
}

func modelToDomain(m DomainModel) graph.Domain {
	return graph.Domain{DomainID: m.DomainID, Name: m.Name, Centroid: m.Centroid, Size: m.Size, Neighbors: m.Neighbors}
}

// WithinTransaction runs fn inside a single SQL transaction. A domain
// write commits or rolls back as a unit so concurrent searches never
// observe a torn partition. Writes are not retried: the transaction
// either commits once or the caller re-runs the whole operation.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx graph.Repository) error) error {
	return s.db.WithContext(ctx).Transaction(func(txDB *gorm.DB) error {
		txStore := &Store{db: txDB, retryer: s.retryer, logger: s.logger, paragraphIdx: s.paragraphIdx, articleIdx: s.articleIdx, relationIdx: s.relationIdx}
		return fn(ctx, txStore)
	})
}

var _ graph.Repository = (*Store)(nil)
