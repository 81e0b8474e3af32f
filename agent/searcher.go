package agent

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/akfldk1028/ARR-sub002/config"
	"github.com/akfldk1028/ARR-sub002/domain"
	"github.com/akfldk1028/ARR-sub002/embedding"
	"github.com/akfldk1028/ARR-sub002/graph"
	"github.com/akfldk1028/ARR-sub002/internal/metrics"
	"github.com/akfldk1028/ARR-sub002/korean"
	"github.com/akfldk1028/ARR-sub002/korerr"
)

// Searcher runs the hybrid pipeline for any domain. It is stateless with
// respect to the partition: the domain to search is a parameter.
type Searcher struct {
	repo      graph.Repository
	provider  embedding.Provider
	config    config.SearchConfig
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewSearcher wires a Searcher. collector may be nil.
func NewSearcher(repo graph.Repository, provider embedding.Provider, cfg config.SearchConfig, collector *metrics.Collector, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		repo:      repo,
		provider:  provider,
		config:    cfg,
		collector: collector,
		logger:    logger.With(zap.String("component", "domain_agent")),
	}
}

// Options tunes one Search call.
type Options struct {
	// QueryVector, when non-nil, skips re-embedding the query. The
	// coordinator embeds once and shares the vector across agents.
	QueryVector []float64

	// IsConsultation marks a neighbor-consultation call; consultation
	// calls never consult further neighbors, preventing cycles.
	IsConsultation bool

	// Progress receives pipeline events. May be nil.
	Progress ProgressFunc
}

// Search executes the pipeline over one domain state pinned from
// snapshot. The soft deadline applies to the whole call: when it
// expires between steps, whatever has been collected so far is fused and
// returned rather than an error.
func (s *Searcher) Search(ctx context.Context, st *domain.State, snapshot *domain.Snapshot, query string, limit int, opts Options) (Result, error) {
	ctx, span := otel.Tracer("korlaw/agent").Start(ctx, "domain_agent.search",
		trace.WithAttributes(attribute.String("domain.id", st.DomainID)))
	defer span.End()
	started := time.Now()
	if limit <= 0 {
		limit = 10
	}
	deadline := s.config.AgentDeadline
	if deadline <= 0 {
		deadline = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	emit := opts.Progress
	if emit == nil {
		emit = func(string) {}
	}

	pool := candidateSet{}

	// Step 1: exact article-reference lookup.
	refs := korean.DetectReferences(query)
	if err := s.exactMatch(ctx, st, refs, pool); err != nil && !softExpired(ctx, err) {
		return Result{}, err
	}
	emit(EventExactMatch)

	// Step 2: query embedding.
	queryVec := opts.QueryVector
	if queryVec == nil {
		vec, err := s.provider.Embed(ctx, query)
		if err != nil {
			return Result{}, korerr.Wrap(korerr.KindEmbeddingUnavailable, err)
		}
		queryVec = vec
	}
	if err := embedding.CheckDimension(queryVec, s.provider.Dimensions()); err != nil {
		return Result{}, err
	}

	k := s.config.ParagraphSearchKMultiplier * limit
	if k <= 0 {
		k = 2 * limit
	}

	// Steps 3-5 and the expansion walk degrade to partial results on the
	// soft deadline: each step checks for expiry before starting.
	if ctx.Err() == nil {
		if err := s.paragraphVector(ctx, st, queryVec, k, pool); err != nil && !softExpired(ctx, err) {
			return Result{}, err
		}
		if err := s.articleVector(ctx, st, queryVec, k, pool); err != nil && !softExpired(ctx, err) {
			return Result{}, err
		}
	}
	emit(EventParagraphVector)

	if ctx.Err() == nil {
		if err := s.relationshipVector(ctx, st, queryVec, k, pool); err != nil && !softExpired(ctx, err) {
			return Result{}, err
		}
	}
	emit(EventRelationshipVector)

	if ctx.Err() == nil {
		s.expand(ctx, st, queryVec, pool)
	}
	emit(EventExpansion)

	// Steps 7-10: normalize, fuse, penalize, self-assess.
	fused := s.fuse(pool)
	confidence := s.confidence(fused)

	// Step 11: neighbor consultation.
	var consulted []string
	if confidence < s.config.CollabConfidenceThreshold && !opts.IsConsultation && ctx.Err() == nil {
		emit(EventCollaboration)
		consulted = s.consult(ctx, st, snapshot, query, queryVec, limit, pool)
		if len(consulted) > 0 {
			fused = s.fuse(pool)
			confidence = s.confidence(fused)
		}
	}

	// Step 12: truncate and materialize.
	if len(fused) > limit {
		fused = fused[:limit]
	}
	records, err := s.materialize(ctx, st, fused)
	if err != nil {
		return Result{}, err
	}

	if s.collector != nil {
		s.collector.RecordDomainSearch(st.DomainID, "ok", time.Since(started), confidence)
	}
	emit(EventComplete)
	return Result{
		DomainID:   st.DomainID,
		Records:    records,
		Confidence: confidence,
		Consulted:  consulted,
	}, nil
}

// softExpired reports whether err is only the soft deadline firing, in
// which case the pipeline finalizes partial results instead of failing.
func softExpired(ctx context.Context, err error) bool {
	return ctx.Err() != nil
}

// materialize decodes ids and fetches display content for the surviving
// candidates.
func (s *Searcher) materialize(ctx context.Context, st *domain.State, fused []*candidate) ([]Record, error) {
	records := make([]Record, 0, len(fused))
	for _, c := range fused {
		decoded, err := graph.DecodeParagraphID(c.id)
		if err != nil {
			s.logger.Warn("skipping undecodable paragraph_id", zap.String("paragraph_id", c.id), zap.Error(err))
			continue
		}
		content := ""
		if p, err := s.repo.GetParagraph(ctx, c.id); err == nil {
			content = p.Content
		}
		source := c.source
		if source == "" {
			source = st.DomainID
		}
		records = append(records, Record{
			ParagraphID:     c.id,
			Content:         content,
			StatuteKind:     decoded.StatuteKind,
			ArticleNumber:   decoded.ArticleNumber,
			ParagraphNumber: decoded.ParagraphNumber,
			Score:           c.fused,
			Stages:          c.stageNames(),
			SourceDomain:    source,
		})
	}
	return records, nil
}

// confidence implements the self-assessment rule: the fused score of the
// top result, stepped down when fewer than three results survived or the
// top-two gap is narrow.
func (s *Searcher) confidence(fused []*candidate) float64 {
	if len(fused) == 0 {
		return 0
	}
	conf := fused[0].fused
	if len(fused) < 3 {
		conf -= 0.2
	}
	if len(fused) >= 2 && fused[0].fused-fused[1].fused < 0.05 {
		conf -= 0.1
	}
	if conf < 0 {
		conf = 0
	}
	return conf
}

// exactMatch resolves detected article references against this domain's
// membership. Matches score 1.0 and rank above everything else.
func (s *Searcher) exactMatch(ctx context.Context, st *domain.State, refs []korean.ArticleReference, pool candidateSet) error {
	for _, ref := range refs {
		ids, err := s.repo.ExactMatch(ctx, ref.ArticleNumber)
		if err != nil {
			return fmt.Errorf("exact match for %q: %w", ref.ArticleNumber, err)
		}
		for _, id := range ids {
			if !st.Contains(id) {
				continue
			}
			decoded, err := graph.DecodeParagraphID(id)
			if err != nil || !decoded.MatchesArticleNumber(ref.ArticleNumber) {
				continue
			}
			if ref.ParagraphNumber != "" && decoded.ParagraphNumber != ref.ParagraphNumber {
				continue
			}
			pool.add(id, StageExact, 1.0)
		}
	}
	return nil
}

func (s *Searcher) paragraphVector(ctx context.Context, st *domain.State, queryVec []float64, k int, pool candidateSet) error {
	hits, err := s.repo.ParagraphVectorSearch(ctx, queryVec, k, st.DomainID)
	if err != nil {
		return fmt.Errorf("paragraph vector search: %w", err)
	}
	for _, h := range hits {
		if h.Similarity < s.config.ParagraphSimThreshold {
			continue
		}
		pool.add(h.ParagraphID, StageParagraphVector, h.Similarity)
	}
	return nil
}

// articleVector folds article hits back into their child paragraphs with
// a small indirection penalty. Absent article embeddings simply yield no
// hits; the pipeline does not depend on their coverage.
func (s *Searcher) articleVector(ctx context.Context, st *domain.State, queryVec []float64, k int, pool candidateSet) error {
	hits, err := s.repo.ArticleVectorSearch(ctx, queryVec, k, st.DomainID)
	if err != nil {
		return fmt.Errorf("article vector search: %w", err)
	}
	for _, h := range hits {
		children, err := s.repo.ChildParagraphsOf(ctx, h.ArticleID)
		if err != nil {
			return fmt.Errorf("children of article %s: %w", h.ArticleID, err)
		}
		for _, pid := range children {
			if !st.Contains(pid) {
				continue
			}
			pool.add(pid, StageArticleVector, h.Similarity*s.config.ArticlePenalty)
		}
	}
	return nil
}

// relationshipVector searches containment-edge embeddings and emits the
// child paragraph of each matching edge (or, for an article child, all of
// its child paragraphs).
func (s *Searcher) relationshipVector(ctx context.Context, st *domain.State, queryVec []float64, k int, pool candidateSet) error {
	hits, err := s.repo.RelationshipVectorSearch(ctx, queryVec, k)
	if err != nil {
		return fmt.Errorf("relationship vector search: %w", err)
	}
	for _, h := range hits {
		switch h.ChildKind {
		case graph.NodeParagraph:
			if st.Contains(h.ChildID) {
				pool.add(h.ChildID, StageRelationshipVector, h.Similarity)
			}
		case graph.NodeArticle:
			children, err := s.repo.ChildParagraphsOf(ctx, h.ChildID)
			if err != nil {
				return fmt.Errorf("children of article %s: %w", h.ChildID, err)
			}
			for _, pid := range children {
				if st.Contains(pid) {
					pool.add(pid, StageRelationshipVector, h.Similarity)
				}
			}
		}
	}
	return nil
}

// topSeeds returns the best n candidate ids collected so far, ranked by
// their maximum raw stage score, ties by id.
func topSeeds(pool candidateSet, n int) []string {
	type seed struct {
		id    string
		score float64
	}
	seeds := make([]seed, 0, len(pool))
	for id, c := range pool {
		best := 0.0
		for _, v := range c.stages {
			if v > best {
				best = v
			}
		}
		seeds = append(seeds, seed{id: id, score: best})
	}
	sort.Slice(seeds, func(i, j int) bool {
		if seeds[i].score != seeds[j].score {
			return seeds[i].score > seeds[j].score
		}
		return seeds[i].id < seeds[j].id
	})
	if len(seeds) > n {
		seeds = seeds[:n]
	}
	out := make([]string, len(seeds))
	for i, s := range seeds {
		out[i] = s.id
	}
	return out
}
