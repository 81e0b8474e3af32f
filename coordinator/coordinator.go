package coordinator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/akfldk1028/ARR-sub002/agent"
	"github.com/akfldk1028/ARR-sub002/config"
	"github.com/akfldk1028/ARR-sub002/domain"
	"github.com/akfldk1028/ARR-sub002/embedding"
	"github.com/akfldk1028/ARR-sub002/graph"
	"github.com/akfldk1028/ARR-sub002/internal/ctxkeys"
	"github.com/akfldk1028/ARR-sub002/internal/metrics"
	"github.com/akfldk1028/ARR-sub002/korerr"
	"github.com/akfldk1028/ARR-sub002/llmassess"
)

// Coordinator routes queries and fuses cross-domain results. It is
// read-only with respect to the partition: every query pins the snapshot
// current at its start and uses it throughout.
type Coordinator struct {
	store     *domain.Store
	searcher  *agent.Searcher
	provider  embedding.Provider
	assessor  *llmassess.Assessor
	repo      graph.Repository
	config    config.CoordinatorConfig
	collector *metrics.Collector
	logger    *zap.Logger
}

// New wires a Coordinator. assessor and collector may be nil; without an
// assessor, routing is centroid-similarity only.
func New(
	store *domain.Store,
	searcher *agent.Searcher,
	provider embedding.Provider,
	assessor *llmassess.Assessor,
	repo graph.Repository,
	cfg config.CoordinatorConfig,
	collector *metrics.Collector,
	logger *zap.Logger,
) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:     store,
		searcher:  searcher,
		provider:  provider,
		assessor:  assessor,
		repo:      repo,
		config:    cfg,
		collector: collector,
		logger:    logger.With(zap.String("component", "coordinator")),
	}
}

// routedDomain is one candidate after routing.
type routedDomain struct {
	state    *domain.State
	centroid float64
	combined float64
}

// Query answers text with at most limit records, emitting progress to
// emit (which may be nil for the synchronous path).
func (c *Coordinator) Query(ctx context.Context, text string, limit int, emit EventFunc) (QueryResult, error) {
	ctx, span := otel.Tracer("korlaw/coordinator").Start(ctx, "coordinator.query")
	defer span.End()
	started := time.Now()

	// Correlate every log line of this query with the trace id the API
	// surface stamped on the request.
	logger := c.logger
	if traceID, ok := ctxkeys.TraceID(ctx); ok {
		logger = logger.With(zap.String("trace_id", traceID))
	}
	if limit <= 0 {
		limit = 10
	}
	if emit == nil {
		emit = func(Event) {}
	}
	deadline := c.config.Deadline
	if deadline <= 0 {
		deadline = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	// The terminal error frame is the transport adapter's job; Query only
	// emits progress and the complete event, so a stream can never carry
	// two terminal frames.
	snapshot := c.store.Current()
	if snapshot.Len() == 0 {
		return QueryResult{}, korerr.Wrap(korerr.KindEmptyCorpus, fmt.Errorf("no domains exist"))
	}

	queryVec, err := c.provider.Embed(ctx, text)
	if err != nil {
		wrapped := korerr.Wrap(korerr.KindEmbeddingUnavailable, err)
		if ctx.Err() != nil {
			wrapped = korerr.Wrap(korerr.KindCoordinatorDeadlineExceeded, err)
		}
		if c.collector != nil {
			c.collector.RecordCoordinatorQuery("error")
		}
		return QueryResult{}, wrapped
	}

	dispatch := c.route(ctx, snapshot, text, queryVec)
	primary := dispatch[0]
	info := &AgentInfo{ID: primary.state.DomainID, Name: primary.state.Name, NodeCount: primary.state.Size()}
	emit(Event{Status: StatusStarted, Agent: info})

	results, consulted := c.dispatch(ctx, snapshot, dispatch, text, queryVec, limit, emit, info, logger)

	emit(progressEvent(StatusProcessing, "enrichment", 0.95, info))
	records := c.fuseAcrossDomains(results, primary.state.DomainID, limit)

	elapsed := time.Since(started).Milliseconds()
	result := QueryResult{
		Results:             records,
		PrimaryDomain:       DomainInfo{ID: primary.state.DomainID, Name: primary.state.Name},
		CollaboratedDomains: consulted,
		ResponseTimeMS:      elapsed,
		TotalMatched:        len(records),
	}

	complete := progressEvent(StatusComplete, "complete", 1.0, info)
	complete.Results = records
	complete.ResponseTime = &elapsed
	emit(complete)

	logger.Info("query complete",
		zap.String("primary_domain", primary.state.DomainID),
		zap.Int("results", len(records)),
		zap.Int("collaborators", len(consulted)),
		zap.Int64("elapsed_ms", elapsed),
	)
	if c.collector != nil {
		c.collector.RecordCoordinatorQuery("ok")
	}
	return result, nil
}

// route produces the dispatch set: the top candidate domains by centroid
// similarity, re-ranked by blending an LLM self-assessment in. The first
// element is the primary domain. Always returns at least one entry.
func (c *Coordinator) route(ctx context.Context, snapshot *domain.Snapshot, text string, queryVec []float64) []routedDomain {
	poolSize := c.config.CandidatePoolSize
	if poolSize <= 0 {
		poolSize = 5
	}
	ranked := snapshot.RankByCentroid(queryVec)
	if len(ranked) > poolSize {
		ranked = ranked[:poolSize]
	}

	routed := make([]routedDomain, 0, len(ranked))
	for _, sd := range ranked {
		combined := sd.Similarity
		if c.assessor != nil && ctx.Err() == nil {
			samples := c.representativeParagraphs(ctx, sd.State)
			if assessment, ok := c.assessor.Assess(ctx, sd.State.Name, samples, text); ok {
				llmConf := assessment.Confidence
				if !assessment.CanAnswer {
					llmConf = 0
				}
				combined = c.config.LLMWeight*llmConf + c.config.CentroidWeight*sd.Similarity
			}
		}
		routed = append(routed, routedDomain{state: sd.State, centroid: sd.Similarity, combined: combined})
	}

	sort.Slice(routed, func(i, j int) bool {
		if routed[i].combined != routed[j].combined {
			return routed[i].combined > routed[j].combined
		}
		return routed[i].state.DomainID < routed[j].state.DomainID
	})

	dispatchN := c.config.DispatchN
	if dispatchN <= 0 {
		dispatchN = 3
	}
	if len(routed) > dispatchN {
		routed = routed[:dispatchN]
	}
	return routed
}

// representativeParagraphs returns the content of the three paragraphs
// closest to the domain's centroid, the sample shown to the assessor.
func (c *Coordinator) representativeParagraphs(ctx context.Context, st *domain.State) []string {
	hits, err := c.repo.ParagraphVectorSearch(ctx, st.Centroid, 3, st.DomainID)
	if err != nil {
		return nil
	}
	samples := make([]string, 0, len(hits))
	for _, h := range hits {
		p, err := c.repo.GetParagraph(ctx, h.ParagraphID)
		if err != nil {
			continue
		}
		samples = append(samples, p.Content)
	}
	return samples
}

// dispatch fans out to every routed domain agent in parallel. Agent
// failures and timeouts are noted, never fatal: whatever completed is
// fused. The primary agent's progress events are proxied to the stream.
func (c *Coordinator) dispatch(
	ctx context.Context,
	snapshot *domain.Snapshot,
	routed []routedDomain,
	text string,
	queryVec []float64,
	limit int,
	emit EventFunc,
	info *AgentInfo,
	logger *zap.Logger,
) (map[string]agent.Result, []string) {
	primaryID := routed[0].state.DomainID

	var mu sync.Mutex
	results := make(map[string]agent.Result, len(routed))
	consultedSet := map[string]struct{}{}

	g, gctx := errgroup.WithContext(ctx)
	for _, rd := range routed {
		isPrimary := rd.state.DomainID == primaryID
		var progress agent.ProgressFunc
		if isPrimary {
			progress = func(event string) {
				switch event {
				case agent.EventExactMatch:
					emit(progressEvent(StatusSearching, "exact_match", 0.2, info))
				case agent.EventParagraphVector:
					emit(progressEvent(StatusSearching, "paragraph_vector", 0.4, info))
				case agent.EventRelationshipVector:
					emit(progressEvent(StatusSearching, "relationship_vector", 0.6, info))
				case agent.EventExpansion:
					emit(progressEvent(StatusSearching, "expansion", 0.8, info))
				case agent.EventCollaboration:
					emit(progressEvent(StatusSearching, "collaboration", 0.9, info))
				}
			}
		}
		g.Go(func() error {
			result, err := c.searcher.Search(gctx, rd.state, snapshot, text, limit, agent.Options{
				QueryVector: queryVec,
				Progress:    progress,
			})
			if err != nil {
				kind, _ := korerr.KindOf(err)
				logger.Warn("domain agent failed, continuing with the rest",
					zap.String("domain_id", rd.state.DomainID),
					zap.String("error_kind", string(kind)),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			results[rd.state.DomainID] = result
			for _, id := range result.Consulted {
				consultedSet[id] = struct{}{}
			}
			return nil
		})
	}
	_ = g.Wait()

	consulted := make([]string, 0, len(consultedSet))
	for id := range consultedSet {
		consulted = append(consulted, id)
	}
	sort.Strings(consulted)
	return results, consulted
}

// fuseAcrossDomains deduplicates by paragraph_id, summing weighted
// per-domain scores (primary 1.0, secondaries 0.8), and returns the top
// limit records. Exact matches keep their place above everything, primary
// domain first, then lexicographic paragraph_id.
func (c *Coordinator) fuseAcrossDomains(results map[string]agent.Result, primaryID string, limit int) []agent.Record {
	primaryWeight := c.config.PrimaryWeight
	if primaryWeight <= 0 {
		primaryWeight = 1.0
	}
	secondaryWeight := c.config.SecondaryWeight
	if secondaryWeight <= 0 {
		secondaryWeight = 0.8
	}

	type merged struct {
		record      agent.Record
		score       float64
		exact       bool
		fromPrimary bool
	}
	pool := map[string]*merged{}

	domainIDs := make([]string, 0, len(results))
	for id := range results {
		domainIDs = append(domainIDs, id)
	}
	sort.Strings(domainIDs)

	for _, domainID := range domainIDs {
		weight := secondaryWeight
		if domainID == primaryID {
			weight = primaryWeight
		}
		for _, r := range results[domainID].Records {
			m, ok := pool[r.ParagraphID]
			if !ok {
				m = &merged{record: r}
				pool[r.ParagraphID] = m
			}
			m.score += weight * r.Score
			if domainID == primaryID {
				m.fromPrimary = true
				m.record = r
			}
			for _, stage := range r.Stages {
				if stage == agent.StageExact {
					m.exact = true
				}
				if !containsStage(m.record.Stages, stage) {
					m.record.Stages = append(m.record.Stages, stage)
				}
			}
		}
	}

	out := make([]*merged, 0, len(pool))
	for _, m := range pool {
		if m.score > 1.0 {
			m.score = 1.0
		}
		// An exact match scores 1.0 by definition, wherever it surfaced;
		// the secondary-domain multiplier applies to fused scores only.
		if m.exact {
			m.score = 1.0
		}
		m.record.Score = m.score
		sort.Strings(m.record.Stages)
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].exact != out[j].exact {
			return out[i].exact
		}
		if out[i].exact {
			if out[i].fromPrimary != out[j].fromPrimary {
				return out[i].fromPrimary
			}
			return out[i].record.ParagraphID < out[j].record.ParagraphID
		}
		if out[i].record.Score != out[j].record.Score {
			return out[i].record.Score > out[j].record.Score
		}
		return out[i].record.ParagraphID < out[j].record.ParagraphID
	})

	if len(out) > limit {
		out = out[:limit]
	}
	records := make([]agent.Record, len(out))
	for i, m := range out {
		records[i] = m.record
	}
	return records
}

func containsStage(stages []string, stage string) bool {
	for _, s := range stages {
		if s == stage {
			return true
		}
	}
	return false
}
