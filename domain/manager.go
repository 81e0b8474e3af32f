package domain

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/akfldk1028/ARR-sub002/auditlog"
	"github.com/akfldk1028/ARR-sub002/config"
	"github.com/akfldk1028/ARR-sub002/graph"
	"github.com/akfldk1028/ARR-sub002/internal/metrics"
	"github.com/akfldk1028/ARR-sub002/korerr"
	"github.com/akfldk1028/ARR-sub002/llmassess"
	"github.com/akfldk1028/ARR-sub002/vectormath"
)

// Manager is the sole writer of domain and membership state. All mutating
// entry points take m.mu, so two rebalance passes can never interleave
// and admission is serialized against splits and merges.
type Manager struct {
	repo      graph.Repository
	store     *Store
	namer     *llmassess.Namer
	nameCache *NameCache
	audit     auditlog.Log
	collector *metrics.Collector
	config    config.DomainConfig
	dim       int
	logger    *zap.Logger

	mu sync.Mutex
	// pendingSplits holds domains that crossed the size cap during
	// admission, drained by the next rebalance pass.
	pendingSplits map[string]struct{}
	rng           *rand.Rand
}

// NewManager wires a Manager. audit and collector may be nil.
func NewManager(
	repo graph.Repository,
	store *Store,
	namer *llmassess.Namer,
	audit auditlog.Log,
	collector *metrics.Collector,
	cfg config.DomainConfig,
	dim int,
	logger *zap.Logger,
) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if audit == nil {
		audit = auditlog.Noop{}
	}
	return &Manager{
		repo:          repo,
		store:         store,
		namer:         namer,
		nameCache:     NewNameCache(),
		audit:         audit,
		collector:     collector,
		config:        cfg,
		dim:           dim,
		logger:        logger.With(zap.String("component", "domain_manager")),
		pendingSplits: map[string]struct{}{},
		rng:           rand.New(rand.NewSource(cfg.KMeansSeed)),
	}
}

// Store exposes the partition store for readers.
func (m *Manager) Store() *Store { return m.store }

// RebalanceReport summarizes one initialize or rebalance invocation.
type RebalanceReport struct {
	DomainsBefore int `json:"domains_before"`
	DomainsAfter  int `json:"domains_after"`
	Splits        int `json:"splits"`
	Merges        int `json:"merges"`
	NonCompliant  int `json:"non_compliant"`
}

// Load rebuilds the in-memory snapshot from persisted state at startup.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	domains, err := m.repo.ListDomains(ctx)
	if err != nil {
		return fmt.Errorf("loading domains: %w", err)
	}
	membership := make(map[string][]string, len(domains))
	for _, d := range domains {
		ids, err := m.repo.ParagraphsInDomain(ctx, d.DomainID)
		if err != nil {
			return fmt.Errorf("loading membership of %s: %w", d.DomainID, err)
		}
		membership[d.DomainID] = ids
	}
	snapshot := m.store.Publish(LoadFromRepository(domains, membership))
	m.logger.Info("partition loaded",
		zap.Int("domains", snapshot.Len()),
		zap.Uint64("version", snapshot.Version),
	)
	return nil
}

// Admit assigns a freshly ingested paragraph to the domain whose centroid
// is most cosine-similar, updates that domain's centroid as an
// incremental mean, and queues a split if the domain crossed the size
// cap. There is no orphan state: a paragraph below the admit threshold is
// still admitted, and the event goes to the audit log for operator
// review.
func (m *Manager) Admit(ctx context.Context, paragraphID string, embedding []float64) error {
	if len(embedding) != m.dim {
		return korerr.Wrap(korerr.KindDimensionMismatch,
			fmt.Errorf("paragraph %s has %d dimensions, want %d", paragraphID, len(embedding), m.dim))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.store.Current()
	if snapshot.Len() == 0 {
		return korerr.Wrap(korerr.KindInvariantViolation,
			fmt.Errorf("cannot admit %s: no domains exist, run initialize first", paragraphID))
	}

	ranked := snapshot.RankByCentroid(embedding)
	best := ranked[0]
	if best.Similarity < m.config.AdmitThreshold {
		m.audit.Record(ctx, auditlog.EventLowSimilarityAdmit, best.State.DomainID, map[string]any{
			"paragraph_id": paragraphID,
			"similarity":   best.Similarity,
			"threshold":    m.config.AdmitThreshold,
		})
		m.logger.Warn("admission below similarity threshold",
			zap.String("paragraph_id", paragraphID),
			zap.String("domain_id", best.State.DomainID),
			zap.Float64("similarity", best.Similarity),
		)
	}

	old := best.State
	newCentroid := vectormath.Normalize(vectormath.IncrementalMean(old.Centroid, old.Size(), embedding))

	err := m.repo.WithinTransaction(ctx, func(ctx context.Context, tx graph.Repository) error {
		if err := tx.SetMembership(ctx, paragraphID, old.DomainID); err != nil {
			return err
		}
		return tx.UpsertDomain(ctx, old.DomainID, old.Name, newCentroid, old.Size()+1, old.Neighbors)
	})
	if err != nil {
		return fmt.Errorf("admitting %s: %w", paragraphID, err)
	}

	updated := &State{
		DomainID:  old.DomainID,
		Name:      old.Name,
		Centroid:  newCentroid,
		Neighbors: old.Neighbors,
		Members:   cloneMembers(old.Members, paragraphID),
	}
	m.publishReplacing(snapshot, map[string]*State{old.DomainID: updated}, nil)

	if updated.Size() > m.config.MaxSize {
		m.pendingSplits[updated.DomainID] = struct{}{}
		m.logger.Info("domain crossed size cap, split queued",
			zap.String("domain_id", updated.DomainID),
			zap.Int("size", updated.Size()),
		)
	}
	return nil
}

// PendingSplits reports domains queued for splitting by admission.
func (m *Manager) PendingSplits() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.pendingSplits))
	for id := range m.pendingSplits {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// publishReplacing publishes a snapshot equal to base with replaced
// states swapped in and removed ids dropped. Caller holds m.mu.
func (m *Manager) publishReplacing(base *Snapshot, replaced map[string]*State, removed []string) *Snapshot {
	removedSet := make(map[string]struct{}, len(removed))
	for _, id := range removed {
		removedSet[id] = struct{}{}
	}
	states := make([]*State, 0, base.Len()+len(replaced))
	seen := make(map[string]struct{}, base.Len())
	for _, d := range base.Domains() {
		if _, gone := removedSet[d.DomainID]; gone {
			continue
		}
		if repl, ok := replaced[d.DomainID]; ok {
			states = append(states, repl)
		} else {
			states = append(states, d)
		}
		seen[d.DomainID] = struct{}{}
	}
	for id, d := range replaced {
		if _, ok := seen[id]; !ok {
			states = append(states, d)
		}
	}
	return m.store.Publish(states)
}

func cloneMembers(members map[string]struct{}, extra ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(members)+len(extra))
	for id := range members {
		out[id] = struct{}{}
	}
	for _, id := range extra {
		out[id] = struct{}{}
	}
	return out
}

// nameFor resolves a cluster's display name: the centroid-signature cache
// first, then the LLM naming procedure over a sample of member text.
// Caller holds m.mu.
func (m *Manager) nameFor(ctx context.Context, domainID string, centroid []float64, memberIDs []string) string {
	if name, ok := m.nameCache.Lookup(centroid); ok {
		return name
	}

	sampleSize := m.config.NamingSampleSize
	if sampleSize <= 0 {
		sampleSize = 20
	}
	ids := append([]string(nil), memberIDs...)
	m.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	if len(ids) > sampleSize {
		ids = ids[:sampleSize]
	}

	samples := make([]string, 0, len(ids))
	for _, id := range ids {
		p, err := m.repo.GetParagraph(ctx, id)
		if err != nil {
			continue
		}
		samples = append(samples, p.Content)
	}

	name := m.namer.Name(ctx, domainID, samples)
	m.nameCache.Store(centroid, name)
	return name
}

// neighborsFor computes the top-N other domains by centroid cosine
// similarity. states must contain the domain itself.
func (m *Manager) neighborsFor(domainID string, centroid []float64, states []*State) []string {
	n := m.config.NeighborCount
	if n <= 0 {
		n = 3
	}
	type scored struct {
		id  string
		sim float64
	}
	ranked := make([]scored, 0, len(states))
	for _, d := range states {
		if d.DomainID == domainID {
			continue
		}
		ranked = append(ranked, scored{id: d.DomainID, sim: vectormath.Cosine(centroid, d.Centroid)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].sim != ranked[j].sim {
			return ranked[i].sim > ranked[j].sim
		}
		return ranked[i].id < ranked[j].id
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.id
	}
	return out
}

// loadMemberEmbeddings fetches the embedding of every member paragraph.
func (m *Manager) loadMemberEmbeddings(ctx context.Context, memberIDs []string) ([][]float64, error) {
	vectors := make([][]float64, 0, len(memberIDs))
	for _, id := range memberIDs {
		p, err := m.repo.GetParagraph(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading embedding of %s: %w", id, err)
		}
		if len(p.Embedding) != m.dim {
			return nil, korerr.Wrap(korerr.KindDimensionMismatch,
				fmt.Errorf("paragraph %s has %d dimensions, want %d", id, len(p.Embedding), m.dim))
		}
		vectors = append(vectors, p.Embedding)
	}
	return vectors, nil
}

// sortedMembers returns a state's member ids in deterministic order.
func sortedMembers(s *State) []string {
	out := make([]string, 0, len(s.Members))
	for id := range s.Members {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// validateExclusiveMembership confirms the replacement states partition
// the union of the replaced states' members: every paragraph lands in
// exactly one new domain. Returns an invariant_violation otherwise; the
// caller must not commit.
func validateExclusiveMembership(oldStates, newStates []*State) error {
	oldCount := 0
	for _, s := range oldStates {
		oldCount += s.Size()
	}
	seen := make(map[string]string, oldCount)
	newCount := 0
	for _, s := range newStates {
		for pid := range s.Members {
			if prev, dup := seen[pid]; dup {
				return korerr.Wrap(korerr.KindInvariantViolation,
					fmt.Errorf("paragraph %s in both %s and %s", pid, prev, s.DomainID))
			}
			seen[pid] = s.DomainID
			newCount++
		}
	}
	if newCount != oldCount {
		return korerr.Wrap(korerr.KindInvariantViolation,
			fmt.Errorf("membership count changed %d -> %d", oldCount, newCount))
	}
	return nil
}
