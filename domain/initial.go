package domain

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akfldk1028/ARR-sub002/graph"
	"github.com/akfldk1028/ARR-sub002/korerr"
	"github.com/akfldk1028/ARR-sub002/vectormath"
)

// InitializePartition clusters every embedded paragraph into an initial
// set of domains. On an already-initialized store it is a no-op returning
// zero splits and zero merges; on an empty corpus it reports empty_corpus.
func (m *Manager) InitializePartition(ctx context.Context) (RebalanceReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.store.Current()
	if current.Len() > 0 {
		return RebalanceReport{DomainsBefore: current.Len(), DomainsAfter: current.Len()}, nil
	}

	ids, vectors, err := m.loadAllEmbeddings(ctx)
	if err != nil {
		return RebalanceReport{}, err
	}
	if len(ids) == 0 {
		return RebalanceReport{}, korerr.Wrap(korerr.KindEmptyCorpus,
			fmt.Errorf("no embedded paragraphs to partition"))
	}

	k, assignments := m.chooseK(vectors)
	m.logger.Info("initial partition clustered",
		zap.Int("paragraphs", len(ids)),
		zap.Int("k", k),
	)

	clusters := make([][]string, k)
	clusterVectors := make([][][]float64, k)
	for i, c := range assignments {
		clusters[c] = append(clusters[c], ids[i])
		clusterVectors[c] = append(clusterVectors[c], vectors[i])
	}

	states := make([]*State, 0, k)
	for c := 0; c < k; c++ {
		if len(clusters[c]) == 0 {
			continue
		}
		centroid := vectormath.Normalize(vectormath.Mean(clusterVectors[c], m.dim))
		states = append(states, &State{
			DomainID: uuid.NewString(),
			Centroid: centroid,
			Members:  toMemberSet(clusters[c]),
		})
	}
	for _, s := range states {
		s.Name = m.nameFor(ctx, s.DomainID, s.Centroid, sortedMembers(s))
		s.Neighbors = m.neighborsFor(s.DomainID, s.Centroid, states)
	}

	if err := m.persistStates(ctx, states, nil); err != nil {
		return RebalanceReport{}, fmt.Errorf("persisting initial partition: %w", err)
	}
	snapshot := m.store.Publish(states)
	m.logger.Info("initial partition committed",
		zap.Int("domains", snapshot.Len()),
		zap.Uint64("version", snapshot.Version),
	)
	return RebalanceReport{DomainsAfter: snapshot.Len()}, nil
}

// loadAllEmbeddings drains the restartable paragraph cursor.
func (m *Manager) loadAllEmbeddings(ctx context.Context) ([]string, [][]float64, error) {
	cursor, err := m.repo.ListParagraphsWithEmbeddings(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("opening paragraph cursor: %w", err)
	}
	defer cursor.Close()

	var ids []string
	var vectors [][]float64
	for cursor.Next(ctx) {
		pe := cursor.Value()
		if len(pe.Embedding) != m.dim {
			return nil, nil, korerr.Wrap(korerr.KindDimensionMismatch,
				fmt.Errorf("paragraph %s has %d dimensions, want %d", pe.ParagraphID, len(pe.Embedding), m.dim))
		}
		ids = append(ids, pe.ParagraphID)
		vectors = append(vectors, pe.Embedding)
	}
	if err := cursor.Err(); err != nil {
		return nil, nil, fmt.Errorf("draining paragraph cursor: %w", err)
	}
	return ids, vectors, nil
}

// chooseK scans [KMin, KMax] and picks the silhouette-optimal k, ties
// broken toward smaller k. Silhouette scoring is capped at a sample of
// the corpus to keep the scan linear in practice.
func (m *Manager) chooseK(vectors [][]float64) (int, []int) {
	kMin, kMax := m.config.KMin, m.config.KMax
	if kMin < 2 {
		kMin = 2
	}
	if kMax < kMin {
		kMax = kMin
	}
	n := len(vectors)
	if kMax > n {
		kMax = n
	}
	if kMin > kMax {
		kMin = kMax
	}

	sampleIdx := m.silhouetteSample(n)

	bestK := kMin
	bestScore := -2.0
	var bestAssignments []int
	for k := kMin; k <= kMax; k++ {
		result := vectormath.KMeans(vectors, k, m.config.KMeansSeed, m.config.KMeansMaxIterations)
		score := sampledSilhouette(vectors, result.Assignments, k, sampleIdx)
		// Strict inequality keeps the smaller k on ties.
		if score > bestScore {
			bestScore = score
			bestK = k
			bestAssignments = result.Assignments
		}
	}
	return bestK, bestAssignments
}

// silhouetteSample picks the indices silhouette is computed over.
func (m *Manager) silhouetteSample(n int) []int {
	limit := m.config.SilhouetteSampleSize
	if limit <= 0 || n <= limit {
		return nil // nil means "use everything"
	}
	idx := m.rng.Perm(n)[:limit]
	return idx
}

func sampledSilhouette(vectors [][]float64, assignments []int, k int, sample []int) float64 {
	if sample == nil {
		return vectormath.MeanSilhouette(vectors, assignments, k)
	}
	subVectors := make([][]float64, len(sample))
	subAssignments := make([]int, len(sample))
	for i, j := range sample {
		subVectors[i] = vectors[j]
		subAssignments[i] = assignments[j]
	}
	return vectormath.MeanSilhouette(subVectors, subAssignments, k)
}

// persistStates writes states (and deletes removed ids) inside one
// domain-write transaction. Caller holds m.mu.
func (m *Manager) persistStates(ctx context.Context, states []*State, removed []string) error {
	return m.repo.WithinTransaction(ctx, func(ctx context.Context, tx graph.Repository) error {
		for _, s := range states {
			if err := tx.UpsertDomain(ctx, s.DomainID, s.Name, s.Centroid, s.Size(), s.Neighbors); err != nil {
				return err
			}
			for pid := range s.Members {
				if err := tx.SetMembership(ctx, pid, s.DomainID); err != nil {
					return err
				}
			}
		}
		for _, id := range removed {
			if err := tx.DeleteDomain(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func toMemberSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}
