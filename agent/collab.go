package agent

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/akfldk1028/ARR-sub002/domain"
)

// consult fans the query out to up to MaxNeighborConsultations neighbor
// domains in parallel, each as a consultation call (so they never consult
// onward), and folds their returned records into pool as a collaboration
// stage. Neighbor failures and timeouts degrade to an empty contribution;
// consultation can only add candidates, never fail the local search.
// Returns the ids of neighbors that contributed at least one record.
func (s *Searcher) consult(ctx context.Context, st *domain.State, snapshot *domain.Snapshot, query string, queryVec []float64, limit int, pool candidateSet) []string {
	maxNeighbors := s.config.MaxNeighborConsultations
	if maxNeighbors <= 0 {
		maxNeighbors = 3
	}
	neighborIDs := st.Neighbors
	if len(neighborIDs) > maxNeighbors {
		neighborIDs = neighborIDs[:maxNeighbors]
	}

	var mu sync.Mutex
	contributed := map[string]bool{}

	g, gctx := errgroup.WithContext(ctx)
	for _, neighborID := range neighborIDs {
		neighbor, ok := snapshot.Domain(neighborID)
		if !ok {
			// The neighbor list predates a split or merge that replaced
			// this id; skip it, the next rebalance rewrites the list.
			continue
		}
		g.Go(func() error {
			result, err := s.Search(gctx, neighbor, snapshot, query, limit, Options{
				QueryVector:    queryVec,
				IsConsultation: true,
			})
			if err != nil {
				if s.collector != nil {
					s.collector.RecordA2AConsultation(st.DomainID, "error")
				}
				s.logger.Warn("neighbor consultation failed",
					zap.String("domain_id", st.DomainID),
					zap.String("neighbor_id", neighbor.DomainID),
					zap.Error(err),
				)
				return nil
			}
			if s.collector != nil {
				s.collector.RecordA2AConsultation(st.DomainID, "ok")
			}

			mu.Lock()
			defer mu.Unlock()
			for _, r := range result.Records {
				if r.Score <= 0 {
					continue
				}
				c := pool.add(r.ParagraphID, StageCollaboration, r.Score)
				if c.source == "" && !st.Contains(r.ParagraphID) {
					c.source = "neighbor_domain_" + neighbor.DomainID
				}
				contributed[neighbor.DomainID] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]string, 0, len(contributed))
	for id := range contributed {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
