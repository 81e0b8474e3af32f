package agent

import (
	"container/heap"
	"context"

	"github.com/akfldk1028/ARR-sub002/domain"
	"github.com/akfldk1028/ARR-sub002/graph"
	"github.com/akfldk1028/ARR-sub002/vectormath"
)

// walkNode is one frontier entry of the bounded semantic walk.
type walkNode struct {
	id   string
	kind graph.NodeKind
	cost float64 // accumulated edge cost from the seed
}

// walkFrontier is a min-heap by accumulated cost, so the node with the
// highest (1 - cost) pops first. Ties pop in id order for determinism.
type walkFrontier []walkNode

func (f walkFrontier) Len() int { return len(f) }
func (f walkFrontier) Less(i, j int) bool {
	if f[i].cost != f[j].cost {
		return f[i].cost < f[j].cost
	}
	return f[i].id < f[j].id
}
func (f walkFrontier) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }
func (f *walkFrontier) Push(x interface{}) { *f = append(*f, x.(walkNode)) }
func (f *walkFrontier) Pop() interface{} {
	old := *f
	n := len(old)
	x := old[n-1]
	*f = old[:n-1]
	return x
}

// expand performs the breadth-bounded walk seeded from the top candidates
// collected by the earlier stages. Hierarchy and citation edges are free
// to traverse (they preserve context); sibling hops cost the semantic
// distance between the query and the sibling. Nodes outside this
// domain's membership are emitted as candidates but never recursed from,
// and citation cycles are broken by the visited set together with the
// node admission cap.
func (s *Searcher) expand(ctx context.Context, st *domain.State, queryVec []float64, pool candidateSet) {
	radius := s.config.RNERadius
	if radius <= 0 {
		radius = 0.25
	}
	maxNodes := s.config.RNEMaxNodes
	if maxNodes <= 0 {
		maxNodes = 20
	}

	seeds := topSeeds(pool, 3)
	visited := make(map[string]struct{}, maxNodes*2)
	frontier := &walkFrontier{}
	for _, id := range seeds {
		visited[id] = struct{}{}
		heap.Push(frontier, walkNode{id: id, kind: graph.NodeParagraph, cost: 0})
	}

	admitted := 0
	for frontier.Len() > 0 && admitted < maxNodes {
		if ctx.Err() != nil {
			return
		}
		node := heap.Pop(frontier).(walkNode)

		neighbors, err := s.repo.NeighborsOf(ctx, node.id, node.kind)
		if err != nil {
			return
		}
		for _, nb := range neighbors {
			if _, seen := visited[nb.NeighborID]; seen {
				continue
			}

			cost := node.cost
			if nb.Relation == graph.RelationSibling {
				sib, err := s.repo.GetParagraph(ctx, nb.NeighborID)
				if err != nil || len(sib.Embedding) == 0 {
					continue
				}
				cost += 1 - vectormath.Cosine(queryVec, sib.Embedding)
			}
			if cost >= radius {
				continue
			}

			visited[nb.NeighborID] = struct{}{}

			if nb.NeighborKind == graph.NodeParagraph {
				p, err := s.repo.GetParagraph(ctx, nb.NeighborID)
				if err != nil || len(p.Embedding) == 0 {
					continue
				}
				score := vectormath.Cosine(queryVec, p.Embedding)
				c := pool.add(nb.NeighborID, StageExpansion, score)
				if !st.Contains(nb.NeighborID) {
					// A hop landed outside this domain: keep it as a
					// candidate but do not recurse from it.
					c.source = "neighbor_domain"
					admitted++
					continue
				}
			}

			admitted++
			if admitted >= maxNodes {
				return
			}
			heap.Push(frontier, walkNode{id: nb.NeighborID, kind: nb.NeighborKind, cost: cost})
		}
	}
}
