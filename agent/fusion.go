package agent

import (
	"sort"
	"strings"
)

// fuse runs steps 7-9 of the pipeline over the current pool: per-stage
// min-max normalization, reciprocal-rank fusion across stages, and the
// appendix penalty. It returns the candidates in final rank order with
// c.fused set, exact matches pinned above everything else at score 1.0.
func (s *Searcher) fuse(pool candidateSet) []*candidate {
	if len(pool) == 0 {
		return nil
	}

	stageIDs := map[string][]string{}
	for id, c := range pool {
		for stage := range c.stages {
			stageIDs[stage] = append(stageIDs[stage], id)
		}
	}

	normalizeStages(pool, stageIDs)

	// Per-stage rankings by normalized score, ties by paragraph_id, so
	// the fused outcome is deterministic and independent of the order
	// stages happened to populate the pool.
	rrfK := float64(s.config.RRFK)
	if rrfK <= 0 {
		rrfK = 60
	}
	fusedScore := map[string]float64{}
	contributingStages := 0
	stages := make([]string, 0, len(stageIDs))
	for stage := range stageIDs {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	for _, stage := range stages {
		ids := stageIDs[stage]
		if stage == StageExact {
			continue
		}
		contributingStages++
		sort.Slice(ids, func(i, j int) bool {
			si, sj := pool[ids[i]].stages[stage], pool[ids[j]].stages[stage]
			if si != sj {
				return si > sj
			}
			return ids[i] < ids[j]
		})
		for rank, id := range ids {
			fusedScore[id] += 1 / (rrfK + float64(rank+1))
		}
	}

	// Scale fused sums into [0,1] against the best achievable value (top
	// rank in every contributing stage), so the score is an absolute
	// quality signal rather than a per-query relative one.
	maxAchievable := float64(contributingStages) / (rrfK + 1)
	for id, raw := range fusedScore {
		if maxAchievable > 0 {
			pool[id].fused = raw / maxAchievable
		}
	}

	// Appendix articles sharing a number with main-text articles dominate
	// lexically similar queries; halve them after fusion.
	penalty := s.config.AppendixPenalty
	if penalty <= 0 {
		penalty = 0.5
	}
	for id, c := range pool {
		if strings.Contains(id, "부칙") {
			c.fused *= penalty
		}
	}

	// Exact matches sit unconditionally above all fused candidates.
	for _, c := range pool {
		if _, ok := c.stages[StageExact]; ok {
			c.fused = 1.0
		}
	}

	out := make([]*candidate, 0, len(pool))
	for _, c := range pool {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		iExact := hasStage(out[i], StageExact)
		jExact := hasStage(out[j], StageExact)
		if iExact != jExact {
			return iExact
		}
		if out[i].fused != out[j].fused {
			return out[i].fused > out[j].fused
		}
		return out[i].id < out[j].id
	})
	return out
}

func hasStage(c *candidate, stage string) bool {
	_, ok := c.stages[stage]
	return ok
}

// normalizeStages min-max normalizes raw scores within each stage except
// exact match, whose scores are already the constant 1.0.
func normalizeStages(pool candidateSet, stageIDs map[string][]string) {
	for stage, ids := range stageIDs {
		if stage == StageExact || len(ids) == 0 {
			continue
		}
		lo, hi := pool[ids[0]].stages[stage], pool[ids[0]].stages[stage]
		for _, id := range ids[1:] {
			v := pool[id].stages[stage]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		for _, id := range ids {
			v := pool[id].stages[stage]
			if hi > lo {
				pool[id].stages[stage] = (v - lo) / (hi - lo)
			} else {
				pool[id].stages[stage] = 1.0
			}
		}
	}
}
