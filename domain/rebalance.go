package domain

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akfldk1028/ARR-sub002/auditlog"
	"github.com/akfldk1028/ARR-sub002/korerr"
	"github.com/akfldk1028/ARR-sub002/vectormath"
)

// RebalanceNow restores the size invariant: oversized domains are split
// (largest first), then undersized domains are merged (smallest first).
// Each split and merge is an independent commit; the pass as a whole is
// not atomic, and a failed action is logged and skipped so the remainder
// of the pass still runs. Serialized against itself and against
// admission by m.mu.
func (m *Manager) RebalanceNow(ctx context.Context) (RebalanceReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := RebalanceReport{DomainsBefore: m.store.Current().Len()}

	oversized := statesAbove(m.store.Current(), m.config.MaxSize)
	sort.Slice(oversized, func(i, j int) bool { return oversized[i].Size() > oversized[j].Size() })
	for _, s := range oversized {
		ok, err := m.split(ctx, s.DomainID)
		if err != nil {
			if isFatalForRebalance(err) {
				return report, err
			}
			m.logger.Warn("split skipped", zap.String("domain_id", s.DomainID), zap.Error(err))
			continue
		}
		if ok {
			report.Splits++
		}
	}

	undersized := statesBelow(m.store.Current(), m.config.MinSize)
	sort.Slice(undersized, func(i, j int) bool { return undersized[i].Size() < undersized[j].Size() })
	for _, s := range undersized {
		ok, err := m.merge(ctx, s.DomainID)
		if err != nil {
			if isFatalForRebalance(err) {
				return report, err
			}
			m.logger.Warn("merge skipped", zap.String("domain_id", s.DomainID), zap.Error(err))
			continue
		}
		if ok {
			report.Merges++
		}
	}

	m.pendingSplits = map[string]struct{}{}

	final := m.store.Current()
	report.DomainsAfter = final.Len()
	for _, s := range final.Domains() {
		if s.Size() > m.config.MaxSize || s.Size() < m.config.MinSize {
			report.NonCompliant++
		}
	}
	m.logger.Info("rebalance pass complete",
		zap.Int("splits", report.Splits),
		zap.Int("merges", report.Merges),
		zap.Int("non_compliant", report.NonCompliant),
	)
	return report, nil
}

// split divides an oversized domain into two new domains via k-means with
// k=2. Returns false without error when the split was aborted because a
// half would be undersized. Caller holds m.mu.
func (m *Manager) split(ctx context.Context, domainID string) (bool, error) {
	snapshot := m.store.Current()
	old, ok := snapshot.Domain(domainID)
	if !ok {
		return false, nil // replaced by an earlier action in this pass
	}
	if old.Size() <= m.config.MaxSize {
		return false, nil
	}

	memberIDs := sortedMembers(old)
	vectors, err := m.loadMemberEmbeddings(ctx, memberIDs)
	if err != nil {
		return false, err
	}

	result := vectormath.KMeans(vectors, 2, m.config.KMeansSeed, m.config.KMeansMaxIterations)
	halves := [2][]string{}
	halfVectors := [2][][]float64{}
	for i, c := range result.Assignments {
		halves[c] = append(halves[c], memberIDs[i])
		halfVectors[c] = append(halfVectors[c], vectors[i])
	}

	if len(halves[0]) < m.config.MinSize || len(halves[1]) < m.config.MinSize {
		m.audit.Record(ctx, auditlog.EventSplitAborted, domainID, map[string]any{
			"size":     old.Size(),
			"half_a":   len(halves[0]),
			"half_b":   len(halves[1]),
			"min_size": m.config.MinSize,
			"max_size": m.config.MaxSize,
		})
		m.logger.Warn("split aborted: a half would be undersized",
			zap.String("domain_id", domainID),
			zap.Int("half_a", len(halves[0])),
			zap.Int("half_b", len(halves[1])),
		)
		return false, nil
	}

	newStates := make([]*State, 2)
	for i := 0; i < 2; i++ {
		id := uuid.NewString()
		centroid := vectormath.Normalize(vectormath.Mean(halfVectors[i], m.dim))
		newStates[i] = &State{
			DomainID: id,
			Centroid: centroid,
			Members:  toMemberSet(halves[i]),
		}
	}
	for _, s := range newStates {
		s.Name = m.nameFor(ctx, s.DomainID, s.Centroid, sortedMembers(s))
	}

	if err := validateExclusiveMembership([]*State{old}, newStates); err != nil {
		return false, err
	}

	// Recompute neighbor lists for the two new domains and for every
	// domain that pointed at the old one.
	remaining := withoutDomain(snapshot.Domains(), domainID)
	all := append(append([]*State{}, remaining...), newStates...)
	changed := map[string]*State{
		newStates[0].DomainID: newStates[0],
		newStates[1].DomainID: newStates[1],
	}
	for _, d := range remaining {
		if containsID(d.Neighbors, domainID) {
			changed[d.DomainID] = &State{
				DomainID: d.DomainID, Name: d.Name, Centroid: d.Centroid, Members: d.Members,
			}
		}
	}
	for _, d := range changed {
		d.Neighbors = m.neighborsFor(d.DomainID, d.Centroid, all)
	}

	persist := make([]*State, 0, len(changed))
	for _, d := range changed {
		persist = append(persist, d)
	}
	sort.Slice(persist, func(i, j int) bool { return persist[i].DomainID < persist[j].DomainID })
	if err := m.persistStates(ctx, persist, []string{domainID}); err != nil {
		return false, fmt.Errorf("committing split of %s: %w", domainID, err)
	}

	m.publishReplacing(snapshot, changed, []string{domainID})
	delete(m.pendingSplits, domainID)
	if m.collector != nil {
		m.collector.RecordDomainRebalance("split")
	}
	m.audit.Record(ctx, auditlog.EventSplitCommitted, domainID, map[string]any{
		"into":  []string{newStates[0].DomainID, newStates[1].DomainID},
		"sizes": []int{newStates[0].Size(), newStates[1].Size()},
	})
	m.logger.Info("domain split",
		zap.String("old", domainID),
		zap.String("new_a", newStates[0].DomainID),
		zap.String("new_b", newStates[1].DomainID),
	)
	return true, nil
}

// merge folds an undersized domain into its most centroid-similar peer
// whose post-merge size stays within the cap. The target keeps its id and
// name; its centroid becomes the size-weighted mean of the two. Returns
// false without error when no viable target exists. Caller holds m.mu.
func (m *Manager) merge(ctx context.Context, domainID string) (bool, error) {
	snapshot := m.store.Current()
	small, ok := snapshot.Domain(domainID)
	if !ok {
		return false, nil
	}
	if small.Size() >= m.config.MinSize {
		return false, nil
	}

	var target *State
	bestSim := -2.0
	for _, d := range snapshot.Domains() {
		if d.DomainID == domainID {
			continue
		}
		if d.Size()+small.Size() > m.config.MaxSize {
			continue
		}
		sim := vectormath.Cosine(small.Centroid, d.Centroid)
		if sim > bestSim || (sim == bestSim && target != nil && d.DomainID < target.DomainID) {
			bestSim = sim
			target = d
		}
	}
	if target == nil {
		m.audit.Record(ctx, auditlog.EventMergeNoTarget, domainID, map[string]any{
			"size":     small.Size(),
			"min_size": m.config.MinSize,
		})
		m.logger.Warn("merge skipped: every candidate would exceed the size cap",
			zap.String("domain_id", domainID),
			zap.Int("size", small.Size()),
		)
		return false, nil
	}

	mergedCentroid := vectormath.Normalize(
		vectormath.WeightedMean(target.Centroid, target.Size(), small.Centroid, small.Size()))
	merged := &State{
		DomainID: target.DomainID,
		Name:     target.Name,
		Centroid: mergedCentroid,
		Members:  cloneMembers(target.Members, sortedMembers(small)...),
	}

	if err := validateExclusiveMembership([]*State{small, target}, []*State{merged}); err != nil {
		return false, err
	}

	remaining := withoutDomain(snapshot.Domains(), domainID)
	all := replaceDomain(remaining, merged)
	changed := map[string]*State{merged.DomainID: merged}
	for _, d := range remaining {
		if d.DomainID != merged.DomainID && containsID(d.Neighbors, domainID) {
			changed[d.DomainID] = &State{
				DomainID: d.DomainID, Name: d.Name, Centroid: d.Centroid, Members: d.Members,
			}
		}
	}
	for _, d := range changed {
		d.Neighbors = m.neighborsFor(d.DomainID, d.Centroid, all)
	}

	persist := make([]*State, 0, len(changed))
	for _, d := range changed {
		persist = append(persist, d)
	}
	sort.Slice(persist, func(i, j int) bool { return persist[i].DomainID < persist[j].DomainID })
	if err := m.persistStates(ctx, persist, []string{domainID}); err != nil {
		return false, fmt.Errorf("committing merge of %s into %s: %w", domainID, target.DomainID, err)
	}

	m.publishReplacing(snapshot, changed, []string{domainID})
	if m.collector != nil {
		m.collector.RecordDomainRebalance("merge")
	}
	m.audit.Record(ctx, auditlog.EventMergeCommitted, domainID, map[string]any{
		"into":       target.DomainID,
		"similarity": bestSim,
		"new_size":   merged.Size(),
	})
	m.logger.Info("domain merged",
		zap.String("small", domainID),
		zap.String("into", target.DomainID),
		zap.Float64("similarity", bestSim),
	)
	return true, nil
}

func statesAbove(s *Snapshot, max int) []*State {
	var out []*State
	for _, d := range s.Domains() {
		if d.Size() > max {
			out = append(out, d)
		}
	}
	return out
}

func statesBelow(s *Snapshot, min int) []*State {
	var out []*State
	for _, d := range s.Domains() {
		if d.Size() < min {
			out = append(out, d)
		}
	}
	return out
}

func withoutDomain(states []*State, domainID string) []*State {
	out := make([]*State, 0, len(states))
	for _, d := range states {
		if d.DomainID != domainID {
			out = append(out, d)
		}
	}
	return out
}

func replaceDomain(states []*State, repl *State) []*State {
	out := make([]*State, 0, len(states))
	for _, d := range states {
		if d.DomainID == repl.DomainID {
			out = append(out, repl)
		} else {
			out = append(out, d)
		}
	}
	return out
}

func containsID(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// isFatalForRebalance: a rate-limited naming call is skippable (the
// action retries next pass); an unreachable repository aborts the pass.
func isFatalForRebalance(err error) bool {
	kind, ok := korerr.KindOf(err)
	return ok && korerr.Fatal(kind)
}
