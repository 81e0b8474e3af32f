package domain

import (
	"sort"
	"sync"

	"github.com/akfldk1028/ARR-sub002/graph"
	"github.com/akfldk1028/ARR-sub002/vectormath"
)

// State is one domain's immutable view inside a Snapshot.
type State struct {
	DomainID  string
	Name      string
	Centroid  []float64
	Neighbors []string            // ordered, most-similar first
	Members   map[string]struct{} // paragraph_id set
}

// Size returns the cached member count.
func (s *State) Size() int { return len(s.Members) }

// Contains reports membership of paragraphID.
func (s *State) Contains(paragraphID string) bool {
	_, ok := s.Members[paragraphID]
	return ok
}

// Snapshot is an immutable view of the whole partition at one version.
// A search pins the Snapshot it starts with; concurrent rebalances
// publish new Snapshots without touching pinned ones.
type Snapshot struct {
	Version uint64
	domains map[string]*State
	// owner maps paragraph_id -> domain_id, the inverse of Members.
	owner map[string]string
}

// Domain returns the state for domainID, ok=false when the id has been
// replaced by a split or merge (callers re-route).
func (s *Snapshot) Domain(domainID string) (*State, bool) {
	d, ok := s.domains[domainID]
	return d, ok
}

// Domains returns every domain state, ordered by domain id for
// deterministic iteration.
func (s *Snapshot) Domains() []*State {
	out := make([]*State, 0, len(s.domains))
	for _, d := range s.domains {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DomainID < out[j].DomainID })
	return out
}

// OwnerOf returns the domain owning paragraphID in this snapshot.
func (s *Snapshot) OwnerOf(paragraphID string) (string, bool) {
	id, ok := s.owner[paragraphID]
	return id, ok
}

// Len returns the number of domains.
func (s *Snapshot) Len() int { return len(s.domains) }

// RankByCentroid returns every domain ordered by descending cosine
// similarity of its centroid to query, ties broken by domain id.
func (s *Snapshot) RankByCentroid(query []float64) []ScoredDomain {
	out := make([]ScoredDomain, 0, len(s.domains))
	for _, d := range s.domains {
		out = append(out, ScoredDomain{State: d, Similarity: vectormath.Cosine(query, d.Centroid)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].State.DomainID < out[j].State.DomainID
	})
	return out
}

// ScoredDomain pairs a domain state with a routing similarity.
type ScoredDomain struct {
	State      *State
	Similarity float64
}

// Store is the in-memory authoritative partition view. Writes replace the
// current Snapshot wholesale; reads take the current one and keep it.
type Store struct {
	mu       sync.RWMutex
	current  *Snapshot
	versions uint64
}

// NewStore starts with an empty snapshot at version zero.
func NewStore() *Store {
	return &Store{current: &Snapshot{domains: map[string]*State{}, owner: map[string]string{}}}
}

// Current returns the snapshot in effect now.
func (st *Store) Current() *Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// Publish installs states as the next snapshot version and returns it.
// The caller hands over ownership of states and everything it references.
func (st *Store) Publish(states []*State) *Snapshot {
	domains := make(map[string]*State, len(states))
	owner := make(map[string]string)
	for _, d := range states {
		domains[d.DomainID] = d
		for pid := range d.Members {
			owner[pid] = d.DomainID
		}
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.versions++
	st.current = &Snapshot{Version: st.versions, domains: domains, owner: owner}
	return st.current
}

// LoadFromRepository rebuilds the snapshot from persisted domain and
// membership state, used at startup.
func LoadFromRepository(snapshotStates []graph.Domain, membership map[string][]string) []*State {
	states := make([]*State, 0, len(snapshotStates))
	for _, d := range snapshotStates {
		members := make(map[string]struct{}, len(membership[d.DomainID]))
		for _, pid := range membership[d.DomainID] {
			members[pid] = struct{}{}
		}
		states = append(states, &State{
			DomainID:  d.DomainID,
			Name:      d.Name,
			Centroid:  d.Centroid,
			Neighbors: d.Neighbors,
			Members:   members,
		})
	}
	return states
}
