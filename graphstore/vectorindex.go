package graphstore

import (
	"container/heap"
	"sync"

	"github.com/akfldk1028/ARR-sub002/vectormath"
)

// flatIndex is a brute-force cosine-similarity index over a set of IDs
// (Add/Delete/Size/Search) using the simplest ("flat") strategy: the corpus
// sizes this core targets (domains bounded to
// MAX_DOMAIN_SIZE=500) never justify HNSW's build complexity, so a linear
// scan with a bounded min-heap keeps the top-k.
type flatIndex struct {
	mu      sync.RWMutex
	vectors map[string][]float64
}

func newFlatIndex() *flatIndex {
	return &flatIndex{vectors: make(map[string][]float64)}
}

func (idx *flatIndex) Add(id string, vector []float64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vectors[id] = vector
}

func (idx *flatIndex) Delete(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.vectors, id)
}

func (idx *flatIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// scoredItem is one candidate held in the bounded min-heap during search.
type scoredItem struct {
	id    string
	score float64
}

// minHeapByScore implements container/heap as a min-heap on score so the
// lowest-scoring candidate is always evictable once the heap exceeds k,
// leaving the top-k highest-similarity items.
type minHeapByScore []scoredItem

func (h minHeapByScore) Len() int            { return len(h) }
func (h minHeapByScore) Less(i, j int) bool   { return h[i].score < h[j].score }
func (h minHeapByScore) Swap(i, j int)        { h[i], h[j] = h[j], h[i] }
func (h *minHeapByScore) Push(x interface{})  { *h = append(*h, x.(scoredItem)) }
func (h *minHeapByScore) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Search filters, when filter is non-nil, to ids in filter, then returns
// the top-k by cosine similarity to query, highest first.
func (idx *flatIndex) Search(query []float64, k int, filter map[string]struct{}) []scoredItem {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if k <= 0 {
		return nil
	}

	h := &minHeapByScore{}
	heap.Init(h)
	for id, v := range idx.vectors {
		if filter != nil {
			if _, ok := filter[id]; !ok {
				continue
			}
		}
		score := vectormath.Cosine(query, v)
		if h.Len() < k {
			heap.Push(h, scoredItem{id: id, score: score})
			continue
		}
		if score > (*h)[0].score {
			heap.Pop(h)
			heap.Push(h, scoredItem{id: id, score: score})
		}
	}

	results := make([]scoredItem, h.Len())
	for i := len(results) - 1; i >= 0; i-- {
		results[i] = heap.Pop(h).(scoredItem)
	}
	return results
}
