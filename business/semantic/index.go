package semantic

import (
	"fmt"
	"sort"
	"sync"
)

// Hit is a raw inner-product match.
type Hit struct {
	ID    int64
	Score float64
}

// Index is a flat inner-product index keyed by item id.
// Position order is insertion order and breaks score ties.
type Index struct {
	mu      sync.RWMutex
	dim     int
	ids     []int64
	vectors [][]float32
	pos     map[int64]int
}

func NewIndex() *Index {
	return &Index{pos: make(map[int64]int)}
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.ids)
}

func (x *Index) Dimension() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dim
}

func (x *Index) Has(id int64) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.pos[id]
	return ok
}

// Add appends vectors for ids that are not indexed yet and returns how many were added.
// Nothing is written when any vector has the wrong dimension.
func (x *Index) Add(ids []int64, vectors [][]float32) (int, error) {
	if len(ids) != len(vectors) {
		return 0, fmt.Errorf("ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	dim := x.dim
	if dim == 0 && len(vectors) > 0 {
		dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != dim {
			return 0, fmt.Errorf("vector for item %d has dimension %d, want %d", ids[i], len(v), dim)
		}
	}
	x.dim = dim

	added := 0
	for i, id := range ids {
		if _, ok := x.pos[id]; ok {
			continue
		}
		x.pos[id] = len(x.ids)
		x.ids = append(x.ids, id)
		x.vectors = append(x.vectors, vectors[i])
		added++
	}

	return added, nil
}

// Replace swaps the whole content of the index.
func (x *Index) Replace(ids []int64, vectors [][]float32) error {
	fresh := NewIndex()
	if _, err := fresh.Add(ids, vectors); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.dim = fresh.dim
	x.ids = fresh.ids
	x.vectors = fresh.vectors
	x.pos = fresh.pos
	return nil
}

// Search returns the k highest inner products with query, descending.
func (x *Index) Search(query []float32, k int) ([]Hit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if k <= 0 || len(x.ids) == 0 {
		return nil, nil
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("query dimension %d, index dimension %d", len(query), x.dim)
	}

	hits := make([]Hit, len(x.ids))
	for i, v := range x.vectors {
		hits[i] = Hit{ID: x.ids[i], Score: dot(query, v)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Entries copies the ids and vectors stored from position from onwards.
func (x *Index) Entries(from int) ([]int64, [][]float32) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if from < 0 {
		from = 0
	}
	if from >= len(x.ids) {
		return nil, nil
	}

	ids := make([]int64, len(x.ids)-from)
	copy(ids, x.ids[from:])
	vectors := make([][]float32, len(x.vectors)-from)
	copy(vectors, x.vectors[from:])
	return ids, vectors
}

func (x *Index) Vector(id int64) ([]float32, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	p, ok := x.pos[id]
	if !ok {
		return nil, false
	}
	return x.vectors[p], true
}
