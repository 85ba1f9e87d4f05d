package flat

import (
	"context"
	"errors"
	"sort"
	"sync"

	"repoanalyst/internal/vectorstore"
)

// Index is an in-process flat inner-product index over pre-computed vectors.
// Vector i corresponds to evidence record i; callers must keep the two in
// the same order.
type Index struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
}

// New builds an index over the given vectors. All vectors must share one
// dimension.
func New(vectors [][]float64) (*Index, error) {
	if len(vectors) == 0 {
		return nil, errors.New("no vectors to index")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.New("zero-dimension vectors")
	}
	for _, v := range vectors {
		if len(v) != dim {
			return nil, errors.New("vector dimension mismatch")
		}
	}
	return &Index{dimension: dim, vectors: vectors}, nil
}

// Len returns the number of indexed vectors.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

// Dimension returns the vector dimensionality.
func (ix *Index) Dimension() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dimension
}

// Search returns the topK positions with the highest inner product.
func (ix *Index) Search(_ context.Context, vector []float64, topK int) ([]vectorstore.Hit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if len(vector) != ix.dimension {
		return nil, errors.New("query vector dimension mismatch")
	}
	if topK <= 0 {
		topK = 5
	}
	hits := make([]vectorstore.Hit, len(ix.vectors))
	for i, v := range ix.vectors {
		hits[i] = vectorstore.Hit{Index: i, Score: dot(v, vector)}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK], nil
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
