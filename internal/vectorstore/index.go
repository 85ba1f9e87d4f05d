package vectorstore

import "context"

// Hit is one nearest-neighbor search result. Index addresses a position in
// the evidence repository's load order; Score is the inner product with the
// query vector (cosine similarity on normalized vectors).
type Hit struct {
	Index int
	Score float64
}

// Index supports top-K similarity search over pre-computed embeddings.
type Index interface {
	Search(ctx context.Context, vector []float64, topK int) ([]Hit, error)
}
