package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"repoanalyst/internal/chunker"
	"repoanalyst/internal/config"
	"repoanalyst/internal/domain"
	"repoanalyst/internal/embedding"
	"repoanalyst/internal/evidence"
	"repoanalyst/internal/loader"
	"repoanalyst/internal/vectorstore/qdrant"
)

// Stats summarizes one index build.
type Stats struct {
	Files     int
	Chunks    int
	Dimension int
}

// Indexer builds the evidence index: it discovers repository files, chunks
// them, embeds the chunks, and persists metadata and vectors so that record i
// always corresponds to vector i.
type Indexer struct {
	cfg      *config.AppConfig
	loader   *loader.Loader
	chunker  *chunker.Chunker
	embedder embedding.Embedder
	log      *zap.Logger
}

func New(cfg *config.AppConfig, ld *loader.Loader, ch *chunker.Chunker, emb embedding.Embedder, log *zap.Logger) *Indexer {
	return &Indexer{cfg: cfg, loader: ld, chunker: ch, embedder: emb, log: log}
}

// Run performs a full index build and returns its statistics.
func (ix *Indexer) Run(ctx context.Context) (Stats, error) {
	paths, err := ix.loader.Discover()
	if err != nil {
		return Stats{}, fmt.Errorf("discover files: %w", err)
	}
	if len(paths) == 0 {
		return Stats{}, fmt.Errorf("no matching files under %s", ix.cfg.Repository.Path)
	}
	ix.log.Info("files discovered", zap.Int("count", len(paths)))

	var chunks []domain.EvidenceChunk
	for _, p := range paths {
		content, err := ix.loader.Load(p)
		if err != nil {
			return Stats{}, fmt.Errorf("read %s: %w", p, err)
		}
		chunks = append(chunks, ix.chunker.ChunkFile(content, p)...)
	}
	if len(chunks) == 0 {
		return Stats{}, fmt.Errorf("no chunks produced from %d files", len(paths))
	}
	ix.log.Info("repository chunked", zap.Int("chunks", len(chunks)))

	vectors, err := ix.embedChunks(ctx, chunks)
	if err != nil {
		return Stats{}, err
	}
	for i := range vectors {
		vectors[i] = embedding.NormalizeL2(vectors[i])
	}

	if err := ix.persist(ctx, chunks, vectors); err != nil {
		return Stats{}, err
	}

	return Stats{Files: len(paths), Chunks: len(chunks), Dimension: len(vectors[0])}, nil
}

func (ix *Indexer) embedChunks(ctx context.Context, chunks []domain.EvidenceChunk) ([][]float64, error) {
	batchSize := ix.cfg.Embedder.BatchSize
	vectors := make([][]float64, 0, len(chunks))
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}
		batch, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		vectors = append(vectors, batch...)
		ix.log.Debug("batch embedded", zap.Int("done", end), zap.Int("total", len(chunks)))
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	return vectors, nil
}

// persist writes metadata for both store types; the vector sidecar only for
// the flat store, and the Qdrant collection only for the qdrant store.
func (ix *Indexer) persist(ctx context.Context, chunks []domain.EvidenceChunk, vectors [][]float64) error {
	vs := ix.cfg.VectorStore
	if err := evidence.WriteMetadata(vs.MetadataPath, chunks); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	switch vs.Type {
	case "qdrant":
		if vs.Qdrant == nil {
			return fmt.Errorf("vector_store.type is qdrant but no qdrant config is set")
		}
		q := qdrant.New(qdrant.Config{
			URL:        vs.Qdrant.URL,
			APIKey:     vs.Qdrant.APIKey,
			Collection: vs.Qdrant.Collection,
		})
		if err := q.EnsureCollection(ctx, len(vectors[0])); err != nil {
			return fmt.Errorf("ensure collection: %w", err)
		}
		if err := q.Upsert(ctx, vectors); err != nil {
			return fmt.Errorf("upsert vectors: %w", err)
		}
	default:
		if err := evidence.WriteVectors(vs.VectorsPath, vectors); err != nil {
			return fmt.Errorf("write vectors: %w", err)
		}
	}
	return nil
}
