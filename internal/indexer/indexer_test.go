package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"repoanalyst/internal/chunker"
	"repoanalyst/internal/config"
	"repoanalyst/internal/evidence"
	"repoanalyst/internal/loader"
)

// stubEmbedder derives a deterministic vector from each text so positional
// correspondence is checkable after the round trip.
type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	return []float64{float64(len(text)), 1}, nil
}

func (s stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i], _ = s.Embed(ctx, t)
	}
	return out, nil
}

func (stubEmbedder) Dimension() int { return 2 }

func TestRunBuildsIndexFiles(t *testing.T) {
	repoDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "main.go"),
		[]byte("package main\n\nfunc main() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "README.md"),
		[]byte("# Demo\n\nA tiny repository.\n"), 0o644))

	outDir := t.TempDir()
	cfg, err := config.Load(filepath.Join(outDir, "absent.yaml"))
	require.NoError(t, err)
	cfg.Repository.Path = repoDir
	cfg.VectorStore.MetadataPath = filepath.Join(outDir, "chunks.jsonl")
	cfg.VectorStore.VectorsPath = filepath.Join(outDir, "vectors.jsonl")
	cfg.Embedder.BatchSize = 1

	ld := loader.New(repoDir, cfg.Repository.FileExtensions, cfg.Repository.ExcludeDirs)
	ch := chunker.New(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	stats, err := New(cfg, ld, ch, stubEmbedder{}, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 2, stats.Dimension)
	require.Greater(t, stats.Chunks, 0)

	repo, err := evidence.Load(cfg.VectorStore.MetadataPath)
	require.NoError(t, err)
	vectors, err := evidence.LoadVectors(cfg.VectorStore.VectorsPath)
	require.NoError(t, err)
	require.Equal(t, stats.Chunks, repo.Len())
	require.Equal(t, repo.Len(), len(vectors), "vector i must pair with metadata record i")

	for _, v := range vectors {
		norm := 0.0
		for _, x := range v {
			norm += x * x
		}
		assert.InDelta(t, 1.0, norm, 1e-9, "stored vectors are unit length")
	}
}

func TestRunFailsOnEmptyRepository(t *testing.T) {
	outDir := t.TempDir()
	cfg, err := config.Load(filepath.Join(outDir, "absent.yaml"))
	require.NoError(t, err)
	cfg.Repository.Path = t.TempDir()

	ld := loader.New(cfg.Repository.Path, cfg.Repository.FileExtensions, cfg.Repository.ExcludeDirs)
	ch := chunker.New(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	_, err = New(cfg, ld, ch, stubEmbedder{}, zap.NewNop()).Run(context.Background())
	assert.Error(t, err)
}
