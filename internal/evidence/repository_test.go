package evidence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoanalyst/internal/domain"
)

func chunksFixture() []domain.EvidenceChunk {
	return []domain.EvidenceChunk{
		{Text: "func A() {}", SourcePath: "a/a.go", StartLine: 1, EndLine: 1, Kind: domain.KindFunction},
		{Text: "func B() {}", SourcePath: "a/b.go", StartLine: 10, EndLine: 12, Kind: domain.KindFunction},
		{Text: "# Readme", SourcePath: "README.md", StartLine: 1, EndLine: 2, Kind: domain.KindMarkdownSection},
	}
}

func TestMetadataRoundTripPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.jsonl")
	chunks := chunksFixture()
	require.NoError(t, WriteMetadata(path, chunks))

	repo, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, len(chunks), repo.Len())
	for i, want := range chunks {
		got, ok := repo.Get(i)
		require.True(t, ok)
		assert.Equal(t, want, got, "record %d must load at position %d", i, i)
	}
}

func TestVectorsRoundTripPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.jsonl")
	vectors := [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	require.NoError(t, WriteVectors(path, vectors))

	got, err := LoadVectors(path)
	require.NoError(t, err)
	assert.Equal(t, vectors, got)
}

func TestGetOutOfRange(t *testing.T) {
	repo := New(chunksFixture())
	_, ok := repo.Get(-1)
	assert.False(t, ok)
	_, ok = repo.Get(repo.Len())
	assert.False(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.jsonl"))
	assert.Error(t, err)
}

func TestLoadReportsBadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.jsonl")
	require.NoError(t, WriteMetadata(path, chunksFixture()[:1]))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{broken\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
