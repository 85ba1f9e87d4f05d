package evidence

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"repoanalyst/internal/domain"
)

// Repository is the in-memory list of evidence chunks, indexed by position.
// Positions match the vector index's internal ordering: record i in the
// metadata file corresponds to vector i. That correspondence is the contract
// between the persistence format and similarity search.
type Repository struct {
	chunks []domain.EvidenceChunk
}

// New builds a repository from already-loaded chunks.
func New(chunks []domain.EvidenceChunk) *Repository {
	return &Repository{chunks: chunks}
}

// Load reads the metadata file (one JSON record per line) in order.
func Load(path string) (*Repository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata %s: %w", path, err)
	}
	defer f.Close()

	var chunks []domain.EvidenceChunk
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var c domain.EvidenceChunk
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("metadata line %d: %w", line, err)
		}
		chunks = append(chunks, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &Repository{chunks: chunks}, nil
}

// Get returns the chunk at the given position.
func (r *Repository) Get(i int) (domain.EvidenceChunk, bool) {
	if i < 0 || i >= len(r.chunks) {
		return domain.EvidenceChunk{}, false
	}
	return r.chunks[i], true
}

// Len returns the number of loaded chunks.
func (r *Repository) Len() int { return len(r.chunks) }

// WriteMetadata persists chunks as one JSON record per line, preserving
// order.
func WriteMetadata(path string, chunks []domain.EvidenceChunk) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, c := range chunks {
		if err := enc.Encode(c); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteVectors persists vectors as one JSON array per line, line i matching
// metadata line i.
func WriteVectors(path string, vectors [][]float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, v := range vectors {
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return w.Flush()
}

// LoadVectors reads the vector sidecar in order.
func LoadVectors(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vectors %s: %w", path, err)
	}
	defer f.Close()

	var vectors [][]float64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var v []float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("vectors line %d: %w", line, err)
		}
		vectors = append(vectors, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}
