package memoryDB

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/akolanti/ContractIntelAPI/internal/domain/commonModels"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
)

type entry struct {
	chunk  commonModels.ScoredChunk
	vector []float32
	norm   float64
}

// Store is a brute-force cosine index used when qdrant is not configured.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func New() *Store {
	return &Store{entries: make(map[string]entry)}
}

func (s *Store) EnsureCollection(ctx context.Context) error { return nil }

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Upsert(ctx context.Context, filename string, chunks []documentModel.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range chunks {
		s.entries[c.VectorId] = entry{
			chunk: commonModels.ScoredChunk{
				VectorId:   c.VectorId,
				DocumentId: c.DocumentId,
				Filename:   filename,
				PageNumber: c.PageNumber,
				ChunkIndex: c.ChunkIndex,
				CharStart:  c.CharStart,
				CharEnd:    c.CharEnd,
				Text:       c.Text,
			},
			vector: slices.Clone(vectors[i]),
			norm:   norm(vectors[i]),
		}
	}
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, topK int, documentIds []string) ([]commonModels.ScoredChunk, error) {
	if topK <= 0 {
		return nil, nil
	}
	qn := norm(vector)

	s.mu.RLock()
	hits := make([]commonModels.ScoredChunk, 0, len(s.entries))
	for _, e := range s.entries {
		if len(documentIds) > 0 && !slices.Contains(documentIds, e.chunk.DocumentId) {
			continue
		}
		if len(e.vector) != len(vector) || qn == 0 || e.norm == 0 {
			continue
		}
		hit := e.chunk
		hit.Score = float32(dot(vector, e.vector) / (qn * e.norm))
		hits = append(hits, hit)
	}
	s.mu.RUnlock()

	slices.SortFunc(hits, func(a, b commonModels.ScoredChunk) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return a.ChunkIndex - b.ChunkIndex
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (s *Store) DeleteDocument(ctx context.Context, documentId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if e.chunk.DocumentId == documentId {
			delete(s.entries, id)
		}
	}
	return nil
}

// Len is the number of stored vectors.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
