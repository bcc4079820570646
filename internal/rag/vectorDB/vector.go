package vectorDB

import (
	"context"

	"github.com/akolanti/ContractIntelAPI/internal/domain/commonModels"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
)

// Index stores chunk vectors with the metadata needed to rebuild a citation.
type Index interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, filename string, chunks []documentModel.Chunk, vectors [][]float32) error
	// Query returns at most topK hits ordered by score, restricted to documentIds when non-empty.
	Query(ctx context.Context, vector []float32, topK int, documentIds []string) ([]commonModels.ScoredChunk, error)
	DeleteDocument(ctx context.Context, documentId string) error
	Ping(ctx context.Context) error
}
