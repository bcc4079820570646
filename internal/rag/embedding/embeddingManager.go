package embedding

import (
	"context"
	"fmt"
)

type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	// BatchEmbedding returns one vector per input, in input order.
	BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error)
	Dimension() int
	ModelName() string
}

// CheckBatch guards against providers returning a short or ragged batch.
func CheckBatch(inputs int, vectors [][]float32, dim int) error {
	if len(vectors) != inputs {
		return fmt.Errorf("embedding batch mismatch: sent %d texts, got %d vectors", inputs, len(vectors))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("embedding %d is empty", i)
		}
		if dim > 0 && len(v) != dim {
			return fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), dim)
		}
	}
	return nil
}
