package googleEmbedding

import (
	"errors"

	"github.com/akolanti/ContractIntelAPI/internal/rag/embedding"
	"google.golang.org/genai"
)

func getContent(chunks []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(chunks))
	for _, chunk := range chunks {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: chunk}},
		})
	}
	return contentsToSend
}

// toVectors fails the whole batch if any embedding is missing, partial batches are never upserted
func toVectors(res *genai.EmbedContentResponse, want int, dim int) ([][]float32, error) {
	if res == nil {
		return nil, errors.New("empty embedding response")
	}
	vectors := make([][]float32, 0, len(res.Embeddings))
	for _, e := range res.Embeddings {
		if e == nil {
			vectors = append(vectors, nil)
			continue
		}
		vectors = append(vectors, e.Values)
	}
	if err := embedding.CheckBatch(want, vectors, dim); err != nil {
		return nil, err
	}
	return vectors, nil
}
