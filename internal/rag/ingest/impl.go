package ingest

import (
	"context"
	"fmt"

	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
	"github.com/akolanti/ContractIntelAPI/internal/domain/jobModel"
	"github.com/akolanti/ContractIntelAPI/internal/rag/chunker"
	"github.com/google/uuid"
)

// vectorNamespace scopes the deterministic chunk vector ids.
var vectorNamespace = uuid.MustParse("6f1d3c2a-9b7e-4f11-8a3d-2c5b7e9f0a14")

// VectorId is stable per (document, chunk index) so a redelivered job overwrites its own points.
func VectorId(documentId string, chunkIndex int) string {
	return uuid.NewSHA1(vectorNamespace, []byte(fmt.Sprintf("%s:%d", documentId, chunkIndex))).String()
}

func buildPages(documentId string, texts []string) ([]documentModel.Page, int) {
	pages := make([]documentModel.Page, len(texts))
	total := 0
	for i, text := range texts {
		pages[i] = documentModel.Page{
			DocumentId: documentId,
			PageNumber: i + 1,
			Text:       text,
			CharCount:  len(text),
		}
		total += len(text)
	}
	return pages, total
}

// prepareChunks numbers chunks across the whole document, page by page.
func prepareChunks(c chunker.Chunker, documentId string, pages []documentModel.Page) []documentModel.Chunk {
	var allChunks []documentModel.Chunk
	index := 0
	for _, page := range pages {
		for span := range c.Chunk(page.Text, page.PageNumber) {
			allChunks = append(allChunks, documentModel.Chunk{
				DocumentId: documentId,
				PageNumber: span.PageNumber,
				ChunkIndex: index,
				Text:       span.Text,
				CharStart:  span.CharStart,
				CharEnd:    span.CharEnd,
				VectorId:   VectorId(documentId, index),
			})
			index++
		}
	}
	return allChunks
}

func (p *Pipeline) batchIngest(ctx context.Context, filename string, chunks []documentModel.Chunk, step func(jobModel.InternalStatus)) error {
	log := logger.WithTrace(ctx)

	for i := 0; i < len(chunks); i += p.batchSize {
		end := min(i+p.batchSize, len(chunks))
		currentBatch := chunks[i:end]

		texts := make([]string, len(currentBatch))
		for j, c := range currentBatch {
			texts[j] = c.Text
		}

		step(jobModel.EmbeddingCall)
		log.Debug("Starting embedding call", "batchStart", i, "batchLength", len(texts))
		vectors, err := p.embedder.BatchEmbedding(ctx, texts)
		if err != nil {
			return apperr.ExternalService("embedding batch failed", err)
		}

		step(jobModel.VectorDBCall)
		if err := p.index.Upsert(ctx, filename, currentBatch, vectors); err != nil {
			return apperr.ExternalService("vector upsert failed", err)
		}
	}
	return nil
}
