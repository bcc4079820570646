package qdrantDB

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/domain/commonModels"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

var logger *logger_i.Logger

type Store struct {
	client         *qdrant.Client
	collectionName string
	dimension      uint64
}

// New dials qdrant and makes sure the chunk collection exists.
// The client is closed when ctx is cancelled.
func New(ctx context.Context, host string, port int, dimension int32) (*Store, error) {
	logger = logger_i.NewLogger("qdrant")
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}

	s := &Store{client: client, collectionName: config.EmbeddingDBName, dimension: uint64(dimension)}

	initCtx, cancel := context.WithTimeout(ctx, config.QdrantConnectionTimeout)
	defer cancel()
	if err := s.EnsureCollection(initCtx); err != nil {
		_ = client.Close()
		return nil, err
	}

	go closeQdrant(ctx, client)
	return s, nil
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	if err := qi.Close(); err != nil {
		logger.Error("could not close Qdrant", "error", err)
	}
}

func (s *Store) EnsureCollection(ctx context.Context) error {
	if s.collectionName == "" {
		return errors.New("empty collection name")
	}
	exists, err := s.client.CollectionExists(ctx, s.collectionName)
	if err != nil {
		return fmt.Errorf("qdrant collection check: %w", err)
	}
	if exists {
		return nil
	}

	logger.Info("Creating collection", "collection", s.collectionName, "dimension", s.dimension)
	return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (s *Store) Upsert(ctx context.Context, filename string, chunks []documentModel.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.VectorId),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(payload(filename, chunk)),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, topK int, documentIds []string) ([]commonModels.ScoredChunk, error) {
	log := logger.WithTrace(ctx)

	query := &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if len(documentIds) > 0 {
		query.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatchKeywords("document_id", documentIds...)},
		}
	}

	result, err := s.client.Query(ctx, query)
	if err != nil {
		log.Error("Error querying Qdrant", "error", err)
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	hits := make([]commonModels.ScoredChunk, 0, len(result))
	for _, hit := range result {
		hits = append(hits, fromPayload(hit.Payload, hit.Score))
	}
	log.Debug("Qdrant hits", "count", len(hits))
	return hits, nil
}

func (s *Store) DeleteDocument(ctx context.Context, documentId string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collectionName,
		Wait:           qdrant.PtrOf(true),
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("document_id", documentId)},
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant delete: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.HealthCheck(ctx)
	return err
}

func payload(filename string, chunk documentModel.Chunk) map[string]any {
	return map[string]any{
		"document_id": chunk.DocumentId,
		"filename":    filename,
		"page_number": chunk.PageNumber,
		"chunk_index": chunk.ChunkIndex,
		"char_start":  chunk.CharStart,
		"char_end":    chunk.CharEnd,
		"text":        chunk.Text,
		"vector_id":   chunk.VectorId,
	}
}

func fromPayload(p map[string]*qdrant.Value, score float32) commonModels.ScoredChunk {
	return commonModels.ScoredChunk{
		VectorId:   p["vector_id"].GetStringValue(),
		DocumentId: p["document_id"].GetStringValue(),
		Filename:   p["filename"].GetStringValue(),
		PageNumber: int(p["page_number"].GetIntegerValue()),
		ChunkIndex: int(p["chunk_index"].GetIntegerValue()),
		CharStart:  int(p["char_start"].GetIntegerValue()),
		CharEnd:    int(p["char_end"].GetIntegerValue()),
		Text:       p["text"].GetStringValue(),
		Score:      score,
	}
}
