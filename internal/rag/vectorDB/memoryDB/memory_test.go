package memoryDB

import (
	"context"
	"testing"

	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
)

func seed(t *testing.T) *Store {
	t.Helper()
	s := New()
	chunks := []documentModel.Chunk{
		{DocumentId: "a", ChunkIndex: 0, VectorId: "a-0", Text: "term"},
		{DocumentId: "a", ChunkIndex: 1, VectorId: "a-1", Text: "payment"},
		{DocumentId: "b", ChunkIndex: 0, VectorId: "b-0", Text: "liability"},
	}
	vectors := [][]float32{{1, 0}, {0, 1}, {0.9, 0.1}}
	if err := s.Upsert(context.Background(), "f.pdf", chunks, vectors); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestQuery_OrdersByScore(t *testing.T) {
	hits, err := seed(t).Query(context.Background(), []float32{1, 0}, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].VectorId != "a-0" || hits[1].VectorId != "b-0" {
		t.Errorf("unexpected order %s, %s", hits[0].VectorId, hits[1].VectorId)
	}
	if hits[0].Score < 0.999 {
		t.Errorf("identical vector should score 1, got %v", hits[0].Score)
	}
	if hits[0].Filename != "f.pdf" {
		t.Errorf("filename not kept")
	}
}

func TestQuery_FiltersByDocument(t *testing.T) {
	hits, _ := seed(t).Query(context.Background(), []float32{1, 0}, 5, []string{"b"})
	if len(hits) != 1 || hits[0].DocumentId != "b" {
		t.Errorf("filter not applied: %+v", hits)
	}
}

func TestDeleteDocument(t *testing.T) {
	s := seed(t)
	_ = s.DeleteDocument(context.Background(), "a")
	if s.Len() != 1 {
		t.Errorf("expected 1 vector left, got %d", s.Len())
	}
}

func TestUpsert_Mismatch(t *testing.T) {
	err := New().Upsert(context.Background(), "f", []documentModel.Chunk{{VectorId: "x"}}, nil)
	if err == nil {
		t.Error("expected mismatch error")
	}
}

func TestUpsert_SameIdReplaces(t *testing.T) {
	s := seed(t)
	_ = s.Upsert(context.Background(), "f.pdf", []documentModel.Chunk{{DocumentId: "a", VectorId: "a-0"}}, [][]float32{{0, 1}})
	if s.Len() != 3 {
		t.Errorf("upsert should replace, got %d vectors", s.Len())
	}
}
