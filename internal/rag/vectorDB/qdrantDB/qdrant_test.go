package qdrantDB

import (
	"testing"

	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
	"github.com/qdrant/go-client/qdrant"
)

func TestPayloadRoundTrip(t *testing.T) {
	chunk := documentModel.Chunk{
		DocumentId: "doc-1",
		PageNumber: 3,
		ChunkIndex: 7,
		Text:       "The term of this Agreement is two years.",
		CharStart:  120,
		CharEnd:    160,
		VectorId:   "0b8a3c3e-8f0c-5d43-9a59-7c1c0f2b5e11",
	}

	got := fromPayload(qdrant.NewValueMap(payload("msa.pdf", chunk)), 0.91)

	if got.DocumentId != "doc-1" || got.Filename != "msa.pdf" {
		t.Errorf("identity lost: %+v", got)
	}
	if got.PageNumber != 3 || got.ChunkIndex != 7 || got.CharStart != 120 || got.CharEnd != 160 {
		t.Errorf("offsets lost: %+v", got)
	}
	if got.Text != chunk.Text || got.VectorId != chunk.VectorId {
		t.Errorf("text lost: %+v", got)
	}
	if got.Score != 0.91 {
		t.Errorf("score = %v", got.Score)
	}
}

func TestFromPayload_MissingKeys(t *testing.T) {
	got := fromPayload(map[string]*qdrant.Value{}, 0.5)
	if got.DocumentId != "" || got.PageNumber != 0 {
		t.Errorf("expected zero values, got %+v", got)
	}
}
