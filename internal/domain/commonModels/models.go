package commonModels

import "unicode/utf8"

const snippetLength = 200

// ScoredChunk is a vector hit with the chunk metadata stored next to the vector.
type ScoredChunk struct {
	VectorId   string  `json:"vector_id"`
	DocumentId string  `json:"document_id"`
	Filename   string  `json:"filename,omitempty"`
	PageNumber int     `json:"page_number"`
	ChunkIndex int     `json:"chunk_index"`
	CharStart  int     `json:"char_start"`
	CharEnd    int     `json:"char_end"`
	Text       string  `json:"text"`
	Score      float32 `json:"score"`
}

// Citation is built from retrieval metadata, never from model output.
type Citation struct {
	DocumentId string  `json:"document_id"`
	Filename   string  `json:"filename,omitempty"`
	PageNumber int     `json:"page_number"`
	ChunkIndex int     `json:"chunk_index"`
	CharStart  int     `json:"char_start"`
	CharEnd    int     `json:"char_end"`
	Score      float32 `json:"score"`
	Snippet    string  `json:"snippet"`
}

func (c ScoredChunk) ToCitation() Citation {
	snippet := c.Text
	if len(snippet) > snippetLength {
		cut := snippetLength
		for cut > 0 && !utf8.RuneStart(snippet[cut]) {
			cut--
		}
		snippet = snippet[:cut]
	}
	return Citation{
		DocumentId: c.DocumentId,
		Filename:   c.Filename,
		PageNumber: c.PageNumber,
		ChunkIndex: c.ChunkIndex,
		CharStart:  c.CharStart,
		CharEnd:    c.CharEnd,
		Score:      c.Score,
		Snippet:    snippet,
	}
}
