package documentModel

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// allowed lifecycle edges; completed has none
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusFailed:     {StatusProcessing},
}

func CanTransition(from Status, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SourcesFor lists every status that may move to `to`. Stores use it for guarded updates.
func SourcesFor(to Status) []Status {
	var from []Status
	for _, s := range []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed} {
		if CanTransition(s, to) {
			from = append(from, s)
		}
	}
	return from
}

// Transition mutates doc in place or returns a DocumentState error.
func Transition(doc *Document, to Status) error {
	if !CanTransition(doc.Status, to) {
		return apperr.DocumentState(fmt.Sprintf("document %s cannot move from %s to %s", doc.Id, doc.Status, to))
	}
	doc.Status = to
	return nil
}

type Document struct {
	Id              string            `json:"id"`
	ContentHash     string            `json:"content_hash"`
	Filename        string            `json:"filename"`
	FileSize        int64             `json:"file_size"`
	FilePath        string            `json:"-"`
	Status          Status            `json:"status"`
	ErrorMessage    string            `json:"error_message,omitempty"`
	PageCount       int               `json:"page_count"`
	TotalCharacters int               `json:"total_characters"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	UploadedAt      time.Time         `json:"uploaded_at"`
	ProcessedAt     *time.Time        `json:"processed_at,omitempty"`
}

func (d Document) IsCompleted() bool {
	return d.Status == StatusCompleted
}

type Page struct {
	DocumentId string `json:"document_id"`
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
	CharCount  int    `json:"char_count"`
}

type Chunk struct {
	DocumentId string `json:"document_id"`
	PageNumber int    `json:"page_number"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
	CharStart  int    `json:"char_start"`
	CharEnd    int    `json:"char_end"`
	VectorId   string `json:"vector_id"`
}

func ContentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Repository is the relational store for documents, pages and chunks.
type Repository interface {
	// CreateIfAbsent inserts doc unless its content hash exists. It returns the stored
	// document and whether this call created it.
	CreateIfAbsent(ctx context.Context, doc Document) (Document, bool, error)
	GetDocument(ctx context.Context, id string) (Document, error)
	FindByHash(ctx context.Context, hash string) (Document, bool, error)
	// UpdateStatus applies a guarded transition; it fails with a DocumentState error
	// when the stored status is not a legal source for `to`.
	UpdateStatus(ctx context.Context, id string, to Status, errorMessage string) error
	CompleteDocument(ctx context.Context, id string, pageCount int, totalCharacters int) error
	SavePages(ctx context.Context, documentId string, pages []Page) error
	GetPages(ctx context.Context, documentId string) ([]Page, error)
	SaveChunks(ctx context.Context, documentId string, chunks []Chunk) error
	CountByStatus(ctx context.Context) (map[Status]int, error)
	Ping(ctx context.Context) error
}
