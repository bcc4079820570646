package sqlStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
)

type documentStore struct {
	store *Store
}

var _ documentModel.Repository = (*documentStore)(nil)

const documentColumns = `id, content_hash, filename, file_size, file_path, status, error_message,
	page_count, total_characters, metadata, uploaded_at, processed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (documentModel.Document, error) {
	var doc documentModel.Document
	var status, metadata string
	var processedAt sql.NullTime

	err := row.Scan(&doc.Id, &doc.ContentHash, &doc.Filename, &doc.FileSize, &doc.FilePath, &status,
		&doc.ErrorMessage, &doc.PageCount, &doc.TotalCharacters, &metadata, &doc.UploadedAt, &processedAt)
	if err != nil {
		return doc, err
	}
	doc.Status = documentModel.Status(status)
	if processedAt.Valid {
		t := processedAt.Time
		doc.ProcessedAt = &t
	}
	if metadata != "" && metadata != "{}" {
		if err := json.Unmarshal([]byte(metadata), &doc.Metadata); err != nil {
			return doc, fmt.Errorf("unmarshalling metadata: %w", err)
		}
	}
	return doc, nil
}

// CreateIfAbsent relies on the unique content_hash so two concurrent uploads of
// the same bytes resolve to one row.
func (s *documentStore) CreateIfAbsent(ctx context.Context, doc documentModel.Document) (documentModel.Document, bool, error) {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return documentModel.Document{}, false, fmt.Errorf("marshalling metadata: %w", err)
	}
	if doc.Metadata == nil {
		metadata = []byte("{}")
	}

	var stored documentModel.Document
	var created bool
	err = s.store.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO documents (`+documentColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
			ON CONFLICT(content_hash) DO NOTHING
		`, doc.Id, doc.ContentHash, doc.Filename, doc.FileSize, doc.FilePath, string(doc.Status),
			doc.ErrorMessage, doc.PageCount, doc.TotalCharacters, string(metadata), doc.UploadedAt.UTC())
		if err != nil {
			return fmt.Errorf("inserting document: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n == 1

		stored, err = scanDocument(tx.QueryRowContext(ctx,
			`SELECT `+documentColumns+` FROM documents WHERE content_hash = ?`, doc.ContentHash))
		if err != nil {
			return fmt.Errorf("reading document by hash: %w", err)
		}
		return nil
	})
	return stored, created, err
}

func (s *documentStore) GetDocument(ctx context.Context, id string) (documentModel.Document, error) {
	doc, err := scanDocument(s.store.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return doc, apperr.NotFound(fmt.Sprintf("document %s not found", id))
	}
	if err != nil {
		return doc, fmt.Errorf("reading document: %w", err)
	}
	return doc, nil
}

func (s *documentStore) FindByHash(ctx context.Context, hash string) (documentModel.Document, bool, error) {
	doc, err := scanDocument(s.store.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE content_hash = ?`, hash))
	if errors.Is(err, sql.ErrNoRows) {
		return doc, false, nil
	}
	if err != nil {
		return doc, false, fmt.Errorf("reading document by hash: %w", err)
	}
	return doc, true, nil
}

func (s *documentStore) UpdateStatus(ctx context.Context, id string, to documentModel.Status, errorMessage string) error {
	sources := documentModel.SourcesFor(to)
	if len(sources) == 0 {
		return apperr.DocumentState(fmt.Sprintf("no document may move to %s", to))
	}

	args := []any{string(to), errorMessage, id}
	for _, src := range sources {
		args = append(args, string(src))
	}
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET status = ?, error_message = ?
		WHERE id = ? AND status IN (`+placeholders(len(sources))+`)
	`, args...)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	return s.checkTransition(ctx, res, id, to)
}

func (s *documentStore) CompleteDocument(ctx context.Context, id string, pageCount int, totalCharacters int) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents
		SET status = ?, error_message = '', page_count = ?, total_characters = ?, processed_at = ?
		WHERE id = ? AND status = ?
	`, string(documentModel.StatusCompleted), pageCount, totalCharacters, time.Now().UTC(),
		id, string(documentModel.StatusProcessing))
	if err != nil {
		return fmt.Errorf("completing document: %w", err)
	}
	return s.checkTransition(ctx, res, id, documentModel.StatusCompleted)
}

// checkTransition turns a zero-row guarded update into NotFound or DocumentState.
func (s *documentStore) checkTransition(ctx context.Context, res sql.Result, id string, to documentModel.Status) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	return apperr.DocumentState(fmt.Sprintf("document %s cannot move from %s to %s", id, doc.Status, to))
}

func (s *documentStore) SavePages(ctx context.Context, documentId string, pages []documentModel.Page) error {
	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE document_id = ?`, documentId); err != nil {
			return fmt.Errorf("clearing pages: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO pages (document_id, page_number, text, char_count) VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, p := range pages {
			if _, err := stmt.ExecContext(ctx, documentId, p.PageNumber, p.Text, p.CharCount); err != nil {
				return fmt.Errorf("inserting page %d: %w", p.PageNumber, err)
			}
		}
		return nil
	})
}

func (s *documentStore) GetPages(ctx context.Context, documentId string) ([]documentModel.Page, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, page_number, text, char_count FROM pages
		WHERE document_id = ? ORDER BY page_number
	`, documentId)
	if err != nil {
		return nil, fmt.Errorf("reading pages: %w", err)
	}
	defer rows.Close()

	var pages []documentModel.Page //nolint:prealloc // size unknown from query
	for rows.Next() {
		var p documentModel.Page
		if err := rows.Scan(&p.DocumentId, &p.PageNumber, &p.Text, &p.CharCount); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (s *documentStore) SaveChunks(ctx context.Context, documentId string, chunks []documentModel.Chunk) error {
	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentId); err != nil {
			return fmt.Errorf("clearing chunks: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (document_id, chunk_index, page_number, text, char_start, char_end, vector_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, c := range chunks {
			if _, err := stmt.ExecContext(ctx, documentId, c.ChunkIndex, c.PageNumber, c.Text,
				c.CharStart, c.CharEnd, c.VectorId); err != nil {
				return fmt.Errorf("inserting chunk %d: %w", c.ChunkIndex, err)
			}
		}
		return nil
	})
}

func (s *documentStore) CountByStatus(ctx context.Context) (map[documentModel.Status]int, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM documents GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting documents: %w", err)
	}
	defer rows.Close()

	counts := make(map[documentModel.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[documentModel.Status(status)] = n
	}
	return counts, rows.Err()
}

func (s *documentStore) Ping(ctx context.Context) error {
	return s.store.db.PingContext(ctx)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
