package sqlStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/domain/contractModel"
)

type contractStore struct {
	store *Store
}

var _ contractModel.Repository = (*contractStore)(nil)

func (s *contractStore) GetExtraction(ctx context.Context, documentId string) (contractModel.Extraction, bool, error) {
	var e contractModel.Extraction
	var fields, method string
	err := s.store.db.QueryRowContext(ctx, `
		SELECT document_id, fields, method, model_used, raw, created_at, updated_at
		FROM extractions WHERE document_id = ?
	`, documentId).Scan(&e.DocumentId, &fields, &method, &e.ModelUsed, &e.Raw, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return e, false, nil
	}
	if err != nil {
		return e, false, fmt.Errorf("reading extraction: %w", err)
	}
	e.Method = contractModel.ExtractionMethod(method)
	if err := json.Unmarshal([]byte(fields), &e.Fields); err != nil {
		return e, false, fmt.Errorf("unmarshalling fields: %w", err)
	}
	return e, true, nil
}

// SaveExtraction upserts; created_at survives a forced refresh.
func (s *contractStore) SaveExtraction(ctx context.Context, e contractModel.Extraction) error {
	fields, err := json.Marshal(e.Fields)
	if err != nil {
		return fmt.Errorf("marshalling fields: %w", err)
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO extractions (document_id, fields, method, model_used, raw, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			fields = excluded.fields,
			method = excluded.method,
			model_used = excluded.model_used,
			raw = excluded.raw,
			updated_at = excluded.updated_at
	`, e.DocumentId, string(fields), string(e.Method), e.ModelUsed, e.Raw, e.CreatedAt.UTC(), now)
	if err != nil {
		return fmt.Errorf("saving extraction: %w", err)
	}
	return nil
}

func (s *contractStore) ReplaceFindings(ctx context.Context, documentId string, findings []contractModel.Finding) error {
	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM findings WHERE document_id = ?`, documentId); err != nil {
			return fmt.Errorf("clearing findings: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO findings (document_id, position, category, severity, title, description,
				recommendation, evidence_text, evidence_start, evidence_end, evidence_page,
				detection_method, rule_matched)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, f := range findings {
			_, err := stmt.ExecContext(ctx, documentId, i, string(f.Category), string(f.Severity), f.Title,
				f.Description, f.Recommendation, f.Evidence.Text, nullInt(f.Evidence.CharStart),
				nullInt(f.Evidence.CharEnd), nullInt(f.Evidence.PageNumber), string(f.DetectionMethod), f.RuleMatched)
			if err != nil {
				return fmt.Errorf("inserting finding %d: %w", i, err)
			}
		}
		return nil
	})
}

func (s *contractStore) GetFindings(ctx context.Context, documentId string) ([]contractModel.Finding, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, category, severity, title, description, recommendation, evidence_text,
			evidence_start, evidence_end, evidence_page, detection_method, rule_matched
		FROM findings WHERE document_id = ? ORDER BY position
	`, documentId)
	if err != nil {
		return nil, fmt.Errorf("reading findings: %w", err)
	}
	defer rows.Close()

	var findings []contractModel.Finding //nolint:prealloc // size unknown from query
	for rows.Next() {
		var f contractModel.Finding
		var category, severity, method string
		var start, end, page sql.NullInt64
		if err := rows.Scan(&f.DocumentId, &category, &severity, &f.Title, &f.Description, &f.Recommendation,
			&f.Evidence.Text, &start, &end, &page, &method, &f.RuleMatched); err != nil {
			return nil, fmt.Errorf("scanning finding: %w", err)
		}
		f.Category = contractModel.Category(category)
		f.Severity = contractModel.Severity(severity)
		f.DetectionMethod = contractModel.DetectionMethod(method)
		f.Evidence.CharStart = intPtr(start)
		f.Evidence.CharEnd = intPtr(end)
		f.Evidence.PageNumber = intPtr(page)
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

func (s *contractStore) ExtractionStats(ctx context.Context) (contractModel.ExtractionStats, error) {
	stats := contractModel.ExtractionStats{ByMethod: make(map[contractModel.ExtractionMethod]int)}
	rows, err := s.store.db.QueryContext(ctx, `SELECT method, COUNT(*) FROM extractions GROUP BY method`)
	if err != nil {
		return stats, fmt.Errorf("counting extractions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var method string
		var n int
		if err := rows.Scan(&method, &n); err != nil {
			return stats, err
		}
		stats.ByMethod[contractModel.ExtractionMethod(method)] = n
		stats.Total += n
	}
	return stats, rows.Err()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
