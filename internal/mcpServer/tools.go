package mcpServer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
	"github.com/akolanti/ContractIntelAPI/internal/domain/commonModels"
	"github.com/akolanti/ContractIntelAPI/internal/domain/contractModel"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type IngestInput struct {
	Path string `json:"path" jsonschema:"absolute path of a contract PDF on the server host"`
}

type IngestOutput struct {
	DocumentId string `json:"document_id"`
	Filename   string `json:"filename"`
	Status     string `json:"status"`
	Duplicate  bool   `json:"duplicate"`
	JobId      string `json:"job_id,omitempty"`
}

type DocumentInput struct {
	DocumentId string `json:"document_id" jsonschema:"id returned by ingest_contract"`
}

type StatusOutput struct {
	DocumentId      string `json:"document_id"`
	Filename        string `json:"filename"`
	Status          string `json:"status"`
	ErrorMessage    string `json:"error_message,omitempty"`
	PageCount       int    `json:"page_count"`
	TotalCharacters int    `json:"total_characters"`
}

type ExtractInput struct {
	DocumentId string `json:"document_id" jsonschema:"id of a completed document"`
	Force      bool   `json:"force,omitempty" jsonschema:"re-run extraction even when a cached result exists"`
}

type ExtractOutput struct {
	DocumentId string         `json:"document_id"`
	Method     string         `json:"extraction_method"`
	ModelUsed  string         `json:"model_used,omitempty"`
	Fields     map[string]any `json:"fields"`
}

type AskInput struct {
	Question    string   `json:"question" jsonschema:"question about the ingested contracts"`
	DocumentIds []string `json:"document_ids,omitempty" jsonschema:"restrict retrieval to these documents"`
}

type AskOutput struct {
	Answer    string                  `json:"answer"`
	Grounded  bool                    `json:"grounded"`
	Citations []commonModels.Citation `json:"citations"`
}

type AuditInput struct {
	DocumentId string `json:"document_id" jsonschema:"id of a completed document"`
	Mode       string `json:"mode,omitempty" jsonschema:"rules_only, model_only or hybrid (default)"`
}

type FindingOutput struct {
	Category        string `json:"category"`
	Severity        string `json:"severity"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Recommendation  string `json:"recommendation,omitempty"`
	Evidence        string `json:"evidence"`
	PageNumber      int    `json:"page_number,omitempty"`
	DetectionMethod string `json:"detection_method"`
	RuleMatched     string `json:"rule_matched,omitempty"`
}

type AuditOutput struct {
	DocumentId string          `json:"document_id"`
	Mode       string          `json:"mode,omitempty"`
	Partial    bool            `json:"partial"`
	Warnings   []string        `json:"warnings,omitempty"`
	Findings   []FindingOutput `json:"findings"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_contract",
		Description: "Ingest a contract PDF from a local path. Duplicate content returns the original document.",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "document_status",
		Description: "Processing status of an ingested contract",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_question",
		Description: "Answer a question from the ingested contracts, with citations to pages and chunks",
	}, s.handleAsk)

	if s.ports.Extraction != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "extract_fields",
			Description: "Structured fields of a contract: parties, dates, term, governing law, payment, renewal, liability",
		}, s.handleExtract)
	}

	if s.ports.Audit != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "audit_contract",
			Description: "Flag risky clauses such as short renewal notice, unlimited liability or one-sided termination",
		}, s.handleAudit)
	}
}

func (s *Server) handleIngest(ctx context.Context, _ *mcp.CallToolRequest, input IngestInput) (*mcp.CallToolResult, IngestOutput, error) {
	if input.Path == "" {
		return nil, IngestOutput{}, toolError(apperr.InputValidation("path is required"))
	}
	info, err := os.Stat(input.Path)
	if err != nil || info.IsDir() {
		return nil, IngestOutput{}, toolError(apperr.InputValidation("path is not a readable file"))
	}
	if info.Size() > s.ports.MaxUploadBytes {
		return nil, IngestOutput{}, toolError(apperr.InputValidation(fmt.Sprintf("file exceeds the %d byte upload limit", s.ports.MaxUploadBytes)))
	}
	data, err := os.ReadFile(input.Path)
	if err != nil {
		return nil, IngestOutput{}, toolError(apperr.InputValidation("path is not a readable file"))
	}

	handle, err := s.ports.Documents.Ingest(ctx, data, filepath.Base(input.Path))
	if err != nil {
		return nil, IngestOutput{}, toolError(err)
	}
	logger.WithTrace(ctx).Info("Contract ingested over MCP", "documentId", handle.Id, "duplicate", handle.Duplicate)
	return nil, IngestOutput{
		DocumentId: handle.Id,
		Filename:   handle.Filename,
		Status:     string(handle.Status),
		Duplicate:  handle.Duplicate,
		JobId:      handle.JobId,
	}, nil
}

func (s *Server) handleStatus(ctx context.Context, _ *mcp.CallToolRequest, input DocumentInput) (*mcp.CallToolResult, StatusOutput, error) {
	doc, err := s.ports.Documents.GetDocumentStatus(ctx, input.DocumentId)
	if err != nil {
		return nil, StatusOutput{}, toolError(err)
	}
	return nil, StatusOutput{
		DocumentId:      doc.Id,
		Filename:        doc.Filename,
		Status:          string(doc.Status),
		ErrorMessage:    doc.ErrorMessage,
		PageCount:       doc.PageCount,
		TotalCharacters: doc.TotalCharacters,
	}, nil
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Questions.Ask(ctx, input.Question, input.DocumentIds)
	if err != nil {
		return nil, AskOutput{}, toolError(err)
	}
	out := AskOutput{Answer: answer.Answer, Grounded: answer.Grounded, Citations: answer.Citations}
	if out.Citations == nil {
		out.Citations = []commonModels.Citation{}
	}
	return nil, out, nil
}

func (s *Server) handleExtract(ctx context.Context, _ *mcp.CallToolRequest, input ExtractInput) (*mcp.CallToolResult, ExtractOutput, error) {
	extraction, err := s.ports.Extraction.Extract(ctx, input.DocumentId, input.Force)
	if err != nil {
		return nil, ExtractOutput{}, toolError(err)
	}
	fields, err := fieldsMap(extraction.Fields)
	if err != nil {
		return nil, ExtractOutput{}, toolError(apperr.Internal("could not encode fields", err))
	}
	return nil, ExtractOutput{
		DocumentId: extraction.DocumentId,
		Method:     string(extraction.Method),
		ModelUsed:  extraction.ModelUsed,
		Fields:     fields,
	}, nil
}

func (s *Server) handleAudit(ctx context.Context, _ *mcp.CallToolRequest, input AuditInput) (*mcp.CallToolResult, AuditOutput, error) {
	result, err := s.ports.Audit.Audit(ctx, input.DocumentId, input.Mode)
	if err != nil {
		return nil, AuditOutput{}, toolError(err)
	}
	return nil, AuditOutput{
		DocumentId: result.DocumentId,
		Mode:       string(result.Mode),
		Partial:    result.Partial,
		Warnings:   result.Warnings,
		Findings:   toFindingOutputs(result.Findings),
	}, nil
}

// fieldsMap flattens Fields to plain JSON values; nulls stay as nil entries.
func fieldsMap(f contractModel.Fields) (map[string]any, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toFindingOutputs(findings []contractModel.Finding) []FindingOutput {
	out := make([]FindingOutput, 0, len(findings))
	for _, f := range findings {
		fo := FindingOutput{
			Category:        string(f.Category),
			Severity:        string(f.Severity),
			Title:           f.Title,
			Description:     f.Description,
			Recommendation:  f.Recommendation,
			Evidence:        f.Evidence.Text,
			DetectionMethod: string(f.DetectionMethod),
			RuleMatched:     f.RuleMatched,
		}
		if f.Evidence.PageNumber != nil {
			fo.PageNumber = *f.Evidence.PageNumber
		}
		out = append(out, fo)
	}
	return out
}
