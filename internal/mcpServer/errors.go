// Package mcpServer exposes the contract services as MCP tools so assistants can
// ingest, query and audit contracts directly.
package mcpServer

import (
	"errors"

	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
)

var (
	ErrMissingDocumentService = errors.New("mcp: document service is required")
	ErrMissingQuestionService = errors.New("mcp: question service is required")
)

// toolError keeps wrapped causes out of tool results.
func toolError(err error) error {
	return errors.New(string(apperr.KindOf(err)) + ": " + apperr.PublicMessage(err))
}
