package mcpServer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const uriScheme = "contract://"

func (s *Server) registerResources() {
	if s.ports.Audit == nil {
		return
	}
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}/findings",
		Name:        "document-findings",
		Description: "Findings stored by the last audit of a contract",
		MIMEType:    "application/json",
	}, s.handleFindingsResource)
}

func (s *Server) handleFindingsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	id := extractDocumentId(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	findings, err := s.ports.Audit.Findings(ctx, id)
	if err != nil {
		return nil, toolError(err)
	}
	data, err := json.Marshal(toFindingOutputs(findings))
	if err != nil {
		return nil, fmt.Errorf("encoding findings: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDocumentId parses contract://documents/{id}/findings.
func extractDocumentId(uri string) string {
	rest, ok := strings.CutPrefix(uri, uriScheme+"documents/")
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, "/findings")
	if !ok || id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
