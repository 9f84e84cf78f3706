package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rafaelogic/codesnoutr-sub001/internal/bootstrap"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
)

const backupURIPrefix = "codesnoutr://backups/"

// registerResources registers all codesnoutr MCP resources on the given server.
func registerResources(s *server.MCPServer, eng *bootstrap.Engine) {
	// 1. codesnoutr://issues - recorded issues with fix state
	s.AddResource(
		mcplib.NewResource(
			"codesnoutr://issues",
			"Issues",
			mcplib.WithResourceDescription("Recorded issues and whether a fix has been applied to them"),
			mcplib.WithMIMEType("application/json"),
		),
		handleIssuesResource(eng),
	)

	// 2. codesnoutr://backups/{reference} - backup metadata (resource template)
	s.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			backupURIPrefix+"{reference}",
			"Backup",
			mcplib.WithTemplateDescription("Metadata of a pre-fix snapshot"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		handleBackupResource(eng),
	)
}

func handleIssuesResource(eng *bootstrap.Engine) server.ResourceHandlerFunc {
	return func(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		issues, err := eng.Issues.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing issues: %w", err)
		}
		if issues == nil {
			issues = []domain.Issue{}
		}
		return jsonContents(request.Params.URI, issues)
	}
}

func handleBackupResource(eng *bootstrap.Engine) server.ResourceTemplateHandlerFunc {
	return func(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		ref := strings.TrimPrefix(request.Params.URI, backupURIPrefix)
		b, err := eng.Backups.Load(ctx, ref)
		if err != nil {
			return nil, err
		}
		return jsonContents(request.Params.URI, struct {
			Reference  string `json:"reference"`
			Path       string `json:"path"`
			Size       int    `json:"size"`
			Hash       string `json:"content_hash"`
			CommitHash string `json:"commit_hash,omitempty"`
			CreatedAt  string `json:"created_at"`
		}{b.Reference, b.Path, len(b.OriginalContent), b.ContentHash, b.CommitHash, b.CreatedAt.Format(time.RFC3339)})
	}
}

func jsonContents(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
