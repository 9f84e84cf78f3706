package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rafaelogic/codesnoutr-sub001/internal/bootstrap"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain/normalize"
)

// registerTools registers all codesnoutr MCP tools on the given server.
func registerTools(s *server.MCPServer, eng *bootstrap.Engine) {
	// 1. codesnoutr_normalize
	s.AddTool(
		mcplib.NewTool("codesnoutr_normalize",
			mcplib.WithDescription("Recover the structured fix (code, kind, confidence, affected lines) from a raw model response"),
			mcplib.WithString("response", mcplib.Required(), mcplib.Description("Raw model response text")),
		),
		handleNormalize(),
	)

	// 2. codesnoutr_preview_fix
	s.AddTool(
		mcplib.NewTool("codesnoutr_preview_fix",
			append(targetOptions(),
				mcplib.WithDescription("Return the line diff a fix would produce without writing the file"),
				mcplib.WithString("response", mcplib.Required(), mcplib.Description("Raw model response text")),
			)...,
		),
		handlePreview(eng),
	)

	// 3. codesnoutr_apply_fix
	s.AddTool(
		mcplib.NewTool("codesnoutr_apply_fix",
			append(targetOptions(),
				mcplib.WithDescription("Validate and apply a fix. The file is written only when every check passes and a backup is kept"),
				mcplib.WithString("response", mcplib.Required(), mcplib.Description("Raw model response text")),
			)...,
		),
		handleApply(eng),
	)

	// 4. codesnoutr_restore_fix
	s.AddTool(
		mcplib.NewTool("codesnoutr_restore_fix",
			mcplib.WithDescription("Write a file's pre-fix content back from its backup"),
			mcplib.WithNumber("issue_id", mcplib.Description("Stored issue id whose fix should be undone")),
			mcplib.WithString("file", mcplib.Description("File to restore, relative to the project root (with backup)")),
			mcplib.WithString("backup", mcplib.Description("Backup reference returned by codesnoutr_apply_fix")),
		),
		handleRestore(eng),
	)
}

func targetOptions() []mcplib.ToolOption {
	return []mcplib.ToolOption{
		mcplib.WithNumber("issue_id", mcplib.Description("Stored issue id; alternative to file and line")),
		mcplib.WithString("file", mcplib.Description("Target file, relative to the project root")),
		mcplib.WithNumber("line", mcplib.Description("1-based target line")),
	}
}

func handleNormalize() server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		raw, err := request.RequireString("response")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		desc, stage, err := normalize.NormalizeWithStage(raw)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return jsonResult(map[string]any{"stage": stage.String(), "fix": desc})
	}
}

func handlePreview(eng *bootstrap.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		raw, err := request.RequireString("response")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		desc, err := normalize.Normalize(raw)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		issue, err := issueFor(ctx, eng, request)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		diff, err := eng.Fixes.Preview(ctx, issue, *desc)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return jsonResult(diff)
	}
}

func handleApply(eng *bootstrap.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		raw, err := request.RequireString("response")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		issue, err := issueFor(ctx, eng, request)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		res := eng.Fixes.ApplyFix(ctx, issue, raw)
		result, err := jsonResult(res)
		if err != nil {
			return nil, err
		}
		result.IsError = !res.Success
		return result, nil
	}
}

func handleRestore(eng *bootstrap.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		var issue *domain.Issue
		id := int64(request.GetInt("issue_id", 0))
		file := request.GetString("file", "")
		ref := request.GetString("backup", "")
		switch {
		case id != 0:
			stored, err := eng.Issues.Get(ctx, id)
			if err != nil {
				return errorResult(err.Error()), nil
			}
			issue = stored
		case file != "" && ref != "":
			issue = &domain.Issue{FilePath: eng.Resolve(file)}
			issue.Metadata.BackupReference = ref
		default:
			return errorResult("either issue_id or both file and backup are required"), nil
		}

		if _, err := eng.Fixes.Restore(ctx, issue); err != nil {
			return errorResult(err.Error()), nil
		}
		return textResult(fmt.Sprintf("restored %s from backup %s", issue.FilePath, issue.Metadata.BackupReference)), nil
	}
}

func issueFor(ctx context.Context, eng *bootstrap.Engine, request mcplib.CallToolRequest) (*domain.Issue, error) {
	return eng.IssueFor(ctx,
		int64(request.GetInt("issue_id", 0)),
		request.GetString("file", ""),
		request.GetInt("line", 0),
	)
}

// jsonResult marshals v to JSON and returns it as a text content result.
func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// textResult returns a plain text content result.
func textResult(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(text)},
	}
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
