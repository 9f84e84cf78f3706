package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/rafaelogic/codesnoutr-sub001/internal/bootstrap"
)

const serverVersion = "0.1.0"

// NewServer creates an MCP server exposing the fix pipeline of eng. The
// engine is shared by every call so that fixes to the same file serialize.
func NewServer(eng *bootstrap.Engine) *server.MCPServer {
	s := server.NewMCPServer(
		"codesnoutr",
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	registerTools(s, eng)
	registerResources(s, eng)

	return s
}
