// Package mcp exposes the roast workflow to AI assistants over the
// Model Context Protocol.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"roast/internal/api"
	"roast/pkg/persona"
	"roast/pkg/report"
)

// Server wraps the roast runner to provide MCP tool access.
type Server struct {
	runner   api.Runner
	registry *persona.Registry
	workdir  *report.Workdir
	server   *server.MCPServer
}

// NewServer creates a new MCP server.
func NewServer(runner api.Runner, registry *persona.Registry, workdir *report.Workdir) *Server {
	s := &Server{
		runner:   runner,
		registry: registry,
		workdir:  workdir,
	}

	mcpServer := server.NewMCPServer(
		"roast",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)

	s.server = mcpServer
	return s
}

// registerTools registers all MCP tools with the server.
func (s *Server) registerTools(mcpServer *server.MCPServer) {
	// roast_run - Run a full roast
	mcpServer.AddTool(
		mcp.NewTool("roast_run",
			mcp.WithDescription("Roast a UI screen: capture a screenshot, run every critique persona against it and write a ranked Markdown report."),
			mcp.WithString("topic",
				mcp.Required(),
				mcp.Description("Topic name for the run (e.g., 'checkout', 'signup-form')"),
			),
			mcp.WithString("url",
				mcp.Description("URL to capture. Either url or image_path is required."),
			),
			mcp.WithString("image_path",
				mcp.Description("Path to a pre-captured screenshot. Either url or image_path is required."),
			),
			mcp.WithString("focus",
				mcp.Description("Persona focus tag to weight 1.5x (e.g., 'accessibility', 'conversion')"),
			),
			mcp.WithNumber("iterations",
				mcp.Description("Maximum iterations (default: 2)"),
			),
			mcp.WithString("fix_mode",
				mcp.Description("Fix mode between iterations: quick, deep or ship"),
			),
		),
		s.handleRoastRun,
	)

	// roast_report - Read a stored report
	mcpServer.AddTool(
		mcp.NewTool("roast_report",
			mcp.WithDescription("Read a stored roast report as Markdown."),
			mcp.WithString("topic",
				mcp.Required(),
				mcp.Description("Topic the report was generated for"),
			),
			mcp.WithNumber("iteration",
				mcp.Description("Iteration to read (default: latest)"),
			),
		),
		s.handleRoastReport,
	)

	// roast_reports - List stored reports
	mcpServer.AddTool(
		mcp.NewTool("roast_reports",
			mcp.WithDescription("List all stored roast reports by topic and iteration."),
		),
		s.handleRoastReports,
	)

	// list_personas - Enumerate critique personas
	mcpServer.AddTool(
		mcp.NewTool("list_personas",
			mcp.WithDescription("List the critique personas and their focus tags."),
		),
		s.handleListPersonas,
	)
}

// handleRoastRun handles the roast_run tool.
func (s *Server) handleRoastRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic := request.GetString("topic", "")
	if topic == "" {
		return mcp.NewToolResultError("topic parameter is required"), nil
	}

	url := request.GetString("url", "")
	imagePath := request.GetString("image_path", "")
	if url == "" && imagePath == "" {
		return mcp.NewToolResultError("url or image_path parameter is required"), nil
	}

	result, err := s.runner.Roast(ctx, api.RoastRequest{
		Topic:      topic,
		URL:        url,
		ImagePath:  imagePath,
		Focus:      request.GetString("focus", ""),
		Iterations: request.GetInt("iterations", 0),
		FixMode:    request.GetString("fix_mode", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("roast failed: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Roast of %q complete (%s).\n\n", result.Topic, result.Stopped)
	for _, iter := range result.Iterations {
		fmt.Fprintf(&sb, "- Iteration %d: %d findings (%d new, %d recurring) -> %s\n",
			iter.Number, len(iter.Findings), iter.New, iter.Recurring, iter.ReportPath)
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// handleRoastReport handles the roast_report tool.
func (s *Server) handleRoastReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic := request.GetString("topic", "")
	if topic == "" {
		return mcp.NewToolResultError("topic parameter is required"), nil
	}

	iteration := request.GetInt("iteration", 0)
	if iteration <= 0 {
		iteration = s.workdir.LatestIteration(topic)
		if iteration == 0 {
			return mcp.NewToolResultError(fmt.Sprintf("no reports found for topic %q", topic)), nil
		}
	}

	content, err := s.workdir.ReadReport(topic, iteration)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read report failed: %v", err)), nil
	}

	return mcp.NewToolResultText(content), nil
}

// handleRoastReports handles the roast_reports tool.
func (s *Server) handleRoastReports(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos, err := s.workdir.List()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list reports failed: %v", err)), nil
	}

	if len(infos) == 0 {
		return mcp.NewToolResultText("No reports stored."), nil
	}

	var sb strings.Builder
	sb.WriteString("Stored reports:\n\n")
	for _, info := range infos {
		fmt.Fprintf(&sb, "- %s (iteration %d): %s\n", info.Topic, info.Iteration, info.Path)
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// handleListPersonas handles the list_personas tool.
func (s *Server) handleListPersonas(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	personas := s.registry.List()

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d critique personas:\n\n", len(personas))
	for _, p := range personas {
		fmt.Fprintf(&sb, "- **%s** (id: %s, focus: %s)\n", p.Name, p.ID, p.Focus)
		if p.Description != "" {
			fmt.Fprintf(&sb, "  %s\n", p.Description)
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// ServeStdio starts the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.server)
}
