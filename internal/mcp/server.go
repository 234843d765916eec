package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/formharvest/internal/config"
	"github.com/a3tai/formharvest/internal/descriptions"
	"github.com/a3tai/formharvest/internal/harvest"
	"github.com/a3tai/formharvest/internal/logger"
)

// Server exposes the harvester as MCP tools over stdio
type Server struct {
	config    *config.Config
	runner    *harvest.Runner
	guard     *pathGuard
	log       logger.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, runner *harvest.Runner, log logger.Logger) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}

	guard, err := newPathGuard(cfg.SourceFolder)
	if err != nil {
		return nil, err
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		runner:    runner,
		guard:     guard,
		log:       log,
		mcpServer: mcpServer,
	}
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"form_extract_file",
		mcp.WithDescription(descriptions.GetToolDescription("form_extract_file")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Document path, absolute or relative to the source folder"),
		),
	), s.handleExtractFile)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_pending",
		mcp.WithDescription(descriptions.GetToolDescription("form_pending")),
	), s.handlePending)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_status",
		mcp.WithDescription(descriptions.GetToolDescription("form_status")),
	), s.handleStatus)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_pause",
		mcp.WithDescription(descriptions.GetToolDescription("form_pause")),
	), s.handlePause)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_resume",
		mcp.WithDescription(descriptions.GetToolDescription("form_resume")),
	), s.handleResume)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_process_now",
		mcp.WithDescription(descriptions.GetToolDescription("form_process_now")),
	), s.handleProcessNow)
}

func (s *Server) handleExtractFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resolved, err := s.guard.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("security validation failed: %v", err)), nil
	}

	insp, err := s.runner.Service().Inspect(ctx, resolved)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatInspection(insp)), nil
}

func (s *Server) handlePending(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pending, err := s.runner.Pending()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(pending) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No documents waiting in %s", s.config.SourceFolder)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d document(s) waiting in %s:\n", len(pending), s.config.SourceFolder)
	for i, path := range pending {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, filepath.Base(path))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatStatus(s.runner.Status())), nil
}

func (s *Server) handlePause(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.runner.Controller().Pause()
	s.log.Info("processing paused")
	return mcp.NewToolResultText("Processing paused. The current document, if any, is finished first."), nil
}

func (s *Server) handleResume(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.runner.Controller().Resume()
	s.log.Info("processing resumed")
	return mcp.NewToolResultText("Processing resumed."), nil
}

func (s *Server) handleProcessNow(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.runner.Controller().Paused() {
		return mcp.NewToolResultError(harvest.ErrPaused.Error() + ", use form_resume first"), nil
	}

	result, err := s.runner.ProcessBatch(ctx)
	if err != nil && !errors.Is(err, harvest.ErrOutputWrite) {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := s.formatBatchResult(result)
	if err != nil {
		text += fmt.Sprintf("\nWARNING: %v\nThe rows are kept and will be written with the next save.\n", err)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) formatInspection(insp *harvest.Inspection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Document: %s (%s)\n", filepath.Base(insp.Path), insp.Format)
	fmt.Fprintf(&b, "Fields filled: %d of %d\n\n", insp.Record.Filled(), len(insp.Record.Labels()))

	b.WriteString("Record:\n")
	for _, label := range insp.Record.Labels() {
		fmt.Fprintf(&b, "  %s: %s\n", label, insp.Record.Value(label))
	}

	if len(insp.Assignments) > 0 {
		b.WriteString("\nLabel occurrences:\n")
		for _, a := range insp.Assignments {
			fmt.Fprintf(&b, "  line %d, %s: %q -> %q\n", a.Line, a.Match.Label, a.Raw, a.Value)
		}
	}

	b.WriteString("\nText:\n")
	b.WriteString(insp.Text)
	return b.String()
}

func (s *Server) formatStatus(st harvest.Status) string {
	var b strings.Builder
	state := "running"
	if st.Paused {
		state = "paused"
	}
	fmt.Fprintf(&b, "State: %s\n", state)
	fmt.Fprintf(&b, "Processed: %d\n", st.Processed)
	fmt.Fprintf(&b, "Failed: %d\n", st.Failed)
	fmt.Fprintf(&b, "Skipped (still being written): %d\n", st.Skipped)
	fmt.Fprintf(&b, "Pending after last batch: %d\n", st.Pending)
	fmt.Fprintf(&b, "Batches: %d\n", st.Batches)
	fmt.Fprintf(&b, "Rows in table: %d\n", st.Rows)
	fmt.Fprintf(&b, "Output: %s\n", s.config.OutputPath())
	if st.LastFile != "" {
		fmt.Fprintf(&b, "Last document: %s\n", st.LastFile)
	}
	if st.LastError != "" {
		fmt.Fprintf(&b, "Last error: %s\n", st.LastError)
	}
	return b.String()
}

func (s *Server) formatBatchResult(r *harvest.BatchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Batch finished in %s\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "Pending: %d\n", r.Pending)
	fmt.Fprintf(&b, "Processed: %d\n", r.Processed)
	fmt.Fprintf(&b, "Failed: %d\n", r.Failed)
	fmt.Fprintf(&b, "Skipped: %d\n", r.Skipped)
	if r.Cancelled {
		b.WriteString("Stopped early: cancelled\n")
	}
	for _, moved := range r.Archived {
		fmt.Fprintf(&b, "  moved to %s\n", moved)
	}
	for _, msg := range r.Errors {
		fmt.Fprintf(&b, "  error: %s\n", msg)
	}
	return b.String()
}

// Run serves MCP over stdin and stdout until ctx is done or stdin closes
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("starting MCP server on stdio", "name", s.config.ServerName, "source", s.config.SourceFolder)

	stdio := server.NewStdioServer(s.mcpServer)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
