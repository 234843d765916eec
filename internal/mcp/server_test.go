package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/afero"

	"github.com/a3tai/formharvest/internal/config"
	"github.com/a3tai/formharvest/internal/document/doctest"
	"github.com/a3tai/formharvest/internal/harvest"
	"github.com/a3tai/formharvest/internal/logger"
	"github.com/a3tai/formharvest/internal/sink"
)

// newTestServer creates a server over a temporary source folder
func newTestServer(t *testing.T) (*Server, *config.Config) {
	t.Helper()

	tempDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.SourceFolder = filepath.Join(tempDir, "src")
	cfg.BackupFolder = filepath.Join(tempDir, "backup")
	cfg.ResultDir = filepath.Join(tempDir, "results")
	cfg.ExcelPath = "forms.csv"
	cfg.Keywords = []string{"Name", "City"}
	cfg.StableDelay = 0
	cfg.ServerName = "test-server"

	if err := os.MkdirAll(cfg.SourceFolder, 0o755); err != nil {
		t.Fatalf("failed to create source folder: %v", err)
	}

	fs := afero.NewOsFs()
	table, err := sink.Open(fs, cfg.OutputPath(), cfg.Keywords)
	if err != nil {
		t.Fatalf("failed to open table: %v", err)
	}
	runner, err := harvest.NewRunner(fs, cfg, table, logger.NewNop())
	if err != nil {
		t.Fatalf("failed to create runner: %v", err)
	}

	server, err := NewServer(cfg, runner, logger.NewNop())
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return server, cfg
}

func writeForm(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, doctest.DOCX(t, doctest.Lines(lines...)), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func callTool(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestNewServer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SourceFolder = t.TempDir()

	if _, err := NewServer(cfg, nil, logger.NewNop()); err == nil {
		t.Error("expected error for nil runner")
	}

	server, _ := newTestServer(t)
	if server.mcpServer == nil {
		t.Error("mcpServer should be initialized")
	}
	if server.guard == nil {
		t.Error("path guard should be initialized")
	}
}

func TestServer_HandleExtractFile(t *testing.T) {
	server, cfg := newTestServer(t)
	path := writeForm(t, cfg.SourceFolder, "form.docx", "Name: Ann City: Oslo", "Name: Anne")

	result, err := server.handleExtractFile(context.Background(), callTool(map[string]interface{}{
		"path": "form.docx",
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", extractTextFromResult(result))
	}

	text := extractTextFromResult(result)
	for _, want := range []string{"Name: Anne\n", "City: Oslo\n", "Fields filled: 2 of 2", `line 1, Name: "Ann" -> "Ann"`} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in result, got: %s", want, text)
		}
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("extraction must not move the document: %v", err)
	}
}

func TestServer_HandleExtractFile_Rejected(t *testing.T) {
	server, cfg := newTestServer(t)
	outside := writeForm(t, filepath.Dir(cfg.SourceFolder), "outside.docx", "Name: Eve")

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{name: "missing path", args: map[string]interface{}{}, want: "path"},
		{name: "outside source folder", args: map[string]interface{}{"path": outside}, want: "security validation failed"},
		{name: "parent traversal", args: map[string]interface{}{"path": "../outside.docx"}, want: "security validation failed"},
		{name: "missing file", args: map[string]interface{}{"path": "absent.docx"}, want: "document unreadable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleExtractFile(context.Background(), callTool(tt.args))
			if err != nil {
				t.Fatalf("handler should not return error, got: %v", err)
			}
			if !result.IsError {
				t.Fatalf("expected error result, got: %s", extractTextFromResult(result))
			}
			if text := extractTextFromResult(result); !strings.Contains(text, tt.want) {
				t.Errorf("expected %q in %q", tt.want, text)
			}
		})
	}
}

func TestServer_HandlePending(t *testing.T) {
	server, cfg := newTestServer(t)

	result, _ := server.handlePending(context.Background(), callTool(nil))
	if text := extractTextFromResult(result); !strings.Contains(text, "No documents waiting") {
		t.Errorf("expected empty listing, got: %s", text)
	}

	writeForm(t, cfg.SourceFolder, "b.docx", "Name: B")
	writeForm(t, cfg.SourceFolder, "a.docx", "Name: A")
	writeForm(t, cfg.SourceFolder, "~$a.docx", "lock")

	result, _ = server.handlePending(context.Background(), callTool(nil))
	text := extractTextFromResult(result)
	if !strings.Contains(text, "2 document(s) waiting") {
		t.Errorf("expected two pending documents, got: %s", text)
	}
	if strings.Index(text, "a.docx") > strings.Index(text, "b.docx") {
		t.Errorf("documents should be listed by name, got: %s", text)
	}
	if strings.Contains(text, "~$") {
		t.Errorf("lock files should not be listed, got: %s", text)
	}
}

func TestServer_PauseResumeProcessNow(t *testing.T) {
	server, cfg := newTestServer(t)
	writeForm(t, cfg.SourceFolder, "a.docx", "Name: Ann", "City: Bergen")
	ctx := context.Background()

	if _, err := server.handlePause(ctx, callTool(nil)); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	result, _ := server.handleStatus(ctx, callTool(nil))
	if text := extractTextFromResult(result); !strings.Contains(text, "State: paused") {
		t.Errorf("expected paused state, got: %s", text)
	}

	result, _ = server.handleProcessNow(ctx, callTool(nil))
	if !result.IsError || !strings.Contains(extractTextFromResult(result), "paused") {
		t.Errorf("process_now should fail while paused, got: %s", extractTextFromResult(result))
	}

	if _, err := server.handleResume(ctx, callTool(nil)); err != nil {
		t.Fatalf("resume failed: %v", err)
	}

	result, _ = server.handleProcessNow(ctx, callTool(nil))
	if result.IsError {
		t.Fatalf("process_now failed: %s", extractTextFromResult(result))
	}
	if text := extractTextFromResult(result); !strings.Contains(text, "Processed: 1") {
		t.Errorf("expected one processed document, got: %s", text)
	}

	if _, err := os.Stat(filepath.Join(cfg.BackupFolder, "a.docx")); err != nil {
		t.Errorf("document should be in the backup folder: %v", err)
	}

	data, err := os.ReadFile(cfg.OutputPath())
	if err != nil {
		t.Fatalf("table not written: %v", err)
	}
	if !strings.Contains(string(data), "Ann,Bergen") {
		t.Errorf("unexpected table contents: %q", data)
	}

	result, _ = server.handleStatus(ctx, callTool(nil))
	text := extractTextFromResult(result)
	for _, want := range []string{"State: running", "Processed: 1", "Rows in table: 1", "Last document: a.docx"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in status, got: %s", want, text)
		}
	}
}

// Helper function to extract text from MCP result
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}
