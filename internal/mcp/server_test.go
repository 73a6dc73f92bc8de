package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/pdf-template-filler/internal/config"
	"github.com/a3tai/pdf-template-filler/internal/pdf/pdftest"
	"github.com/a3tai/pdf-template-filler/internal/service"
	"github.com/a3tai/pdf-template-filler/internal/storage/memory"
)

// newTestServer returns a server over an in-memory store whose working
// directory holds form.pdf and blank.pdf.
func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	tempDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tempDir, "form.pdf"), pdftest.FormPDF(), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "blank.pdf"), pdftest.BlankPDF(1), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	cfg := &config.Config{
		Mode:          config.ModeStdio,
		WorkDirectory: tempDir,
		Store:         config.StoreMemory,
		Version:       "1.0.0",
		ServerName:    "test-server",
		MaxFileSize:   1024 * 1024,
	}
	svc, err := service.New(service.Options{Store: memory.New(), WorkDirectory: tempDir})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })

	server, err := NewServer(cfg, svc, nil)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return server, tempDir
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error),
	args map[string]interface{},
) (string, bool) {
	t.Helper()
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
	result, err := handler(context.Background(), request)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if result == nil {
		t.Fatal("result should not be nil")
	}
	return extractTextFromResult(result), result.IsError
}

func TestNewServer(t *testing.T) {
	svc, err := service.New(service.Options{Store: memory.New(), WorkDirectory: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	tests := []struct {
		name   string
		config *config.Config
	}{
		{
			name: "valid stdio mode config",
			config: &config.Config{
				Mode:       "stdio",
				Host:       "127.0.0.1",
				Port:       8080,
				Version:    "1.0.0",
				ServerName: "test-server",
				LogLevel:   "info",
			},
		},
		{
			name: "valid server mode config",
			config: &config.Config{
				Mode:       "server",
				Host:       "127.0.0.1",
				Port:       8080,
				Version:    "1.0.0",
				ServerName: "test-server",
				LogLevel:   "info",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(tt.config, svc, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if server.config != tt.config {
				t.Error("server config not set correctly")
			}
			if server.service != svc {
				t.Error("server service not set correctly")
			}
			if server.mcpServer == nil {
				t.Error("mcpServer should be initialized")
			}
			if server.logger == nil {
				t.Error("logger should default to slog.Default")
			}
		})
	}

	if _, err := NewServer(tests[0].config, nil, nil); err == nil {
		t.Error("expected error with nil service")
	}
}

func TestServer_HandleProfiles(t *testing.T) {
	server, _ := newTestServer(t)

	text, isErr := call(t, server.handleProfileCreate, map[string]interface{}{
		"name":   "Jane",
		"fields": map[string]interface{}{"Full Name": "Jane Doe", "Age": float64(41)},
	})
	if isErr {
		t.Fatalf("profile_create failed: %s", text)
	}
	if !strings.Contains(text, "Created profile #1: Jane") {
		t.Errorf("unexpected response: %s", text)
	}
	if !strings.Contains(text, "Age: 41") {
		t.Errorf("numbers should be stored as plain text, got: %s", text)
	}

	text, isErr = call(t, server.handleProfileUpdate, map[string]interface{}{
		"id":     float64(1),
		"set":    map[string]interface{}{"City": "Oslo"},
		"remove": []interface{}{"Age"},
	})
	if isErr {
		t.Fatalf("profile_update failed: %s", text)
	}
	if strings.Contains(text, "Age") || !strings.Contains(text, "City: Oslo") {
		t.Errorf("unexpected values after update: %s", text)
	}

	text, _ = call(t, server.handleProfileList, nil)
	if !strings.Contains(text, "Found 1 profile(s)") {
		t.Errorf("unexpected list: %s", text)
	}

	text, isErr = call(t, server.handleProfileShow, map[string]interface{}{"id": "1"})
	if isErr || !strings.Contains(text, "Full Name: Jane Doe") {
		t.Errorf("profile_show with string id failed: %s", text)
	}

	if _, isErr = call(t, server.handleProfileDelete, map[string]interface{}{"id": float64(1)}); isErr {
		t.Error("profile_delete failed")
	}
	if _, isErr = call(t, server.handleProfileShow, map[string]interface{}{"id": float64(1)}); !isErr {
		t.Error("expected error for deleted profile")
	}
}

func TestServer_HandleArgumentErrors(t *testing.T) {
	server, _ := newTestServer(t)

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]interface{}
	}{
		{"missing id", server.handleProfileShow, map[string]interface{}{}},
		{"fractional id", server.handleProfileShow, map[string]interface{}{"id": 1.5}},
		{"negative id", server.handleTemplateShow, map[string]interface{}{"id": float64(-1)}},
		{"fields not an object", server.handleProfileCreate, map[string]interface{}{"name": "x", "fields": "a=b"}},
		{"remove not strings", server.handleProfileUpdate, map[string]interface{}{
			"id": float64(1), "remove": []interface{}{float64(1)},
		}},
		{"missing path", server.handleTemplateUpload, map[string]interface{}{}},
		{"missing coordinate", server.handleFieldDrag, map[string]interface{}{
			"template_id": float64(1), "field_id": "x", "from_x": float64(1),
		}},
		{"missing profile key", server.handleMappingBind, map[string]interface{}{
			"template_id": float64(1), "field_id": "x",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if text, isErr := call(t, tt.handler, tt.args); !isErr {
				t.Errorf("expected error result, got: %s", text)
			}
		})
	}
}

func TestServer_HandleTemplateUpload(t *testing.T) {
	server, _ := newTestServer(t)

	text, isErr := call(t, server.handleTemplateUpload, map[string]interface{}{"path": "form.pdf"})
	if isErr {
		t.Fatalf("template_upload failed: %s", text)
	}
	for _, want := range []string{"Created template #1: form", "Form fields found: 3", "full_name"} {
		if !strings.Contains(text, want) {
			t.Errorf("response should contain %q, got: %s", want, text)
		}
	}

	text, isErr = call(t, server.handleTemplateUpload, map[string]interface{}{"path": "blank.pdf", "name": "Flat"})
	if isErr {
		t.Fatalf("template_upload failed: %s", text)
	}
	if !strings.Contains(text, "no fillable form fields") {
		t.Errorf("expected guidance for flat PDFs, got: %s", text)
	}

	if _, isErr = call(t, server.handleTemplateUpload, map[string]interface{}{"path": "../etc/passwd.pdf"}); !isErr {
		t.Error("expected error for path outside the working directory")
	}

	text, _ = call(t, server.handleTemplateList, nil)
	if !strings.Contains(text, "Found 2 template(s)") {
		t.Errorf("unexpected list: %s", text)
	}

	text, isErr = call(t, server.handleTemplateRename, map[string]interface{}{"id": float64(2), "name": "Letter"})
	if isErr || !strings.Contains(text, "to Letter") {
		t.Errorf("template_rename failed: %s", text)
	}
	if _, isErr = call(t, server.handleTemplateDelete, map[string]interface{}{"id": float64(2)}); isErr {
		t.Error("template_delete failed")
	}
	text, _ = call(t, server.handleTemplateList, nil)
	if !strings.Contains(text, "Found 1 template(s)") {
		t.Errorf("unexpected list after delete: %s", text)
	}
}

func TestServer_HandleServerInfo(t *testing.T) {
	server, tempDir := newTestServer(t)

	text, isErr := call(t, server.handleServerInfo, nil)
	if isErr {
		t.Fatalf("server_info failed: %s", text)
	}
	for _, want := range []string{"test-server v1.0.0", "Store: memory", "Templates: 0, Profiles: 0",
		"document_generate", filepath.Base(tempDir)} {
		if !strings.Contains(text, want) {
			t.Errorf("server info should contain %q, got: %s", want, text)
		}
	}
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		in      interface{}
		want    int64
		wantErr bool
	}{
		{float64(3), 3, false},
		{3, 3, false},
		{int64(7), 7, false},
		{" 12 ", 12, false},
		{2.5, 0, true},
		{"abc", 0, true},
		{true, 0, true},
	}
	for _, tt := range tests {
		got, err := toInt64(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("toInt64(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Errorf("toInt64(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// extractTextFromResult extracts text content from MCP CallToolResult
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
