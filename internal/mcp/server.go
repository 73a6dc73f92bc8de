package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/pdf-template-filler/internal/config"
	"github.com/a3tai/pdf-template-filler/internal/descriptions"
	"github.com/a3tai/pdf-template-filler/internal/service"
)

// shutdownTimeout bounds how long server mode waits for open connections.
const shutdownTimeout = 5 * time.Second

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *service.Service
	mcpServer *server.MCPServer
	logger    *slog.Logger

	stdin  io.Reader
	stdout io.Writer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, svc *service.Service, logger *slog.Logger) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // the tool set never changes at runtime
	)

	s := &Server{
		config:    cfg,
		service:   svc,
		mcpServer: mcpServer,
		logger:    logger,
		stdin:     os.Stdin,
		stdout:    os.Stdout,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// Profiles
	s.addTool(mcp.NewTool("profile_create",
		mcp.WithDescription(descriptions.GetToolDescription("profile_create")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Profile name")),
		mcp.WithObject("fields", mcp.Description("Values keyed by label, e.g. {\"Full Name\": \"Jane Doe\"}")),
	), s.handleProfileCreate)

	s.addTool(mcp.NewTool("profile_list",
		mcp.WithDescription(descriptions.GetToolDescription("profile_list")),
	), s.handleProfileList)

	s.addTool(mcp.NewTool("profile_show",
		mcp.WithDescription(descriptions.GetToolDescription("profile_show")),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Profile id")),
	), s.handleProfileShow)

	s.addTool(mcp.NewTool("profile_update",
		mcp.WithDescription(descriptions.GetToolDescription("profile_update")),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Profile id")),
		mcp.WithString("name", mcp.Description("New profile name (unchanged if empty)")),
		mcp.WithObject("set", mcp.Description("Values to add or overwrite")),
		mcp.WithArray("remove", mcp.Description("Keys to delete")),
	), s.handleProfileUpdate)

	s.addTool(mcp.NewTool("profile_delete",
		mcp.WithDescription(descriptions.GetToolDescription("profile_delete")),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Profile id")),
	), s.handleProfileDelete)

	// Templates
	s.addTool(mcp.NewTool("template_upload",
		mcp.WithDescription(descriptions.GetToolDescription("template_upload")),
		mcp.WithString("path", mcp.Required(),
			mcp.Description("Path to the PDF, absolute or relative to the working directory")),
		mcp.WithString("name", mcp.Description("Template name (defaults to the file name)")),
	), s.handleTemplateUpload)

	s.addTool(mcp.NewTool("template_list",
		mcp.WithDescription(descriptions.GetToolDescription("template_list")),
	), s.handleTemplateList)

	s.addTool(mcp.NewTool("template_show",
		mcp.WithDescription(descriptions.GetToolDescription("template_show")),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Template id")),
	), s.handleTemplateShow)

	s.addTool(mcp.NewTool("template_rename",
		mcp.WithDescription(descriptions.GetToolDescription("template_rename")),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Template id")),
		mcp.WithString("name", mcp.Required(), mcp.Description("New template name")),
	), s.handleTemplateRename)

	s.addTool(mcp.NewTool("template_delete",
		mcp.WithDescription(descriptions.GetToolDescription("template_delete")),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Template id")),
	), s.handleTemplateDelete)

	// Fields
	s.addTool(mcp.NewTool("field_add",
		mcp.WithDescription(descriptions.GetToolDescription("field_add")),
		mcp.WithNumber("template_id", mcp.Required(), mcp.Description("Template id")),
		mcp.WithNumber("page", mcp.Description("Zero-based page index (default 0)")),
	), s.handleFieldAdd)

	s.addTool(mcp.NewTool("field_drag",
		mcp.WithDescription(descriptions.GetToolDescription("field_drag")),
		mcp.WithNumber("template_id", mcp.Required(), mcp.Description("Template id")),
		mcp.WithString("field_id", mcp.Required(), mcp.Description("Field id")),
		mcp.WithNumber("from_x", mcp.Required(), mcp.Description("Pointer-down x in viewport pixels")),
		mcp.WithNumber("from_y", mcp.Required(), mcp.Description("Pointer-down y in viewport pixels")),
		mcp.WithNumber("to_x", mcp.Required(), mcp.Description("Pointer-up x in viewport pixels")),
		mcp.WithNumber("to_y", mcp.Required(), mcp.Description("Pointer-up y in viewport pixels")),
		mcp.WithNumber("container_width",
			mcp.Description("Width of the view in pixels (keeps the current zoom if omitted)")),
	), s.handleFieldDrag)

	s.addTool(mcp.NewTool("field_set_box",
		mcp.WithDescription(descriptions.GetToolDescription("field_set_box")),
		mcp.WithNumber("template_id", mcp.Required(), mcp.Description("Template id")),
		mcp.WithString("field_id", mcp.Required(), mcp.Description("Field id")),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Left edge in points")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Top edge in points, from the top of the page")),
		mcp.WithNumber("width", mcp.Required(), mcp.Description("Width in points")),
		mcp.WithNumber("height", mcp.Required(), mcp.Description("Height in points")),
	), s.handleFieldSetBox)

	s.addTool(mcp.NewTool("field_rename",
		mcp.WithDescription(descriptions.GetToolDescription("field_rename")),
		mcp.WithNumber("template_id", mcp.Required(), mcp.Description("Template id")),
		mcp.WithString("field_id", mcp.Required(), mcp.Description("Field id")),
		mcp.WithString("name", mcp.Required(), mcp.Description("New display name")),
	), s.handleFieldRename)

	s.addTool(mcp.NewTool("field_font_size",
		mcp.WithDescription(descriptions.GetToolDescription("field_font_size")),
		mcp.WithNumber("template_id", mcp.Required(), mcp.Description("Template id")),
		mcp.WithString("field_id", mcp.Required(), mcp.Description("Field id")),
		mcp.WithNumber("size", mcp.Required(), mcp.Description("Font size in points")),
	), s.handleFieldFontSize)

	s.addTool(mcp.NewTool("field_delete",
		mcp.WithDescription(descriptions.GetToolDescription("field_delete")),
		mcp.WithNumber("template_id", mcp.Required(), mcp.Description("Template id")),
		mcp.WithString("field_id", mcp.Required(), mcp.Description("Field id")),
	), s.handleFieldDelete)

	// Mappings
	s.addTool(mcp.NewTool("mapping_bind",
		mcp.WithDescription(descriptions.GetToolDescription("mapping_bind")),
		mcp.WithNumber("template_id", mcp.Required(), mcp.Description("Template id")),
		mcp.WithString("field_id", mcp.Required(), mcp.Description("Field id")),
		mcp.WithString("profile_key", mcp.Required(), mcp.Description("Profile key; empty removes the binding")),
		mcp.WithString("transformation", mcp.Description("none, uppercase or lowercase (default none)")),
	), s.handleMappingBind)

	s.addTool(mcp.NewTool("mapping_unbind",
		mcp.WithDescription(descriptions.GetToolDescription("mapping_unbind")),
		mcp.WithNumber("template_id", mcp.Required(), mcp.Description("Template id")),
		mcp.WithString("field_id", mcp.Required(), mcp.Description("Field id")),
	), s.handleMappingUnbind)

	// Generation
	s.addTool(mcp.NewTool("document_generate",
		mcp.WithDescription(descriptions.GetToolDescription("document_generate")),
		mcp.WithNumber("template_id", mcp.Required(), mcp.Description("Template id")),
		mcp.WithNumber("profile_id", mcp.Required(), mcp.Description("Profile id")),
	), s.handleDocumentGenerate)

	s.addTool(mcp.NewTool("server_info",
		mcp.WithDescription(descriptions.GetToolDescription("server_info")),
	), s.handleServerInfo)
}

// addTool registers handler under tool's name with call logging.
func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	name := tool.Name
	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := handler(ctx, request)
		failed := err != nil || (result != nil && result.IsError)
		s.logger.Debug("tool call", "tool", name, "duration", time.Since(start), "failed", failed)
		return result, err
	})
}

// Run starts the MCP server in the configured mode and returns when ctx is
// done or the transport fails.
func (s *Server) Run(ctx context.Context) error {
	switch s.config.Mode {
	case config.ModeServer:
		return s.runServerMode(ctx)
	case config.ModeStdio, "":
		return s.runStdioMode(ctx)
	default:
		return fmt.Errorf("unsupported mode: %s", s.config.Mode)
	}
}

// runStdioMode serves MCP over stdin and stdout
func (s *Server) runStdioMode(ctx context.Context) error {
	s.logger.Debug("starting MCP server in stdio mode", "work_dir", s.service.WorkDirectory())

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	if err := stdio.Listen(ctx, s.stdin, s.stdout); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over HTTP with server-sent events until ctx is
// done.
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting MCP server in server mode", "address", addr)
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve http: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("http shutdown failed", "error", err)
		}
		s.logger.Info("MCP server stopped")
		return nil
	}
}
