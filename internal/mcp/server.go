package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/baozi-order/internal/session"
	"github.com/dshills/baozi-order/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "baozi-order"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	sessions *session.Registry
	storage  storage.Storage // optional
	logger   *zap.Logger
}

// NewServer creates a new MCP server instance. store may be nil, in which
// case get_status reports the archive as unavailable.
func NewServer(sessions *session.Registry, store storage.Storage, logger *zap.Logger) (*Server, error) {
	if sessions == nil {
		return nil, errors.New("mcp: session registry is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:      mcpServer,
		sessions: sessions,
		storage:  store,
		logger:   logger,
	}

	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("MCP server ready, listening on stdio")
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(startOrderTool(), s.handleStartOrder)
	s.mcp.AddTool(sendMessageTool(), s.handleSendMessage)
	s.mcp.AddTool(orderSummaryTool(), s.handleOrderSummary)
	s.mcp.AddTool(resetOrderTool(), s.handleResetOrder)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
