package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dshills/baozi-order/internal/assistant"
	"github.com/dshills/baozi-order/internal/menu"
	"github.com/dshills/baozi-order/internal/order"
	"github.com/dshills/baozi-order/internal/session"
)

// MCP error codes
const (
	ErrorCodeInvalidParams   = -32602 // Invalid method parameters
	ErrorCodeInternalError   = -32603 // Internal JSON-RPC error
	ErrorCodeSessionNotFound = -32001 // Session expired or never existed
	ErrorCodeEmptyMessage    = -32004 // Message parameter is empty
)

// handleStartOrder handles the start_order tool invocation
func (s *Server) handleStartOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, reply := s.sessions.Create(ctx)

	response := replyResponse(reply)
	response["session_id"] = sess.ID
	response["menu"] = menuResponse(sess)

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSendMessage handles the send_message tool invocation
func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	id, err := requireSessionID(args)
	if err != nil {
		return nil, err
	}

	message := strings.TrimSpace(getStringDefault(args, "message", ""))
	if message == "" {
		return nil, newMCPError(ErrorCodeEmptyMessage, "message parameter is required and cannot be empty", map[string]interface{}{
			"param":  "message",
			"reason": "missing or empty",
		})
	}

	reply, err := s.sessions.Submit(ctx, id, message)
	if err != nil {
		return nil, s.sessionError(id, err)
	}

	response := replyResponse(reply)
	response["session_id"] = id
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleOrderSummary handles the order_summary tool invocation
func (s *Server) handleOrderSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	id, err := requireSessionID(args)
	if err != nil {
		return nil, err
	}

	summary, err := s.sessions.Summary(id)
	if err != nil {
		return nil, s.sessionError(id, err)
	}

	// The receipt is returned verbatim so clients can show it as is.
	return mcp.NewToolResultText(summary), nil
}

// handleResetOrder handles the reset_order tool invocation
func (s *Server) handleResetOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	id, err := requireSessionID(args)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Reset(id); err != nil {
		return nil, s.sessionError(id, err)
	}

	response := map[string]interface{}{
		"session_id": id,
		"reset":      true,
		"phase":      assistant.PhaseOrdering.String(),
		"summary":    order.NoOrderSummary,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	response := map[string]interface{}{
		"live_sessions": s.sessions.Len(),
	}

	if s.storage == nil {
		response["archive"] = map[string]interface{}{
			"available": false,
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	status, err := s.storage.GetStatus(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	archive := map[string]interface{}{
		"available":      true,
		"orders_count":   status.OrdersCount,
		"lines_count":    status.LinesCount,
		"revenue":        menu.FormatAmount(status.Revenue),
		"schema_version": status.SchemaVersion,
		"build_mode":     status.BuildMode,
	}
	if !status.LastOrderAt.IsZero() {
		archive["last_order_at"] = status.LastOrderAt.Format("2006-01-02T15:04:05Z07:00")
	}
	response["archive"] = archive

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// sessionError maps registry errors to MCP errors
func (s *Server) sessionError(id string, err error) error {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return newMCPError(ErrorCodeSessionNotFound, "session not found", map[string]interface{}{
			"session_id": id,
		})
	case errors.Is(err, session.ErrEmptyMessage):
		return newMCPError(ErrorCodeEmptyMessage, "message cannot be empty", nil)
	default:
		s.logger.Error("session operation failed", zap.String("session_id", id), zap.Error(err))
		return newMCPError(ErrorCodeInternalError, "session operation failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func replyResponse(reply assistant.Reply) map[string]interface{} {
	return map[string]interface{}{
		"reply":     reply.Text,
		"fallback":  reply.Fallback,
		"phase":     reply.Phase.String(),
		"completed": reply.Order.Completed,
		"order":     orderResponse(reply.Order),
	}
}

func orderResponse(o order.State) map[string]interface{} {
	lines := make([]map[string]interface{}, len(o.Items))
	for i, l := range o.Items {
		lines[i] = map[string]interface{}{
			"item":     l.Item,
			"quantity": l.Quantity,
			"price":    menu.FormatAmount(l.Price),
		}
	}
	return map[string]interface{}{
		"lines": lines,
		"total": menu.FormatAmount(o.Total),
	}
}

func menuResponse(sess *session.Session) []map[string]interface{} {
	items := sess.Menu().Items()
	out := make([]map[string]interface{}, len(items))
	for i, it := range items {
		out[i] = map[string]interface{}{
			"name":  it.Name,
			"price": menu.FormatAmount(it.Price),
		}
	}
	return out
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// arguments extracts the argument map; a call with no arguments yields an empty map
func arguments(request mcp.CallToolRequest) (map[string]interface{}, error) {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}, nil
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	return args, nil
}

func requireSessionID(args map[string]interface{}) (string, error) {
	id := strings.TrimSpace(getStringDefault(args, "session_id", ""))
	if id == "" {
		return "", newMCPError(ErrorCodeInvalidParams, "session_id parameter is required", map[string]interface{}{
			"param":  "session_id",
			"reason": "missing or empty",
		})
	}
	return id, nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
