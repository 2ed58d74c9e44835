package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID returned by start_order",
	}
}

// startOrderTool returns the tool definition for start_order
func startOrderTool() mcp.Tool {
	return mcp.Tool{
		Name:        "start_order",
		Description: "Start a new bun shop ordering conversation and return the assistant's greeting",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// sendMessageTool returns the tool definition for send_message
func sendMessageTool() mcp.Tool {
	return mcp.Tool{
		Name:        "send_message",
		Description: "Send a customer message to an ordering session and return the assistant's reply with the current order",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"message": map[string]interface{}{
					"type":        "string",
					"description": "Customer message, e.g. 两个鲜肉包",
				},
			},
			Required: []string{"session_id", "message"},
		},
	}
}

// orderSummaryTool returns the tool definition for order_summary
func orderSummaryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "order_summary",
		Description: "Render the current order of a session as a receipt",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}
}

// resetOrderTool returns the tool definition for reset_order
func resetOrderTool() mcp.Tool {
	return mcp.Tool{
		Name:        "reset_order",
		Description: "Clear a session's order and conversation so a new order can begin",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report live sessions and order archive statistics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
