// Package mcp implements the Model Context Protocol (MCP) server for the bun
// shop ordering assistant.
//
// The MCP server exposes five tools:
//   - start_order: open a session and get the greeting
//   - send_message: send one customer message to a session
//   - order_summary: render a session's current order as a receipt
//   - reset_order: clear a session's order and conversation
//   - get_status: live sessions and order archive statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// It is started by:
//
//	baozi -mode mcp
//
// # Tool: send_message
//
//	Request:
//	{
//	  "name": "send_message",
//	  "arguments": {
//	    "session_id": "0b6c...",
//	    "message": "两个鲜肉包，三个豆沙包"
//	  }
//	}
//
//	Response:
//	{
//	  "session_id": "0b6c...",
//	  "reply": "鲜肉包：2个\n豆沙包：3个\n请问还需要什么吗？",
//	  "fallback": false,
//	  "phase": "ordering",
//	  "completed": false,
//	  "order": {
//	    "lines": [
//	      {"item": "鲜肉包", "quantity": 2, "price": "6.0"},
//	      {"item": "豆沙包", "quantity": 3, "price": "7.5"}
//	    ],
//	    "total": "13.5"
//	  }
//	}
//
// order_summary returns the plain receipt text rather than JSON.
//
// # Error Handling
//
// Tool errors are returned as MCPError values:
//   - -32602: Invalid params (missing session_id, malformed arguments)
//   - -32603: Internal error (archive unavailable)
//   - -32001: Session not found (expired or never created)
//   - -32004: Empty message
//
// A failed completion call is not an error: the reply carries the apology
// text and "fallback": true.
//
// # Logging
//
// Stdout is reserved for the protocol; the server logs to stderr through zap.
package mcp
