// Package server implements the MCP (Model Context Protocol) server for
// chessboard recognition.
//
// This package provides a JSON-RPC 2.0 server that exposes the board
// detection and position assembly pipeline through the MCP protocol, so an
// MCP client with its own square classifier can turn screenshots into FEN.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Board Geometry:
//   - board_locate: Coarse board bounding box
//   - board_align: Refined board rectangle and grid lines
//   - board_tiles: The 64 square tiles as PNG
//   - board_crop: The board region as PNG
//   - board_overlay: Grid drawn over the image
//   - board_edges: Edge map used by the aligner
//
// Position:
//   - position_assemble: 64 predictions to FEN with corrections
//   - position_validate: FEN parsing and square labels
//   - board_recognize: Full pipeline with client-side predictions
//   - position_history: Recently recognized positions
//
// A typical client calls board_tiles, classifies the tiles itself and then
// calls position_assemble, or board_recognize with the same image to have
// the result recorded.
//
// # Configuration
//
// Tools that run detection accept an "options" object whose sections
// override the server configuration for that call only (see
// config.Config.ApplyOverrides).
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
package server
