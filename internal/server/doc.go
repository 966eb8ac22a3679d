// Package server implements the MCP (Model Context Protocol) server for panel
// area estimation.
//
// This package provides a JSON-RPC 2.0 server that exposes the estimator
// through the MCP protocol, so an assistant can measure display panels in
// venue photos from the output of an object detector.
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
// Estimation:
//   - area_estimate: Panel area from the nearest reference object, or the venue default
//   - area_default: Flat default area for a setting and category
//   - area_reference_classes: Reference classes and their average areas
//
// Visual checks:
//   - area_annotate: Overlay of the target, detections and chosen reference
//   - image_crop_target: Extract the target region
//   - image_dimensions: Get width and height
//
// History:
//   - area_history: Recent estimates (needs AREA_MCP_HISTORY_DB)
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or -32602 (undecodable arguments)
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(svc, log)
//	if err := srv.Run(ctx); err != nil {
//	    log.Error("server stopped", "error", err)
//	}
package server
