// Package server implements the MCP (Model Context Protocol) server for the
// image filters.
//
// This package provides a JSON-RPC 2.0 server that exposes the filters of
// package filters through the MCP protocol, so MCP clients can run depth of
// field blurs, edge and corner detection and related transforms on local
// image files.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
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
// Filters:
//   - image_list_filters: Names and descriptions of the filters
//   - image_filter: Apply a filter and return base64 PNG or write a file
//
// image_filter accepts scale, radius, normalization, channel_mode,
// intensity_channel and zero_radius to adjust the two mean filters. Passing
// any of them with another filter is an error.
//
// # Progress
//
// A tools/call whose params carry _meta.progressToken receives a
// notifications/progress message at each filter milestone (progress out of
// a total of 100) before the response is written.
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images. Images are cached
// by path and reused across multiple tool calls, avoiding redundant disk I/O.
// The cache persists for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv := server.New()
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
