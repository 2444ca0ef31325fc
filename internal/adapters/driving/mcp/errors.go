// Package mcp provides an MCP (Model Context Protocol) server adapter for
// veridex. It lets AI assistants query and rebuild the local document index.
package mcp

import "errors"

// ErrMissingIndexService is returned when the index service is not provided.
var ErrMissingIndexService = errors.New("mcp: index service is required")
