// Package driving provides interfaces for external actors (primary/
// inbound ports): the CLI, the MCP server and the TUI all drive the index
// through these.
package driving
