// Package mcp exposes the audit pipeline as a Model Context Protocol tool.
//
// The server runs on the stdio transport using the MCP SDK
// (github.com/modelcontextprotocol/go-sdk/mcp) and registers a single
// tool, compliance_audit, that runs one full pipeline per call.
package mcp
