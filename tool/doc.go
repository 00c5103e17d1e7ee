// Package tool maps the n8n workflow API onto seven MCP tools.
//
// The package is split by concern:
//   - definitions: tool names, descriptions and JSON input schemas
//   - schema/args/validate: shape and value validation of untyped input
//   - toolset: dispatch from tool name to n8n client call
//   - response: JSON rendering of results and error envelopes
//
// It is transport-agnostic; the server and CLI packages share one Toolset
// contract.
package tool
