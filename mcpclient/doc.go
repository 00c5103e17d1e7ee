// Package mcpclient opens short MCP sessions against a running n8nmcp server
// over streamable HTTP. It wraps the go-sdk client so that the n8n
// credential headers ride on every request and a refused connection reports
// the server's own JSON-RPC error message.
package mcpclient
