// Package n8n is a client for the n8n public REST API (/api/v1).
//
// It is the only component that performs network I/O against n8n. Every
// failure, whether a non-success status, a transport error or an
// undecodable body, is reported as *APIError.
package n8n
