// Package domain maps MCP tool and resource calls onto the initiative gRPC
// API: each handler validates its input, calls one RPC under a bounded
// timeout, and returns a flat result shape MCP clients can render.
package domain
