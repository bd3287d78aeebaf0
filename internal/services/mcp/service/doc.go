// Package service wires MCP transports to the initiative tool handlers.
//
// It owns the gRPC connection to the initiative service and knows how to run
// MCP over stdio or streamable HTTP; tool meaning lives in the domain package.
package service
