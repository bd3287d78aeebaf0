// Package discovery centralizes the default addresses initiative processes
// use to find each other.
package discovery

import (
	"strconv"
	"strings"
)

const (
	// ServiceInitiative is the scheduler gRPC and spectator HTTP identity.
	ServiceInitiative = "initiative"
	// ServiceMCP is the MCP HTTP identity.
	ServiceMCP = "mcp"
	// ServiceJaeger is the trace collector UI identity.
	ServiceJaeger = "jaeger"
)

// defaultHost is where local processes listen and dial unless configured.
const defaultHost = "localhost"

var grpcPorts = map[string]int{
	ServiceInitiative: 8082,
}

var httpPorts = map[string]int{
	ServiceMCP:        8083,
	ServiceInitiative: 8084,
	ServiceJaeger:     16686,
}

// DefaultGRPCAddr returns the conventional gRPC address for a service, or ""
// when the service has no gRPC listener.
func DefaultGRPCAddr(service string) string {
	return defaultAddr(strings.TrimSpace(service), grpcPorts)
}

// DefaultHTTPAddr returns the conventional HTTP address for a service.
func DefaultHTTPAddr(service string) string {
	return defaultAddr(strings.TrimSpace(service), httpPorts)
}

// OrDefaultGRPCAddr returns value when set, otherwise the service convention.
func OrDefaultGRPCAddr(value, service string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	return DefaultGRPCAddr(service)
}

// OrDefaultHTTPAddr returns value when set, otherwise the service convention.
func OrDefaultHTTPAddr(value, service string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	return DefaultHTTPAddr(service)
}

func defaultAddr(service string, ports map[string]int) string {
	port, ok := ports[service]
	if !ok || port <= 0 {
		return ""
	}
	return defaultHost + ":" + strconv.Itoa(port)
}
