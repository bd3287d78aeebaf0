// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/initiative/internal/platform/cmd"
	"github.com/louisbranch/initiative/internal/platform/discovery"
	mcpservice "github.com/louisbranch/initiative/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	Addr      string `env:"INITIATIVE_GRPC_ADDR"`
	HTTPAddr  string `env:"INITIATIVE_MCP_HTTP_ADDR"`
	Transport string `env:"INITIATIVE_MCP_TRANSPORT" envDefault:"stdio"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	return entrypoint.ParseConfig(fs, args, func(fs *flag.FlagSet, cfg *Config) {
		cfg.Addr = discovery.OrDefaultGRPCAddr(cfg.Addr, discovery.ServiceInitiative)
		cfg.HTTPAddr = discovery.OrDefaultHTTPAddr(cfg.HTTPAddr, discovery.ServiceMCP)
		fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "initiative server address")
		fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
		fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	})
}

// Run starts the MCP protocol adapter.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		return mcpservice.Run(ctx, mcpservice.Config{
			GRPCAddr:  cfg.Addr,
			Transport: mcpservice.TransportKind(cfg.Transport),
			HTTPAddr:  cfg.HTTPAddr,
		})
	})
}
