// Package initiative parses initiative command flags and starts the
// scheduler runtime.
package initiative

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/initiative/internal/platform/cmd"
	"github.com/louisbranch/initiative/internal/platform/discovery"
	server "github.com/louisbranch/initiative/internal/services/initiative/app"
)

// Config holds initiative command configuration.
type Config struct {
	GRPCAddr string `env:"INITIATIVE_GRPC_ADDR"`
	// HTTPAddr serves spectators; an empty value disables the surface.
	HTTPAddr string `env:"INITIATIVE_HTTP_ADDR" envDefault:"localhost:8084"`
	DBPath   string `env:"INITIATIVE_DB_PATH"   envDefault:"data/initiative.db"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	return entrypoint.ParseConfig(fs, args, func(fs *flag.FlagSet, cfg *Config) {
		cfg.GRPCAddr = discovery.OrDefaultGRPCAddr(cfg.GRPCAddr, discovery.ServiceInitiative)
		fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "gRPC listen address")
		fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "spectator HTTP listen address (empty disables)")
		fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database path")
	})
}

// Run starts the initiative service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceInitiative, func(ctx context.Context) error {
		return server.Run(ctx, server.Config{
			GRPCAddr: cfg.GRPCAddr,
			HTTPAddr: cfg.HTTPAddr,
			DBPath:   cfg.DBPath,
		})
	})
}
