// Package scenario parses scenario command flags and runs a Lua scenario
// against a live initiative service.
package scenario

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"time"

	entrypoint "github.com/louisbranch/initiative/internal/platform/cmd"
	"github.com/louisbranch/initiative/internal/platform/discovery"
	"github.com/louisbranch/initiative/internal/tools/scenario"
)

// Config holds scenario command configuration.
type Config struct {
	GRPCAddr   string        `env:"INITIATIVE_GRPC_ADDR"`
	Scenario   string        `env:"INITIATIVE_SCENARIO_FILE"`
	Assertions bool          `env:"INITIATIVE_SCENARIO_ASSERT"  envDefault:"true"`
	Verbose    bool          `env:"INITIATIVE_SCENARIO_VERBOSE"`
	Timeout    time.Duration `env:"INITIATIVE_SCENARIO_TIMEOUT" envDefault:"10s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	return entrypoint.ParseConfig(fs, args, func(fs *flag.FlagSet, cfg *Config) {
		cfg.GRPCAddr = discovery.OrDefaultGRPCAddr(cfg.GRPCAddr, discovery.ServiceInitiative)
		fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "initiative server address")
		fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to scenario lua file")
		fs.BoolVar(&cfg.Assertions, "assert", cfg.Assertions, "enable assertions (disable to log expectations)")
		fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
		fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout per step")
	})
}

// Run executes the scenario command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.Scenario == "" {
		return errors.New("scenario path is required")
	}

	mode := scenario.AssertionStrict
	if !cfg.Assertions {
		mode = scenario.AssertionLogOnly
	}

	logger := log.New(errOut, "", 0)
	return scenario.RunFile(ctx, scenario.Config{
		GRPCAddr:   cfg.GRPCAddr,
		Timeout:    cfg.Timeout,
		Assertions: mode,
		Verbose:    cfg.Verbose,
		Logger:     logger,
	}, cfg.Scenario)
}
