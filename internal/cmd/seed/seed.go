// Package seed parses seed command flags and loads YAML fixtures into a
// running initiative service.
package seed

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	entrypoint "github.com/louisbranch/initiative/internal/platform/cmd"
	"github.com/louisbranch/initiative/internal/platform/discovery"
	"github.com/louisbranch/initiative/internal/tools/seed"
)

// Config holds seed command configuration. An empty Manifest seeds the
// embedded demo fixture.
type Config struct {
	GRPCAddr string        `env:"INITIATIVE_GRPC_ADDR"`
	Manifest string        `env:"INITIATIVE_SEED_MANIFEST"`
	Timeout  time.Duration `env:"INITIATIVE_SEED_TIMEOUT"  envDefault:"10s"`
	Verbose  bool          `env:"INITIATIVE_SEED_VERBOSE"`
	Check    bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	return entrypoint.ParseConfig(fs, args, func(fs *flag.FlagSet, cfg *Config) {
		cfg.GRPCAddr = discovery.OrDefaultGRPCAddr(cfg.GRPCAddr, discovery.ServiceInitiative)
		fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "initiative server address")
		fs.StringVar(&cfg.Manifest, "manifest", cfg.Manifest, "path to a YAML seed manifest (default: embedded demo)")
		fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout per call")
		fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose output")
		fs.BoolVar(&cfg.Check, "check", false, "validate the manifest without contacting the server")
	})
}

// Run executes the seed command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	manifest, err := seed.LoadManifest(cfg.Manifest)
	if err != nil {
		return err
	}
	if cfg.Check {
		if err := seed.ValidateManifest(manifest); err != nil {
			return fmt.Errorf("validate manifest: %w", err)
		}
		fmt.Fprintf(out, "manifest %q is valid: %d characters, %d encounters\n",
			manifest.Name, len(manifest.Characters), len(manifest.Encounters))
		return nil
	}

	runner, err := seed.NewRunner(ctx, seed.Config{
		GRPCAddr:     cfg.GRPCAddr,
		ManifestPath: cfg.Manifest,
		Timeout:      cfg.Timeout,
		Verbose:      cfg.Verbose,
	}, errOut)
	if err != nil {
		return err
	}
	defer runner.Close()

	summary, err := runner.RunManifest(ctx, manifest)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "seeded %d characters; %d encounters created, %d already present\n",
		summary.Characters, summary.EncountersCreated, summary.EncountersSkipped)
	return nil
}
