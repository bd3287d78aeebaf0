// Package spectatorkey runs the spectator grant key generator.
package spectatorkey

import (
	"flag"
	"io"

	entrypoint "github.com/louisbranch/initiative/internal/platform/cmd"
	"github.com/louisbranch/initiative/internal/tools/spectatorkey"
)

// Config holds spectator-key command configuration.
type Config struct{}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	return entrypoint.ParseConfig[Config](fs, args, nil)
}

// Run writes a fresh key pair as shell exports.
func Run(_ Config, out io.Writer) error {
	return spectatorkey.Run(out, nil)
}
