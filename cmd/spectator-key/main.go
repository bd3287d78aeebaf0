// Package main provides a one-shot utility for spectator grant keys.
//
// It emits the ed25519 key pair the initiative service signs and verifies
// spectator grants with.
package main

import (
	"flag"
	"os"

	"github.com/louisbranch/initiative/internal/cmd/spectatorkey"
	"github.com/louisbranch/initiative/internal/platform/config"
)

func main() {
	cfg, err := spectatorkey.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := spectatorkey.Run(cfg, os.Stdout); err != nil {
		config.Exitf("generate spectator grant key: %v", err)
	}
}
