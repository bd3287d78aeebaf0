package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	initiativecmd "github.com/louisbranch/initiative/internal/cmd/initiative"
)

func main() {
	cfg, err := initiativecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[INITIATIVE] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := initiativecmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
