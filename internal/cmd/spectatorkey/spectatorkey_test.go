package spectatorkey

import (
	"bytes"
	"flag"
	"io"
	"strings"
	"testing"
)

func TestParseConfigRejectsUnknownFlags(t *testing.T) {
	fs := flag.NewFlagSet("spectator-key", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := ParseConfig(fs, []string{"-bits", "512"}); err == nil {
		t.Fatal("expected unknown flag error")
	}
}

func TestRunWritesExports(t *testing.T) {
	var out bytes.Buffer
	if err := Run(Config{}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.Count(out.String(), "export INITIATIVE_SPECTATOR_GRANT_"); got != 2 {
		t.Fatalf("expected 2 exports, got %d in %q", got, out.String())
	}
}
