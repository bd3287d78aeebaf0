package config

import (
	"strings"
	"testing"
	"time"
)

type envTestConfig struct {
	Addr    string        `env:"INITIATIVE_TEST_ADDR" envDefault:"127.0.0.1:8090"`
	Timeout time.Duration `env:"INITIATIVE_TEST_TIMEOUT" envDefault:"2s"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != "127.0.0.1:8090" || cfg.Timeout != 2*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("INITIATIVE_TEST_TIMEOUT", "soon")

	err := ParseEnv(&cfg)
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestParseEnvFromIgnoresProcessEnv(t *testing.T) {
	t.Setenv("INITIATIVE_TEST_ADDR", "process:1")

	var cfg envTestConfig
	if err := ParseEnvFrom(&cfg, map[string]string{"INITIATIVE_TEST_TIMEOUT": "250ms"}); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != "127.0.0.1:8090" {
		t.Fatalf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.Timeout != 250*time.Millisecond {
		t.Fatalf("expected explicit timeout, got %s", cfg.Timeout)
	}
}
