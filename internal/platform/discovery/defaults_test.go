package discovery

import "testing"

func TestDefaultGRPCAddr(t *testing.T) {
	cases := map[string]string{
		ServiceInitiative: "localhost:8082",
		ServiceMCP:        "",
		"unknown":         "",
	}
	for service, want := range cases {
		if got := DefaultGRPCAddr(service); got != want {
			t.Fatalf("DefaultGRPCAddr(%q) = %q, want %q", service, got, want)
		}
	}
}

func TestDefaultHTTPAddr(t *testing.T) {
	cases := map[string]string{
		ServiceInitiative: "localhost:8084",
		ServiceMCP:        "localhost:8083",
		" " + ServiceJaeger: "localhost:16686",
	}
	for service, want := range cases {
		if got := DefaultHTTPAddr(service); got != want {
			t.Fatalf("DefaultHTTPAddr(%q) = %q, want %q", service, got, want)
		}
	}
}

func TestOrDefaultAddrs(t *testing.T) {
	if got := OrDefaultGRPCAddr(" custom:9000 ", ServiceInitiative); got != "custom:9000" {
		t.Fatalf("expected explicit grpc addr to win, got %q", got)
	}
	if got := OrDefaultGRPCAddr("", ServiceInitiative); got != "localhost:8082" {
		t.Fatalf("expected default grpc addr, got %q", got)
	}
	if got := OrDefaultHTTPAddr("", ServiceMCP); got != "localhost:8083" {
		t.Fatalf("expected default http addr, got %q", got)
	}
}
