package server

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	platformgrpc "github.com/louisbranch/initiative/internal/platform/grpc"
	initiativeapi "github.com/louisbranch/initiative/internal/services/initiative/api/grpc/initiative"
	"github.com/louisbranch/initiative/internal/services/initiative/api/grpc/interceptors"
	"github.com/louisbranch/initiative/internal/services/initiative/core/encounter"
)

func startServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	t.Setenv("INITIATIVE_SPECTATOR_GRANT_PRIVATE_KEY", "")
	t.Setenv("INITIATIVE_SPECTATOR_GRANT_PUBLIC_KEY", "")

	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-serveDone:
			if err != nil {
				t.Fatalf("serve: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for server to stop")
		}
	})
	return srv
}

func TestServerServesGRPCAndSpectator(t *testing.T) {
	srv := startServer(t, Config{
		GRPCAddr: "127.0.0.1:0",
		HTTPAddr: "127.0.0.1:0",
		DBPath:   filepath.Join(t.TempDir(), "nested", "initiative.db"),
	})

	ctx := context.Background()
	conn, err := platformgrpc.Connect(ctx, srv.GRPCAddr(), initiativeapi.ServiceName, 2*time.Second, nil,
		platformgrpc.ClientDialOptions(interceptors.ActorClientInterceptor("gm-1"))...)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()

	client := initiativeapi.NewClient(conn)
	created, err := client.CreateEncounter(ctx, initiativeapi.CreateEncounterRequest{EncounterID: "enc-1", Name: "Ambush"})
	if err != nil {
		t.Fatalf("create encounter: %v", err)
	}
	if created.UpdatedBy != "gm-1" {
		t.Fatalf("expected actor to flow through interceptors, got %q", created.UpdatedBy)
	}

	resp, err := http.Get("http://" + srv.HTTPAddr() + "/encounters/enc-1/timeline")
	if err != nil {
		t.Fatalf("get timeline: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected open spectator access, got %d", resp.StatusCode)
	}
	var view encounter.TimelineView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode timeline: %v", err)
	}
	if view.EncounterID != "enc-1" || len(view.Groups) != 0 {
		t.Fatalf("unexpected timeline %+v", view)
	}
}

func TestServerWithoutSpectatorListener(t *testing.T) {
	srv := startServer(t, Config{
		GRPCAddr: "127.0.0.1:0",
		DBPath:   filepath.Join(t.TempDir(), "initiative.db"),
	})
	if srv.HTTPAddr() != "" {
		t.Fatalf("expected spectator surface disabled, got %q", srv.HTTPAddr())
	}
}

func TestNewRequiresGRPCAddr(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected missing address error")
	}
}

func TestNewRejectsMalformedGrantKey(t *testing.T) {
	t.Setenv("INITIATIVE_SPECTATOR_GRANT_PUBLIC_KEY", "not-base64!")
	if _, err := New(Config{GRPCAddr: "127.0.0.1:0", DBPath: filepath.Join(t.TempDir(), "initiative.db")}); err == nil {
		t.Fatal("expected grant key error")
	}
}
