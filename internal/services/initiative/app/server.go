// Package server wires the initiative runtime: storage, the gRPC API and the
// spectator HTTP surface.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/initiative/internal/platform/timeouts"
	initiativeapi "github.com/louisbranch/initiative/internal/services/initiative/api/grpc/initiative"
	"github.com/louisbranch/initiative/internal/services/initiative/api/grpc/interceptors"
	"github.com/louisbranch/initiative/internal/services/initiative/api/http/spectator"
	"github.com/louisbranch/initiative/internal/services/initiative/core/encounter"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/grant"
	"github.com/louisbranch/initiative/internal/services/initiative/storage/sqlite"
)

// Config defines the listeners and storage of an initiative server.
type Config struct {
	GRPCAddr string
	// HTTPAddr serves the spectator surface; empty disables it.
	HTTPAddr          string
	DBPath            string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the initiative gRPC API and spectator HTTP surface.
type Server struct {
	grpcListener    net.Listener
	httpListener    net.Listener
	grpcServer      *grpc.Server
	health          *health.Server
	httpServer      *http.Server
	hub             *encounter.Hub
	store           *sqlite.Store
	shutdownTimeout time.Duration
}

// New opens storage and listeners for cfg.
func New(cfg Config) (*Server, error) {
	if strings.TrimSpace(cfg.GRPCAddr) == "" {
		return nil, errors.New("gRPC address is required")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "initiative.db")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = timeouts.Shutdown
	}

	grants, err := grant.LoadConfigFromEnv(nil)
	if err != nil {
		return nil, err
	}

	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}
	var httpListener net.Listener
	if addr := strings.TrimSpace(cfg.HTTPAddr); addr != "" {
		httpListener, err = net.Listen("tcp", addr)
		if err != nil {
			_ = grpcListener.Close()
			return nil, fmt.Errorf("listen on %s: %w", addr, err)
		}
	}

	store, err := openStore(cfg.DBPath)
	if err != nil {
		_ = grpcListener.Close()
		if httpListener != nil {
			_ = httpListener.Close()
		}
		return nil, err
	}

	hub := encounter.NewHub()
	app := encounter.NewService(store, store,
		encounter.WithPublisher(hub),
		encounter.WithGrants(grants),
	)

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.ActorInterceptor(),
			interceptors.TelemetryInterceptor(log.Default()),
		),
	)
	healthServer := health.NewServer()
	initiativeapi.RegisterInitiativeServiceServer(grpcServer, initiativeapi.NewService(app))
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(initiativeapi.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	s := &Server{
		grpcListener:    grpcListener,
		httpListener:    httpListener,
		grpcServer:      grpcServer,
		health:          healthServer,
		hub:             hub,
		store:           store,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	if httpListener != nil {
		s.httpServer = &http.Server{
			Handler:           spectator.NewHandler(app, hub),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		}
	}
	if !grants.CanVerify() {
		log.Printf("initiative: spectator grants not configured; spectator views are open")
	}
	return s, nil
}

// GRPCAddr returns the gRPC listener address.
func (s *Server) GRPCAddr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// HTTPAddr returns the spectator listener address, or "" when disabled.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// Run creates and serves an initiative server until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	s, err := New(cfg)
	if err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve runs both listeners until ctx ends or one of them fails.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	serveErr := make(chan error, 2)
	log.Printf("initiative: gRPC listening at %v", s.grpcListener.Addr())
	go func() {
		if err := s.grpcServer.Serve(s.grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErr <- fmt.Errorf("serve gRPC: %w", err)
			return
		}
		serveErr <- nil
	}()
	if s.httpServer != nil {
		log.Printf("initiative: spectator HTTP listening at %v", s.httpListener.Addr())
		go func() {
			if err := s.httpServer.Serve(s.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- fmt.Errorf("serve http: %w", err)
				return
			}
			serveErr <- nil
		}()
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}
	if shutdownErr := s.shutdown(); err == nil {
		err = shutdownErr
	}
	return err
}

// shutdown drains both servers. Spectator streams are hijacked connections
// that http.Server.Shutdown does not track, so the hub closes them.
func (s *Server) shutdown() error {
	s.health.Shutdown()
	s.hub.Close()

	var err error
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		if shutdownErr := s.httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			err = fmt.Errorf("shutdown http server: %w", shutdownErr)
		}
		cancel()
	}
	s.grpcServer.GracefulStop()
	return err
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.hub != nil {
		s.hub.Close()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.grpcListener != nil {
		_ = s.grpcListener.Close()
	}
	if s.httpListener != nil {
		_ = s.httpListener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("initiative: close store: %v", err)
		}
		s.store = nil
	}
}

func openStore(path string) (*sqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open initiative sqlite store: %w", err)
	}
	return store, nil
}
