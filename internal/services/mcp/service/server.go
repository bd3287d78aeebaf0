package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"

	platformgrpc "github.com/louisbranch/initiative/internal/platform/grpc"
	"github.com/louisbranch/initiative/internal/platform/timeouts"
	initiativeapi "github.com/louisbranch/initiative/internal/services/initiative/api/grpc/initiative"
	"github.com/louisbranch/initiative/internal/services/initiative/api/grpc/interceptors"
	"github.com/louisbranch/initiative/internal/services/mcp/domain"
)

const (
	serverName    = "Initiative MCP"
	serverVersion = "0.1.0"

	// actorID stamps every call the bridge makes on the initiative service.
	actorID = "mcp"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves MCP over streamable HTTP.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	GRPCAddr  string
	Transport TransportKind
	// HTTPAddr is the listen address for TransportHTTP; empty uses the MCP
	// discovery default.
	HTTPAddr string
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
	conn      *grpc.ClientConn
}

// New connects to the initiative service and registers every tool and
// resource against it.
func New(ctx context.Context, grpcAddr string) (*Server, error) {
	conn, err := dialInitiative(ctx, grpcAddr)
	if err != nil {
		return nil, err
	}
	server, err := newServer(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return server, nil
}

func newServer(conn *grpc.ClientConn) (*Server, error) {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		SubscribeHandler:   resourceSubscribeHandler,
		UnsubscribeHandler: resourceUnsubscribeHandler,
	})
	if err := registerAll(mcpServer, initiativeapi.NewClient(conn)); err != nil {
		return nil, err
	}
	return &Server{mcpServer: mcpServer, conn: conn}, nil
}

func registerAll(mcpServer *mcp.Server, client domain.InitiativeClient) error {
	notify := func(ctx context.Context, uri string) {
		if ctx == nil {
			ctx = context.Background()
		}
		if err := mcpServer.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: uri}); err != nil {
			log.Printf("mcp: resource updated notify failed: uri=%s err=%v", uri, err)
		}
	}

	registrar := mcpServerRegistrationAdapter{server: mcpServer}
	if err := registerEncounterTools(registrar, client, notify); err != nil {
		return fmt.Errorf("register encounter tools: %w", err)
	}
	if err := registerCommandTools(registrar, client, notify); err != nil {
		return fmt.Errorf("register command tools: %w", err)
	}
	if err := registerViewTools(registrar, client); err != nil {
		return fmt.Errorf("register view tools: %w", err)
	}
	registerTimelineResources(registrar, client)
	return nil
}

// resourceSubscribeHandler accepts subscriptions to well-formed URIs.
func resourceSubscribeHandler(_ context.Context, req *mcp.SubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

func resourceUnsubscribeHandler(_ context.Context, req *mcp.UnsubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

func dialInitiative(ctx context.Context, addr string) (*grpc.ClientConn, error) {
	logf := func(format string, args ...any) {
		log.Printf("mcp: initiative %s", fmt.Sprintf(format, args...))
	}
	conn, err := platformgrpc.Connect(
		ctx,
		addr,
		initiativeapi.ServiceName,
		timeouts.GRPCDial,
		logf,
		platformgrpc.ClientDialOptions(interceptors.ActorClientInterceptor(actorID))...,
	)
	if err != nil {
		var dialErr *platformgrpc.DialError
		if errors.As(err, &dialErr) && dialErr.Stage == platformgrpc.DialStageConnect {
			return nil, fmt.Errorf("connect to initiative server at %s: %w", addr, dialErr.Err)
		}
		return nil, err
	}
	return conn, nil
}
