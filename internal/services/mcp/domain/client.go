package domain

import (
	"context"
	"strings"

	"google.golang.org/grpc"

	"github.com/louisbranch/initiative/internal/platform/timeouts"
	initiativeapi "github.com/louisbranch/initiative/internal/services/initiative/api/grpc/initiative"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/schedule"
)

// InitiativeClient is the part of the initiative API the MCP tools call.
type InitiativeClient interface {
	CreateEncounter(ctx context.Context, req initiativeapi.CreateEncounterRequest, opts ...grpc.CallOption) (initiativeapi.Encounter, error)
	GetEncounter(ctx context.Context, encounterID string, opts ...grpc.CallOption) (initiativeapi.Encounter, error)
	ListEncounters(ctx context.Context, req initiativeapi.ListRequest, opts ...grpc.CallOption) (initiativeapi.ListEncountersResponse, error)
	ApplyCommand(ctx context.Context, encounterID string, cmd schedule.Command, opts ...grpc.CallOption) (initiativeapi.Encounter, error)
	SimulateQueue(ctx context.Context, encounterID string, steps int, opts ...grpc.CallOption) (initiativeapi.QueueResponse, error)
	ProjectTimeline(ctx context.Context, encounterID string, length int, opts ...grpc.CallOption) (initiativeapi.TimelineResponse, error)
	PutCharacter(ctx context.Context, character initiativeapi.Character, opts ...grpc.CallOption) (initiativeapi.Character, error)
}

var _ InitiativeClient = (*initiativeapi.Client)(nil)

// ResourceUpdateNotifier announces that a resource URI changed.
type ResourceUpdateNotifier func(ctx context.Context, uri string)

// NotifyResourceUpdates calls notify once per non-empty URI.
func NotifyResourceUpdates(ctx context.Context, notify ResourceUpdateNotifier, uris ...string) {
	if notify == nil {
		return
	}
	for _, uri := range uris {
		if strings.TrimSpace(uri) == "" {
			continue
		}
		notify(ctx, uri)
	}
}

func callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeouts.GRPCRequest)
}
