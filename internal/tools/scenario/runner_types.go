package scenario

import (
	"context"

	"google.golang.org/grpc"

	initiativeapi "github.com/louisbranch/initiative/internal/services/initiative/api/grpc/initiative"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/schedule"
)

// initiativeClient is the part of the initiative API a scenario drives.
type initiativeClient interface {
	PutCharacter(ctx context.Context, character initiativeapi.Character, opts ...grpc.CallOption) (initiativeapi.Character, error)
	CreateEncounter(ctx context.Context, req initiativeapi.CreateEncounterRequest, opts ...grpc.CallOption) (initiativeapi.Encounter, error)
	GetEncounter(ctx context.Context, encounterID string, opts ...grpc.CallOption) (initiativeapi.Encounter, error)
	ApplyCommand(ctx context.Context, encounterID string, cmd schedule.Command, opts ...grpc.CallOption) (initiativeapi.Encounter, error)
	SimulateQueue(ctx context.Context, encounterID string, steps int, opts ...grpc.CallOption) (initiativeapi.QueueResponse, error)
	ProjectTimeline(ctx context.Context, encounterID string, length int, opts ...grpc.CallOption) (initiativeapi.TimelineResponse, error)
}

var _ initiativeClient = (*initiativeapi.Client)(nil)

// runnerDeps bundles injectable dependencies for runner construction.
type runnerDeps struct {
	client initiativeClient
}

type scenarioState struct {
	encounterID string
	revision    int64
}
