package initiative

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/louisbranch/initiative/internal/services/initiative/domain/schedule"
)

// Client is a typed InitiativeService client.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any, opts ...grpc.CallOption) error {
	in, err := encodeStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return err
	}
	if err := decodeStruct(out, resp); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

// CreateEncounter creates an encounter.
func (c *Client) CreateEncounter(ctx context.Context, req CreateEncounterRequest, opts ...grpc.CallOption) (Encounter, error) {
	var resp EncounterResponse
	err := c.invoke(ctx, MethodCreateEncounter, req, &resp, opts...)
	return resp.Encounter, err
}

// GetEncounter returns one encounter.
func (c *Client) GetEncounter(ctx context.Context, encounterID string, opts ...grpc.CallOption) (Encounter, error) {
	var resp EncounterResponse
	err := c.invoke(ctx, MethodGetEncounter, EncounterRequest{EncounterID: encounterID}, &resp, opts...)
	return resp.Encounter, err
}

// ListEncounters returns one page of encounters.
func (c *Client) ListEncounters(ctx context.Context, req ListRequest, opts ...grpc.CallOption) (ListEncountersResponse, error) {
	var resp ListEncountersResponse
	err := c.invoke(ctx, MethodListEncounters, req, &resp, opts...)
	return resp, err
}

// DeleteEncounter removes an encounter.
func (c *Client) DeleteEncounter(ctx context.Context, encounterID string, opts ...grpc.CallOption) error {
	return c.invoke(ctx, MethodDeleteEncounter, EncounterRequest{EncounterID: encounterID}, &Empty{}, opts...)
}

// ApplyCommand runs one roster command.
func (c *Client) ApplyCommand(ctx context.Context, encounterID string, cmd schedule.Command, opts ...grpc.CallOption) (Encounter, error) {
	var resp EncounterResponse
	err := c.invoke(ctx, MethodApplyCommand, ApplyCommandRequest{EncounterID: encounterID, Command: cmd}, &resp, opts...)
	return resp.Encounter, err
}

// SimulateQueue returns the grouped queue.
func (c *Client) SimulateQueue(ctx context.Context, encounterID string, steps int, opts ...grpc.CallOption) (QueueResponse, error) {
	var resp QueueResponse
	err := c.invoke(ctx, MethodSimulateQueue, SimulateQueueRequest{EncounterID: encounterID, Steps: steps}, &resp, opts...)
	return resp, err
}

// ProjectTimeline returns the spectator timeline.
func (c *Client) ProjectTimeline(ctx context.Context, encounterID string, length int, opts ...grpc.CallOption) (TimelineResponse, error) {
	var resp TimelineResponse
	err := c.invoke(ctx, MethodProjectTimeline, ProjectTimelineRequest{EncounterID: encounterID, Length: length}, &resp, opts...)
	return resp, err
}

// PutCharacter upserts a character.
func (c *Client) PutCharacter(ctx context.Context, character Character, opts ...grpc.CallOption) (Character, error) {
	var resp CharacterResponse
	err := c.invoke(ctx, MethodPutCharacter, PutCharacterRequest{Character: character}, &resp, opts...)
	return resp.Character, err
}

// GetCharacter returns one character.
func (c *Client) GetCharacter(ctx context.Context, characterID string, opts ...grpc.CallOption) (Character, error) {
	var resp CharacterResponse
	err := c.invoke(ctx, MethodGetCharacter, CharacterRequest{CharacterID: characterID}, &resp, opts...)
	return resp.Character, err
}

// ListCharacters returns one page of characters.
func (c *Client) ListCharacters(ctx context.Context, req ListRequest, opts ...grpc.CallOption) (ListCharactersResponse, error) {
	var resp ListCharactersResponse
	err := c.invoke(ctx, MethodListCharacters, req, &resp, opts...)
	return resp, err
}

// IssueSpectatorGrant asks for a spectator grant.
func (c *Client) IssueSpectatorGrant(ctx context.Context, encounterID, subject string, opts ...grpc.CallOption) (GrantResponse, error) {
	var resp GrantResponse
	err := c.invoke(ctx, MethodIssueSpectatorGrant, IssueSpectatorGrantRequest{EncounterID: encounterID, Subject: subject}, &resp, opts...)
	return resp, err
}
