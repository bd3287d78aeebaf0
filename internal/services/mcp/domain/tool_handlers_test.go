package domain

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"

	initiativeapi "github.com/louisbranch/initiative/internal/services/initiative/api/grpc/initiative"
	"github.com/louisbranch/initiative/internal/services/initiative/core/encounter"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/roster"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/schedule"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/timeline"
)

type fakeClient struct {
	InitiativeClient

	lastCommand   schedule.Command
	lastCharacter initiativeapi.Character
	err           error
}

func (f *fakeClient) ApplyCommand(_ context.Context, encounterID string, cmd schedule.Command, _ ...grpc.CallOption) (initiativeapi.Encounter, error) {
	f.lastCommand = cmd
	if f.err != nil {
		return initiativeapi.Encounter{}, f.err
	}
	return initiativeapi.Encounter{
		ID:       encounterID,
		Revision: 4,
		Roster: roster.Roster{
			Combatants:         []roster.Combatant{{CharacterID: "a", Name: "Aria", Team: "blue", Speed: 10, NextTurnAt: 110}},
			LockedPrefixLength: roster.PrefixLength(1),
		},
	}, nil
}

func (f *fakeClient) PutCharacter(_ context.Context, c initiativeapi.Character, _ ...grpc.CallOption) (initiativeapi.Character, error) {
	f.lastCharacter = c
	return c, f.err
}

func (f *fakeClient) ProjectTimeline(_ context.Context, encounterID string, length int, _ ...grpc.CallOption) (initiativeapi.TimelineResponse, error) {
	if f.err != nil {
		return initiativeapi.TimelineResponse{}, f.err
	}
	display := "Aria"
	return encounter.TimelineView{
		EncounterID: encounterID,
		Revision:    2,
		Projection: timeline.Projection{
			Groups: []timeline.Group{{
				ID:    "a_t1",
				Team:  "blue",
				Tiles: []timeline.Tile{{ID: "a_t1", CharacterID: "a", Name: "Aria", TurnNumber: 1, Time: 10}},
			}},
			CurrentTurnDisplay: &display,
		},
	}, nil
}

func TestCommandHandlerRoutesCommand(t *testing.T) {
	client := &fakeClient{}
	var notified []string
	notify := func(_ context.Context, uri string) { notified = append(notified, uri) }

	handler := CommandHandler(client, schedule.CommandChangeTeam, notify)
	_, result, err := handler(context.Background(), nil, CommandInput{EncounterID: " enc-1 ", CharacterID: " a ", Team: "red"})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if client.lastCommand.Type != schedule.CommandChangeTeam || client.lastCommand.CharacterID != "a" || client.lastCommand.Team != "red" {
		t.Fatalf("unexpected command %+v", client.lastCommand)
	}
	if result.ID != "enc-1" || result.Revision != 4 || result.LockedPrefixLength != 1 || len(result.Combatants) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(notified) != 1 || notified[0] != "encounter://enc-1/timeline" {
		t.Fatalf("unexpected notifications %v", notified)
	}
}

func TestCommandHandlerValidatesBeforeCalling(t *testing.T) {
	client := &fakeClient{}
	tests := []struct {
		name    string
		command schedule.CommandType
		input   CommandInput
	}{
		{"missing encounter", schedule.CommandAdvance, CommandInput{}},
		{"missing character", schedule.CommandRemove, CommandInput{EncounterID: "enc-1"}},
		{"missing sync target", schedule.CommandSync, CommandInput{EncounterID: "enc-1", CharacterID: "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := CommandHandler(client, tt.command, nil)(context.Background(), nil, tt.input); err == nil {
				t.Fatal("expected validation error")
			}
			if client.lastCommand.Type != "" {
				t.Fatalf("expected no call, got %+v", client.lastCommand)
			}
		})
	}
}

func TestCommandHandlerWrapsClientError(t *testing.T) {
	boom := errors.New("unavailable")
	_, _, err := CommandHandler(&fakeClient{err: boom}, schedule.CommandAdvance, nil)(context.Background(), nil, CommandInput{EncounterID: "enc-1"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
}

func TestCommandToolsCoverEveryCommand(t *testing.T) {
	tools := CommandTools()
	seen := make(map[schedule.CommandType]bool, len(tools))
	for _, tool := range tools {
		seen[tool.Command] = true
	}
	for _, commandType := range schedule.CommandTypes() {
		if !seen[commandType] {
			t.Fatalf("no tool for %s", commandType)
		}
	}
}

func TestCharacterPutHandlerResolvesSpeed(t *testing.T) {
	client := &fakeClient{}
	_, result, err := CharacterPutHandler(client)(context.Background(), nil, CharacterPutInput{
		CharacterID: "b",
		Name:        "Bram",
		Level:       4,
		Speed:       &SpeedInput{Base: 3, Bonus: 1, Gain: 2},
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if client.lastCharacter.Speed == nil || client.lastCharacter.Speed.Base != 3 {
		t.Fatalf("expected speed stat forwarded, got %+v", client.lastCharacter)
	}
	if result.ResolvedSpeed != 6 {
		t.Fatalf("expected resolved speed 6, got %d", result.ResolvedSpeed)
	}

	_, result, err = CharacterPutHandler(client)(context.Background(), nil, CharacterPutInput{CharacterID: "c", Name: "Cato"})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.ResolvedSpeed != roster.DefaultSpeed {
		t.Fatalf("expected default speed, got %d", result.ResolvedSpeed)
	}
}

func TestTimelineResourceHandler(t *testing.T) {
	handler := TimelineResourceHandler(&fakeClient{})
	res, err := handler(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "encounter://enc-1/timeline"}})
	if err != nil {
		t.Fatalf("read resource: %v", err)
	}
	if len(res.Contents) != 1 {
		t.Fatalf("expected one content entry, got %d", len(res.Contents))
	}
	var payload TimelineResult
	if err := json.Unmarshal([]byte(res.Contents[0].Text), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.EncounterID != "enc-1" || payload.CurrentTurn != "Aria" || payload.Groups[0].Tiles[0].ID != "a_t1" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestParseTimelineURI(t *testing.T) {
	tests := []struct {
		uri     string
		want    string
		wantErr bool
	}{
		{uri: "encounter://enc-1/timeline", want: "enc-1"},
		{uri: "campaign://enc-1/timeline", wantErr: true},
		{uri: "encounter:///timeline", wantErr: true},
		{uri: "encounter://a/b/timeline", wantErr: true},
		{uri: "encounter://enc-1", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseTimelineURI(tt.uri)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tt.uri)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("%s: got %q, %v", tt.uri, got, err)
		}
	}
	if TimelineResourceURI(" ") != "" {
		t.Fatal("expected empty URI for blank id")
	}
}

func TestProjectionHandlersRejectOutOfRangeDepth(t *testing.T) {
	client := &fakeClient{}
	ctx := context.Background()

	if _, _, err := QueueHandler(client)(ctx, nil, QueueInput{EncounterID: "enc-1", Steps: 1 << 50}); err == nil {
		t.Fatal("expected error for steps above the limit")
	}
	if _, _, err := QueueHandler(client)(ctx, nil, QueueInput{EncounterID: "enc-1", Steps: -1}); err == nil {
		t.Fatal("expected error for negative steps")
	}
	if _, _, err := TimelineHandler(client)(ctx, nil, TimelineInput{EncounterID: "enc-1", Length: initiativeapi.MaxTimelineLength + 1}); err == nil {
		t.Fatal("expected error for length above the limit")
	}
	if _, result, err := TimelineHandler(client)(ctx, nil, TimelineInput{EncounterID: "enc-1", Length: initiativeapi.MaxTimelineLength}); err != nil || result.CurrentTurn != "Aria" {
		t.Fatalf("expected length at the limit to pass, got %+v, %v", result, err)
	}
}
