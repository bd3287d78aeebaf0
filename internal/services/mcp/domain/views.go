package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	initiativeapi "github.com/louisbranch/initiative/internal/services/initiative/api/grpc/initiative"
)

const timelineURIPrefix = "encounter://"
const timelineURISuffix = "/timeline"

// QueueInput is the input of initiative_queue.
type QueueInput struct {
	EncounterID string `json:"encounter_id" jsonschema:"encounter identifier"`
	Steps       int    `json:"steps,omitempty" jsonschema:"turns to simulate (default 50, max 500)"`
}

// TimelineInput is the input of initiative_timeline.
type TimelineInput struct {
	EncounterID string `json:"encounter_id" jsonschema:"encounter identifier"`
	Length      int    `json:"length,omitempty" jsonschema:"tiles to project (default 12, max 100)"`
}

// QueueTurnResult is one simulated turn.
type QueueTurnResult struct {
	CharacterID string  `json:"character_id"`
	Name        string  `json:"name"`
	Time        float64 `json:"time"`
	IsAnchor    bool    `json:"is_anchor"`
}

// QueueGroupResult is a set of turns that resolve together.
type QueueGroupResult struct {
	Team      string            `json:"team"`
	StartTime float64           `json:"start_time"`
	Turns     []QueueTurnResult `json:"turns"`
}

// QueueResult is the grouped queue of an encounter.
type QueueResult struct {
	EncounterID string             `json:"encounter_id"`
	Revision    int64              `json:"revision"`
	Groups      []QueueGroupResult `json:"groups"`
}

// TileResult is one projected timeline tile.
type TileResult struct {
	ID          string  `json:"id"`
	CharacterID string  `json:"character_id"`
	Name        string  `json:"name"`
	TurnNumber  int     `json:"turn_number"`
	Time        float64 `json:"time"`
	IsScripted  bool    `json:"is_scripted"`
}

// TimelineGroupResult is a run of same-team tiles.
type TimelineGroupResult struct {
	ID         string       `json:"id"`
	Team       string       `json:"team"`
	StartTime  float64      `json:"start_time"`
	IsScripted bool         `json:"is_scripted"`
	Tiles      []TileResult `json:"tiles"`
}

// TimelineResult is the spectator timeline of an encounter.
type TimelineResult struct {
	EncounterID string                `json:"encounter_id"`
	Revision    int64                 `json:"revision"`
	CurrentTurn string                `json:"current_turn,omitempty"`
	Groups      []TimelineGroupResult `json:"groups"`
}

// QueueTool defines initiative_queue.
func QueueTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "initiative_queue",
		Description: "Simulates upcoming turns grouped into simultaneous actions",
	}
}

// TimelineTool defines initiative_timeline.
func TimelineTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "initiative_timeline",
		Description: "Projects the spectator timeline, honoring the scripted prefix",
	}
}

// QueueHandler executes initiative_queue.
func QueueHandler(client InitiativeClient) mcp.ToolHandlerFor[QueueInput, QueueResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input QueueInput) (*mcp.CallToolResult, QueueResult, error) {
		encounterID := strings.TrimSpace(input.EncounterID)
		if encounterID == "" {
			return nil, QueueResult{}, fmt.Errorf("encounter_id is required")
		}
		if err := checkDepth("steps", input.Steps, initiativeapi.MaxQueueSteps); err != nil {
			return nil, QueueResult{}, err
		}
		runCtx, cancel := callContext(ctx)
		defer cancel()

		view, err := client.SimulateQueue(runCtx, encounterID, input.Steps)
		if err != nil {
			return nil, QueueResult{}, fmt.Errorf("queue simulate failed: %w", err)
		}
		result := QueueResult{
			EncounterID: view.EncounterID,
			Revision:    view.Revision,
			Groups:      make([]QueueGroupResult, 0, len(view.Groups)),
		}
		for _, g := range view.Groups {
			group := QueueGroupResult{Team: g.Team, StartTime: g.StartTime, Turns: make([]QueueTurnResult, 0, len(g.Turns))}
			for _, turn := range g.Turns {
				group.Turns = append(group.Turns, QueueTurnResult{
					CharacterID: turn.CharacterID,
					Name:        turn.Name,
					Time:        turn.Time,
					IsAnchor:    turn.IsAnchor,
				})
			}
			result.Groups = append(result.Groups, group)
		}
		return nil, result, nil
	}
}

// TimelineHandler executes initiative_timeline.
func TimelineHandler(client InitiativeClient) mcp.ToolHandlerFor[TimelineInput, TimelineResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TimelineInput) (*mcp.CallToolResult, TimelineResult, error) {
		encounterID := strings.TrimSpace(input.EncounterID)
		if encounterID == "" {
			return nil, TimelineResult{}, fmt.Errorf("encounter_id is required")
		}
		if err := checkDepth("length", input.Length, initiativeapi.MaxTimelineLength); err != nil {
			return nil, TimelineResult{}, err
		}
		result, err := projectTimeline(ctx, client, encounterID, input.Length)
		if err != nil {
			return nil, TimelineResult{}, err
		}
		return nil, result, nil
	}
}

// TimelineResourceTemplate defines the encounter timeline resource.
func TimelineResourceTemplate() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		Name:        "encounter_timeline",
		Title:       "Encounter timeline",
		Description: "Spectator timeline of an encounter. URI format: encounter://{encounter_id}/timeline",
		MIMEType:    "application/json",
		URITemplate: "encounter://{encounter_id}/timeline",
	}
}

// TimelineResourceURI returns the timeline resource URI of an encounter.
func TimelineResourceURI(encounterID string) string {
	encounterID = strings.TrimSpace(encounterID)
	if encounterID == "" {
		return ""
	}
	return timelineURIPrefix + encounterID + timelineURISuffix
}

// TimelineResourceHandler reads encounter://{encounter_id}/timeline.
func TimelineResourceHandler(client InitiativeClient) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if req == nil || req.Params == nil || req.Params.URI == "" {
			return nil, fmt.Errorf("encounter ID is required; use URI format encounter://{encounter_id}/timeline")
		}
		uri := req.Params.URI
		encounterID, err := parseTimelineURI(uri)
		if err != nil {
			return nil, err
		}
		result, err := projectTimeline(ctx, client, encounterID, 0)
		if err != nil {
			return nil, err
		}
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal timeline: %w", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			}},
		}, nil
	}
}

func checkDepth(field string, value, limit int) error {
	if value < 0 || value > limit {
		return fmt.Errorf("%s must be between 0 and %d", field, limit)
	}
	return nil
}

func parseTimelineURI(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, timelineURIPrefix)
	if !ok {
		return "", fmt.Errorf("URI must start with %s", timelineURIPrefix)
	}
	encounterID, ok := strings.CutSuffix(rest, timelineURISuffix)
	encounterID = strings.TrimSpace(encounterID)
	if !ok || encounterID == "" || strings.Contains(encounterID, "/") {
		return "", fmt.Errorf("URI must have the form encounter://{encounter_id}/timeline")
	}
	return encounterID, nil
}

func projectTimeline(ctx context.Context, client InitiativeClient, encounterID string, length int) (TimelineResult, error) {
	runCtx, cancel := callContext(ctx)
	defer cancel()

	view, err := client.ProjectTimeline(runCtx, encounterID, length)
	if err != nil {
		return TimelineResult{}, fmt.Errorf("timeline project failed: %w", err)
	}
	return timelineResult(view), nil
}

func timelineResult(view initiativeapi.TimelineResponse) TimelineResult {
	result := TimelineResult{
		EncounterID: view.EncounterID,
		Revision:    view.Revision,
		Groups:      make([]TimelineGroupResult, 0, len(view.Groups)),
	}
	if view.CurrentTurnDisplay != nil {
		result.CurrentTurn = *view.CurrentTurnDisplay
	}
	for _, g := range view.Groups {
		group := TimelineGroupResult{
			ID:         g.ID,
			Team:       g.Team,
			StartTime:  g.StartTime,
			IsScripted: g.IsScripted,
			Tiles:      make([]TileResult, 0, len(g.Tiles)),
		}
		for _, tile := range g.Tiles {
			group.Tiles = append(group.Tiles, TileResult{
				ID:          tile.ID,
				CharacterID: tile.CharacterID,
				Name:        tile.Name,
				TurnNumber:  tile.TurnNumber,
				Time:        tile.Time,
				IsScripted:  tile.IsScripted,
			})
		}
		result.Groups = append(result.Groups, group)
	}
	return result
}
