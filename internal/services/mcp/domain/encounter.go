package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	initiativeapi "github.com/louisbranch/initiative/internal/services/initiative/api/grpc/initiative"
)

// EncounterCreateInput is the input of encounter_create.
type EncounterCreateInput struct {
	EncounterID  string   `json:"encounter_id,omitempty" jsonschema:"optional encounter identifier; generated when empty"`
	Name         string   `json:"name" jsonschema:"encounter name"`
	CharacterIDs []string `json:"character_ids,omitempty" jsonschema:"characters to add in order; unknown ids are skipped"`
}

// EncounterGetInput is the input of encounter_get.
type EncounterGetInput struct {
	EncounterID string `json:"encounter_id" jsonschema:"encounter identifier"`
}

// EncounterListInput is the input of encounter_list.
type EncounterListInput struct {
	PageSize  int    `json:"page_size,omitempty" jsonschema:"maximum encounters to return (default 10, max 50)"`
	PageToken string `json:"page_token,omitempty" jsonschema:"next_page_token of the previous page"`
	Filter    string `json:"filter,omitempty" jsonschema:"AIP-160 filter over name, revision, created_at and updated_at"`
}

// CombatantResult is one roster entry.
type CombatantResult struct {
	CharacterID string  `json:"character_id"`
	Name        string  `json:"name"`
	Team        string  `json:"team"`
	Speed       int     `json:"speed"`
	NextTurnAt  float64 `json:"next_turn_at"`
}

// EncounterResult is an encounter with its roster.
type EncounterResult struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	Revision           int64             `json:"revision"`
	UpdatedBy          string            `json:"updated_by,omitempty"`
	LockedPrefixLength int               `json:"locked_prefix_length"`
	Combatants         []CombatantResult `json:"combatants"`
	CreatedAt          string            `json:"created_at"`
	UpdatedAt          string            `json:"updated_at"`
}

// EncounterListResult is one page of encounters.
type EncounterListResult struct {
	Encounters    []EncounterResult `json:"encounters"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

// EncounterCreateTool defines encounter_create.
func EncounterCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "encounter_create",
		Description: "Creates an encounter and adds the given characters to its roster",
	}
}

// EncounterGetTool defines encounter_get.
func EncounterGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "encounter_get",
		Description: "Returns an encounter and its roster",
	}
}

// EncounterListTool defines encounter_list.
func EncounterListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "encounter_list",
		Description: "Lists encounters ordered by id",
	}
}

// EncounterCreateHandler executes encounter_create.
func EncounterCreateHandler(client InitiativeClient, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[EncounterCreateInput, EncounterResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EncounterCreateInput) (*mcp.CallToolResult, EncounterResult, error) {
		if strings.TrimSpace(input.Name) == "" {
			return nil, EncounterResult{}, fmt.Errorf("name is required")
		}
		runCtx, cancel := callContext(ctx)
		defer cancel()

		created, err := client.CreateEncounter(runCtx, initiativeapi.CreateEncounterRequest{
			EncounterID:  strings.TrimSpace(input.EncounterID),
			Name:         input.Name,
			CharacterIDs: input.CharacterIDs,
		})
		if err != nil {
			return nil, EncounterResult{}, fmt.Errorf("encounter create failed: %w", err)
		}
		NotifyResourceUpdates(ctx, notify, TimelineResourceURI(created.ID))
		return nil, encounterResult(created), nil
	}
}

// EncounterGetHandler executes encounter_get.
func EncounterGetHandler(client InitiativeClient) mcp.ToolHandlerFor[EncounterGetInput, EncounterResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EncounterGetInput) (*mcp.CallToolResult, EncounterResult, error) {
		encounterID := strings.TrimSpace(input.EncounterID)
		if encounterID == "" {
			return nil, EncounterResult{}, fmt.Errorf("encounter_id is required")
		}
		runCtx, cancel := callContext(ctx)
		defer cancel()

		found, err := client.GetEncounter(runCtx, encounterID)
		if err != nil {
			return nil, EncounterResult{}, fmt.Errorf("encounter get failed: %w", err)
		}
		return nil, encounterResult(found), nil
	}
}

// EncounterListHandler executes encounter_list.
func EncounterListHandler(client InitiativeClient) mcp.ToolHandlerFor[EncounterListInput, EncounterListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EncounterListInput) (*mcp.CallToolResult, EncounterListResult, error) {
		if input.PageSize < 0 {
			return nil, EncounterListResult{}, fmt.Errorf("page_size must not be negative")
		}
		runCtx, cancel := callContext(ctx)
		defer cancel()

		page, err := client.ListEncounters(runCtx, initiativeapi.ListRequest{
			PageSize:  int32(min(input.PageSize, 1<<15)),
			PageToken: input.PageToken,
			Filter:    input.Filter,
		})
		if err != nil {
			return nil, EncounterListResult{}, fmt.Errorf("encounter list failed: %w", err)
		}
		result := EncounterListResult{
			Encounters:    make([]EncounterResult, 0, len(page.Encounters)),
			NextPageToken: page.NextPageToken,
		}
		for _, e := range page.Encounters {
			result.Encounters = append(result.Encounters, encounterResult(e))
		}
		return nil, result, nil
	}
}

func encounterResult(e initiativeapi.Encounter) EncounterResult {
	combatants := make([]CombatantResult, 0, len(e.Roster.Combatants))
	for _, c := range e.Roster.Combatants {
		combatants = append(combatants, CombatantResult{
			CharacterID: c.CharacterID,
			Name:        c.Name,
			Team:        c.Team,
			Speed:       c.Speed,
			NextTurnAt:  c.NextTurnAt,
		})
	}
	return EncounterResult{
		ID:                 e.ID,
		Name:               e.Name,
		Revision:           e.Revision,
		UpdatedBy:          e.UpdatedBy,
		LockedPrefixLength: e.Roster.LockedCount(),
		Combatants:         combatants,
		CreatedAt:          formatTimestamp(e.CreatedAt),
		UpdatedAt:          formatTimestamp(e.UpdatedAt),
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
