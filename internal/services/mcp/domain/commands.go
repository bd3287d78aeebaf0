package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/initiative/internal/services/initiative/domain/schedule"
)

// CommandInput is the shared input of the initiative_* mutation tools. Each
// tool reads only the fields its description names.
type CommandInput struct {
	EncounterID string `json:"encounter_id" jsonschema:"encounter identifier"`
	CharacterID string `json:"character_id,omitempty" jsonschema:"combatant the command acts on"`
	TargetID    string `json:"target_id,omitempty" jsonschema:"combatant whose turn time is copied (initiative_sync)"`
	Team        string `json:"team,omitempty" jsonschema:"new team (initiative_change_team)"`
	Position    int    `json:"position,omitempty" jsonschema:"index into the raw turn walk (initiative_set_turn_order)"`
	Index       int    `json:"index,omitempty" jsonschema:"grouped queue slot (initiative_reorder)"`
	Locked      int    `json:"locked,omitempty" jsonschema:"scripted prefix length (initiative_set_locked_prefix)"`
}

// CommandTool pairs an MCP tool with the roster command it runs.
type CommandTool struct {
	Tool    *mcp.Tool
	Command schedule.CommandType
}

// CommandTools lists one tool per roster command.
func CommandTools() []CommandTool {
	return []CommandTool{
		{commandTool("initiative_add", "Adds character_id after the last scheduled turn"), schedule.CommandAdd},
		{commandTool("initiative_remove", "Removes character_id from the roster"), schedule.CommandRemove},
		{commandTool("initiative_advance", "Ends the current turn group and schedules its members' next turns"), schedule.CommandAdvance},
		{commandTool("initiative_reset", "Restarts every combatant at time zero with refreshed speeds"), schedule.CommandReset},
		{commandTool("initiative_refresh_speeds", "Re-reads every combatant's speed from its character"), schedule.CommandRefreshSpeeds},
		{commandTool("initiative_sync", "Moves character_id to act together with target_id"), schedule.CommandSync},
		{commandTool("initiative_set_turn_order", "Moves character_id to the given position of the raw turn walk"), schedule.CommandSetTurnOrder},
		{commandTool("initiative_reorder", "Moves character_id to the given slot of the grouped queue"), schedule.CommandReorder},
		{commandTool("initiative_change_team", "Moves character_id to team"), schedule.CommandChangeTeam},
		{commandTool("initiative_set_locked_prefix", "Pins the first locked timeline tiles in their current order"), schedule.CommandSetLockedPrefix},
	}
}

func commandTool(name, description string) *mcp.Tool {
	return &mcp.Tool{Name: name, Description: description}
}

// CommandHandler executes one roster command and returns the new encounter.
func CommandHandler(client InitiativeClient, commandType schedule.CommandType, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[CommandInput, EncounterResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CommandInput) (*mcp.CallToolResult, EncounterResult, error) {
		encounterID := strings.TrimSpace(input.EncounterID)
		if encounterID == "" {
			return nil, EncounterResult{}, fmt.Errorf("encounter_id is required")
		}
		cmd := schedule.Command{
			Type:        commandType,
			CharacterID: input.CharacterID,
			TargetID:    input.TargetID,
			Team:        input.Team,
			Position:    input.Position,
			Index:       input.Index,
			Locked:      input.Locked,
		}.Normalize()
		if err := cmd.Validate(); err != nil {
			return nil, EncounterResult{}, err
		}

		runCtx, cancel := callContext(ctx)
		defer cancel()
		updated, err := client.ApplyCommand(runCtx, encounterID, cmd)
		if err != nil {
			return nil, EncounterResult{}, fmt.Errorf("%s failed: %w", commandType, err)
		}
		NotifyResourceUpdates(ctx, notify, TimelineResourceURI(encounterID))
		return nil, encounterResult(updated), nil
	}
}
