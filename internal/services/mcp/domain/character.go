package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	initiativeapi "github.com/louisbranch/initiative/internal/services/initiative/api/grpc/initiative"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/roster"
)

// SpeedInput is a character's speed statistic.
type SpeedInput struct {
	Base  float64 `json:"base,omitempty" jsonschema:"base speed"`
	Bonus float64 `json:"bonus,omitempty" jsonschema:"flat bonus added to base"`
	Gain  float64 `json:"gain,omitempty" jsonschema:"levels per point of speed; 0 counts as 1"`
}

// CharacterPutInput is the input of character_put.
type CharacterPutInput struct {
	CharacterID string      `json:"character_id" jsonschema:"character identifier"`
	Name        string      `json:"name" jsonschema:"display name"`
	Level       int         `json:"level,omitempty" jsonschema:"character level"`
	Speed       *SpeedInput `json:"speed,omitempty" jsonschema:"speed statistic; characters without one move at speed 10"`
}

// CharacterResult is a stored character with its resolved speed.
type CharacterResult struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Level         int     `json:"level"`
	SpeedBase     float64 `json:"speed_base"`
	SpeedBonus    float64 `json:"speed_bonus"`
	SpeedGain     float64 `json:"speed_gain"`
	ResolvedSpeed int     `json:"resolved_speed"`
	UpdatedAt     string  `json:"updated_at"`
}

// CharacterPutTool defines character_put.
func CharacterPutTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "character_put",
		Description: "Creates or replaces a character's name, level and speed statistic",
	}
}

// CharacterPutHandler executes character_put.
func CharacterPutHandler(client InitiativeClient) mcp.ToolHandlerFor[CharacterPutInput, CharacterResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CharacterPutInput) (*mcp.CallToolResult, CharacterResult, error) {
		if strings.TrimSpace(input.CharacterID) == "" {
			return nil, CharacterResult{}, fmt.Errorf("character_id is required")
		}
		if strings.TrimSpace(input.Name) == "" {
			return nil, CharacterResult{}, fmt.Errorf("name is required")
		}
		character := initiativeapi.Character{
			ID:    strings.TrimSpace(input.CharacterID),
			Name:  input.Name,
			Level: input.Level,
		}
		if input.Speed != nil {
			character.Speed = &roster.SpeedStat{Base: input.Speed.Base, Bonus: input.Speed.Bonus, Gain: input.Speed.Gain}
		}

		runCtx, cancel := callContext(ctx)
		defer cancel()
		stored, err := client.PutCharacter(runCtx, character)
		if err != nil {
			return nil, CharacterResult{}, fmt.Errorf("character put failed: %w", err)
		}
		return nil, characterResult(stored), nil
	}
}

func characterResult(c initiativeapi.Character) CharacterResult {
	result := CharacterResult{
		ID:    c.ID,
		Name:  c.Name,
		Level: c.Level,
		ResolvedSpeed: roster.ResolveSpeed(roster.Character{
			ID:    c.ID,
			Name:  c.Name,
			Level: c.Level,
			Speed: c.Speed,
		}),
		UpdatedAt: formatTimestamp(c.UpdatedAt),
	}
	if c.Speed != nil {
		result.SpeedBase = c.Speed.Base
		result.SpeedBonus = c.Speed.Bonus
		result.SpeedGain = c.Speed.Gain
	}
	return result
}
