package schedule

import (
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/initiative/internal/services/initiative/domain/roster"
)

// CommandType names a roster mutation.
type CommandType string

const (
	CommandAdd             CommandType = "initiative.add"
	CommandRemove          CommandType = "initiative.remove"
	CommandAdvance         CommandType = "initiative.advance"
	CommandReset           CommandType = "initiative.reset"
	CommandRefreshSpeeds   CommandType = "initiative.refresh_speeds"
	CommandSync            CommandType = "initiative.sync"
	CommandSetTurnOrder    CommandType = "initiative.set_turn_order"
	CommandReorder         CommandType = "initiative.reorder"
	CommandChangeTeam      CommandType = "initiative.change_team"
	CommandSetLockedPrefix CommandType = "initiative.set_locked_prefix"
)

var (
	// ErrUnknownCommand is returned for command types no mutator handles.
	ErrUnknownCommand = errors.New("unknown initiative command")
	// ErrCharacterIDRequired is returned when a command needs a character id.
	ErrCharacterIDRequired = errors.New("character id is required")
)

var commandTypes = []CommandType{
	CommandAdd,
	CommandRemove,
	CommandAdvance,
	CommandReset,
	CommandRefreshSpeeds,
	CommandSync,
	CommandSetTurnOrder,
	CommandReorder,
	CommandChangeTeam,
	CommandSetLockedPrefix,
}

// CommandTypes lists every supported command type.
func CommandTypes() []CommandType {
	out := make([]CommandType, len(commandTypes))
	copy(out, commandTypes)
	return out
}

// Command is a transport-neutral roster mutation request.
type Command struct {
	Type        CommandType `json:"type"`
	CharacterID string      `json:"characterId,omitempty"`
	// TargetID is the combatant whose coordinate a sync copies.
	TargetID string `json:"targetId,omitempty"`
	Team     string `json:"team,omitempty"`
	// Position indexes the raw turn walk for set_turn_order.
	Position int `json:"position,omitempty"`
	// Index is the grouped queue slot for reorder.
	Index int `json:"index,omitempty"`
	// Locked is the scripted prefix length for set_locked_prefix.
	Locked int `json:"locked,omitempty"`
}

// Normalize trims identifiers and resolves short command names such as
// "advance" to their full type.
func (c Command) Normalize() Command {
	c.Type = CommandType(strings.TrimSpace(string(c.Type)))
	if c.Type != "" && !strings.HasPrefix(string(c.Type), "initiative.") {
		c.Type = "initiative." + c.Type
	}
	c.CharacterID = strings.TrimSpace(c.CharacterID)
	c.TargetID = strings.TrimSpace(c.TargetID)
	c.Team = strings.TrimSpace(c.Team)
	return c
}

// Validate reports whether the command can be routed to a mutator.
func (c Command) Validate() error {
	switch c.Type {
	case CommandAdvance, CommandReset, CommandRefreshSpeeds, CommandSetLockedPrefix:
		return nil
	case CommandAdd, CommandRemove, CommandSetTurnOrder, CommandReorder, CommandChangeTeam:
		if c.CharacterID == "" {
			return fmt.Errorf("%s: %w", c.Type, ErrCharacterIDRequired)
		}
		return nil
	case CommandSync:
		if c.CharacterID == "" || c.TargetID == "" {
			return fmt.Errorf("%s: source and target: %w", c.Type, ErrCharacterIDRequired)
		}
		return nil
	default:
		return fmt.Errorf("%q: %w", c.Type, ErrUnknownCommand)
	}
}

// Apply routes a command to its mutator and returns the new roster.
//
// Errors only signal a command that cannot be routed; domain preconditions
// that do not hold leave the roster unchanged.
func Apply(r roster.Roster, lookup roster.CharacterLookup, cmd Command) (roster.Roster, error) {
	cmd = cmd.Normalize()
	if err := cmd.Validate(); err != nil {
		return r, err
	}
	switch cmd.Type {
	case CommandAdd:
		return Add(r, lookup, cmd.CharacterID), nil
	case CommandRemove:
		return Remove(r, cmd.CharacterID), nil
	case CommandAdvance:
		return AdvanceTurn(r, lookup), nil
	case CommandReset:
		return Reset(r, lookup), nil
	case CommandRefreshSpeeds:
		return RefreshSpeeds(r, lookup), nil
	case CommandSync:
		return SyncTurns(r, cmd.CharacterID, cmd.TargetID), nil
	case CommandSetTurnOrder:
		return SetTurnOrder(r, cmd.CharacterID, cmd.Position), nil
	case CommandReorder:
		return ReorderParticipants(r, cmd.CharacterID, cmd.Index), nil
	case CommandChangeTeam:
		return ChangeTeam(r, cmd.CharacterID, cmd.Team), nil
	case CommandSetLockedPrefix:
		return SetLockedPrefix(r, cmd.Locked), nil
	}
	return r, fmt.Errorf("%q: %w", cmd.Type, ErrUnknownCommand)
}
