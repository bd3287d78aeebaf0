package schedule

import (
	"errors"
	"testing"

	"github.com/louisbranch/initiative/internal/services/initiative/domain/roster"
)

func TestApplyRoutesCommands(t *testing.T) {
	lookup := roster.Characters{"d": {ID: "d", Name: "Dara"}}
	base := sharedTeamRoster()

	tests := []struct {
		name  string
		cmd   Command
		check func(t *testing.T, got roster.Roster)
	}{
		{
			name: "add",
			cmd:  Command{Type: CommandAdd, CharacterID: "d"},
			check: func(t *testing.T, got roster.Roster) {
				if got.Len() != 4 {
					t.Fatalf("expected 4 combatants, got %d", got.Len())
				}
			},
		},
		{
			name: "remove",
			cmd:  Command{Type: CommandRemove, CharacterID: "b"},
			check: func(t *testing.T, got roster.Roster) {
				if got.Has("b") {
					t.Fatal("expected b removed")
				}
			},
		},
		{
			name: "short advance name",
			cmd:  Command{Type: "advance"},
			check: func(t *testing.T, got roster.Roster) {
				if mustFind(t, got, "a").NextTurnAt != 100 {
					t.Fatalf("expected a advanced to 100, got %v", mustFind(t, got, "a").NextTurnAt)
				}
			},
		},
		{
			name: "sync",
			cmd:  Command{Type: CommandSync, CharacterID: "c", TargetID: "a"},
			check: func(t *testing.T, got roster.Roster) {
				if mustFind(t, got, "c").NextTurnAt != 0 {
					t.Fatal("expected c synced to a")
				}
			},
		},
		{
			name: "set turn order",
			cmd:  Command{Type: CommandSetTurnOrder, CharacterID: "c", Position: 1},
			check: func(t *testing.T, got roster.Roster) {
				if mustFind(t, got, "c").NextTurnAt != 5 {
					t.Fatal("expected c at raw position 1")
				}
			},
		},
		{
			name: "reorder",
			cmd:  Command{Type: CommandReorder, CharacterID: "c", Index: 1},
			check: func(t *testing.T, got roster.Roster) {
				if mustFind(t, got, "c").NextTurnAt != 25 {
					t.Fatal("expected c at grouped slot 1")
				}
			},
		},
		{
			name: "change team",
			cmd:  Command{Type: CommandChangeTeam, CharacterID: " a ", Team: "green"},
			check: func(t *testing.T, got roster.Roster) {
				if mustFind(t, got, "a").Team != "green" {
					t.Fatal("expected a on green")
				}
			},
		},
		{
			name: "set locked prefix",
			cmd:  Command{Type: CommandSetLockedPrefix, Locked: 2},
			check: func(t *testing.T, got roster.Roster) {
				if got.LockedCount() != 2 {
					t.Fatalf("expected locked prefix 2, got %d", got.LockedCount())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(base, lookup, tt.cmd)
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			tt.check(t, got)
		})
	}
}

func TestApplyRejectsUnroutableCommands(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want error
	}{
		{"unknown type", Command{Type: "initiative.teleport"}, ErrUnknownCommand},
		{"empty type", Command{}, ErrUnknownCommand},
		{"missing character", Command{Type: CommandRemove, CharacterID: "  "}, ErrCharacterIDRequired},
		{"missing sync target", Command{Type: CommandSync, CharacterID: "a"}, ErrCharacterIDRequired},
	}

	base := sharedTeamRoster()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(base, roster.NoCharacters, tt.cmd)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if got.Len() != base.Len() {
				t.Fatal("expected roster returned unchanged")
			}
		})
	}
}

func TestCommandTypesCoverDispatch(t *testing.T) {
	for _, typ := range CommandTypes() {
		cmd := Command{Type: typ, CharacterID: "a", TargetID: "b"}
		if err := cmd.Validate(); err != nil {
			t.Fatalf("expected %s to validate, got %v", typ, err)
		}
	}
}
