// Package timeline projects the spectator view of an initiative roster.
//
// The projection honors a locked prefix authored by the game master: the
// first LockedCount tiles keep their saved order no matter what their timing
// says, and only the tiles after them are sorted by projected time. Tile ids
// have the form "{characterId}_t{turnNumber}" and are stable across repeated
// projections of the same roster.
package timeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/louisbranch/initiative/internal/services/initiative/domain/queue"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/roster"
)

const (
	// DefaultLength is the number of tiles projected when callers pass none.
	DefaultLength = 12

	preallocTiles = 1024
)

// Tile is one projected turn on the spectator timeline.
type Tile struct {
	ID          string  `json:"id"`
	CharacterID string  `json:"characterId"`
	Name        string  `json:"name"`
	Team        string  `json:"team"`
	Time        float64 `json:"time"`
	TurnNumber  int     `json:"turnNumber"`
	Speed       int     `json:"speed"`
	IsAnchor    bool    `json:"isAnchor"`
	IsScripted  bool    `json:"isScripted"`
}

// Group is a run of same-team tiles.
type Group struct {
	ID         string  `json:"id"`
	Tiles      []Tile  `json:"tiles"`
	Team       string  `json:"team"`
	StartTime  float64 `json:"startTime"`
	IsScripted bool    `json:"isScripted"`
}

// Projection is the spectator view of a roster.
type Projection struct {
	Groups []Group `json:"groups"`
	// CurrentTurnDisplay names everyone in the first group, or is nil when
	// there is nothing to show.
	CurrentTurnDisplay *string `json:"currentTurnDisplay"`
}

// TileID returns the display id of a character's nth projected turn.
func TileID(characterID string, turnNumber int) string {
	return fmt.Sprintf("%s_t%d", characterID, turnNumber)
}

// Project builds the spectator timeline. Non-positive lengths use
// DefaultLength. The roster is never modified.
func Project(r roster.Roster, length int) Projection {
	if length <= 0 {
		length = DefaultLength
	}
	if r.Len() == 0 {
		return Projection{Groups: []Group{}}
	}

	ordered := r.SortedByNextTurn()
	locked := r.LockedCount()
	tiles := fill(ordered, length)

	if locked > len(tiles) {
		locked = len(tiles)
	}
	calculated := tiles[locked:]
	sort.SliceStable(calculated, func(i, j int) bool {
		return calculated[i].Time < calculated[j].Time
	})
	for i := range tiles {
		tiles[i].IsScripted = i < locked
	}

	runs := queue.Partition(tiles, func(t Tile) (string, string) {
		return t.Team, t.CharacterID
	})
	groups := make([]Group, 0, len(runs))
	for _, run := range runs {
		groups = append(groups, Group{
			ID:         run[0].ID,
			Tiles:      run,
			Team:       run[0].Team,
			StartTime:  run[0].Time,
			IsScripted: run[0].IsScripted,
		})
	}

	projection := Projection{Groups: groups}
	if len(groups) > 0 {
		names := make([]string, 0, len(groups[0].Tiles))
		for _, tile := range groups[0].Tiles {
			names = append(names, tile.Name)
		}
		display := strings.Join(names, " & ")
		projection.CurrentTurnDisplay = &display
	}
	return projection
}

// fill seeds one tile per combatant in saved order, then extends the list
// with the ungrouped greedy walk until it holds length tiles.
func fill(ordered []roster.Combatant, length int) []Tile {
	tiles := make([]Tile, 0, max(min(length, preallocTiles), len(ordered)))
	turns := make([]int, len(ordered))
	for i, c := range ordered {
		turns[i] = 1
		tiles = append(tiles, newTile(c, 1))
	}

	for iterations := 0; len(tiles) < length && iterations < 2*length; iterations++ {
		next := 0
		nextAt := projectedTime(ordered[0], turns[0]+1)
		for i := 1; i < len(ordered); i++ {
			if at := projectedTime(ordered[i], turns[i]+1); at < nextAt {
				next, nextAt = i, at
			}
		}
		turns[next]++
		tiles = append(tiles, newTile(ordered[next], turns[next]))
	}
	return tiles
}

func newTile(c roster.Combatant, turnNumber int) Tile {
	return Tile{
		ID:          TileID(c.CharacterID, turnNumber),
		CharacterID: c.CharacterID,
		Name:        c.Name,
		Team:        c.Team,
		Time:        projectedTime(c, turnNumber),
		TurnNumber:  turnNumber,
		Speed:       c.Speed,
		IsAnchor:    turnNumber == 1,
	}
}

func projectedTime(c roster.Combatant, turnNumber int) float64 {
	return float64(turnNumber) * roster.Period(c.Speed)
}
