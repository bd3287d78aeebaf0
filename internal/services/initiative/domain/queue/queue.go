package queue

import (
	"math"

	"github.com/louisbranch/initiative/internal/services/initiative/domain/roster"
)

const (
	// DefaultSteps is the look-ahead used when callers do not ask for one.
	DefaultSteps = 50

	// anchorTolerance bounds the distance between a simulated turn and the
	// stored coordinate for the turn to count as the real next turn.
	anchorTolerance = 1e-3

	// preallocTurns caps the capacity reserved up front; longer walks grow
	// the slice as they go.
	preallocTurns = 1024
)

// SimulatedTurn is one projected turn.
type SimulatedTurn struct {
	CharacterID string  `json:"characterId"`
	Name        string  `json:"name"`
	Team        string  `json:"team"`
	Time        float64 `json:"time"`
	// IsAnchor is true when Time is the combatant's stored NextTurnAt.
	IsAnchor bool `json:"isAnchor"`
	Speed    int  `json:"speed"`
}

// BattleGroup is a run of same-team turns that resolve together.
type BattleGroup struct {
	Turns     []SimulatedTurn `json:"turns"`
	Team      string          `json:"team"`
	StartTime float64         `json:"startTime"`
}

// Simulate projects steps turns and groups them. Non-positive steps use
// DefaultSteps.
func Simulate(combatants []roster.Combatant, steps int) []BattleGroup {
	if steps <= 0 {
		steps = DefaultSteps
	}
	return Group(Turns(combatants, steps))
}

// Turns returns the raw, ungrouped turn sequence. The same combatant may
// appear several times. An empty roster yields no turns.
func Turns(combatants []roster.Combatant, steps int) []SimulatedTurn {
	if len(combatants) == 0 || steps <= 0 {
		return nil
	}
	current := make([]float64, len(combatants))
	for i, c := range combatants {
		current[i] = c.NextTurnAt
	}

	turns := make([]SimulatedTurn, 0, min(steps, preallocTurns))
	for step := 0; step < steps; step++ {
		next := 0
		for i := 1; i < len(current); i++ {
			if current[i] < current[next] {
				next = i
			}
		}
		c := combatants[next]
		at := current[next]
		turns = append(turns, SimulatedTurn{
			CharacterID: c.CharacterID,
			Name:        c.Name,
			Team:        c.Team,
			Time:        at,
			IsAnchor:    math.Abs(c.NextTurnAt-at) < anchorTolerance,
			Speed:       c.Speed,
		})
		current[next] = at + roster.Period(c.Speed)
	}
	return turns
}

// Group collapses an ordered turn list into battle groups.
func Group(turns []SimulatedTurn) []BattleGroup {
	runs := Partition(turns, func(t SimulatedTurn) (string, string) {
		return t.Team, t.CharacterID
	})
	groups := make([]BattleGroup, 0, len(runs))
	for _, run := range runs {
		groups = append(groups, BattleGroup{
			Turns:     run,
			Team:      run[0].Team,
			StartTime: run[0].Time,
		})
	}
	return groups
}

// Partition splits items into consecutive runs. A run closes when the next
// item's team differs from the run's team or its character already appears
// in the run. Every returned run is non-empty.
func Partition[T any](items []T, key func(T) (team, characterID string)) [][]T {
	var runs [][]T
	var run []T
	var runTeam string
	seen := map[string]struct{}{}

	for _, item := range items {
		team, id := key(item)
		_, repeated := seen[id]
		if len(run) > 0 && (team != runTeam || repeated) {
			runs = append(runs, run)
			run = nil
			seen = map[string]struct{}{}
		}
		if len(run) == 0 {
			runTeam = team
		}
		run = append(run, item)
		seen[id] = struct{}{}
	}
	if len(run) > 0 {
		runs = append(runs, run)
	}
	return runs
}
