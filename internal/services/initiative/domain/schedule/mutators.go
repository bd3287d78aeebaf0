package schedule

import (
	"strings"

	"github.com/louisbranch/initiative/internal/services/initiative/domain/queue"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/roster"
)

const (
	// AddGap is the coordinate distance between the furthest scheduled
	// combatant and a newly added one. It does not depend on speed.
	AddGap = 10.0
	// ReorderOffset is the distance kept from the first or last group when a
	// combatant is moved to either end of the queue.
	ReorderOffset = 10.0
	// TurnOrderSteps is the depth of the ungrouped walk used by SetTurnOrder.
	TurnOrderSteps = 10
)

// Add appends a character behind the furthest-scheduled combatant.
//
// Unknown characters and characters already on the roster leave it unchanged.
func Add(r roster.Roster, lookup roster.CharacterLookup, characterID string) roster.Roster {
	next := r.Clone()
	if lookup == nil || next.Has(characterID) {
		return next
	}
	character, ok := lookup.LookupCharacter(characterID)
	if !ok {
		return next
	}
	speed := roster.ResolveSpeed(character)
	next.Combatants = append(next.Combatants, roster.Combatant{
		CharacterID:   characterID,
		Name:          character.Name,
		Speed:         speed,
		TurnFrequency: roster.TurnFrequencyFor(speed),
		NextTurnAt:    r.MaxNextTurnAt() + AddGap,
		Team:          roster.DefaultTeam,
	})
	return next
}

// Remove drops a combatant from the roster.
func Remove(r roster.Roster, characterID string) roster.Roster {
	next := roster.Roster{}
	if r.LockedPrefixLength != nil {
		next.LockedPrefixLength = roster.PrefixLength(*r.LockedPrefixLength)
	}
	for _, c := range r.Combatants {
		if c.CharacterID == characterID {
			continue
		}
		next.Combatants = append(next.Combatants, c)
	}
	if next.Combatants == nil && r.Combatants != nil {
		next.Combatants = []roster.Combatant{}
	}
	return next
}

// AdvanceTurn resolves the imminent group.
//
// Members of the first simulated group move forward by one period at their
// refreshed speed. Everyone else only has the cached speed refreshed.
func AdvanceTurn(r roster.Roster, lookup roster.CharacterLookup) roster.Roster {
	next := r.Clone()
	groups := queue.Simulate(r.Combatants, queue.DefaultSteps)
	if len(groups) == 0 {
		return next
	}
	acting := make(map[string]struct{}, len(groups[0].Turns))
	for _, turn := range groups[0].Turns {
		acting[turn.CharacterID] = struct{}{}
	}
	for i := range next.Combatants {
		c := &next.Combatants[i]
		c.Speed = roster.RefreshSpeed(lookup, *c)
		if _, ok := acting[c.CharacterID]; ok {
			c.NextTurnAt += roster.Period(c.Speed)
		}
	}
	return next
}

// Reset refreshes every speed and moves every combatant back to zero.
func Reset(r roster.Roster, lookup roster.CharacterLookup) roster.Roster {
	next := r.Clone()
	for i := range next.Combatants {
		c := &next.Combatants[i]
		c.Speed = roster.RefreshSpeed(lookup, *c)
		c.NextTurnAt = 0
	}
	return next
}

// RefreshSpeeds refreshes cached speeds without moving anyone.
func RefreshSpeeds(r roster.Roster, lookup roster.CharacterLookup) roster.Roster {
	next := r.Clone()
	for i := range next.Combatants {
		next.Combatants[i].Speed = roster.RefreshSpeed(lookup, next.Combatants[i])
	}
	return next
}

// SyncTurns copies the target's coordinate onto the source.
func SyncTurns(r roster.Roster, sourceID, targetID string) roster.Roster {
	next := r.Clone()
	src := next.Index(sourceID)
	target, ok := next.Find(targetID)
	if src < 0 || !ok {
		return next
	}
	next.Combatants[src].NextTurnAt = target.NextTurnAt
	return next
}

// SetTurnOrder pins a combatant to the coordinate of the raw turn at position
// in an ungrouped walk of TurnOrderSteps steps.
func SetTurnOrder(r roster.Roster, characterID string, position int) roster.Roster {
	next := r.Clone()
	idx := next.Index(characterID)
	if idx < 0 {
		return next
	}
	turns := queue.Turns(r.Combatants, TurnOrderSteps)
	if position < 0 || position >= len(turns) {
		return next
	}
	next.Combatants[idx].NextTurnAt = turns[position].Time
	return next
}

// ReorderParticipants moves a combatant so it acts at newIndex in the grouped
// queue: before the first group, after the last, or halfway between the two
// groups around the insertion point.
func ReorderParticipants(r roster.Roster, characterID string, newIndex int) roster.Roster {
	next := r.Clone()
	idx := next.Index(characterID)
	if idx < 0 {
		return next
	}
	groups := queue.Simulate(r.Combatants, queue.DefaultSteps)
	if len(groups) == 0 {
		return next
	}

	var at float64
	switch {
	case newIndex <= 0:
		at = groups[0].StartTime - ReorderOffset
	case newIndex >= len(groups):
		at = groups[len(groups)-1].StartTime + ReorderOffset
	default:
		at = (groups[newIndex-1].StartTime + groups[newIndex].StartTime) / 2
	}
	next.Combatants[idx].NextTurnAt = at
	return next
}

// ChangeTeam replaces a combatant's team. A blank team is ignored.
func ChangeTeam(r roster.Roster, characterID, team string) roster.Roster {
	next := r.Clone()
	team = strings.TrimSpace(team)
	idx := next.Index(characterID)
	if idx < 0 || team == "" {
		return next
	}
	next.Combatants[idx].Team = team
	return next
}

// SetLockedPrefix stores the scripted prefix length on the roster itself.
//
// Legacy markers carried in TurnFrequency are cleared so the roster-level
// field is the only source from then on.
func SetLockedPrefix(r roster.Roster, length int) roster.Roster {
	next := r.Clone()
	next.LockedPrefixLength = roster.PrefixLength(length)
	for i := range next.Combatants {
		c := &next.Combatants[i]
		if c.TurnFrequency >= roster.EncodeLockedPrefix(0) {
			c.TurnFrequency = roster.TurnFrequencyFor(c.Speed)
		}
	}
	return next
}
