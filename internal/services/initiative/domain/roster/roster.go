package roster

import "sort"

const (
	// DefaultTeam is the team assigned to newly added combatants.
	DefaultTeam = "blue"

	// legacyLockedPrefixOffset marks a TurnFrequency value that carries the
	// locked-prefix length instead of a frequency.
	legacyLockedPrefixOffset = 10000
)

// Combatant is one roster entry.
type Combatant struct {
	// CharacterID identifies the character; unique within a roster.
	CharacterID string `json:"characterId"`
	// Name is the cached display name.
	Name string `json:"name"`
	// Speed is the cached speed, refreshed from live character data by mutators.
	Speed int `json:"speed"`
	// TurnFrequency mirrors Speed. Legacy rosters store the locked-prefix
	// length here (plus 10000) on the first NextTurnAt-sorted combatant.
	TurnFrequency int `json:"turnFrequency"`
	// NextTurnAt is the schedule coordinate of the combatant's next turn.
	NextTurnAt float64 `json:"nextTurnAt"`
	// Team drives grouping and display color.
	Team string `json:"team"`
}

// Roster is a snapshot of all combatants in an encounter.
type Roster struct {
	Combatants []Combatant `json:"combatants"`
	// LockedPrefixLength is the number of leading timeline tiles authored by
	// the GM and exempt from time-based sorting. Nil means it was never set
	// and the legacy TurnFrequency marker applies; zero turns the prefix off.
	LockedPrefixLength *int `json:"lockedPrefixLength,omitempty"`
}

// PrefixLength returns an explicit locked-prefix length, clamped to zero.
func PrefixLength(length int) *int {
	length = max(length, 0)
	return &length
}

// Clone returns a deep copy of the roster.
func (r Roster) Clone() Roster {
	out := Roster{}
	if r.LockedPrefixLength != nil {
		out.LockedPrefixLength = PrefixLength(*r.LockedPrefixLength)
	}
	if r.Combatants != nil {
		out.Combatants = make([]Combatant, len(r.Combatants))
		copy(out.Combatants, r.Combatants)
	}
	return out
}

// Len returns the number of combatants.
func (r Roster) Len() int {
	return len(r.Combatants)
}

// Index returns the position of the combatant with the given id, or -1.
func (r Roster) Index(characterID string) int {
	for i, c := range r.Combatants {
		if c.CharacterID == characterID {
			return i
		}
	}
	return -1
}

// Find returns the combatant with the given id.
func (r Roster) Find(characterID string) (Combatant, bool) {
	idx := r.Index(characterID)
	if idx < 0 {
		return Combatant{}, false
	}
	return r.Combatants[idx], true
}

// Has reports whether the roster contains the character.
func (r Roster) Has(characterID string) bool {
	return r.Index(characterID) >= 0
}

// SortedByNextTurn returns a copy of the combatants ordered by NextTurnAt.
// Equal coordinates keep roster order.
func (r Roster) SortedByNextTurn() []Combatant {
	ordered := make([]Combatant, len(r.Combatants))
	copy(ordered, r.Combatants)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].NextTurnAt < ordered[j].NextTurnAt
	})
	return ordered
}

// LockedCount returns the locked-prefix length used by the timeline projector.
//
// The explicit LockedPrefixLength wins once set, zero included. Otherwise the
// legacy encoding is decoded from the first NextTurnAt-sorted combatant: a
// TurnFrequency of at least 10000 carries the length plus 10000.
func (r Roster) LockedCount() int {
	if r.LockedPrefixLength != nil {
		return max(*r.LockedPrefixLength, 0)
	}
	if len(r.Combatants) == 0 {
		return 0
	}
	return DecodeLockedPrefix(r.SortedByNextTurn()[0].TurnFrequency)
}

// DecodeLockedPrefix decodes a legacy TurnFrequency marker.
func DecodeLockedPrefix(turnFrequency int) int {
	if turnFrequency >= legacyLockedPrefixOffset {
		return turnFrequency - legacyLockedPrefixOffset
	}
	return 0
}

// TurnFrequencyFor returns the TurnFrequency stored for a speed. Speeds in
// the legacy marker range are capped just below it.
func TurnFrequencyFor(speed int) int {
	return min(speed, legacyLockedPrefixOffset-1)
}

// EncodeLockedPrefix returns the legacy TurnFrequency marker for a length.
func EncodeLockedPrefix(length int) int {
	if length < 0 {
		length = 0
	}
	return length + legacyLockedPrefixOffset
}

// MaxNextTurnAt returns the furthest scheduled coordinate, never below zero.
func (r Roster) MaxNextTurnAt() float64 {
	furthest := 0.0
	for _, c := range r.Combatants {
		if c.NextTurnAt > furthest {
			furthest = c.NextTurnAt
		}
	}
	return furthest
}

// IDs returns the character ids in roster order.
func (r Roster) IDs() []string {
	ids := make([]string, 0, len(r.Combatants))
	for _, c := range r.Combatants {
		ids = append(ids, c.CharacterID)
	}
	return ids
}
