package roster

// SpeedStat is the speed statistic of a character sheet.
type SpeedStat struct {
	Base  float64 `json:"base"`
	Bonus float64 `json:"bonus"`
	// Gain is the number of levels per point of speed; zero counts as 1.
	Gain float64 `json:"gain"`
}

// Character is the live character data the engine reads through a lookup.
type Character struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Level int        `json:"level"`
	Speed *SpeedStat `json:"speed,omitempty"`
}

// CharacterLookup resolves live character data by id.
type CharacterLookup interface {
	LookupCharacter(characterID string) (Character, bool)
}

// LookupFunc adapts a function to CharacterLookup.
type LookupFunc func(characterID string) (Character, bool)

// LookupCharacter implements CharacterLookup.
func (fn LookupFunc) LookupCharacter(characterID string) (Character, bool) {
	if fn == nil {
		return Character{}, false
	}
	return fn(characterID)
}

// Characters is an in-memory CharacterLookup keyed by character id.
type Characters map[string]Character

// LookupCharacter implements CharacterLookup.
func (c Characters) LookupCharacter(characterID string) (Character, bool) {
	character, ok := c[characterID]
	return character, ok
}

// NoCharacters is a lookup that never finds anything.
var NoCharacters CharacterLookup = Characters(nil)

// RefreshSpeed returns the combatant's speed from live data when the lookup
// knows the character, and its cached speed otherwise.
func RefreshSpeed(lookup CharacterLookup, c Combatant) int {
	if lookup == nil {
		return c.Speed
	}
	character, ok := lookup.LookupCharacter(c.CharacterID)
	if !ok {
		return c.Speed
	}
	return ResolveSpeed(character)
}
