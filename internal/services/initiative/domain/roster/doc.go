// Package roster models the combatant roster of a battle encounter.
//
// A roster is an immutable snapshot: every engine operation receives one and
// returns a new one, so callers own persistence and replication. The package
// also holds the speed rules shared by the simulator, the mutators and the
// timeline projector:
//   - ResolveSpeed derives a speed from live character data,
//   - ClampSpeed and Period guard every division by a cached speed,
//   - and CharacterLookup is the injected capability used to read character data.
//
// Schedule coordinates (NextTurnAt) are abstract numbers, never wall-clock time.
package roster
