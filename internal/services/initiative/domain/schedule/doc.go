// Package schedule holds the roster mutators of the initiative engine.
//
// Every mutator is a pure function from a roster snapshot (plus a character
// lookup where live data matters) to a new snapshot. Inputs are never
// modified; callers replace the whole roster with the result, which keeps a
// single call atomic from the caller's point of view.
//
// Domain preconditions that are not met (unknown character, empty roster, an
// out-of-range position) leave the snapshot unchanged instead of failing.
// The only errors in this package come from command dispatch, where a
// transport handed over a command the engine cannot route.
//
// Two ordering paths coexist on purpose:
//   - SetTurnOrder indexes the raw, ungrouped ten-step walk from queue.Turns,
//   - ReorderParticipants indexes the grouped queue from queue.Simulate.
//
// They disagree once two combatants share a team, and both are kept.
package schedule
