// Package queue projects upcoming turns from a roster snapshot.
//
// The simulator is a linear-scan discrete-event loop rather than a heap:
// rosters are party-sized and the scan keeps tie breaking obvious. Each step
// picks the combatant with the smallest working coordinate (first in roster
// order on ties), emits a turn at that coordinate, and advances the combatant
// by its period.
//
// The flat turn list is then collapsed into simultaneous-action groups. A new
// group starts whenever the team changes or the combatant already acted in
// the current group, so one group never lists the same combatant twice.
package queue
