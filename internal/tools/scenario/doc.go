// Package scenario runs Lua turn-order scripts against the initiative gRPC
// API and checks the resulting queue and timeline.
//
// A script builds a Scenario with Scenario.new, records characters, an
// encounter, roster commands and expectations, and returns it:
//
//	local scene = Scenario.new("ambush")
//	scene:character({id = "a", name = "Aria", speed = 10})
//	scene:encounter({id = "enc-1", name = "Ambush", characters = {"a"}})
//	scene:advance()
//	scene:expect_next_turn("a", 110)
//	return scene
package scenario
