package schedule

import (
	"reflect"
	"testing"

	"github.com/louisbranch/initiative/internal/services/initiative/domain/queue"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/roster"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/timeline"
)

func combatant(id, team string, speed int, at float64) roster.Combatant {
	return roster.Combatant{CharacterID: id, Name: id, Team: team, Speed: speed, TurnFrequency: speed, NextTurnAt: at}
}

func mustFind(t *testing.T, r roster.Roster, id string) roster.Combatant {
	t.Helper()
	c, ok := r.Find(id)
	if !ok {
		t.Fatalf("expected %s on roster", id)
	}
	return c
}

func TestAdd(t *testing.T) {
	lookup := roster.Characters{
		"aria": {ID: "aria", Name: "Aria", Speed: &roster.SpeedStat{Base: 12}},
		"bram": {ID: "bram", Name: "Bram"},
	}

	t.Run("first combatant", func(t *testing.T) {
		got := Add(roster.Roster{}, lookup, "aria")
		want := roster.Combatant{CharacterID: "aria", Name: "Aria", Speed: 12, TurnFrequency: 12, NextTurnAt: 10, Team: "blue"}
		if len(got.Combatants) != 1 || got.Combatants[0] != want {
			t.Fatalf("expected %+v, got %+v", want, got.Combatants)
		}
	})

	t.Run("behind furthest", func(t *testing.T) {
		r := roster.Roster{Combatants: []roster.Combatant{combatant("x", "red", 10, 250), combatant("y", "red", 10, 40)}}
		got := Add(r, lookup, "bram")
		bram := mustFind(t, got, "bram")
		if bram.NextTurnAt != 260 {
			t.Fatalf("expected next turn 260, got %v", bram.NextTurnAt)
		}
		if bram.Speed != roster.DefaultSpeed {
			t.Fatalf("expected default speed, got %d", bram.Speed)
		}
		if len(r.Combatants) != 2 {
			t.Fatal("expected input roster untouched")
		}
	})

	t.Run("negative coordinates floor at zero", func(t *testing.T) {
		r := roster.Roster{Combatants: []roster.Combatant{combatant("x", "red", 10, -40)}}
		if got := mustFind(t, Add(r, lookup, "aria"), "aria").NextTurnAt; got != 10 {
			t.Fatalf("expected next turn 10, got %v", got)
		}
	})

	t.Run("unknown character", func(t *testing.T) {
		r := roster.Roster{Combatants: []roster.Combatant{combatant("x", "red", 10, 0)}}
		if got := Add(r, lookup, "ghost"); !reflect.DeepEqual(got, r) {
			t.Fatalf("expected unchanged roster, got %+v", got)
		}
		if got := Add(r, nil, "aria"); !reflect.DeepEqual(got, r) {
			t.Fatalf("expected unchanged roster without lookup, got %+v", got)
		}
	})

	t.Run("already present", func(t *testing.T) {
		r := roster.Roster{Combatants: []roster.Combatant{combatant("aria", "red", 3, 7)}}
		if got := Add(r, lookup, "aria"); !reflect.DeepEqual(got, r) {
			t.Fatalf("expected unchanged roster, got %+v", got)
		}
	})
}

func TestRemove(t *testing.T) {
	r := roster.Roster{
		Combatants:         []roster.Combatant{combatant("a", "red", 10, 0), combatant("b", "blue", 10, 5)},
		LockedPrefixLength: roster.PrefixLength(1),
	}

	got := Remove(r, "a")
	if !reflect.DeepEqual(got.IDs(), []string{"b"}) {
		t.Fatalf("expected [b], got %v", got.IDs())
	}
	if got.LockedCount() != 1 {
		t.Fatalf("expected locked prefix kept, got %d", got.LockedCount())
	}
	if len(r.Combatants) != 2 {
		t.Fatal("expected input roster untouched")
	}
	if got := Remove(r, "ghost"); !reflect.DeepEqual(got, r) {
		t.Fatalf("expected unchanged roster, got %+v", got)
	}
	if got := Remove(roster.Roster{Combatants: []roster.Combatant{combatant("a", "red", 10, 0)}}, "a"); got.Combatants == nil {
		t.Fatal("expected empty, non-nil combatants")
	}
}

func TestAdvanceTurnMovesOnlyImminentGroup(t *testing.T) {
	r := roster.Roster{Combatants: []roster.Combatant{
		combatant("a", "red", 10, 0),
		combatant("b", "red", 10, 3),
		combatant("c", "blue", 5, 50),
	}}
	lookup := roster.Characters{
		"a": {ID: "a", Speed: &roster.SpeedStat{Base: 20}},
		"c": {ID: "c", Speed: &roster.SpeedStat{Base: 8}},
	}

	imminent := queue.Simulate(r.Combatants, queue.DefaultSteps)[0]
	members := map[string]bool{}
	for _, turn := range imminent.Turns {
		members[turn.CharacterID] = true
	}

	got := AdvanceTurn(r, lookup)
	for i, before := range r.Combatants {
		after := got.Combatants[i]
		if !members[before.CharacterID] && after.NextTurnAt != before.NextTurnAt {
			t.Fatalf("%s moved from %v to %v outside the imminent group", before.CharacterID, before.NextTurnAt, after.NextTurnAt)
		}
	}

	a := mustFind(t, got, "a")
	if a.Speed != 20 || a.NextTurnAt != 50 {
		t.Fatalf("expected a at 50 with speed 20, got %v speed %d", a.NextTurnAt, a.Speed)
	}
	b := mustFind(t, got, "b")
	if b.Speed != 10 || b.NextTurnAt != 103 {
		t.Fatalf("expected b at 103 with cached speed 10, got %v speed %d", b.NextTurnAt, b.Speed)
	}
	c := mustFind(t, got, "c")
	if c.Speed != 8 || c.NextTurnAt != 50 {
		t.Fatalf("expected c to keep 50 with refreshed speed 8, got %v speed %d", c.NextTurnAt, c.Speed)
	}
	if r.Combatants[0].NextTurnAt != 0 {
		t.Fatal("expected input roster untouched")
	}
}

func TestAdvanceTurnEmptyRoster(t *testing.T) {
	got := AdvanceTurn(roster.Roster{}, roster.NoCharacters)
	if got.Len() != 0 {
		t.Fatalf("expected empty roster, got %d combatants", got.Len())
	}
}

func TestResetAndRefreshSpeeds(t *testing.T) {
	r := roster.Roster{Combatants: []roster.Combatant{
		combatant("a", "red", 10, 120),
		combatant("b", "blue", 4, 75),
	}}
	lookup := roster.Characters{"a": {ID: "a", Level: 2, Speed: &roster.SpeedStat{Base: 6}}}

	reset := Reset(r, lookup)
	for _, c := range reset.Combatants {
		if c.NextTurnAt != 0 {
			t.Fatalf("expected %s at 0, got %v", c.CharacterID, c.NextTurnAt)
		}
	}
	if got := mustFind(t, reset, "a").Speed; got != 8 {
		t.Fatalf("expected refreshed speed 8, got %d", got)
	}
	if got := mustFind(t, reset, "b").Speed; got != 4 {
		t.Fatalf("expected cached speed 4, got %d", got)
	}

	refreshed := RefreshSpeeds(r, lookup)
	if got := mustFind(t, refreshed, "a"); got.Speed != 8 || got.NextTurnAt != 120 {
		t.Fatalf("expected speed 8 at 120, got speed %d at %v", got.Speed, got.NextTurnAt)
	}
	if got := mustFind(t, refreshed, "b").NextTurnAt; got != 75 {
		t.Fatalf("expected b untouched at 75, got %v", got)
	}
}

func TestSyncTurnsScenario(t *testing.T) {
	r := roster.Roster{Combatants: []roster.Combatant{
		combatant("A", "red", 10, 5),
		combatant("B", "blue", 10, 0),
	}}

	got := SyncTurns(r, "A", "B")
	if a := mustFind(t, got, "A").NextTurnAt; a != 0 {
		t.Fatalf("expected A at exactly 0, got %v", a)
	}

	groups := queue.Simulate(got.Combatants, 2)
	if len(groups) != 2 {
		t.Fatalf("expected two separate groups, got %d", len(groups))
	}
	if groups[0].StartTime != groups[1].StartTime {
		t.Fatalf("expected same time, got %v and %v", groups[0].StartTime, groups[1].StartTime)
	}
	if groups[0].Team == groups[1].Team {
		t.Fatalf("expected different teams, got %s twice", groups[0].Team)
	}

	if unchanged := SyncTurns(r, "A", "ghost"); mustFind(t, unchanged, "A").NextTurnAt != 5 {
		t.Fatal("expected no-op when target is absent")
	}
	if unchanged := SyncTurns(r, "ghost", "B"); !reflect.DeepEqual(unchanged, r) {
		t.Fatal("expected no-op when source is absent")
	}
}

// sharedTeamRoster has two red combatants close together and a blue one
// further out, so the raw walk and the grouped queue index differently.
func sharedTeamRoster() roster.Roster {
	return roster.Roster{Combatants: []roster.Combatant{
		combatant("a", "red", 10, 0),
		combatant("b", "red", 10, 5),
		combatant("c", "blue", 10, 50),
	}}
}

func TestSetTurnOrder(t *testing.T) {
	r := sharedTeamRoster()

	if got := mustFind(t, SetTurnOrder(r, "c", 1), "c").NextTurnAt; got != 5 {
		t.Fatalf("expected raw turn 1 at 5, got %v", got)
	}
	if got := mustFind(t, SetTurnOrder(r, "a", 9), "a").NextTurnAt; got != 300 {
		t.Fatalf("expected raw turn 9 at 300, got %v", got)
	}
	for _, position := range []int{-1, TurnOrderSteps} {
		if got := SetTurnOrder(r, "c", position); !reflect.DeepEqual(got, r) {
			t.Fatalf("expected no-op for position %d", position)
		}
	}
	if got := SetTurnOrder(r, "ghost", 0); !reflect.DeepEqual(got, r) {
		t.Fatal("expected no-op for unknown character")
	}
}

func TestSetTurnOrderAndReorderDiverge(t *testing.T) {
	r := sharedTeamRoster()

	raw := mustFind(t, SetTurnOrder(r, "c", 1), "c").NextTurnAt
	grouped := mustFind(t, ReorderParticipants(r, "c", 1), "c").NextTurnAt
	if raw != 5 {
		t.Fatalf("expected raw placement at 5, got %v", raw)
	}
	if grouped != 25 {
		t.Fatalf("expected grouped placement at 25, got %v", grouped)
	}
}

func TestReorderParticipants(t *testing.T) {
	r := sharedTeamRoster()
	groups := queue.Simulate(r.Combatants, queue.DefaultSteps)

	front := mustFind(t, ReorderParticipants(r, "c", 0), "c").NextTurnAt
	for _, g := range groups {
		if front >= g.StartTime {
			t.Fatalf("expected %v before group start %v", front, g.StartTime)
		}
	}
	if negative := mustFind(t, ReorderParticipants(r, "c", -3), "c").NextTurnAt; negative != front {
		t.Fatalf("expected negative index to clamp to front, got %v", negative)
	}

	back := mustFind(t, ReorderParticipants(r, "a", len(groups)), "a").NextTurnAt
	if want := groups[len(groups)-1].StartTime + ReorderOffset; back != want {
		t.Fatalf("expected %v, got %v", want, back)
	}
	if beyond := mustFind(t, ReorderParticipants(r, "a", len(groups)+7), "a").NextTurnAt; beyond != back {
		t.Fatalf("expected overflowing index to clamp to back, got %v", beyond)
	}

	if got := ReorderParticipants(r, "ghost", 1); !reflect.DeepEqual(got, r) {
		t.Fatal("expected no-op for unknown character")
	}
}

func TestChangeTeam(t *testing.T) {
	r := roster.Roster{Combatants: []roster.Combatant{combatant("a", "red", 10, 0)}}

	if got := mustFind(t, ChangeTeam(r, "a", " green "), "a").Team; got != "green" {
		t.Fatalf("expected green, got %s", got)
	}
	if got := ChangeTeam(r, "a", "  "); !reflect.DeepEqual(got, r) {
		t.Fatal("expected blank team to be ignored")
	}
	if r.Combatants[0].Team != "red" {
		t.Fatal("expected input roster untouched")
	}
}

func TestSetLockedPrefix(t *testing.T) {
	r := roster.Roster{Combatants: []roster.Combatant{
		{CharacterID: "a", Speed: 10, TurnFrequency: roster.EncodeLockedPrefix(3)},
		{CharacterID: "b", Speed: 7, TurnFrequency: 7, NextTurnAt: 10},
	}}
	if r.LockedCount() != 3 {
		t.Fatalf("expected legacy locked count 3, got %d", r.LockedCount())
	}

	got := SetLockedPrefix(r, 0)
	if got.LockedCount() != 0 {
		t.Fatalf("expected locked count cleared, got %d", got.LockedCount())
	}
	if tf := mustFind(t, got, "a").TurnFrequency; tf != 10 {
		t.Fatalf("expected legacy marker replaced by speed, got %d", tf)
	}

	if got := SetLockedPrefix(r, 2).LockedCount(); got != 2 {
		t.Fatalf("expected locked count 2, got %d", got)
	}
	if got := SetLockedPrefix(r, -1).LockedPrefixLength; got == nil || *got != 0 {
		t.Fatalf("expected negative length clamped, got %v", got)
	}
	if r.LockedPrefixLength != nil || r.Combatants[0].TurnFrequency != roster.EncodeLockedPrefix(3) {
		t.Fatal("expected input roster untouched")
	}
}

func TestSetLockedPrefixZeroWithFastCharacter(t *testing.T) {
	lookup := roster.Characters{
		"fast": {ID: "fast", Name: "Fast", Speed: &roster.SpeedStat{Base: 10003}},
		"slow": {ID: "slow", Name: "Slow", Speed: &roster.SpeedStat{Base: 5}},
	}
	r := Add(Add(roster.Roster{}, lookup, "fast"), lookup, "slow")
	fast := mustFind(t, r, "fast")
	if fast.Speed != 10003 {
		t.Fatalf("expected speed 10003, got %d", fast.Speed)
	}
	if roster.DecodeLockedPrefix(fast.TurnFrequency) != 0 {
		t.Fatalf("expected turn frequency below the marker range, got %d", fast.TurnFrequency)
	}
	if got := r.LockedCount(); got != 0 {
		t.Fatalf("expected no locked prefix after adds, got %d", got)
	}

	got := SetLockedPrefix(SetLockedPrefix(r, 2), 0)
	if n := got.LockedCount(); n != 0 {
		t.Fatalf("expected locked prefix off, got %d", n)
	}
	for _, group := range timeline.Project(got, 6).Groups {
		if group.IsScripted {
			t.Fatalf("expected no scripted groups, got %s", group.ID)
		}
	}
}
