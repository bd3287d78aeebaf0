package roster

import "testing"

func TestRosterCloneIsIndependent(t *testing.T) {
	original := Roster{Combatants: []Combatant{{CharacterID: "a", NextTurnAt: 1}}, LockedPrefixLength: PrefixLength(2)}
	clone := original.Clone()
	clone.Combatants[0].NextTurnAt = 99
	*clone.LockedPrefixLength = 5

	if original.Combatants[0].NextTurnAt != 1 {
		t.Fatalf("expected original untouched, got %v", original.Combatants[0].NextTurnAt)
	}
	if *original.LockedPrefixLength != 2 {
		t.Fatalf("expected original locked prefix 2, got %d", *original.LockedPrefixLength)
	}
	if (Roster{}).Clone().Combatants != nil {
		t.Fatal("expected nil combatants to stay nil")
	}
}

func TestSortedByNextTurnIsStable(t *testing.T) {
	r := Roster{Combatants: []Combatant{
		{CharacterID: "late", NextTurnAt: 30},
		{CharacterID: "first-tie", NextTurnAt: 10},
		{CharacterID: "second-tie", NextTurnAt: 10},
	}}

	sorted := r.SortedByNextTurn()
	want := []string{"first-tie", "second-tie", "late"}
	for i, id := range want {
		if sorted[i].CharacterID != id {
			t.Fatalf("sorted[%d] = %s, want %s", i, sorted[i].CharacterID, id)
		}
	}
	if r.Combatants[0].CharacterID != "late" {
		t.Fatal("expected roster order untouched")
	}
}

func TestLockedCount(t *testing.T) {
	tests := []struct {
		name   string
		roster Roster
		want   int
	}{
		{name: "empty", roster: Roster{}, want: 0},
		{
			name:   "plain frequencies",
			roster: Roster{Combatants: []Combatant{{TurnFrequency: 10}, {TurnFrequency: 5}}},
			want:   0,
		},
		{
			name: "legacy marker on first sorted",
			roster: Roster{Combatants: []Combatant{
				{CharacterID: "b", TurnFrequency: 10, NextTurnAt: 50},
				{CharacterID: "a", TurnFrequency: 10003, NextTurnAt: 0},
			}},
			want: 3,
		},
		{
			name: "legacy marker ignored when not first",
			roster: Roster{Combatants: []Combatant{
				{CharacterID: "a", TurnFrequency: 10, NextTurnAt: 0},
				{CharacterID: "b", TurnFrequency: 10003, NextTurnAt: 50},
			}},
			want: 0,
		},
		{
			name: "explicit field wins",
			roster: Roster{
				Combatants:         []Combatant{{TurnFrequency: 10003}},
				LockedPrefixLength: PrefixLength(1),
			},
			want: 1,
		},
		{
			name: "explicit zero turns the legacy marker off",
			roster: Roster{
				Combatants:         []Combatant{{TurnFrequency: 10003}},
				LockedPrefixLength: PrefixLength(0),
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.roster.LockedCount(); got != tt.want {
				t.Fatalf("LockedCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLockedPrefixEncodingRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 7} {
		if got := DecodeLockedPrefix(EncodeLockedPrefix(n)); got != n {
			t.Fatalf("decode(encode(%d)) = %d", n, got)
		}
	}
	if got := EncodeLockedPrefix(-2); got != 10000 {
		t.Fatalf("expected negative length to encode as 10000, got %d", got)
	}
	if got := DecodeLockedPrefix(9999); got != 0 {
		t.Fatalf("expected 0 below marker, got %d", got)
	}
}

func TestMaxNextTurnAt(t *testing.T) {
	if got := (Roster{}).MaxNextTurnAt(); got != 0 {
		t.Fatalf("expected 0 for empty roster, got %v", got)
	}
	r := Roster{Combatants: []Combatant{{NextTurnAt: -40}, {NextTurnAt: -5}}}
	if got := r.MaxNextTurnAt(); got != 0 {
		t.Fatalf("expected floor of 0, got %v", got)
	}
	r = Roster{Combatants: []Combatant{{NextTurnAt: 12.5}, {NextTurnAt: 3}}}
	if got := r.MaxNextTurnAt(); got != 12.5 {
		t.Fatalf("expected 12.5, got %v", got)
	}
}

func TestFindAndHas(t *testing.T) {
	r := Roster{Combatants: []Combatant{{CharacterID: "a", Name: "Aria"}}}
	c, ok := r.Find("a")
	if !ok || c.Name != "Aria" {
		t.Fatalf("expected to find Aria, got %+v %v", c, ok)
	}
	if r.Has("b") {
		t.Fatal("expected b to be absent")
	}
	if got := r.IDs(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected ids [a], got %v", got)
	}
}

func TestTurnFrequencyForStaysBelowMarkers(t *testing.T) {
	tests := []struct {
		speed int
		want  int
	}{
		{speed: 10, want: 10},
		{speed: 9999, want: 9999},
		{speed: 10000, want: 9999},
		{speed: 10003, want: 9999},
	}
	for _, tt := range tests {
		got := TurnFrequencyFor(tt.speed)
		if got != tt.want {
			t.Fatalf("TurnFrequencyFor(%d) = %d, want %d", tt.speed, got, tt.want)
		}
		if DecodeLockedPrefix(got) != 0 {
			t.Fatalf("TurnFrequencyFor(%d) = %d reads as a marker", tt.speed, got)
		}
	}
	if got := *PrefixLength(-3); got != 0 {
		t.Fatalf("expected negative prefix clamped to 0, got %d", got)
	}
}
