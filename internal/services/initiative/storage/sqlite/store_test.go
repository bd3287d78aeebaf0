package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/initiative/internal/services/initiative/domain/roster"
	"github.com/louisbranch/initiative/internal/services/initiative/storage"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "initiative.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func sampleRoster() roster.Roster {
	return roster.Roster{
		LockedPrefixLength: roster.PrefixLength(1),
		Combatants: []roster.Combatant{
			{CharacterID: "b", Name: "Bram", Speed: 5, TurnFrequency: 5, NextTurnAt: 12.5, Team: "red"},
			{CharacterID: "a", Name: "Aria", Speed: 10, TurnFrequency: 10, NextTurnAt: 0, Team: "blue"},
		},
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(" "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestNilStoreIsNotConfigured(t *testing.T) {
	t.Parallel()

	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("expected nil close, got %v", err)
	}
	if _, err := store.GetEncounter(context.Background(), "enc-1"); err == nil {
		t.Fatal("expected unconfigured storage error")
	}
}

func TestCreateGetEncounterRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	created := time.Date(2026, time.March, 1, 18, 0, 0, 0, time.UTC)
	if err := store.CreateEncounter(context.Background(), storage.Encounter{
		ID:        "enc-1",
		Name:      " Goblin Ambush ",
		Roster:    sampleRoster(),
		CreatedAt: created,
	}); err != nil {
		t.Fatalf("create encounter: %v", err)
	}

	got, err := store.GetEncounter(context.Background(), "enc-1")
	if err != nil {
		t.Fatalf("get encounter: %v", err)
	}
	if got.Name != "Goblin Ambush" {
		t.Fatalf("expected trimmed name, got %q", got.Name)
	}
	if got.Revision != 1 {
		t.Fatalf("expected revision 1, got %d", got.Revision)
	}
	if !got.CreatedAt.Equal(created) || !got.UpdatedAt.Equal(created) {
		t.Fatalf("expected timestamps %s, got %s/%s", created, got.CreatedAt, got.UpdatedAt)
	}
	want := sampleRoster()
	if got.Roster.LockedPrefixLength == nil || *got.Roster.LockedPrefixLength != *want.LockedPrefixLength {
		t.Fatalf("expected locked prefix %d, got %v", *want.LockedPrefixLength, got.Roster.LockedPrefixLength)
	}
	if len(got.Roster.Combatants) != 2 {
		t.Fatalf("expected 2 combatants, got %d", len(got.Roster.Combatants))
	}
	for i, c := range want.Combatants {
		if got.Roster.Combatants[i] != c {
			t.Fatalf("combatant %d = %+v, want %+v", i, got.Roster.Combatants[i], c)
		}
	}
}

func TestCreateEncounterReturnsAlreadyExistsOnDuplicate(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	encounter := storage.Encounter{ID: "enc-1", Name: "Ambush"}
	if err := store.CreateEncounter(context.Background(), encounter); err != nil {
		t.Fatalf("create encounter: %v", err)
	}
	if err := store.CreateEncounter(context.Background(), encounter); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateEncounterValidates(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.CreateEncounter(context.Background(), storage.Encounter{Name: "x"}); err == nil {
		t.Fatal("expected id required error")
	}
	if err := store.CreateEncounter(context.Background(), storage.Encounter{ID: "x"}); err == nil {
		t.Fatal("expected name required error")
	}
}

func TestGetEncounterNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.GetEncounter(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveRosterReplacesWholeRoster(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.CreateEncounter(context.Background(), storage.Encounter{ID: "enc-1", Name: "Ambush", Roster: sampleRoster()}); err != nil {
		t.Fatalf("create encounter: %v", err)
	}
	later := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return later }

	next := roster.Roster{Combatants: []roster.Combatant{
		{CharacterID: "c", Name: "Cora", Speed: 8, TurnFrequency: 8, NextTurnAt: 30, Team: "green"},
	}}
	saved, err := store.SaveRoster(context.Background(), "enc-1", next, "gm-1")
	if err != nil {
		t.Fatalf("save roster: %v", err)
	}
	if saved.Revision != 2 {
		t.Fatalf("expected revision 2, got %d", saved.Revision)
	}
	if saved.UpdatedBy != "gm-1" || !saved.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected audit fields %q %s", saved.UpdatedBy, saved.UpdatedAt)
	}
	if saved.Roster.LockedPrefixLength != nil {
		t.Fatalf("expected locked prefix unset, got %d", *saved.Roster.LockedPrefixLength)
	}
	if len(saved.Roster.Combatants) != 1 || saved.Roster.Combatants[0].CharacterID != "c" {
		t.Fatalf("expected only c, got %+v", saved.Roster.Combatants)
	}

	empty, err := store.SaveRoster(context.Background(), "enc-1", roster.Roster{}, "")
	if err != nil {
		t.Fatalf("save empty roster: %v", err)
	}
	if empty.Roster.Combatants == nil || len(empty.Roster.Combatants) != 0 {
		t.Fatalf("expected empty non-nil roster, got %#v", empty.Roster.Combatants)
	}
	if empty.Revision != 3 {
		t.Fatalf("expected revision 3, got %d", empty.Revision)
	}
}

func TestSaveRosterRejectsDuplicateCombatantsAtomically(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.CreateEncounter(context.Background(), storage.Encounter{ID: "enc-1", Name: "Ambush", Roster: sampleRoster()}); err != nil {
		t.Fatalf("create encounter: %v", err)
	}
	dup := roster.Roster{Combatants: []roster.Combatant{{CharacterID: "a", Speed: 10}, {CharacterID: "a", Speed: 10}}}
	if _, err := store.SaveRoster(context.Background(), "enc-1", dup, ""); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := store.GetEncounter(context.Background(), "enc-1")
	if err != nil {
		t.Fatalf("get encounter: %v", err)
	}
	if got.Revision != 1 || len(got.Roster.Combatants) != 2 {
		t.Fatalf("expected untouched encounter, got revision %d with %d combatants", got.Revision, len(got.Roster.Combatants))
	}
}

func TestSaveRosterNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.SaveRoster(context.Background(), "missing", roster.Roster{}, ""); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteEncounter(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.CreateEncounter(context.Background(), storage.Encounter{ID: "enc-1", Name: "Ambush", Roster: sampleRoster()}); err != nil {
		t.Fatalf("create encounter: %v", err)
	}
	if err := store.DeleteEncounter(context.Background(), "enc-1"); err != nil {
		t.Fatalf("delete encounter: %v", err)
	}
	if _, err := store.GetEncounter(context.Background(), "enc-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteEncounter(context.Background(), "enc-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	var leftover int
	if err := store.sqlDB.QueryRow(`SELECT COUNT(*) FROM encounter_combatants`).Scan(&leftover); err != nil {
		t.Fatalf("count combatants: %v", err)
	}
	if leftover != 0 {
		t.Fatalf("expected combatants removed, got %d", leftover)
	}
}

func TestListEncountersPagesAndFilters(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	for _, item := range []struct{ id, name string }{
		{"enc-3", "Crypt"},
		{"enc-1", "Ambush"},
		{"enc-2", "Bridge"},
	} {
		if err := store.CreateEncounter(context.Background(), storage.Encounter{ID: item.id, Name: item.name, Roster: sampleRoster()}); err != nil {
			t.Fatalf("create encounter %s: %v", item.id, err)
		}
	}

	first, err := store.ListEncounters(context.Background(), storage.ListOptions{PageSize: 2})
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	if len(first.Encounters) != 2 || first.Encounters[0].ID != "enc-1" || first.Encounters[1].ID != "enc-2" {
		t.Fatalf("unexpected first page %+v", first.Encounters)
	}
	if first.NextPageToken != "enc-2" {
		t.Fatalf("expected next token enc-2, got %q", first.NextPageToken)
	}
	if len(first.Encounters[0].Roster.Combatants) != 2 {
		t.Fatalf("expected listed rosters to load")
	}

	second, err := store.ListEncounters(context.Background(), storage.ListOptions{PageSize: 2, PageToken: first.NextPageToken})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(second.Encounters) != 1 || second.Encounters[0].ID != "enc-3" || second.NextPageToken != "" {
		t.Fatalf("unexpected second page %+v token %q", second.Encounters, second.NextPageToken)
	}

	filtered, err := store.ListEncounters(context.Background(), storage.ListOptions{PageSize: 10, Filter: `name = "Bridge"`})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered.Encounters) != 1 || filtered.Encounters[0].ID != "enc-2" {
		t.Fatalf("unexpected filtered page %+v", filtered.Encounters)
	}

	if _, err := store.ListEncounters(context.Background(), storage.ListOptions{PageSize: 10, Filter: `speed = 3`}); err == nil {
		t.Fatal("expected invalid filter error")
	}
	if _, err := store.ListEncounters(context.Background(), storage.ListOptions{}); err == nil {
		t.Fatal("expected page size error")
	}
}

func TestPutCharacterUpsertsAndKeepsCreatedAt(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	first := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return first }

	created, err := store.PutCharacter(context.Background(), storage.Character{
		ID:    "a",
		Name:  "Aria",
		Level: 4,
		Speed: &roster.SpeedStat{Base: 8, Bonus: 1, Gain: 2},
	})
	if err != nil {
		t.Fatalf("put character: %v", err)
	}
	if created.Speed == nil || *created.Speed != (roster.SpeedStat{Base: 8, Bonus: 1, Gain: 2}) {
		t.Fatalf("unexpected speed %+v", created.Speed)
	}
	if got := roster.ResolveSpeed(created.ToRoster()); got != 11 {
		t.Fatalf("expected resolved speed 11, got %d", got)
	}

	second := first.Add(time.Hour)
	store.now = func() time.Time { return second }
	updated, err := store.PutCharacter(context.Background(), storage.Character{ID: "a", Name: "Aria the Swift", Level: 5})
	if err != nil {
		t.Fatalf("update character: %v", err)
	}
	if updated.Name != "Aria the Swift" || updated.Level != 5 {
		t.Fatalf("unexpected update %+v", updated)
	}
	if updated.Speed != nil {
		t.Fatalf("expected speed stat cleared, got %+v", updated.Speed)
	}
	if !updated.CreatedAt.Equal(first) || !updated.UpdatedAt.Equal(second) {
		t.Fatalf("unexpected timestamps %s/%s", updated.CreatedAt, updated.UpdatedAt)
	}
}

func TestGetCharacters(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	for _, id := range []string{"a", "b"} {
		if _, err := store.PutCharacter(context.Background(), storage.Character{ID: id, Name: id}); err != nil {
			t.Fatalf("put character %s: %v", id, err)
		}
	}

	found, err := store.GetCharacters(context.Background(), []string{"a", "missing", "a", " ", "b"})
	if err != nil {
		t.Fatalf("get characters: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 characters, got %d", len(found))
	}
	if _, ok := found["missing"]; ok {
		t.Fatal("expected missing id to be skipped")
	}

	none, err := store.GetCharacters(context.Background(), nil)
	if err != nil {
		t.Fatalf("get no characters: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected empty map, got %v", none)
	}

	if _, err := store.GetCharacter(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListCharactersFiltersByLevel(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	for i, id := range []string{"a", "b", "c"} {
		if _, err := store.PutCharacter(context.Background(), storage.Character{ID: id, Name: id, Level: i + 1}); err != nil {
			t.Fatalf("put character %s: %v", id, err)
		}
	}

	page, err := store.ListCharacters(context.Background(), storage.ListOptions{PageSize: 1, Filter: "level >= 2"})
	if err != nil {
		t.Fatalf("list characters: %v", err)
	}
	if len(page.Characters) != 1 || page.Characters[0].ID != "b" || page.NextPageToken != "b" {
		t.Fatalf("unexpected page %+v token %q", page.Characters, page.NextPageToken)
	}

	next, err := store.ListCharacters(context.Background(), storage.ListOptions{PageSize: 1, Filter: "level >= 2", PageToken: page.NextPageToken})
	if err != nil {
		t.Fatalf("list next page: %v", err)
	}
	if len(next.Characters) != 1 || next.Characters[0].ID != "c" || next.NextPageToken != "" {
		t.Fatalf("unexpected next page %+v token %q", next.Characters, next.NextPageToken)
	}
}

func TestSaveRosterKeepsExplicitZeroPrefix(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.CreateEncounter(context.Background(), storage.Encounter{ID: "enc-1", Name: "Ambush", Roster: sampleRoster()}); err != nil {
		t.Fatalf("create encounter: %v", err)
	}
	off := sampleRoster()
	off.LockedPrefixLength = roster.PrefixLength(0)
	saved, err := store.SaveRoster(context.Background(), "enc-1", off, "gm-1")
	if err != nil {
		t.Fatalf("save roster: %v", err)
	}
	if saved.Roster.LockedPrefixLength == nil || *saved.Roster.LockedPrefixLength != 0 {
		t.Fatalf("expected explicit zero prefix, got %v", saved.Roster.LockedPrefixLength)
	}
}
