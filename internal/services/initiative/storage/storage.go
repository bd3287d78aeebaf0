// Package storage defines persistence contracts for encounters and the
// character stats their rosters read speeds from.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/initiative/internal/services/initiative/domain/roster"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// Encounter is one persisted battle roster.
type Encounter struct {
	ID     string
	Name   string
	Roster roster.Roster
	// Revision increases by one on every committed roster.
	Revision int64
	// UpdatedBy names the actor behind the last commit, if known.
	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EncounterPage stores one page of encounters.
type EncounterPage struct {
	Encounters    []Encounter
	NextPageToken string
}

// Character is a persisted character sheet reduced to what speed resolution
// needs.
type Character struct {
	ID        string
	Name      string
	Level     int
	Speed     *roster.SpeedStat
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ToRoster converts the record into the engine's lookup shape.
func (c Character) ToRoster() roster.Character {
	character := roster.Character{ID: c.ID, Name: c.Name, Level: c.Level}
	if c.Speed != nil {
		speed := *c.Speed
		character.Speed = &speed
	}
	return character
}

// CharacterPage stores one page of characters.
type CharacterPage struct {
	Characters    []Character
	NextPageToken string
}

// ListOptions selects one page of a listing.
type ListOptions struct {
	PageSize int
	// PageToken is the last id of the previous page.
	PageToken string
	// Filter is an AIP-160 filter expression.
	Filter string
}

// EncounterStore persists encounters and their rosters.
type EncounterStore interface {
	CreateEncounter(ctx context.Context, encounter Encounter) error
	GetEncounter(ctx context.Context, encounterID string) (Encounter, error)
	ListEncounters(ctx context.Context, opts ListOptions) (EncounterPage, error)
	DeleteEncounter(ctx context.Context, encounterID string) error
	// SaveRoster replaces the whole roster in one transaction and returns the
	// committed encounter.
	SaveRoster(ctx context.Context, encounterID string, r roster.Roster, updatedBy string) (Encounter, error)
}

// CharacterStore persists character stats.
type CharacterStore interface {
	PutCharacter(ctx context.Context, character Character) (Character, error)
	GetCharacter(ctx context.Context, characterID string) (Character, error)
	// GetCharacters returns the known characters among ids; missing ids are
	// skipped.
	GetCharacters(ctx context.Context, ids []string) (map[string]Character, error)
	ListCharacters(ctx context.Context, opts ListOptions) (CharacterPage, error)
}
