package initiative

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/louisbranch/initiative/internal/services/initiative/core/encounter"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/grant"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/roster"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/schedule"
	"github.com/louisbranch/initiative/internal/services/initiative/storage"
)

// Encounter is the wire shape of a stored encounter.
type Encounter struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Roster    roster.Roster `json:"roster"`
	Revision  int64         `json:"revision"`
	UpdatedBy string        `json:"updatedBy,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Character is the wire shape of a stored character.
type Character struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Level     int               `json:"level"`
	Speed     *roster.SpeedStat `json:"speed,omitempty"`
	CreatedAt time.Time         `json:"createdAt,omitempty"`
	UpdatedAt time.Time         `json:"updatedAt,omitempty"`
}

// CreateEncounterRequest creates an encounter, optionally seeding its roster.
type CreateEncounterRequest struct {
	EncounterID  string   `json:"encounterId,omitempty"`
	Name         string   `json:"name"`
	CharacterIDs []string `json:"characterIds,omitempty"`
}

// EncounterRequest addresses one encounter.
type EncounterRequest struct {
	EncounterID string `json:"encounterId"`
}

// ListRequest selects one page of a listing.
type ListRequest struct {
	PageSize  int32  `json:"pageSize,omitempty"`
	PageToken string `json:"pageToken,omitempty"`
	Filter    string `json:"filter,omitempty"`
}

// ApplyCommandRequest runs one roster command.
type ApplyCommandRequest struct {
	EncounterID string           `json:"encounterId"`
	Command     schedule.Command `json:"command"`
}

// SimulateQueueRequest asks for the grouped queue of an encounter.
type SimulateQueueRequest struct {
	EncounterID string `json:"encounterId"`
	Steps       int    `json:"steps,omitempty"`
}

// ProjectTimelineRequest asks for the spectator timeline of an encounter.
type ProjectTimelineRequest struct {
	EncounterID string `json:"encounterId"`
	Length      int    `json:"length,omitempty"`
}

// PutCharacterRequest upserts a character.
type PutCharacterRequest struct {
	Character Character `json:"character"`
}

// CharacterRequest addresses one character.
type CharacterRequest struct {
	CharacterID string `json:"characterId"`
}

// IssueSpectatorGrantRequest asks for a spectator grant.
type IssueSpectatorGrantRequest struct {
	EncounterID string `json:"encounterId"`
	Subject     string `json:"subject,omitempty"`
}

// EncounterResponse carries one encounter.
type EncounterResponse struct {
	Encounter Encounter `json:"encounter"`
}

// ListEncountersResponse carries one page of encounters.
type ListEncountersResponse struct {
	Encounters    []Encounter `json:"encounters"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
}

// CharacterResponse carries one character.
type CharacterResponse struct {
	Character Character `json:"character"`
}

// ListCharactersResponse carries one page of characters.
type ListCharactersResponse struct {
	Characters    []Character `json:"characters"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
}

// GrantResponse carries an issued spectator grant.
type GrantResponse struct {
	Grant grant.Grant `json:"grant"`
}

// Empty is the response of calls without a payload.
type Empty struct{}

// QueueResponse is the grouped queue of an encounter.
type QueueResponse = encounter.QueueView

// TimelineResponse is the spectator timeline of an encounter.
type TimelineResponse = encounter.TimelineView

func encounterToWire(e storage.Encounter) Encounter {
	r := e.Roster.Clone()
	if r.Combatants == nil {
		r.Combatants = []roster.Combatant{}
	}
	return Encounter{
		ID:        e.ID,
		Name:      e.Name,
		Roster:    r,
		Revision:  e.Revision,
		UpdatedBy: e.UpdatedBy,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func characterToWire(c storage.Character) Character {
	return Character{
		ID:        c.ID,
		Name:      c.Name,
		Level:     c.Level,
		Speed:     c.Speed,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func characterFromWire(c Character) storage.Character {
	return storage.Character{ID: c.ID, Name: c.Name, Level: c.Level, Speed: c.Speed}
}

// encodeStruct renders a wire message as a protobuf Struct.
func encodeStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("encode struct: %w", err)
	}
	return out, nil
}

// decodeStruct fills a wire message from a protobuf Struct. A nil Struct
// leaves dst at its zero value.
func decodeStruct(in *structpb.Struct, dst any) error {
	if in == nil {
		return nil
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("decode struct: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal message: %w", err)
	}
	return nil
}
