// Package encounter orchestrates encounter rosters around the pure
// scheduling engine.
//
// Every mutation follows the same path: load the committed roster, prefetch
// the characters it can reference into an in-memory lookup, apply one
// command, replace the whole roster in storage and hand the committed
// snapshot to the publisher. Concurrent editors are last-write-wins; the
// revision counter only reports how many commits happened.
package encounter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/initiative/internal/platform/errors"
	"github.com/louisbranch/initiative/internal/platform/id"
	"github.com/louisbranch/initiative/internal/platform/requestctx"
	"github.com/louisbranch/initiative/internal/services/initiative/core/filter"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/grant"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/queue"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/roster"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/schedule"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/timeline"
	"github.com/louisbranch/initiative/internal/services/initiative/storage"
)

const tracerName = "github.com/louisbranch/initiative/internal/services/initiative/core/encounter"

const (
	// MaxQueueSteps bounds the depth of a queue simulation.
	MaxQueueSteps = 500
	// MaxTimelineLength bounds the number of projected timeline tiles.
	MaxTimelineLength = 100
)

// Service coordinates storage, the engine and spectator publishing.
type Service struct {
	encounters storage.EncounterStore
	characters storage.CharacterStore
	publisher  Publisher
	grants     grant.Config
	tracer     trace.Tracer
	newID      func() (string, error)
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets where committed encounters are broadcast.
func WithPublisher(publisher Publisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.publisher = publisher
		}
	}
}

// WithGrants sets the spectator grant configuration.
func WithGrants(cfg grant.Config) Option {
	return func(s *Service) {
		s.grants = cfg
	}
}

// WithIDGenerator overrides encounter id generation.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService builds a service over the given stores.
func NewService(encounters storage.EncounterStore, characters storage.CharacterStore, opts ...Option) *Service {
	s := &Service{
		encounters: encounters,
		characters: characters,
		publisher:  nopPublisher{},
		tracer:     otel.Tracer(tracerName),
		newID:      id.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateEncounterInput describes a new encounter.
type CreateEncounterInput struct {
	// ID is optional; a random id is generated when blank.
	ID   string
	Name string
	// CharacterIDs are added in order through the add mutator.
	CharacterIDs []string
}

// CreateEncounter persists a new encounter and its starting roster.
func (s *Service) CreateEncounter(ctx context.Context, in CreateEncounterInput) (storage.Encounter, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return storage.Encounter{}, apperrors.New(apperrors.CodeEncounterNameEmpty, "encounter name is required")
	}
	encounterID := strings.TrimSpace(in.ID)
	if encounterID == "" {
		generated, err := s.newID()
		if err != nil {
			return storage.Encounter{}, fmt.Errorf("generate encounter id: %w", err)
		}
		encounterID = generated
	}

	lookup, err := s.prefetch(ctx, in.CharacterIDs)
	if err != nil {
		return storage.Encounter{}, err
	}
	r := roster.Roster{Combatants: []roster.Combatant{}}
	for _, characterID := range in.CharacterIDs {
		r = schedule.Add(r, lookup, strings.TrimSpace(characterID))
	}

	if err := s.encounters.CreateEncounter(ctx, storage.Encounter{
		ID:        encounterID,
		Name:      name,
		Roster:    r,
		UpdatedBy: requestctx.ActorIDFromContext(ctx),
	}); err != nil {
		return storage.Encounter{}, storageError(err, "encounter", encounterID)
	}
	created, err := s.GetEncounter(ctx, encounterID)
	if err != nil {
		return storage.Encounter{}, err
	}
	s.publisher.Publish(ctx, created)
	return created, nil
}

// GetEncounter returns one encounter.
func (s *Service) GetEncounter(ctx context.Context, encounterID string) (storage.Encounter, error) {
	encounterID = strings.TrimSpace(encounterID)
	if encounterID == "" {
		return storage.Encounter{}, apperrors.New(apperrors.CodeEncounterIDRequired, "encounter id is required")
	}
	encounter, err := s.encounters.GetEncounter(ctx, encounterID)
	if err != nil {
		return storage.Encounter{}, storageError(err, "encounter", encounterID)
	}
	return encounter, nil
}

// ListEncounters returns one page of encounters.
func (s *Service) ListEncounters(ctx context.Context, opts storage.ListOptions) (storage.EncounterPage, error) {
	if _, err := filter.ParseEncounterFilter(opts.Filter); err != nil {
		return storage.EncounterPage{}, apperrors.Wrap(apperrors.CodeFilterInvalid, "invalid filter", err)
	}
	if err := checkPageToken(opts.PageToken); err != nil {
		return storage.EncounterPage{}, err
	}
	page, err := s.encounters.ListEncounters(ctx, opts)
	if err != nil {
		return storage.EncounterPage{}, storageError(err, "encounter", "")
	}
	return page, nil
}

// DeleteEncounter removes an encounter and retires its spectator streams.
func (s *Service) DeleteEncounter(ctx context.Context, encounterID string) error {
	encounterID = strings.TrimSpace(encounterID)
	if encounterID == "" {
		return apperrors.New(apperrors.CodeEncounterIDRequired, "encounter id is required")
	}
	if err := s.encounters.DeleteEncounter(ctx, encounterID); err != nil {
		return storageError(err, "encounter", encounterID)
	}
	s.publisher.Retire(ctx, encounterID)
	return nil
}

// ApplyCommand runs one command against an encounter roster and commits the
// result. Commands whose preconditions do not hold still commit the
// unchanged roster.
func (s *Service) ApplyCommand(ctx context.Context, encounterID string, cmd schedule.Command) (_ storage.Encounter, err error) {
	cmd = cmd.Normalize()
	ctx, span := s.tracer.Start(ctx, "initiative.apply", trace.WithAttributes(
		attribute.String("initiative.encounter_id", encounterID),
		attribute.String("initiative.command", string(cmd.Type)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
		}
		span.End()
	}()

	if err := cmd.Validate(); err != nil {
		return storage.Encounter{}, commandError(cmd, err)
	}
	current, err := s.GetEncounter(ctx, encounterID)
	if err != nil {
		return storage.Encounter{}, err
	}

	ids := current.Roster.IDs()
	if cmd.CharacterID != "" {
		ids = append(ids, cmd.CharacterID)
	}
	lookup, err := s.prefetch(ctx, ids)
	if err != nil {
		return storage.Encounter{}, err
	}
	next, err := schedule.Apply(current.Roster, lookup, cmd)
	if err != nil {
		return storage.Encounter{}, commandError(cmd, err)
	}

	saved, err := s.encounters.SaveRoster(ctx, current.ID, next, requestctx.ActorIDFromContext(ctx))
	if err != nil {
		return storage.Encounter{}, storageError(err, "encounter", current.ID)
	}
	span.SetAttributes(attribute.Int64("initiative.revision", saved.Revision))
	s.publisher.Publish(ctx, saved)
	return saved, nil
}

// QueueView is a grouped projection of upcoming turns.
type QueueView struct {
	EncounterID string              `json:"encounterId"`
	Revision    int64               `json:"revision"`
	Groups      []queue.BattleGroup `json:"groups"`
}

// SimulateQueue projects the next steps turns of an encounter.
func (s *Service) SimulateQueue(ctx context.Context, encounterID string, steps int) (QueueView, error) {
	if err := checkDepth("steps", steps, MaxQueueSteps); err != nil {
		return QueueView{}, err
	}
	encounter, err := s.GetEncounter(ctx, encounterID)
	if err != nil {
		return QueueView{}, err
	}
	return QueueOf(encounter, steps), nil
}

// QueueOf projects the queue of an already loaded encounter.
func QueueOf(encounter storage.Encounter, steps int) QueueView {
	groups := queue.Simulate(encounter.Roster.Combatants, steps)
	if groups == nil {
		groups = []queue.BattleGroup{}
	}
	return QueueView{EncounterID: encounter.ID, Revision: encounter.Revision, Groups: groups}
}

// TimelineView is a spectator timeline projection.
type TimelineView struct {
	EncounterID string `json:"encounterId"`
	Revision    int64  `json:"revision"`
	timeline.Projection
}

// ProjectTimeline projects the spectator timeline of an encounter.
func (s *Service) ProjectTimeline(ctx context.Context, encounterID string, length int) (TimelineView, error) {
	if err := checkDepth("length", length, MaxTimelineLength); err != nil {
		return TimelineView{}, err
	}
	encounter, err := s.GetEncounter(ctx, encounterID)
	if err != nil {
		return TimelineView{}, err
	}
	return TimelineOf(encounter, length), nil
}

// TimelineOf projects the timeline of an already loaded encounter.
func TimelineOf(encounter storage.Encounter, length int) TimelineView {
	return TimelineView{
		EncounterID: encounter.ID,
		Revision:    encounter.Revision,
		Projection:  timeline.Project(encounter.Roster, length),
	}
}

// PutCharacter upserts a character.
func (s *Service) PutCharacter(ctx context.Context, character storage.Character) (storage.Character, error) {
	character.ID = strings.TrimSpace(character.ID)
	character.Name = strings.TrimSpace(character.Name)
	if character.ID == "" {
		return storage.Character{}, apperrors.New(apperrors.CodeCharacterIDRequired, "character id is required")
	}
	if character.Name == "" {
		return storage.Character{}, apperrors.New(apperrors.CodeCharacterNameEmpty, "character name is required")
	}
	stored, err := s.characters.PutCharacter(ctx, character)
	if err != nil {
		return storage.Character{}, storageError(err, "character", character.ID)
	}
	return stored, nil
}

// GetCharacter returns one character.
func (s *Service) GetCharacter(ctx context.Context, characterID string) (storage.Character, error) {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return storage.Character{}, apperrors.New(apperrors.CodeCharacterIDRequired, "character id is required")
	}
	character, err := s.characters.GetCharacter(ctx, characterID)
	if err != nil {
		return storage.Character{}, storageError(err, "character", characterID)
	}
	return character, nil
}

// ListCharacters returns one page of characters.
func (s *Service) ListCharacters(ctx context.Context, opts storage.ListOptions) (storage.CharacterPage, error) {
	if _, err := filter.ParseCharacterFilter(opts.Filter); err != nil {
		return storage.CharacterPage{}, apperrors.Wrap(apperrors.CodeFilterInvalid, "invalid filter", err)
	}
	if err := checkPageToken(opts.PageToken); err != nil {
		return storage.CharacterPage{}, err
	}
	page, err := s.characters.ListCharacters(ctx, opts)
	if err != nil {
		return storage.CharacterPage{}, storageError(err, "character", "")
	}
	return page, nil
}

// IssueSpectatorGrant signs a read-only grant for an existing encounter.
func (s *Service) IssueSpectatorGrant(ctx context.Context, encounterID, subject string) (grant.Grant, error) {
	encounter, err := s.GetEncounter(ctx, encounterID)
	if err != nil {
		return grant.Grant{}, err
	}
	issued, err := grant.Issue(s.grants, encounter.ID, subject)
	if err != nil {
		if errors.Is(err, grant.ErrNotConfigured) {
			return grant.Grant{}, apperrors.Wrap(apperrors.CodeGrantNotConfigured, "spectator grant issuer is not configured", err)
		}
		return grant.Grant{}, err
	}
	return issued, nil
}

// AuthorizeSpectator checks token against encounterID. Servers without a
// verification key leave spectator views open.
func (s *Service) AuthorizeSpectator(encounterID, token string) error {
	if !s.grants.CanVerify() {
		return nil
	}
	_, err := grant.Validate(s.grants, token, strings.TrimSpace(encounterID))
	return err
}

// prefetch loads the stored characters among ids into a lookup.
func (s *Service) prefetch(ctx context.Context, ids []string) (roster.CharacterLookup, error) {
	if s.characters == nil || len(ids) == 0 {
		return roster.NoCharacters, nil
	}
	stored, err := s.characters.GetCharacters(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("prefetch characters: %w", err)
	}
	lookup := make(roster.Characters, len(stored))
	for characterID, character := range stored {
		lookup[characterID] = character.ToRoster()
	}
	return lookup, nil
}

// checkPageToken rejects tokens that cannot be the id of a previous page's
// last row.
func checkPageToken(token string) error {
	if !utf8.ValidString(token) || strings.IndexFunc(token, unicode.IsControl) >= 0 {
		return apperrors.New(apperrors.CodePageTokenInvalid, "page token is malformed")
	}
	return nil
}

// checkDepth rejects projection depths outside [0, limit]. Zero selects the
// engine default.
func checkDepth(field string, value, limit int) error {
	if value >= 0 && value <= limit {
		return nil
	}
	return apperrors.WithMetadata(
		apperrors.CodeProjectionOutOfRange,
		fmt.Sprintf("%s must be between 0 and %d", field, limit),
		map[string]string{apperrors.MetadataField: field, "Max": strconv.Itoa(limit)},
	)
}

func storageError(err error, resource, id string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.ForResource(apperrors.CodeNotFound, resource, id, err)
	case errors.Is(err, storage.ErrAlreadyExists):
		return apperrors.ForResource(apperrors.CodeAlreadyExists, resource, id, err)
	default:
		return err
	}
}

func commandError(cmd schedule.Command, err error) error {
	metadata := map[string]string{"Type": string(cmd.Type)}
	if errors.Is(err, schedule.ErrCharacterIDRequired) {
		return apperrors.WrapWithMetadata(apperrors.CodeCommandInvalidArgument, err.Error(), metadata, err)
	}
	return apperrors.WrapWithMetadata(apperrors.CodeCommandUnknown, err.Error(), metadata, err)
}
