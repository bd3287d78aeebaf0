package initiative

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/louisbranch/initiative/internal/platform/errors"
	"github.com/louisbranch/initiative/internal/platform/grpc/pagination"
	"github.com/louisbranch/initiative/internal/services/initiative/core/encounter"
	"github.com/louisbranch/initiative/internal/services/initiative/storage"
)

const (
	defaultListPageSize = 10
	maxListPageSize     = 50
)

// Depth limits of SimulateQueue and ProjectTimeline.
const (
	MaxQueueSteps     = encounter.MaxQueueSteps
	MaxTimelineLength = encounter.MaxTimelineLength
)

// Service implements InitiativeServiceServer over the encounter service.
type Service struct {
	app *encounter.Service
}

// NewService creates the gRPC facade.
func NewService(app *encounter.Service) *Service {
	return &Service{app: app}
}

// handleDomainError renders err for the caller's locale.
func handleDomainError(ctx context.Context, err error) error {
	return apperrors.HandleError(err, apperrors.LocaleFromContext(ctx))
}

func (s *Service) ready() error {
	if s == nil || s.app == nil {
		return status.Error(codes.Internal, "initiative service is not configured")
	}
	return nil
}

func decodeRequest(in *structpb.Struct, dst any) error {
	if in == nil {
		return status.Error(codes.InvalidArgument, "request is required")
	}
	if err := decodeStruct(in, dst); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	return nil
}

func encodeResponse(v any) (*structpb.Struct, error) {
	out, err := encodeStruct(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func listOptions(in ListRequest) storage.ListOptions {
	return storage.ListOptions{
		PageSize: pagination.ClampPageSize(in.PageSize, pagination.PageSizeConfig{
			Default: defaultListPageSize,
			Max:     maxListPageSize,
		}),
		PageToken: pagination.PageToken(in.PageToken),
		Filter:    strings.TrimSpace(in.Filter),
	}
}

// CreateEncounter creates an encounter.
func (s *Service) CreateEncounter(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var req CreateEncounterRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	created, err := s.app.CreateEncounter(ctx, encounter.CreateEncounterInput{
		ID:           req.EncounterID,
		Name:         req.Name,
		CharacterIDs: req.CharacterIDs,
	})
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return encodeResponse(EncounterResponse{Encounter: encounterToWire(created)})
}

// GetEncounter returns one encounter.
func (s *Service) GetEncounter(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var req EncounterRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	found, err := s.app.GetEncounter(ctx, req.EncounterID)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return encodeResponse(EncounterResponse{Encounter: encounterToWire(found)})
}

// ListEncounters returns a page of encounters.
func (s *Service) ListEncounters(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var req ListRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	page, err := s.app.ListEncounters(ctx, listOptions(req))
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	resp := ListEncountersResponse{
		Encounters:    make([]Encounter, 0, len(page.Encounters)),
		NextPageToken: page.NextPageToken,
	}
	for _, e := range page.Encounters {
		resp.Encounters = append(resp.Encounters, encounterToWire(e))
	}
	return encodeResponse(resp)
}

// DeleteEncounter removes an encounter.
func (s *Service) DeleteEncounter(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var req EncounterRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	if err := s.app.DeleteEncounter(ctx, req.EncounterID); err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return encodeResponse(Empty{})
}

// ApplyCommand mutates an encounter roster.
func (s *Service) ApplyCommand(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var req ApplyCommandRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	saved, err := s.app.ApplyCommand(ctx, req.EncounterID, req.Command)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return encodeResponse(EncounterResponse{Encounter: encounterToWire(saved)})
}

// SimulateQueue returns the grouped turn queue.
func (s *Service) SimulateQueue(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var req SimulateQueueRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	view, err := s.app.SimulateQueue(ctx, req.EncounterID, req.Steps)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return encodeResponse(view)
}

// ProjectTimeline returns the spectator timeline.
func (s *Service) ProjectTimeline(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var req ProjectTimelineRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	view, err := s.app.ProjectTimeline(ctx, req.EncounterID, req.Length)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return encodeResponse(view)
}

// PutCharacter upserts a character.
func (s *Service) PutCharacter(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var req PutCharacterRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	stored, err := s.app.PutCharacter(ctx, characterFromWire(req.Character))
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return encodeResponse(CharacterResponse{Character: characterToWire(stored)})
}

// GetCharacter returns one character.
func (s *Service) GetCharacter(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var req CharacterRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	found, err := s.app.GetCharacter(ctx, req.CharacterID)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return encodeResponse(CharacterResponse{Character: characterToWire(found)})
}

// ListCharacters returns a page of characters.
func (s *Service) ListCharacters(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var req ListRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	page, err := s.app.ListCharacters(ctx, listOptions(req))
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	resp := ListCharactersResponse{
		Characters:    make([]Character, 0, len(page.Characters)),
		NextPageToken: page.NextPageToken,
	}
	for _, c := range page.Characters {
		resp.Characters = append(resp.Characters, characterToWire(c))
	}
	return encodeResponse(resp)
}

// IssueSpectatorGrant signs a spectator grant for an encounter.
func (s *Service) IssueSpectatorGrant(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var req IssueSpectatorGrantRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	issued, err := s.app.IssueSpectatorGrant(ctx, req.EncounterID, req.Subject)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return encodeResponse(GrantResponse{Grant: issued})
}

var _ InitiativeServiceServer = (*Service)(nil)
