// Package errors provides structured error handling with i18n support.
package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Encounter errors
	CodeEncounterIDRequired Code = "ENCOUNTER_ID_REQUIRED"
	CodeEncounterNameEmpty  Code = "ENCOUNTER_NAME_EMPTY"

	// Character errors
	CodeCharacterIDRequired Code = "CHARACTER_ID_REQUIRED"
	CodeCharacterNameEmpty  Code = "CHARACTER_NAME_EMPTY"

	// Command errors
	CodeCommandUnknown         Code = "INITIATIVE_COMMAND_UNKNOWN"
	CodeCommandInvalidArgument Code = "INITIATIVE_COMMAND_INVALID_ARGUMENT"

	// Listing errors
	CodeFilterInvalid    Code = "FILTER_INVALID"
	CodePageTokenInvalid Code = "PAGE_TOKEN_INVALID"

	// Projection errors
	CodeProjectionOutOfRange Code = "PROJECTION_OUT_OF_RANGE"

	// Spectator grant errors
	CodeGrantRequired      Code = "SPECTATOR_GRANT_REQUIRED"
	CodeGrantInvalid       Code = "SPECTATOR_GRANT_INVALID"
	CodeGrantExpired       Code = "SPECTATOR_GRANT_EXPIRED"
	CodeGrantMismatch      Code = "SPECTATOR_GRANT_MISMATCH"
	CodeGrantNotConfigured Code = "SPECTATOR_GRANT_NOT_CONFIGURED"

	// Storage errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeEncounterIDRequired,
		CodeEncounterNameEmpty,
		CodeCharacterIDRequired,
		CodeCharacterNameEmpty,
		CodeCommandUnknown,
		CodeCommandInvalidArgument,
		CodeFilterInvalid,
		CodePageTokenInvalid,
		CodeProjectionOutOfRange:
		return codes.InvalidArgument

	// Unauthenticated - missing or unusable credentials
	case CodeGrantRequired,
		CodeGrantInvalid,
		CodeGrantExpired:
		return codes.Unauthenticated

	// PermissionDenied - valid credentials for something else
	case CodeGrantMismatch:
		return codes.PermissionDenied

	// FailedPrecondition - server state doesn't allow operation
	case CodeGrantNotConfigured:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	// AlreadyExists - unique resource constraint
	case CodeAlreadyExists:
		return codes.AlreadyExists

	default:
		return codes.Internal
	}
}

// HTTPStatus maps domain codes to HTTP status codes for the spectator API.
func (c Code) HTTPStatus() int {
	switch c.GRPCCode() {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.FailedPrecondition:
		return http.StatusPreconditionFailed
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
